package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// xpathPrefix selects playwright's XPath engine; the expression is evaluated
// relative to the node it is run on.
const xpathPrefix = "xpath="

// Node serves Scope and Element queries from a parsed HTML document. Plain
// queries are CSS selectors run by goquery; "xpath=" queries go through
// htmlquery, so a saved page answers the same locators as the live one.
type Node struct {
	sel *goquery.Selection
}

func ParseDocument(r io.Reader) (*Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Node{sel: doc.Selection}, nil
}

func ParseHTML(html string) (*Node, error) {
	return ParseDocument(strings.NewReader(html))
}

func (n *Node) Locate(query string) (Element, error) {
	all, err := n.LocateAll(query)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	return all[0], nil
}

func (n *Node) LocateAll(query string) ([]Element, error) {
	if expr, ok := strings.CutPrefix(query, xpathPrefix); ok {
		return n.queryXPath(expr)
	}
	found := n.sel.Find(query)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Node{sel: s})
	})
	return out, nil
}

func (n *Node) queryXPath(expr string) ([]Element, error) {
	var out []Element
	for _, root := range n.sel.Nodes {
		found, err := htmlquery.QueryAll(root, expr)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w", expr, err)
		}
		for _, node := range found {
			out = append(out, &Node{sel: goquery.NewDocumentFromNode(node).Selection})
		}
	}
	return out, nil
}

func (n *Node) Text() (string, error) {
	return n.sel.Text(), nil
}

func (n *Node) Enabled() (bool, error) {
	if _, disabled := n.sel.Attr("disabled"); disabled {
		return false, nil
	}
	if v, ok := n.sel.Attr("aria-disabled"); ok && v == "true" {
		return false, nil
	}
	return true, nil
}

func (n *Node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// HTML renders the node's outer HTML.
func (n *Node) HTML() (string, error) {
	return goquery.OuterHtml(n.sel)
}
