package scraper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-glassdoor-harvester/internal/browser"
	"go-glassdoor-harvester/internal/record"
)

const detailSelector = `div[data-test="jobDetailsContainer"]`

// fakeDriver replays scripted listing pages through browser.Node. Items carry
// a data-id; clicking one selects its detail panel.
type fakeDriver struct {
	pages   [][]string
	details map[string][]string
	popup   bool

	clickErrs  map[string][]error
	detailErrs []error
	navErrs    []error

	page    int
	current string
	doc     *browser.Node

	clicks       []string
	scriptClicks int
	navigations  int
	reloads      int
}

func newFakeDriver(pages ...[]string) *fakeDriver {
	f := &fakeDriver{
		pages:     pages,
		details:   map[string][]string{},
		clickErrs: map[string][]error{},
	}
	f.render()
	return f
}

func (f *fakeDriver) render() {
	var b strings.Builder
	b.WriteString("<html><body>")
	if f.popup {
		b.WriteString(`<img alt="Close" data-id="popup">`)
	}
	if f.page < len(f.pages) && f.pages[f.page] != nil {
		b.WriteString(`<ul aria-label="Jobs List">`)
		for _, id := range f.pages[f.page] {
			fmt.Fprintf(&b, `<li data-test="jobListing" data-id="%s"><div data-test="job-age">%dd</div></li>`, id, f.page+1)
		}
		b.WriteString(`</ul>`)
		if f.page < len(f.pages)-1 {
			b.WriteString(`<button data-test="pagination-next" data-id="next">Next</button>`)
		} else {
			b.WriteString(`<button data-test="pagination-next" data-id="next" disabled>Next</button>`)
		}
	}
	b.WriteString("</body></html>")

	doc, err := browser.ParseHTML(b.String())
	if err != nil {
		panic(err)
	}
	f.doc = doc
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeDriver) Locate(query string) (browser.Element, error) {
	return f.doc.Locate(query)
}

func (f *fakeDriver) LocateAll(query string) ([]browser.Element, error) {
	return f.doc.LocateAll(query)
}

func (f *fakeDriver) Navigate(string) error {
	f.navigations++
	if err := popErr(&f.navErrs); err != nil {
		return err
	}
	f.page, f.current = 0, ""
	f.render()
	return nil
}

func (f *fakeDriver) Reload() error {
	f.reloads++
	f.current = ""
	f.render()
	return nil
}

func (f *fakeDriver) WaitFor(query string, _ time.Duration) (browser.Element, error) {
	if query != detailSelector {
		el, err := f.doc.Locate(query)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", browser.ErrTimeout, query)
		}
		return el, nil
	}

	if err := popErr(&f.detailErrs); err != nil {
		return nil, err
	}
	seq := f.details[f.current]
	if f.current == "" || len(seq) == 0 {
		return nil, browser.ErrTimeout
	}
	html := seq[0]
	if len(seq) > 1 {
		f.details[f.current] = seq[1:]
	}
	doc, err := browser.ParseHTML(html)
	if err != nil {
		return nil, err
	}
	return doc.Locate(query)
}

func (f *fakeDriver) Click(el browser.Element) error {
	id := elementID(el)
	errs := f.clickErrs[id]
	err := popErr(&errs)
	f.clickErrs[id] = errs
	if err != nil {
		return err
	}
	f.selectID(id)
	return nil
}

func (f *fakeDriver) ClickViaScript(el browser.Element) error {
	f.scriptClicks++
	f.selectID(elementID(el))
	return nil
}

func (f *fakeDriver) selectID(id string) {
	f.clicks = append(f.clicks, id)
	switch id {
	case "next":
		f.page++
		f.current = ""
		f.render()
	case "popup":
		f.popup = false
		f.render()
	default:
		f.current = id
	}
}

func (f *fakeDriver) Content() (string, error) {
	return f.doc.HTML()
}

func elementID(el browser.Element) string {
	n, ok := el.(*browser.Node)
	if !ok {
		return ""
	}
	id, _ := n.Attr("data-id")
	return id
}

func detailHTML(company string) string {
	return fmt.Sprintf(`<div data-test="jobDetailsContainer">
  <div data-test="employerName">%s</div>
  <span data-test="detailRating">4.1</span>
  <span data-test="detailSalary">$51K - $81K (Glassdoor est.)</span>
</div>`, company)
}

// withDetails gives every id a detail panel whose company name is the id.
func (f *fakeDriver) withDetails(ids ...string) *fakeDriver {
	for _, id := range ids {
		f.details[id] = []string{detailHTML("Company " + id)}
	}
	return f
}

type memSink struct {
	records []*record.Record
	failAt  int
}

func (s *memSink) Write(rec *record.Record) error {
	if s.failAt > 0 && len(s.records)+1 == s.failAt {
		return errors.New("disk full")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memSink) companies() []string {
	out := make([]string, len(s.records))
	for i, rec := range s.records {
		v, _ := rec.Get(GateField)
		out[i] = v.Str()
	}
	return out
}
