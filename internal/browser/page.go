package browser

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	navigationTimeout = 30 * time.Second
	clickTimeout      = 5 * time.Second
)

// Page adapts a playwright page to Driver. Elements are element handles, so a
// node replaced by a re-render shows up as ErrStaleElement rather than being
// silently re-resolved.
type Page struct {
	page playwright.Page
}

func NewPage(page playwright.Page) *Page {
	return &Page{page: page}
}

// Raw exposes the underlying playwright page.
func (p *Page) Raw() playwright.Page { return p.page }

func (p *Page) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(navigationTimeout),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, classify(err))
	}
	return nil
}

func (p *Page) Reload() error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(navigationTimeout),
	})
	if err != nil {
		return fmt.Errorf("reload: %w", classify(err))
	}
	return nil
}

func (p *Page) Locate(query string) (Element, error) {
	h, err := p.page.QuerySelector(query)
	if err != nil {
		return nil, classify(err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	return &handle{h: h}, nil
}

func (p *Page) LocateAll(query string) ([]Element, error) {
	hs, err := p.page.QuerySelectorAll(query)
	if err != nil {
		return nil, classify(err)
	}
	return wrapHandles(hs), nil
}

func (p *Page) WaitFor(query string, timeout time.Duration) (Element, error) {
	h, err := p.page.WaitForSelector(query, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: millis(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", query, classify(err))
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	return &handle{h: h}, nil
}

func (p *Page) Click(el Element) error {
	h, err := asHandle(el)
	if err != nil {
		return err
	}
	return classify(h.h.Click(playwright.ElementHandleClickOptions{
		Timeout: millis(clickTimeout),
	}))
}

func (p *Page) ClickViaScript(el Element) error {
	h, err := asHandle(el)
	if err != nil {
		return err
	}
	_, err = p.page.Evaluate("el => el.click()", h.h)
	return classify(err)
}

func (p *Page) Content() (string, error) {
	return p.page.Content()
}

func (p *Page) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Humanize moves the mouse around and scrolls a little, like a reader would.
func (p *Page) Humanize() error {
	for i := 0; i < 3; i++ {
		x := float64(rand.Intn(800) + 100)
		y := float64(rand.Intn(600) + 100)
		if err := p.page.Mouse().Move(x, y); err != nil {
			return err
		}
		RandomDelay(100, 300)
	}
	if err := p.page.Mouse().Wheel(0, 500); err != nil {
		return err
	}
	RandomDelay(300, 700)
	return p.page.Mouse().Wheel(0, -200)
}

type handle struct {
	h playwright.ElementHandle
}

func (e *handle) Locate(query string) (Element, error) {
	h, err := e.h.QuerySelector(query)
	if err != nil {
		return nil, classify(err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	return &handle{h: h}, nil
}

func (e *handle) LocateAll(query string) ([]Element, error) {
	hs, err := e.h.QuerySelectorAll(query)
	if err != nil {
		return nil, classify(err)
	}
	return wrapHandles(hs), nil
}

func (e *handle) Text() (string, error) {
	text, err := e.h.InnerText()
	if err != nil {
		return "", classify(err)
	}
	return text, nil
}

func (e *handle) Enabled() (bool, error) {
	ok, err := e.h.IsEnabled()
	if err != nil {
		return false, classify(err)
	}
	return ok, nil
}

func wrapHandles(hs []playwright.ElementHandle) []Element {
	out := make([]Element, 0, len(hs))
	for _, h := range hs {
		out = append(out, &handle{h: h})
	}
	return out
}

func asHandle(el Element) (*handle, error) {
	h, ok := el.(*handle)
	if !ok {
		return nil, fmt.Errorf("element %T does not belong to a playwright page", el)
	}
	return h, nil
}

// classify maps playwright failures onto the package's sentinel errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "intercepts pointer events"):
		return fmt.Errorf("%w: %v", ErrClickIntercepted, err)
	case strings.Contains(msg, "not attached to the DOM"),
		strings.Contains(msg, "Element is detached"),
		strings.Contains(msg, "JSHandle is disposed"):
		return fmt.Errorf("%w: %v", ErrStaleElement, err)
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
