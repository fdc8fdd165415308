// Package browser is the narrow surface the harvester needs from a browser:
// navigate, locate, click and bounded waits. Page adapts playwright-go to it,
// Node serves the same queries from a static HTML document.
package browser

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("element not found")
	ErrTimeout          = errors.New("timed out waiting for element")
	ErrStaleElement     = errors.New("stale element reference")
	ErrClickIntercepted = errors.New("click intercepted by another element")
)

// Scope is anything a locator can be resolved against: the whole page,
// a detail panel or a single list item.
type Scope interface {
	// Locate returns the first match or ErrNotFound.
	Locate(query string) (Element, error)
	// LocateAll returns every match in document order, possibly none.
	LocateAll(query string) ([]Element, error)
}

type Element interface {
	Scope
	Text() (string, error)
	Enabled() (bool, error)
}

// Driver is one live page. Every call blocks until it succeeds or its
// bounded timeout elapses.
type Driver interface {
	Scope
	Navigate(url string) error
	Reload() error
	WaitFor(query string, timeout time.Duration) (Element, error)
	// Click fails with ErrClickIntercepted when another element receives the
	// click and ErrStaleElement when el is no longer attached.
	Click(el Element) error
	// ClickViaScript dispatches the click from page script, bypassing overlays.
	ClickViaScript(el Element) error
	Content() (string, error)
}

// Humanizer is implemented by drivers that can fake idle user activity.
type Humanizer interface {
	Humanize() error
}
