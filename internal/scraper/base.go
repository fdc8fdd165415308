// Collaborators the harvester drives
// State machine vocabulary

package scraper

import (
	"fmt"

	"go-glassdoor-harvester/internal/record"
)

// Sink persists one normalized record. Any error is fatal to the run.
type Sink interface {
	Write(rec *record.Record) error
}

// Normalizer turns a raw record into its typed form in place.
type Normalizer interface {
	Run(rec *record.Record) error
}

// Snapshotter is implemented by drivers that can capture a screenshot.
type Snapshotter interface {
	Screenshot(path string) error
}

type State int

const (
	LoadListing State = iota
	IterateItems
	ExtractDetail
	Gate
	Normalize
	Write
	ContinueItems
	AdvancePage
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case LoadListing:
		return "LoadListing"
	case IterateItems:
		return "IterateItems"
	case ExtractDetail:
		return "ExtractDetail"
	case Gate:
		return "Gate"
	case Normalize:
		return "Normalize"
	case Write:
		return "Write"
	case ContinueItems:
		return "ContinueItems"
	case AdvancePage:
		return "AdvancePage"
	case Done:
		return "Done"
	case Aborted:
		return "Aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ResumeIndex is the item to continue from after c rows were written out of
// a page of n items. It is always in [0, n).
func ResumeIndex(c, n int) int {
	if n <= 0 {
		return 0
	}
	i := c % n
	if i < 0 {
		i += n
	}
	return i
}

// Result is reported when the target is reached.
type Result struct {
	Written int
	Target  int
	Pages   int
	Reloads int
}

// AbortError ends a run that cannot make further progress.
type AbortError struct {
	State     State
	Reason    string
	Shortfall int
	Err       error
}

func (e *AbortError) Error() string {
	msg := fmt.Sprintf("aborted in %s: %s", e.State, e.Reason)
	if e.Shortfall > 0 {
		msg += fmt.Sprintf(" (%d records short of target)", e.Shortfall)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AbortError) Unwrap() error { return e.Err }
