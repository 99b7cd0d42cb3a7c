package fixloop

import (
	"github.com/dimensionhq/neura/internal/diagnostic"
	"github.com/dimensionhq/neura/internal/provider"
)

type EventKind int

const (
	EventCheckStarted EventKind = iota
	EventCheckFinished
	EventRequestStarted
	EventPlanReceived
	EventEditApplied
	EventEditInvalid
	EventSkipped
	EventReverifyStarted
	EventReverifyFinished
)

// Event is emitted as the loop progresses. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind        EventKind
	Index       int
	Total       int
	Diagnostic  diagnostic.Diagnostic
	Diagnostics []diagnostic.Diagnostic
	Result      Result
	Edit        provider.Edit
	Err         error
}

type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
