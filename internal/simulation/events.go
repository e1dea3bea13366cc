package simulation

import "sync"

// EventKind names a step in the life of a run.
type EventKind string

const (
	EventRunStart  EventKind = "run_start"
	EventFound     EventKind = "found"
	EventEligible  EventKind = "eligible"
	EventChoice    EventKind = "choice"
	EventCategory  EventKind = "category"
	EventProblem   EventKind = "problem"
	EventRunEnd    EventKind = "run_end"
	EventRunFailed EventKind = "run_failed"
)

// Event is emitted by a run as it plays. Names carries the items, milestones,
// or categories the event is about; Report is set for category and problem
// events.
type Event struct {
	Kind     EventKind
	File     string
	Scenario string
	Run      int
	Step     int
	Names    []string
	Report   string
	Err      error
}

// Observer receives run events. Observers shared by a Simulator are called
// from several workers at once and must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// MultiObserver fans events out to every non-nil observer.
func MultiObserver(observers ...Observer) Observer {
	var out multiObserver
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// Recorder is an Observer that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe records e.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded event kinds in order, optionally restricted to
// one run.
func (r *Recorder) Kinds(run int) []EventKind {
	var out []EventKind
	for _, e := range r.Events() {
		if run < 0 || e.Run == run {
			out = append(out, e.Kind)
		}
	}
	return out
}
