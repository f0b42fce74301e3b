package progress

import "sync"

// Phase names a unit of engine work.
type Phase string

const (
	PhaseScan   Phase = "scan"
	PhaseHash   Phase = "hash"
	PhaseGroup  Phase = "group"
	PhaseSave   Phase = "save"
	PhaseExport Phase = "export"
)

// Kind distinguishes batch boundaries from per-item outcomes.
type Kind int

const (
	KindStart Kind = iota
	KindItem
	KindComplete
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindItem:
		return "item"
	case KindComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Outcome is the per-item result reported with KindItem events.
type Outcome string

const (
	OutcomeScanned   Outcome = "scanned"
	OutcomeHashed    Outcome = "hashed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeMatched   Outcome = "matched"
	OutcomeGrouped   Outcome = "grouped"
	OutcomeCopied    Outcome = "copied"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeRemoved   Outcome = "removed"
	OutcomeConverted Outcome = "converted"
	OutcomeFailed    Outcome = "failed"
)

// Counts aggregates item outcomes for a Complete event.
type Counts map[Outcome]int

// Event is one progress notification.
type Event struct {
	RunID   string
	Phase   Phase
	Kind    Kind
	Total   int
	Outcome Outcome
	Path    string
	Target  string
	Err     error
	Counts  Counts
}

// Observer receives events. Implementations must not block for long; the
// engine calls Observe synchronously between units of work.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	if f != nil {
		f(e)
	}
}

// Nop discards all events.
var Nop Observer = ObserverFunc(nil)

// OrNop returns o, or Nop when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop
	}
	return o
}

type multi []Observer

func (m multi) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// Multi fans events out to every non-nil observer.
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Channel forwards events to a buffered channel for a consumer on another
// goroutine. When the buffer is full an item event is dropped and counted
// rather than blocking the sender. Start and complete events always wait for
// room so the consumer sees every phase boundary.
type Channel struct {
	events  chan Event
	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewChannel returns a Channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	if buffer < 1 {
		buffer = 1
	}
	return &Channel{events: make(chan Event, buffer)}
}

// Events exposes the receive side.
func (c *Channel) Events() <-chan Event {
	return c.events
}

func (c *Channel) Observe(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if e.Kind != KindItem {
		c.events <- e
		return
	}
	select {
	case c.events <- e:
	default:
		c.dropped++
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close closes the event channel. Later events are ignored.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Outcomes returns the outcomes of recorded item events for phase, in order.
func (r *Recorder) Outcomes(phase Phase) []Outcome {
	var out []Outcome
	for _, e := range r.Events() {
		if e.Phase == phase && e.Kind == KindItem {
			out = append(out, e.Outcome)
		}
	}
	return out
}

// Tally counts outcomes as events are emitted. The zero value is ready.
type Tally struct {
	counts Counts
}

// Add records one outcome and returns it.
func (t *Tally) Add(o Outcome) Outcome {
	if t.counts == nil {
		t.counts = Counts{}
	}
	t.counts[o]++
	return o
}

// Counts returns a copy of the tallied outcomes.
func (t *Tally) Counts() Counts {
	out := make(Counts, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
