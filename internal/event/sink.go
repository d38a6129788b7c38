package event

import (
	"sync"

	"github.com/rs/zerolog"
)

// Sink consumes events after the block that produced them was committed.
type Sink interface {
	Publish(Event)
}

// Multi fans out every event to all sinks in order.
type Multi []Sink

func (m Multi) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// LogSink writes events to a zerolog logger.
type LogSink struct {
	Logger zerolog.Logger
}

func (l LogSink) Publish(e Event) {
	ev := l.Logger.Debug()
	switch v := e.(type) {
	case RewardIssued:
		ev = ev.Str("recipient", v.Recipient.String()).
			Str("amount", v.Amount.String()).
			Stringer("role", v.Role)
	case CapReached:
		// the cap is a rare, one-way transition
		ev = l.Logger.Info().
			Str("scheduled", v.Scheduled.String()).
			Str("capped", v.Capped.String()).
			Bool("first", v.First)
	case ScheduleChanged:
		ev = l.Logger.Info().Uint64("proposal", v.ProposalSeq).Str("change", v.Summary)
	case ChangeRejected:
		ev = l.Logger.Warn().Uint64("proposal", v.ProposalSeq).Str("reason", v.Reason)
	}
	ev.Uint64("height", e.BlockHeight()).Msg(e.Kind().String())
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
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

// OfKind returns the recorded events of the given kind.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind() == k {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
