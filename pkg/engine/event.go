package engine

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind identifies the type of engine event.
type EventKind string

// Event kinds and the type carried in Event.Data.
const (
	EventRouted        EventKind = "routed"          // router.Decision
	EventAgentStart    EventKind = "agent_start"     // string: the request text
	EventStateChanged  EventKind = "state_changed"   // agent.Event
	EventToolCallStart EventKind = "tool_call_start" // content.ToolCall
	EventToolCallEnd   EventKind = "tool_call_end"   // content.ToolResult
	EventFileChange    EventKind = "file_change"     // string: the diff notice
	EventAgentEnd      EventKind = "agent_end"       // agent.Result
	EventError         EventKind = "error"           // error
)

// Event is an immutable notification of engine activity. Seq increases by
// one per published event, so a subscriber can spot the events it missed.
type Event struct {
	Seq       uint64
	Kind      EventKind
	SessionID string // Empty for one-shot requests.
	Agent     string
	Iteration int
	Timestamp time.Time
	Data      any
}

// Subscription receives events from an EventBus.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	kinds   map[EventKind]struct{}
	dropped atomic.Int64
}

// Dropped reports how many matching events were lost to a full buffer.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

func (s *Subscription) wants(k EventKind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// EventBus fans events out to subscribers without ever blocking the
// publisher. It is safe for concurrent use.
type EventBus struct {
	mu   sync.Mutex
	seq  uint64
	subs []*Subscription
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a subscriber with a buffer of size events. With kinds
// given only those kinds are delivered. Call Unsubscribe when done.
func (b *EventBus) Subscribe(size int, kinds ...EventKind) *Subscription {
	ch := make(chan Event, size)
	sub := &Subscription{C: ch, ch: ch}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub
}

// Unsubscribe detaches sub and closes its channel. Repeated calls are no-ops.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			b.subs = slices.Delete(b.subs, i, i+1)
			close(sub.ch)
			return
		}
	}
}

// Publish numbers the event, stamps it when Timestamp is zero and offers it
// to every interested subscriber. A full buffer drops the event for that
// subscriber only.
func (b *EventBus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	e.Seq = b.seq

	for _, sub := range b.subs {
		if !sub.wants(e.Kind) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Len returns the number of active subscriptions.
func (b *EventBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}
