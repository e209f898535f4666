// Package feed fans transcript and state changes out to stream clients and NATS.
package feed

import (
	"sync"

	"wfmassist/internal/domain"
)

// EventType names one feed event kind.
type EventType string

const (
	// EventMessage carries one appended transcript message.
	EventMessage EventType = "message"
	// EventState carries one new metrics snapshot.
	EventState EventType = "state"
)

// Event is one fan-out unit.
// Params: type selector and the payload that type uses.
// Returns: JSON frame body for stream clients and NATS.
type Event struct {
	Type     EventType            `json:"type"`
	Message  *domain.Message      `json:"message,omitempty"`
	State    *domain.MetricsState `json:"state,omitempty"`
	Revision uint64               `json:"revision,omitempty"`
}

// MessageEvent wraps one transcript message.
func MessageEvent(message domain.Message) Event {
	copied := message.Clone()
	return Event{Type: EventMessage, Message: &copied}
}

// StateEvent wraps one metrics snapshot.
func StateEvent(state domain.MetricsState, revision uint64) Event {
	return Event{Type: EventState, State: &state, Revision: revision}
}

// Subscription is one buffered hub receiver.
// Params: buffered channel plus drop counter.
// Returns: receiver handle; Close detaches it.
type Subscription struct {
	hub     *Hub
	id      uint64
	ch      chan Event
	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// C returns the event channel; it is closed after Close or hub shutdown.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped returns number of events discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close detaches subscription from hub.
func (s *Subscription) Close() {
	s.hub.remove(s.id)
}

func (s *Subscription) offer(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		s.dropped++
	}
}

func (s *Subscription) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Hub delivers events to every subscriber without blocking the publisher.
// Slow subscribers lose events instead of stalling the dashboard owner.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
	closed bool
}

// NewHub creates empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers one receiver with buffer capacity.
// Params: channel buffer size; values below 1 use 1.
// Returns: subscription; already closed when hub is closed.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscription{hub: h, id: h.nextID, ch: make(chan Event, buffer)}
	if h.closed {
		sub.shut()
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Publish offers event to every subscriber.
// Params: event.
// Returns: none.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		sub.offer(event)
	}
}

// Len returns subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches and closes every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, sub := range h.subs {
		sub.shut()
		delete(h.subs, id)
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		sub.shut()
	}
}
