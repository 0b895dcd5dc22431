package store

import "sync"

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes a single event-row mutation.
type Change struct {
	Kind       ChangeKind
	CalendarID string
	EventID    string
}

// Hub fans event-row changes out to subscribers. Callbacks run on the
// publisher's goroutine and must not block.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]subscription
}

type subscription struct {
	calendarID string
	onChange   func(Change)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscription)}
}

func (h *Hub) Subscribe(calendarID string, onChange func(Change)) (cancel func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = subscription{calendarID: calendarID, onChange: onChange}
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	targets := make([]func(Change), 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.calendarID == "" || sub.calendarID == "all" || sub.calendarID == c.CalendarID {
			targets = append(targets, sub.onChange)
		}
	}
	h.mu.Unlock()
	for _, fn := range targets {
		fn(c)
	}
}
