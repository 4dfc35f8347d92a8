package feed

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/zhouzirui/memorable/backend/internal/model/todo"
)

const defaultBuffer = 16

// Subscription receives the events of a single client partition.
type Subscription struct {
	ID       string
	ClientID string
	events   chan todo.Event
	dropped  atomic.Uint64
}

// Events returns the channel events are delivered on. It is closed by
// Hub.Unsubscribe.
func (s *Subscription) Events() <-chan todo.Event {
	return s.events
}

// TakeDropped returns the number of events lost since the previous call
// and resets the count.
func (s *Subscription) TakeDropped() uint64 {
	return s.dropped.Swap(0)
}

// Hub fans store mutations out to the subscribers of the owning client.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[string]*Subscription
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[string]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers a new subscription for clientID.
func (h *Hub) Subscribe(clientID string) *Subscription {
	sub := &Subscription{
		ID:       uuid.NewString(),
		ClientID: clientID,
		events:   make(chan todo.Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	byID, ok := h.subs[clientID]
	if !ok {
		byID = make(map[string]*Subscription)
		h.subs[clientID] = byID
	}
	byID[sub.ID] = sub
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Calling it
// more than once is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byID, ok := h.subs[sub.ClientID]
	if !ok {
		return
	}
	if _, ok := byID[sub.ID]; !ok {
		return
	}
	delete(byID, sub.ID)
	if len(byID) == 0 {
		delete(h.subs, sub.ClientID)
	}
	close(sub.events)
}

// Subscribers reports the number of live subscriptions for clientID.
func (h *Hub) Subscribers(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[clientID])
}

// Dropped reports the total number of events lost to full buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Observe delivers event to the subscribers of event.ClientID without
// blocking. It runs under the store lock, so it does no I/O: slow
// subscribers lose events and the loss is only counted.
func (h *Hub) Observe(event todo.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[event.ClientID] {
		select {
		case sub.events <- event:
		default:
			sub.dropped.Add(1)
			h.dropped.Add(1)
		}
	}
}
