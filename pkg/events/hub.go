package events

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Event is a typed notification fanned out to all subscribers.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	TS      int64       `json:"ts"`
}

// Subscriber receives events on C until Close or Unsubscribe.
type Subscriber struct {
	id uint64
	C  chan Event
}

// Hub is a fire-and-forget broadcaster. Publishing never blocks: a subscriber
// whose buffer is full simply misses the event and is expected to recover by
// re-reading state. Closing a subscriber never affects publishers or peers.
type Hub struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    map[uint64]*Subscriber
	buffer  int
	dropped uint64
	logger  *zap.Logger
}

// NewHub builds a hub whose subscribers buffer up to buffer events each.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[uint64]*Subscriber), buffer: buffer, logger: logger}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscriber{id: h.nextID, C: make(chan Event, h.buffer)}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call for
// an already-removed subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.C)
}

// Publish delivers the event to every subscriber without blocking. Slow
// subscribers lose the event; delivery failures are never surfaced to the
// publisher.
func (h *Hub) Publish(eventType string, payload interface{}) {
	ev := Event{Type: eventType, Payload: payload, TS: time.Now().UnixMilli()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.C <- ev:
		default:
			atomic.AddUint64(&h.dropped, 1)
			h.logger.Debug("event dropped for slow subscriber",
				zap.String("type", eventType), zap.Uint64("subscriber", sub.id))
		}
	}
}

// Dropped returns the count of events lost to slow subscribers.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
