package notify

import (
	"context"
	"sync"

	"github.com/Freeeeeet/booking_engine/internal/model"
)

const subscriberBuffer = 16

// Hub is the in-process fan-out. Each subscriber gets a buffered
// channel per subscription; a full channel drops the event rather than
// block the publisher, which keeps delivery at-most-once and the write
// path unblocked.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan model.Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan model.Event)}
}

// Subscribe registers interest in one or more topics (resource or
// holder channels, see model.ResourceTopic and model.HolderTopic). The
// returned cancel func must be called to release the subscription.
func (h *Hub) Subscribe(topics ...string) (<-chan model.Event, func()) {
	ch := make(chan model.Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	for _, topic := range topics {
		if h.subs[topic] == nil {
			h.subs[topic] = make(map[int]chan model.Event)
		}
		h.subs[topic][id] = ch
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		for _, topic := range topics {
			if m := h.subs[topic]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, topic)
				}
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(_ context.Context, event model.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[chan model.Event]struct{})
	for _, topic := range event.Topics() {
		for _, ch := range h.subs[topic] {
			if _, dup := seen[ch]; dup {
				continue
			}
			seen[ch] = struct{}{}
			select {
			case ch <- event:
			default:
				// Subscriber is slow; drop, it will re-query.
			}
		}
	}
	return nil
}
