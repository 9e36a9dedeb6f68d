package feed

import (
	"log/slog"
	"sync"
	"sync/atomic"

	v1 "homeworksync/shared/contracts/feed/v1"
)

// Hub keeps the subscriber set and fans envelopes out to it.
//
// Publish never blocks: a subscriber whose queue is full misses the event.
type Hub struct {
	log *slog.Logger

	mu   sync.RWMutex
	subs map[string]*Subscriber

	dropped atomic.Uint64
}

// NewHub constructs an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{log: log, subs: make(map[string]*Subscriber)}
}

// Subscribe adds sub to the fan-out set.
func (h *Hub) Subscribe(sub *Subscriber) {
	if h == nil || sub == nil || sub.ID == "" {
		return
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	n := len(h.subs)
	h.mu.Unlock()

	h.log.Info("feed.subscriber.join", "subscriber_id", sub.ID, "subscribers", n)
}

// Unsubscribe removes the subscriber and then signals its shutdown, so a
// concurrent Publish never hands an envelope to a closing subscriber it still holds.
func (h *Hub) Unsubscribe(id string) {
	if h == nil || id == "" {
		return
	}

	h.mu.Lock()
	sub := h.subs[id]
	delete(h.subs, id)
	n := len(h.subs)
	h.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	h.log.Info("feed.subscriber.leave", "subscriber_id", id, "subscribers", n)
}

// Publish delivers env to every live subscriber and returns how many accepted it.
func (h *Hub) Publish(env v1.Envelope) int {
	if h == nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, s := range h.subs {
		select {
		case <-s.Done():
			continue
		default:
		}

		select {
		case s.Send <- env:
			delivered++
		default:
			h.dropped.Add(1)
			h.log.Debug("feed.publish.drop", "subscriber_id", s.ID, "type", env.Type)
		}
	}
	return delivered
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because of backpressure.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
