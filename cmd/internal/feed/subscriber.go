package feed

import (
	"sync"

	v1 "homeworksync/shared/contracts/feed/v1"
)

// Subscriber is one connected websocket client.
//
// Send is never closed by the server so concurrent publishers cannot panic.
// Close only signals done and is idempotent.
type Subscriber struct {
	ID   string
	Send chan v1.Envelope

	done      chan struct{}
	closeOnce sync.Once
}

// NewSubscriber constructs a Subscriber with a bounded send queue.
func NewSubscriber(id string, queueSize int) *Subscriber {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Subscriber{
		ID:   id,
		Send: make(chan v1.Envelope, queueSize),
		done: make(chan struct{}),
	}
}

// Done is closed when the subscriber is shutting down.
func (s *Subscriber) Done() <-chan struct{} {
	if s == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}

// Close signals shutdown.
func (s *Subscriber) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
