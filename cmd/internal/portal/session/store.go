package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"homeworksync/cmd/security/token"
)

// Source produces a fresh session. *Acquirer implements it.
type Source interface {
	Acquire(ctx context.Context) (Session, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Session, error)

func (f SourceFunc) Acquire(ctx context.Context) (Session, error) { return f(ctx) }

// Store caches the single live session of a process.
//
// Get and Invalidate share one critical section, so concurrent callers that
// miss the cache wait for a single acquisition instead of racing their own.
// Current reads a published copy and never waits on that section.
type Store struct {
	log      *slog.Logger
	source   Source
	observer Observer
	now      func() time.Time

	mu      sync.Mutex
	current Session

	published atomic.Pointer[Session]
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreObserver sets the observer notified on invalidation.
func WithStoreObserver(o Observer) StoreOption {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithStoreClock overrides the clock used for expiry checks.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty Store backed by source.
func NewStore(source Source, log *slog.Logger, opts ...StoreOption) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		log:      log,
		source:   source,
		observer: NopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Get returns the cached session while it is live, otherwise acquires,
// caches and returns a new one. Failure always wraps ErrNoSessionAvailable.
func (s *Store) Get(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Live(s.now()) {
		return s.current, nil
	}
	if !s.current.IsZero() {
		s.log.Info("session.store.expired",
			"origin", s.current.Origin,
			"session", token.Fingerprint(s.current.ID),
			"expired_at", s.current.ExpiresAt,
		)
		s.setCurrent(Session{})
	}

	if s.source == nil {
		return Session{}, ErrNoSessionAvailable
	}

	sess, err := s.source.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSessionAvailable) {
			err = fmt.Errorf("%w: %w", ErrNoSessionAvailable, err)
		}
		return Session{}, err
	}
	if sess.IsZero() {
		return Session{}, ErrNoSessionAvailable
	}

	s.setCurrent(sess)
	return sess, nil
}

// Invalidate drops the cached session. Calling it with nothing cached is a no-op.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.setCurrent(Session{})
	if prev.IsZero() {
		return
	}

	s.log.Info("session.store.invalidated", "origin", prev.Origin, "session", token.Fingerprint(prev.ID))
	s.observer.Invalidated(prev)
}

// Current reports the cached session without acquiring. Expired sessions are reported as absent.
// It does not wait for an acquisition in progress.
func (s *Store) Current() (Session, bool) {
	p := s.published.Load()
	if p == nil || !p.Live(s.now()) {
		return Session{}, false
	}
	return *p, true
}

// setCurrent must be called with mu held.
func (s *Store) setCurrent(sess Session) {
	s.current = sess
	if sess.IsZero() {
		s.published.Store(nil)
		return
	}
	s.published.Store(&sess)
}
