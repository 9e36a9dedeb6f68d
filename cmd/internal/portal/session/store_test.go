package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSource struct {
	n   atomic.Int32
	ttl time.Duration
	now func() time.Time
	err error
}

func (c *countingSource) Acquire(context.Context) (Session, error) {
	n := c.n.Add(1)
	if c.err != nil {
		return Session{}, c.err
	}
	return Session{
		ID:        "sess-" + string(rune('a'+n-1)),
		ExpiresAt: c.now().Add(c.ttl),
		Origin:    OriginLogin,
	}, nil
}

type mutableClock struct {
	mu sync.Mutex
	t  time.Time
}

func (m *mutableClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *mutableClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
}

func TestStore_GetIsIdempotentWithinWindow(t *testing.T) {
	t.Parallel()

	clock := &mutableClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	src := &countingSource{ttl: time.Hour, now: clock.Now}
	s := NewStore(src, discardLogger(), WithStoreClock(clock.Now))

	first, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	clock.Advance(59 * time.Minute)
	second, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected identical token, got %q and %q", first.ID, second.ID)
	}
	if got := src.n.Load(); got != 1 {
		t.Fatalf("expected one acquisition, got %d", got)
	}
}

func TestStore_ExpiredSessionIsAbsent(t *testing.T) {
	t.Parallel()

	clock := &mutableClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	src := &countingSource{ttl: time.Hour, now: clock.Now}
	s := NewStore(src, discardLogger(), WithStoreClock(clock.Now))

	first, _ := s.Get(context.Background())
	clock.Advance(time.Hour + time.Second)

	if _, ok := s.Current(); ok {
		t.Fatalf("expired session must be reported as absent")
	}
	second, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("stale token returned after expiry")
	}
}

func TestStore_InvalidateForcesReacquire(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	src := &countingSource{ttl: time.Hour, now: fixedClock(now)}
	obs := &recordingObserver{}
	s := NewStore(src, discardLogger(), WithStoreClock(fixedClock(now)), WithStoreObserver(obs))

	first, _ := s.Get(context.Background())
	s.Invalidate()
	s.Invalidate()

	if len(obs.invalidated) != 1 || obs.invalidated[0].ID != first.ID {
		t.Fatalf("expected exactly one invalidation of %q, got %+v", first.ID, obs.invalidated)
	}

	second, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("invalidated token returned again")
	}
	if got := src.n.Load(); got != 2 {
		t.Fatalf("expected two acquisitions, got %d", got)
	}
}

func TestStore_FailureWrapsNoSessionAvailable(t *testing.T) {
	t.Parallel()

	src := &countingSource{err: ErrValidationFailed, now: time.Now}
	s := NewStore(src, discardLogger())

	_, err := s.Get(context.Background())
	if !errors.Is(err, ErrNoSessionAvailable) || !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("unexpected err %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("failed acquisition must not be cached")
	}
}

func TestStore_ConcurrentMissAcquiresOnce(t *testing.T) {
	t.Parallel()

	src := &countingSource{ttl: time.Hour, now: time.Now}
	s := NewStore(src, discardLogger())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Get(context.Background()); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.n.Load(); got != 1 {
		t.Fatalf("expected one acquisition under contention, got %d", got)
	}
}

// gatedSource blocks every acquisition until release is closed.
type gatedSource struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) Acquire(ctx context.Context) (Session, error) {
	close(g.entered)
	select {
	case <-g.release:
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
	return Session{ID: "slow", ExpiresAt: time.Now().Add(time.Hour), Origin: OriginHarvest}, nil
}

func TestStore_CurrentDoesNotWaitForAcquisition(t *testing.T) {
	t.Parallel()

	src := &gatedSource{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewStore(src, discardLogger())

	got := make(chan error, 1)
	go func() {
		_, err := s.Get(context.Background())
		got <- err
	}()
	<-src.entered

	done := make(chan bool, 1)
	go func() {
		_, ok := s.Current()
		done <- ok
	}()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("no session should be reported while acquiring")
		}
	case <-time.After(time.Second):
		t.Fatalf("Current blocked behind an acquisition")
	}

	close(src.release)
	if err := <-got; err != nil {
		t.Fatalf("Get: %v", err)
	}
	sess, ok := s.Current()
	if !ok || sess.ID != "slow" {
		t.Fatalf("Current=%+v ok=%v after acquisition", sess, ok)
	}

	s.Invalidate()
	if _, ok := s.Current(); ok {
		t.Fatalf("Current must be empty after Invalidate")
	}
}
