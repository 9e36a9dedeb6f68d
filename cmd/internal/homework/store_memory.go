package homework

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore is a dev-only RecordStore used when nothing durable is configured.
type MemoryStore struct {
	mu      sync.Mutex
	recs    []Record
	version int
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == 0 {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{
		Records: append([]Record(nil), s.recs...),
		Version: strconv.Itoa(s.version),
	}, nil
}

func (s *MemoryStore) Save(ctx context.Context, snap Snapshot, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := ""
	if s.version > 0 {
		cur = strconv.Itoa(s.version)
	}
	if snap.Version != cur {
		return ErrStale
	}

	s.recs = append([]Record(nil), snap.Records...)
	s.version++
	return nil
}
