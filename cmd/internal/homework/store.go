package homework

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing has been stored yet.
var ErrNotFound = errors.New("homework: no stored records")

// Snapshot is a full record set and the store version it was read at.
// An empty Version means the set has never been stored.
type Snapshot struct {
	Records []Record
	Version string
}

// Exists reports whether the snapshot was loaded from a stored set.
func (s Snapshot) Exists() bool { return s.Version != "" }

// RecordStore persists the complete record set.
//
// Save replaces the stored set. Stores that support optimistic concurrency
// reject a Save whose Snapshot.Version is stale.
type RecordStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot, message string) error
}

// LoadOrEmpty loads the stored set and treats ErrNotFound as an empty one.
func LoadOrEmpty(ctx context.Context, st RecordStore) (Snapshot, error) {
	snap, err := st.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{}, nil
	}
	return snap, err
}
