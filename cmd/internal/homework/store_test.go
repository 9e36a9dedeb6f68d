package homework

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"homeworksync/cmd/internal/blob"
)

func newFileBackedCSVStore(t *testing.T) *CSVStore {
	t.Helper()

	fs, err := blob.NewFileStore(t.TempDir(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewCSVStore(fs, "")
}

func TestRecordStores_Contract(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) RecordStore{
		"memory": func(*testing.T) RecordStore { return NewMemoryStore() },
		"csv":    func(t *testing.T) RecordStore { return newFileBackedCSVStore(t) },
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			exerciseRecordStore(t, mk(t))
		})
	}
}

// exerciseRecordStore checks the behavior every RecordStore shares.
func exerciseRecordStore(t *testing.T, st RecordStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := st.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	empty, err := LoadOrEmpty(ctx, st)
	if err != nil || empty.Exists() {
		t.Fatalf("LoadOrEmpty: %+v %v", empty, err)
	}

	first := []Record{{ID: "1", Lesson: "Math", EndDate: "2026-01-02"}, {ID: "2", Status: "done"}}
	if err := st.Save(ctx, Snapshot{Records: first}, "create"); err != nil {
		t.Fatalf("create: %v", err)
	}

	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !snap.Exists() || len(snap.Records) != 2 || snap.Records[0] != first[0] || snap.Records[1] != first[1] {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if err := st.Save(ctx, Snapshot{Records: first}, "blind"); !errors.Is(err, ErrStale) {
		t.Fatalf("versionless save over existing set must be stale, got %v", err)
	}

	next := append(snap.Records, Record{ID: "3"})
	if err := st.Save(ctx, Snapshot{Records: next, Version: snap.Version}, "update"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := st.Save(ctx, Snapshot{Records: first, Version: snap.Version}, "stale"); !errors.Is(err, ErrStale) {
		t.Fatalf("stale version must be rejected, got %v", err)
	}

	again, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(again.Records) != 3 || again.Version == snap.Version {
		t.Fatalf("unexpected snapshot after update %+v", again)
	}
}
