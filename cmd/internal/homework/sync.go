package homework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"homeworksync/cmd/internal/ids"
)

// ErrNoData is returned when the portal produced no usable list this run.
var ErrNoData = errors.New("homework: no data available this run")

// CommitTimeLayout formats timestamps in store commit messages.
const CommitTimeLayout = "2006-01-02 15:04:05"

// Source is the portal surface the Syncer reads from.
type Source interface {
	HomeworkList(ctx context.Context) (List, error)
	HomeworkDetail(ctx context.Context, id string) (Detail, error)
}

// Result summarizes one sync run.
type Result struct {
	RunID      string
	NewItems   int
	TotalItems int
	// Saved is false when nothing changed and the stored set was left as is.
	Saved     bool
	StartedAt time.Time
	Duration  time.Duration
}

// SyncObserver is notified after every run, successful or not.
type SyncObserver interface {
	SyncFinished(res Result, err error)
}

// Syncer merges newly listed homework into a RecordStore.
//
// Runs are serialized: a second Run waits for the first to finish so the
// load-merge-save sequence never interleaves.
type Syncer struct {
	log       *slog.Logger
	source    Source
	store     RecordStore
	observers []SyncObserver
	now       func() time.Time

	mu sync.Mutex
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithSyncObserver adds an observer.
func WithSyncObserver(o SyncObserver) SyncerOption {
	return func(s *Syncer) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithSyncClock overrides the clock used for run ids and commit messages.
func WithSyncClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSyncer constructs a Syncer.
func NewSyncer(source Source, store RecordStore, log *slog.Logger, opts ...SyncerOption) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	s := &Syncer{log: log, source: source, store: store, now: time.Now}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Run performs one sync.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	runID, err := ids.NewRunID(start)
	if err != nil {
		return Result{}, fmt.Errorf("run id: %w", err)
	}
	log := s.log.With("run_id", runID)

	res, err := s.run(ctx, log, start)
	res.RunID = runID
	res.StartedAt = start
	res.Duration = s.now().Sub(start)

	if err != nil {
		log.Error("sync.run.fail", "err", err)
	} else {
		log.Info("sync.run.done",
			"new_items", res.NewItems,
			"total_items", res.TotalItems,
			"saved", res.Saved,
			"duration", res.Duration,
		)
	}
	for _, o := range s.observers {
		o.SyncFinished(res, err)
	}
	return res, err
}

func (s *Syncer) run(ctx context.Context, log *slog.Logger, start time.Time) (Result, error) {
	snap, err := LoadOrEmpty(ctx, s.store)
	if err != nil {
		return Result{}, fmt.Errorf("load records: %w", err)
	}

	list, err := s.source.HomeworkList(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	if !list.OK() {
		return Result{}, fmt.Errorf("%w: unexpected list payload: %s", ErrNoData, list.Message)
	}

	seen := IDs(snap.Records)
	var fresh []Record
	for _, it := range list.Items {
		if it.ID == "" {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}

		// A missing detail leaves the description empty rather than failing the run.
		d, err := s.source.HomeworkDetail(ctx, it.ID)
		if err != nil {
			log.Warn("sync.detail.fail", "homework_id", it.ID, "err", err)
		}
		fresh = append(fresh, NewRecord(it, d.Description))
	}

	SortByDueDesc(fresh)
	all, added := Merge(snap.Records, fresh)
	SortByDueDesc(all)

	res := Result{NewItems: added, TotalItems: len(all)}
	if added == 0 && snap.Exists() {
		return res, nil
	}

	msg := "Auto-update homework data - " + start.Format(CommitTimeLayout)
	if err := s.store.Save(ctx, Snapshot{Records: all, Version: snap.Version}, msg); err != nil {
		return res, fmt.Errorf("save records: %w", err)
	}
	res.Saved = true
	return res, nil
}
