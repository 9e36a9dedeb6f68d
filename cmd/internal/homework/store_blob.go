package homework

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"homeworksync/cmd/internal/blob"
)

// DefaultCSVPath is the object path of the homework CSV.
const DefaultCSVPath = "homework_report.csv"

// ErrStale is returned when the stored set changed since it was loaded.
var ErrStale = errors.New("homework: stored records changed since load")

// CSVStore keeps the record set as a CSV object in a blob store.
type CSVStore struct {
	blobs blob.Store
	path  string
}

// NewCSVStore returns a CSVStore writing to path (DefaultCSVPath when empty).
func NewCSVStore(blobs blob.Store, path string) *CSVStore {
	if path == "" {
		path = DefaultCSVPath
	}
	return &CSVStore{blobs: blobs, path: path}
}

// Path is the object path of the CSV.
func (s *CSVStore) Path() string { return s.path }

// URL is where the CSV can be viewed.
func (s *CSVStore) URL() string { return s.blobs.URL(s.path) }

func (s *CSVStore) Load(ctx context.Context) (Snapshot, error) {
	obj, err := s.blobs.Get(ctx, s.path)
	if errors.Is(err, blob.ErrNotFound) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", s.path, err)
	}

	recs, err := DecodeCSV(bytes.NewReader(obj.Content))
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return Snapshot{Records: recs, Version: obj.Version}, nil
}

func (s *CSVStore) Save(ctx context.Context, snap Snapshot, message string) error {
	content, err := MarshalCSV(snap.Records)
	if err != nil {
		return err
	}
	if _, err := s.blobs.Put(ctx, s.path, content, snap.Version, message); err != nil {
		if errors.Is(err, blob.ErrConflict) {
			return fmt.Errorf("%w: %w", ErrStale, err)
		}
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	return nil
}
