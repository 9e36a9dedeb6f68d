// Package ids provides the identifier primitives used across homeworksync.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a new ULID string (26 chars).
// ULIDs sort by creation time, which keeps sync runs and feed events ordered in logs.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRunID returns a ULID identifying one sync run.
func NewRunID(now time.Time) (string, error) {
	return NewULID(now)
}

// NewEnvelopeID returns a ULID used as feed envelope id.
func NewEnvelopeID(now time.Time) (string, error) {
	return NewULID(now)
}

// Time returns the timestamp embedded in a ULID string.
func Time(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
