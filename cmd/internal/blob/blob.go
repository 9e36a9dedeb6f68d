// Package blob stores whole files by path with optimistic versioning.
//
// Backends: a local directory (FileStore) and the GitHub contents API
// (package github). Both hand out an opaque version with every read and
// refuse writes whose version no longer matches.
package blob

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no object exists at a path.
	ErrNotFound = errors.New("blob: not found")
	// ErrConflict is returned when the stored version differs from the one supplied.
	ErrConflict = errors.New("blob: version conflict")
	// ErrInvalidPath is returned for empty or escaping paths.
	ErrInvalidPath = errors.New("blob: invalid path")
)

// Object is a stored file and the version it was read at.
type Object struct {
	Path    string
	Content []byte
	Version string
}

// Store reads and writes whole objects.
//
// Put with an empty version creates the object. Put with a version replaces
// it only if the stored version still matches. The message describes the
// change for backends that keep history.
type Store interface {
	Get(ctx context.Context, path string) (Object, error)
	Put(ctx context.Context, path string, content []byte, version, message string) (string, error)
	// URL returns where the object can be viewed.
	URL(path string) string
}

// CleanPath normalizes a slash-separated object path.
func CleanPath(p string) (string, error) {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}
