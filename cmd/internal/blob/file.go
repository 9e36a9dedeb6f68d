package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps objects as files under a root directory.
// Versions are SHA-256 digests of the content.
type FileStore struct {
	root string
	log  *slog.Logger

	mu sync.Mutex
}

// NewFileStore returns a store rooted at dir, creating it when missing.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &FileStore{root: dir, log: log}, nil
}

func (s *FileStore) Get(ctx context.Context, path string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	p, err := CleanPath(path)
	if err != nil {
		return Object{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.full(p))
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, err
	}
	return Object{Path: p, Content: b, Version: digest(b)}, nil
}

func (s *FileStore) Put(ctx context.Context, path string, content []byte, version, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := CleanPath(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.full(p)
	cur, err := os.ReadFile(full)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if version != "" {
			return "", ErrConflict
		}
	case err != nil:
		return "", err
	default:
		if version != digest(cur) {
			return "", ErrConflict
		}
	}

	if err := writeAtomic(full, content); err != nil {
		return "", err
	}
	v := digest(content)
	s.log.Debug("blob.file.put", "path", p, "version", v, "message", message)
	return v, nil
}

// URL returns the local file path.
func (s *FileStore) URL(path string) string {
	p, err := CleanPath(path)
	if err != nil {
		return ""
	}
	return s.full(p)
}

func (s *FileStore) full(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(p))
}

func writeAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() { _ = os.Remove(name) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
