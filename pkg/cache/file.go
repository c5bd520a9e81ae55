package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per key under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted at it.
func NewFileStore(opts ...FileOption) (*FileStore, error) {
	cfg := &FileConfig{
		Dir: "cache",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: cfg.Dir}, nil
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file that holds key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, FileName(key))
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool) {
	b, err := os.ReadFile(s.Path(key))
	if err != nil || !usable(b) {
		return nil, false
	}
	return b, true
}

// Put writes value to a temporary file and renames it over the entry, so a
// crash never leaves a truncated entry behind.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache close: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache rename: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
