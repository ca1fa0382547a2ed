// Package store persists inventory state. The engine never blocks on
// or rolls back for persistence: stores are best-effort collaborators
// behind a load/save/flush contract.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kstrand/attic/internal/session"
)

// Store is the persistence contract. Load returns nil state when
// nothing has been saved yet. Save is best-effort; Flush forces any
// deferred work before teardown.
type Store interface {
	Load(ctx context.Context) (*session.State, error)
	Save(ctx context.Context, st *session.State) error
	Flush(ctx context.Context) error
	Close() error
}

// FileStore keeps the session state as one JSON document, the local
// cache every other backend builds on.
type FileStore struct {
	path string
}

// NewFileStore creates a file store at the given path, creating parent
// directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(ctx context.Context) (*session.State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

func (s *FileStore) Save(ctx context.Context, st *session.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Flush(ctx context.Context) error { return nil }

func (s *FileStore) Close() error { return nil }
