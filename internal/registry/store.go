// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/internal/flock"
)

// Store is a TOML file holding one table of string values. A missing file
// reads as the seed entries; the first update writes them out.
type Store struct {
	path  string
	table string
	seed  map[string]string
	// mu serialises writers in this process; flock covers other processes.
	mu sync.Mutex
}

// NewStore returns a Store for the table named table in the file at path.
func NewStore(path, table string, seed map[string]string) *Store {
	return &Store{path: path, table: table, seed: maps.Clone(seed)}
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Load returns the current entries. The map is a copy.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		entries := maps.Clone(s.seed)
		if entries == nil {
			entries = map[string]string{}
		}
		return entries, nil
	}
	if err != nil {
		return nil, &StoreError{Path: s.path, Op: "read", Cause: err}
	}

	var doc map[string]map[string]string
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &StoreError{Path: s.path, Op: "decode", Cause: err}
	}
	entries := doc[s.table]
	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}

// Update applies fn to the current entries and writes the result. The
// file is left untouched when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(entries map[string]string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &StoreError{Path: s.path, Op: "create directory for", Cause: err}
	}
	lock, err := flock.Acquire(ctx, flock.PathFor(s.path))
	switch {
	case err == nil:
		defer lock.Release()
	case errors.Is(err, flock.ErrUnavailable):
		ctxlog.FromContext(ctx).Debug("registry lock unavailable, relying on in-process lock", "path", s.path)
	default:
		return &StoreError{Path: s.path, Op: "lock", Cause: err}
	}

	entries, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(entries); err != nil {
		return err
	}
	return s.write(entries)
}

// write replaces the file atomically. The temporary file lives in the same
// directory so the rename never crosses filesystems.
func (s *Store) write(entries map[string]string) error {
	data, err := toml.Marshal(map[string]map[string]string{s.table: entries})
	if err != nil {
		return &StoreError{Path: s.path, Op: "encode", Cause: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return &StoreError{Path: s.path, Op: "write", Cause: err}
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &StoreError{Path: s.path, Op: "write", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &StoreError{Path: s.path, Op: "sync", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &StoreError{Path: s.path, Op: "write", Cause: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &StoreError{Path: s.path, Op: "replace", Cause: fmt.Errorf("rename %s: %w", tmp.Name(), err)}
	}
	renamed = true
	return nil
}
