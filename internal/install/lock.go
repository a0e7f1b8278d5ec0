// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/internal/flock"
)

type (
	// dirLocks serialises work on directories. Within the process a
	// reference-counted one-slot channel per directory is used, so waiting
	// honours cancellation; across processes a flock on the directory's
	// sibling lock file.
	dirLocks struct {
		mu    sync.Mutex
		locks map[string]*dirLock
	}

	dirLock struct {
		held chan struct{}
		refs int
	}
)

func newDirLocks() *dirLocks {
	return &dirLocks{locks: make(map[string]*dirLock)}
}

// lock takes every directory in dirs and returns the function that
// releases them. Directories are locked in sorted order so that two
// requests over the same pair never deadlock.
func (d *dirLocks) lock(ctx context.Context, dirs ...string) (func(), error) {
	keys := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		keys = append(keys, filepath.Clean(dir))
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	var releases []func()
	unlockAll := func() {
		for _, release := range slices.Backward(releases) {
			release()
		}
	}
	for _, key := range keys {
		release, err := d.lockOne(ctx, key)
		if err != nil {
			unlockAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return unlockAll, nil
}

func (d *dirLocks) lockOne(ctx context.Context, key string) (func(), error) {
	d.mu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &dirLock{held: make(chan struct{}, 1)}
		d.locks[key] = l
	}
	l.refs++
	d.mu.Unlock()

	drop := func() {
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, key)
		}
		d.mu.Unlock()
	}
	select {
	case l.held <- struct{}{}:
	case <-ctx.Done():
		drop()
		return nil, ctx.Err()
	}
	unlock := func() {
		<-l.held
		drop()
	}

	fl, err := flock.Acquire(ctx, flock.PathFor(key))
	switch {
	case err == nil:
		return func() {
			fl.Release()
			unlock()
		}, nil
	case errors.Is(err, flock.ErrUnavailable):
		ctxlog.FromContext(ctx).Debug("cross-process lock unavailable, using in-process lock only", "dir", key)
		return unlock, nil
	default:
		unlock()
		return nil, err
	}
}
