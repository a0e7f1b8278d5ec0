// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/internal/discovery"
	"github.com/pax-hub/paxy/pkg/manifest"
)

// DefaultDebounce is the quiet period after the last event before the tree
// is rebuilt. Editors that write a temp file and rename it produce several
// events per save.
const DefaultDebounce = 300 * time.Millisecond

// defaultIgnores are never watched, in addition to Config.Ignore.
var defaultIgnores = []string{
	"**/.git",
	"**/.git/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")
	// ErrNoReloader is returned by New when Config.Reloader is nil.
	ErrNoReloader = errors.New("watch: no reloader configured")
)

type (
	// Reloader rebuilds a package tree. *discovery.Snapshot implements it.
	Reloader interface {
		Reload(ctx context.Context) (*discovery.Tree, error)
	}

	// ReloadFunc receives each rebuild result together with the changed
	// paths, relative to the root, that triggered it. On failure tree is nil
	// and err is the build error.
	ReloadFunc func(ctx context.Context, tree *discovery.Tree, changed []string, err error)

	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the package directory. Empty means the working directory.
		Root string
		// Reloader rebuilds the tree after a change.
		Reloader Reloader
		// Ignore lists extra doublestar patterns, relative to Root, for
		// paths that never trigger a rebuild and are never watched.
		Ignore []string
		// Debounce falls back to DefaultDebounce when zero or negative.
		Debounce time.Duration
		// OnReload may be nil.
		OnReload ReloadFunc
	}

	// Watcher monitors a package directory. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		root     string
		ignores  []string
		debounce time.Duration
		started  atomic.Bool

		dirsMu sync.Mutex
		dirs   map[string]struct{}
	}
)

var _ Reloader = (*discovery.Snapshot)(nil)

// New validates cfg and registers every non-ignored directory below Root.
func New(ctx context.Context, cfg Config) (*Watcher, error) {
	if cfg.Reloader == nil {
		return nil, ErrNoReloader
	}
	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		root = wd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		root:     absRoot,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: debounce,
		dirs:     make(map[string]struct{}),
	}

	if err := w.addTree(ctx, absRoot); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			ctxlog.FromContext(ctx).Debug("close watcher after init failure", "error", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Root returns the absolute directory being watched.
func (w *Watcher) Root() string { return w.root }

// Run processes events until ctx is cancelled, which is a clean return.
// Fatal watcher errors such as an exhausted inotify watch limit are
// returned.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	log := ctxlog.FromContext(ctx).With("root", w.root)

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs on the timer goroutine. A rebuild still in progress
	// re-arms the timer so the pending set is not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		log.Debug("rebuilding package tree", "changed", changed)
		tree, err := w.cfg.Reloader.Reload(ctx)
		if w.cfg.OnReload != nil {
			w.cfg.OnReload(ctx, tree, changed, err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			log.Debug("close fsnotify watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			rel, relevant := w.classify(ctx, evt)
			if !relevant {
				continue
			}
			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			log.Warn("fsnotify error", "error", err)
		}
	}
}

// classify reports whether evt can change the package tree and returns its
// slash-separated path relative to the root. New directories are watched
// as a side effect, since a flavor directory is created before its
// manifest.
func (w *Watcher) classify(ctx context.Context, evt fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.isIgnored(rel) {
		return "", false
	}

	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(ctx, evt.Name); err != nil {
				ctxlog.FromContext(ctx).Warn("watch new directory", "path", evt.Name, "error", err)
			}
			return rel, true
		}
	}
	if evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
		if w.forgetDir(evt.Name) {
			return rel, true
		}
	}
	if evt.Op == fsnotify.Chmod {
		return "", false
	}
	return rel, manifest.IsManifestFile(filepath.Base(evt.Name))
}

// addTree watches dir and every non-ignored directory below it. Directories
// that cannot be read are skipped with a debug log.
func (w *Watcher) addTree(ctx context.Context, dir string) error {
	log := ctxlog.FromContext(ctx)
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Debug("skip unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil //nolint:nilerr // outside the root
		}
		if rel != "." && w.isIgnored(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		w.dirsMu.Lock()
		w.dirs[path] = struct{}{}
		w.dirsMu.Unlock()
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %s: %w", dir, walkErr)
	}
	return nil
}

// forgetDir drops path and its descendants from the watched set and
// reports whether path was a watched directory. fsnotify removes the
// kernel watches itself.
func (w *Watcher) forgetDir(path string) bool {
	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()
	_, was := w.dirs[path]
	prefix := path + string(filepath.Separator)
	for dir := range w.dirs {
		if dir == path || len(dir) > len(prefix) && dir[:len(prefix)] == prefix {
			delete(w.dirs, dir)
		}
	}
	return was
}

func (w *Watcher) isIgnored(rel string) bool {
	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid ignore pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
