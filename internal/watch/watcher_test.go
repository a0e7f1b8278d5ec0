// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"

	"github.com/pax-hub/paxy/internal/discovery"
	"github.com/pax-hub/paxy/internal/testutil"
)

const (
	testDebounce = 50 * time.Millisecond
	waitTimeout  = 5 * time.Second
)

type reload struct {
	tree    *discovery.Tree
	changed []string
	err     error
}

// startWatcher runs a watcher on dir and returns a channel of reloads.
func startWatcher(t *testing.T, dir string, reloader Reloader, ignore ...string) <-chan reload {
	t.Helper()

	reloads := make(chan reload, 16)
	w, err := New(t.Context(), Config{
		Root:     dir,
		Reloader: reloader,
		Ignore:   ignore,
		Debounce: testDebounce,
		OnReload: func(_ context.Context, tree *discovery.Tree, changed []string, err error) {
			reloads <- reload{tree: tree, changed: changed, err: err}
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	})
	return reloads
}

func nextReload(t *testing.T, reloads <-chan reload) reload {
	t.Helper()
	select {
	case r := <-reloads:
		return r
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a reload")
		return reload{}
	}
}

func expectQuiet(t *testing.T, reloads <-chan reload) {
	t.Helper()
	select {
	case r := <-reloads:
		t.Fatalf("unexpected reload for %v", r.changed)
	case <-time.After(10 * testDebounce):
	}
}

type countingReloader struct {
	mu    sync.Mutex
	calls int
}

func (c *countingReloader) Reload(context.Context) (*discovery.Tree, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &discovery.Tree{}, nil
}

func TestWatcher_CoalescesManifestWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "base"))
	reloader := &countingReloader{}
	reloads := startWatcher(t, dir, reloader)

	testutil.MustWriteFile(t, filepath.Join(dir, "manifest.yaml"), "name: foo\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "base", "manifest.toml"), "name = \"foo-base\"\n")

	got := nextReload(t, reloads)
	if diff := cmp.Diff([]string{"base/manifest.toml", "manifest.yaml"}, got.changed); diff != "" {
		t.Errorf("changed mismatch (-want +got):\n%s", diff)
	}
	expectQuiet(t, reloads)

	reloader.mu.Lock()
	defer reloader.mu.Unlock()
	if reloader.calls != 1 {
		t.Errorf("Reload called %d times, want 1", reloader.calls)
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "node_modules"))
	reloads := startWatcher(t, dir, &countingReloader{}, "**/node_modules", "**/node_modules/**")

	testutil.MustWriteFile(t, filepath.Join(dir, "README.md"), "docs")
	testutil.MustWriteFile(t, filepath.Join(dir, "manifest.yaml.bak"), "name: foo\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "node_modules", "manifest.json"), "{}")
	expectQuiet(t, reloads)
}

func TestWatcher_NewFlavorDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reloads := startWatcher(t, dir, &countingReloader{})

	testutil.MustMkdirAll(t, filepath.Join(dir, "full"))
	first := nextReload(t, reloads)
	if diff := cmp.Diff([]string{"full"}, first.changed); diff != "" {
		t.Errorf("changed mismatch (-want +got):\n%s", diff)
	}

	// The new directory is watched, so its manifest triggers a rebuild.
	testutil.MustWriteFile(t, filepath.Join(dir, "full", "manifest.json"), `{"name": "foo-full"}`)
	second := nextReload(t, reloads)
	if diff := cmp.Diff([]string{"full/manifest.json"}, second.changed); diff != "" {
		t.Errorf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcher_RebuildsSnapshot(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"manifest.yaml": "name: foo\nversions:\n  - version: 1.0.0\n    install: echo one\n",
	})
	snap := discovery.NewSnapshot(dir)
	if _, err := snap.Reload(t.Context()); err != nil {
		t.Fatalf("initial Reload() error: %v", err)
	}
	before := snap.Load()
	reloads := startWatcher(t, dir, snap)

	// A broken edit keeps the previous tree.
	testutil.MustWriteFile(t, filepath.Join(dir, "manifest.yaml"), "name: [unclosed\n")
	broken := nextReload(t, reloads)
	if broken.err == nil || broken.tree != nil {
		t.Fatalf("reload of a broken manifest = (%v, %v), want an error", broken.tree, broken.err)
	}
	if snap.Load() != before {
		t.Error("failed reload replaced the current tree")
	}

	testutil.MustWriteFile(t, filepath.Join(dir, "manifest.yaml"),
		"name: foo\nversions:\n  - version: 1.1.0\n    install: echo two\n")
	fixed := nextReload(t, reloads)
	if fixed.err != nil {
		t.Fatalf("reload error: %v", fixed.err)
	}
	if snap.Load() != fixed.tree || fixed.tree == before {
		t.Error("successful reload did not publish the new tree")
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	if _, err := New(t.Context(), Config{Root: t.TempDir()}); !errors.Is(err, ErrNoReloader) {
		t.Errorf("New() without reloader = %v, want ErrNoReloader", err)
	}
	_, err := New(t.Context(), Config{Root: t.TempDir(), Reloader: &countingReloader{}, Ignore: []string{"[unclosed"}})
	if err == nil {
		t.Error("New() with a bad pattern should fail")
	}
}

func TestRun_Twice(t *testing.T) {
	t.Parallel()

	w, err := New(t.Context(), Config{Root: t.TempDir(), Reloader: &countingReloader{}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run() = %v, want nil on a cancelled context", err)
	}
	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "base"))
	w, err := New(t.Context(), Config{Root: dir, Reloader: &countingReloader{}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = w.fsw.Close() })

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"manifest write", "manifest.yaml", fsnotify.Write, true},
		{"nested manifest create", "base/manifest.ron", fsnotify.Create, true},
		{"manifest removed", "manifest.toml", fsnotify.Remove, true},
		{"manifest chmod", "manifest.yaml", fsnotify.Chmod, false},
		{"other file", "notes.txt", fsnotify.Write, false},
		{"wrong stem", "package.yaml", fsnotify.Write, false},
		{"watched dir removed", "base", fsnotify.Remove, true},
		{"git metadata", ".git/manifest.yaml", fsnotify.Write, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := fsnotify.Event{Name: filepath.Join(dir, filepath.FromSlash(tt.path)), Op: tt.op}
			rel, got := w.classify(t.Context(), evt)
			if got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
			if got && rel != tt.path {
				t.Errorf("rel = %q, want %q", rel, tt.path)
			}
		})
	}
}

func TestDefaultIgnores_IsCopy(t *testing.T) {
	t.Parallel()

	got := DefaultIgnores()
	got[0] = "changed"
	if DefaultIgnores()[0] == "changed" {
		t.Error("DefaultIgnores() exposes the internal slice")
	}
}
