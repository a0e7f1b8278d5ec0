// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pax-hub/paxy/internal/config"
	"github.com/pax-hub/paxy/internal/install"
	"github.com/pax-hub/paxy/internal/registry"
	"github.com/pax-hub/paxy/internal/testutil"
)

const (
	fooRoot = "name: foo\ndescription: A **test** package.\nlicense: MIT\nflavors: [base]\n"
	fooBase = `versions:
  - version: 1.0.0
    install: echo hello
  - version: 1.2.0
    install: "true"
    dependencies:
      - name: zlib
        version: ^1.2
`
	zlibManifest = `name: zlib
versions:
  - version: 1.2.13
    install: make install
  - version: 1.3.0
    install: make install
`
)

type (
	// staticConfig serves a fixed configuration so tests never read the
	// user's config directory.
	staticConfig struct {
		cfg *config.Config
	}

	// recordingRunner records install statements instead of spawning them.
	recordingRunner struct {
		mu    sync.Mutex
		argvs [][]string
		dirs  []string
	}

	// harness runs paxy commands against a private data root.
	harness struct {
		t        *testing.T
		dataRoot string
		runner   *recordingRunner
	}

	// runResult is the outcome of one command line.
	runResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Loaded, error) {
	return &config.Loaded{Config: s.cfg}, nil
}

func (r *recordingRunner) Run(_ context.Context, command string, args []string, opts install.RunOptions) (install.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.argvs = append(r.argvs, append([]string{command}, args...))
	r.dirs = append(r.dirs, opts.Dir)
	return install.RunResult{}, nil
}

func (r *recordingRunner) calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.argvs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{t: t, dataRoot: t.TempDir(), runner: &recordingRunner{}}
}

// run executes one paxy command line with a fresh App.
func (h *harness) run(args ...string) runResult {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticConfig{cfg: config.DefaultConfig()},
		Runner: h.runner,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(append([]string{"--data-root", h.dataRoot}, args...))
	err := root.ExecuteContext(h.t.Context())
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// writePackage writes the foo package tree into a fresh directory.
func (h *harness) writePackage() string {
	h.t.Helper()
	return testutil.WriteTree(h.t, h.t.TempDir(), map[string]string{
		"manifest.yaml":      fooRoot,
		"base/manifest.yaml": fooBase,
	})
}

// writeSyncedRepo lays out a clone of the default repository holding zlib.
func (h *harness) writeSyncedRepo() {
	h.t.Helper()
	testutil.WriteTree(h.t, filepath.Join(h.dataRoot, "repos", registry.OfficialName), map[string]string{
		"zlib/manifest.yaml": zlibManifest,
	})
}
