// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/internal/sandbox"
	"github.com/pax-hub/paxy/pkg/manifest"
)

type (
	// recordingRunner records host commands instead of spawning them.
	// Commands listed in exits fail with the given code.
	recordingRunner struct {
		mu    sync.Mutex
		calls []recordedCall
		exits map[string]int
	}

	recordedCall struct {
		Argv []string
		Opts RunOptions
	}

	// pluginMap serves plugins from memory.
	pluginMap map[manifest.BuildStepKind][]byte

	// tempDirs allocates install directories under a test directory.
	tempDirs struct {
		root string
	}
)

func (r *recordingRunner) Run(_ context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{Argv: append([]string{command}, args...), Opts: opts})
	if code, ok := r.exits[command]; ok {
		return RunResult{Stderr: []byte(command + " failed\n"), ExitCode: code}, fmt.Errorf("exit status %d", code)
	}
	return RunResult{}, nil
}

func (r *recordingRunner) argvs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Argv
	}
	return out
}

func (p pluginMap) Lookup(_ context.Context, kind manifest.BuildStepKind) ([]byte, error) {
	b, ok := p[kind]
	if !ok {
		return nil, fmt.Errorf("no plugin registered for %q: %w", kind, os.ErrNotExist)
	}
	return b, nil
}

func (d tempDirs) InstallDirs(id string) (string, string, error) {
	base := filepath.Join(d.root, fmt.Sprintf("%x", id))
	scratch, staging := filepath.Join(base, "scratch"), filepath.Join(base, "staging")
	return scratch, staging, errors.Join(os.MkdirAll(scratch, 0o755), os.MkdirAll(staging, 0o755))
}

func newWazero(t *testing.T) *sandbox.WazeroProvider {
	t.Helper()
	p, err := sandbox.NewWazeroProvider()
	if err != nil {
		t.Fatalf("NewWazeroProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

// newRequest returns a request over fresh source, scratch and staging directories.
func newRequest(t *testing.T, rv *resolve.ResolvedVersion) Request {
	t.Helper()
	return Request{Version: rv, Source: t.TempDir(), Scratch: t.TempDir(), Staging: t.TempDir()}
}

func version(pkg, number, install string, steps ...manifest.BuildStep) *resolve.ResolvedVersion {
	return &resolve.ResolvedVersion{
		Package: pkg,
		Version: manifest.Version{
			Number:  semver.MustParse(number),
			Steps:   slices.Clone(steps),
			Install: install,
		},
	}
}
