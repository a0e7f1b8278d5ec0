// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/internal/testutil"
	"github.com/pax-hub/paxy/pkg/manifest"
)

func TestInstaller_DependencyOrder(t *testing.T) {
	t.Parallel()

	lib := version("lib", "1.2.0", "echo lib")
	lib.Dir = t.TempDir()
	tool := version("tool", "0.3.0", "echo tool")
	tool.Dir = t.TempDir()
	tool.Dependencies = []*resolve.ResolvedVersion{lib}
	app := version("app", "2.0.0", "echo app")
	app.Dir = t.TempDir()
	app.Dependencies = []*resolve.ResolvedVersion{tool, lib}

	runner := &recordingRunner{}
	inst := NewInstaller(NewExecutor(newWazero(t), WithRunner(runner)), pluginMap{}, tempDirs{root: t.TempDir()})

	plan, err := inst.Plan(app)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	var planned []string
	for _, p := range plan {
		planned = append(planned, p.Version.ID())
	}
	want := []string{"lib@1.2.0", "tool@0.3.0", "app@2.0.0"}
	if diff := cmp.Diff(want, planned); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	outcomes, err := inst.Install(t.Context(), app)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Succeeded() {
			t.Errorf("%s: State = %s", o.ID, o.State)
		}
	}
	wantCmds := [][]string{{"echo", "lib"}, {"echo", "tool"}, {"echo", "app"}}
	if diff := cmp.Diff(wantCmds, runner.argvs()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}

	scratches := map[string]bool{}
	for _, c := range runner.calls {
		scratches[c.Opts.Dir] = true
	}
	if len(scratches) != 3 {
		t.Errorf("versions shared scratch directories: %v", scratches)
	}
}

func TestInstaller_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	lib := version("lib", "1.0.0", "false")
	lib.Dir = t.TempDir()
	app := version("app", "1.0.0", "echo app")
	app.Dir = t.TempDir()
	app.Dependencies = []*resolve.ResolvedVersion{lib}

	runner := &recordingRunner{exits: map[string]int{"false": 1}}
	inst := NewInstaller(NewExecutor(newWazero(t), WithRunner(runner)), pluginMap{}, tempDirs{root: t.TempDir()})

	outcomes, err := inst.Install(t.Context(), app)
	if !errors.Is(err, ErrHostCommand) {
		t.Fatalf("Install() error = %v, want ErrHostCommand", err)
	}
	if len(outcomes) != 1 || outcomes[0].State != StateInstructionFailed {
		t.Errorf("outcomes = %+v, want one failed outcome", outcomes)
	}
	if diff := cmp.Diff([][]string{{"false"}}, runner.argvs()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestInstaller_PlanRejectsMalformed(t *testing.T) {
	t.Parallel()

	rv := version("foo", "1.0.0", "make;")
	rv.Dir = t.TempDir()
	inst := NewInstaller(nil, nil, nil)
	if _, err := inst.Plan(rv); !errors.Is(err, ErrMalformedInstallInstruction) {
		t.Errorf("Plan() error = %v, want ErrMalformedInstallInstruction", err)
	}
}

func TestSourceDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "foo", "base")
	outside := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "src"))
	testutil.MustSymlink(t, filepath.Join(dir, "src"), filepath.Join(dir, "alias"))
	testutil.MustSymlink(t, outside, filepath.Join(dir, "escape"))

	tests := []struct {
		name    string
		dir     string
		source  *manifest.Location
		want    string
		wantErr error
	}{
		{name: "flavor directory", dir: dir, want: dir},
		{name: "relative path", dir: dir, source: &manifest.Location{Path: "src"}, want: filepath.Join(dir, "src")},
		{name: "link inside the flavor", dir: dir, source: &manifest.Location{Path: "alias"}, want: filepath.Join(dir, "alias")},
		{name: "remote source", dir: dir, source: manifest.ParseLocation("https://example.org/foo.tar.gz"), want: dir},
		{name: "absolute path", dir: dir, source: &manifest.Location{Path: outside}, wantErr: ErrSourceEscape},
		{name: "parent path", dir: dir, source: &manifest.Location{Path: "../../.."}, wantErr: ErrSourceEscape},
		{name: "link out of the flavor", dir: dir, source: &manifest.Location{Path: "escape"}, wantErr: ErrSourceEscape},
		{name: "no directory", wantErr: ErrNoSource},
		{name: "relative without directory", source: &manifest.Location{Path: "src"}, wantErr: ErrNoSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rv := version("foo", "1.0.0", "")
			rv.Dir = tt.dir
			rv.Version.Source = tt.source
			got, err := SourceDir(rv)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SourceDir() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SourceDir() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SourceDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
