// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/internal/sandbox"
	"github.com/pax-hub/paxy/pkg/manifest"
)

var (
	// ErrNoSource is returned for a version whose source directory cannot be determined.
	ErrNoSource = errors.New("no source directory")
	// ErrSourceEscape is returned for a local source path that leaves the
	// flavor directory.
	ErrSourceEscape = errors.New("source path leaves the package directory")
)

type (
	// DirAllocator hands out the scratch and staging directories for one
	// resolved version. Directories for different IDs never overlap.
	DirAllocator interface {
		InstallDirs(id string) (scratch, staging string, err error)
	}

	// PlannedInstall describes what installing one version would do.
	PlannedInstall struct {
		Version    *resolve.ResolvedVersion
		Source     string
		Steps      []manifest.BuildStepKind
		Statements []Statement
	}

	// Installer installs a resolved version together with its dependencies.
	Installer struct {
		executor *Executor
		plugins  PluginRegistry
		dirs     DirAllocator
	}
)

// NewInstaller returns an Installer that runs versions on executor.
func NewInstaller(executor *Executor, plugins PluginRegistry, dirs DirAllocator) *Installer {
	return &Installer{executor: executor, plugins: plugins, dirs: dirs}
}

// Plan lists the installs root requires, dependencies first, without
// touching the filesystem. Malformed install strings are reported here.
func (i *Installer) Plan(root *resolve.ResolvedVersion) ([]PlannedInstall, error) {
	order, err := root.InstallOrder()
	if err != nil {
		return nil, err
	}
	plan := make([]PlannedInstall, 0, len(order))
	for _, rv := range order {
		src, err := SourceDir(rv)
		if err != nil {
			return nil, err
		}
		stmts, err := ParseInstructions(rv.Version.Install)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rv.ID(), err)
		}
		p := PlannedInstall{Version: rv, Source: src, Statements: stmts}
		for _, step := range rv.Version.Steps {
			p.Steps = append(p.Steps, step.Kind())
		}
		plan = append(plan, p)
	}
	return plan, nil
}

// Install executes every version root requires, dependencies first. It
// stops at the first failure; the outcomes gathered so far are returned
// with the error.
func (i *Installer) Install(ctx context.Context, root *resolve.ResolvedVersion) ([]*Outcome, error) {
	order, err := root.InstallOrder()
	if err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx)
	outcomes := make([]*Outcome, 0, len(order))
	for _, rv := range order {
		src, err := SourceDir(rv)
		if err != nil {
			return outcomes, err
		}
		scratch, staging, err := i.dirs.InstallDirs(rv.ID())
		if err != nil {
			return outcomes, fmt.Errorf("allocate directories for %s: %w", rv.ID(), err)
		}
		log.Info("installing", "version", rv.ID())
		out, err := i.executor.Execute(ctx, Request{
			Version: rv,
			Source:  src,
			Scratch: scratch,
			Staging: staging,
		}, i.plugins)
		if out != nil {
			outcomes = append(outcomes, out)
		}
		if err != nil {
			return outcomes, fmt.Errorf("install %s: %w", rv.ID(), err)
		}
	}
	return outcomes, nil
}

// SourceDir returns the host directory mounted as a version's source: its
// local source path, resolved against the flavor directory, or the flavor
// directory itself. A source path must stay inside the flavor directory
// once symbolic links are followed.
func SourceDir(rv *resolve.ResolvedVersion) (string, error) {
	if src := rv.Version.Source; src != nil && src.Path != "" {
		if rv.Dir == "" {
			return "", fmt.Errorf("%w for %s: source %q without a package directory", ErrNoSource, rv.ID(), src.Path)
		}
		if !filepath.IsLocal(src.Path) {
			return "", fmt.Errorf("%w for %s: %q", ErrSourceEscape, rv.ID(), src.Path)
		}
		dir := filepath.Join(rv.Dir, src.Path)
		ok, err := sandbox.Contains(rv.Dir, dir)
		if err != nil {
			return "", fmt.Errorf("%w for %s: %w", ErrNoSource, rv.ID(), err)
		}
		if !ok {
			return "", fmt.Errorf("%w for %s: %q", ErrSourceEscape, rv.ID(), src.Path)
		}
		return dir, nil
	}
	if rv.Dir == "" {
		return "", fmt.Errorf("%w for %s", ErrNoSource, rv.ID())
	}
	return rv.Dir, nil
}
