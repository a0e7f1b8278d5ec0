// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/internal/discovery"
	"github.com/pax-hub/paxy/pkg/manifest"
)

type (
	// Index is an in-memory PackageIndex.
	Index struct {
		packages map[string]*Package
		names    []string
		problems []IndexProblem
	}

	// IndexProblem is a package directory that could not be loaded.
	IndexProblem struct {
		Repository string
		Dir        string
		Err        error
	}

	candidate struct {
		repo string
		dir  string
	}
)

// NewIndex returns an index of pkgs. On duplicate names the first wins.
func NewIndex(pkgs ...*Package) *Index {
	ix := &Index{packages: make(map[string]*Package)}
	for _, p := range pkgs {
		ix.Add(p)
	}
	return ix
}

// Add registers p unless its name is taken. It reports whether p was added.
func (ix *Index) Add(p *Package) bool {
	if _, taken := ix.packages[p.Name]; taken {
		return false
	}
	ix.packages[p.Name] = p
	ix.names = append(ix.names, p.Name)
	return true
}

// Lookup implements PackageIndex.
func (ix *Index) Lookup(name string) (*Package, bool) {
	p, ok := ix.packages[name]
	return p, ok
}

// Names returns the package names in load order.
func (ix *Index) Names() []string {
	return slices.Clone(ix.names)
}

// Problems returns the package directories that failed to load.
func (ix *Index) Problems() []IndexProblem {
	return slices.Clone(ix.problems)
}

// LoadIndex builds an index from repository clones. Every immediate
// subdirectory of a repository that holds a manifest is one package, named
// by its root metadata or else by the directory. Packages build
// concurrently. When two repositories provide the same name, the earlier
// repository in repoDirs wins.
//
// A package that fails to build is recorded in Problems and left out; only
// an unreadable repository directory or cancellation fails the load.
func LoadIndex(ctx context.Context, repoDirs ...string) (*Index, error) {
	logger := ctxlog.FromContext(ctx)

	var candidates []candidate
	for _, repo := range repoDirs {
		entries, err := os.ReadDir(repo)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			dir := filepath.Join(repo, e.Name())
			if !isDir(dir) || !hasManifest(dir) {
				continue
			}
			candidates = append(candidates, candidate{repo: repo, dir: dir})
		}
	}

	trees := make([]*discovery.Tree, len(candidates))
	errs := make([]error, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range candidates {
		g.Go(func() error {
			tree, err := discovery.BuildTree(gctx, c.dir)
			if err != nil {
				if gctx.Err() != nil && errors.Is(err, gctx.Err()) {
					return err
				}
				errs[i] = err
				return nil
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := NewIndex()
	for i, c := range candidates {
		if errs[i] != nil {
			logger.Warn("skipping package that failed to load", "dir", c.dir, "error", errs[i])
			ix.problems = append(ix.problems, IndexProblem{Repository: c.repo, Dir: c.dir, Err: errs[i]})
			continue
		}
		name := PackageName(trees[i].Root)
		if name == "" {
			name = filepath.Base(c.dir)
		}
		if !ix.Add(&Package{Name: name, Root: trees[i].Root, Dir: trees[i].Dir, Repository: c.repo}) {
			prev, _ := ix.Lookup(name)
			logger.Info("package shadowed by an earlier repository", "package", name, "kept", prev.Dir, "ignored", c.dir)
		}
	}
	return ix, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasManifest(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(entries, func(e os.DirEntry) bool {
		return !e.IsDir() && manifest.IsManifestFile(e.Name())
	})
}
