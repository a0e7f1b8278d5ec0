// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pax-hub/paxy/internal/issue"
	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/pkg/manifest"
)

var errEmptyPackage = errors.New("no package name given")

// target is a package reference as typed on the command line:
// "name", "name[flavor/path]", "name@requirement" or both.
type target struct {
	Package     string
	Flavor      []string
	Requirement manifest.Requirement
}

// parseTarget parses s. The name may be empty so that a package given by
// directory can still select a flavor and a requirement ("[base]@^1").
func parseTarget(s string) (target, error) {
	var t target
	rest := strings.TrimSpace(s)

	if i := strings.IndexByte(rest, '@'); i >= 0 {
		req, err := manifest.ParseRequirement(rest[i+1:])
		if err != nil {
			return target{}, err
		}
		t.Requirement = req
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return target{}, fmt.Errorf("unterminated flavor in %q", s)
		}
		flavor := rest[i+1 : len(rest)-1]
		if flavor != "" {
			t.Flavor = strings.Split(flavor, "/")
			for _, seg := range t.Flavor {
				if seg == "" {
					return target{}, fmt.Errorf("empty flavor segment in %q", s)
				}
			}
		}
		rest = rest[:i]
	}

	if strings.ContainsAny(rest, "[]") {
		return target{}, fmt.Errorf("malformed package reference %q", s)
	}
	t.Package = rest
	return t, nil
}

func (t target) String() string {
	s := t.Package
	if len(t.Flavor) > 0 {
		s += "[" + strings.Join(t.Flavor, "/") + "]"
	}
	return s + "@" + t.Requirement.String()
}

// resolveTarget resolves t against the repository index. With a
// directory, the package is the tree built from dir instead, and its
// dependencies still come from the index.
func (a *App) resolveTarget(ctx context.Context, t target, dir string) (*resolve.ResolvedVersion, error) {
	ix, err := a.index(ctx)
	if err != nil {
		return nil, err
	}
	r := resolve.New(ix)

	if dir == "" {
		if t.Package == "" {
			return nil, errEmptyPackage
		}
		return r.ResolvePackage(ctx, t.Package, t.Flavor, t.Requirement)
	}

	tree, err := a.buildTree(ctx, dir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("build package tree").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}
	name := t.Package
	if name == "" {
		name = resolve.PackageName(tree.Root)
	}
	if name == "" {
		name = filepath.Base(tree.Dir)
	}
	return r.ResolveTree(ctx, &resolve.Package{Name: name, Root: tree.Root, Dir: tree.Dir}, t.Flavor, t.Requirement)
}
