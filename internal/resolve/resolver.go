// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/pkg/manifest"
)

type (
	// Package is one package tree known to an index.
	Package struct {
		// Name is the name dependencies use to refer to the package.
		Name string
		// Root is the root node of the package tree.
		Root manifest.Node
		// Dir is the directory holding the root manifest, empty for trees
		// that do not come from disk.
		Dir string
		// Repository names the repository the package was loaded from.
		Repository string
	}

	// PackageIndex looks up package trees by name.
	PackageIndex interface {
		Lookup(name string) (*Package, bool)
	}

	// Ref identifies a package flavor. Flavor is a flavor path joined by "/".
	Ref struct {
		Package string
		Flavor  string
	}

	// ResolvedVersion is a selected version together with the versions
	// selected for its dependencies. Version is a copy; changing it does not
	// affect the tree it came from.
	ResolvedVersion struct {
		Package    string
		FlavorPath []string
		Metadata   *manifest.Metadata
		Version    manifest.Version
		// Dir is the directory of the flavor's manifest, or empty when the
		// package has no directory.
		Dir string
		// Dependencies follow the declaration order of Version.Dependencies.
		Dependencies []*ResolvedVersion
	}

	// Resolver resolves packages against an index.
	Resolver struct {
		index PackageIndex
	}

	memoKey struct {
		ref         Ref
		requirement string
	}

	// session is the state of one resolution.
	session struct {
		ctx    context.Context
		lookup func(string) (*Package, bool)
		stack  []Ref
		memo   map[memoKey]*ResolvedVersion
	}
)

// String renders the reference as "package" or "package[flavor/path]".
func (r Ref) String() string {
	if r.Flavor == "" {
		return displayName(r.Package)
	}
	return fmt.Sprintf("%s[%s]", displayName(r.Package), r.Flavor)
}

// Ref returns the package flavor this version belongs to.
func (rv *ResolvedVersion) Ref() Ref {
	return Ref{Package: rv.Package, Flavor: strings.Join(rv.FlavorPath, "/")}
}

// ID identifies the resolved release as "package[flavor]@version".
func (rv *ResolvedVersion) ID() string {
	return rv.Ref().String() + "@" + rv.Version.Number.String()
}

// New returns a Resolver that looks dependencies up in index. A nil index
// resolves packages without dependencies only.
func New(index PackageIndex) *Resolver {
	return &Resolver{index: index}
}

// Resolve resolves flavorPath of tree against spec, looking dependencies
// up in index. The package is named after the root metadata, if any.
func Resolve(ctx context.Context, tree manifest.Node, flavorPath []string, spec manifest.Requirement, index PackageIndex) (*ResolvedVersion, error) {
	return New(index).ResolveTree(ctx, &Package{Name: PackageName(tree), Root: tree}, flavorPath, spec)
}

// PackageName returns the metadata name of node, or "".
func PackageName(node manifest.Node) string {
	if node == nil || node.Meta() == nil {
		return ""
	}
	return node.Meta().Name
}

// ResolvePackage looks pkg up in the index and resolves it.
func (r *Resolver) ResolvePackage(ctx context.Context, pkg string, flavorPath []string, spec manifest.Requirement) (*ResolvedVersion, error) {
	p, ok := r.lookup(pkg)
	if !ok {
		return nil, &PackageNotFoundError{Package: pkg}
	}
	return r.ResolveTree(ctx, p, flavorPath, spec)
}

// ResolveTree resolves flavorPath of pkg against spec.
//
// Failures of the requested package itself are *FlavorNotFoundError or
// *NoMatchingVersionError. A failure further down is reported once, at the
// innermost failing edge, as *DependencyResolutionError, except cycles,
// which are always *CyclicDependencyError.
func (r *Resolver) ResolveTree(ctx context.Context, pkg *Package, flavorPath []string, spec manifest.Requirement) (*ResolvedVersion, error) {
	s := &session{
		ctx:    ctx,
		lookup: r.lookup,
		memo:   make(map[memoKey]*ResolvedVersion),
	}
	rv, err := s.resolve(pkg, flavorPath, spec)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("resolved", "package", rv.ID(), "nodes", len(s.memo))
	return rv, nil
}

func (r *Resolver) lookup(name string) (*Package, bool) {
	if r.index == nil {
		return nil, false
	}
	return r.index.Lookup(name)
}

func (s *session) resolve(pkg *Package, flavorPath []string, spec manifest.Requirement) (*ResolvedVersion, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	ref := Ref{Package: pkg.Name, Flavor: strings.Join(flavorPath, "/")}
	if i := slices.Index(s.stack, ref); i >= 0 {
		chain := append(slices.Clone(s.stack[i:]), ref)
		return nil, &CyclicDependencyError{Chain: chain}
	}

	key := memoKey{ref: ref, requirement: spec.String()}
	if rv, ok := s.memo[key]; ok {
		return rv, nil
	}

	s.stack = append(s.stack, ref)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	vp, err := descend(pkg, flavorPath)
	if err != nil {
		return nil, err
	}
	v, err := selectVersion(pkg.Name, flavorPath, vp, spec)
	if err != nil {
		return nil, err
	}

	rv := &ResolvedVersion{
		Package:    pkg.Name,
		FlavorPath: slices.Clone(flavorPath),
		Metadata:   vp.Metadata,
		Version:    *v,
	}
	rv.Version.Steps = slices.Clone(v.Steps)
	rv.Version.Dependencies = slices.Clone(v.Dependencies)
	if pkg.Dir != "" {
		rv.Dir = filepath.Join(append([]string{pkg.Dir}, flavorPath...)...)
	}

	for _, dep := range v.Dependencies {
		child, err := s.dependency(dep)
		if err != nil {
			return nil, err
		}
		rv.Dependencies = append(rv.Dependencies, child)
	}

	s.memo[key] = rv
	ctxlog.FromContext(s.ctx).Debug("selected version", "package", ref.String(), "requirement", spec.String(), "version", v.Number.Original())
	return rv, nil
}

// dependency resolves one edge. Errors already classified below this edge
// pass through untouched; a failure of the edge itself is wrapped with the
// current chain.
func (s *session) dependency(dep manifest.Dependency) (*ResolvedVersion, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	target := Ref{Package: dep.Name, Flavor: dep.Flavor}
	wrap := func(err error) error {
		chain := append(slices.Clone(s.stack), target)
		return &DependencyResolutionError{Chain: chain, Cause: err}
	}

	pkg, ok := s.lookup(dep.Name)
	if !ok {
		return nil, wrap(&PackageNotFoundError{Package: dep.Name})
	}

	child, err := s.resolve(pkg, splitFlavor(dep.Flavor), dep.Requirement)
	if err == nil {
		return child, nil
	}

	var (
		cyclic *CyclicDependencyError
		nested *DependencyResolutionError
	)
	switch {
	case errors.As(err, &cyclic), errors.As(err, &nested):
		return nil, err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, wrap(err)
	}
}

// descend follows flavorPath from the root of pkg to a versioned package.
func descend(pkg *Package, flavorPath []string) (*manifest.VersionedPackage, error) {
	notFound := func(reason string) error {
		return &FlavorNotFoundError{Package: pkg.Name, FlavorPath: slices.Clone(flavorPath), Reason: reason}
	}

	node := pkg.Root
	if node == nil {
		return nil, notFound("package has no tree")
	}
	for i, name := range flavorPath {
		fp, ok := node.(*manifest.FlavoredPackage)
		if !ok {
			return nil, notFound(fmt.Sprintf("%q has no flavors", strings.Join(flavorPath[:i], "/")))
		}
		child, ok := fp.Flavor(name)
		if !ok {
			return nil, notFound(fmt.Sprintf("no flavor %q", name))
		}
		node = child
	}

	vp, ok := node.(*manifest.VersionedPackage)
	if !ok {
		return nil, notFound("flavor has sub-flavors and no versions; pick one of them")
	}
	return vp, nil
}

// selectVersion returns the highest-precedence version matching spec.
func selectVersion(pkg string, flavorPath []string, vp *manifest.VersionedPackage, spec manifest.Requirement) (*manifest.Version, error) {
	var best *manifest.Version
	for i := range vp.Versions {
		v := &vp.Versions[i]
		if !spec.Matches(v.Number) {
			continue
		}
		if best == nil || v.Number.GreaterThan(best.Number) {
			best = v
		}
	}
	if best != nil {
		return best, nil
	}

	available := make([]*semver.Version, len(vp.Versions))
	for i := range vp.Versions {
		available[i] = vp.Versions[i].Number
	}
	slices.SortFunc(available, func(a, b *semver.Version) int { return b.Compare(a) })
	return nil, &NoMatchingVersionError{
		Package:     pkg,
		FlavorPath:  slices.Clone(flavorPath),
		Requirement: spec,
		Available:   available,
	}
}

// splitFlavor turns a dependency flavor path into segments.
func splitFlavor(flavor string) []string {
	if flavor == "" {
		return nil
	}
	return strings.Split(flavor, "/")
}
