// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/pkg/manifest"
	"github.com/pax-hub/paxy/pkg/platform"
)

// Tree is a built package tree together with where it came from.
type Tree struct {
	// Root is the node parsed from the manifest in Dir.
	Root manifest.Node
	// Dir is the absolute directory the tree was built from.
	Dir string
	// Files lists every manifest that contributed a node, in walk order.
	Files []string
}

// Build assembles the package tree rooted at root.
func Build(ctx context.Context, root string, opts ...Option) (manifest.Node, error) {
	tree, err := BuildTree(ctx, root, opts...)
	if err != nil {
		return nil, err
	}
	return tree.Root, nil
}

// BuildTree assembles the package tree rooted at root and records its
// source files. The minimum depth is always 1 since the root manifest
// anchors the tree.
//
// The build fails on the first unreadable or malformed manifest, returning
// the error from [manifest.ParseFile]. Layout violations are *SchemaError.
// No partial tree is ever returned.
func BuildTree(ctx context.Context, root string, opts ...Option) (*Tree, error) {
	loc := NewLocator(root, opts...)
	loc.opts.minDepth = 1

	files, byDir, err := collect(ctx, loc)
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Cause: err}
	}
	if _, ok := byDir[dir]; !ok {
		return nil, &SchemaError{Path: dir, Reason: "no root manifest", NoRoot: true}
	}

	nodes := make(map[string]manifest.Node, len(files))
	for _, file := range files {
		node, err := manifest.ParseFile(file)
		if err != nil {
			return nil, err
		}
		if err := checkVersions(file, node); err != nil {
			return nil, err
		}
		nodes[filepath.Dir(file)] = node
	}

	children := make(map[string]map[string]manifest.Node)
	for _, file := range files {
		d := filepath.Dir(file)
		if d == dir {
			continue
		}
		if err := attach(d, byDir, nodes, children); err != nil {
			return nil, err
		}
	}

	for _, file := range files {
		d := filepath.Dir(file)
		fp, ok := nodes[d].(*manifest.FlavoredPackage)
		if !ok {
			continue
		}
		kids := children[d]
		fp.Flavors = make([]manifest.Flavor, 0, len(fp.Declared))
		for _, name := range fp.Declared {
			child, ok := kids[name]
			if !ok {
				return nil, &SchemaError{
					Path:   filepath.Join(d, name),
					Reason: fmt.Sprintf("flavor %q is declared in %s but has no manifest", name, file),
				}
			}
			fp.Flavors = append(fp.Flavors, manifest.Flavor{Name: name, Node: child})
		}
	}

	ctxlog.FromContext(ctx).Debug("package tree built", "root", dir, "manifests", len(files))
	return &Tree{Root: nodes[dir], Dir: dir, Files: files}, nil
}

// collect enumerates manifests and indexes them by directory, rejecting
// directories with more than one manifest.
func collect(ctx context.Context, loc *Locator) ([]string, map[string]string, error) {
	var files []string
	byDir := make(map[string]string)
	for path, err := range loc.Manifests(ctx) {
		if err != nil {
			return nil, nil, err
		}
		d := filepath.Dir(path)
		if prev, dup := byDir[d]; dup {
			return nil, nil, &SchemaError{
				Path:   d,
				Reason: fmt.Sprintf("more than one manifest: %s and %s", filepath.Base(prev), filepath.Base(path)),
			}
		}
		byDir[d] = path
		files = append(files, path)
	}
	return files, byDir, nil
}

// attach records the node in dir as a flavor of its parent directory's node.
func attach(dir string, byDir map[string]string, nodes map[string]manifest.Node, children map[string]map[string]manifest.Node) error {
	parentDir := filepath.Dir(dir)
	name := filepath.Base(dir)
	file := byDir[dir]

	if err := platform.ValidatePortableName(name); err != nil {
		return &SchemaError{Path: dir, Reason: fmt.Sprintf("invalid flavor name: %v", err)}
	}

	parent, ok := nodes[parentDir]
	if !ok {
		return &SchemaError{Path: file, Reason: "parent directory has no manifest"}
	}
	fp, ok := parent.(*manifest.FlavoredPackage)
	if !ok {
		return &SchemaError{
			Path:   file,
			Reason: fmt.Sprintf("versioned package %s cannot have flavors", byDir[parentDir]),
		}
	}
	if !fp.Declares(name) {
		return &SchemaError{
			Path:   file,
			Reason: fmt.Sprintf("flavor %q is not declared in %s (declared: %s)", name, byDir[parentDir], strings.Join(fp.Declared, ", ")),
		}
	}

	if children[parentDir] == nil {
		children[parentDir] = make(map[string]manifest.Node)
	}
	children[parentDir][name] = nodes[dir]
	return nil
}

// checkVersions rejects a versioned package listing the same version twice.
// Versions compare by precedence, so build metadata does not distinguish them.
func checkVersions(file string, node manifest.Node) error {
	vp, ok := node.(*manifest.VersionedPackage)
	if !ok {
		return nil
	}
	for i := range vp.Versions {
		for j := range i {
			if vp.Versions[i].Number.Equal(vp.Versions[j].Number) {
				return &SchemaError{
					Path:   file,
					Reason: fmt.Sprintf("version %s listed more than once", vp.Versions[i].Number.Original()),
				}
			}
		}
	}
	return nil
}
