// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"net/url"

	"github.com/Masterminds/semver/v3"
)

// BuildStepClone is the kind of the [CloneStep] build step.
const BuildStepClone BuildStepKind = "clone"

type (
	// Node is one node of a package tree. It is either a *[FlavoredPackage]
	// or a *[VersionedPackage]; no other implementations exist.
	Node interface {
		// Meta returns the node metadata, or nil when the manifest declares none.
		Meta() *Metadata
		node()
	}

	// FlavoredPackage is an interior package node. Declared holds the flavor
	// names listed in the manifest, in manifest order. Flavors holds the child
	// nodes attached by the tree builder, in the same order.
	FlavoredPackage struct {
		Metadata *Metadata
		Declared []string
		Flavors  []Flavor
	}

	// Flavor is a named child of a FlavoredPackage.
	Flavor struct {
		Name string
		Node Node
	}

	// VersionedPackage is a leaf package node with at least one Version.
	VersionedPackage struct {
		Metadata *Metadata
		Versions []Version
	}

	// Metadata describes a package node.
	Metadata struct {
		Name        string
		Description string
		License     string
		Website     *url.URL
		Repository  *url.URL
		Authors     []Author
	}

	// Author is a package author. Email is optional.
	Author struct {
		Name  string
		Email string
	}

	// Version is one installable release of a package flavor.
	Version struct {
		Number       *semver.Version
		Steps        []BuildStep
		Dependencies []Dependency
		// Prebuilt references a pre-built artifact, if the release ships one.
		Prebuilt *Location
		// Source references the release sources, if they are not fetched by a build step.
		Source *Location
		// Install is the raw install-instruction string.
		Install string
	}

	// Dependency names another package, optionally a flavor path inside it,
	// and the versions that satisfy it.
	Dependency struct {
		Name string
		// Flavor is a flavor path inside the target package, segments joined by "/".
		Flavor      string
		Requirement Requirement
	}

	// BuildStepKind identifies a build step variant. The executor selects the
	// plugin for a step by its kind.
	BuildStepKind string

	// BuildStep is a declarative source-preparation instruction performed by a plugin.
	BuildStep interface {
		Kind() BuildStepKind
	}

	// CloneStep clones a source repository.
	CloneStep struct {
		Repository *url.URL
	}

	// Location is a reference to either a remote URL or a local path.
	// Exactly one of URL and Path is set.
	Location struct {
		URL  *url.URL
		Path string
	}
)

// Meta implements Node.
func (p *FlavoredPackage) Meta() *Metadata { return p.Metadata }

func (*FlavoredPackage) node() {}

// Flavor returns the child node attached under name.
func (p *FlavoredPackage) Flavor(name string) (Node, bool) {
	for _, f := range p.Flavors {
		if f.Name == name {
			return f.Node, true
		}
	}
	return nil, false
}

// Declares reports whether the manifest lists name among its flavors.
func (p *FlavoredPackage) Declares(name string) bool {
	for _, d := range p.Declared {
		if d == name {
			return true
		}
	}
	return false
}

// Meta implements Node.
func (p *VersionedPackage) Meta() *Metadata { return p.Metadata }

func (*VersionedPackage) node() {}

// Kind implements BuildStep.
func (CloneStep) Kind() BuildStepKind { return BuildStepClone }

// String returns the URL or the path.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.URL != nil {
		return l.URL.String()
	}
	return l.Path
}

// IsRemote reports whether the location is a URL.
func (l *Location) IsRemote() bool { return l != nil && l.URL != nil }

// String returns the display form "Name <email>" used in manifests.
func (a Author) String() string {
	if a.Email == "" {
		return a.Name
	}
	return a.Name + " <" + a.Email + ">"
}

// Walk visits node and every descendant depth-first, in flavor order. The
// path passed to fn is the flavor path from the root (empty for the root).
// Returning false from fn stops the walk.
func Walk(node Node, fn func(path []string, n Node) bool) {
	walk(nil, node, fn)
}

func walk(path []string, node Node, fn func([]string, Node) bool) bool {
	if !fn(path, node) {
		return false
	}
	fp, ok := node.(*FlavoredPackage)
	if !ok {
		return true
	}
	for _, f := range fp.Flavors {
		child := append(path[:len(path):len(path)], f.Name)
		if !walk(child, f.Node, fn) {
			return false
		}
	}
	return true
}
