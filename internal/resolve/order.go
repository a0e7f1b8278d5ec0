// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"github.com/pax-hub/paxy/internal/dag"
)

// InstallOrder lists rv and every version it depends on, dependencies
// before dependents. Releases reached through several paths appear once.
// Among independent releases the order follows a depth-first walk of the
// declared dependencies.
func (rv *ResolvedVersion) InstallOrder() ([]*ResolvedVersion, error) {
	g := dag.New[string]()
	byID := make(map[string]*ResolvedVersion)

	var visit func(*ResolvedVersion)
	visit = func(n *ResolvedVersion) {
		id := n.ID()
		if _, seen := byID[id]; seen {
			return
		}
		byID[id] = n
		for _, dep := range n.Dependencies {
			visit(dep)
			g.AddEdge(dep.ID(), id)
		}
		g.AddNode(id)
	}
	visit(rv)

	ids, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	out := make([]*ResolvedVersion, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out, nil
}

// Walk calls fn for rv and each dependency, depth first in declaration
// order, with the depth below rv. Shared nodes are visited once per path.
// Returning false from fn skips the node's dependencies.
func (rv *ResolvedVersion) Walk(fn func(depth int, n *ResolvedVersion) bool) {
	var walk func(int, *ResolvedVersion)
	walk = func(depth int, n *ResolvedVersion) {
		if !fn(depth, n) {
			return
		}
		for _, dep := range n.Dependencies {
			walk(depth+1, dep)
		}
	}
	walk(0, rv)
}
