// SPDX-License-Identifier: MPL-2.0

// Package dag orders the nodes of a directed graph so that every node comes
// after the nodes it has an edge from. The resolver uses it to turn a
// dependency graph into an install order: dependencies before dependents.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError[K comparable] struct {
		// Cycle holds every node left with unsatisfied edges once the sort stalls,
		// in insertion order. It contains at least one full cycle.
		Cycle []K
	}

	// Graph is a directed graph keyed by K. An edge from A to B means A must
	// be handled before B. Nodes keep their insertion order, which makes the
	// sort deterministic.
	Graph[K comparable] struct {
		adjacency map[K][]K
		edges     map[[2]K]struct{}
		nodes     []K
		nodeSet   map[K]struct{}
	}
)

// Error implements the error interface.
func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, k := range e.Cycle {
		parts[i] = fmt.Sprint(k)
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(parts, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError[K]) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		adjacency: make(map[K][]K),
		edges:     make(map[[2]K]struct{}),
		nodeSet:   make(map[K]struct{}),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph[K]) AddNode(k K) {
	if _, ok := g.nodeSet[k]; ok {
		return
	}
	g.nodeSet[k] = struct{}{}
	g.nodes = append(g.nodes, k)
}

// AddEdge adds the edge from -> to, adding missing nodes. Repeated edges
// are recorded once.
func (g *Graph[K]) AddEdge(from, to K) {
	g.AddNode(from)
	g.AddNode(to)
	key := [2]K{from, to}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph[K]) Len() int { return len(g.nodes) }

// TopologicalSort returns the nodes in an order where every edge points
// forward, using Kahn's algorithm. Nodes that become ready together keep
// their insertion order. A cycle returns *CycleError.
func (g *Graph[K]) TopologicalSort() ([]K, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[K]int, len(g.nodes))
	for _, targets := range g.adjacency {
		for _, to := range targets {
			inDegree[to]++
		}
	}

	queue := make([]K, 0, len(g.nodes))
	for _, k := range g.nodes {
		if inDegree[k] == 0 {
			queue = append(queue, k)
		}
	}

	result := make([]K, 0, len(g.nodes))
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		result = append(result, k)

		for _, to := range g.adjacency[k] {
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var stuck []K
		for _, k := range g.nodes {
			if inDegree[k] > 0 {
				stuck = append(stuck, k)
			}
		}
		return nil, &CycleError[K]{Cycle: stuck}
	}
	return result, nil
}
