// SPDX-License-Identifier: MPL-2.0

// Package resolve selects a version of a package flavor and, recursively,
// of every dependency it declares.
//
// A resolution descends a flavor path in a package tree, picks the highest
// version matching a requirement and then resolves each dependency against
// a [PackageIndex]. The (package, flavor) pairs in progress form a stack; a
// dependency that names a pair already on the stack is a cycle. Identical
// (package, flavor, requirement) requests inside one resolution share one
// [ResolvedVersion] node, so the result is a graph rather than a tree.
//
// Trees are only read. Resolutions share nothing, so one Resolver can serve
// concurrent callers.
package resolve
