// SPDX-License-Identifier: MPL-2.0

// Package discovery turns a directory of manifests into a package tree.
//
// A [Locator] enumerates manifest files under a root in a deterministic
// order, depth first and lexicographic at every level, following symbolic
// links. [Build] parses each located manifest and assembles the tree: the
// manifest in the root directory is the root node and every subdirectory
// manifest becomes a flavor of the manifest one level above it.
//
// File organization:
//   - locator.go: manifest enumeration (Locator, Manifests)
//   - builder.go: tree assembly (Build, BuildTree)
//   - snapshot.go: the current tree of a repository behind an atomic pointer
//   - diagnostic.go: non-fatal per-entry problems reported during enumeration
package discovery
