// SPDX-License-Identifier: MPL-2.0

// Package watch keeps a package tree current while its manifests are edited.
//
// A Watcher monitors a package directory with fsnotify, coalesces bursts of
// events over a debounce window, and then rebuilds the tree through a
// Reloader, typically a *discovery.Snapshot. Only manifest files and
// directory creation or removal trigger a rebuild.
package watch
