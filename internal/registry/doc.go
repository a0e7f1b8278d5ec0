// SPDX-License-Identifier: MPL-2.0

// Package registry stores the user's package repositories and build
// plugins.
//
// Both registries are small TOML files mapping a name to a value. Writers
// take a cross-process lock, re-read the file, apply their change and
// replace the file with an atomic rename, so concurrent paxy processes
// never lose each other's updates and readers never see a partial file.
package registry
