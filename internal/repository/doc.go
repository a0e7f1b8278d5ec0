// SPDX-License-Identifier: MPL-2.0

// Package repository keeps local clones of the registered package
// repositories up to date. Each repository is cloned into its own
// directory, named after the repository, below a common root; the
// clones are what the package index is loaded from.
package repository
