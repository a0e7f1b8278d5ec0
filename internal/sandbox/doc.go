// SPDX-License-Identifier: MPL-2.0

// Package sandbox defines how build plugins are confined and ships a
// WebAssembly provider for them.
//
// A plugin sees exactly three directories: the package sources read-only
// at /pkg, a scratch directory at /tmp and the install staging root at
// /stage. [Layout] describes that mapping and translates guest paths back
// to host paths, refusing anything outside the three mounts. A [Provider]
// runs a plugin module against a Layout; [WazeroProvider] does so with the
// wazero runtime and WASI.
package sandbox
