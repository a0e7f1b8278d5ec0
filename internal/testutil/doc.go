// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers that fail the test on error, reducing
// boilerplate in package tests.
//
// Helpers cover environment variables (MustSetenv, SetHomeDir), file trees
// (MustMkdirAll, MustWriteFile, MustSymlink, WriteTree) and hand-assembled
// WebAssembly plugin modules for executor tests (WasmStatus, WasmTrap,
// WasmProcExit, WasmStderr, WasmWithoutProcess).
package testutil
