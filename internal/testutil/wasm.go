// SPDX-License-Identifier: MPL-2.0

package testutil

import "encoding/binary"

// WebAssembly binary encoding constants used by the module builders.
const (
	wasmSectionType     = 0x01
	wasmSectionImport   = 0x02
	wasmSectionFunction = 0x03
	wasmSectionMemory   = 0x05
	wasmSectionGlobal   = 0x06
	wasmSectionExport   = 0x07
	wasmSectionCode     = 0x0a
	wasmSectionData     = 0x0b

	wasmFuncType   = 0x60
	wasmI32        = 0x7f
	wasmI64        = 0x7e
	wasmKindFunc   = 0x00
	wasmKindMemory = 0x02

	opUnreachable = 0x00
	opCall        = 0x10
	opDrop        = 0x1a
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Const    = 0x41
	opI64Const    = 0x42
	opEnd         = 0x0b

	wasiModule = "wasi_snapshot_preview1"
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// WasmStatus returns a module whose process() returns status.
func WasmStatus(status int32) []byte {
	return module(
		section(wasmSectionType, vec(funcType(nil, []byte{wasmI32}))),
		section(wasmSectionFunction, vec([]byte{0x00})),
		section(wasmSectionExport, vec(export("process", wasmKindFunc, 0))),
		section(wasmSectionCode, vec(body(i32Const(status)))),
	)
}

// WasmTrap returns a module whose process() executes unreachable.
func WasmTrap() []byte {
	return module(
		section(wasmSectionType, vec(funcType(nil, []byte{wasmI32}))),
		section(wasmSectionFunction, vec([]byte{0x00})),
		section(wasmSectionExport, vec(export("process", wasmKindFunc, 0))),
		section(wasmSectionCode, vec(body([]byte{opUnreachable}))),
	)
}

// WasmWithoutProcess returns a valid module that exports "run" instead of
// process.
func WasmWithoutProcess() []byte {
	return module(
		section(wasmSectionType, vec(funcType(nil, []byte{wasmI32}))),
		section(wasmSectionFunction, vec([]byte{0x00})),
		section(wasmSectionExport, vec(export("run", wasmKindFunc, 0))),
		section(wasmSectionCode, vec(body(i32Const(0)))),
	)
}

// WasmProcExit returns a module whose process() calls WASI proc_exit(code).
func WasmProcExit(code int32) []byte {
	code0 := append(i32Const(code), opCall, 0x00)
	return module(
		section(wasmSectionType, vec(
			funcType([]byte{wasmI32}, nil),
			funcType(nil, nil),
		)),
		section(wasmSectionImport, vec(importFunc(wasiModule, "proc_exit", 0))),
		section(wasmSectionFunction, vec([]byte{0x01})),
		section(wasmSectionExport, vec(export("process", wasmKindFunc, 1))),
		section(wasmSectionCode, vec(body(code0))),
	)
}

// WasmStderr returns a module whose process() writes msg to stderr through
// WASI fd_write and then returns status.
func WasmStderr(msg string, status int32) []byte {
	// Memory layout: iovec {buf=16, len} at 0, nwritten at 8, msg at 16.
	data := make([]byte, 16, 16+len(msg))
	data[0] = 16
	binary.LittleEndian.PutUint32(data[4:8], uint32(len(msg)))
	data = append(data, msg...)

	var code []byte
	code = append(code, i32Const(2)...)
	code = append(code, i32Const(0)...)
	code = append(code, i32Const(1)...)
	code = append(code, i32Const(8)...)
	code = append(code, opCall, 0x00, opDrop)
	code = append(code, i32Const(status)...)

	return module(
		section(wasmSectionType, vec(
			funcType([]byte{wasmI32, wasmI32, wasmI32, wasmI32}, []byte{wasmI32}),
			funcType(nil, []byte{wasmI32}),
		)),
		section(wasmSectionImport, vec(importFunc(wasiModule, "fd_write", 0))),
		section(wasmSectionFunction, vec([]byte{0x01})),
		section(wasmSectionMemory, vec([]byte{0x00, 0x01})),
		section(wasmSectionExport, vec(
			export("memory", wasmKindMemory, 0),
			export("process", wasmKindFunc, 1),
		)),
		section(wasmSectionCode, vec(body(code))),
		section(wasmSectionData, vec(cat([]byte{0x00}, i32Const(0), []byte{opEnd}, name(string(data))))),
	)
}

// WasmReactor returns a reactor module whose _initialize export sets a
// global to status. process() returns the global, which is 1 until
// _initialize has run.
func WasmReactor(status int32) []byte {
	initCode := cat(i32Const(status), []byte{opGlobalSet, 0x00})
	return module(
		section(wasmSectionType, vec(
			funcType(nil, nil),
			funcType(nil, []byte{wasmI32}),
		)),
		section(wasmSectionFunction, vec([]byte{0x00}, []byte{0x01})),
		section(wasmSectionGlobal, vec(cat([]byte{wasmI32, 0x01}, i32Const(1), []byte{opEnd}))),
		section(wasmSectionExport, vec(
			export("_initialize", wasmKindFunc, 0),
			export("process", wasmKindFunc, 1),
		)),
		section(wasmSectionCode, vec(
			body(initCode),
			body([]byte{opGlobalGet, 0x00}),
		)),
	)
}

// WasmOpen returns a module whose process() opens guestPath relative to the
// preopened directory fd, following symbolic links, and returns the WASI
// errno of path_open. Preopens are numbered from 3 in mount order.
func WasmOpen(fd int32, guestPath string) []byte {
	// Memory layout: opened fd at 8, path at 16.
	data := make([]byte, 16, 16+len(guestPath))
	data = append(data, guestPath...)

	var code []byte
	code = append(code, i32Const(fd)...)
	code = append(code, i32Const(1)...) // lookupflags: symlink_follow
	code = append(code, i32Const(16)...)
	code = append(code, i32Const(int32(len(guestPath)))...)
	code = append(code, i32Const(0)...)
	code = append(code, opI64Const, 0x00, opI64Const, 0x00)
	code = append(code, i32Const(0)...)
	code = append(code, i32Const(8)...)
	code = append(code, opCall, 0x00)

	i32 := []byte{wasmI32}
	return module(
		section(wasmSectionType, vec(
			funcType(cat(i32, i32, i32, i32, i32, []byte{wasmI64, wasmI64}, i32, i32), i32),
			funcType(nil, i32),
		)),
		section(wasmSectionImport, vec(importFunc(wasiModule, "path_open", 0))),
		section(wasmSectionFunction, vec([]byte{0x01})),
		section(wasmSectionMemory, vec([]byte{0x00, 0x01})),
		section(wasmSectionExport, vec(
			export("memory", wasmKindMemory, 0),
			export("process", wasmKindFunc, 1),
		)),
		section(wasmSectionCode, vec(body(code))),
		section(wasmSectionData, vec(cat([]byte{0x00}, i32Const(0), []byte{opEnd}, name(string(data))))),
	)
}

func module(sections ...[]byte) []byte {
	return cat(append([][]byte{wasmHeader}, sections...)...)
}

func section(id byte, content []byte) []byte {
	return cat([]byte{id}, uleb(uint32(len(content))), content)
}

// vec encodes a counted vector of already encoded items.
func vec(items ...[]byte) []byte {
	return cat(append([][]byte{uleb(uint32(len(items)))}, items...)...)
}

func funcType(params, results []byte) []byte {
	return cat([]byte{wasmFuncType}, uleb(uint32(len(params))), params, uleb(uint32(len(results))), results)
}

func importFunc(mod, field string, typeIdx byte) []byte {
	return cat(name(mod), name(field), []byte{wasmKindFunc, typeIdx})
}

func export(field string, kind, idx byte) []byte {
	return cat(name(field), []byte{kind, idx})
}

// body encodes a function body without locals.
func body(code []byte) []byte {
	b := cat([]byte{0x00}, code, []byte{opEnd})
	return cat(uleb(uint32(len(b))), b)
}

func name(s string) []byte {
	return cat(uleb(uint32(len(s))), []byte(s))
}

func i32Const(v int32) []byte {
	return append([]byte{opI32Const}, sleb(v)...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func cat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
