// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// DefaultEntrypoint is the export every plugin provides.
const DefaultEntrypoint = "process"

var (
	// ErrInvalidModule is returned when the plugin bytes are not a usable module.
	ErrInvalidModule = errors.New("invalid plugin module")
	// ErrNoEntrypoint is returned when the module lacks a callable entrypoint.
	ErrNoEntrypoint = errors.New("plugin entrypoint missing")
	// ErrTrap is returned when the plugin aborts with a runtime trap.
	ErrTrap = errors.New("plugin trapped")
)

type (
	// Provider runs a plugin module confined to a Layout.
	//
	// Run reports load problems as errors wrapping ErrInvalidModule or
	// ErrNoEntrypoint, and a trap as an error wrapping ErrTrap. A plugin
	// that returns or exits normally yields a Result, whatever its status.
	Provider interface {
		Run(ctx context.Context, inv Invocation) (*Result, error)
	}

	// Invocation describes one plugin call.
	Invocation struct {
		// Name labels the module instance in logs and errors.
		Name string
		// Module holds the WebAssembly binary.
		Module []byte
		// Entrypoint is the exported function to call; DefaultEntrypoint when empty.
		Entrypoint string
		// Env is the guest environment.
		Env map[string]string
		// Layout is the host directory mapping.
		Layout Layout
		// Stdout and Stderr receive the guest output; discarded when nil.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is how a plugin finished. Exited is set when the plugin called
	// proc_exit; otherwise Status holds the entrypoint's return value, or 0
	// for an entrypoint without results.
	Result struct {
		Status   int32
		Exited   bool
		ExitCode uint32
	}

	// ModuleError wraps a load-class failure with the module name.
	ModuleError struct {
		Name  string
		Kind  error
		Cause error
	}
)

// Error implements the error interface.
func (e *ModuleError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("plugin %s: %v", e.Name, e.Kind)
	}
	return fmt.Sprintf("plugin %s: %v: %v", e.Name, e.Kind, e.Cause)
}

// Unwrap returns the classification sentinel and the cause.
func (e *ModuleError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Succeeded reports whether the plugin signalled success.
func (r *Result) Succeeded() bool {
	if r.Exited {
		return r.ExitCode == 0
	}
	return r.Status == 0
}

// Code returns the exit code or status as one number for reporting.
func (r *Result) Code() int {
	if r.Exited {
		return int(r.ExitCode)
	}
	return int(r.Status)
}

func (inv Invocation) entrypoint() string {
	if inv.Entrypoint == "" {
		return DefaultEntrypoint
	}
	return inv.Entrypoint
}

// sortedEnv returns the environment keys in a stable order.
func (inv Invocation) sortedEnv() []string {
	return slices.Sorted(maps.Keys(inv.Env))
}
