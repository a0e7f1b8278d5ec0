// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"

	"github.com/pax-hub/paxy/pkg/manifest"
)

var (
	// ErrPluginLoad is returned when a build step's plugin cannot be obtained or loaded.
	ErrPluginLoad = errors.New("plugin load failed")
	// ErrPluginInvocation is returned when a plugin traps or reports failure.
	ErrPluginInvocation = errors.New("plugin invocation failed")
	// ErrMalformedInstallInstruction is returned for an install string with an empty statement.
	ErrMalformedInstallInstruction = errors.New("malformed install instruction")
	// ErrHostCommand is returned when an install statement fails to spawn or exits non-zero.
	ErrHostCommand = errors.New("install command failed")
)

type (
	// PluginLoadError names the build step kind whose plugin is unusable.
	PluginLoadError struct {
		Kind  manifest.BuildStepKind
		Cause error
	}

	// PluginInvocationError describes a plugin that ran and failed. ExitCode
	// is -1 for a trap. Message holds what the plugin wrote to its output.
	PluginInvocationError struct {
		Kind     manifest.BuildStepKind
		ExitCode int
		Message  string
		Cause    error
	}

	// MalformedInstallInstructionError points at the offending statement;
	// Index counts statements from zero.
	MalformedInstallInstructionError struct {
		Statement string
		Index     int
	}

	// HostCommandError describes a failed install statement. ExitCode is -1
	// when the process could not be started.
	HostCommandError struct {
		Statement string
		ExitCode  int
		Stderr    string
		Cause     error
	}
)

// Error implements the error interface.
func (e *PluginLoadError) Error() string {
	return fmt.Sprintf("load plugin for build step %q: %v", e.Kind, e.Cause)
}

// Unwrap returns ErrPluginLoad and the cause.
func (e *PluginLoadError) Unwrap() []error {
	return []error{ErrPluginLoad, e.Cause}
}

// Error implements the error interface.
func (e *PluginInvocationError) Error() string {
	msg := fmt.Sprintf("plugin for build step %q failed", e.Kind)
	switch {
	case e.Cause != nil:
		msg += ": " + e.Cause.Error()
	default:
		msg += fmt.Sprintf(" with code %d", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns ErrPluginInvocation and, for traps, the cause.
func (e *PluginInvocationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPluginInvocation}
	}
	return []error{ErrPluginInvocation, e.Cause}
}

// Error implements the error interface.
func (e *MalformedInstallInstructionError) Error() string {
	return fmt.Sprintf("install statement %d is empty: %q", e.Index+1, e.Statement)
}

// Unwrap returns ErrMalformedInstallInstruction for errors.Is() compatibility.
func (e *MalformedInstallInstructionError) Unwrap() error { return ErrMalformedInstallInstruction }

// Error implements the error interface.
func (e *HostCommandError) Error() string {
	msg := fmt.Sprintf("install statement %q", e.Statement)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" exited with code %d", e.ExitCode)
	} else {
		msg += " could not run"
	}
	if e.Cause != nil && e.ExitCode < 0 {
		msg += ": " + e.Cause.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns ErrHostCommand and the cause.
func (e *HostCommandError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrHostCommand}
	}
	return []error{ErrHostCommand, e.Cause}
}
