// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrStore is returned when a registry file cannot be read or written.
	ErrStore = errors.New("registry store error")
	// ErrNotFound is returned when a name is not registered.
	ErrNotFound = errors.New("not registered")
	// ErrExists is returned when adding a name that is already registered.
	ErrExists = errors.New("already registered")
	// ErrInvalidEntry is returned for a name or value that cannot be registered.
	ErrInvalidEntry = errors.New("invalid registry entry")
)

type (
	// StoreError wraps a failure to read or write a registry file.
	StoreError struct {
		Path  string
		Op    string
		Cause error
	}

	// EntryError names the registry entry an operation failed on.
	EntryError struct {
		Registry string
		Name     string
		Kind     error
		Cause    error
	}
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns ErrStore and the cause.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Cause}
}

// Error implements the error interface.
func (e *EntryError) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Registry, e.Name, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the classification sentinel and, when present, the cause.
func (e *EntryError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
