// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscovery is the sentinel for a failed manifest enumeration.
	ErrDiscovery = errors.New("manifest discovery failed")
	// ErrSchema is the sentinel for a tree that violates the package layout rules.
	ErrSchema = errors.New("package tree schema violation")
	// ErrNoRootManifest is also matched by the SchemaError for a root
	// directory that holds no manifest.
	ErrNoRootManifest = errors.New("no root manifest")
)

type (
	// DiscoveryError is a fatal enumeration failure: the root could not be
	// read or the walk was cancelled.
	DiscoveryError struct {
		Root  string
		Cause error
	}

	// SchemaError names the path whose manifest or directory breaks the
	// package layout rules.
	SchemaError struct {
		Path   string
		Reason string
		// NoRoot marks the missing root manifest.
		NoRoot bool
	}
)

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover manifests under %s: %v", e.Root, e.Cause)
}

// Unwrap returns ErrDiscovery and the cause for errors.Is() compatibility.
func (e *DiscoveryError) Unwrap() []error {
	return []error{ErrDiscovery, e.Cause}
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrSchema, and ErrNoRootManifest when NoRoot is set.
func (e *SchemaError) Unwrap() []error {
	if e.NoRoot {
		return []error{ErrSchema, ErrNoRootManifest}
	}
	return []error{ErrSchema}
}
