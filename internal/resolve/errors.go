// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/pax-hub/paxy/pkg/manifest"
)

var (
	// ErrFlavorNotFound is returned when a flavor path does not end at a versioned package.
	ErrFlavorNotFound = errors.New("flavor not found")
	// ErrNoMatchingVersion is returned when no version satisfies a requirement.
	ErrNoMatchingVersion = errors.New("no matching version")
	// ErrPackageNotFound is returned when a dependency names a package missing from the index.
	ErrPackageNotFound = errors.New("package not found")
	// ErrCyclicDependency is returned when a dependency chain revisits a package flavor.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrDependencyResolution is returned when a transitive dependency cannot be resolved.
	ErrDependencyResolution = errors.New("dependency resolution failed")
)

type (
	// FlavorNotFoundError names the package and the flavor path that failed.
	FlavorNotFoundError struct {
		Package    string
		FlavorPath []string
		// Reason says which segment was missing or why the final node is unusable.
		Reason string
	}

	// NoMatchingVersionError lists what was available when selection failed.
	NoMatchingVersionError struct {
		Package     string
		FlavorPath  []string
		Requirement manifest.Requirement
		Available   []*semver.Version
	}

	// PackageNotFoundError is returned for a dependency on an unknown package.
	PackageNotFoundError struct {
		Package string
	}

	// CyclicDependencyError holds the chain from the first occurrence of the
	// repeated pair to its second occurrence.
	CyclicDependencyError struct {
		Chain []Ref
	}

	// DependencyResolutionError is a failure below the requested package.
	// Chain runs from the requested package to the dependency that failed.
	DependencyResolutionError struct {
		Chain []Ref
		Cause error
	}
)

// Error implements the error interface.
func (e *FlavorNotFoundError) Error() string {
	msg := fmt.Sprintf("flavor %q of package %s not found", strings.Join(e.FlavorPath, "/"), displayName(e.Package))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap returns ErrFlavorNotFound for errors.Is() compatibility.
func (e *FlavorNotFoundError) Unwrap() error { return ErrFlavorNotFound }

// Error implements the error interface.
func (e *NoMatchingVersionError) Error() string {
	avail := make([]string, len(e.Available))
	for i, v := range e.Available {
		avail[i] = v.Original()
	}
	return fmt.Sprintf("no version of %s matches %s (available: %s)",
		Ref{Package: e.Package, Flavor: strings.Join(e.FlavorPath, "/")}, e.Requirement, strings.Join(avail, ", "))
}

// Unwrap returns ErrNoMatchingVersion for errors.Is() compatibility.
func (e *NoMatchingVersionError) Unwrap() error { return ErrNoMatchingVersion }

// Error implements the error interface.
func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %s not found in any repository", displayName(e.Package))
}

// Unwrap returns ErrPackageNotFound for errors.Is() compatibility.
func (e *PackageNotFoundError) Unwrap() error { return ErrPackageNotFound }

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + chainString(e.Chain)
}

// Unwrap returns ErrCyclicDependency for errors.Is() compatibility.
func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// Error implements the error interface.
func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", chainString(e.Chain), e.Cause)
}

// Unwrap returns ErrDependencyResolution and the cause.
func (e *DependencyResolutionError) Unwrap() []error {
	return []error{ErrDependencyResolution, e.Cause}
}

func chainString(chain []Ref) string {
	parts := make([]string, len(chain))
	for i, r := range chain {
		parts[i] = r.String()
	}
	return strings.Join(parts, " -> ")
}

func displayName(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}
