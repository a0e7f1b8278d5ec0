// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// RequirementAny and its siblings classify a Requirement.
const (
	RequirementAny RequirementKind = iota
	RequirementExact
	RequirementRange
)

// ErrInvalidRequirement is the sentinel error wrapped by InvalidRequirementError.
var ErrInvalidRequirement = errors.New("invalid version requirement")

type (
	// RequirementKind tells how a Requirement matches versions.
	RequirementKind int

	// Requirement selects acceptable versions. The zero value accepts any
	// release version.
	Requirement struct {
		raw         string
		exact       *semver.Version
		constraints *semver.Constraints
	}

	// InvalidRequirementError is returned when a requirement string is neither
	// a strict semantic version nor a valid range expression.
	InvalidRequirementError struct {
		Value string
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("invalid version requirement %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidRequirement and the parse failure.
func (e *InvalidRequirementError) Unwrap() []error {
	return []error{ErrInvalidRequirement, e.Cause}
}

// ParseRequirement parses a requirement string. A strict semantic version
// ("1.2.0") is an exact requirement; anything else must be a range
// expression ("^1.2", ">=1.0, <2.0", "~1.4 || 2.x"). The empty string and
// "*" accept any release version.
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Requirement{}, nil
	}
	if v, err := semver.StrictNewVersion(s); err == nil {
		return Requirement{raw: s, exact: v}, nil
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return Requirement{}, &InvalidRequirementError{Value: s, Cause: err}
	}
	return Requirement{raw: s, constraints: c}, nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
// It is intended for tests and static tables.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// ExactRequirement returns a requirement matching exactly v.
func ExactRequirement(v *semver.Version) Requirement {
	return Requirement{raw: v.Original(), exact: v}
}

// Kind returns how the requirement matches.
func (r Requirement) Kind() RequirementKind {
	switch {
	case r.exact != nil:
		return RequirementExact
	case r.constraints != nil:
		return RequirementRange
	default:
		return RequirementAny
	}
}

// IsAny reports whether the requirement accepts any release version.
func (r Requirement) IsAny() bool { return r.Kind() == RequirementAny }

// Matches reports whether v satisfies the requirement.
//
// Exact requirements need equal precedence and equal build metadata. Ranges
// exclude pre-releases unless the range itself names a pre-release. The
// any-requirement excludes pre-releases.
func (r Requirement) Matches(v *semver.Version) bool {
	if v == nil {
		return false
	}
	switch r.Kind() {
	case RequirementExact:
		return sameVersion(r.exact, v)
	case RequirementRange:
		return r.constraints.Check(v)
	default:
		return v.Prerelease() == ""
	}
}

// String returns the requirement as written, or "*" for any.
func (r Requirement) String() string {
	if r.raw == "" {
		return "*"
	}
	return r.raw
}

// Equal reports whether both requirements were written identically.
func (r Requirement) Equal(o Requirement) bool { return r.raw == o.raw }

// MarshalText implements encoding.TextMarshaler.
func (r Requirement) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func sameVersion(a, b *semver.Version) bool {
	return a.Major() == b.Major() &&
		a.Minor() == b.Minor() &&
		a.Patch() == b.Patch() &&
		a.Prerelease() == b.Prerelease() &&
		a.Metadata() == b.Metadata()
}
