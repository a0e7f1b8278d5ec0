// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"

	// CodeEntryUnreadable means a directory or entry below the root could not be read.
	CodeEntryUnreadable DiagnosticCode = "entry_unreadable"
	// CodeSymlinkBroken means a symbolic link points at nothing.
	CodeSymlinkBroken DiagnosticCode = "symlink_broken"
	// CodeSymlinkLoop means a symbolic link points back at a directory being walked.
	CodeSymlinkLoop DiagnosticCode = "symlink_loop"
)

var (
	// ErrInvalidSeverity is returned when a Severity value is not recognized.
	ErrInvalidSeverity = errors.New("invalid severity")
	// ErrInvalidDiagnosticCode is returned when a DiagnosticCode value is not recognized.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// Diagnostic is a skipped entry reported to the caller instead of being
	// written anywhere, so rendering stays a CLI decision.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier.
		Code DiagnosticCode
		// Message is the human-readable description.
		Message string
		// Path is the file system entry the diagnostic is about.
		Path string
		// Cause is the underlying error, if any.
		Cause error
	}
)

// IsValid returns whether the Severity is one of the defined levels.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidSeverity, string(s))}
	}
}

// IsValid returns whether the DiagnosticCode is one of the defined codes.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeEntryUnreadable, CodeSymlinkBroken, CodeSymlinkLoop:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidDiagnosticCode, string(c))}
	}
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
	if d.Path != "" {
		s += ": " + d.Path
	}
	if d.Cause != nil {
		s += ": " + d.Cause.Error()
	}
	return s
}
