// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonPortableName is returned when a name cannot be used as a directory
// name on every supported operating system.
var ErrNonPortableName = errors.New("name is not portable")

// reservedNames are device names Windows refuses as file or directory names,
// with or without an extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

type (
	// NonPortableNameError describes why a name was rejected.
	NonPortableNameError struct {
		Name   string
		Reason string
	}
)

// Error implements the error interface.
func (e *NonPortableNameError) Error() string {
	return fmt.Sprintf("%q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrNonPortableName for errors.Is() compatibility.
func (e *NonPortableNameError) Unwrap() error { return ErrNonPortableName }

// IsReservedName reports whether name is a Windows device name. The check
// is case-insensitive and ignores anything after the first dot, so
// "nul.txt" is reserved too.
func IsReservedName(name string) bool {
	base, _, _ := strings.Cut(name, ".")
	_, ok := reservedNames[strings.ToUpper(base)]
	return ok
}

// ValidatePortableName rejects names that would fail or behave differently
// as a directory name on Windows, macOS or Linux.
func ValidatePortableName(name string) error {
	switch {
	case name == "":
		return &NonPortableNameError{Name: name, Reason: "empty"}
	case name == "." || name == "..":
		return &NonPortableNameError{Name: name, Reason: "relative path element"}
	case IsReservedName(name):
		return &NonPortableNameError{Name: name, Reason: "reserved device name on Windows"}
	case strings.HasSuffix(name, ".") || strings.HasSuffix(name, " "):
		return &NonPortableNameError{Name: name, Reason: "trailing dot or space"}
	}
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return &NonPortableNameError{Name: name, Reason: fmt.Sprintf("contains %q", r)}
		}
	}
	return nil
}
