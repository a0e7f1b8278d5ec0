// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedExtension is the sentinel error wrapped by UnsupportedExtensionError.
	ErrUnsupportedExtension = errors.New("unsupported manifest extension")
	// ErrMalformedManifest is the sentinel error wrapped by MalformedManifestError.
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrManifestRead is the sentinel error wrapped by ReadError.
	ErrManifestRead = errors.New("manifest read failed")
)

type (
	// UnsupportedExtensionError is returned for a file extension outside the
	// closed set of manifest formats.
	UnsupportedExtensionError struct {
		Extension string
	}

	// MalformedManifestError is returned when manifest content cannot be
	// decoded or does not conform to the manifest schema. Path is empty when
	// the bytes did not come from a file.
	MalformedManifestError struct {
		Path   string
		Format Format
		Cause  error
	}

	// ReadError is returned when a manifest file cannot be read.
	ReadError struct {
		Path  string
		Cause error
	}
)

// Error implements the error interface.
func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("unsupported manifest extension %q (supported: %s)", e.Extension, supportedExtensions())
}

// Unwrap returns ErrUnsupportedExtension for errors.Is compatibility.
func (e *UnsupportedExtensionError) Unwrap() error { return ErrUnsupportedExtension }

// Error implements the error interface.
func (e *MalformedManifestError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed %s manifest: %v", e.Format, e.Cause)
	}
	return fmt.Sprintf("malformed %s manifest %s: %v", e.Format, e.Path, e.Cause)
}

// Unwrap returns ErrMalformedManifest and the underlying cause.
func (e *MalformedManifestError) Unwrap() []error {
	return []error{ErrMalformedManifest, e.Cause}
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read manifest %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrManifestRead and the underlying I/O error.
func (e *ReadError) Unwrap() []error {
	return []error{ErrManifestRead, e.Cause}
}
