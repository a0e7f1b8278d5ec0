// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrSchemaViolation is the sentinel error wrapped by SchemaError.
var ErrSchemaViolation = errors.New("schema violation")

type (
	// Issue is one schema violation.
	Issue struct {
		// Path is the JSON path of the offending value (e.g. "versions[0].install").
		Path string
		// Message is the CUE error message without the path prefix.
		Message string
	}

	// SchemaError reports every violation CUE found in one input.
	SchemaError struct {
		File   string
		Issues []Issue
	}
)

// Error implements the error interface.
func (e *SchemaError) Error() string {
	lines := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		lines = append(lines, is.String())
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%s: %s", e.File, lines[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrSchemaViolation for errors.Is compatibility.
func (e *SchemaError) Unwrap() error { return ErrSchemaViolation }

// String returns "path: message", or just the message for root-level issues.
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// FormatError converts a CUE error into a *SchemaError whose issues carry
// JSON paths, e.g. "manifest.yaml: versions[0].install: incomplete value string".
// Errors that do not come from CUE are wrapped with the file name.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	se := &SchemaError{File: filePath}
	for _, e := range cueErrs {
		raw := cueerrors.Path(e)
		path := formatPath(raw)
		msg := e.Error()
		for _, prefix := range []string{path, strings.Join(raw, ".")} {
			if prefix != "" && strings.HasPrefix(msg, prefix+":") {
				msg = strings.TrimSpace(strings.TrimPrefix(msg, prefix+":"))
				break
			}
		}
		se.Issues = append(se.Issues, Issue{Path: path, Message: msg})
	}
	return se
}

// formatPath converts a CUE path such as ["versions", "0", "steps"] into
// JSON-path notation ("versions[0].steps").
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error when data exceeds maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
