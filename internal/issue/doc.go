// SPDX-License-Identifier: MPL-2.0

// Package issue holds paxy's user-facing error layer: ActionableError for
// operation, resource and suggestion context, and a catalogue of Markdown
// explanations keyed by Id that the CLI renders with glamour.
package issue
