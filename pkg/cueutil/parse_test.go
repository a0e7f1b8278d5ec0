// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name:         string & !=""
	depth:        int & >=1 & <=5
	enabled:      bool
	description?: string
	tags?: [...string]
}
`

type testSettings struct {
	Name        string   `json:"name"`
	Depth       int      `json:"depth"`
	Enabled     bool     `json:"enabled"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid source decodes", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "paxy"
depth: 3
enabled: true
description: "settings"
`)
		result, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings")
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		if result.Value.Name != "paxy" || result.Value.Depth != 3 || !result.Value.Enabled {
			t.Errorf("unexpected value %+v", *result.Value)
		}
		if !result.Unified.Exists() {
			t.Error("Unified value should exist")
		}
	})

	t.Run("syntax error names the file", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`name: "x`), "#Settings", WithFilename("config.cue"))
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "config.cue") {
			t.Errorf("error should mention filename, got: %v", err)
		}
	})

	t.Run("constraint violation is a SchemaError", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "paxy"
depth: 9
enabled: true
`)
		_, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings")
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("expected *SchemaError, got %T: %v", err, err)
		}
		if !strings.Contains(err.Error(), "depth") {
			t.Errorf("error should mention the field, got: %v", err)
		}
	})

	t.Run("unknown field rejected by closed definition", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "paxy"
depth: 1
enabled: false
extra: 1
`)
		if _, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings"); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("missing required field in concrete mode", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`name: "paxy"`), "#Settings"); err == nil {
			t.Fatal("expected incomplete-value error in concrete mode")
		}
	})

	t.Run("optional-only schema accepts partial input when not concrete", func(t *testing.T) {
		t.Parallel()

		schema := []byte(`#Partial: {name?: string, depth?: int}`)
		result, err := ParseAndDecode[map[string]any](schema, []byte(`name: "paxy"`), "#Partial", WithConcrete(false))
		if err != nil {
			t.Fatalf("non-concrete parse failed: %v", err)
		}
		if (*result.Value)["name"] != "paxy" {
			t.Errorf("unexpected value %v", *result.Value)
		}
	})

	t.Run("file size limit", func(t *testing.T) {
		t.Parallel()

		data := []byte(`name: "` + strings.Repeat("a", 64) + `"`)
		_, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings", WithMaxFileSize(16))
		if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
			t.Fatalf("expected size error, got %v", err)
		}
	})
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	t.Run("decoded document validates", func(t *testing.T) {
		t.Parallel()

		doc := map[string]any{
			"name":    "paxy",
			"depth":   int64(2),
			"enabled": true,
			"tags":    []any{"a", "b"},
		}
		result, err := DecodeValue[testSettings]([]byte(testSchema), doc, "#Settings")
		if err != nil {
			t.Fatalf("DecodeValue failed: %v", err)
		}
		if len(result.Value.Tags) != 2 || result.Value.Depth != 2 {
			t.Errorf("unexpected value %+v", *result.Value)
		}
	})

	t.Run("type mismatch reports JSON path", func(t *testing.T) {
		t.Parallel()

		doc := map[string]any{
			"name":    "paxy",
			"depth":   int64(2),
			"enabled": true,
			"tags":    []any{"a", int64(3)},
		}
		_, err := DecodeValue[testSettings]([]byte(testSchema), doc, "#Settings", WithFilename("manifest.yaml"))
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("expected *SchemaError, got %T: %v", err, err)
		}
		if se.File != "manifest.yaml" {
			t.Errorf("File = %q", se.File)
		}
		if !strings.Contains(err.Error(), "tags[1]") {
			t.Errorf("expected JSON path tags[1], got: %v", err)
		}
	})

	t.Run("missing definition is an internal error", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeValue[testSettings]([]byte(testSchema), map[string]any{}, "#Missing")
		if err == nil || !strings.Contains(err.Error(), "internal error") {
			t.Fatalf("expected internal error, got %v", err)
		}
	})
}
