// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileStem is the base name every manifest file carries before its extension.
const FileStem = "manifest"

// Manifest formats. The zero Format is invalid.
const (
	FormatYAML Format = iota + 1
	FormatJSON
	FormatTOML
	FormatRON
)

type (
	// Format is one of the closed set of manifest serializations.
	Format int

	// codec is the per-format decode/encode capability. Decode yields a
	// generic document built from map[string]any, []any and scalars.
	codec struct {
		name       string
		extensions []string
		decode     func([]byte) (any, error)
		encode     func(map[string]any) ([]byte, error)
	}
)

// codecs holds one entry per Format. Adding a format means adding a constant
// and an entry here.
var codecs = map[Format]codec{
	FormatYAML: {name: "yaml", extensions: []string{"yaml", "yml"}, decode: decodeYAML, encode: encodeYAML},
	FormatJSON: {name: "json", extensions: []string{"json"}, decode: decodeJSON, encode: encodeJSON},
	FormatTOML: {name: "toml", extensions: []string{"toml"}, decode: decodeTOML, encode: encodeTOML},
	FormatRON:  {name: "ron", extensions: []string{"ron"}, decode: decodeRON, encode: encodeRON},
}

// Formats returns every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatYAML, FormatJSON, FormatTOML, FormatRON}
}

// String returns the lower-case format name.
func (f Format) String() string {
	if c, ok := codecs[f]; ok {
		return c.name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extensions returns the file extensions (without dot) mapped to f.
func (f Format) Extensions() []string {
	return append([]string(nil), codecs[f].extensions...)
}

// FileName returns the canonical manifest file name for f.
func (f Format) FileName() string {
	c, ok := codecs[f]
	if !ok {
		return ""
	}
	return FileStem + "." + c.extensions[0]
}

// IsValid returns whether f is a supported format.
func (f Format) IsValid() (bool, []error) {
	if _, ok := codecs[f]; !ok {
		return false, []error{fmt.Errorf("unknown manifest format %d", int(f))}
	}
	return true, nil
}

// FormatFromExtension maps a file extension, with or without the leading
// dot and in any letter case, to its Format.
func FormatFromExtension(ext string) (Format, error) {
	norm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, f := range Formats() {
		for _, e := range codecs[f].extensions {
			if e == norm {
				return f, nil
			}
		}
	}
	return 0, &UnsupportedExtensionError{Extension: ext}
}

// FormatFromPath maps a manifest file path to its Format by extension.
func FormatFromPath(path string) (Format, error) {
	return FormatFromExtension(filepath.Ext(path))
}

// IsManifestFile reports whether a file name (not a path) is a manifest:
// stem "manifest" and a supported extension.
func IsManifestFile(name string) bool {
	ext := filepath.Ext(name)
	if strings.TrimSuffix(name, ext) != FileStem {
		return false
	}
	_, err := FormatFromExtension(ext)
	return err == nil
}

func supportedExtensions() string {
	var exts []string
	for _, f := range Formats() {
		exts = append(exts, codecs[f].extensions...)
	}
	return strings.Join(exts, ", ")
}

func decodeYAML(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func encodeYAML(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeJSON(data []byte) (any, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return doc, nil
}

func encodeJSON(doc map[string]any) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func decodeTOML(data []byte) (any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func encodeTOML(doc map[string]any) ([]byte, error) {
	return toml.Marshal(doc)
}

func decodeRON(data []byte) (any, error) {
	return parseRON(data)
}

func encodeRON(doc map[string]any) ([]byte, error) {
	return marshalRON(doc)
}
