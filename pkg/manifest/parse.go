// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pax-hub/paxy/pkg/cueutil"
)

const (
	flavoredDefinition  = "#FlavoredPackage"
	versionedDefinition = "#VersionedPackage"
)

//go:embed manifest_schema.cue
var manifestSchema []byte

// authorPattern matches the "Name <email>" author shorthand.
var authorPattern = regexp.MustCompile(`^\s*(.*?)\s*<([^<>]*)>\s*$`)

// Parse decodes manifest bytes in format f into one tree node. A
// FlavoredPackage returned by Parse has its Declared names set and no
// attached children; the tree builder attaches them.
func Parse(data []byte, f Format) (Node, error) {
	return parse("", data, f)
}

// ParseFile reads and parses the manifest at path, selecting the format
// from the file extension.
func ParseFile(path string) (Node, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Cause: err}
	}
	return parse(path, data, f)
}

func parse(path string, data []byte, f Format) (Node, error) {
	c, ok := codecs[f]
	if !ok {
		return nil, fmt.Errorf("parse manifest: unknown format %d", int(f))
	}
	malformed := func(err error) error {
		return &MalformedManifestError{Path: path, Format: f, Cause: err}
	}
	name := path
	if name == "" {
		name = f.FileName()
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filepath.Base(name)); err != nil {
		return nil, malformed(err)
	}
	raw, err := c.decode(data)
	if err != nil {
		return nil, malformed(err)
	}
	doc, ok := normalize(raw, "").(map[string]any)
	if !ok {
		return nil, malformed(fmt.Errorf("top-level value must be a map, got %T", raw))
	}
	def, err := discriminate(doc)
	if err != nil {
		return nil, malformed(err)
	}
	result, err := cueutil.DecodeValue[document](manifestSchema, doc, def, cueutil.WithFilename(filepath.Base(name)))
	if err != nil {
		return nil, malformed(err)
	}
	node, err := result.Value.toNode()
	if err != nil {
		return nil, malformed(err)
	}
	return node, nil
}

// discriminate selects the schema definition from the presence of the
// "flavors" and "versions" fields. Exactly one must be present.
func discriminate(doc map[string]any) (string, error) {
	_, hasFlavors := doc["flavors"]
	_, hasVersions := doc["versions"]
	switch {
	case hasFlavors && hasVersions:
		return "", errors.New("manifest declares both flavors and versions")
	case hasFlavors:
		return flavoredDefinition, nil
	case hasVersions:
		return versionedDefinition, nil
	default:
		return "", errors.New("manifest declares neither flavors nor versions")
	}
}

// normalize rewrites a decoded document into the shape the schema expects:
// null fields are dropped, map keys become strings, numbers become int64 or
// float64, author shorthand strings become maps, a singular "author" joins
// "authors", and RON enum variants in build step lists become single-key maps.
func normalize(v any, key string) any {
	switch x := v.(type) {
	case map[string]any:
		return normalizeMap(x)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = val
		}
		return normalizeMap(m)
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			out = append(out, normalize(item, key))
		}
		return out
	case ronTagged:
		if taggedListKeys[key] {
			fields := normalize(x.Value, "")
			if fields == nil {
				fields = map[string]any{}
			}
			return map[string]any{snakeCase(x.Name): fields}
		}
		if x.Value == nil {
			return snakeCase(x.Name)
		}
		return normalize(x.Value, key)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case int:
		return int64(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case string:
		if key == "authors" {
			return parseAuthor(x)
		}
		return x
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		if val == nil {
			continue
		}
		nv := normalize(val, k)
		if nv == nil {
			continue
		}
		out[k] = nv
	}
	if single, ok := out["author"]; ok {
		delete(out, "author")
		if s, isString := single.(string); isString {
			single = parseAuthor(s)
		}
		authors, _ := out["authors"].([]any)
		out["authors"] = append([]any{single}, authors...)
	}
	return out
}

func parseAuthor(s string) map[string]any {
	if m := authorPattern.FindStringSubmatch(s); m != nil {
		author := map[string]any{"name": m[1]}
		if email := strings.TrimSpace(m[2]); email != "" {
			author["email"] = email
		}
		return author
	}
	return map[string]any{"name": strings.TrimSpace(s)}
}
