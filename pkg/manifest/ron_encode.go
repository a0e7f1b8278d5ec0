// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// taggedListKeys names the document lists whose single-key map elements are
// written as RON enum variants, e.g. {clone: {...}} as Clone(...).
var taggedListKeys = map[string]bool{"steps": true}

// marshalRON writes a generic document as RON. Maps with identifier keys are
// written as anonymous structs, other maps as RON maps.
func marshalRON(doc map[string]any) ([]byte, error) {
	var sb strings.Builder
	if err := writeRON(&sb, doc, "", 0); err != nil {
		return nil, err
	}
	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

func writeRON(sb *strings.Builder, v any, key string, depth int) error {
	switch x := v.(type) {
	case nil:
		sb.WriteString("None")
	case string:
		writeRONString(sb, x)
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case int:
		sb.WriteString(strconv.Itoa(x))
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case float64:
		writeRONFloat(sb, x)
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return writeRON(sb, items, key, depth)
	case []any:
		return writeRONList(sb, x, key, depth)
	case map[string]any:
		return writeRONStruct(sb, x, depth)
	default:
		return fmt.Errorf("ron: cannot encode %T", v)
	}
	return nil
}

func writeRONList(sb *strings.Builder, items []any, key string, depth int) error {
	if len(items) == 0 {
		sb.WriteString("[]")
		return nil
	}
	sb.WriteString("[\n")
	for _, item := range items {
		indent(sb, depth+1)
		if err := writeRONItem(sb, item, key, depth+1); err != nil {
			return err
		}
		sb.WriteString(",\n")
	}
	indent(sb, depth)
	sb.WriteByte(']')
	return nil
}

func writeRONItem(sb *strings.Builder, item any, key string, depth int) error {
	m, ok := item.(map[string]any)
	if !taggedListKeys[key] || !ok || len(m) != 1 {
		return writeRON(sb, item, "", depth)
	}
	for tag, fields := range m {
		sb.WriteString(pascalCase(tag))
		if fields == nil {
			return nil
		}
		if fm, ok := fields.(map[string]any); ok && len(fm) == 0 {
			return nil
		}
		if _, ok := fields.(map[string]any); ok {
			return writeRON(sb, fields, "", depth)
		}
		sb.WriteByte('(')
		if err := writeRON(sb, fields, "", depth); err != nil {
			return err
		}
		sb.WriteByte(')')
	}
	return nil
}

func writeRONStruct(sb *strings.Builder, m map[string]any, depth int) error {
	keys := slices.Sorted(maps.Keys(m))
	structForm := true
	for _, k := range keys {
		if !isRONIdent(k) {
			structForm = false
			break
		}
	}
	open, closing := "(", ")"
	if !structForm {
		open, closing = "{", "}"
	}
	if len(keys) == 0 {
		sb.WriteString(open + closing)
		return nil
	}
	sb.WriteString(open + "\n")
	for _, k := range keys {
		indent(sb, depth+1)
		if structForm {
			sb.WriteString(k)
		} else {
			writeRONString(sb, k)
		}
		sb.WriteString(": ")
		if err := writeRON(sb, m[k], k, depth+1); err != nil {
			return err
		}
		sb.WriteString(",\n")
	}
	indent(sb, depth)
	sb.WriteString(closing)
	return nil
}

func writeRONString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(sb, `\u{%x}`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}

func writeRONFloat(sb *strings.Builder, f float64) {
	switch {
	case math.IsInf(f, 1):
		sb.WriteString("inf")
	case math.IsInf(f, -1):
		sb.WriteString("-inf")
	case math.IsNaN(f):
		sb.WriteString("NaN")
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		sb.WriteString(s)
	}
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("    ", depth))
}

func isRONIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// pascalCase turns "fetch_archive" into "FetchArchive".
func pascalCase(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// snakeCase turns "FetchArchive" into "fetch_archive".
func snakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
