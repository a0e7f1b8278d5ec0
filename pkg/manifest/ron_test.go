// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRON_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  any
	}{
		{name: "string", input: `"a\tb\u{41}\x42"`, want: "a\tbAB"},
		{name: "raw string", input: `r##"x "# y"##`, want: `x "# y`},
		{name: "char", input: `'z'`, want: "z"},
		{name: "integer", input: `1_000`, want: int64(1000)},
		{name: "negative integer", input: `-42`, want: int64(-42)},
		{name: "hex integer", input: `0xff`, want: int64(255)},
		{name: "float", input: `1.5e3`, want: 1500.0},
		{name: "negative exponent", input: `2e-1`, want: 0.2},
		{name: "bools", input: `[true, false]`, want: []any{true, false}},
		{name: "empty list", input: `[]`, want: []any{}},
		{name: "trailing comma", input: `[1, 2,]`, want: []any{int64(1), int64(2)}},
		{name: "tuple", input: `(1, "a")`, want: []any{int64(1), "a"}},
		{name: "unit", input: `()`, want: nil},
		{name: "option some", input: `Some(3)`, want: int64(3)},
		{name: "option none", input: `None`, want: nil},
		{name: "anonymous struct", input: `(a: 1, b: "x")`, want: map[string]any{"a": int64(1), "b": "x"}},
		{name: "map", input: `{"k": 1, 2: "two"}`, want: map[string]any{"k": int64(1), "2": "two"}},
		{name: "named struct", input: `Point(x: 1)`, want: ronTagged{Name: "Point", Value: map[string]any{"x": int64(1)}}},
		{name: "newtype variant", input: `Wrap("v")`, want: ronTagged{Name: "Wrap", Value: "v"}},
		{name: "unit variant", input: `Nothing`, want: ronTagged{Name: "Nothing"}},
		{
			name: "comments and attributes",
			input: `#![enable(implicit_some)]
			/* outer /* nested */ comment */
			( // trailing
				a: [1], // list
			)`,
			want: map[string]any{"a": []any{int64(1)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseRON([]byte(tt.input))
			if err != nil {
				t.Fatalf("parseRON(%q) error = %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseRON(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseRON_Infinity(t *testing.T) {
	t.Parallel()

	got, err := parseRON([]byte(`[inf, -inf]`))
	if err != nil {
		t.Fatal(err)
	}
	list := got.([]any)
	if !math.IsInf(list[0].(float64), 1) || !math.IsInf(list[1].(float64), -1) {
		t.Errorf("got %v", list)
	}
}

func TestParseRON_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "unterminated string", input: `"abc`, line: 1},
		{name: "missing close", input: "(\n  a: 1\n", line: 3},
		{name: "missing comma", input: "[1\n 2]", line: 2},
		{name: "trailing data", input: `1 2`, line: 1},
		{name: "duplicate field", input: `(a: 1, a: 2)`, line: 1},
		{name: "bad escape", input: `"\q"`, line: 1},
		{name: "unterminated comment", input: "/* open", line: 1},
		{name: "empty input", input: "", line: 1},
		{name: "nesting too deep", input: strings.Repeat("[", maxRONDepth+1), line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseRON([]byte(tt.input))
			var se *RONSyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *RONSyntaxError, got %v", err)
			}
			if se.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", se.Line, tt.line, err)
			}
		})
	}
}

func TestParseRON_NestingLimit(t *testing.T) {
	t.Parallel()

	ok := strings.Repeat("[", maxRONDepth) + strings.Repeat("]", maxRONDepth)
	if _, err := parseRON([]byte(ok)); err != nil {
		t.Errorf("parseRON() at the nesting limit error = %v", err)
	}

	deep := "(versions: " + strings.Repeat("[", 5<<20-20) + ")"
	_, err := Parse([]byte(deep), FormatRON)
	if !errors.Is(err, ErrMalformedManifest) {
		t.Fatalf("Parse() error = %v, want ErrMalformedManifest", err)
	}
	var se *RONSyntaxError
	if !errors.As(err, &se) || !strings.Contains(se.Msg, "nesting") {
		t.Errorf("Parse() error = %v, want a nesting RONSyntaxError", err)
	}
}

func TestMarshalRON_RoundTrip(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"name":  "foo",
		"quote": "a \"b\"\n\\c",
		"list":  []any{int64(1), 2.5, true},
		"steps": []any{
			map[string]any{"clone": map[string]any{"repository": "https://example.com/r.git"}},
			map[string]any{"fetch_archive": map[string]any{}},
		},
		"odd keys": map[string]any{"with space": "v"},
	}
	out, err := marshalRON(doc)
	if err != nil {
		t.Fatalf("marshalRON() error = %v", err)
	}
	raw, err := parseRON(out)
	if err != nil {
		t.Fatalf("parseRON() error = %v\n%s", err, out)
	}
	if diff := cmp.Diff(doc, normalize(raw, "")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\n%s", diff, out)
	}
}

func TestCaseConversion(t *testing.T) {
	t.Parallel()

	for snake, pascal := range map[string]string{"clone": "Clone", "fetch_archive": "FetchArchive"} {
		if got := pascalCase(snake); got != pascal {
			t.Errorf("pascalCase(%q) = %q", snake, got)
		}
		if got := snakeCase(pascal); got != snake {
			t.Errorf("snakeCase(%q) = %q", pascal, got)
		}
	}
}
