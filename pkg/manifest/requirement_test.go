// SPDX-License-Identifier: MPL-2.0

package manifest_test

import (
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/pax-hub/paxy/pkg/manifest"
)

func TestParseRequirement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		kind    manifest.RequirementKind
		str     string
		wantErr bool
	}{
		{input: "", kind: manifest.RequirementAny, str: "*"},
		{input: "*", kind: manifest.RequirementAny, str: "*"},
		{input: "1.2.0", kind: manifest.RequirementExact, str: "1.2.0"},
		{input: "1.2.0+linux", kind: manifest.RequirementExact, str: "1.2.0+linux"},
		{input: "^1.2", kind: manifest.RequirementRange, str: "^1.2"},
		{input: ">=1.0, <2.0", kind: manifest.RequirementRange, str: ">=1.0, <2.0"},
		{input: " ~1.4 || 2.x ", kind: manifest.RequirementRange, str: "~1.4 || 2.x"},
		{input: "^^1", wantErr: true},
		{input: "not a version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			r, err := manifest.ParseRequirement(tt.input)
			if tt.wantErr {
				var ire *manifest.InvalidRequirementError
				if !errors.As(err, &ire) || !errors.Is(err, manifest.ErrInvalidRequirement) {
					t.Fatalf("expected InvalidRequirementError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", r.Kind(), tt.kind)
			}
			if r.String() != tt.str {
				t.Errorf("String() = %q, want %q", r.String(), tt.str)
			}
		})
	}
}

func TestRequirement_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{req: "^1.2.0", version: "1.2.5", want: true},
		{req: "^1.2.0", version: "2.0.0", want: false},
		{req: "^1.2.0", version: "1.1.0", want: false},
		{req: "^1.2.0", version: "1.3.0-beta.1", want: false},
		{req: ">=1.3.0-0", version: "1.3.0-beta.1", want: true},
		{req: ">=1.0, <2.0", version: "1.9.9", want: true},
		{req: ">=1.0, <2.0", version: "2.0.0", want: false},
		{req: "1.2.0", version: "1.2.0", want: true},
		{req: "1.2.0", version: "1.2.0+build", want: false},
		{req: "1.2.0+build", version: "1.2.0+build", want: true},
		{req: "1.2.0-rc.1", version: "1.2.0-rc.1", want: true},
		{req: "1.2.0", version: "1.2.1", want: false},
		{req: "", version: "0.0.1", want: true},
		{req: "", version: "1.0.0-alpha", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.req+"/"+tt.version, func(t *testing.T) {
			t.Parallel()

			r := manifest.MustParseRequirement(tt.req)
			if got := r.Matches(semver.MustParse(tt.version)); got != tt.want {
				t.Errorf("%q.Matches(%q) = %v, want %v", tt.req, tt.version, got, tt.want)
			}
		})
	}

	if manifest.MustParseRequirement("^1").Matches(nil) {
		t.Error("nil version must not match")
	}
}

func TestExactRequirement(t *testing.T) {
	t.Parallel()

	v := semver.MustParse("3.1.4")
	r := manifest.ExactRequirement(v)
	if r.Kind() != manifest.RequirementExact || !r.Matches(v) || r.String() != "3.1.4" {
		t.Errorf("ExactRequirement(%s) = %v", v, r)
	}
	if !r.Equal(manifest.MustParseRequirement("3.1.4")) {
		t.Error("equal requirements should compare equal")
	}
}
