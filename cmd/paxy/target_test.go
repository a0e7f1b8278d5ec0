// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pax-hub/paxy/pkg/manifest"
)

func TestParseTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         string
		wantPkg    string
		wantFlavor []string
		wantReq    string
		wantErr    bool
	}{
		{name: "bare name", in: "jq", wantPkg: "jq", wantReq: "*"},
		{name: "flavor", in: "foo[base]", wantPkg: "foo", wantFlavor: []string{"base"}, wantReq: "*"},
		{name: "nested flavor", in: "rust[stable/x86_64]", wantPkg: "rust", wantFlavor: []string{"stable", "x86_64"}, wantReq: "*"},
		{name: "exact requirement", in: "jq@1.7.1", wantPkg: "jq", wantReq: "1.7.1"},
		{name: "flavor and range", in: "foo[base]@^1.2", wantPkg: "foo", wantFlavor: []string{"base"}, wantReq: "^1.2"},
		{name: "empty name", in: "[base]@1.0.0", wantFlavor: []string{"base"}, wantReq: "1.0.0"},
		{name: "empty flavor brackets", in: "foo[]", wantPkg: "foo", wantReq: "*"},
		{name: "surrounding space", in: "  jq  ", wantPkg: "jq", wantReq: "*"},
		{name: "unterminated flavor", in: "foo[base", wantErr: true},
		{name: "empty segment", in: "foo[a//b]", wantErr: true},
		{name: "stray bracket", in: "foo]", wantErr: true},
		{name: "bad requirement", in: "foo@not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseTarget(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseTarget(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTarget(%q) error = %v", tt.in, err)
			}
			if got.Package != tt.wantPkg {
				t.Errorf("Package = %q, want %q", got.Package, tt.wantPkg)
			}
			if diff := cmp.Diff(tt.wantFlavor, got.Flavor); diff != "" {
				t.Errorf("Flavor mismatch (-want +got):\n%s", diff)
			}
			if got.Requirement.String() != tt.wantReq {
				t.Errorf("Requirement = %q, want %q", got.Requirement.String(), tt.wantReq)
			}
		})
	}
}

func TestParseTarget_InvalidRequirementIsTyped(t *testing.T) {
	t.Parallel()

	_, err := parseTarget("foo@bogus")
	if !errors.Is(err, manifest.ErrInvalidRequirement) {
		t.Errorf("error = %v, want ErrInvalidRequirement", err)
	}
}

func TestTargetString(t *testing.T) {
	t.Parallel()

	tg, err := parseTarget("foo[a/b]@^2")
	if err != nil {
		t.Fatal(err)
	}
	if got := tg.String(); got != "foo[a/b]@^2" {
		t.Errorf("String() = %q, want %q", got, "foo[a/b]@^2")
	}
}
