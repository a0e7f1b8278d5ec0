// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"testing"
)

func TestIsReservedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"CON", true},
		{"con", true},
		{"Nul.txt", true},
		{"com1", true},
		{"LPT9.tar.gz", true},
		{"COM0", false},
		{"console", false},
		{"minimal", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsReservedName(tt.name); got != tt.want {
				t.Errorf("IsReservedName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestValidatePortableName(t *testing.T) {
	t.Parallel()

	valid := []string{"minimal", "full-gui", "x86_64", "v1.2"}
	for _, name := range valid {
		if err := ValidatePortableName(name); err != nil {
			t.Errorf("ValidatePortableName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", ".", "..", "aux", "trailing.", "trailing ", "a/b", `a\b`, "a:b", "tab\there", "what?"}
	for _, name := range invalid {
		err := ValidatePortableName(name)
		if !errors.Is(err, ErrNonPortableName) {
			t.Errorf("ValidatePortableName(%q) = %v, want ErrNonPortableName", name, err)
		}
		var npe *NonPortableNameError
		if !errors.As(err, &npe) || npe.Name != name {
			t.Errorf("ValidatePortableName(%q) error does not carry the name", name)
		}
	}
}
