// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"testing"
)

func TestFormatFromExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext     string
		want    Format
		wantErr bool
	}{
		{ext: "yaml", want: FormatYAML},
		{ext: "yml", want: FormatYAML},
		{ext: ".yml", want: FormatYAML},
		{ext: "json", want: FormatJSON},
		{ext: "toml", want: FormatTOML},
		{ext: "ron", want: FormatRON},
		{ext: "TOML", want: FormatTOML},
		{ext: "xml", wantErr: true},
		{ext: "", wantErr: true},
		{ext: "cue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()

			got, err := FormatFromExtension(tt.ext)
			if tt.wantErr {
				var ue *UnsupportedExtensionError
				if !errors.As(err, &ue) {
					t.Fatalf("expected *UnsupportedExtensionError, got %v", err)
				}
				if ue.Extension != tt.ext {
					t.Errorf("Extension = %q, want %q", ue.Extension, tt.ext)
				}
				if !errors.Is(err, ErrUnsupportedExtension) {
					t.Error("error should wrap ErrUnsupportedExtension")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatFromExtension(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestIsManifestFile(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"manifest.yaml":  true,
		"manifest.yml":   true,
		"manifest.json":  true,
		"manifest.toml":  true,
		"manifest.ron":   true,
		"manifest.RON":   true,
		"manifest.xml":   false,
		"manifest":       false,
		"Manifest.yaml":  false,
		"manifests.yaml": false,
		"package.toml":   false,
		".manifest.yaml": false,
	}
	for name, want := range tests {
		if got := IsManifestFile(name); got != want {
			t.Errorf("IsManifestFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFormat_String(t *testing.T) {
	t.Parallel()

	for _, f := range Formats() {
		if ok, errs := f.IsValid(); !ok {
			t.Errorf("%v.IsValid() = false: %v", f, errs)
		}
		if f.FileName() != FileStem+"."+f.Extensions()[0] {
			t.Errorf("FileName() = %q", f.FileName())
		}
	}
	if ok, _ := Format(0).IsValid(); ok {
		t.Error("zero Format should be invalid")
	}
	if FormatRON.String() != "ron" {
		t.Errorf("FormatRON.String() = %q", FormatRON.String())
	}
}
