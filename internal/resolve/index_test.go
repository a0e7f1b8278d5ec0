// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pax-hub/paxy/internal/testutil"
	"github.com/pax-hub/paxy/pkg/manifest"
)

func TestLoadIndex(t *testing.T) {
	t.Parallel()

	first := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"curl/manifest.yaml":      "name: curl\nversions: [{version: 8.5.0, install: make}]\n",
		"dir-name/manifest.toml":  "[[versions]]\nversion = \"1.0.0\"\ninstall = \"\"\n",
		"broken/manifest.json":    "{\"versions\": []}",
		"not-a-package/README.md": "hello",
		"README.md":               "top-level files are ignored",
	})
	second := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"curl/manifest.yaml":        "name: curl\nversions: [{version: 9.0.0, install: make}]\n",
		"zlib/manifest.yaml":        "name: zlib\nflavors: [static]\n",
		"zlib/static/manifest.yaml": "versions: [{version: 1.3.1, install: make}]\n",
	})

	ix, err := LoadIndex(t.Context(), first, second)
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}

	if diff := cmp.Diff([]string{"curl", "dir-name", "zlib"}, ix.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	curl, ok := ix.Lookup("curl")
	if !ok || curl.Repository != first {
		t.Fatalf("curl should come from the first repository, got %+v", curl)
	}
	if want := filepath.Join(first, "curl"); curl.Dir != want {
		t.Errorf("curl.Dir = %s, want %s", curl.Dir, want)
	}

	problems := ix.Problems()
	if len(problems) != 1 || filepath.Base(problems[0].Dir) != "broken" ||
		!errors.Is(problems[0].Err, manifest.ErrMalformedManifest) {
		t.Errorf("Problems() = %+v, want the broken package", problems)
	}

	rv, err := New(ix).ResolvePackage(t.Context(), "zlib", []string{"static"}, manifest.Requirement{})
	if err != nil {
		t.Fatalf("ResolvePackage(zlib) error = %v", err)
	}
	if want := filepath.Join(second, "zlib", "static"); rv.Dir != want {
		t.Errorf("rv.Dir = %s, want %s", rv.Dir, want)
	}
}

func TestLoadIndex_Errors(t *testing.T) {
	t.Parallel()

	if _, err := LoadIndex(t.Context(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LoadIndex() on a missing repository should fail")
	}

	repo := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"a/manifest.yaml": "versions: [{version: 1.0.0, install: x}]\n",
	})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := LoadIndex(ctx, repo); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadIndex() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestIndex_AddFirstWins(t *testing.T) {
	t.Parallel()

	a := pkg("x", leaf([]string{"1.0.0"}))
	b := pkg("x", leaf([]string{"2.0.0"}))
	ix := NewIndex(a)
	if ix.Add(b) {
		t.Error("Add() of a taken name should report false")
	}
	if got, _ := ix.Lookup("x"); got != a {
		t.Error("first package should win")
	}
}
