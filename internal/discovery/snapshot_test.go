// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pax-hub/paxy/internal/testutil"
	"github.com/pax-hub/paxy/pkg/manifest"
)

func TestSnapshot_Reload(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"manifest.yaml": versionsBase,
	})
	snap := NewSnapshot(root)
	if snap.Load() != nil {
		t.Fatal("Load() before Reload should be nil")
	}

	first, err := snap.Reload(t.Context())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if snap.Load() != first {
		t.Error("Load() does not return the reloaded tree")
	}

	// A broken manifest keeps the previous tree published.
	testutil.MustWriteFile(t, filepath.Join(root, "manifest.yaml"), "versions: []\n")
	if _, err := snap.Reload(t.Context()); !errors.Is(err, manifest.ErrMalformedManifest) {
		t.Fatalf("Reload() error = %v, want ErrMalformedManifest", err)
	}
	if snap.Load() != first {
		t.Error("failed Reload() replaced the tree")
	}

	testutil.MustWriteFile(t, filepath.Join(root, "manifest.yaml"), versionsFull)
	second, err := snap.Reload(t.Context())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	vp := second.Root.(*manifest.VersionedPackage)
	if got := vp.Versions[0].Number.String(); got != "2.0.0" {
		t.Errorf("reloaded version = %s, want 2.0.0", got)
	}
}
