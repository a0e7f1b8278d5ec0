// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustWriteFile writes content to path, creating parent directories.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustSymlink creates newname pointing at oldname, skipping the test where
// the platform or user cannot create links.
func MustSymlink(t testing.TB, oldname, newname string) {
	t.Helper()
	if err := os.Symlink(oldname, newname); err != nil {
		t.Skipf("symbolic links unavailable: %v", err)
	}
}

// WriteTree writes files, keyed by slash separated paths relative to root,
// and returns root. Writing happens in sorted key order.
//
//	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
//		"manifest.yaml":      "flavors: [base]\n",
//		"base/manifest.yaml": "versions: [...]\n",
//	})
func WriteTree(t testing.TB, root string, files map[string]string) string {
	t.Helper()
	for _, rel := range slices.Sorted(maps.Keys(files)) {
		MustWriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), files[rel])
	}
	return root
}

// MustRemove deletes path, which must exist.
func MustRemove(t testing.TB, path string) {
	t.Helper()
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove %s: %v", path, err)
	}
}
