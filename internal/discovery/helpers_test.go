// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"path/filepath"
	"testing"
)

const (
	flavoredRoot = "name: foo\nflavors: [base, full]\n"
	versionsBase = `name: foo-base
versions:
  - version: 1.0.0
    install: echo hello
  - version: 1.2.0
    install: "true"
`
	versionsFull = `{"name": "foo-full", "versions": [{"version": "2.0.0", "install": ""}]}`
)

// collectPaths drains a locator, returning root-relative slash paths.
func collectPaths(t *testing.T, ctx context.Context, l *Locator) ([]string, error) {
	t.Helper()
	root, err := filepath.Abs(l.Root())
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	var out []string
	for path, err := range l.Manifests(ctx) {
		if err != nil {
			return out, err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			t.Fatalf("Rel(%s): %v", path, relErr)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}
