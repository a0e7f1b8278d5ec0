// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"github.com/pax-hub/paxy/internal/discovery"
	"github.com/pax-hub/paxy/internal/testutil"
)

func TestSummarizeTree(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"manifest.yaml":      fooRoot,
		"base/manifest.yaml": fooBase,
	})
	tree, err := discovery.BuildTree(t.Context(), dir)
	if err != nil {
		t.Fatal(err)
	}
	got := summarizeTree(tree)
	if !strings.Contains(got, "2 manifests, 1 flavors, 2 versions") {
		t.Errorf("summarizeTree() = %q", got)
	}
}

func TestWatchCommand_InitialBuildFails(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	res := h.run("watch", t.TempDir())
	if res.err == nil {
		t.Fatal("watch should fail when the initial build fails")
	}
	if !strings.Contains(res.stderr, "fix the manifest") {
		t.Errorf("stderr should carry the suggestion:\n%s", res.stderr)
	}
}
