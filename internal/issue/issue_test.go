// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func passthroughRender(t *testing.T) {
	t.Helper()
	original := render
	t.Cleanup(func() { render = original })
	render = func(in string, _ string) (string, error) { return in, nil }
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		contains string
	}{
		{ManifestNotFoundId, "No manifest found"},
		{ManifestParseErrorId, "Failed to parse a manifest"},
		{PackageTreeInvalidId, "package tree is inconsistent"},
		{PackageNotFoundId, "Package not found"},
		{FlavorNotFoundId, "Flavor not found"},
		{NoMatchingVersionId, "No matching version"},
		{DependencyCycleId, "Dependency cycle"},
		{PluginNotAvailableId, "plugin not available"},
		{PluginFailedId, "plugin failed"},
		{MalformedInstallId, "Malformed install"},
		{InstallCommandFailedId, "Install command failed"},
		{ConfigLoadFailedId, "Failed to load configuration"},
		{RepositorySyncFailedId, "Repository sync failed"},
		{RegistryErrorId, "Registry file"},
		{PermissionDeniedId, "Permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()

			got := Get(tt.id)
			if got == nil {
				t.Fatalf("Get(%d) = nil", tt.id)
			}
			if got.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", got.Id(), tt.id)
			}
			if !strings.Contains(string(got.MarkdownMsg()), tt.contains) {
				t.Errorf("MarkdownMsg() does not contain %q", tt.contains)
			}
		})
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should be nil")
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != int(PermissionDeniedId) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), PermissionDeniedId)
	}
	for i, v := range values {
		if v.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, v.Id(), i+1)
		}
		if v.MarkdownMsg() == "" {
			t.Errorf("issue %d has an empty message", v.Id())
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	t.Parallel()

	got := Get(RepositorySyncFailedId)
	links := got.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links")
	}
	links[0] = "modified"
	if got.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	passthroughRender(t)

	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test\n",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}
	rendered, err := withLinks.Render("")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	for _, want := range []string{"See also", "<https://docs.example.com>", "<https://external.example.com>"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() = %q, missing %q", rendered, want)
		}
	}

	plain := &Issue{id: Id(9998), mdMsg: "# Test\n"}
	rendered, err = plain.Render("")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Errorf("Render() without links = %q", rendered)
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	passthroughRender(t)

	for _, v := range Values() {
		rendered, err := v.Render("")
		if err != nil {
			t.Errorf("issue %d: %v", v.Id(), err)
		}
		if rendered == "" {
			t.Errorf("issue %d rendered empty", v.Id())
		}
	}
}
