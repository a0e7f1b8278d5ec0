// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pax-hub/paxy/internal/discovery"
	"github.com/pax-hub/paxy/internal/install"
	"github.com/pax-hub/paxy/internal/issue"
	"github.com/pax-hub/paxy/internal/registry"
	"github.com/pax-hub/paxy/internal/repository"
	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/pkg/manifest"
)

// ServiceError is an error the CLI renders with a catalogue entry below
// it. Create it with newServiceError.
type ServiceError struct {
	Err     error
	IssueID issue.Id
}

func newServiceError(err error, issueID issue.Id) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID}
}

func (e *ServiceError) Error() string { return e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps an error to the catalogue entry that explains it, or
// zero when none fits. An Id attached through issue.ActionableError wins.
func classifyError(err error) issue.Id {
	if id, ok := issue.IssueOf(err); ok {
		return id
	}

	switch {
	case errors.Is(err, resolve.ErrCyclicDependency):
		return issue.DependencyCycleId
	case errors.Is(err, resolve.ErrPackageNotFound):
		return issue.PackageNotFoundId
	case errors.Is(err, resolve.ErrFlavorNotFound):
		return issue.FlavorNotFoundId
	case errors.Is(err, resolve.ErrNoMatchingVersion):
		return issue.NoMatchingVersionId
	case errors.Is(err, install.ErrMalformedInstallInstruction):
		return issue.MalformedInstallId
	case errors.Is(err, install.ErrHostCommand):
		return issue.InstallCommandFailedId
	case errors.Is(err, install.ErrPluginLoad):
		return issue.PluginNotAvailableId
	case errors.Is(err, install.ErrPluginInvocation):
		return issue.PluginFailedId
	case errors.Is(err, repository.ErrSync):
		return issue.RepositorySyncFailedId
	case errors.Is(err, registry.ErrStore), errors.Is(err, registry.ErrInvalidEntry):
		return issue.RegistryErrorId
	case errors.Is(err, discovery.ErrNoRootManifest), errors.Is(err, manifest.ErrUnsupportedExtension):
		return issue.ManifestNotFoundId
	case errors.Is(err, discovery.ErrSchema):
		return issue.PackageTreeInvalidId
	case errors.Is(err, manifest.ErrMalformedManifest):
		return issue.ManifestParseErrorId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	}
	return 0
}

// renderError writes err, its suggestions, and the explaining catalogue
// entry to w.
func renderError(w io.Writer, err error, verbose bool, style string) {
	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	id := classifyError(err)
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.IssueID != 0 {
		id = svcErr.IssueID
	}
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(style)
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay uses the ActionableError format when err carries
// one, so suggestions and, when verbose, the cause chain are shown.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
