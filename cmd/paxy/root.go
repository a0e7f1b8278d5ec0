// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/ctxlog"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the paxy command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "paxy",
		Short: "A package manager with sandboxed build plugins",
		Long: TitleStyle.Render("paxy") + SubtitleStyle.Render(" - a package manager with sandboxed build plugins") + `

Packages are directory trees of manifests. A package either splits into
flavors, each in its own subdirectory, or lists installable versions.
Build steps run as WebAssembly plugins confined to the package's
directories; install instructions run on the host.

` + SubtitleStyle.Render("Examples:") + `
  paxy repo sync                    Update every registered repository
  paxy tree ./pkgs/foo              Show the package tree of a directory
  paxy resolve 'foo[base]@^1.2'     Select versions without installing
  paxy install --dry-run foo[base]  Show what an install would run`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.setup(cmd.Context(), flags); err != nil {
				renderError(app.stderr, err, flags.verbose, app.markdownStyle())
				return &ExitError{Code: 1, Err: err}
			}
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), app.logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output and debug logging")
	pf.StringVar(&flags.cfgFile, "config", "", "config file (default is <config dir>/paxy/config.cue)")
	pf.StringVar(&flags.dataRoot, "data-root", "", "data directory (default is ~/.paxy)")

	root.AddCommand(
		newTreeCommand(app),
		newShowCommand(app),
		newResolveCommand(app),
		newInstallCommand(app),
		newWatchCommand(app),
		newRepoCommand(app),
		newPluginCommand(app),
		newConfigCommand(app),
	)
	return root
}

// runE adapts a handler so its error is rendered with the matching
// catalogue entry and turned into exit status 1.
func runE(app *App, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		renderError(app.stderr, err, app.verbose(), app.markdownStyle())
		return &ExitError{Code: 1, Err: err}
	}
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// handleError leaves errors already rendered by runE alone and hands the
// rest, such as unknown flags, to fang.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs paxy and exits with the command's status.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
