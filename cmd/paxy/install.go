// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/install"
)

func newInstallCommand(app *App) *cobra.Command {
	var (
		dir    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "install <package[flavor/path][@requirement]>",
		Short: "Build and install a package and its dependencies",
		Long: `Resolve the package, then build and install every selected version,
dependencies first. Build steps run inside the plugin sandbox; install
instructions run on the host with the version's scratch directory as the
working directory and PAXY_STAGING naming the staging directory.

Examples:
  paxy install jq
  paxy install 'foo[base]@>=1.2' --dry-run
  paxy install --dir ./pkgs/foo`,
		Args: cobra.RangeArgs(0, 1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			t, err := targetArg(args)
			if err != nil {
				return err
			}
			rv, err := app.resolveTarget(cmd.Context(), t, dir)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if dryRun {
				// Planning reads manifests only; no plugin runtime is started.
				plan, err := install.NewInstaller(nil, app.plugins(), app.layout).Plan(rv)
				if err != nil {
					return err
				}
				printPlan(w, plan)
				return nil
			}

			inst, provider, err := app.installer()
			if err != nil {
				return err
			}
			defer closeProvider(cmd.Context(), app, provider)

			outcomes, err := inst.Install(cmd.Context(), rv)
			printOutcomes(w, outcomes)
			return err
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "install the package in this directory instead of the repositories")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print what would be installed without building anything")
	return cmd
}

func closeProvider(ctx context.Context, app *App, p interface{ Close(context.Context) error }) {
	if err := p.Close(context.WithoutCancel(ctx)); err != nil {
		app.logger.Warn("closing plugin runtime", "error", err)
	}
}

func printPlan(w io.Writer, plan []install.PlannedInstall) {
	fmt.Fprintln(w, TitleStyle.Render("Install plan"))
	for i, p := range plan {
		fmt.Fprintf(w, "%d. %s\n", i+1, versionStyle.Render(p.Version.ID()))
		field(w, "source", p.Source)
		if len(p.Steps) > 0 {
			kinds := make([]string, len(p.Steps))
			for j, k := range p.Steps {
				kinds[j] = string(k)
			}
			field(w, "steps", strings.Join(kinds, ", "))
		}
		for _, s := range p.Statements {
			fmt.Fprintf(w, "    $ %s\n", s.String())
		}
	}
}

func printOutcomes(w io.Writer, outcomes []*install.Outcome) {
	for _, o := range outcomes {
		if o.Succeeded() {
			fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("✓"), o.ID)
			continue
		}
		fmt.Fprintf(w, "%s %s (%s)\n", ErrorStyle.Render("✗"), o.ID, o.State)
	}
}
