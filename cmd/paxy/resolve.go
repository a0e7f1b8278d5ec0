// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/resolve"
)

func newResolveCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "resolve <package[flavor/path][@requirement]>",
		Short: "Select versions for a package and its dependencies",
		Long: `Select the highest version of the package flavor that satisfies the
requirement, then do the same for every dependency, and print the
result together with the install order. Nothing is installed.

Examples:
  paxy resolve jq
  paxy resolve 'foo[base]@^1.2'
  paxy resolve --dir ./pkgs/foo '[base]@1.0.0'`,
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
			order, err := rv.InstallOrder()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, renderResolved(rv))
			fmt.Fprintln(w)
			fmt.Fprintln(w, TitleStyle.Render("Install order"))
			for i, v := range order {
				fmt.Fprintf(w, "  %d. %s\n", i+1, CmdStyle.Render(v.ID()))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "resolve the package in this directory instead of the repositories")
	return cmd
}

func targetArg(args []string) (target, error) {
	if len(args) == 0 {
		return target{}, nil
	}
	return parseTarget(args[0])
}

// renderResolved draws the dependency graph. A version reached twice is
// drawn in full each time.
func renderResolved(rv *resolve.ResolvedVersion) *tree.Tree {
	t := tree.Root(versionStyle.Render(rv.ID())).Enumerator(tree.RoundedEnumerator)
	for _, dep := range rv.Dependencies {
		t.Child(renderResolved(dep))
	}
	return t
}
