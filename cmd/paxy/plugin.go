// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/pkg/manifest"
)

func newPluginCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage build plugins",
		Long: `A build plugin is a WebAssembly module that performs one kind of build
step, such as "clone". Plugins run sandboxed with the package source
mounted read-only and the scratch and staging directories read-write.`,
	}
	cmd.AddCommand(
		newPluginAddCommand(app),
		newPluginListCommand(app),
		newPluginRemoveCommand(app),
	)
	return cmd
}

func newPluginAddCommand(app *App) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "add <kind> <module.wasm>",
		Short: "Register the plugin for a build step kind",
		Args:  cobra.ExactArgs(2),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			kind := manifest.BuildStepKind(args[0])
			if err := app.plugins().Add(cmd.Context(), kind, args[1], replace); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s registered plugin for %s\n", SuccessStyle.Render("✓"), kind)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace an existing plugin for the kind")
	return cmd
}

func newPluginListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered plugins",
		Args:    cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, _ []string) error {
			plugins, err := app.plugins().List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tMODULE")
			for _, p := range plugins {
				fmt.Fprintf(tw, "%s\t%s\n", p.Kind, p.Path)
			}
			return tw.Flush()
		}),
	}
}

func newPluginRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <kind>",
		Aliases: []string{"remove"},
		Short:   "Unregister the plugin for a build step kind",
		Args:    cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			if err := app.plugins().Remove(cmd.Context(), manifest.BuildStepKind(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed plugin for %s\n", SuccessStyle.Render("✓"), args[0])
			return nil
		}),
	}
}
