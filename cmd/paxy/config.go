// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialise the configuration",
	}
	cmd.AddCommand(
		newConfigShowCommand(app),
		newConfigInitCommand(app),
		newConfigPathCommand(app),
	)
	return cmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration and data layout",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			source := app.cfgPath
			if source == "" {
				source = "(defaults)"
			}
			fmt.Fprintf(w, "%s %s\n\n", SubtitleStyle.Render("# loaded from"), source)
			fmt.Fprintln(w, config.GenerateCUE(app.cfg))

			fmt.Fprintln(w, TitleStyle.Render("Data layout"))
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			l := app.layout
			for _, row := range [][2]string{
				{"root", l.Root},
				{"repositories", l.RepositoriesFile},
				{"plugins", l.PluginsFile},
				{"clones", l.ReposDir},
				{"scratch", l.ScratchRoot},
				{"staging", l.StagingRoot},
				{"cache", l.CacheDir},
			} {
				fmt.Fprintf(tw, "  %s\t%s\n", row[0], row[1])
			}
			return tw.Flush()
		}),
	}
}

func newConfigInitCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long:  `Write the default configuration file unless one exists. The file path is printed either way.`,
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig(dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "config directory (default: the user config directory)")
	return cmd
}

func newConfigPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, _ []string) error {
			if app.cfgPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), app.cfgPath)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not created)\n", dir)
			return nil
		}),
	}
}
