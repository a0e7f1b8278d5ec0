// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/issue"
	"github.com/pax-hub/paxy/internal/registry"
)

func newRepoCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage package repositories",
		Long: `Package repositories are git repositories whose top-level directories
each hold one package tree. Registered repositories are cloned below the
data root by "paxy repo sync" and searched in name order.`,
	}
	cmd.AddCommand(
		newRepoAddCommand(app),
		newRepoListCommand(app),
		newRepoRemoveCommand(app),
		newRepoSyncCommand(app),
	)
	return cmd
}

func newRepoAddCommand(app *App) *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Register a repository",
		Args:  cobra.ExactArgs(2),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repos := app.repositories()
			if err := repos.Add(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s added repository %s\n", SuccessStyle.Render("✓"), args[0])
			if !sync {
				return nil
			}
			repo, err := repos.Get(args[0])
			if err != nil {
				return err
			}
			res, err := app.syncer().Sync(ctx, repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s synced %s at %s\n", SuccessStyle.Render("✓"), res.Name, shortHash(res.Head))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "clone the repository right away")
	return cmd
}

func newRepoListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered repositories",
		Args:    cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, _ []string) error {
			repos, err := app.repositories().List()
			if err != nil {
				return err
			}
			syncer := app.syncer()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tURL\tSYNCED")
			for _, r := range repos {
				synced := "no"
				if info, err := os.Stat(syncer.Dir(r.Name)); err == nil && info.IsDir() {
					synced = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.URL, synced)
			}
			return tw.Flush()
		}),
	}
}

func newRepoRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Unregister a repository and delete its clone",
		Args:    cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			if err := app.repositories().Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := app.syncer().Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed repository %s\n", SuccessStyle.Render("✓"), args[0])
			return nil
		}),
	}
}

func newRepoSyncCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [name...]",
		Short: "Clone or update repositories",
		Long:  `Clone or pull the named repositories, or every registered repository when no name is given.`,
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			reg := app.repositories()
			var repos []registry.Repository
			if len(args) == 0 {
				all, err := reg.List()
				if err != nil {
					return err
				}
				repos = all
			}
			for _, name := range args {
				r, err := reg.Get(name)
				if err != nil {
					return err
				}
				repos = append(repos, r)
			}

			results, err := app.syncer().SyncAll(cmd.Context(), repos)
			w := cmd.OutOrStdout()
			for i, res := range results {
				switch {
				case res == nil:
					fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), repos[i].Name)
				case res.Cloned:
					fmt.Fprintf(w, "%s %s cloned at %s\n", SuccessStyle.Render("✓"), res.Name, shortHash(res.Head))
				case res.Updated:
					fmt.Fprintf(w, "%s %s updated to %s\n", SuccessStyle.Render("✓"), res.Name, shortHash(res.Head))
				default:
					fmt.Fprintf(w, "%s %s up to date\n", SuccessStyle.Render("✓"), res.Name)
				}
			}
			if err != nil {
				return newServiceError(err, issue.RepositorySyncFailedId)
			}
			return nil
		}),
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
