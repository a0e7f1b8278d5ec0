// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/discovery"
	"github.com/pax-hub/paxy/internal/issue"
	"github.com/pax-hub/paxy/internal/watch"
	"github.com/pax-hub/paxy/pkg/manifest"
)

func newWatchCommand(app *App) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Rebuild a package tree whenever its manifests change",
		Long: `Build the package tree in dir (default: the working directory), then
watch it and rebuild after every change to a manifest or to the
directory layout. A broken edit is reported and the last good tree is
kept. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			snap := discovery.NewSnapshot(dir, app.discoveryOptions(ctx)...)
			tree, err := snap.Reload(ctx)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("build package tree").
					WithResource(dir).
					WithSuggestion("fix the manifest and run watch again").
					Wrap(err).
					BuildError()
			}
			fmt.Fprintln(w, summarizeTree(tree))

			watcher, err := watch.New(ctx, watch.Config{
				Root:     dir,
				Reloader: snap,
				Ignore:   app.cfg.Discovery.Ignore,
				Debounce: debounce,
				OnReload: func(_ context.Context, tree *discovery.Tree, changed []string, err error) {
					if err != nil {
						fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), formatErrorForDisplay(err, app.verbose()))
						return
					}
					fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render(strings.Join(changed, ", ")), summarizeTree(tree))
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Watching %s\n", CmdStyle.Render(watcher.Root()))
			return watcher.Run(ctx)
		}),
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a rebuild")
	return cmd
}

// summarizeTree reports the tree shape in one line.
func summarizeTree(t *discovery.Tree) string {
	var flavors, versions int
	manifest.Walk(t.Root, func(path []string, n manifest.Node) bool {
		if len(path) > 0 {
			flavors++
		}
		if vp, ok := n.(*manifest.VersionedPackage); ok {
			versions += len(vp.Versions)
		}
		return true
	})
	return fmt.Sprintf("%s %s: %d manifests, %d flavors, %d versions",
		SuccessStyle.Render("✓"), t.Dir, len(t.Files), flavors, versions)
}
