// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/config"
	"github.com/pax-hub/paxy/internal/issue"
	"github.com/pax-hub/paxy/internal/resolve"
)

// renderMarkdown is swapped out by tests.
var renderMarkdown = glamour.Render

func newShowCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "show [package]",
		Short: "Describe a package",
		Long: `Print a package's metadata, its Markdown description, and every flavor
and version it provides. The package is looked up in the synced
repositories, or built from --dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			var pkg *resolve.Package
			switch {
			case dir != "":
				t, err := app.buildTree(cmd.Context(), dir)
				if err != nil {
					return issue.NewErrorContext().
						WithOperation("build package tree").
						WithResource(dir).
						Wrap(err).
						BuildError()
				}
				pkg = &resolve.Package{Name: resolve.PackageName(t.Root), Root: t.Root, Dir: t.Dir}
			case len(args) == 1:
				ix, err := app.index(cmd.Context())
				if err != nil {
					return err
				}
				p, ok := ix.Lookup(args[0])
				if !ok {
					return &resolve.PackageNotFoundError{Package: args[0]}
				}
				pkg = p
			default:
				return errEmptyPackage
			}
			return showPackage(cmd.OutOrStdout(), pkg, app.markdownStyle())
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "show the package in this directory instead of the repositories")
	return cmd
}

func showPackage(w io.Writer, pkg *resolve.Package, style string) error {
	name := pkg.Name
	if name == "" {
		name = pkg.Dir
	}
	fmt.Fprintln(w, TitleStyle.Render(name))
	if pkg.Repository != "" {
		field(w, "repository", pkg.Repository)
	}
	if pkg.Dir != "" {
		field(w, "directory", pkg.Dir)
	}

	if meta := pkg.Root.Meta(); meta != nil {
		if meta.License != "" {
			field(w, "license", meta.License)
		}
		if meta.Website != nil {
			field(w, "website", meta.Website.String())
		}
		if meta.Repository != nil {
			field(w, "source", meta.Repository.String())
		}
		if len(meta.Authors) > 0 {
			authors := make([]string, len(meta.Authors))
			for i, a := range meta.Authors {
				authors[i] = a.String()
			}
			field(w, "authors", strings.Join(authors, ", "))
		}
		if meta.Description != "" {
			out, err := renderMarkdown(meta.Description, style)
			if err != nil {
				return fmt.Errorf("render description: %w", err)
			}
			fmt.Fprint(w, out)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, renderNode(TitleStyle.Render("contents"), pkg.Root))
	return nil
}

func field(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(key+":"), value)
}

// markdownStyle maps the configured color scheme to a glamour style.
func (a *App) markdownStyle() string {
	if a.cfg == nil {
		return "auto"
	}
	switch a.cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
