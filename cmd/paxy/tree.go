// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/pax-hub/paxy/internal/issue"
	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/pkg/manifest"
)

func newTreeCommand(app *App) *cobra.Command {
	var (
		files  bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "tree [dir]",
		Short: "Show the package tree of a directory",
		Long: `Build the package tree rooted at dir (default: the working directory) and
print its flavors and versions. Building fails on the first malformed
manifest or layout violation.

With --format, every manifest of the tree is printed re-encoded in the
given format (yaml, json, toml or ron) instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			t, err := app.buildTree(cmd.Context(), dir)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("build package tree").
					WithResource(dir).
					Wrap(err).
					BuildError()
			}
			if format != "" {
				f, err := manifest.FormatFromExtension(format)
				if err != nil {
					return err
				}
				return printEncoded(cmd.OutOrStdout(), t.Root, f)
			}
			name := resolve.PackageName(t.Root)
			if name == "" {
				name = t.Dir
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderNode(TitleStyle.Render(name), t.Root))
			if files {
				fmt.Fprintln(cmd.OutOrStdout())
				for _, f := range t.Files {
					fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render(f))
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&files, "files", false, "also list the manifest files the tree was built from")
	cmd.Flags().StringVar(&format, "format", "", "print the manifests re-encoded as yaml, json, toml or ron")
	return cmd
}

// printEncoded writes every node of the tree in format f, each under the
// path its manifest would have.
func printEncoded(w io.Writer, root manifest.Node, f manifest.Format) error {
	var err error
	manifest.Walk(root, func(flavorPath []string, n manifest.Node) bool {
		var data []byte
		data, err = manifest.Encode(n, f)
		if err != nil {
			return false
		}
		name := path.Join(append(slices.Clone(flavorPath), f.FileName())...)
		fmt.Fprintln(w, SubtitleStyle.Render("# "+name))
		fmt.Fprintln(w, strings.TrimRight(string(data), "\n"))
		fmt.Fprintln(w)
		return true
	})
	return err
}

// renderNode draws a package node with its flavors and versions below
// an already styled label.
func renderNode(label string, node manifest.Node) *tree.Tree {
	t := tree.Root(label).Enumerator(tree.RoundedEnumerator)
	switch n := node.(type) {
	case *manifest.FlavoredPackage:
		for _, f := range n.Flavors {
			t.Child(renderNode(flavorStyle.Render(f.Name), f.Node))
		}
	case *manifest.VersionedPackage:
		for _, v := range n.Versions {
			t.Child(versionLine(v))
		}
	}
	return t
}

func versionLine(v manifest.Version) string {
	var details []string
	for _, s := range v.Steps {
		details = append(details, string(s.Kind()))
	}
	for _, d := range v.Dependencies {
		dep := d.Name
		if d.Flavor != "" {
			dep += "[" + d.Flavor + "]"
		}
		details = append(details, "needs "+dep+"@"+d.Requirement.String())
	}
	line := versionStyle.Render(v.Number.Original())
	if len(details) > 0 {
		line += " " + SubtitleStyle.Render("("+strings.Join(details, ", ")+")")
	}
	return line
}
