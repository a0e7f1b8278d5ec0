// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	PackageTreeInvalidId
	PackageNotFoundId
	FlavorNotFoundId
	NoMatchingVersionId
	DependencyCycleId
	PluginNotAvailableId
	PluginFailedId
	MalformedInstallId
	InstallCommandFailedId
	ConfigLoadFailedId
	RepositorySyncFailedId
	RegistryErrorId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation for the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	var extra strings.Builder
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extra.WriteString("\n\n## See also:\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			extra.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(string(i.mdMsg)+extra.String(), stylePath)
}

const repositoryDocs HttpLink = "https://github.com/Pax-Hub/paxy-pkg-repository"

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No manifest found!

A package directory must hold exactly one manifest named ` + "`manifest`" + ` with one of
the extensions yaml, yml, json, toml or ron.

## Things you can try:
- Check that the directory you passed is the package root
- Run ` + "`paxy tree <dir>`" + ` to see which manifests paxy finds
- Rename ` + "`package.yaml`" + ` or similar files to ` + "`manifest.yaml`",
		docLinks: []HttpLink{repositoryDocs},
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse a manifest!

The manifest is not valid for its format, or does not match the manifest schema.

## Things you can try:
- Check the syntax for the file's format (YAML, JSON, TOML or RON)
- A manifest lists either ` + "`flavors`" + ` or ` + "`versions`" + `, never both
- Every version needs a ` + "`version`" + ` and an ` + "`install`" + ` field
- Run with ` + "`--verbose`" + ` to see the full error chain`,
	}

	packageTreeInvalidIssue = &Issue{
		id: PackageTreeInvalidId,
		mdMsg: `
# The package tree is inconsistent!

Manifests were readable, but do not fit together into one package tree.

## Common causes:
- A flavor directory has a manifest but is not listed in its parent's ` + "`flavors`" + `
- A flavor is listed but its directory has no manifest
- A versioned package has subdirectories with manifests
- Two manifests (for example yaml and toml) in the same directory`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package not found!

No registered repository provides a package with that name.

## Things you can try:
- Run ` + "`paxy repo sync`" + ` to update your repositories
- Run ` + "`paxy repo list`" + ` to see which repositories are registered
- Check the package name for typos`,
	}

	flavorNotFoundIssue = &Issue{
		id: FlavorNotFoundId,
		mdMsg: `
# Flavor not found!

The package exists, but not with the requested flavor path.

## Things you can try:
- Run ` + "`paxy tree`" + ` on the package to list its flavors
- A flavored package cannot be installed directly; pick one of its flavors`,
	}

	noMatchingVersionIssue = &Issue{
		id: NoMatchingVersionId,
		mdMsg: `
# No matching version!

None of the package's versions satisfies the requirement.

## Things you can try:
- Run ` + "`paxy show`" + ` to list the available versions
- Relax the requirement, for example ` + "`^1.2`" + ` instead of ` + "`1.2.0`" + `
- Sync your repositories to pick up new releases`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Packages depend on each other in a loop, so there is no order to install them in.

## Things you can try:
- Read the chain in the error message to find the loop
- Remove or relax one of the dependencies in the cycle`,
	}

	pluginNotAvailableIssue = &Issue{
		id: PluginNotAvailableId,
		mdMsg: `
# Build plugin not available!

A build step needs a plugin that is not registered, cannot be read, or is not a
valid WebAssembly module exporting ` + "`process`" + `.

## Things you can try:
- Run ` + "`paxy plugin list`" + ` to see registered plugins
- Register one with ` + "`paxy plugin add <kind> <file.wasm>`",
	}

	pluginFailedIssue = &Issue{
		id: PluginFailedId,
		mdMsg: `
# Build plugin failed!

The plugin ran but reported failure or aborted. Its output is included in the
error message.

## Things you can try:
- Run with ` + "`--verbose`" + ` to see the plugin output as it runs
- Check that the build step's fields (for example the clone URL) are correct`,
	}

	malformedInstallIssue = &Issue{
		id: MalformedInstallId,
		mdMsg: `
# Malformed install instructions!

Install instructions are statements separated by ` + "`;`" + `. A statement may not be
empty, which also rules out a trailing ` + "`;`" + `. Nothing was run.

## Things you can try:
- Remove doubled or trailing semicolons from the ` + "`install`" + ` field
- Remember that quoting, globbing, variables and pipes are not supported`,
	}

	installCommandFailedIssue = &Issue{
		id: InstallCommandFailedId,
		mdMsg: `
# Install command failed!

An install statement could not be started or exited with a non-zero code. The
remaining statements were skipped.

## Things you can try:
- Check that the program is installed and on your PATH
- Look at the command output above for the cause
- Use ` + "`paxy install --dry-run`" + ` to see the exact commands`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file or a PAXY_* environment variable holds an invalid value.

## Things you can try:
- Run ` + "`paxy config show`" + ` to see the effective configuration
- Check the CUE syntax of your config file
- Unset PAXY_* environment variables to fall back to defaults`,
	}

	repositorySyncFailedIssue = &Issue{
		id: RepositorySyncFailedId,
		mdMsg: `
# Repository sync failed!

A registered repository could not be cloned or updated.

## Things you can try:
- Check your network connection and the repository URL
- For private repositories set GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN, or add an SSH key
- Remove a broken clone with ` + "`paxy repo rm`" + ` and add it again`,
		docLinks: []HttpLink{repositoryDocs},
	}

	registryErrorIssue = &Issue{
		id: RegistryErrorId,
		mdMsg: `
# Registry file problem!

A registry file (repositories or plugins) could not be read or written.

## Things you can try:
- Check the file's TOML syntax
- Check permissions on the paxy data directory
- Move the file aside; paxy recreates it with defaults`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

paxy lacks permission for a file or directory it needs.

## Things you can try:
- Check ownership of the paxy data directory
- Point ` + "`paths.data_root`" + ` at a directory you can write to`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():     manifestNotFoundIssue,
		manifestParseErrorIssue.Id():   manifestParseErrorIssue,
		packageTreeInvalidIssue.Id():   packageTreeInvalidIssue,
		packageNotFoundIssue.Id():      packageNotFoundIssue,
		flavorNotFoundIssue.Id():       flavorNotFoundIssue,
		noMatchingVersionIssue.Id():    noMatchingVersionIssue,
		dependencyCycleIssue.Id():      dependencyCycleIssue,
		pluginNotAvailableIssue.Id():   pluginNotAvailableIssue,
		pluginFailedIssue.Id():         pluginFailedIssue,
		malformedInstallIssue.Id():     malformedInstallIssue,
		installCommandFailedIssue.Id(): installCommandFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		repositorySyncFailedIssue.Id(): repositorySyncFailedIssue,
		registryErrorIssue.Id():        registryErrorIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
}

func Get(id Id) *Issue {
	return issues[id]
}
