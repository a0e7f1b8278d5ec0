// SPDX-License-Identifier: MPL-2.0

// Package install builds and installs resolved package versions.
//
// The [Executor] handles one version: it stages a sandbox over the source,
// scratch and staging directories, runs one plugin per build step and then
// runs the version's install instructions on the host. The [Installer]
// handles a whole resolution, installing dependencies before dependents.
//
// Install instructions use a deliberately small grammar. Statements are
// separated by ";" and split on whitespace into argv; there is no quoting,
// no globbing, no variable expansion and no pipes. Every statement runs as
// one host process, so what a manifest can do is exactly what its argv
// says.
package install
