// SPDX-License-Identifier: MPL-2.0

// Package manifest provides the package tree model and the manifest parser.
//
// A package source directory holds one manifest per directory level. Each
// manifest describes one node of the package tree:
//
//   - [FlavoredPackage]: an interior node that declares named flavors. Every
//     flavor is a subdirectory holding its own manifest.
//   - [VersionedPackage]: a leaf node listing installable [Version]s.
//
// # Manifest Files
//
// Manifest files are named "manifest" with one of the extensions yaml, yml,
// json, toml or ron. The extension selects the [Format]:
//
//	manifest.yaml  manifest.yml  -> FormatYAML
//	manifest.json                -> FormatJSON
//	manifest.toml                -> FormatTOML
//	manifest.ron                 -> FormatRON
//
// Every format decodes to the same generic document, which is validated
// against the embedded CUE schema (manifest_schema.cue) before it becomes a
// [Node]. The node variant is selected by the presence of the "flavors" or
// "versions" field; a manifest carrying both or neither is malformed.
//
// # Example (YAML)
//
//	name: ripgrep
//	authors:
//	  - "Andrew Gallant <jamslam@gmail.com>"
//	flavors: [musl, gnu]
//
// and in the "gnu" subdirectory:
//
//	versions:
//	  - version: 14.1.0
//	    steps:
//	      - clone: {repository: "https://github.com/BurntSushi/ripgrep.git"}
//	    dependencies:
//	      - {name: rust, flavor: stable, version: "^1.70"}
//	    install: "cargo build --release; cp target/release/rg /stage/bin/rg"
package manifest
