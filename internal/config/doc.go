// SPDX-License-Identifier: MPL-2.0

// Package config handles paxy configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the paxy configuration directory
// ($XDG_CONFIG_HOME/paxy on Linux, ~/Library/Application Support/paxy on
// macOS, %APPDATA%\paxy on Windows) and validated against the embedded
// config_schema.cue. Every key can be overridden from the environment with
// a PAXY_ prefix, dots becoming underscores (PAXY_DISCOVERY_MAX_DEPTH).
//
// The loaded Config yields a PathLayout: the explicit set of files and
// directories the rest of paxy works with. Nothing below the CLI looks up
// home directories on its own.
package config
