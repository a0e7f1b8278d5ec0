// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE schema validation.
//
// Manifests and the configuration file are both validated the same way:
//
//  1. Compile the embedded schema
//  2. Compile (or encode) user data and unify it with a schema definition
//  3. Validate and decode to a Go struct
//
// [ParseAndDecode] takes CUE source bytes (the configuration file).
// [DecodeValue] takes an already decoded Go document, which is how manifests
// written in YAML, JSON, TOML or RON reach the schema:
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	result, err := cueutil.DecodeValue[document](schema, doc, "#VersionedPackage",
//	    cueutil.WithFilename("manifest.toml"))
//	if err != nil {
//	    return nil, err // *cueutil.SchemaError with JSON paths
//	}
package cueutil
