// SPDX-License-Identifier: MPL-2.0

// Package cmd is the paxy command line. It composes the locator, resolver,
// registries, repository syncer and installer behind Cobra commands and
// renders their errors through the issue catalogue.
package cmd
