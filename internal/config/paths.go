// SPDX-License-Identifier: MPL-2.0

package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the data root below the home directory.
const DataDirName = ".paxy"

// PathLayout is every location paxy reads or writes. It is computed once
// from the configuration and passed explicitly to each component.
type PathLayout struct {
	// Root is the data root.
	Root string
	// RepositoriesFile is the repository registry.
	RepositoriesFile string
	// PluginsFile is the plugin registry.
	PluginsFile string
	// ReposDir holds one clone per registered repository.
	ReposDir string
	// ScratchRoot holds the per-version scratch directories.
	ScratchRoot string
	// StagingRoot holds the per-version staging directories.
	StagingRoot string
	// CacheDir holds the compiled plugin cache.
	CacheDir string
}

// NewPathLayout returns the default layout below root.
func NewPathLayout(root string) PathLayout {
	return PathLayout{
		Root:             root,
		RepositoriesFile: filepath.Join(root, "repos.toml"),
		PluginsFile:      filepath.Join(root, "plugins", "plugins.toml"),
		ReposDir:         filepath.Join(root, "repos"),
		ScratchRoot:      filepath.Join(root, "tmp"),
		StagingRoot:      filepath.Join(root, "stage"),
		CacheDir:         filepath.Join(root, "cache"),
	}
}

// DefaultDataRoot returns ~/.paxy.
func DefaultDataRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// Layout computes the PathLayout for the configuration. Relative paths
// resolve against the data root, which defaults to DefaultDataRoot.
func (c *Config) Layout() (PathLayout, error) {
	root := c.Paths.DataRoot
	if root == "" {
		var err error
		if root, err = DefaultDataRoot(); err != nil {
			return PathLayout{}, err
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return PathLayout{}, fmt.Errorf("resolve data root: %w", err)
	}

	l := NewPathLayout(root)
	override := func(dst *string, v string) {
		if v == "" {
			return
		}
		if !filepath.IsAbs(v) {
			v = filepath.Join(root, v)
		}
		*dst = filepath.Clean(v)
	}
	override(&l.RepositoriesFile, c.Paths.RepositoriesFile)
	override(&l.PluginsFile, c.Paths.PluginsFile)
	override(&l.ReposDir, c.Paths.ReposDir)
	override(&l.ScratchRoot, c.Paths.ScratchDir)
	override(&l.StagingRoot, c.Paths.StagingDir)
	override(&l.CacheDir, c.Paths.CacheDir)
	return l, nil
}

// InstallDirs creates and returns the scratch and staging directories for
// the resolved version id. Each id gets its own pair; the directory name
// is readable and carries a hash of id, so distinct ids never collide even
// when they sanitise to the same name.
func (l PathLayout) InstallDirs(id string) (scratch, staging string, err error) {
	name := dirName(id)
	scratch = filepath.Join(l.ScratchRoot, name)
	staging = filepath.Join(l.StagingRoot, name)
	for _, dir := range []string{scratch, staging} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return scratch, staging, nil
}

// dirName turns "pkg[flavor/path]@1.0.0" into "pkg-flavor-path-1.0.0-<hash>".
func dirName(id string) string {
	sum := sha256.Sum256([]byte(id))
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '+':
			return r
		default:
			return '-'
		}
	}, id)
	safe = strings.Trim(strings.ReplaceAll(safe, "--", "-"), "-.")
	return safe + "-" + hex.EncodeToString(sum[:4])
}
