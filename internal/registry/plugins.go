// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pax-hub/paxy/internal/install"
	"github.com/pax-hub/paxy/pkg/manifest"
)

const (
	pluginsTable = "plugins"
	pluginKind   = "plugin"
)

var errNotRegular = errors.New("not a regular file")

type (
	// Plugin is a registered build plugin: the WebAssembly module that
	// performs build steps of Kind.
	Plugin struct {
		Kind manifest.BuildStepKind
		Path string
	}

	// Plugins is the plugin registry. It serves plugins to the executor.
	Plugins struct {
		store *Store
	}
)

var _ install.PluginRegistry = (*Plugins)(nil)

// NewPlugins opens the plugin registry stored at path.
func NewPlugins(path string) *Plugins {
	return &Plugins{store: NewStore(path, pluginsTable, nil)}
}

// Path returns the registry file.
func (p *Plugins) Path() string { return p.store.Path() }

// List returns the registered plugins sorted by kind.
func (p *Plugins) List() ([]Plugin, error) {
	entries, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	plugins := make([]Plugin, 0, len(entries))
	for kind, path := range entries {
		plugins = append(plugins, Plugin{Kind: manifest.BuildStepKind(kind), Path: path})
	}
	slices.SortFunc(plugins, func(a, b Plugin) int { return cmp.Compare(a.Kind, b.Kind) })
	return plugins, nil
}

// Add registers the module at path for kind. The path is stored absolute
// and must name an existing regular file. An existing registration for
// kind is replaced only when replace is set.
func (p *Plugins) Add(ctx context.Context, kind manifest.BuildStepKind, path string, replace bool) error {
	if kind == "" {
		return &EntryError{Registry: pluginKind, Name: string(kind), Kind: ErrInvalidEntry, Cause: errors.New("empty build step kind")}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return &EntryError{Registry: pluginKind, Name: string(kind), Kind: ErrInvalidEntry, Cause: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &EntryError{Registry: pluginKind, Name: string(kind), Kind: ErrInvalidEntry, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return &EntryError{Registry: pluginKind, Name: string(kind), Kind: ErrInvalidEntry, Cause: fmt.Errorf("%s: %w", abs, errNotRegular)}
	}
	return p.store.Update(ctx, func(entries map[string]string) error {
		if _, ok := entries[string(kind)]; ok && !replace {
			return &EntryError{Registry: pluginKind, Name: string(kind), Kind: ErrExists}
		}
		entries[string(kind)] = abs
		return nil
	})
}

// Remove unregisters the plugin for kind.
func (p *Plugins) Remove(ctx context.Context, kind manifest.BuildStepKind) error {
	return p.store.Update(ctx, func(entries map[string]string) error {
		if _, ok := entries[string(kind)]; !ok {
			return &EntryError{Registry: pluginKind, Name: string(kind), Kind: ErrNotFound}
		}
		delete(entries, string(kind))
		return nil
	})
}

// Lookup reads the module registered for kind.
func (p *Plugins) Lookup(ctx context.Context, kind manifest.BuildStepKind) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	path, ok := entries[string(kind)]
	if !ok {
		return nil, &EntryError{Registry: pluginKind, Name: string(kind), Kind: ErrNotFound}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StoreError{Path: path, Op: "read plugin", Cause: err}
	}
	return data, nil
}
