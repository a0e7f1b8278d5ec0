// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pax-hub/paxy/internal/config"
	"github.com/pax-hub/paxy/internal/discovery"
	"github.com/pax-hub/paxy/internal/install"
	"github.com/pax-hub/paxy/internal/registry"
	"github.com/pax-hub/paxy/internal/repository"
	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/internal/sandbox"
)

type (
	// App wires CLI services. Every command handler receives the App and
	// reaches configuration, registries and the installer through it.
	App struct {
		Config config.Provider
		Runner install.Runner
		stdout io.Writer
		stderr io.Writer

		// Set by the root command before any subcommand runs.
		cfg     *config.Config
		cfgPath string
		layout  config.PathLayout
		logger  *slog.Logger
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Runner install.Runner
		Stdout io.Writer
		Stderr io.Writer
	}

	// globalFlags are the persistent root flags.
	globalFlags struct {
		verbose  bool
		cfgFile  string
		dataRoot string
	}
)

// NewApp returns an App with deps applied over the defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Runner: deps.Runner,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Runner == nil {
		app.Runner = install.NewCmdRunner()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// setup loads the configuration, computes the path layout, and installs
// the logger. Flags take precedence over the configuration.
func (a *App) setup(ctx context.Context, flags *globalFlags) error {
	loaded, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.cfgFile})
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if flags.dataRoot != "" {
		cfg.Paths.DataRoot = flags.dataRoot
	}
	if flags.verbose {
		cfg.UI.Verbose = true
	}
	layout, err := cfg.Layout()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.cfgPath = loaded.Path
	a.layout = layout
	a.logger = newLogger(a.stderr, cfg.Log, cfg.UI.Verbose)
	return nil
}

func (a *App) verbose() bool {
	return a.cfg != nil && a.cfg.UI.Verbose
}

func (a *App) repositories() *registry.Repositories {
	return registry.NewRepositories(a.layout.RepositoriesFile)
}

func (a *App) plugins() *registry.Plugins {
	return registry.NewPlugins(a.layout.PluginsFile)
}

func (a *App) syncer() *repository.Syncer {
	return repository.NewSyncer(a.layout.ReposDir)
}

// index loads every package from the synced repository clones, in
// registry order. Packages that fail to build are skipped.
func (a *App) index(ctx context.Context) (*resolve.Index, error) {
	repos, err := a.repositories().List()
	if err != nil {
		return nil, err
	}
	ix, err := resolve.LoadIndex(ctx, a.syncer().Dirs(repos)...)
	if err != nil {
		return nil, fmt.Errorf("load package index: %w", err)
	}
	return ix, nil
}

// buildTree builds the package tree in dir with the configured discovery
// bounds, logging skipped entries at debug level.
func (a *App) buildTree(ctx context.Context, dir string) (*discovery.Tree, error) {
	return discovery.BuildTree(ctx, dir, a.discoveryOptions(ctx)...)
}

func (a *App) discoveryOptions(ctx context.Context) []discovery.Option {
	return append(a.cfg.DiscoveryOptions(), discovery.WithDiagnostics(func(d discovery.Diagnostic) {
		a.logger.DebugContext(ctx, "discovery", "diagnostic", d.String())
	}))
}

// installer returns an installer backed by a wazero provider. The caller
// closes the returned provider.
func (a *App) installer() (*install.Installer, *sandbox.WazeroProvider, error) {
	provider, err := sandbox.NewWazeroProvider(sandbox.WithCacheDir(a.layout.CacheDir))
	if err != nil {
		return nil, nil, err
	}
	exec := install.NewExecutor(provider,
		install.WithRunner(a.Runner),
		install.WithOutput(a.stdout, a.stderr),
	)
	return install.NewInstaller(exec, a.plugins(), a.layout), provider, nil
}
