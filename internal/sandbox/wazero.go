// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental/sysfs"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/pax-hub/paxy/internal/ctxlog"
)

type (
	// WazeroProvider runs plugins in a fresh wazero runtime per invocation.
	// Compiled code is cached across invocations.
	WazeroProvider struct {
		cache wazero.CompilationCache
	}

	// WazeroOption configures a WazeroProvider.
	WazeroOption func(*wazeroOptions)

	wazeroOptions struct {
		cacheDir string
	}
)

// WithCacheDir persists compiled modules under dir between processes.
func WithCacheDir(dir string) WazeroOption {
	return func(o *wazeroOptions) {
		o.cacheDir = dir
	}
}

// NewWazeroProvider returns a provider. Close it to release the compilation cache.
func NewWazeroProvider(opts ...WazeroOption) (*WazeroProvider, error) {
	var o wazeroOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheDir == "" {
		return &WazeroProvider{cache: wazero.NewCompilationCache()}, nil
	}
	cache, err := wazero.NewCompilationCacheWithDir(o.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("open plugin compilation cache %s: %w", o.cacheDir, err)
	}
	return &WazeroProvider{cache: cache}, nil
}

// Close releases the compilation cache.
func (p *WazeroProvider) Close(ctx context.Context) error {
	return p.cache.Close(ctx)
}

// Run implements Provider. The module sees WASI with the Layout mounts as
// its only file system and no path may lead outside them. A reactor's
// _initialize export runs before the entrypoint; _start never runs.
// Cancelling ctx closes the module and Run returns the context error.
func (p *WazeroProvider) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if err := inv.Layout.Validate(); err != nil {
		return nil, err
	}
	entry := inv.entrypoint()
	logger := ctxlog.FromContext(ctx).With("plugin", inv.Name)

	cfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithCompilationCache(p.cache)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, inv.Module)
	if err != nil {
		return nil, &ModuleError{Name: inv.Name, Kind: ErrInvalidModule, Cause: err}
	}
	def, ok := compiled.ExportedFunctions()[entry]
	if !ok {
		return nil, &ModuleError{Name: inv.Name, Kind: ErrNoEntrypoint, Cause: fmt.Errorf("no exported function %q", entry)}
	}
	if len(def.ParamTypes()) != 0 || len(def.ResultTypes()) > 1 ||
		(len(def.ResultTypes()) == 1 && def.ResultTypes()[0] != api.ValueTypeI32) {
		return nil, &ModuleError{
			Name:  inv.Name,
			Kind:  ErrNoEntrypoint,
			Cause: fmt.Errorf("%q must take no parameters and return nothing or an i32", entry),
		}
	}

	fsConfig := wazero.NewFSConfig()
	for _, m := range inv.Layout.Mounts() {
		fsConfig = fsConfig.(sysfs.FSConfig).WithSysFSMount(mountFS(inv.Layout, m), m.Guest)
	}
	modConfig := wazero.NewModuleConfig().
		WithName(inv.Name).
		WithArgs(inv.Name).
		WithFSConfig(fsConfig).
		WithStdout(writerOrDiscard(inv.Stdout)).
		WithStderr(writerOrDiscard(inv.Stderr)).
		WithSysWalltime().
		WithSysNanotime().
		WithStartFunctions("_initialize")
	for _, k := range inv.sortedEnv() {
		modConfig = modConfig.WithEnv(k, inv.Env[k])
	}

	mod, err := rt.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ModuleError{Name: inv.Name, Kind: ErrInvalidModule, Cause: err}
	}
	defer mod.Close(ctx)

	logger.Debug("invoking plugin", "entrypoint", entry)
	results, err := mod.ExportedFunction(entry).Call(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			logger.Debug("plugin exited", "code", exitErr.ExitCode())
			return &Result{Exited: true, ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrTrap, err)
	}

	res := &Result{}
	if len(results) == 1 {
		res.Status = api.DecodeI32(results[0])
	}
	logger.Debug("plugin returned", "status", res.Status)
	return res, nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
