// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/internal/resolve"
	"github.com/pax-hub/paxy/internal/sandbox"
	"github.com/pax-hub/paxy/pkg/manifest"
)

const (
	// StateStaged means the sandbox layout is validated and locked.
	StateStaged State = "staged"
	// StatePluginRunning means build steps are being executed.
	StatePluginRunning State = "plugin_running"
	// StatePluginFailed is terminal: a build step's plugin failed.
	StatePluginFailed State = "plugin_failed"
	// StateInstructionsRunning means install statements are being run on the host.
	StateInstructionsRunning State = "instructions_running"
	// StateSucceeded is terminal: every step and statement succeeded.
	StateSucceeded State = "succeeded"
	// StateInstructionFailed is terminal: the install string was malformed
	// or a statement failed.
	StateInstructionFailed State = "instruction_failed"

	// messageLimit bounds how much plugin or command output ends up in an error.
	messageLimit = 2048
)

// ErrInvalidRequest is returned for a request that names no version.
var ErrInvalidRequest = errors.New("invalid install request")

type (
	// State is a phase of one execution.
	State string

	// PluginRegistry supplies the WebAssembly plugin for a build step kind.
	PluginRegistry interface {
		Lookup(ctx context.Context, kind manifest.BuildStepKind) ([]byte, error)
	}

	// Request asks for one resolved version to be built and installed.
	// Source is mounted read-only; Scratch and Staging read-write. All
	// three must exist and must not be nested in each other.
	Request struct {
		Version *resolve.ResolvedVersion
		Source  string
		Scratch string
		Staging string
	}

	// StepReport records one plugin run.
	StepReport struct {
		Kind   manifest.BuildStepKind
		Result *sandbox.Result
	}

	// CommandReport records one install statement that was spawned.
	CommandReport struct {
		Statement Statement
		ExitCode  int
	}

	// Outcome is what happened during one execution. State is terminal once
	// Execute returns; Transitions lists every state entered, in order.
	Outcome struct {
		ID          string
		State       State
		Transitions []State
		Steps       []StepReport
		Commands    []CommandReport
		Err         error
	}

	// Executor runs build steps in a sandbox and install statements on the
	// host. Requests that share a scratch or staging directory are
	// serialised; others run concurrently.
	Executor struct {
		provider sandbox.Provider
		runner   Runner
		stdout   io.Writer
		stderr   io.Writer
		locks    *dirLocks
	}

	// Option configures an Executor.
	Option func(*Executor)
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StatePluginFailed, StateSucceeded, StateInstructionFailed:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the execution finished successfully.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.State == StateSucceeded
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Transitions = append(o.Transitions, s)
}

func (o *Outcome) fail(s State, err error) (*Outcome, error) {
	o.enter(s)
	o.Err = err
	return o, err
}

// WithRunner replaces the host command runner.
func WithRunner(r Runner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithOutput streams plugin and command output to stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewExecutor returns an Executor that runs plugins with provider.
func NewExecutor(provider sandbox.Provider, opts ...Option) *Executor {
	e := &Executor{
		provider: provider,
		runner:   NewCmdRunner(),
		stdout:   io.Discard,
		stderr:   io.Discard,
		locks:    newDirLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute builds and installs req.Version. Build steps run in declaration
// order, each through the plugin plugins returns for its kind; then the
// install string is parsed and its statements run in order with the
// scratch directory as working directory. The first failure ends the
// execution. A layout or locking problem is returned without an Outcome;
// otherwise the Outcome is returned even on failure and its Err is the
// returned error.
func (e *Executor) Execute(ctx context.Context, req Request, plugins PluginRegistry) (*Outcome, error) {
	if req.Version == nil {
		return nil, fmt.Errorf("%w: no version", ErrInvalidRequest)
	}
	layout := sandbox.Layout{Source: req.Source, Scratch: req.Scratch, Staging: req.Staging}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	release, err := e.locks.lock(ctx, req.Scratch, req.Staging)
	if err != nil {
		return nil, fmt.Errorf("lock work directories: %w", err)
	}
	defer release()

	rv := req.Version
	log := ctxlog.FromContext(ctx).With("version", rv.ID())
	out := &Outcome{ID: rv.ID()}
	out.enter(StateStaged)

	out.enter(StatePluginRunning)
	for _, step := range rv.Version.Steps {
		if err := ctx.Err(); err != nil {
			return out.fail(StatePluginFailed, err)
		}
		log.Debug("running build step", "kind", step.Kind())
		res, err := e.runStep(ctx, rv, layout, step, plugins)
		if res != nil {
			out.Steps = append(out.Steps, StepReport{Kind: step.Kind(), Result: res})
		}
		if err != nil {
			log.Debug("build step failed", "kind", step.Kind(), "error", err)
			return out.fail(StatePluginFailed, err)
		}
	}

	out.enter(StateInstructionsRunning)
	stmts, err := ParseInstructions(rv.Version.Install)
	if err != nil {
		return out.fail(StateInstructionFailed, err)
	}
	env := []string{
		"PAXY_SOURCE=" + req.Source,
		"PAXY_SCRATCH=" + req.Scratch,
		"PAXY_STAGING=" + req.Staging,
	}
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return out.fail(StateInstructionFailed, err)
		}
		log.Info("running install statement", "command", stmt.String())
		res, err := e.runner.Run(ctx, stmt.Argv[0], stmt.Argv[1:], RunOptions{
			Dir:    req.Scratch,
			Env:    env,
			Stdout: e.stdout,
			Stderr: e.stderr,
		})
		if err != nil && res.ExitCode == 0 {
			res.ExitCode = -1
		}
		out.Commands = append(out.Commands, CommandReport{Statement: stmt, ExitCode: res.ExitCode})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out.fail(StateInstructionFailed, ctxErr)
			}
			return out.fail(StateInstructionFailed, &HostCommandError{
				Statement: stmt.Text,
				ExitCode:  res.ExitCode,
				Stderr:    clip(res.Stderr),
				Cause:     err,
			})
		}
	}

	out.enter(StateSucceeded)
	log.Debug("install finished")
	return out, nil
}

// runStep runs the plugin for one build step. A Result is returned
// whenever the plugin ran to completion, including unsuccessful ones.
func (e *Executor) runStep(ctx context.Context, rv *resolve.ResolvedVersion, layout sandbox.Layout, step manifest.BuildStep, plugins PluginRegistry) (*sandbox.Result, error) {
	kind := step.Kind()
	if plugins == nil {
		return nil, &PluginLoadError{Kind: kind, Cause: errors.New("no plugin registry")}
	}
	module, err := plugins.Lookup(ctx, kind)
	if err != nil {
		return nil, &PluginLoadError{Kind: kind, Cause: err}
	}
	fields, err := json.Marshal(manifest.StepFields(step))
	if err != nil {
		return nil, &PluginLoadError{Kind: kind, Cause: fmt.Errorf("encode step: %w", err)}
	}

	var captured bytes.Buffer
	res, err := e.provider.Run(ctx, sandbox.Invocation{
		Name:   string(kind),
		Module: module,
		Env: map[string]string{
			"PAXY_STEP_KIND": string(kind),
			"PAXY_STEP":      string(fields),
			"PAXY_VERSION":   rv.Version.Number.String(),
			"PAXY_PACKAGE":   rv.Ref().String(),
			"PAXY_SOURCE":    sandbox.GuestSource,
			"PAXY_SCRATCH":   sandbox.GuestScratch,
			"PAXY_STAGING":   sandbox.GuestStaging,
		},
		Layout: layout,
		Stdout: io.MultiWriter(&captured, e.stdout),
		Stderr: io.MultiWriter(&captured, e.stderr),
	})
	switch {
	case err == nil:
	case errors.Is(err, sandbox.ErrInvalidModule), errors.Is(err, sandbox.ErrNoEntrypoint):
		return nil, &PluginLoadError{Kind: kind, Cause: err}
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, &PluginInvocationError{Kind: kind, ExitCode: -1, Message: clip(captured.Bytes()), Cause: err}
	}
	if !res.Succeeded() {
		return res, &PluginInvocationError{Kind: kind, ExitCode: res.Code(), Message: clip(captured.Bytes())}
	}
	return res, nil
}

// clip trims output for inclusion in an error, keeping the tail.
func clip(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > messageLimit {
		s = "..." + s[len(s)-messageLimit:]
	}
	return s
}
