// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/pax-hub/paxy/pkg/platform"
)

type (
	// RunOptions configures one host command.
	RunOptions struct {
		// Dir is the working directory.
		Dir string
		// Env is added to the inherited environment as KEY=VALUE pairs.
		Env []string
		// Stdout and Stderr receive the output as it is produced, in
		// addition to the copy kept in RunResult.
		Stdout io.Writer
		Stderr io.Writer
	}

	// RunResult is the captured output of a host command. ExitCode is -1
	// when the command did not start or was killed by a signal.
	RunResult struct {
		Stdout   []byte
		Stderr   []byte
		ExitCode int
	}

	// Runner spawns host commands. A command that exits non-zero returns
	// an error together with its RunResult.
	Runner interface {
		Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
	}

	// CmdRunner runs commands with os/exec. Inside a Flatpak or Snap the
	// command is routed to the host through the confinement's escape hatch.
	CmdRunner struct {
		Confinement platform.Confinement
	}
)

// NewCmdRunner returns a CmdRunner for the sandbox the process runs in.
func NewCmdRunner() CmdRunner {
	return CmdRunner{Confinement: platform.DetectConfinement()}
}

// Run implements Runner.
func (r CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	argv := r.argv(append([]string{command}, args...), opts)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriter := io.Writer(&stdoutBuf)
	if opts.Stdout != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, opts.Stdout)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, opts.Stderr)
	}

	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	err := cmd.Run()
	res := RunResult{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes(), ExitCode: -1}
	if err == nil {
		res.ExitCode = 0
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	return res, err
}

// argv builds the final command line. flatpak-spawn does not forward the
// caller's working directory or environment, so both are passed as flags.
func (r CmdRunner) argv(argv []string, opts RunOptions) []string {
	if r.Confinement != platform.ConfinementFlatpak {
		return r.Confinement.HostArgv(argv)
	}
	out := []string{"flatpak-spawn", "--host"}
	if opts.Dir != "" {
		out = append(out, "--directory="+opts.Dir)
	}
	for _, kv := range opts.Env {
		out = append(out, "--env="+kv)
	}
	return append(out, argv...)
}

var _ Runner = CmdRunner{}
