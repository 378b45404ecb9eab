// Package cargo composes and executes Rust toolchain invocations for a
// workspace: cargo subcommands, wasm-bindgen, and the typos spell checker.
// Every invocation is validated against an allowlist before it runs.
package cargo

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/rustle-dev/rustle/internal/validation"
)

// allowedBinaries is the allowlist of external tools rustle may invoke.
var allowedBinaries = map[string]bool{
	"cargo":        true,
	"rustup":       true,
	"wasm-bindgen": true,
	"typos":        true,
}

// Invocation is a single external tool invocation
type Invocation struct {
	Bin  string
	Args []string
	Dir  string
}

// String returns the invocation as it would appear on a shell command line
func (inv Invocation) String() string {
	out := inv.Bin
	for _, arg := range inv.Args {
		out += " " + arg
	}
	return out
}

// Runner executes tool invocations rooted at a workspace directory
type Runner struct {
	workDir string
}

// NewRunner creates a runner executing in the given directory
func NewRunner(workDir string) *Runner {
	if workDir == "" {
		workDir = "."
	}
	return &Runner{workDir: workDir}
}

// WorkDir returns the directory invocations run in
func (r *Runner) WorkDir() string {
	return r.workDir
}

// Run executes the invocation and returns its combined output. The context
// bounds the subprocess lifetime; cancellation kills the process.
func (r *Runner) Run(ctx context.Context, inv Invocation) ([]byte, error) {
	if err := r.validate(inv); err != nil {
		return nil, fmt.Errorf("invocation validation failed: %w", err)
	}

	cmd := exec.CommandContext(ctx, inv.Bin, inv.Args...)
	cmd.Dir = r.dir(inv)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return output, fmt.Errorf("%s timed out: %w", inv.Bin, ctx.Err())
		}
		return output, fmt.Errorf("%s failed: %w", inv, err)
	}

	return output, nil
}

// RunStreaming executes the invocation with output streamed to the given
// writers, for interactive commands where the user watches progress live.
func (r *Runner) RunStreaming(ctx context.Context, inv Invocation, stdout, stderr io.Writer) error {
	if err := r.validate(inv); err != nil {
		return fmt.Errorf("invocation validation failed: %w", err)
	}

	cmd := exec.CommandContext(ctx, inv.Bin, inv.Args...)
	cmd.Dir = r.dir(inv)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s timed out: %w", inv.Bin, ctx.Err())
		}
		return fmt.Errorf("%s failed: %w", inv, err)
	}

	return nil
}

// LookPath reports whether the invocation's binary is installed
func (r *Runner) LookPath(inv Invocation) error {
	if _, err := exec.LookPath(inv.Bin); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", inv.Bin, err)
	}
	return nil
}

func (r *Runner) dir(inv Invocation) string {
	if inv.Dir != "" {
		return inv.Dir
	}
	return r.workDir
}

func (r *Runner) validate(inv Invocation) error {
	if err := validation.ValidateCommand(inv.Bin, allowedBinaries); err != nil {
		return err
	}

	for _, arg := range inv.Args {
		if err := validation.ValidateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument '%s': %w", arg, err)
		}
	}

	return nil
}

// ExitCode extracts the subprocess exit code from a Run error, or -1 when the
// error did not come from a process exit.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
