package cargo

import "github.com/rustle-dev/rustle/internal/config"

// Invocations composes the toolchain command lines rustle runs. Flag choices
// mirror the project's contributor workflow: workspace-wide operations, all
// targets and features covered, and clippy warnings elevated to errors.
type Invocations struct {
	cfg *config.Config
}

// NewInvocations creates an invocation composer for the given configuration
func NewInvocations(cfg *config.Config) *Invocations {
	return &Invocations{cfg: cfg}
}

// Check is the quick compile check: type-checks every workspace target
// without producing artifacts.
func (c *Invocations) Check() Invocation {
	args := []string{"check", "--workspace", "--all-targets"}
	return c.cargo(c.withFeatures(args))
}

// ReleaseBuild produces an optimized native binary
func (c *Invocations) ReleaseBuild() Invocation {
	args := []string{"build", "--release"}
	return c.cargo(c.withFeatures(args))
}

// TestOptions selects which tests run
type TestOptions struct {
	// Name runs only tests matching the filter; empty runs everything
	Name string
	// Doc runs documentation tests instead of the regular suite
	Doc bool
	// NoCapture shows test stdout even for passing tests
	NoCapture bool
}

// Test runs the test suite across all targets and features
func (c *Invocations) Test(opts TestOptions) Invocation {
	args := []string{"test", "--workspace", "--all-features"}
	if opts.Doc {
		args = []string{"test", "--workspace", "--doc"}
	}
	args = c.withLocked(args)
	if opts.Name != "" {
		args = append(args, opts.Name)
	}
	// Harness flags go after the separator so cargo does not consume them
	if opts.NoCapture {
		args = append(args, "--", "--nocapture")
	}
	return Invocation{Bin: c.cfg.Build.Cargo, Args: args}
}

// FmtCheck verifies formatting without modifying files. Because nothing is
// written, running it repeatedly without edits yields the same result.
// rustfmt takes no feature or lockfile flags.
func (c *Invocations) FmtCheck() Invocation {
	return Invocation{Bin: c.cfg.Build.Cargo, Args: []string{"fmt", "--all", "--", "--check"}}
}

// Lint runs clippy with warnings elevated to errors. The -D warnings flag is
// always appended and is not configurable.
func (c *Invocations) Lint() Invocation {
	args := []string{"clippy", "--workspace", "--all-targets", "--all-features"}
	args = c.withLocked(args)
	args = append(args, "--", "-D", "warnings")
	return Invocation{Bin: c.cfg.Build.Cargo, Args: args}
}

// Spell scans the tree for misspellings
func (c *Invocations) Spell() Invocation {
	return Invocation{Bin: c.cfg.Checks.Typos}
}

// WasmBuild compiles the workspace (or the configured crate) for the
// WebAssembly target, emitting machine-readable diagnostics.
func (c *Invocations) WasmBuild() Invocation {
	args := []string{"build", "--target", c.cfg.Wasm.Target, "--message-format=json-render-diagnostics"}
	if c.cfg.Wasm.Crate != "" {
		args = append(args, "-p", c.cfg.Wasm.Crate)
	}
	if c.cfg.Wasm.Profile == "release" {
		args = append(args, "--release")
	}
	return c.cargo(args)
}

// Bindgen generates JS glue for a compiled wasm artifact into the dist dir
func (c *Invocations) Bindgen(wasmPath string) Invocation {
	return Invocation{
		Bin: c.cfg.Wasm.Bindgen,
		Args: []string{
			"--target", "web",
			"--no-typescript",
			"--out-dir", c.cfg.Wasm.Dist,
			wasmPath,
		},
	}
}

// Clean removes cargo build artifacts
func (c *Invocations) Clean() Invocation {
	return Invocation{Bin: c.cfg.Build.Cargo, Args: []string{"clean"}}
}

// Metadata emits the workspace manifest graph as JSON
func (c *Invocations) Metadata() Invocation {
	return Invocation{
		Bin:  c.cfg.Build.Cargo,
		Args: []string{"metadata", "--format-version", "1", "--no-deps"},
	}
}

// TargetInstalled asks rustup whether the wasm target is installed
func (c *Invocations) TargetInstalled() Invocation {
	return Invocation{Bin: "rustup", Args: []string{"target", "list", "--installed"}}
}

func (c *Invocations) cargo(args []string) Invocation {
	return Invocation{Bin: c.cfg.Build.Cargo, Args: c.withLocked(args)}
}

func (c *Invocations) withFeatures(args []string) []string {
	for _, feature := range c.cfg.Build.Features {
		args = append(args, "--features", feature)
	}
	return args
}

func (c *Invocations) withLocked(args []string) []string {
	if c.cfg.Build.Locked {
		args = append(args, "--locked")
	}
	return args
}
