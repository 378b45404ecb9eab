package cargo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustle-dev/rustle/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Build: config.BuildConfig{Cargo: "cargo"},
		Wasm: config.WasmConfig{
			Target:  "wasm32-unknown-unknown",
			Profile: "dev",
			Bindgen: "wasm-bindgen",
			Dist:    "dist",
		},
		Checks: config.ChecksConfig{Typos: "typos"},
	}
}

func TestCheckInvocation(t *testing.T) {
	inv := NewInvocations(testConfig()).Check()

	assert.Equal(t, "cargo", inv.Bin)
	assert.Equal(t, []string{"check", "--workspace", "--all-targets"}, inv.Args)
}

func TestCheckInvocationWithFeaturesAndLock(t *testing.T) {
	cfg := testConfig()
	cfg.Build.Locked = true
	cfg.Build.Features = []string{"web", "metrics"}

	inv := NewInvocations(cfg).Check()

	assert.Equal(t, "cargo check --workspace --all-targets --features web --features metrics --locked", inv.String())
}

func TestReleaseBuildInvocation(t *testing.T) {
	inv := NewInvocations(testConfig()).ReleaseBuild()
	assert.Equal(t, []string{"build", "--release"}, inv.Args)
}

func TestTestInvocation(t *testing.T) {
	tests := []struct {
		name     string
		locked   bool
		opts     TestOptions
		expected string
	}{
		{
			name:     "default suite",
			opts:     TestOptions{},
			expected: "cargo test --workspace --all-features",
		},
		{
			name:     "named test",
			opts:     TestOptions{Name: "render_frame"},
			expected: "cargo test --workspace --all-features render_frame",
		},
		{
			name:     "doc tests",
			opts:     TestOptions{Doc: true},
			expected: "cargo test --workspace --doc",
		},
		{
			name:     "nocapture goes after the separator",
			opts:     TestOptions{NoCapture: true},
			expected: "cargo test --workspace --all-features -- --nocapture",
		},
		{
			name:     "locked stays before the separator",
			locked:   true,
			opts:     TestOptions{Name: "parse", NoCapture: true},
			expected: "cargo test --workspace --all-features --locked parse -- --nocapture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Build.Locked = tt.locked
			inv := NewInvocations(cfg).Test(tt.opts)
			assert.Equal(t, tt.expected, inv.String())
		})
	}
}

func TestFmtCheckInvocation(t *testing.T) {
	cfg := testConfig()
	cfg.Build.Locked = true
	cfg.Build.Features = []string{"web"}

	inv := NewInvocations(cfg).FmtCheck()

	assert.Equal(t, []string{"fmt", "--all", "--", "--check"}, inv.Args)
	assert.NotContains(t, inv.Args, "--locked")
	assert.NotContains(t, inv.Args, "--features")
}

func TestLintInvocationAlwaysDeniesWarnings(t *testing.T) {
	for _, locked := range []bool{false, true} {
		cfg := testConfig()
		cfg.Build.Locked = locked

		inv := NewInvocations(cfg).Lint()

		assert.Equal(t, "clippy", inv.Args[0])
		assert.Contains(t, inv.Args, "--all-targets")
		assert.Contains(t, inv.Args, "--all-features")
		require.True(t, strings.HasSuffix(inv.String(), "-- -D warnings"),
			"clippy must elevate warnings to errors: %s", inv)
	}
}

func TestWasmBuildInvocation(t *testing.T) {
	cfg := testConfig()
	inv := NewInvocations(cfg).WasmBuild()

	assert.Contains(t, inv.Args, "--target")
	assert.Contains(t, inv.Args, "wasm32-unknown-unknown")
	assert.Contains(t, inv.Args, "--message-format=json-render-diagnostics")
	assert.NotContains(t, inv.Args, "--release")
	assert.NotContains(t, inv.Args, "-p")
}

func TestWasmBuildInvocationReleaseAndCrate(t *testing.T) {
	cfg := testConfig()
	cfg.Wasm.Crate = "my-app"
	cfg.Wasm.Profile = "release"

	inv := NewInvocations(cfg).WasmBuild()

	assert.Contains(t, inv.Args, "-p")
	assert.Contains(t, inv.Args, "my-app")
	assert.Contains(t, inv.Args, "--release")
}

func TestBindgenInvocation(t *testing.T) {
	inv := NewInvocations(testConfig()).Bindgen("target/wasm32-unknown-unknown/debug/my_app.wasm")

	assert.Equal(t, "wasm-bindgen", inv.Bin)
	assert.Equal(t, []string{
		"--target", "web",
		"--no-typescript",
		"--out-dir", "dist",
		"target/wasm32-unknown-unknown/debug/my_app.wasm",
	}, inv.Args)
}

func TestMetadataInvocation(t *testing.T) {
	inv := NewInvocations(testConfig()).Metadata()
	assert.Equal(t, "cargo metadata --format-version 1 --no-deps", inv.String())
}

func TestSpellInvocation(t *testing.T) {
	inv := NewInvocations(testConfig()).Spell()
	assert.Equal(t, "typos", inv.Bin)
	assert.Empty(t, inv.Args)
}
