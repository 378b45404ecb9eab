// Package wasm builds the WebAssembly web target: cargo compile for the
// wasm32 target, wasm-bindgen glue generation, and dist directory assembly.
// This is the only path that runs wasm-bindgen; native builds never do.
package wasm

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
	"github.com/rustle-dev/rustle/internal/errors"
	"github.com/rustle-dev/rustle/internal/logging"
)

// Result is the outcome of one wasm build
type Result struct {
	Success     bool
	Skipped     bool
	Duration    time.Duration
	Diagnostics []errors.Diagnostic
	Output      string
	Err         error
}

// Metrics tracks build pipeline statistics
type Metrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	CacheHits        int64
	TotalDuration    time.Duration
	AverageDuration  time.Duration
}

// ResultCallback observes build results as they complete
type ResultCallback func(Result)

// Pipeline builds the web target and assembles the dist directory
type Pipeline struct {
	cfg     *config.Config
	runner  *cargo.Runner
	inv     *cargo.Invocations
	logger  logging.Logger
	cache   *SourceCache
	diagOut io.Writer

	metricsMutex sync.RWMutex
	metrics      Metrics

	callbackMutex sync.RWMutex
	callbacks     []ResultCallback

	wsOnce sync.Once
	ws     *cargo.Workspace
	wsErr  error
}

// NewPipeline creates a wasm build pipeline
func NewPipeline(cfg *config.Config, runner *cargo.Runner, logger logging.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		runner:  runner,
		inv:     cargo.NewInvocations(cfg),
		logger:  logger.WithComponent("wasm"),
		cache:   NewSourceCache(),
		diagOut: os.Stderr,
	}
}

// AddCallback registers an observer for build results
func (p *Pipeline) AddCallback(cb ResultCallback) {
	p.callbackMutex.Lock()
	defer p.callbackMutex.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// Invalidate forces the next Build to run even with unchanged sources
func (p *Pipeline) Invalidate() {
	p.cache.Invalidate()
}

// Build compiles the web target and assembles dist. Unchanged sources with an
// existing dist are skipped via the source cache.
func (p *Pipeline) Build(ctx context.Context) Result {
	start := time.Now()

	hash, err := HashSources(p.runner.WorkDir(), p.cfg.Watch.Paths)
	if err != nil {
		p.logger.Warn(ctx, err, "Source hashing failed, rebuilding unconditionally")
		hash = ""
	}

	if hash != "" && p.cache.Matches(hash) && p.distExists() {
		result := Result{Success: true, Skipped: true, Duration: time.Since(start)}
		p.notify(result)
		return result
	}

	result := p.build(ctx)
	result.Duration = time.Since(start)

	p.recordBuild(result)
	if result.Success && hash != "" {
		p.cache.Store(hash)
	}
	p.notify(result)

	return result
}

func (p *Pipeline) build(ctx context.Context) Result {
	p.logger.Info(ctx, "Building web target", "target", p.cfg.Wasm.Target, "profile", p.cfg.Wasm.Profile)

	output, err := p.runner.Run(ctx, p.inv.WasmBuild())
	if err != nil {
		diagnostics := errors.ParseCargoMessages(output)
		p.logger.Error(ctx, err, "Wasm compile failed", "diagnostics", len(diagnostics))
		p.printDiagnostics(diagnostics)
		return Result{
			Diagnostics: diagnostics,
			Output:      string(output),
			Err:         fmt.Errorf("wasm compile failed: %w", err),
		}
	}

	ws, err := p.workspace(ctx)
	if err != nil {
		return Result{Err: err}
	}

	pkg, err := ws.WasmPackage(p.cfg.Wasm.Crate)
	if err != nil {
		return Result{Err: fmt.Errorf("selecting wasm crate: %w", err)}
	}

	artifact := ws.WasmArtifact(pkg, p.cfg.Wasm.Target, p.cfg.Wasm.Profile)
	if _, err := os.Stat(artifact); err != nil {
		return Result{Err: fmt.Errorf("wasm artifact %s not found after build: %w", artifact, err)}
	}

	distDir := p.distDir()
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return Result{Err: fmt.Errorf("creating dist directory: %w", err)}
	}

	bindgenOut, err := p.runner.Run(ctx, p.inv.Bindgen(artifact))
	if err != nil {
		p.logger.Error(ctx, err, "wasm-bindgen failed")
		return Result{
			Output: string(bindgenOut),
			Err:    fmt.Errorf("wasm-bindgen failed: %w", err),
		}
	}

	if err := EnsureIndexHTML(distDir, pkg.Name); err != nil {
		return Result{Err: err}
	}

	if err := CopyAssets(filepath.Join(p.runner.WorkDir(), p.cfg.Wasm.Assets), distDir); err != nil {
		return Result{Err: fmt.Errorf("copying assets: %w", err)}
	}

	// Warnings from a successful compile still surface in the overlay
	diagnostics := errors.ParseCargoMessages(output)

	p.logger.Info(ctx, "Web build complete", "crate", pkg.Name, "dist", distDir)
	return Result{Success: true, Diagnostics: diagnostics}
}

// printDiagnostics writes rendered compiler output to the terminal, so a
// failed rebuild under serve is readable without the browser overlay.
func (p *Pipeline) printDiagnostics(diags []errors.Diagnostic) {
	if rendered := errors.FormatForTerminal(diags); rendered != "" {
		fmt.Fprint(p.diagOut, rendered)
	}
}

// DistDir returns the absolute dist directory path
func (p *Pipeline) DistDir() string {
	return p.distDir()
}

// GetMetrics returns a copy of the current pipeline metrics
func (p *Pipeline) GetMetrics() Metrics {
	p.metricsMutex.RLock()
	defer p.metricsMutex.RUnlock()
	m := p.metrics
	m.CacheHits = p.cache.Hits()
	return m
}

func (p *Pipeline) workspace(ctx context.Context) (*cargo.Workspace, error) {
	p.wsOnce.Do(func() {
		p.ws, p.wsErr = cargo.LoadWorkspace(ctx, p.runner, p.inv.Metadata())
	})
	return p.ws, p.wsErr
}

func (p *Pipeline) distDir() string {
	return filepath.Join(p.runner.WorkDir(), p.cfg.Wasm.Dist)
}

func (p *Pipeline) distExists() bool {
	_, err := os.Stat(filepath.Join(p.distDir(), "index.html"))
	return err == nil
}

func (p *Pipeline) recordBuild(result Result) {
	p.metricsMutex.Lock()
	defer p.metricsMutex.Unlock()

	p.metrics.TotalBuilds++
	if result.Success {
		p.metrics.SuccessfulBuilds++
	} else {
		p.metrics.FailedBuilds++
	}
	p.metrics.TotalDuration += result.Duration
	p.metrics.AverageDuration = p.metrics.TotalDuration / time.Duration(p.metrics.TotalBuilds)
}

func (p *Pipeline) notify(result Result) {
	p.callbackMutex.RLock()
	callbacks := p.callbacks
	p.callbackMutex.RUnlock()

	for _, cb := range callbacks {
		cb(result)
	}
}
