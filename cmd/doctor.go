package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the development environment",
	Long: `Diagnose your development environment and check for toolchain issues.

The doctor command checks for:

- Toolchain availability (cargo, rustup, wasm-bindgen, typos)
- The WebAssembly compilation target
- Workspace manifest problems
- Port conflicts for the dev server

Examples:
  rustle doctor                   # Full environment diagnosis
  rustle doctor --verbose         # Detailed diagnostic output
  rustle doctor --format json     # Output as JSON for tooling`,
	RunE: runDoctor,
}

var (
	doctorVerbose bool
	doctorFormat  string
)

// DiagnosticResult represents the result of a diagnostic check
type DiagnosticResult struct {
	Name       string `json:"name" yaml:"name"`
	Category   string `json:"category" yaml:"category"`
	Status     string `json:"status" yaml:"status"` // "ok", "warning", "error", "info"
	Message    string `json:"message" yaml:"message"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// DoctorReport represents the complete diagnostic report
type DoctorReport struct {
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
	Results   []DiagnosticResult `json:"results" yaml:"results"`
	Summary   ReportSummary      `json:"summary" yaml:"summary"`
}

// ReportSummary provides an overview of diagnostic results
type ReportSummary struct {
	Total    int `json:"total" yaml:"total"`
	OK       int `json:"ok" yaml:"ok"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Errors   int `json:"errors" yaml:"errors"`
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVarP(&doctorVerbose, "verbose", "v", false, "Show verbose diagnostic information")
	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", "table", "Output format (table|json|yaml)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := cmd.Context()
	runner := cargo.NewRunner(".")
	inv := cargo.NewInvocations(cfg)

	report := &DoctorReport{
		Timestamp: time.Now(),
		Results:   []DiagnosticResult{},
	}

	diagnostics := []func(context.Context) DiagnosticResult{
		func(context.Context) DiagnosticResult { return checkConfiguration() },
		func(ctx context.Context) DiagnosticResult { return checkCargo(ctx, runner, cfg) },
		func(context.Context) DiagnosticResult { return checkManifest() },
		func(ctx context.Context) DiagnosticResult { return checkWasmTarget(ctx, runner, inv, cfg) },
		func(context.Context) DiagnosticResult { return checkTool(runner, cfg.Wasm.Bindgen, "web builds", "cargo install wasm-bindgen-cli") },
		func(context.Context) DiagnosticResult { return checkTool(runner, cfg.Checks.Typos, "spell checking", "cargo install typos-cli") },
		func(context.Context) DiagnosticResult { return checkPortAvailability(cfg) },
	}

	for _, diagnose := range diagnostics {
		result := diagnose(ctx)
		report.Results = append(report.Results, result)

		report.Summary.Total++
		switch result.Status {
		case "ok":
			report.Summary.OK++
		case "warning":
			report.Summary.Warnings++
		case "error":
			report.Summary.Errors++
		}
	}

	if err := writeDoctorReport(report); err != nil {
		return err
	}

	if report.Summary.Errors > 0 {
		return fmt.Errorf("%d diagnostic check(s) failed", report.Summary.Errors)
	}

	return nil
}

func checkConfiguration() DiagnosticResult {
	result := DiagnosticResult{Name: "configuration", Category: "config"}

	if used := viper.ConfigFileUsed(); used != "" {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Using config file %s", used)
		return result
	}

	result.Status = "info"
	result.Message = "No .rustle.yml found, using defaults"
	result.Suggestion = "Run 'rustle init' to write a starter config"
	return result
}

func checkCargo(ctx context.Context, runner *cargo.Runner, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{Name: "cargo", Category: "toolchain"}

	inv := cargo.Invocation{Bin: cfg.Build.Cargo, Args: []string{"--version"}}
	if err := runner.LookPath(inv); err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("%s not found in PATH", cfg.Build.Cargo)
		result.Suggestion = "Install the Rust toolchain from https://rustup.rs"
		return result
	}

	output, err := runner.Run(ctx, inv)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("cargo --version failed: %v", err)
		return result
	}

	result.Status = "ok"
	result.Message = strings.TrimSpace(string(output))
	return result
}

func checkManifest() DiagnosticResult {
	result := DiagnosticResult{Name: "manifest", Category: "workspace"}

	path, err := cargo.FindManifest(".")
	if err != nil {
		result.Status = "error"
		result.Message = "No Cargo.toml found"
		result.Suggestion = "Run rustle from inside a cargo workspace"
		return result
	}

	manifest, err := cargo.ReadManifest(path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse %s: %v", path, err)
		return result
	}

	switch {
	case manifest.IsWorkspace():
		result.Status = "ok"
		result.Message = fmt.Sprintf("Workspace with %d member(s) at %s", len(manifest.Workspace.Members), path)
	case manifest.Package.Name != "":
		result.Status = "ok"
		result.Message = fmt.Sprintf("Package '%s' %s at %s", manifest.Package.Name, manifest.Package.Version, path)
		if !manifest.HasWasmLib() {
			result.Status = "warning"
			result.Suggestion = `Add crate-type = ["cdylib", "rlib"] under [lib] for web builds`
		}
	default:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%s has neither [package] nor [workspace] members", path)
	}

	return result
}

func checkWasmTarget(ctx context.Context, runner *cargo.Runner, inv *cargo.Invocations, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{Name: "wasm-target", Category: "toolchain"}

	installed := inv.TargetInstalled()
	if err := runner.LookPath(installed); err != nil {
		result.Status = "warning"
		result.Message = "rustup not found, cannot verify installed targets"
		return result
	}

	output, err := runner.Run(ctx, installed)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("rustup target list failed: %v", err)
		return result
	}

	if strings.Contains(string(output), cfg.Wasm.Target) {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Target %s is installed", cfg.Wasm.Target)
		return result
	}

	result.Status = "error"
	result.Message = fmt.Sprintf("Target %s is not installed", cfg.Wasm.Target)
	result.Suggestion = fmt.Sprintf("Run: rustup target add %s", cfg.Wasm.Target)
	return result
}

func checkTool(runner *cargo.Runner, bin, purpose, install string) DiagnosticResult {
	result := DiagnosticResult{Name: bin, Category: "toolchain"}

	if err := runner.LookPath(cargo.Invocation{Bin: bin}); err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%s not found, needed for %s", bin, purpose)
		result.Suggestion = fmt.Sprintf("Run: %s", install)
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%s is installed", bin)
	return result
}

func checkPortAvailability(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{Name: "port", Category: "server"}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Port %d is in use", cfg.Server.Port)
		result.Suggestion = "Pick another port with --port or server.port in .rustle.yml"
		return result
	}
	listener.Close()

	result.Status = "ok"
	result.Message = fmt.Sprintf("Port %d is available", cfg.Server.Port)
	return result
}

func writeDoctorReport(report *DoctorReport) error {
	switch doctorFormat {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Print(string(data))
	case "table":
		fmt.Println("🔍 Rustle Development Environment Doctor")
		fmt.Println("========================================")
		fmt.Println()

		for _, result := range report.Results {
			marker := "✅"
			switch result.Status {
			case "warning":
				marker = "⚠️"
			case "error":
				marker = "❌"
			case "info":
				marker = "ℹ️"
			}
			fmt.Printf("%s %-14s %s\n", marker, result.Name, result.Message)
			if result.Suggestion != "" && (doctorVerbose || result.Status != "ok") {
				fmt.Printf("   ↳ %s\n", result.Suggestion)
			}
		}

		fmt.Println()
		fmt.Printf("Summary: %d ok, %d warnings, %d errors\n",
			report.Summary.OK, report.Summary.Warnings, report.Summary.Errors)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", doctorFormat)
	}

	return nil
}
