package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an optimized release binary",
	Long: `Build the workspace in release mode, producing optimized binaries.

Examples:
  rustle build                    # Release build
  rustle build --clean            # Remove build artifacts first
  rustle build --analyze          # Write build-analysis.json after the build`,
	RunE: runBuild,
}

var (
	buildClean   bool
	buildAnalyze bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Clean build artifacts before building")
	buildCmd.Flags().BoolVar(&buildAnalyze, "analyze", false, "Generate build analysis")
}

func runBuild(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runner := cargo.NewRunner(".")
	inv := cargo.NewInvocations(cfg)
	ctx := cmd.Context()

	fmt.Println("🔨 Starting release build...")

	if buildClean {
		fmt.Println("🧹 Cleaning build artifacts...")
		if err := runner.RunStreaming(ctx, inv.Clean(), os.Stdout, os.Stderr); err != nil {
			return fmt.Errorf("failed to clean build artifacts: %w", err)
		}
	}

	if err := runner.RunStreaming(ctx, inv.ReleaseBuild(), os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("release build failed: %w", err)
	}

	duration := time.Since(startTime)
	fmt.Printf("✅ Build completed successfully in %v\n", duration.Round(time.Millisecond))

	if buildAnalyze {
		fmt.Println("📊 Generating build analysis...")
		if err := generateBuildAnalysis(ctx, runner, inv, duration); err != nil {
			return fmt.Errorf("failed to generate build analysis: %w", err)
		}
	}

	return nil
}

// generateBuildAnalysis writes build-analysis.json describing the workspace
// members and the sizes of the binaries the build produced.
func generateBuildAnalysis(ctx context.Context, runner *cargo.Runner, inv *cargo.Invocations, duration time.Duration) error {
	ws, err := cargo.LoadWorkspace(ctx, runner, inv.Metadata())
	if err != nil {
		return err
	}

	binaries := make([]map[string]interface{}, 0)
	for _, pkg := range ws.Packages {
		for _, target := range pkg.Targets {
			if !target.IsLib("bin") {
				continue
			}
			entry := map[string]interface{}{
				"package": pkg.Name,
				"binary":  target.Name,
			}
			binPath := filepath.Join(ws.TargetDirectory, "release", target.Name)
			if info, err := os.Stat(binPath); err == nil {
				entry["size_bytes"] = info.Size()
				entry["path"] = binPath
			}
			binaries = append(binaries, entry)
		}
	}

	analysis := map[string]interface{}{
		"timestamp":      time.Now().Format(time.RFC3339),
		"duration":       duration.String(),
		"workspace_root": ws.Root,
		"members":        len(ws.Packages),
		"binaries":       binaries,
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis data: %w", err)
	}

	analysisPath := "build-analysis.json"
	if err := os.WriteFile(analysisPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write analysis file: %w", err)
	}

	fmt.Printf("   - Build analysis written to: %s\n", analysisPath)
	return nil
}
