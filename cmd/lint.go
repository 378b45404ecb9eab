package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Run clippy with warnings treated as errors",
	Long: `Run static analysis over all workspace targets and features. Any lint
warning fails the run; warnings are always elevated to errors.

Examples:
  rustle lint                     # Lint the whole workspace`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runner := cargo.NewRunner(".")
	inv := cargo.NewInvocations(cfg)

	fmt.Println("🔍 Running lints...")
	if err := runner.RunStreaming(cmd.Context(), inv.Lint(), os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("lint failed: %w", err)
	}

	fmt.Println("✅ No lint warnings")
	return nil
}
