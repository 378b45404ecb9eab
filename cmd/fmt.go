package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt",
	Short: "Verify source formatting without modifying files",
	Long: `Check that every source file is formatted. No files are modified, so
running this twice without intervening edits always yields the same result.

Examples:
  rustle fmt                      # Verify formatting across the workspace`,
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runner := cargo.NewRunner(".")
	inv := cargo.NewInvocations(cfg)

	if err := runner.RunStreaming(cmd.Context(), inv.FmtCheck(), os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("formatting check failed: %w", err)
	}

	fmt.Println("✅ Formatting clean")
	return nil
}
