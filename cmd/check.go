package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Type-check all workspace targets without producing artifacts",
	Long: `Run the quick compile check: type-checks every target in the workspace
without producing build artifacts. This is the fastest way to validate that
the code still compiles.

Examples:
  rustle check                    # Check the whole workspace`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runner := cargo.NewRunner(".")
	inv := cargo.NewInvocations(cfg)

	start := time.Now()
	fmt.Println("🔎 Running compile check...")

	if err := runner.RunStreaming(cmd.Context(), inv.Check(), os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("compile check failed: %w", err)
	}

	fmt.Printf("✅ Compile check passed in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
