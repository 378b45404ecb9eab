package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

var spellCmd = &cobra.Command{
	Use:   "spell",
	Short: "Scan the tree for misspellings",
	Long: `Run the typos spell checker over the repository.

Examples:
  rustle spell                    # Scan for misspellings`,
	RunE: runSpell,
}

func init() {
	rootCmd.AddCommand(spellCmd)
}

func runSpell(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runner := cargo.NewRunner(".")
	inv := cargo.NewInvocations(cfg)

	spell := inv.Spell()
	if err := runner.LookPath(spell); err != nil {
		return fmt.Errorf("%s not found, install it with `cargo install typos-cli`: %w", cfg.Checks.Typos, err)
	}

	if err := runner.RunStreaming(cmd.Context(), spell, os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("spell check failed: %w", err)
	}

	fmt.Println("✅ No misspellings found")
	return nil
}
