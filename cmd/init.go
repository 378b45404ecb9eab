package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a starter .rustle.yml configuration",
	Long: `Write a starter .rustle.yml configuration file in the current directory.

The generated file documents the common settings: dev server port, wasm
crate selection, watch paths, and which checks the ci command runs.

Examples:
  rustle init              # Write .rustle.yml, refusing to overwrite
  rustle init --force      # Overwrite an existing .rustle.yml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

const starterConfig = `# Rustle configuration file
server:
  port: 8420
  host: localhost
  open: true

build:
  locked: true

wasm:
  # crate: my-app          # defaults to the first cdylib workspace member
  target: wasm32-unknown-unknown
  profile: dev
  dist: dist
  assets: assets

watch:
  paths:
    - src
  debounce_ms: 300

checks:
  parallel: true
  enabled:
    - fmt
    - lint
    - check
    - test
    - spell
`

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	if _, err := cargo.FindManifest(cwd); err != nil {
		fmt.Println("⚠ No Cargo.toml found here; rustle expects to run inside a cargo workspace")
	}

	configPath := filepath.Join(cwd, ".rustle.yml")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("✓ Wrote %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. rustle doctor")
	fmt.Println("  2. rustle serve")

	return nil
}
