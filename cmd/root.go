// Package cmd provides the command-line interface for rustle with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. RUSTLE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (RUSTLE_SERVER_PORT, etc.)
//	4. Configuration files (.rustle.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rustle-dev/rustle/internal/config"
	"github.com/rustle-dev/rustle/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rustle",
	Short: "A development workflow tool for Rust workspaces",
	Long: `Rustle drives the day-to-day workflow of a Rust workspace that targets
both a native binary and a WebAssembly web build: compile checks, release
builds, tests, lint and format gates, spell checking, and a web dev server
with live reload.

Key Features:
  • Quick compile checks across all workspace targets
  • Aggregate local CI runs (fmt, lint, check, test, spell)
  • WebAssembly dev server with rebuild-on-save and live reload
  • Cargo diagnostics surfaced in the terminal and the browser

Quick Start:
  rustle init                     Write a starter .rustle.yml
  rustle ci                       Run all checks
  rustle serve                    Start the web dev server
  rustle test --name my_test      Run a single test

Documentation: https://github.com/rustle-dev/rustle`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .rustle.yml, can also use RUSTLE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. RUSTLE_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .rustle.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("RUSTLE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rustle")
	}

	// Automatic environment variable binding with RUSTLE_ prefix
	// Examples: RUSTLE_SERVER_PORT, RUSTLE_WASM_PROFILE, RUSTLE_CHECKS_PARALLEL
	viper.SetEnvPrefix("RUSTLE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files fall back to defaults without failing
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the logger configured by the loaded configuration
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}
