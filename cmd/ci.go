package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/checks"
	"github.com/rustle-dev/rustle/internal/config"
)

var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "Run all checks (local CI)",
	Long: `Run the full local CI pass: format check, lint, compile check, tests,
and spell check. Every check runs even when an earlier one fails; the exit
code is non-zero if any check failed.

Examples:
  rustle ci                       # Run all enabled checks
  rustle ci --sequential          # One check at a time, in order
  rustle ci --only fmt,lint       # Run a subset
  rustle ci --format json         # Machine-readable report`,
	RunE: runCI,
}

var (
	ciFormat     string
	ciSequential bool
	ciOnly       []string
)

func init() {
	rootCmd.AddCommand(ciCmd)

	ciCmd.Flags().StringVarP(&ciFormat, "format", "f", "table", "Output format (table|json|yaml)")
	ciCmd.Flags().BoolVar(&ciSequential, "sequential", false, "Run checks one at a time")
	ciCmd.Flags().StringSliceVar(&ciOnly, "only", nil, "Run only the named checks")
	ciCmd.Flags().IntP("jobs", "j", 0, "Maximum checks running concurrently")

	addFlagValidation(ciCmd, "format", validateFormatFlag("table", "json", "yaml"))

	viper.BindPFlag("checks.jobs", ciCmd.Flags().Lookup("jobs"))
}

func runCI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(ciOnly) > 0 {
		cfg.Checks.Enabled = ciOnly
	}
	if ciSequential {
		cfg.Checks.Parallel = false
	}

	selected, err := checks.Registry(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	runner := checks.NewRunner(cargo.NewRunner("."), logger, cfg.Checks.Parallel, cfg.Checks.Jobs)

	report := runner.Run(cmd.Context(), selected)

	if err := checks.Write(os.Stdout, report, ciFormat); err != nil {
		return err
	}

	if report.Failed() {
		return fmt.Errorf("%d of %d checks failed", report.Summary.Failed, report.Summary.Total)
	}

	return nil
}
