package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the test suite",
	Long: `Run tests across all workspace targets and features.

Examples:
  rustle test                     # Run every test
  rustle test --name parse_header # Run tests matching a name
  rustle test --doc               # Run documentation tests
  rustle test --nocapture         # Show test output while running`,
	RunE: runTest,
}

var (
	testName      string
	testDoc       bool
	testNoCapture bool
)

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVarP(&testName, "name", "n", "", "Run only tests matching this filter")
	testCmd.Flags().BoolVar(&testDoc, "doc", false, "Run documentation tests")
	testCmd.Flags().BoolVar(&testNoCapture, "nocapture", false, "Show test stdout even for passing tests")
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runner := cargo.NewRunner(".")
	inv := cargo.NewInvocations(cfg)

	opts := cargo.TestOptions{
		Name:      testName,
		Doc:       testDoc,
		NoCapture: testNoCapture,
	}

	start := time.Now()
	switch {
	case testDoc:
		fmt.Println("📚 Running documentation tests...")
	case testName != "":
		fmt.Printf("🧪 Running tests matching %q...\n", testName)
	default:
		fmt.Println("🧪 Running all tests...")
	}

	if err := runner.RunStreaming(cmd.Context(), inv.Test(opts), os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}

	fmt.Printf("✅ Tests passed in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
