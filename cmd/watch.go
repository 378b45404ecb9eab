package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/checks"
	"github.com/rustle-dev/rustle/internal/config"
	"github.com/rustle-dev/rustle/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run a check whenever sources change",
	Long: `Watch the source tree and re-run a named check on every change.
Useful when you want a fast feedback loop without the dev server.

Examples:
  rustle watch                    # Re-run the compile check on change
  rustle watch --check test       # Re-run the test suite on change
  rustle watch --check lint -v    # Verbose change reporting`,
	RunE: runWatch,
}

var (
	watchCheck   string
	watchVerbose bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchCheck, "check", "c", "check", "Check to run on changes (fmt|lint|check|test|doc|spell)")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	check, err := checks.ByName(cfg, watchCheck)
	if err != nil {
		return err
	}

	runner := cargo.NewRunner(".")

	fileWatcher, err := watcher.NewFileWatcher(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.SetIgnoreDirs(cfg.Watch.Ignore)
	fileWatcher.AddFilter(watcher.SourceFilter)
	fileWatcher.AddFilter(watcher.ExcludeDirsFilter(cfg.Watch.Ignore...))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	runOnce := func() {
		start := time.Now()
		if err := runner.RunStreaming(ctx, check.Invocation, os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s failed: %v\n", check.Name, err)
			return
		}
		fmt.Printf("✅ %s passed in %v\n", check.Name, time.Since(start).Round(time.Millisecond))
	}

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			fmt.Printf("📁 File changes detected:\n")
			for _, event := range events {
				fmt.Printf("   %s: %s\n", event.Type, event.Path)
			}
		} else {
			fmt.Printf("📁 %d file(s) changed\n", len(events))
		}

		runOnce()
		return nil
	})

	fmt.Println("🔍 Setting up file watching...")
	for _, path := range cfg.Watch.Paths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to watch path %s: %v\n", path, err)
		} else {
			fmt.Printf("   - Watching: %s\n", path)
		}
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	// Run once up front so the terminal shows current state immediately
	runOnce()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		fmt.Println("\nStopping watch...")
	case <-ctx.Done():
	}

	return nil
}
