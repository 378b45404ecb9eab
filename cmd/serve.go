package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rustle-dev/rustle/internal/config"
	"github.com/rustle-dev/rustle/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dev server with live reload",
	Long: `Build the WebAssembly web target and serve it with live reload.
Source changes trigger a rebuild and connected browsers reload automatically;
build failures appear as an overlay in the browser.

Examples:
  rustle serve                    # Serve on the configured port
  rustle serve --port 3000        # Serve on a specific port
  rustle serve --profile release  # Serve an optimized wasm build`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8420, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-open", false, "Don't open browser automatically")
	serveCmd.Flags().String("profile", "dev", "Wasm build profile (dev|release)")

	addFlagValidation(serveCmd, "port", validatePortFlag)

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.no-open", serveCmd.Flags().Lookup("no-open"))
	viper.BindPFlag("wasm.profile", serveCmd.Flags().Lookup("profile"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			fmt.Fprintf(os.Stderr, "Error during server shutdown: %v\n", shutdownErr)
		}

		cancel()
	}()

	fmt.Printf("Starting rustle dev server at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
