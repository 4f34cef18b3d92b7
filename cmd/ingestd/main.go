// Command ingestd runs the VENUZ content ingestion service: an HTTP trigger
// endpoint plus an optional cron schedule, or a one-shot ingestion run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/venuz/ingest/internal/app"
	"github.com/venuz/ingest/internal/config"
	"github.com/venuz/ingest/internal/logger"
)

// version can be set at build time via -ldflags.
var version = "dev"

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "ingestd",
		Short: "VENUZ content ingestion service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "directory containing config.yaml")

	root.AddCommand(serveCmd(), runCmd(), versionCmd())

	if err := root.ExecuteContext(signalContext()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	_ = cancel // released on process exit
	return ctx
}

func setup(ctx context.Context) (*app.App, logger.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, log, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			return a.Serve(cmd.Context())
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute a single ingestion run and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, log, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			stats, err := a.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("fetched %d, deduplicated %d, upserted %d in %s\n",
				stats.Fetched, stats.Deduplicated, stats.Upserted, stats.Duration)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("ingestd version %s\n", version)
		},
	}
}
