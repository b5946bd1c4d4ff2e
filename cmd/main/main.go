package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trend-pulse/src/config"
	"trend-pulse/src/helpers"
	"trend-pulse/src/logger"
	"trend-pulse/src/pipeline"

	"github.com/spf13/cobra"
)

// -----------------------------------------------------------------------------

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "trend-pulse",
		Short:         "Real-time metrics streaming and trend detection",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(newServeCmd(&configPath), newCheckConfigCmd(&configPath))
	return root
}

// -----------------------------------------------------------------------------

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run ingestion, analysis and the subscription server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig(*configPath)
			if err != nil {
				return err
			}

			appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)
			if limit := helpers.ApplySoftMemoryLimit(); limit > 0 {
				appLogger.Info("Memory limit set to: %d MB", limit)
			}

			p, err := pipeline.New(cfg, pipeline.Options{ConfigPath: *configPath}, appLogger)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			appLogger.Info("Starting %s", cfg.Name)
			return p.Run(ctx)
		},
	}
}

// -----------------------------------------------------------------------------

func newCheckConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the config file and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig(*configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: %s\n", *configPath)
			fmt.Fprintf(out, "  server:     %s:%d\n", cfg.Host, cfg.Port)
			if cfg.GrpcPort > 0 {
				fmt.Fprintf(out, "  grpc:       %s:%d\n", cfg.GrpcHost, cfg.GrpcPort)
			} else {
				fmt.Fprintln(out, "  grpc:       disabled")
			}
			fmt.Fprintf(out, "  adapter:    %s\n", cfg.Ingestion.Adapter)
			enabled := 0
			for _, src := range cfg.Ingestion.Sources {
				if src.IsEnabled() {
					enabled++
				}
			}
			fmt.Fprintf(out, "  sources:    %d configured, %d enabled\n", len(cfg.Ingestion.Sources), enabled)
			fmt.Fprintf(out, "  buffer:     %d events, drain %ds x %d\n", cfg.Stream.BufferCapacity, cfg.Stream.DrainIntervalSeconds, cfg.Stream.BatchSize)
			if cfg.Storage.DBType == "" {
				fmt.Fprintln(out, "  journal:    disabled")
			} else {
				fmt.Fprintf(out, "  journal:    %s\n", cfg.Storage.DBType)
			}
			return nil
		},
	}
}
