package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/relay"
	"github.com/jpalmerr/relay/config"
	"github.com/jpalmerr/relay/internal/tracing"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the relay server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Long: `Start the relay server.

The server will:
  - Load configuration from the given YAML file, or use defaults
  - Apply RELAY_* environment overrides
  - Serve the REST API, subscriptions and playground on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  relay serve
  relay serve -c config.yaml
  RELAY_PORT=9090 relay serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

// loadConfig reads the file named by the config flag, or the defaults when
// the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default()
	}
	return config.Load(configFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("config loaded",
		"seed_users", len(cfg.Seed),
		"metrics", cfg.Metrics,
		"tracing", cfg.OTLPEndpoint != "",
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"tick_interval", cfg.TickInterval.Duration().String(),
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := config.BuildOptions(cfg)
	opts = append(opts,
		relay.WithLogger(logger),
		relay.WithVersion(version, commit),
	)

	if cfg.OTLPEndpoint != "" {
		tp, shutdown, err := tracing.Setup(ctx, tracing.Config{
			Endpoint:       cfg.OTLPEndpoint,
			ServiceName:    "relay",
			ServiceVersion: version,
			Insecure:       cfg.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
		opts = append(opts, relay.WithTracerProvider(tp))
	}

	r, err := relay.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- r.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
