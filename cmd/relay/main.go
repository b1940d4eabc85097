// Package main is the entry point for the relay CLI.
//
// relay can be embedded as a library (SDK) or run as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	relay serve                  # Start with defaults and RELAY_* overrides
//	relay serve -c config.yaml   # Start from a config file
//	relay validate -c config.yaml
//	relay version
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "A small record store with live subscriptions",
	Long: `relay keeps users and messages in memory and streams every change
to subscribers over Server-Sent Events or WebSockets.

Quick start:
  1. Run: relay serve
  2. Open http://localhost:8080 for the playground
  3. curl -N localhost:8080/api/sse/messages

Example config:
  port: 8080
  tick_interval: 1s
  seed:
    - name: ada
      messages: ["hello"]`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this relay binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relay %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// newLogger creates a JSON logger on stderr for CLI use.
func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

// parseLevel maps a validated config level to a slog level.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
