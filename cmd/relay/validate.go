package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/relay/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a relay configuration file without starting the server.

This command parses the YAML, applies RELAY_* overrides, expands environment
variables and validates all fields. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  relay validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	messages := 0
	for _, u := range cfg.Seed {
		messages += len(u.Messages)
	}

	tracing := "disabled"
	if cfg.OTLPEndpoint != "" {
		tracing = cfg.OTLPEndpoint
		if !cfg.OTLPInsecure {
			tracing += " (tls)"
		}
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:              %d\n", cfg.Port)
	fmt.Printf("  Tick interval:     %s\n", cfg.TickInterval.Duration())
	fmt.Printf("  Subscriber buffer: %d\n", cfg.SubscriberBuffer)
	fmt.Printf("  Log level:         %s\n", cfg.LogLevel)
	fmt.Printf("  Metrics:           %t\n", cfg.Metrics)
	fmt.Printf("  Tracing:           %s\n", tracing)
	fmt.Printf("  Seed:              %d users, %d messages\n", len(cfg.Seed), messages)

	return nil
}
