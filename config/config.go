// Package config provides YAML configuration parsing for relay.
//
// This package enables running relay as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Team Chat
//	port: 8080
//	tick_interval: 1s
//	subscriber_buffer: 100
//	log_level: info
//	metrics: true
//	otlp_endpoint: ${OTLP_ENDPOINT:-}
//	otlp_insecure: true
//
//	seed:
//	  - name: ada
//	    messages: ["hello", "world"]
//	  - name: grace
//
// Every scalar setting can also be overridden from the environment with a
// RELAY_ prefixed variable (RELAY_PORT, RELAY_TICK_INTERVAL, ...).
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// minTickInterval keeps interval subscriptions from spinning the CPU.
	minTickInterval = 10 * time.Millisecond
	maxTickInterval = time.Hour

	defaultPort             = 8080
	defaultTickInterval     = time.Second
	defaultSubscriberBuffer = 100
	defaultLogLevel         = "info"
)

// Config is the root configuration structure for relay.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the playground page title. Empty means "relay".
	Title string `yaml:"title" env:"RELAY_TITLE"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" env:"RELAY_PORT"`

	// TickInterval is the period of the interval subscription.
	// Accepts duration strings like "1s", "250ms". Defaults to 1s.
	TickInterval Duration `yaml:"tick_interval" env:"RELAY_TICK_INTERVAL"`

	// SubscriberBuffer is the per-subscriber event buffer. Events published
	// while a subscriber's buffer is full are dropped for that subscriber.
	// Defaults to 100.
	SubscriberBuffer int `yaml:"subscriber_buffer" env:"RELAY_SUBSCRIBER_BUFFER"`

	// LogLevel is one of debug, info, warn or error. Defaults to info.
	LogLevel string `yaml:"log_level" env:"RELAY_LOG_LEVEL"`

	// Metrics enables the prometheus /metrics endpoint.
	Metrics bool `yaml:"metrics" env:"RELAY_METRICS"`

	// OTLPEndpoint is the host:port of an OTLP HTTP collector. Tracing is
	// disabled when empty.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"RELAY_OTLP_ENDPOINT"`

	// OTLPInsecure sends spans over plain HTTP instead of TLS. Defaults to
	// true.
	OTLPInsecure bool `yaml:"otlp_insecure" env:"RELAY_OTLP_INSECURE"`

	// Seed lists users, with their messages, loaded at startup.
	Seed []SeedUserConfig `yaml:"seed"`
}

// SeedUserConfig is a user created at startup.
type SeedUserConfig struct {
	// Name is the user's display name.
	Name string `yaml:"name"`

	// Messages are created for the user in order.
	Messages []string `yaml:"messages"`
}

// Duration wraps time.Duration for YAML and environment unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given, with
// environment overrides applied.
func Default() (*Config, error) {
	return Parse(nil)
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// RELAY_* environment variables override values from the file. Defaults are
// then applied, ${VAR} references in Title and OTLPEndpoint are expanded and
// the result is validated.
func Parse(data []byte) (*Config, error) {
	// fields absent from both the file and the environment keep these values
	cfg := Config{OTLPInsecure: true}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = Duration(defaultTickInterval)
	}
	if cfg.SubscriberBuffer == 0 {
		cfg.SubscriberBuffer = defaultSubscriberBuffer
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	var err error
	if c.Title, err = expandEnvVars(c.Title); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if c.OTLPEndpoint, err = expandEnvVars(c.OTLPEndpoint); err != nil {
		return fmt.Errorf("otlp_endpoint: %w", err)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if d := c.TickInterval.Duration(); d < minTickInterval || d > maxTickInterval {
		return fmt.Errorf("tick_interval must be between %s and %s, got %s", minTickInterval, maxTickInterval, d)
	}

	if c.SubscriberBuffer < 1 {
		return fmt.Errorf("subscriber_buffer must be at least 1, got %d", c.SubscriberBuffer)
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if strings.Contains(c.OTLPEndpoint, "://") {
		return fmt.Errorf("otlp_endpoint must be host:port without a scheme, got %q", c.OTLPEndpoint)
	}

	for i, u := range c.Seed {
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("seed[%d]: name is required", i)
		}
		for j, m := range u.Messages {
			if strings.TrimSpace(m) == "" {
				return fmt.Errorf("seed[%d] (%s): messages[%d] is empty", i, u.Name, j)
			}
		}
	}

	return nil
}
