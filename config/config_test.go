package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.TickInterval.Duration() != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.TickInterval.Duration())
	}
	if cfg.SubscriberBuffer != 100 {
		t.Errorf("SubscriberBuffer = %d, want 100", cfg.SubscriberBuffer)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Metrics {
		t.Error("Metrics should default to false")
	}
	if !cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to true")
	}
	if len(cfg.Seed) != 0 {
		t.Errorf("len(Seed) = %d, want 0", len(cfg.Seed))
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Team Chat
port: 9090
tick_interval: 250ms
subscriber_buffer: 16
log_level: DEBUG
metrics: true
otlp_endpoint: localhost:4318

seed:
  - name: ada
    messages:
      - hello
      - world
  - name: grace
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Team Chat" {
		t.Errorf("Title = %q, want Team Chat", cfg.Title)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.TickInterval.Duration() != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", cfg.TickInterval.Duration())
	}
	if cfg.SubscriberBuffer != 16 {
		t.Errorf("SubscriberBuffer = %d, want 16", cfg.SubscriberBuffer)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug (normalised)", cfg.LogLevel)
	}
	if !cfg.Metrics {
		t.Error("Metrics = false, want true")
	}
	if cfg.OTLPEndpoint != "localhost:4318" {
		t.Errorf("OTLPEndpoint = %q, want localhost:4318", cfg.OTLPEndpoint)
	}

	if len(cfg.Seed) != 2 {
		t.Fatalf("len(Seed) = %d, want 2", len(cfg.Seed))
	}
	if cfg.Seed[0].Name != "ada" || len(cfg.Seed[0].Messages) != 2 {
		t.Errorf("Seed[0] = %+v, want ada with 2 messages", cfg.Seed[0])
	}
	if cfg.Seed[1].Name != "grace" || len(cfg.Seed[1].Messages) != 0 {
		t.Errorf("Seed[1] = %+v, want grace with no messages", cfg.Seed[1])
	}
}

func TestParse_OTLPInsecure(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  string
		want bool
	}{
		{"default", "", "", true},
		{"file disables", "otlp_insecure: false", "", false},
		{"file enables", "otlp_insecure: true", "", true},
		{"env disables", "", "false", false},
		{"env overrides file", "otlp_insecure: false", "true", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("RELAY_OTLP_INSECURE", tt.env)
			}
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.OTLPInsecure != tt.want {
				t.Errorf("OTLPInsecure = %v, want %v", cfg.OTLPInsecure, tt.want)
			}
		})
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("RELAY_PORT", "7070")
	t.Setenv("RELAY_TITLE", "From Env")
	t.Setenv("RELAY_TICK_INTERVAL", "2s")
	t.Setenv("RELAY_SUBSCRIBER_BUFFER", "8")
	t.Setenv("RELAY_LOG_LEVEL", "warn")
	t.Setenv("RELAY_METRICS", "true")
	t.Setenv("RELAY_OTLP_ENDPOINT", "collector:4318")

	yaml := `
title: From File
port: 9090
tick_interval: 1s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
	if cfg.Title != "From Env" {
		t.Errorf("Title = %q, want From Env", cfg.Title)
	}
	if cfg.TickInterval.Duration() != 2*time.Second {
		t.Errorf("TickInterval = %v, want 2s", cfg.TickInterval.Duration())
	}
	if cfg.SubscriberBuffer != 8 {
		t.Errorf("SubscriberBuffer = %d, want 8", cfg.SubscriberBuffer)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if !cfg.Metrics {
		t.Error("Metrics = false, want true")
	}
	if cfg.OTLPEndpoint != "collector:4318" {
		t.Errorf("OTLPEndpoint = %q, want collector:4318", cfg.OTLPEndpoint)
	}
}

func TestParse_EnvOverrideKeepsFileValues(t *testing.T) {
	t.Setenv("RELAY_PORT", "7070")

	cfg, err := Parse([]byte("title: From File\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Title != "From File" {
		t.Errorf("Title = %q, want From File (unset env must not clear it)", cfg.Title)
	}
}

func TestParse_EnvOverrideInvalid(t *testing.T) {
	t.Setenv("RELAY_PORT", "not-a-port")

	_, err := Parse(nil)
	if err == nil {
		t.Fatal("Parse() expected error for invalid RELAY_PORT, got nil")
	}
	if !strings.Contains(err.Error(), "environment") {
		t.Errorf("error should mention environment overrides: %v", err)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_COLLECTOR", "otel.internal:4318")
	t.Setenv("TEST_TEAM", "platform")

	yaml := `
title: ${TEST_TEAM} chat
otlp_endpoint: ${TEST_COLLECTOR}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "platform chat" {
		t.Errorf("Title = %q, want 'platform chat'", cfg.Title)
	}
	if cfg.OTLPEndpoint != "otel.internal:4318" {
		t.Errorf("OTLPEndpoint = %q, want otel.internal:4318", cfg.OTLPEndpoint)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	cfg, err := Parse([]byte("otlp_endpoint: ${UNSET_VAR:-}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("OTLPEndpoint = %q, want empty", cfg.OTLPEndpoint)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	// MISSING_VAR is expected to not exist in the environment
	_, err := Parse([]byte("title: ${MISSING_VAR}\n"))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR") {
		t.Errorf("error should mention MISSING_VAR: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"port too high", "port: 70000", "port must be between"},
		{"negative port", "port: -1", "port must be between"},
		{"tick too fast", "tick_interval: 1ms", "tick_interval must be between"},
		{"tick too slow", "tick_interval: 2h", "tick_interval must be between"},
		{"negative buffer", "subscriber_buffer: -5", "subscriber_buffer must be at least 1"},
		{"unknown log level", "log_level: verbose", "log_level must be"},
		{"endpoint with scheme", "otlp_endpoint: http://localhost:4318", "without a scheme"},
		{"seed without name", "seed:\n  - messages: [hi]", "seed[0]: name is required"},
		{"seed with empty message", "seed:\n  - name: ada\n    messages: [\"\"]", "messages[0] is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("port: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want 'failed to parse YAML'", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("tick_interval: soon"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want 'invalid duration'", err)
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"1s", time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"1m30s", 90 * time.Second, false},
		{"", 0, true},
		{"ten seconds", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Duration() != tt.want {
				t.Errorf("got %v, want %v", d.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("port: 9191\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %v, want 'failed to read config file'", err)
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
}
