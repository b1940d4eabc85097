package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jpalmerr/relay"
)

func buildRelay(t *testing.T, yaml string) *relay.Relay {
	t.Helper()
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r, err := relay.New(BuildOptions(cfg)...)
	if err != nil {
		t.Fatalf("relay.New() error = %v", err)
	}
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestBuildOptions_Defaults(t *testing.T) {
	r := buildRelay(t, "")

	if r.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", r.Port())
	}
	if r.TickInterval() != time.Second {
		t.Errorf("TickInterval() = %v, want 1s", r.TickInterval())
	}
	if r.Title() != "" {
		t.Errorf("Title() = %q, want empty", r.Title())
	}
}

func TestBuildOptions_AllFields(t *testing.T) {
	r := buildRelay(t, `
title: Team Chat
port: 9090
tick_interval: 250ms
subscriber_buffer: 8
`)

	if r.Port() != 9090 {
		t.Errorf("Port() = %d, want 9090", r.Port())
	}
	if r.TickInterval() != 250*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 250ms", r.TickInterval())
	}
	if r.Title() != "Team Chat" {
		t.Errorf("Title() = %q, want %q", r.Title(), "Team Chat")
	}
}

func TestBuildOptions_Seed(t *testing.T) {
	r := buildRelay(t, `
seed:
  - name: ada
    messages: ["hello", "world"]
  - name: grace
`)

	rec := get(t, r.Handler(), "/api/users")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var users []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 2 || users[0].Name != "ada" || users[1].Name != "grace" {
		t.Fatalf("users = %+v, want ada and grace", users)
	}

	rec = get(t, r.Handler(), "/api/users/0/messages")
	var msgs []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("len(messages) = %d, want 2", len(msgs))
	}
}

func TestBuildOptions_Metrics(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"enabled", "metrics: true", http.StatusOK},
		{"disabled", "metrics: false", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := buildRelay(t, tt.yaml)
			if rec := get(t, r.Handler(), "/metrics"); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBuildSeed_CopiesEntries(t *testing.T) {
	entries := []SeedUserConfig{
		{Name: "ada", Messages: []string{"hi"}},
		{Name: "grace"},
	}

	users := buildSeed(entries)
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].Name != "ada" || len(users[0].Messages) != 1 || users[0].Messages[0] != "hi" {
		t.Errorf("users[0] = %+v", users[0])
	}
	if users[1].Name != "grace" || len(users[1].Messages) != 0 {
		t.Errorf("users[1] = %+v", users[1])
	}
}
