// Package events defines relay's event kinds and the bus that carries them.
//
// Every kind is a value type published on its own typed [broker.Topic]:
//
//   - [MessageMutated] on [KindMessageMutated]
//   - [UserMutated] on [KindUserMutated]
//   - [Tick] on [KindTick]
//
// A [Bus] is constructed once per process and shared by the API service, the
// ticker and the HTTP server.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jpalmerr/relay/internal/broker"
)

// Event kinds carried by the [Bus].
const (
	KindMessageMutated broker.Kind = "message.mutated"
	KindUserMutated    broker.Kind = "user.mutated"
	KindTick           broker.Kind = "interval.tick"
)

// MutationType describes how a record changed.
type MutationType string

const (
	Created MutationType = "created"
	Updated MutationType = "updated"
	Deleted MutationType = "deleted"
)

// String implements fmt.Stringer.
func (m MutationType) String() string {
	return string(m)
}

// ParseMutationType parses a case-insensitive mutation type.
func ParseMutationType(s string) (MutationType, error) {
	switch MutationType(strings.ToLower(strings.TrimSpace(s))) {
	case Created:
		return Created, nil
	case Updated:
		return Updated, nil
	case Deleted:
		return Deleted, nil
	default:
		return "", fmt.Errorf("unknown mutation type %q (expected created, updated or deleted)", s)
	}
}

// UnmarshalJSON accepts any casing of a known mutation type.
func (m *MutationType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMutationType(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MessageMutated is published after a message is created, updated or deleted.
type MessageMutated struct {
	MutationType MutationType `json:"mutation_type"`
	ID           int          `json:"id"`
}

// UserMutated is published after a user is created, updated or deleted.
type UserMutated struct {
	MutationType MutationType `json:"mutation_type"`
	ID           int          `json:"id"`
}

// Tick is published by the ticker at a fixed interval.
type Tick struct {
	Seq uint64    `json:"seq"`
	At  time.Time `json:"at"`
}

// Bus is the process-wide broker instance with one typed topic per kind.
type Bus struct {
	Messages *broker.Topic[MessageMutated]
	Users    *broker.Topic[UserMutated]
	Ticks    *broker.Topic[Tick]

	registry *broker.Registry
}

// BusOption configures a [Bus].
type BusOption func(*busConfig)

type busConfig struct {
	bufferSize int
	observer   broker.Observer
	logger     *slog.Logger
}

// WithBufferSize sets the per-subscriber channel capacity.
func WithBufferSize(n int) BusOption {
	return func(c *busConfig) {
		c.bufferSize = n
	}
}

// WithObserver installs a broker observer, typically the metrics registry.
func WithObserver(o broker.Observer) BusOption {
	return func(c *busConfig) {
		c.observer = o
	}
}

// WithLogger sets the broker's logger.
func WithLogger(logger *slog.Logger) BusOption {
	return func(c *busConfig) {
		c.logger = logger
	}
}

// NewBus creates a fresh registry and declares every relay kind on it.
func NewBus(opts ...BusOption) *Bus {
	cfg := busConfig{bufferSize: broker.DefaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := broker.NewRegistry(
		broker.WithBufferSize(cfg.bufferSize),
		broker.WithObserver(cfg.observer),
		broker.WithLogger(cfg.logger),
	)

	return &Bus{
		Messages: broker.MustDeclare[MessageMutated](reg, KindMessageMutated),
		Users:    broker.MustDeclare[UserMutated](reg, KindUserMutated),
		Ticks:    broker.MustDeclare[Tick](reg, KindTick),
		registry: reg,
	}
}

// Stats returns a snapshot of every kind on the bus.
func (b *Bus) Stats() []broker.TopicStats {
	return b.registry.Stats()
}
