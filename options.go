package relay

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jpalmerr/relay/internal/store"
)

// relayConfig holds mutable state during Relay construction.
type relayConfig struct {
	title             string
	port              int
	tickInterval      time.Duration
	subscriberBuffer  int
	logger            *slog.Logger
	metrics           bool
	version           string
	commit            string
	seed              []store.SeedUser
	mutationCallbacks []func(Mutation)
	tracerProvider    trace.TracerProvider
}

// Option is a function that configures a [Relay] instance during construction.
//
// Options return an error if validation fails.
type Option func(*relayConfig) error

// SeedUser is a user, with its messages, created when the relay is built.
type SeedUser struct {
	Name     string
	Messages []string
}

// WithPort sets the HTTP port for the API and playground.
//
// Defaults to 8080 if not specified. Returns an error if the port is outside
// the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *relayConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTickInterval sets the period of the interval subscription.
//
// Defaults to 1 second. Returns an error if the duration is zero or negative.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *relayConfig) error {
		if d <= 0 {
			return errors.New("tick interval must be positive")
		}
		cfg.tickInterval = d
		return nil
	}
}

// WithSubscriberBuffer sets how many undelivered events each subscriber may
// hold. Events published while a subscriber's buffer is full are dropped for
// that subscriber only.
//
// Defaults to 100. Returns an error if n is less than 1.
func WithSubscriberBuffer(n int) Option {
	return func(cfg *relayConfig) error {
		if n < 1 {
			return errors.New("subscriber buffer must be at least 1")
		}
		cfg.subscriberBuffer = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Relay instance.
//
// If not specified, [slog.Default] is used. Returns an error if the logger
// is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *relayConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the title shown by the playground page.
//
// If not specified, defaults to "relay".
func WithTitle(title string) Option {
	return func(cfg *relayConfig) error {
		cfg.title = title
		return nil
	}
}

// WithMetrics enables the prometheus endpoint at /metrics, fed by broker
// activity and open subscription connections.
func WithMetrics() Option {
	return func(cfg *relayConfig) error {
		cfg.metrics = true
		return nil
	}
}

// WithVersion labels the relay_build_info metric.
func WithVersion(version, commit string) Option {
	return func(cfg *relayConfig) error {
		cfg.version = version
		cfg.commit = commit
		return nil
	}
}

// WithSeed adds users and their messages to the initial store.
//
// Can be called multiple times; users are created in order, so the first
// seeded user gets id 0. Returns an error if a user has an empty name.
func WithSeed(users ...SeedUser) Option {
	return func(cfg *relayConfig) error {
		for _, u := range users {
			if u.Name == "" {
				return errors.New("seed user name cannot be empty")
			}
			cfg.seed = append(cfg.seed, store.SeedUser{
				Name:     u.Name,
				Messages: append([]string(nil), u.Messages...),
			})
		}
		return nil
	}
}

// WithMutationCallback registers a function called for every committed
// change to a user or message while [Relay.Start] runs.
//
// Multiple callbacks may be registered; they execute in registration order.
// Message and user changes are delivered from separate goroutines, each in
// commit order. Callbacks should not block: a callback that falls behind by
// more than the subscriber buffer misses events.
//
// Panics within callbacks are recovered and logged. Nil callbacks are
// silently ignored.
func WithMutationCallback(cb func(Mutation)) Option {
	return func(cfg *relayConfig) error {
		if cb == nil {
			return nil
		}
		cfg.mutationCallbacks = append(cfg.mutationCallbacks, cb)
		return nil
	}
}

// WithTracerProvider sets the provider used for mutation spans. Defaults to
// the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *relayConfig) error {
		if tp == nil {
			return errors.New("tracer provider cannot be nil")
		}
		cfg.tracerProvider = tp
		return nil
	}
}
