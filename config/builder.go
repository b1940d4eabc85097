package config

import (
	"github.com/jpalmerr/relay"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The result can be passed straight to [relay.New]; callers append their own
// options (logger, version, tracing) after it.
func BuildOptions(cfg *Config) []relay.Option {
	opts := []relay.Option{
		relay.WithPort(cfg.Port),
		relay.WithTickInterval(cfg.TickInterval.Duration()),
		relay.WithSubscriberBuffer(cfg.SubscriberBuffer),
	}

	if cfg.Title != "" {
		opts = append(opts, relay.WithTitle(cfg.Title))
	}

	if cfg.Metrics {
		opts = append(opts, relay.WithMetrics())
	}

	if len(cfg.Seed) > 0 {
		opts = append(opts, relay.WithSeed(buildSeed(cfg.Seed)...))
	}

	return opts
}

// buildSeed converts seed entries into SDK seed users.
func buildSeed(entries []SeedUserConfig) []relay.SeedUser {
	users := make([]relay.SeedUser, 0, len(entries))
	for _, e := range entries {
		users = append(users, relay.SeedUser{
			Name:     e.Name,
			Messages: e.Messages,
		})
	}
	return users
}
