package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/relay/internal/api"
	"github.com/jpalmerr/relay/internal/broker"
	"github.com/jpalmerr/relay/internal/events"
	"github.com/jpalmerr/relay/internal/metrics"
	"github.com/jpalmerr/relay/internal/server"
	"github.com/jpalmerr/relay/internal/store"
	"github.com/jpalmerr/relay/internal/ticker"
	"github.com/jpalmerr/relay/playground"
)

const (
	defaultPort             = 8080
	defaultTickInterval     = time.Second
	defaultSubscriberBuffer = broker.DefaultBufferSize
)

// Mutation describes a committed change to a user or message.
type Mutation struct {
	// Record is "user" or "message".
	Record string

	// Type is "created", "updated" or "deleted".
	Type string

	// ID is the id of the changed record.
	ID int
}

// Relay is the main orchestrator for the record store, the event broker and
// the HTTP surface.
//
// Relay is created using [New] with functional options and started with
// [Relay.Start]. The broker, store and service are built by New, so the
// [Relay.Handler] can be mounted before or without calling Start.
//
// The typical lifecycle is:
//
//	r, err := relay.New(relay.WithPort(9090))
//	if err != nil {
//	    slog.Error("failed to create relay", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	r.Start(ctx) // blocks until context cancelled
type Relay struct {
	title             string
	port              int
	tickInterval      time.Duration
	logger            *slog.Logger
	metrics           *metrics.Registry
	mutationCallbacks []func(Mutation)

	bus *events.Bus
	svc *api.Service
}

// New creates a new [Relay] instance with the given options.
//
// All options have sensible defaults:
//   - Port: 8080
//   - Tick interval: 1 second
//   - Subscriber buffer: 100 events
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Relay, error) {
	cfg := &relayConfig{
		port:             defaultPort,
		tickInterval:     defaultTickInterval,
		subscriberBuffer: defaultSubscriberBuffer,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	busOpts := []events.BusOption{
		events.WithBufferSize(cfg.subscriberBuffer),
		events.WithLogger(logger),
	}

	var reg *metrics.Registry
	if cfg.metrics {
		reg = metrics.NewRegistry()
		reg.SetSystemInfo(cfg.version, cfg.commit)
		busOpts = append(busOpts, events.WithObserver(reg))
	}

	st := store.NewMemoryStore()
	st.Seed(cfg.seed)

	bus := events.NewBus(busOpts...)

	var svcOpts []api.Option
	if cfg.tracerProvider != nil {
		svcOpts = append(svcOpts, api.WithTracerProvider(cfg.tracerProvider))
	}

	return &Relay{
		title:             cfg.title,
		port:              cfg.port,
		tickInterval:      cfg.tickInterval,
		logger:            logger,
		metrics:           reg,
		mutationCallbacks: cfg.mutationCallbacks,
		bus:               bus,
		svc:               api.NewService(st, bus, svcOpts...),
	}, nil
}

// Start runs the ticker and serves the API, subscriptions and playground.
//
// Start is a blocking call that runs until the provided context is cancelled.
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info("relay starting", "users", len(r.svc.Users()), "messages", len(r.svc.Messages()))
	r.logger.Info("interval configured", "tick", r.tickInterval.String())
	r.logger.Info("playground available", "url", fmt.Sprintf("http://localhost:%d", r.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	// subscribe before serving so no mutation made over HTTP is missed
	if len(r.mutationCallbacks) > 0 {
		messages := r.bus.Messages.Subscribe(gctx)
		users := r.bus.Users.Subscribe(gctx)
		g.Go(func() error {
			dispatch[events.MessageMutated](gctx, messages, func(ev events.MessageMutated) Mutation {
				return Mutation{Record: "message", Type: ev.MutationType.String(), ID: ev.ID}
			}, r.mutationCallbacks, r.logger)
			return nil
		})
		g.Go(func() error {
			dispatch[events.UserMutated](gctx, users, func(ev events.UserMutated) Mutation {
				return Mutation{Record: "user", Type: ev.MutationType.String(), ID: ev.ID}
			}, r.mutationCallbacks, r.logger)
			return nil
		})
	}

	srv := r.newServer()
	if err := srv.Start(gctx); err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	g.Go(func() error {
		<-srv.Done()
		return nil
	})

	tk := ticker.New(r.bus.Ticks, r.tickInterval, r.logger)
	tk.Start(gctx)
	g.Go(func() error {
		<-gctx.Done()
		tk.Stop()
		return nil
	})

	err := g.Wait()
	r.logger.Info("relay stopped")
	return err
}

// Handler returns relay's HTTP routes without starting a listener or the
// ticker. Interval subscriptions served by it only advance while
// [Relay.Start] is running.
func (r *Relay) Handler() http.Handler {
	return r.newServer().Handler()
}

func (r *Relay) newServer() *server.Server {
	var opts []server.Option
	if r.metrics != nil {
		opts = append(opts, server.WithMetrics(r.metrics))
	}
	return server.NewServer(r.svc, r.port, playground.Assets, r.title, r.logger, opts...)
}

// Port returns the configured HTTP port.
func (r *Relay) Port() int {
	return r.port
}

// TickInterval returns the configured period of the interval subscription.
func (r *Relay) TickInterval() time.Duration {
	return r.tickInterval
}

// Title returns the configured playground title.
func (r *Relay) Title() string {
	return r.title
}

// dispatch feeds events from src to the mutation callbacks until ctx is done.
func dispatch[T any](ctx context.Context, src broker.Source[T], convert func(T) Mutation, callbacks []func(Mutation), logger *slog.Logger) {
	defer src.Close()
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			return
		}
		m := convert(ev)
		for _, cb := range callbacks {
			invokeCallbackSafe(cb, m, logger)
		}
	}
}

// invokeCallbackSafe calls a mutation callback with panic recovery.
// Panics are logged with a correlation ID and do not propagate.
func invokeCallbackSafe(cb func(Mutation), m Mutation, logger *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("mutation callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", rec),
				"record", m.Record,
				"id", m.ID,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(m)
}
