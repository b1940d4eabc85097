// Package relay is an embeddable, in-process publish/subscribe server for a
// small users-and-messages domain.
//
// Every committed change to a user or message is published on a typed event
// broker, and clients watch those changes live over Server-Sent Events or
// WebSockets. A shared ticker drives an interval subscription whose running
// total each client chooses the step of.
//
// # Quick Start
//
//	r, _ := relay.New(relay.WithSeed(relay.SeedUser{Name: "ada", Messages: []string{"hello"}}))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	r.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Relay uses the functional options pattern for configuration:
//
//	r, err := relay.New(
//	    relay.WithPort(9090),
//	    relay.WithTickInterval(500 * time.Millisecond),
//	    relay.WithSubscriberBuffer(32),
//	    relay.WithMetrics(),
//	    relay.WithMutationCallback(func(m relay.Mutation) {
//	        log.Printf("%s %d %s", m.Record, m.ID, m.Type)
//	    }),
//	)
//
// # Delivery
//
// Publishing never blocks. Each subscriber owns a bounded buffer and an event
// published while that buffer is full is dropped for that subscriber alone.
// Subscribers see the events of one kind in publish order; nothing is ordered
// across kinds.
//
// # Architecture
//
// Relay consists of several internal packages (under internal/):
//
//   - internal/broker: Typed event registry with per-kind subscriber sets
//   - internal/events: Event kinds, filters and the process-wide bus
//   - internal/store: In-memory users and messages with reusable slot ids
//   - internal/api: Mutations that publish change events, and subscriptions
//   - internal/ticker: Periodic tick publisher for interval subscriptions
//   - internal/server: chi router with REST, SSE and WebSocket routes
//   - internal/metrics, internal/tracing: Prometheus and OpenTelemetry wiring
//   - playground: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package relay
