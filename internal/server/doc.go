// Package server provides the HTTP surface for relay.
//
// This package is internal to relay and handles all HTTP concerns:
//
//   - REST API: users and messages under "/api/users" and "/api/messages"
//   - Server-Sent Events: subscriptions at "/api/sse/{messages|users|interval}"
//   - WebSockets: the same subscriptions at "/api/ws/{topic}"
//   - Operations: "/api/broker" stats, "/healthz" and optional "/metrics"
//   - Playground: the embedded HTML page at "/"
//
// Subscription routes accept "mutation_type" and "id" query filters, and
// "n" for the interval topic. Each message or user event embeds the record as
// it is at delivery time.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
