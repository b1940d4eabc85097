// Package broker is the in-process publish/subscribe core of relay.
//
// Events are grouped by [Kind]. Each kind is bound to exactly one Go payload
// type when it is declared on a [Registry], and every declared kind is served
// by a strongly typed [Topic]:
//
//	reg := broker.NewRegistry()
//	messages := broker.MustDeclare[MessageMutated](reg, "message.mutated")
//
//	stream := messages.Subscribe(ctx)
//	defer stream.Close()
//
//	messages.Publish(MessageMutated{MutationType: Created, ID: 7})
//	ev, err := stream.Next(ctx)
//
// The main components are:
//
//   - [Registry]: kind table and shared settings (buffer size, observer, logger)
//   - [Topic]: publish/subscribe facade for one kind
//   - [Stream]: one subscriber's cancellable, ordered event sequence
//   - [Filtered]: a [Source] that only yields events matching a predicate
//
// Delivery is best-effort. Publish never blocks: every subscriber owns a
// buffered channel and an event is dropped for a subscriber whose buffer is
// full. Within one kind all subscribers observe events in publish order; there
// is no ordering across kinds.
//
// A stream is unregistered exactly once, either by [Stream.Close] or when the
// context passed to [Topic.Subscribe] is done. Owners should always
// defer Close.
package broker
