// Package api is the application layer between the transports and the
// record store.
//
// Every successful mutation publishes exactly one change event per affected
// record on the [events.Bus]. Mutations are serialized with their publish, so
// subscribers see change events in commit order. Subscriptions are broker
// streams narrowed by a client-supplied filter.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jpalmerr/relay/internal/broker"
	"github.com/jpalmerr/relay/internal/events"
	"github.com/jpalmerr/relay/internal/store"
)

const tracerName = "github.com/jpalmerr/relay/internal/api"

var (
	// ErrInvalidInput is returned when a required field is empty.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserIDRequired is returned when creating a message without a user.
	ErrUserIDRequired = errors.New("user id is required when no message id is given")
)

// Service implements relay's queries, mutations and subscriptions.
type Service struct {
	store  store.Store
	bus    *events.Bus
	tracer trace.Tracer

	// mu is held across a store mutation and its publish. Publish never
	// blocks, so holding it does not wait on subscribers.
	mu sync.Mutex
}

// Option configures a [Service].
type Option func(*Service)

// WithTracerProvider sets the provider used for mutation spans. Defaults to
// the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewService creates a [Service] over st that publishes on bus.
func NewService(st store.Store, bus *events.Bus, opts ...Option) *Service {
	s := &Service{
		store:  st,
		bus:    bus,
		tracer: otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the event bus the service publishes on.
func (s *Service) Bus() *events.Bus {
	return s.bus
}

// Users returns all users.
func (s *Service) Users() []store.User {
	return s.store.Users()
}

// User returns one user.
func (s *Service) User(id int) (store.User, error) {
	return s.store.User(id)
}

// Messages returns all messages sent by any user.
func (s *Service) Messages() []store.Message {
	return s.store.Messages()
}

// Message returns one message.
func (s *Service) Message(id int) (store.Message, error) {
	return s.store.Message(id)
}

// MessagesByUser returns the messages sent by a user.
func (s *Service) MessagesByUser(userID int) ([]store.Message, error) {
	return s.store.MessagesByUser(userID)
}

// SaveUser creates a user when id is nil and renames user *id otherwise.
func (s *Service) SaveUser(ctx context.Context, id *int, name string) (store.User, error) {
	_, span := s.tracer.Start(ctx, "api.SaveUser")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return store.User{}, fail(span, fmt.Errorf("%w: name is required", ErrInvalidInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		u   store.User
		mut events.MutationType
	)
	if id == nil {
		u, mut = s.store.CreateUser(name), events.Created
	} else {
		var err error
		if u, err = s.store.UpdateUser(*id, name); err != nil {
			return store.User{}, fail(span, err)
		}
		mut = events.Updated
	}

	span.SetAttributes(attribute.Int("user.id", u.ID), attribute.String("mutation.type", mut.String()))
	s.bus.Users.Publish(events.UserMutated{MutationType: mut, ID: u.ID})
	return u, nil
}

// DeleteUser removes a user and its messages. It reports false if there was
// no such user.
//
// A deleted event is published for the user first, then one deleted message
// event for every cascaded message, so a single call publishes 1+N events.
func (s *Service) DeleteUser(ctx context.Context, id int) bool {
	_, span := s.tracer.Start(ctx, "api.DeleteUser", trace.WithAttributes(attribute.Int("user.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, removed, err := s.store.DeleteUser(id)
	if err != nil {
		span.SetAttributes(attribute.Bool("deleted", false))
		return false
	}

	span.SetAttributes(attribute.Bool("deleted", true), attribute.Int("messages.removed", len(removed)))
	s.bus.Users.Publish(events.UserMutated{MutationType: events.Deleted, ID: id})
	for _, msg := range removed {
		s.bus.Messages.Publish(events.MessageMutated{MutationType: events.Deleted, ID: msg.ID})
	}
	return true
}

// SaveMessage creates a message for *userID when id is nil, and replaces the
// text of message *id otherwise.
func (s *Service) SaveMessage(ctx context.Context, id, userID *int, text string) (store.Message, error) {
	_, span := s.tracer.Start(ctx, "api.SaveMessage")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return store.Message{}, fail(span, fmt.Errorf("%w: text is required", ErrInvalidInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		msg store.Message
		mut events.MutationType
		err error
	)
	switch {
	case id != nil:
		msg, err = s.store.UpdateMessage(*id, text)
		mut = events.Updated
	case userID != nil:
		msg, err = s.store.CreateMessage(*userID, text)
		mut = events.Created
	default:
		err = ErrUserIDRequired
	}
	if err != nil {
		return store.Message{}, fail(span, err)
	}

	span.SetAttributes(attribute.Int("message.id", msg.ID), attribute.String("mutation.type", mut.String()))
	s.bus.Messages.Publish(events.MessageMutated{MutationType: mut, ID: msg.ID})
	return msg, nil
}

// DeleteMessage removes a message. It reports false, and publishes nothing,
// if there was no such message.
func (s *Service) DeleteMessage(ctx context.Context, id int) bool {
	_, span := s.tracer.Start(ctx, "api.DeleteMessage", trace.WithAttributes(attribute.Int("message.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.store.DeleteMessage(id)
	span.SetAttributes(attribute.Bool("deleted", ok))
	if ok {
		s.bus.Messages.Publish(events.MessageMutated{MutationType: events.Deleted, ID: id})
	}
	return ok
}

// SubscribeMessages returns a stream of message events matching f. The
// stream ends when ctx is done or it is closed.
func (s *Service) SubscribeMessages(ctx context.Context, f events.MessageFilter) broker.Source[events.MessageMutated] {
	return broker.Filter[events.MessageMutated](s.bus.Messages.Subscribe(ctx), f.Match)
}

// SubscribeUsers returns a stream of user events matching f.
func (s *Service) SubscribeUsers(ctx context.Context, f events.UserFilter) broker.Source[events.UserMutated] {
	return broker.Filter[events.UserMutated](s.bus.Users.Subscribe(ctx), f.Match)
}

// Interval returns a stream that yields a running total increased by n on
// every tick.
func (s *Service) Interval(ctx context.Context, n int) broker.Source[int] {
	return &intervalSource{ticks: s.bus.Ticks.Subscribe(ctx), step: n}
}

// fail records err on span and returns it.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
