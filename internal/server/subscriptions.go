package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jpalmerr/relay/internal/broker"
	"github.com/jpalmerr/relay/internal/events"
	"github.com/jpalmerr/relay/internal/store"
)

var (
	errUnknownTopic = errors.New("unknown subscription topic")
	errBadQuery     = errors.New("invalid subscription query")
)

// messageEvent is the wire form of a message change. Message holds the
// record as it is when the event is delivered, and is null after a delete.
type messageEvent struct {
	MutationType events.MutationType `json:"mutation_type"`
	ID           int                 `json:"id"`
	Message      *store.Message      `json:"message"`
}

type userEvent struct {
	MutationType events.MutationType `json:"mutation_type"`
	ID           int                 `json:"id"`
	User         *store.User         `json:"user"`
}

type intervalEvent struct {
	Value int `json:"value"`
}

// subscription is an open event source rendered into JSON-ready values.
// It is transport agnostic; SSE and WebSocket handlers both drain it.
type subscription struct {
	topic string
	next  func(ctx context.Context) (any, error)
	close func()
}

func render[T any](topic string, src broker.Source[T], fn func(T) any) subscription {
	return subscription{
		topic: topic,
		next: func(ctx context.Context) (any, error) {
			ev, err := src.Next(ctx)
			if err != nil {
				return nil, err
			}
			return fn(ev), nil
		},
		close: src.Close,
	}
}

// openSubscription validates the query and subscribes to topic. The
// subscription ends when ctx is done.
func (s *Server) openSubscription(ctx context.Context, topic string, q url.Values) (subscription, error) {
	switch topic {
	case "messages":
		mut, id, err := parseMutationFilter(q)
		if err != nil {
			return subscription{}, err
		}
		src := s.svc.SubscribeMessages(ctx, events.MessageFilter{MutationType: mut, ID: id})
		return render(topic, src, func(ev events.MessageMutated) any {
			out := messageEvent{MutationType: ev.MutationType, ID: ev.ID}
			if ev.MutationType != events.Deleted {
				if msg, err := s.svc.Message(ev.ID); err == nil {
					out.Message = &msg
				}
			}
			return out
		}), nil

	case "users":
		mut, id, err := parseMutationFilter(q)
		if err != nil {
			return subscription{}, err
		}
		src := s.svc.SubscribeUsers(ctx, events.UserFilter{MutationType: mut, ID: id})
		return render(topic, src, func(ev events.UserMutated) any {
			out := userEvent{MutationType: ev.MutationType, ID: ev.ID}
			if ev.MutationType != events.Deleted {
				if u, err := s.svc.User(ev.ID); err == nil {
					out.User = &u
				}
			}
			return out
		}), nil

	case "interval":
		n := 1
		if raw := q.Get("n"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return subscription{}, fmt.Errorf("%w: n must be an integer, got %q", errBadQuery, raw)
			}
			n = v
		}
		return render(topic, s.svc.Interval(ctx, n), func(v int) any {
			return intervalEvent{Value: v}
		}), nil

	default:
		return subscription{}, fmt.Errorf("%w: %q", errUnknownTopic, topic)
	}
}

func parseMutationFilter(q url.Values) (*events.MutationType, *int, error) {
	var (
		mut *events.MutationType
		id  *int
	)
	if raw := q.Get("mutation_type"); raw != "" {
		m, err := events.ParseMutationType(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		mut = &m
	}
	if raw := q.Get("id"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: id must be an integer, got %q", errBadQuery, raw)
		}
		id = &v
	}
	return mut, id, nil
}
