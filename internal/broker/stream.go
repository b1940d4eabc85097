package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrStreamClosed is returned by [Stream.Next] once the stream is closed.
var ErrStreamClosed = errors.New("broker: stream closed")

// Source is a cancellable sequence of events.
//
// Both [Stream] and [Filtered] implement Source, so transports can consume
// raw and filtered subscriptions alike.
type Source[T any] interface {
	// Next blocks until the next event is available.
	Next(ctx context.Context) (T, error)

	// Close releases the subscription. It is idempotent.
	Close()
}

// Stream is one subscriber's view of a [Topic].
//
// A Stream yields events in the order they were published and never ends on
// its own. It is not restartable: after Close, subscribe again to start
// over. A Stream must be consumed by a single goroutine.
type Stream[T any] struct {
	topic  *Topic[T]
	handle Handle
	ch     chan T
	done   chan struct{}

	once sync.Once
	stop atomic.Pointer[func() bool]
}

// Next returns the next event.
//
// It returns [ErrStreamClosed] after [Stream.Close] (events still buffered at
// that point are discarded) and ctx.Err() if ctx ends first.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-s.done:
		return zero, ErrStreamClosed
	default:
	}

	select {
	case <-s.done:
		return zero, ErrStreamClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	case ev := <-s.ch:
		// Close may have won the race with the receive.
		select {
		case <-s.done:
			return zero, ErrStreamClosed
		default:
		}
		return ev, nil
	}
}

// Close unregisters the stream from its topic.
//
// When Close returns the handle has been released and no further event can be
// delivered to this stream. Close is idempotent and safe to call from any
// goroutine.
func (s *Stream[T]) Close() {
	s.once.Do(func() {
		if stop := s.stop.Load(); stop != nil {
			(*stop)()
		}
		s.topic.unsubscribe(s.handle)
		close(s.done)
	})
}

// Done returns a channel that is closed once the stream is closed.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Handle returns the stream's slot handle.
func (s *Stream[T]) Handle() Handle {
	return s.handle
}

// Kind returns the kind of events the stream yields.
func (s *Stream[T]) Kind() Kind {
	return s.topic.kind
}

// Filtered is a [Source] that discards events not accepted by its predicate.
//
// Discarded events are consumed from the underlying source; filtering never
// ends the subscription.
type Filtered[T any] struct {
	src   Source[T]
	match func(T) bool
}

// Filter wraps src so that only events for which match returns true are
// yielded. A nil match accepts every event.
func Filter[T any](src Source[T], match func(T) bool) *Filtered[T] {
	return &Filtered[T]{src: src, match: match}
}

// Next returns the next matching event.
func (f *Filtered[T]) Next(ctx context.Context) (T, error) {
	for {
		ev, err := f.src.Next(ctx)
		if err != nil {
			return ev, err
		}
		if f.match == nil || f.match(ev) {
			return ev, nil
		}
	}
}

// Close closes the underlying source.
func (f *Filtered[T]) Close() {
	f.src.Close()
}
