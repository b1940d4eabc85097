package broker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Topic is the publish/subscribe facade for one [Kind] with payload type T.
//
// Topics are created with [Declare]. The zero value is not usable.
type Topic[T any] struct {
	reg  *Registry
	kind Kind

	once sync.Once
	subs atomic.Pointer[subscriberSet[T]]

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// Kind returns the kind this topic serves.
func (t *Topic[T]) Kind() Kind {
	return t.kind
}

// subscribers returns the topic's subscriber set, creating it on first use.
func (t *Topic[T]) subscribers() *subscriberSet[T] {
	t.once.Do(func() {
		t.subs.Store(newSubscriberSet[T]())
		t.reg.logger.Debug("subscriber set created", "kind", t.kind)
	})
	return t.subs.Load()
}

// Publish offers event to every current subscriber and returns without
// waiting for any of them to consume it.
//
// Delivery is best-effort: a subscriber whose buffer is full misses the
// event and no error is reported. Publishing with no subscribers is a no-op.
func (t *Topic[T]) Publish(event T) {
	delivered, dropped := t.subscribers().broadcast(event)

	t.published.Add(1)
	t.delivered.Add(uint64(delivered))
	t.dropped.Add(uint64(dropped))
	t.reg.observer.ObservePublish(t.kind, delivered, dropped)

	if dropped > 0 {
		t.reg.logger.Debug("events dropped for slow subscribers", "kind", t.kind, "dropped", dropped)
	}
}

// Subscribe registers a new subscriber and returns its [Stream].
//
// Every call yields an independent stream that receives each event published
// after registration. The stream is closed automatically when ctx is done;
// callers should still defer [Stream.Close].
func (t *Topic[T]) Subscribe(ctx context.Context) *Stream[T] {
	set := t.subscribers()
	ch := make(chan T, t.reg.bufferSize)
	h, live := set.insert(ch)

	s := &Stream[T]{
		topic:  t,
		handle: h,
		ch:     ch,
		done:   make(chan struct{}),
	}

	t.reg.observer.ObserveSubscribers(t.kind, live)
	t.reg.logger.Debug("subscriber added", "kind", t.kind, "handle", int(h), "live", live)

	if ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, s.Close)
		s.stop.Store(&stop)
	}
	return s
}

// Subscribers returns the number of live subscribers.
func (t *Topic[T]) Subscribers() int {
	set := t.subs.Load()
	if set == nil {
		return 0
	}
	return set.len()
}

func (t *Topic[T]) unsubscribe(h Handle) {
	live := t.subscribers().remove(h)
	t.reg.observer.ObserveSubscribers(t.kind, live)
	t.reg.logger.Debug("subscriber removed", "kind", t.kind, "handle", int(h), "live", live)
}

func (t *Topic[T]) stats() TopicStats {
	return TopicStats{
		Kind:        t.kind,
		Active:      t.subs.Load() != nil,
		Subscribers: t.Subscribers(),
		Published:   t.published.Load(),
		Delivered:   t.delivered.Load(),
		Dropped:     t.dropped.Load(),
	}
}
