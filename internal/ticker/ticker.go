// Package ticker drives relay's interval subscriptions.
//
// A single [Ticker] publishes an [events.Tick] on the shared ticks topic at a
// fixed interval. Each interval subscriber keeps its own running total, so
// one ticker serves any number of subscribers with different steps.
package ticker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/relay/internal/broker"
	"github.com/jpalmerr/relay/internal/events"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = time.Second

// Ticker publishes ticks until stopped.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Ticker struct {
	topic    *broker.Topic[events.Tick]
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
	seq     uint64
}

// New creates a [Ticker] that publishes on topic every interval. A
// non-positive interval means [DefaultInterval].
func New(topic *broker.Topic[events.Tick], interval time.Duration, logger *slog.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		topic:    topic,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Start begins publishing in a background goroutine.
//
// The first tick is published one interval after Start. Ticking continues
// until [Ticker.Stop] is called or ctx is cancelled. Start is idempotent,
// and a no-op after Stop.
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	tickCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	t.logger.Debug("ticker started", "interval", t.interval)

	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				t.tick()
			}
		}
	}()
}

// Stop halts the ticker and waits for its goroutine to exit.
//
// Stop is idempotent. Calling Stop before Start is a safe no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		if t.cancel != nil {
			t.cancel()
		}
	}
	t.mu.Unlock()

	t.wg.Wait()
}

// Seq returns the number of ticks published so far.
func (t *Ticker) Seq() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

func (t *Ticker) tick() {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	t.topic.Publish(events.Tick{Seq: seq, At: t.now()})
}
