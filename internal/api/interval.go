package api

import (
	"context"

	"github.com/jpalmerr/relay/internal/broker"
	"github.com/jpalmerr/relay/internal/events"
)

// intervalSource turns the shared tick stream into a per-subscriber counter.
type intervalSource struct {
	ticks *broker.Stream[events.Tick]
	step  int
	value int
}

func (i *intervalSource) Next(ctx context.Context) (int, error) {
	if _, err := i.ticks.Next(ctx); err != nil {
		return 0, err
	}
	i.value += i.step
	return i.value, nil
}

func (i *intervalSource) Close() {
	i.ticks.Close()
}
