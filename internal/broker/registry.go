package broker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/alphadose/haxmap"
)

// DefaultBufferSize is the per-subscriber channel capacity used when no
// [WithBufferSize] option is given.
const DefaultBufferSize = 100

var (
	// ErrKindDeclared is returned by [Declare] when the kind is already bound.
	ErrKindDeclared = errors.New("broker: kind already declared")

	// ErrEmptyKind is returned by [Declare] for an empty kind.
	ErrEmptyKind = errors.New("broker: kind must not be empty")
)

// Kind identifies a class of events, such as "message.mutated".
type Kind string

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Observer receives broker activity, typically to export metrics.
//
// Implementations are called synchronously on the publish and subscribe paths
// and must not block.
type Observer interface {
	// ObservePublish is called after every publish with the number of
	// subscribers the event was delivered to and dropped for.
	ObservePublish(kind Kind, delivered, dropped int)

	// ObserveSubscribers is called with the new live subscriber count after a
	// subscribe or unsubscribe.
	ObserveSubscribers(kind Kind, live int)
}

type nopObserver struct{}

func (nopObserver) ObservePublish(Kind, int, int) {}
func (nopObserver) ObserveSubscribers(Kind, int) {}

// TopicStats is a point-in-time snapshot of one kind.
type TopicStats struct {
	Kind        Kind   `json:"kind"`
	Active      bool   `json:"active"`
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
}

// entry is the type-independent view of a declared topic.
type entry interface {
	stats() TopicStats
}

// Registry maps each declared [Kind] to its [Topic].
//
// Entries live as long as the registry; there is no way to undeclare a kind.
// A Registry is safe for concurrent use.
type Registry struct {
	topics     *haxmap.Map[string, entry]
	bufferSize int
	observer   Observer
	logger     *slog.Logger
}

// Option configures a [Registry].
type Option func(*Registry)

// WithBufferSize sets the channel capacity of every new subscriber.
// Values below 1 are raised to 1.
func WithBufferSize(n int) Option {
	return func(r *Registry) {
		if n < 1 {
			n = 1
		}
		r.bufferSize = n
	}
}

// WithObserver installs an [Observer]. A nil observer is ignored.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithLogger sets the logger used for debug output. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty [Registry].
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		topics:     haxmap.New[string, entry](),
		bufferSize: DefaultBufferSize,
		observer:   nopObserver{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Declare binds kind to the payload type T and returns its [Topic].
//
// Each kind can be declared once per registry; a second declaration fails
// with [ErrKindDeclared] whatever its payload type. The topic's subscriber
// set is not created until the first publish or subscribe.
func Declare[T any](r *Registry, kind Kind) (*Topic[T], error) {
	if kind == "" {
		return nil, ErrEmptyKind
	}

	t := &Topic[T]{reg: r, kind: kind}
	if _, loaded := r.topics.GetOrCompute(string(kind), func() entry { return t }); loaded {
		return nil, fmt.Errorf("%w: %q", ErrKindDeclared, kind)
	}
	return t, nil
}

// MustDeclare is like [Declare] but panics on error. It is intended for
// wiring code that declares a fixed set of kinds at startup.
func MustDeclare[T any](r *Registry, kind Kind) *Topic[T] {
	t, err := Declare[T](r, kind)
	if err != nil {
		panic(err)
	}
	return t
}

// Kinds returns every declared kind in lexical order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, r.topics.Len())
	r.topics.ForEach(func(k string, _ entry) bool {
		kinds = append(kinds, Kind(k))
		return true
	})
	slices.Sort(kinds)
	return kinds
}

// Stats returns a snapshot of every declared kind ordered by kind.
func (r *Registry) Stats() []TopicStats {
	stats := make([]TopicStats, 0, r.topics.Len())
	r.topics.ForEach(func(_ string, e entry) bool {
		stats = append(stats, e.stats())
		return true
	})
	slices.SortFunc(stats, func(a, b TopicStats) int {
		return strings.Compare(string(a.Kind), string(b.Kind))
	})
	return stats
}
