// Package metrics exposes relay's broker activity as prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/relay/internal/broker"
)

// Registry holds relay's collectors on a private prometheus registry.
//
// Registry implements [broker.Observer] and is installed on the event bus
// when metrics are enabled.
type Registry struct {
	registry *prometheus.Registry

	publishTotal    *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	subscribers     *prometheus.GaugeVec
	connections     *prometheus.GaugeVec

	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

var _ broker.Observer = (*Registry)(nil)

// NewRegistry creates a registry with every relay metric registered.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_broker_published_total",
				Help: "Total number of events published",
			},
			[]string{"kind"},
		),

		deliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_broker_deliveries_total",
				Help: "Total number of per-subscriber deliveries",
			},
			[]string{"kind", "result"}, // result: delivered, dropped
		),

		subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_broker_subscribers",
				Help: "Current number of live subscribers",
			},
			[]string{"kind"},
		),

		connections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_subscription_connections",
				Help: "Current number of open subscription connections",
			},
			[]string{"transport"}, // transport: sse, ws
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_build_info",
				Help: "Build information (value is always 1, labels contain info)",
			},
			[]string{"version", "commit"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_start_time_seconds",
				Help: "Unix timestamp when the process started",
			},
		),
	}

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry.MustRegister(
		r.publishTotal,
		r.deliveriesTotal,
		r.subscribers,
		r.connections,
		r.systemInfo,
		r.startTime,
	)

	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the prometheus scrape endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// ObservePublish records one publish and its per-subscriber outcomes.
func (r *Registry) ObservePublish(kind broker.Kind, delivered, dropped int) {
	k := kind.String()
	r.publishTotal.WithLabelValues(k).Inc()
	r.deliveriesTotal.WithLabelValues(k, "delivered").Add(float64(delivered))
	r.deliveriesTotal.WithLabelValues(k, "dropped").Add(float64(dropped))
}

// ObserveSubscribers records the live subscriber count of a kind.
func (r *Registry) ObserveSubscribers(kind broker.Kind, live int) {
	r.subscribers.WithLabelValues(kind.String()).Set(float64(live))
}

// ConnectionOpened increments the open connection gauge for a transport.
func (r *Registry) ConnectionOpened(transport string) {
	r.connections.WithLabelValues(transport).Inc()
}

// ConnectionClosed decrements the open connection gauge for a transport.
func (r *Registry) ConnectionClosed(transport string) {
	r.connections.WithLabelValues(transport).Dec()
}

// SetSystemInfo sets build information metrics.
func (r *Registry) SetSystemInfo(version, commit string) {
	r.systemInfo.WithLabelValues(version, commit).Set(1)
}
