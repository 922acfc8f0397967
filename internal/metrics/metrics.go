// Package metrics exposes Prometheus counters and gauges for the daemon.
// All methods are safe on a nil *Metrics so callers need no guards.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nowplaying"

// Art fetch outcomes.
const (
	ArtLoaded    = "loaded"
	ArtFailed    = "failed"
	ArtDiscarded = "discarded"
)

// Metrics holds the daemon's collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	pollsTotal     prometheus.Counter
	adapterErrors  *prometheus.CounterVec
	commandsTotal  *prometheus.CounterVec
	artFetches     *prometheus.CounterVec
	players        prometheus.Gauge
	bound          prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	sseSubscribers prometheus.Gauge
	sseDropped     prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Reconciliation passes run by the controller loop",
		}),
		adapterErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_errors_total",
			Help:      "Absorbed media-control failures by operation",
		}, []string{"op"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Transport commands by kind and result",
		}, []string{"command", "result"}),
		artFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "art_fetches_total",
			Help:      "Completed album art fetches by outcome",
		}, []string{"result"}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "Players found by the last discovery",
		}),
		bound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "player_bound",
			Help:      "1 when a player is bound, 0 otherwise",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by status class",
		}, []string{"class"}),
		sseSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_subscribers",
			Help:      "Connected SSE subscribers",
		}),
		sseDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_dropped_views",
			Help:      "Views skipped for slow SSE subscribers since start",
		}),
	}

	m.registry.MustRegister(
		m.pollsTotal,
		m.adapterErrors,
		m.commandsTotal,
		m.artFetches,
		m.players,
		m.bound,
		m.requestsTotal,
		m.sseSubscribers,
		m.sseDropped,
	)
	return m
}

// IncPolls counts a discovery and snapshot pass.
func (m *Metrics) IncPolls() {
	if m == nil {
		return
	}
	m.pollsTotal.Inc()
}

// IncAdapterError counts an absorbed failure of op ("list", "bind", "read", "send").
func (m *Metrics) IncAdapterError(op string) {
	if m == nil {
		return
	}
	m.adapterErrors.WithLabelValues(op).Inc()
}

// IncCommand counts a transport command; ok is false when the send failed.
func (m *Metrics) IncCommand(command string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.commandsTotal.WithLabelValues(command, result).Inc()
}

// IncArtFetch counts a completed fetch with one of the Art* outcomes.
func (m *Metrics) IncArtFetch(result string) {
	if m == nil {
		return
	}
	m.artFetches.WithLabelValues(result).Inc()
}

// SetPlayers records the number of discovered player identities.
func (m *Metrics) SetPlayers(n int) {
	if m == nil {
		return
	}
	m.players.Set(float64(n))
}

// SetBound records whether a player is bound.
func (m *Metrics) SetBound(bound bool) {
	if m == nil {
		return
	}
	if bound {
		m.bound.Set(1)
	} else {
		m.bound.Set(0)
	}
}

// SetSSE records subscriber count and cumulative drops.
func (m *Metrics) SetSSE(subscribers int, dropped uint64) {
	if m == nil {
		return
	}
	m.sseSubscribers.Set(float64(subscribers))
	m.sseDropped.Set(float64(dropped))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh sampled gauges.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}

// Registry returns the private registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
