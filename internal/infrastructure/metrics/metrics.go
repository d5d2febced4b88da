package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. It satisfies usecase.Recorder and
// gateway.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	GatewayFailures *prometheus.CounterVec

	// Cache metrics
	CacheReads         *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec
	Refreshes          *prometheus.CounterVec
	SnapshotsRemoved   prometheus.Counter

	// Form metrics
	Submissions *prometheus.CounterVec
}

// New creates and registers all metrics on reg. A nil reg gets a private
// registry, so tests and repeated constructions never collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txnctl_gateway_requests_total",
				Help: "Remote service responses by operation and status",
			},
			[]string{"operation", "status"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txnctl_gateway_duration_seconds",
				Help:    "Remote service round-trip duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		GatewayFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txnctl_gateway_failures_total",
				Help: "Normalized gateway failures by kind",
			},
			[]string{"operation", "kind"},
		),

		CacheReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txnctl_cache_reads_total",
				Help: "Cache reads by query kind and result",
			},
			[]string{"query", "result"},
		),
		CacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txnctl_cache_invalidations_total",
				Help: "Cache invalidations by query kind",
			},
			[]string{"query"},
		),
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txnctl_cache_background_refreshes_total",
				Help: "Background refreshes by outcome",
			},
			[]string{"outcome"},
		),
		SnapshotsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "txnctl_cache_snapshots_pruned_total",
			Help: "Snapshots deleted after the retention window",
		}),

		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txnctl_form_submissions_total",
				Help: "Form submissions by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) GatewayRequest(op string, status int, d time.Duration) {
	m.GatewayRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.GatewayDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) GatewayFailure(op string, kind string) {
	m.GatewayFailures.WithLabelValues(op, kind).Inc()
}

func (m *Metrics) CacheLookup(query, outcome string) {
	m.CacheReads.WithLabelValues(query, outcome).Inc()
}

func (m *Metrics) CacheInvalidated(query string) {
	m.CacheInvalidations.WithLabelValues(query).Inc()
}

func (m *Metrics) BackgroundRefresh(outcome string) {
	m.Refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SnapshotsPruned(n int) {
	if n > 0 {
		m.SnapshotsRemoved.Add(float64(n))
	}
}

func (m *Metrics) FormSubmitted(mode, outcome string) {
	m.Submissions.WithLabelValues(mode, outcome).Inc()
}
