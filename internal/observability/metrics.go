package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_watch"

// Fetch outcomes recorded on FetchTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// Metrics holds the Prometheus collectors shared by sources, cache and the
// refresh manager.
type Metrics struct {
	FetchTotal       *prometheus.CounterVec   // labels: source, outcome
	RecordsDropped   *prometheus.CounterVec   // labels: source
	RefreshDuration  *prometheus.HistogramVec // labels: resource
	CacheFallbacks   prometheus.Counter
	CacheWriteErrors prometheus.Counter
	CachedEvents     prometheus.Gauge
	Notices          *prometheus.CounterVec // labels: kind
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Upstream records dropped during normalization.",
		}, []string{"source"}),
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of one refresh of a polled resource.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"resource"}),
		CacheFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fallback_total",
			Help:      "Times the event cache served a failed live fetch.",
		}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      "Failed write-through cache writes.",
		}),
		CachedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_events",
			Help:      "Events held in the durable cache after the last write.",
		}),
		Notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Notices published to subscribers by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.FetchTotal,
		m.RecordsDropped,
		m.RefreshDuration,
		m.CacheFallbacks,
		m.CacheWriteErrors,
		m.CachedEvents,
		m.Notices,
	)

	return m
}

// NewMetricsForTesting registers against a private registry so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
