package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the refresh pipeline.
type Metrics struct {
	FetchAttempts      *prometheus.CounterVec   // labels: kind, outcome
	FetchDuration      *prometheus.HistogramVec // labels: kind
	RefreshRuns        *prometheus.CounterVec   // labels: mode={foreground,background,forced}
	SummaryFallbacks   prometheus.Counter
	SnapshotsPersisted prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailstatus",
			Name:      "fetch_attempts_total",
			Help:      "Fetch attempts by source kind and snapshot outcome.",
		}, []string{"kind", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trailstatus",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single source fetch including classification.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"kind"}),
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailstatus",
			Name:      "refresh_runs_total",
			Help:      "Refresh batches by execution mode.",
		}, []string{"mode"}),
		SummaryFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailstatus",
			Name:      "summary_fallbacks_total",
			Help:      "Classifications that returned the fixed advisory summary.",
		}),
		SnapshotsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailstatus",
			Name:      "snapshots_persisted_total",
			Help:      "Status snapshots appended to the store.",
		}),
	}

	prometheus.MustRegister(
		m.FetchAttempts,
		m.FetchDuration,
		m.RefreshRuns,
		m.SummaryFallbacks,
		m.SnapshotsPersisted,
	)
	return m
}

// Nop returns unregistered metrics for tests.
func Nop() *Metrics {
	return &Metrics{
		FetchAttempts:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "nop_fetch_attempts"}, []string{"kind", "outcome"}),
		FetchDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "nop_fetch_duration"}, []string{"kind"}),
		RefreshRuns:        prometheus.NewCounterVec(prometheus.CounterOpts{Name: "nop_refresh_runs"}, []string{"mode"}),
		SummaryFallbacks:   prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_summary_fallbacks"}),
		SnapshotsPersisted: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_snapshots_persisted"}),
	}
}
