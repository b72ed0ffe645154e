package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// acquisition pipeline.
type Metrics struct {
	SourceAttempts  *prometheus.CounterVec   // labels: source, outcome={success,error,empty,implausible,skipped}
	ResolveDuration *prometheus.HistogramVec // labels: dataset
	UsingExample    prometheus.Gauge

	// Source cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,expired}

	// Normalization metrics.
	RecordsNormalized prometheus.Counter
	RowsDropped       *prometheus.CounterVec // labels: reason={missing_numeric,future_date,undefined_index}

	SnapshotsServed prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SourceAttempts,
		m.ResolveDuration,
		m.UsingExample,
		m.CacheLookups,
		m.RecordsNormalized,
		m.RowsDropped,
		m.SnapshotsServed,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jibang",
			Name:      "source_attempts_total",
			Help:      "Source-resolution attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		ResolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jibang",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of a full source-resolution chain per dataset.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"dataset"}),
		UsingExample: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jibang",
			Name:      "using_example_data",
			Help:      "1 when any served dataset came from a non-official source.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jibang",
			Name:      "source_cache_lookups_total",
			Help:      "Source cache lookups by result.",
		}, []string{"result"}),
		RecordsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jibang",
			Name:      "records_normalized_total",
			Help:      "Canonical records produced by the schema normalizer.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jibang",
			Name:      "rows_dropped_total",
			Help:      "Raw rows dropped during normalization by reason.",
		}, []string{"reason"}),
		SnapshotsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jibang",
			Name:      "snapshots_served_total",
			Help:      "Dataset snapshots computed for API consumers.",
		}),
	}
}
