package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// exposure pipelines.
type Metrics struct {
	FilesProcessed prometheus.Counter
	FilesFailed    prometheus.Counter
	RowsProcessed  prometheus.Counter
	RowsFiltered   prometheus.Counter // dropped by the minimum-year filter
	RowsSkipped    prometheus.Counter // dropped by the skip-record miss policy

	LookupMisses *prometheus.CounterVec // labels: table={mapping,stats}

	FileDuration prometheus.Histogram
	RunnerActive prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesProcessed,
		m.FilesFailed,
		m.RowsProcessed,
		m.RowsFiltered,
		m.RowsSkipped,
		m.LookupMisses,
		m.FileDuration,
		m.RunnerActive,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can construct fresh instances without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_exposure",
			Name:      "files_processed_total",
			Help:      "Input files augmented and written successfully.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_exposure",
			Name:      "files_failed_total",
			Help:      "Input files abandoned because of an error.",
		}),
		RowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_exposure",
			Name:      "rows_processed_total",
			Help:      "Mortality records augmented across all files.",
		}),
		RowsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_exposure",
			Name:      "rows_filtered_total",
			Help:      "Records dropped by the minimum-year filter.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_exposure",
			Name:      "rows_skipped_total",
			Help:      "Records dropped under the skip-record lookup-miss policy.",
		}),
		LookupMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_exposure",
			Name:      "lookup_misses_total",
			Help:      "Reference-table lookup misses by table.",
		}, []string{"table"}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall_exposure",
			Name:      "file_duration_seconds",
			Help:      "Wall time spent processing one input file end to end.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		RunnerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainfall_exposure",
			Name:      "runner_active",
			Help:      "1 while a pipeline run is in flight, 0 otherwise.",
		}),
	}
}
