package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for event runs.
type Metrics struct {
	EventsExecuted prometheus.Counter
	EventsFailed   *prometheus.CounterVec
	LastRun        prometheus.Gauge
	RunDuration    prometheus.Histogram
}

// NewMetrics registers the runner metrics with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsExecuted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "jalaliflow",
			Subsystem: "runner",
			Name:      "events_executed_total",
			Help:      "Events whose action ran and whose next run was advanced",
		}),
		EventsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jalaliflow",
			Subsystem: "runner",
			Name:      "events_failed_total",
			Help:      "Events that failed, by stage",
		}, []string{"stage"}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "jalaliflow",
			Subsystem: "runner",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jalaliflow",
			Subsystem: "runner",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full run over due events",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
