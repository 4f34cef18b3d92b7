// Package metrics exposes Prometheus instrumentation for ingestion runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the pipeline reports to.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	ItemsFetched    *prometheus.CounterVec
	ItemsDeduped    prometheus.Counter
	ItemsUpserted   prometheus.Counter
	ConnectorErrors *prometheus.CounterVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production, a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuz",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Ingestion runs by final status.",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "venuz",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full ingestion run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ItemsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuz",
			Subsystem: "ingest",
			Name:      "items_fetched_total",
			Help:      "Normalized items produced per connector.",
		}, []string{"connector"}),
		ItemsDeduped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "venuz",
			Subsystem: "ingest",
			Name:      "items_deduplicated_total",
			Help:      "Items dropped by the deduplication stage.",
		}),
		ItemsUpserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "venuz",
			Subsystem: "ingest",
			Name:      "items_upserted_total",
			Help:      "Rows written by the bulk upsert.",
		}),
		ConnectorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuz",
			Subsystem: "ingest",
			Name:      "connector_errors_total",
			Help:      "Connector failures tolerated by the orchestrator.",
		}, []string{"connector"}),
	}
}
