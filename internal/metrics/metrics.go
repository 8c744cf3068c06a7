// Package metrics exposes Prometheus instrumentation for the ingestion
// loops. Metrics are registered on the default registry and served from the
// loader's admin listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal counts completed ingestion cycles per flow.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "napp_ingest_cycles_total",
		Help: "Completed ingestion cycles.",
	}, []string{"flow"})

	// CycleErrorsTotal counts cycles that failed before processing items
	// (source fetch or window load failures).
	CycleErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "napp_ingest_cycle_errors_total",
		Help: "Ingestion cycles that failed to fetch or load state.",
	}, []string{"flow"})

	// CycleDuration observes wall-clock cycle duration per flow.
	CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "napp_ingest_cycle_duration_seconds",
		Help:    "Ingestion cycle duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"flow"})

	// ItemsIngested counts items stored per flow.
	ItemsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "napp_items_ingested_total",
		Help: "Items persisted after correlation.",
	}, []string{"flow"})

	// ItemsDuplicate counts items rejected by the dedup gate.
	ItemsDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "napp_items_duplicate_total",
		Help: "Items dropped as already stored.",
	}, []string{"flow"})

	// ItemFailures counts items that failed at the persistence boundary.
	ItemFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "napp_item_failures_total",
		Help: "Items that failed to persist.",
	}, []string{"flow"})

	// EventsCreated counts fresh events spawned by correlation.
	EventsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "napp_events_created_total",
		Help: "New events created by the correlator.",
	}, []string{"flow"})

	// EventsMatched counts items that joined an existing event.
	EventsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "napp_events_matched_total",
		Help: "Items correlated into an existing event.",
	}, []string{"flow"})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
