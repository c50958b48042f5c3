// Package metrics registers the Prometheus collectors for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnrichmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_enrichment_outcomes_total",
			Help: "Contact lookups by outcome status",
		},
		[]string{"status"},
	)

	EnrichmentCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_enrichment_cache_hits_total",
			Help: "Candidates resolved from stored contact data without a paid lookup",
		},
	)

	EnrichmentCostUSD = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_enrichment_cost_usd_total",
			Help: "Estimated spend on paid contact lookups (advisory)",
		},
	)

	EnrichmentWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_enrichment_write_failures_total",
			Help: "Paid lookups whose result could not be written back to the store",
		},
	)

	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_import_rows_total",
			Help: "Bulk import rows by classification",
		},
		[]string{"status"},
	)

	LaunchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_launch_attempts_total",
			Help: "Campaign launch attempts by write path and result",
		},
		[]string{"path", "result"},
	)

	PreflightDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outreach_preflight_duration_seconds",
			Help:    "Duration of a full pre-flight sequence",
			Buckets: prometheus.DefBuckets,
		},
	)
)
