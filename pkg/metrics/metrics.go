// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsIngested counts catalog items accepted by batch ingestion.
	ItemsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supplymatch_catalog_items_ingested_total",
		Help: "Catalog items accepted by batch ingestion.",
	})

	// IngestErrors counts records rejected during batch ingestion.
	IngestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supplymatch_catalog_ingest_errors_total",
		Help: "Records rejected during batch ingestion.",
	})

	// MatchRequests counts requirement matching runs.
	MatchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supplymatch_match_requests_total",
		Help: "Requirement matching pipeline runs.",
	})

	// SearchDuration observes vector index search latency.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "supplymatch_vector_search_duration_seconds",
		Help:    "Vector index search latency.",
		Buckets: prometheus.DefBuckets,
	})

	// CatalogItems tracks the current catalog size.
	CatalogItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "supplymatch_catalog_items",
		Help: "Number of items in the catalog aggregate.",
	})
)
