// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinecache_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinecache_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Upstream catalog
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinecache_catalog_requests_total",
			Help: "Upstream catalog requests by resource and outcome",
		},
		[]string{"resource", "outcome"}, // success, upstream_error, unavailable, rejected
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinecache_catalog_request_duration_seconds",
			Help:    "Duration of upstream catalog round trips in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"resource"},
	)

	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinecache_catalog_cache_hits_total",
			Help: "Total number of catalog response cache hits",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinecache_catalog_cache_misses_total",
			Help: "Total number of catalog response cache misses, expired entries included",
		},
	)

	CatalogCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinecache_catalog_cache_evictions_total",
			Help: "Entries evicted from the catalog response cache by the size bound",
		},
	)

	CatalogCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinecache_catalog_cache_entries",
			Help: "Current number of cached catalog responses",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinecache_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinecache_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Reconciliation
	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinecache_sync_items_total",
			Help: "Entities reconciled from the upstream catalog",
		},
		[]string{"kind", "outcome"}, // created, updated, failed
	)

	SyncJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinecache_sync_jobs_total",
			Help: "Background sync jobs by kind and status",
		},
		[]string{"kind", "status"}, // queued, rejected, completed, failed
	)
)
