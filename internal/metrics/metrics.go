package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolver metrics
var (
	ResolveAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_resolve_attempts_total",
			Help: "Total number of single-path resolution attempts",
		},
	)

	ResolveIgnoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_resolve_ignored_total",
			Help: "Total number of paths excluded by ignore rules",
		},
	)

	ResolveErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_resolve_errors_total",
			Help: "Total number of resolution failures dropped from batch fan-out",
		},
	)

	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_resolve_duration_seconds",
			Help:    "Single-path resolution duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Named-entity cache metrics
var (
	NameCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_name_cache_hits_total",
			Help: "Total number of named-entity lookups served by a registered unit",
		},
	)

	NameCacheCreationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_name_cache_creations_total",
			Help: "Total number of named-entity creation units started",
		},
		[]string{"kind"},
	)

	NameCacheErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_name_cache_errors_total",
			Help: "Total number of failed named-entity creation units",
		},
	)
)

// Validation metrics
var (
	ValidationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_validation_runs_total",
			Help: "Total number of validation passes by type",
		},
		[]string{"pass"}, // "library", "people"
	)

	ValidationRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_validation_running",
			Help: "Whether a validation pass is currently running (1 = running)",
		},
	)

	ValidationLastRunDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_catalog_validation_last_run_duration_seconds",
			Help: "Duration of the last validation pass in seconds",
		},
		[]string{"pass"},
	)

	PeopleSweepSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_people_sweep_size",
			Help: "Number of deduplicated people in the last sweep",
		},
	)

	PeopleSweepErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_people_sweep_errors_total",
			Help: "Total number of per-person IO failures swallowed by the sweep",
		},
	)
)

// Change notifier metrics
var (
	NotificationsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_notifications_sent_total",
			Help: "Total number of change notifications dispatched",
		},
	)

	NotificationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_notifications_dropped_total",
			Help: "Total number of change notifications dropped on queue overflow",
		},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_fs_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation"},
	)
)

// Repository metrics
var (
	RepositoryQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_repository_queries_total",
			Help: "Total number of repository queries",
		},
		[]string{"operation", "status"},
	)

	RepositoryQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_repository_query_duration_seconds",
			Help:    "Repository query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)
