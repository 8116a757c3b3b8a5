package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Every series is exported as nhl_<subsystem>_<name>
const namespace = "nhl"

// Upstream API
var (
	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "calls_total",
		Help:      "NHL web API calls by endpoint and HTTP outcome",
	}, []string{"endpoint", "status"})

	APICallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "call_duration_seconds",
		Help:      "NHL web API call latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	// FetchDegradedTotal separates "the call failed" from "there was nothing
	// to fetch", which look identical downstream
	FetchDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fetch",
		Name:      "degraded_total",
		Help:      "Fetches that fell back to an empty payload",
	}, []string{"endpoint"})
)

// Document store and its Postgres pool
var (
	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Document store reads and writes by outcome",
	}, []string{"operation", "collection", "status"})

	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Document store operation latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "connections_active",
		Help:      "Acquired pool connections",
	})

	DBConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "connections_idle",
		Help:      "Idle pool connections",
	})
)

// Boxscore cache
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Boxscore cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Boxscore cache misses",
	})

	CacheOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "operation_duration_seconds",
		Help:      "Redis operation latency",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})
)

// Ingestion runs
var (
	SyncOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "operations_total",
		Help:      "Ingestion runs by trigger and outcome",
	}, []string{"type", "status"})

	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Ingestion run duration",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"type"})

	LastSuccessfulSync = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last fully successful run",
	})

	EntitiesIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "entities_total",
		Help:      "Teams and games processed by outcome",
	}, []string{"entity", "status"})

	DateFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "date_failures_total",
		Help:      "Dates whose standings-then-games unit was aborted",
	})
)

// Process
var (
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Errors by component",
	}, []string{"component", "error_type"})

	WorkerLoopIterations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "poll_iterations_total",
		Help:      "Live polling iterations",
	})

	WorkerLoopDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "poll_duration_seconds",
		Help:      "Live polling iteration duration",
		Buckets:   []float64{1, 5, 10, 30, 60, 120},
	})

	SystemUptime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since the worker started",
	})
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordFetchDegraded counts a fetch absorbed into an empty payload
func RecordFetchDegraded(endpoint string) {
	FetchDegradedTotal.WithLabelValues(endpoint).Inc()
}

// RecordStoreOperation records a document store operation
func RecordStoreOperation(operation, collection, status string, duration float64) {
	StoreOperationsTotal.WithLabelValues(operation, collection, status).Inc()
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration)
}

func RecordCacheHit() { CacheHitsTotal.Inc() }

func RecordCacheMiss() { CacheMissesTotal.Inc() }

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordSync records a finished run. Only "success" moves the
// last-success timestamp.
func RecordSync(syncType, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(syncType, status).Inc()
	SyncDuration.WithLabelValues(syncType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordEntity records the outcome of one team or game upsert
func RecordEntity(entity, status string) {
	EntitiesIngestedTotal.WithLabelValues(entity, status).Inc()
}

func RecordDateFailure() { DateFailuresTotal.Inc() }

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// RecordWorkerIteration records one live polling iteration
func RecordWorkerIteration(duration float64) {
	WorkerLoopIterations.Inc()
	WorkerLoopDuration.Observe(duration)
}
