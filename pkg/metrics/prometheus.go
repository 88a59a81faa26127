// Package metrics provides Prometheus metrics for the setres resolution service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Resolution passes
	passes            *prometheus.CounterVec
	passDuration      prometheus.Histogram
	participants      *prometheus.CounterVec
	patchesApplied    prometheus.Counter
	sheetsLatched     prometheus.Gauge
	dedupeSize        prometheus.Gauge
	corpusRecords     prometheus.Gauge
	rosterParticipant prometheus.Gauge

	// Trigger queue and worker
	triggers    *prometheus.CounterVec
	queueSize   prometheus.Gauge
	workerBusy  prometheus.Gauge
	workerError prometheus.Counter

	// Parsing
	parseResults *prometheus.CounterVec
	parsedBuilds *prometheus.CounterVec

	// Persistent cache
	cacheOps     *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	cacheRecords prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "setres",
		subsystem:        "resolver",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.passes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_total",
		Help:      "Resolution passes by outcome",
	}, []string{"outcome"})

	m.passDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pass_duration_milliseconds",
		Help:      "Duration of one resolution pass in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.participants = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_total",
		Help:      "Participants handled by resolution passes, by result",
	}, []string{"result"})

	m.patchesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "patches_applied_total",
		Help:      "Participant patches written to the roster",
	})

	m.sheetsLatched = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheets_latched",
		Help:      "1 once team sheets have been applied to the roster",
	})

	m.dedupeSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_size",
		Help:      "Remembered participant fingerprints",
	})

	m.corpusRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "corpus_records",
		Help:      "Records in the last pass snapshot",
	})

	m.rosterParticipant = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_participants",
		Help:      "Participants currently on the roster",
	})

	m.triggers = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triggers_total",
		Help:      "Pass triggers by outcome (enqueued, coalesced, dropped)",
	}, []string{"outcome"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_size",
		Help:      "Pending triggers waiting for the worker",
	})

	m.workerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_busy",
		Help:      "1 while the pass worker is running a pass",
	})

	m.workerError = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Passes that ended with an error",
	})

	m.parseResults = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "parse_requests_total",
		Help:      "Parse requests by parser and result",
	}, []string{"parser", "result"})

	m.parsedBuilds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "parsed_builds_total",
		Help:      "Build records produced by each parser",
	}, []string{"parser"})

	m.cacheOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_operations_total",
		Help:      "Persistent cache operations by operation and result",
	}, []string{"operation", "result"})

	m.cacheLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_latency_milliseconds",
		Help:      "Persistent cache operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.cacheRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_records",
		Help:      "Records held by the persistent cache",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
}

// RecordPass counts a finished pass and its duration.
func RecordPass(outcome string, durationMs float64) {
	globalManager.passes.WithLabelValues(outcome).Inc()
	globalManager.passDuration.Observe(durationMs)
}

// RecordParticipants adds n participants with the given result.
func RecordParticipants(result string, n int) {
	if n > 0 {
		globalManager.participants.WithLabelValues(result).Add(float64(n))
	}
}

// RecordPatchesApplied adds n written patches.
func RecordPatchesApplied(n int) {
	if n > 0 {
		globalManager.patchesApplied.Add(float64(n))
	}
}

// UpdateSheetsLatched reflects the sheet latch.
func UpdateSheetsLatched(latched bool) {
	v := 0.0
	if latched {
		v = 1
	}
	globalManager.sheetsLatched.Set(v)
}

// UpdateDedupeSize sets the remembered fingerprint count.
func UpdateDedupeSize(n int64) {
	globalManager.dedupeSize.Set(float64(n))
}

// UpdateCorpusRecords sets the snapshot size of the last pass.
func UpdateCorpusRecords(n int) {
	globalManager.corpusRecords.Set(float64(n))
}

// UpdateRosterParticipants sets the roster size.
func UpdateRosterParticipants(n int) {
	globalManager.rosterParticipant.Set(float64(n))
}

// RecordTrigger counts a trigger outcome.
func RecordTrigger(outcome string) {
	globalManager.triggers.WithLabelValues(outcome).Inc()
}

// UpdateQueueSize sets the current trigger backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerBusy reflects whether a pass is running.
func UpdateWorkerBusy(busy bool) {
	v := 0.0
	if busy {
		v = 1
	}
	globalManager.workerBusy.Set(v)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerError.Inc()
}

// RecordParse counts a parse request and the builds it produced.
func RecordParse(parser, result string, builds int) {
	globalManager.parseResults.WithLabelValues(parser, result).Inc()
	if builds > 0 {
		globalManager.parsedBuilds.WithLabelValues(parser).Add(float64(builds))
	}
}

// RecordCacheOperation counts a cache operation and its latency.
func RecordCacheOperation(operation, result string, latencyMs float64) {
	globalManager.cacheOps.WithLabelValues(operation, result).Inc()
	globalManager.cacheLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateCacheRecords sets the cache record count.
func UpdateCacheRecords(n int) {
	globalManager.cacheRecords.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
