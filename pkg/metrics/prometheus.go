// Package metrics provides Prometheus metrics for the raffle engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector of the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Registration flow
	registrationsSubmitted prometheus.Counter
	registrationsRejected  *prometheus.CounterVec
	registrationsReplayed  prometheus.Counter
	entriesTotal           prometheus.Gauge

	// Ranking
	winnerSelections prometheus.Counter
	winnersMarked    prometheus.Gauge
	rankingLatency   prometheus.Histogram

	// Export
	exportsTotal      *prometheus.CounterVec
	exportRows        prometheus.Histogram
	exportLatency     prometheus.Histogram
	exportJobLatency  prometheus.Histogram
	exportQueueSize   prometheus.Gauge
	exportQueueCap    prometheus.Gauge
	exportJobsDropped prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "raffle",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.registrationsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("registrations_submitted_total"),
		Help: "Registrations accepted and stored",
	})
	m.registrationsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("registrations_rejected_total"),
		Help: "Registrations rejected, by reason",
	}, []string{"reason"})
	m.registrationsReplayed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("registrations_replayed_total"),
		Help: "Submissions answered from the idempotency guard instead of inserting",
	})
	m.entriesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("entries"),
		Help: "Entries currently stored",
	})

	m.winnerSelections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("winner_selections_total"),
		Help: "Completed winner selection runs",
	})
	m.winnersMarked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("winners"),
		Help: "Entries flagged as winners by the last selection run",
	})
	m.rankingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("ranking_latency_milliseconds"),
		Help:    "Time spent ranking entries against a target",
		Buckets: m.histogramBuckets,
	})

	m.exportsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("exports_total"),
		Help: "Spreadsheet exports, by result",
	}, []string{"result"})
	m.exportRows = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("export_rows"),
		Help:    "Data rows written per export",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})
	m.exportLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("export_latency_milliseconds"),
		Help:    "Time to format and write one export",
		Buckets: m.histogramBuckets,
	})
	m.exportJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("export_job_latency_milliseconds"),
		Help:    "Time from enqueue to completion of a background export job",
		Buckets: m.histogramBuckets,
	})
	m.exportQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("export_queue_size"),
		Help: "Export jobs waiting for a worker",
	})
	m.exportQueueCap = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("export_queue_capacity"),
		Help: "Maximum export jobs the queue holds",
	})
	m.exportJobsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("export_jobs_rejected_total"),
		Help: "Export jobs refused because the queue was full or closed",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("store_latency_milliseconds"),
		Help:    "Entry store operation latency",
		Buckets: m.histogramBuckets,
	}, []string{"backend", "op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("http_requests_total"),
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_component_total"),
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_type_total"),
		Help: "Errors by type and severity",
	}, []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_endpoint_total"),
		Help: "Errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("system_gc_pause_time_milliseconds"),
		Help:    "Average GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Enabled reports whether recording functions update collectors.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval is the global manager's gauge refresh interval.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

func on() bool { return globalManager.enabled }

// RecordRegistrationSubmitted counts an accepted registration.
func RecordRegistrationSubmitted() {
	if on() {
		globalManager.registrationsSubmitted.Inc()
	}
}

// RecordRegistrationRejected counts a refused registration under reason.
func RecordRegistrationRejected(reason string) {
	if on() {
		globalManager.registrationsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordRegistrationReplayed counts an idempotent replay.
func RecordRegistrationReplayed() {
	if on() {
		globalManager.registrationsReplayed.Inc()
	}
}

// UpdateEntriesTotal sets the stored entry count.
func UpdateEntriesTotal(count int) {
	if on() {
		globalManager.entriesTotal.Set(float64(count))
	}
}

// RecordWinnerSelection counts a selection run and records its winner count.
func RecordWinnerSelection(winners int) {
	if on() {
		globalManager.winnerSelections.Inc()
		globalManager.winnersMarked.Set(float64(winners))
	}
}

// RecordRankingLatency records ranking time in milliseconds.
func RecordRankingLatency(latencyMs float64) {
	if on() {
		globalManager.rankingLatency.Observe(latencyMs)
	}
}

// RecordExport counts an export attempt by result ("ok", "no_data", "write_failure", ...).
func RecordExport(result string) {
	if on() {
		globalManager.exportsTotal.WithLabelValues(result).Inc()
	}
}

// RecordExportRows records the data row count of a successful export.
func RecordExportRows(rows int) {
	if on() {
		globalManager.exportRows.Observe(float64(rows))
	}
}

// RecordExportLatency records export time in milliseconds.
func RecordExportLatency(latencyMs float64) {
	if on() {
		globalManager.exportLatency.Observe(latencyMs)
	}
}

// RecordExportJobLatency records how long a background export job took from
// enqueue to completion, in milliseconds.
func RecordExportJobLatency(latencyMs float64) {
	if on() {
		globalManager.exportJobLatency.Observe(latencyMs)
	}
}

// UpdateExportQueueSize sets the number of waiting export jobs.
func UpdateExportQueueSize(size int) {
	if on() {
		globalManager.exportQueueSize.Set(float64(size))
	}
}

// UpdateExportQueueCapacity sets the export queue capacity.
func UpdateExportQueueCapacity(capacity int) {
	if on() {
		globalManager.exportQueueCap.Set(float64(capacity))
	}
}

// RecordExportJobRejected counts a job the queue refused.
func RecordExportJobRejected() {
	if on() {
		globalManager.exportJobsDropped.Inc()
	}
}

// RecordStoreLatency records a store operation's latency in milliseconds.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	if on() {
		globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if on() {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
