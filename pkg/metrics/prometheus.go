// Package metrics provides Prometheus metrics for the ladder service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Event log
	recordsAppended  *prometheus.CounterVec
	recordsDeleted   prometheus.Counter
	writesDuplicate  prometheus.Counter
	validationErrors *prometheus.CounterVec
	logErrors        *prometheus.CounterVec
	logRecords       prometheus.Gauge

	// Replay
	replayDuration prometheus.Histogram
	replays        prometheus.Counter
	players        prometheus.Gauge
	activePlayers  prometheus.Gauge

	// Live feed
	liveClients    prometheus.Gauge
	liveBroadcasts prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ladder",
		subsystem:        "elo",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.recordsAppended = auto.NewCounterVec(m.counterOpts("records_appended_total", "Records appended to the event log by type"), []string{"type"})
	m.recordsDeleted = auto.NewCounter(m.counterOpts("records_deleted_total", "Records deleted from the event log"))
	m.writesDuplicate = auto.NewCounter(m.counterOpts("writes_duplicate_total", "Write requests skipped because their request id was already seen"))
	m.validationErrors = auto.NewCounterVec(m.counterOpts("validation_errors_total", "Form submissions rejected by validation"), []string{"form"})
	m.logErrors = auto.NewCounterVec(m.counterOpts("log_errors_total", "Failed event log operations"), []string{"operation"})
	m.logRecords = auto.NewGauge(m.gaugeOpts("log_records", "Records in the event log at the last read"))

	m.replayDuration = auto.NewHistogram(m.histogramOpts("replay_duration_milliseconds", "Time spent replaying the full log", m.histogramBuckets))
	m.replays = auto.NewCounter(m.counterOpts("replays_total", "Full replays of the event log"))
	m.players = auto.NewGauge(m.gaugeOpts("players", "Rated players at the last replay"))
	m.activePlayers = auto.NewGauge(m.gaugeOpts("active_players", "Active players at the last ranking query"))

	m.liveClients = auto.NewGauge(m.gaugeOpts("live_clients", "Connected live ranking subscribers"))
	m.liveBroadcasts = auto.NewCounter(m.counterOpts("live_broadcasts_total", "Ranking updates pushed to live subscribers"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by HTTP endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordAppend counts an appended record of the given type.
func RecordAppend(recordType string) { globalManager.recordsAppended.WithLabelValues(recordType).Inc() }

// RecordDelete counts a deleted record.
func RecordDelete() { globalManager.recordsDeleted.Inc() }

// RecordDuplicateWrite counts a write skipped as a duplicate.
func RecordDuplicateWrite() { globalManager.writesDuplicate.Inc() }

// RecordValidationError counts a rejected form.
func RecordValidationError(form string) { globalManager.validationErrors.WithLabelValues(form).Inc() }

// RecordLogError counts a failed log operation (read, append, delete).
func RecordLogError(operation string) { globalManager.logErrors.WithLabelValues(operation).Inc() }

// UpdateLogRecords sets the log size gauge.
func UpdateLogRecords(n int) { globalManager.logRecords.Set(float64(n)) }

// RecordReplay observes one full replay.
func RecordReplay(durationMs float64, players int) {
	globalManager.replays.Inc()
	globalManager.replayDuration.Observe(durationMs)
	globalManager.players.Set(float64(players))
}

// UpdateActivePlayers sets the active player gauge.
func UpdateActivePlayers(n int) { globalManager.activePlayers.Set(float64(n)) }

// UpdateLiveClients sets the number of connected live subscribers.
func UpdateLiveClients(n int) { globalManager.liveClients.Set(float64(n)) }

// RecordLiveBroadcast counts one ranking update pushed to subscribers.
func RecordLiveBroadcast() { globalManager.liveBroadcasts.Inc() }

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry { return customRegistry }
