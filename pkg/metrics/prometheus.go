// Package metrics provides Prometheus metrics for the apex leaderboard tool.
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

	// Scoring
	actionsRecorded     *prometheus.CounterVec
	checkInsRejected    prometheus.Counter
	actionErrors        *prometheus.CounterVec
	totalCollaborators  prometheus.Gauge
	totalPoints         prometheus.Gauge
	mutationsTotal      *prometheus.CounterVec
	mutationLatency     prometheus.Histogram
	storeSaves          prometheus.Counter
	storeSaveErrors     prometheus.Counter
	storeRecoveries     prometheus.Counter
	snapshotsWritten    prometheus.Counter
	snapshotsPruned     prometheus.Counter
	reportRenders       prometheus.Counter
	reportRenderErrors  prometheus.Counter
	uploads             *prometheus.CounterVec
	notifyQueueSize     prometheus.Gauge
	notifyDropped       prometheus.Counter
	subscriberErrors    *prometheus.CounterVec
	subscriberLatency   *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "apex",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.actionsRecorded = m.counterVec("actions_recorded_total", "Total number of action records appended, by action kind", "action")
	m.checkInsRejected = m.counter("checkins_rejected_total", "Total number of daily check-ins rejected as duplicates")
	m.actionErrors = m.counterVec("action_errors_total", "Total number of rejected board mutations, by reason", "reason")
	m.totalCollaborators = m.gauge("collaborators", "Number of collaborators on the board")
	m.totalPoints = m.gauge("points", "Sum of all points on the board")
	m.mutationsTotal = m.counterVec("mutations_total", "Total number of successful board mutations, by operation", "op")
	m.mutationLatency = m.histogram("mutation_latency_milliseconds", "Latency of board mutations including persistence")

	m.storeSaves = m.counter("store_saves_total", "Total number of primary data file writes")
	m.storeSaveErrors = m.counter("store_save_errors_total", "Total number of failed primary data file writes")
	m.storeRecoveries = m.counter("store_recoveries_total", "Total number of loads recovered from a backup file")
	m.snapshotsWritten = m.counter("snapshots_written_total", "Total number of backup snapshots written")
	m.snapshotsPruned = m.counter("snapshots_pruned_total", "Total number of backup snapshots removed by retention")

	m.reportRenders = m.counter("report_renders_total", "Total number of HTML report renders")
	m.reportRenderErrors = m.counter("report_render_errors_total", "Total number of failed HTML report renders")
	m.uploads = m.counterVec("uploads_total", "Total number of source control uploads, by result", "result")

	m.notifyQueueSize = m.gauge("notify_queue_size", "Current number of pending change notifications")
	m.notifyDropped = m.counter("notify_dropped_total", "Total number of change notifications dropped on a full queue")
	m.subscriberErrors = m.counterVec("subscriber_errors_total", "Total number of subscriber failures", "subscriber")
	m.subscriberLatency = m.histogramVec("subscriber_latency_milliseconds", "Subscriber handling latency", "subscriber")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "Total number of HTTP error responses", "endpoint", "error_type")
}

// RecordActionRecorded adds n appended records of the given kind.
func RecordActionRecorded(kind string, n int) {
	globalManager.actionsRecorded.WithLabelValues(kind).Add(float64(n))
}

// RecordCheckInRejected increments the duplicate check-in counter.
func RecordCheckInRejected() {
	globalManager.checkInsRejected.Inc()
}

// RecordActionError increments the rejected mutation counter.
func RecordActionError(reason string) {
	globalManager.actionErrors.WithLabelValues(reason).Inc()
}

// RecordMutation counts a successful mutation and its latency.
func RecordMutation(op string, latencyMs float64) {
	globalManager.mutationsTotal.WithLabelValues(op).Inc()
	globalManager.mutationLatency.Observe(latencyMs)
}

// UpdateBoardTotals sets the collaborator and point gauges.
func UpdateBoardTotals(collaborators, points int) {
	globalManager.totalCollaborators.Set(float64(collaborators))
	globalManager.totalPoints.Set(float64(points))
}

// RecordStoreSave counts a primary file write.
func RecordStoreSave(err error) {
	if err != nil {
		globalManager.storeSaveErrors.Inc()
		return
	}
	globalManager.storeSaves.Inc()
}

// RecordStoreRecovery counts a load served from a backup file.
func RecordStoreRecovery() {
	globalManager.storeRecoveries.Inc()
}

// RecordSnapshot counts a written backup file.
func RecordSnapshot() {
	globalManager.snapshotsWritten.Inc()
}

// RecordSnapshotsPruned counts backups removed by retention.
func RecordSnapshotsPruned(n int) {
	globalManager.snapshotsPruned.Add(float64(n))
}

// RecordReportRender counts a report render.
func RecordReportRender(err error) {
	if err != nil {
		globalManager.reportRenderErrors.Inc()
		return
	}
	globalManager.reportRenders.Inc()
}

// RecordUpload counts an upload attempt by result ("ok", "noop", "error").
func RecordUpload(result string) {
	globalManager.uploads.WithLabelValues(result).Inc()
}

// UpdateNotifyQueueSize sets the pending notification gauge.
func UpdateNotifyQueueSize(size int) {
	globalManager.notifyQueueSize.Set(float64(size))
}

// RecordNotifyDropped counts a notification dropped on a full queue.
func RecordNotifyDropped() {
	globalManager.notifyDropped.Inc()
}

// RecordSubscriber records a subscriber invocation.
func RecordSubscriber(name string, latencyMs float64, err error) {
	globalManager.subscriberLatency.WithLabelValues(name).Observe(latencyMs)
	if err != nil {
		globalManager.subscriberErrors.WithLabelValues(name).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
