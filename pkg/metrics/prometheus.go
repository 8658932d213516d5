// Package metrics provides Prometheus metrics for the detbench evaluator.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ratioBuckets cover precision and recall, which live in [0, 1].
var ratioBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99, 1} //nolint:gochecknoglobals // constant bucket layout

// Manager manages all Prometheus metrics for detbench.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Evaluation metrics
	evaluations       *prometheus.CounterVec
	evaluationLatency prometheus.Histogram
	truePositives     prometheus.Counter
	falsePositives    prometheus.Counter
	falseNegatives    prometheus.Counter
	precision         prometheus.Histogram
	recall            prometheus.Histogram
	validations       *prometheus.CounterVec

	// Batch job metrics
	jobsEnqueued  prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    *prometheus.CounterVec
	storedReports prometheus.Gauge

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager.Store(NewManager(WithPrometheusRegistry(customRegistry)))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "detbench",
		subsystem:        "evaluator",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// SetEnabled turns recording through the package-level helpers on or off.
func SetEnabled(enabled bool) {
	globalManager.Load().enabled.Store(enabled)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.evaluations = m.counterVec("evaluations_total", "Evaluations by source and outcome", "source", "outcome")
	m.evaluationLatency = m.histogram("evaluation_latency_milliseconds", "Time to generate, match and score one log", m.histogramBuckets)
	m.truePositives = m.counter("true_positives_total", "Samples that matched an expected event")
	m.falsePositives = m.counter("false_positives_total", "Samples that matched no expected event")
	m.falseNegatives = m.counter("false_negatives_total", "Expected events no sample matched")
	m.precision = m.histogram("precision_ratio", "Precision of completed evaluations", ratioBuckets)
	m.recall = m.histogram("recall_ratio", "Recall of completed evaluations", ratioBuckets)
	m.validations = m.counterVec("validations_total", "Cyclic sequence validations by outcome", "outcome")

	m.jobsEnqueued = m.counter("jobs_enqueued_total", "Batch jobs accepted into the queue")
	m.jobsCompleted = m.counter("jobs_completed_total", "Batch jobs scored successfully")
	m.jobsFailed = m.counterVec("jobs_failed_total", "Batch jobs that failed, by error kind", "kind")
	m.storedReports = m.gauge("stored_reports", "Job records held in the report store")

	m.queueSize = m.gauge("queue_size", "Current number of queued jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued jobs")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueues by reason", "reason")

	m.workerCount = m.gauge("worker_count", "Configured number of workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently scoring a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one job", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

func active() (*Manager, bool) {
	m := globalManager.Load()
	return m, m != nil && m.enabled.Load()
}

// RecordEvaluation counts one evaluation. source is api, job or cli; outcome
// is ok or an error kind.
func RecordEvaluation(source, outcome string) {
	if m, ok := active(); ok {
		m.evaluations.WithLabelValues(source, outcome).Inc()
	}
}

// RecordEvaluationLatency records evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	if m, ok := active(); ok {
		m.evaluationLatency.Observe(latencyMs)
	}
}

// RecordMatchCounts adds the outcome counts of one evaluation.
func RecordMatchCounts(tp, fp, fn int) {
	if m, ok := active(); ok {
		m.truePositives.Add(float64(tp))
		m.falsePositives.Add(float64(fp))
		m.falseNegatives.Add(float64(fn))
	}
}

// ObserveScores records the precision and recall of one evaluation.
func ObserveScores(precision, recall float64) {
	if m, ok := active(); ok {
		m.precision.Observe(precision)
		m.recall.Observe(recall)
	}
}

// RecordValidation counts one cyclic validation.
func RecordValidation(outcome string) {
	if m, ok := active(); ok {
		m.validations.WithLabelValues(outcome).Inc()
	}
}

// RecordJobEnqueued counts an accepted job.
func RecordJobEnqueued() {
	if m, ok := active(); ok {
		m.jobsEnqueued.Inc()
	}
}

// RecordJobCompleted counts a successfully scored job.
func RecordJobCompleted() {
	if m, ok := active(); ok {
		m.jobsCompleted.Inc()
	}
}

// RecordJobFailed counts a failed job by error kind.
func RecordJobFailed(kind string) {
	if m, ok := active(); ok {
		m.jobsFailed.WithLabelValues(kind).Inc()
	}
}

// UpdateStoredReports sets the number of records in the report store.
func UpdateStoredReports(count int) {
	if m, ok := active(); ok {
		m.storedReports.Set(float64(count))
	}
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	if m, ok := active(); ok {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m, ok := active(); ok {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	if m, ok := active(); ok {
		m.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if m, ok := active(); ok {
		m.workerCount.Set(float64(count))
	}
}

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) {
	if m, ok := active(); ok {
		m.workerActiveCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency records how long one job took in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m, ok := active(); ok {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m, ok := active(); ok {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m, ok := active(); ok {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	if m, ok := active(); ok {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m, ok := active(); ok {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if m, ok := active(); ok {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m, ok := active(); ok {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom registry the global manager reports to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
