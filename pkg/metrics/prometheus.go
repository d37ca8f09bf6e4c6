// Package metrics provides Prometheus metrics for the Xnake anti-cheat service.
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

	// Submission pipeline metrics
	submissionsTotal *prometheus.CounterVec
	cheatsTotal      *prometheus.CounterVec
	replayDuration   prometheus.Histogram
	replayFrames     prometheus.Histogram

	// ML metrics
	inferenceLatency prometheus.Histogram
	edgeCasesTotal   *prometheus.CounterVec
	trainingRuns     prometheus.Counter
	trainingFailures prometheus.Counter
	trainingDuration prometheus.Histogram
	activeModelF1    prometheus.Gauge
	activeModelAcc   prometheus.Gauge
	trainingSamples  prometheus.Gauge

	// Session and admission metrics
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	rateLimited     prometheus.Counter

	// Event queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "xnake",
		subsystem:        "anticheat",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric initialization is enumerative
	auto := promauto.With(m.registry)

	m.submissionsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submissions_total",
			Help:      "Total number of score submissions by outcome",
		},
		[]string{"outcome"},
	)

	m.cheatsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cheats_total",
			Help:      "Total number of cheat detections by kind",
		},
		[]string{"kind"},
	)

	m.replayDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_duration_milliseconds",
		Help:      "Histogram of server-side replay duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.replayFrames = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_frames",
		Help:      "Histogram of simulated frame counts per replay",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	m.inferenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ml_inference_latency_milliseconds",
		Help:      "Histogram of ML inference latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.edgeCasesTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "edge_cases_total",
			Help:      "Total number of rule/ML disagreement edge cases by type",
		},
		[]string{"type"},
	)

	m.trainingRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_runs_total",
		Help:      "Total number of model training runs started",
	})

	m.trainingFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_failures_total",
		Help:      "Total number of failed model training runs",
	})

	m.trainingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_duration_seconds",
		Help:      "Histogram of model training run duration in seconds",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	m.activeModelF1 = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_model_f1",
		Help:      "F1 score of the currently active model",
	})

	m.activeModelAcc = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_model_accuracy",
		Help:      "Accuracy of the currently active model",
	})

	m.trainingSamples = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_samples",
		Help:      "Number of labeled training samples in the store",
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Number of in-flight game sessions",
	})

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_created_total",
		Help:      "Total number of game sessions created",
	})

	m.sessionsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_expired_total",
		Help:      "Total number of game sessions evicted by the TTL sweeper",
	})

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limited_total",
		Help:      "Total number of submissions rejected by the rate limiter",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_size",
		Help:      "Current size of the training-event queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_capacity",
		Help:      "Capacity of the training-event queue",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_enqueue_errors_total",
		Help:      "Total number of failed enqueues to the training-event queue",
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

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// Package-level helpers operating on the global manager.

// RecordSubmission records a pipeline outcome ("accepted" or "rejected").
func RecordSubmission(outcome string) {
	globalManager.submissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCheat records a cheat detection by kind.
func RecordCheat(kind string) {
	globalManager.cheatsTotal.WithLabelValues(kind).Inc()
}

// RecordReplayDuration records a replay duration in milliseconds.
func RecordReplayDuration(latencyMs float64) {
	globalManager.replayDuration.Observe(latencyMs)
}

// RecordReplayFrames records the simulated frame count of a replay.
func RecordReplayFrames(frames int) {
	globalManager.replayFrames.Observe(float64(frames))
}

// RecordInferenceLatency records an ML inference latency in milliseconds.
func RecordInferenceLatency(latencyMs float64) {
	globalManager.inferenceLatency.Observe(latencyMs)
}

// RecordEdgeCase records an edge case by classification type.
func RecordEdgeCase(edgeType string) {
	globalManager.edgeCasesTotal.WithLabelValues(edgeType).Inc()
}

// RecordTrainingRun records the start of a training run.
func RecordTrainingRun() {
	globalManager.trainingRuns.Inc()
}

// RecordTrainingFailure records a failed training run.
func RecordTrainingFailure() {
	globalManager.trainingFailures.Inc()
}

// RecordTrainingDuration records a completed training run duration in seconds.
func RecordTrainingDuration(seconds float64) {
	globalManager.trainingDuration.Observe(seconds)
}

// UpdateActiveModel publishes the active model's headline metrics.
func UpdateActiveModel(f1, accuracy float64) {
	globalManager.activeModelF1.Set(f1)
	globalManager.activeModelAcc.Set(accuracy)
}

// UpdateTrainingSamples updates the labeled sample count gauge.
func UpdateTrainingSamples(count int) {
	globalManager.trainingSamples.Set(float64(count))
}

// UpdateActiveSessions updates the in-flight session gauge.
func UpdateActiveSessions(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionCreated records a new game session.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionExpired records a TTL eviction.
func RecordSessionExpired() {
	globalManager.sessionsExpired.Inc()
}

// RecordRateLimited records a rate-limited submission.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// UpdateQueueSize updates the training-event queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity updates the training-event queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError records a failed enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
