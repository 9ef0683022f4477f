package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AI call latency in milliseconds
	AICallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_call_latency_ms",
			Help:    "AI capability call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"capability", "status"},
	)

	// Store operation latency in seconds
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_op_duration_seconds",
			Help:    "Roadmap store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"backend", "operation"},
	)

	// HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// Generated content items
	ContentGeneratedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_generated_count",
			Help: "Total number of generated content items",
		},
		[]string{"stage", "source"}, // stage: menu, recipe, exercise; source: ai, fallback
	)

	// Content items that fell back
	ContentFallbackCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fallback_count",
			Help: "Total number of content items that fell back to deterministic generation",
		},
		[]string{"stage", "reason"},
	)

	// Module state transitions
	ModuleTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "module_transition_count",
			Help: "Total number of module state transitions",
		},
		[]string{"transition"}, // completed, unlocked, stalled, override
	)

	// Slow queries by SQL verb
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of database queries slower than the configured threshold",
		},
		[]string{"command"},
	)

	// Slow query duration in seconds
	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow database queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		},
	)
)

func RecordAICallLatency(capability, status string, duration time.Duration) {
	AICallLatency.WithLabelValues(capability, status).Observe(float64(duration.Milliseconds()))
}

func RecordStoreOpDuration(backend, operation string, duration time.Duration) {
	StoreOpDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementContentGenerated(stage, source string) {
	ContentGeneratedCount.WithLabelValues(stage, source).Inc()
}

func IncrementContentFallback(stage, reason string) {
	ContentFallbackCount.WithLabelValues(stage, reason).Inc()
}

func IncrementModuleTransition(transition string) {
	ModuleTransitionCount.WithLabelValues(transition).Inc()
}

func IncrementSlowQuery(command string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(command).Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}
