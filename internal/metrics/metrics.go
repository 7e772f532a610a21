// Package metrics defines Prometheus metrics for tinker-voice.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tv"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last liveness probe succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last readiness probe succeeded (1) or failed (0).",
	})
)

// Vendor call metrics.
var (
	VendorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_requests_total",
		Help:      "Total vendor API calls by outcome.",
	}, []string{"service", "outcome"})

	VendorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "vendor_request_duration_seconds",
		Help:      "Duration of vendor API calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service"})

	VendorDailyUsage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "vendor_daily_usage",
		Help:      "Vendor calls made within the rolling 24-hour window.",
	}, []string{"service"})

	VendorUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "vendor_up",
		Help:      "Whether the last vendor connection test succeeded (1) or failed (0).",
	}, []string{"service"})
)

// Poller metrics.
var (
	PollAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_attempts_total",
		Help:      "Total status fetches issued by job pollers.",
	}, []string{"kind"})

	PollOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_outcomes_total",
		Help:      "Total finished poll loops by terminal state.",
	}, []string{"kind", "state"})

	PollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Wall-clock duration of poll loops in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"kind"})
)

// Agent metrics.
var (
	AgentCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_calls_total",
		Help:      "Total reasoning agent calls by outcome.",
	}, []string{"agent", "outcome"})

	AgentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_duration_seconds",
		Help:      "Duration of reasoning agent calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"agent"})

	LLMTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_tokens_total",
		Help:      "Total LLM tokens consumed by backend and direction.",
	}, []string{"backend", "direction"})
)

// Dataset metrics.
var (
	DatasetRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_records_total",
		Help:      "Total training records parsed by source format.",
	}, []string{"format"})
)
