package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Pipeline metrics
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    *prometheus.CounterVec
	RunsStalled   prometheus.Counter
	RunLatency    prometheus.Histogram

	// Input metrics
	DocumentsTruncated prometheus.Counter

	// Compression metrics
	Compressions       *prometheus.CounterVec
	CompressionLatency prometheus.Histogram

	// LLM metrics
	LLMTokens *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "briefbase_pipeline_runs_started_total",
			Help: "Total number of summarization runs started",
		}),

		RunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "briefbase_pipeline_runs_completed_total",
			Help: "Total number of summarization runs completed successfully",
		}),

		RunsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briefbase_pipeline_runs_failed_total",
			Help: "Total number of summarization runs failed by stage",
		}, []string{"stage"}),

		RunsStalled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "briefbase_pipeline_runs_stalled_total",
			Help: "Total number of runs flagged as stalled",
		}),

		// Up to 10 minutes: extraction plus one or two LLM calls
		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "briefbase_pipeline_run_duration_seconds",
			Help:    "Summarization run latency in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		DocumentsTruncated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "briefbase_documents_truncated_total",
			Help: "Total number of documents truncated before summarization",
		}),

		Compressions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briefbase_kb_compressions_total",
			Help: "Total number of knowledge base compressions by outcome",
		}, []string{"outcome"}),

		CompressionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "briefbase_kb_compression_duration_seconds",
			Help:    "Knowledge base compression latency in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240},
		}),

		LLMTokens: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briefbase_llm_tokens_total",
			Help: "Total LLM tokens by model and direction",
		}, []string{"model", "direction"}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRunStarted records a run entering the processing state
func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
}

// RecordRunCompleted records a successful run with its latency
func (m *Metrics) RecordRunCompleted(seconds float64) {
	m.RunsCompleted.Inc()
	m.RunLatency.Observe(seconds)
}

// RecordRunFailed records a failed run by pipeline stage
func (m *Metrics) RecordRunFailed(stage string) {
	m.RunsFailed.WithLabelValues(stage).Inc()
}

// RecordRunStalled records a run flagged as stalled
func (m *Metrics) RecordRunStalled() {
	m.RunsStalled.Inc()
}

// RecordTruncation records a document cut to the input ceiling
func (m *Metrics) RecordTruncation() {
	m.DocumentsTruncated.Inc()
}

// RecordCompression records a compression attempt by outcome
func (m *Metrics) RecordCompression(outcome string, seconds float64) {
	m.Compressions.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.CompressionLatency.Observe(seconds)
	}
}

// RecordLLMTokens records token usage for a completion call
func (m *Metrics) RecordLLMTokens(model string, inputTokens, outputTokens int) {
	m.LLMTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.LLMTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
}
