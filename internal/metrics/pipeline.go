package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Answer generation, document pipeline and session metrics.
var (
	GenerationRequestsTotal = counterVec("generation_requests_total",
		"Chat completion calls by outcome", "model", "status")
	GenerationRequestDuration = histogramVec("generation_request_duration_seconds",
		"Chat completion latency", []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60}, "model")
	GenerationTokensTotal = counterVec("generation_tokens_total",
		"Chat completion tokens by type (prompt, completion)", "model", "type")

	DocumentsProcessedTotal = counterVec("documents_processed_total",
		"Documents run through segmentation and indexing", "status")
	DocumentSegments = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "document_segments",
		Help:      "Segments produced per indexed document",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
	QueriesTotal = counterVec("queries_total",
		"Questions by outcome (success, error, not_ready)", "status")
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held in memory",
	})
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics exposes the generation, pipeline and session collectors.
func RegisterPipelineMetrics() {
	registerOnce(&pipelineOnce,
		GenerationRequestsTotal, GenerationRequestDuration, GenerationTokensTotal,
		DocumentsProcessedTotal, DocumentSegments, QueriesTotal, ActiveSessions,
	)
}
