package metrics

import "sync"

// Embedding provider and gateway metrics.
var (
	EmbeddingRequestsTotal = counterVec("embedding_requests_total",
		"Embedding provider calls by outcome", "provider", "model", "status")
	EmbeddingRequestDuration = histogramVec("embedding_request_duration_seconds",
		"Embedding provider call latency", []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, "provider", "model")
	EmbeddingTokensTotal = counterVec("embedding_tokens_total",
		"Embedding tokens billed by the provider", "provider", "model", "type")
	EmbeddingErrorsTotal = counterVec("embedding_errors_total",
		"Failed embedding calls by kind (network, rate_limited, server_error, api_error, count_mismatch)",
		"provider", "model", "error_type")
	// EmbeddingRetriesTotal counts gateway retries ("retried") and given-up calls ("exhausted").
	EmbeddingRetriesTotal = counterVec("embedding_retries_total",
		"Embedding attempts retried after a transient failure", "outcome")
	EmbeddingBudgetTokensRemaining = gaugeVec("embedding_budget_tokens_remaining",
		"Tokens left in the daily or monthly embedding budget", "provider", "period")
	// EmbeddingCacheTotal counts cache lookups by result ("hit" / "miss").
	EmbeddingCacheTotal = counterVec("embedding_cache_total",
		"Embedding cache lookups", "result")
)

var embeddingOnce sync.Once

// RegisterEmbeddingMetrics exposes the embedding collectors.
func RegisterEmbeddingMetrics() {
	registerOnce(&embeddingOnce,
		EmbeddingRequestsTotal, EmbeddingRequestDuration, EmbeddingTokensTotal, EmbeddingErrorsTotal,
		EmbeddingRetriesTotal, EmbeddingBudgetTokensRemaining, EmbeddingCacheTotal,
	)
}
