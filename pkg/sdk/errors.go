package docqa

import "github.com/kailas-cloud/docqa/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrEmptyInput             = domain.ErrEmptyInput
	ErrConfiguration          = domain.ErrConfiguration
	ErrNotReady               = domain.ErrNotReady
	ErrExtraction             = domain.ErrExtraction
	ErrProcessingFailed       = domain.ErrProcessingFailed
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrGeneration             = domain.ErrGeneration
)

// Transient marks an error returned by a custom Embedder as retryable.
// Unmarked errors fail the call without retrying.
func Transient(err error) error {
	return domain.MarkTransient(err)
}
