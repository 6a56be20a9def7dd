package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals empty or malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyInput signals blank text where content is required.
	ErrEmptyInput = fmt.Errorf("empty input: %w", ErrInvalidInput)
	// ErrEmptyIndex signals an attempt to build an index without entries.
	ErrEmptyIndex = fmt.Errorf("empty index: %w", ErrInvalidInput)
	// ErrConfiguration signals invalid chunking or pipeline parameters.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrDimensionMismatch signals vectors of differing dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNotReady signals an operation invoked from the wrong pipeline state.
	ErrNotReady = errors.New("pipeline not ready")
	// ErrExtraction signals that no text could be extracted from a document.
	ErrExtraction = errors.New("text extraction failed")
	// ErrSessionNotFound signals a missing session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTransient marks provider failures that are likely to succeed on retry.
	ErrTransient = errors.New("transient provider failure")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingUnavailable signals that embeddings could not be obtained after retries.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrGeneration signals a language model failure.
	ErrGeneration = errors.New("answer generation failed")
	// ErrProcessingFailed signals that a document could not be indexed.
	ErrProcessingFailed = errors.New("document processing failed")
)

// EmbeddingUnavailableError reports an exhausted retry budget or a cancelled wait.
// It matches both ErrEmbeddingUnavailable and the last provider error.
type EmbeddingUnavailableError struct {
	Attempts int
	Err      error
}

func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrEmbeddingUnavailable.Error(), e.Attempts, e.Err)
}

func (e *EmbeddingUnavailableError) Unwrap() []error {
	return []error{ErrEmbeddingUnavailable, e.Err}
}

// GenerationError wraps a completion provider failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrGeneration.Error(), e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}

// FailedError records the pipeline stage a document failed in.
type FailedError struct {
	Stage string
	Err   error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%s during %s: %v", ErrProcessingFailed.Error(), e.Stage, e.Err)
}

func (e *FailedError) Unwrap() []error {
	return []error{ErrProcessingFailed, e.Err}
}

// MarkTransient tags err as retryable while keeping it matchable with errors.Is.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether err was marked retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
