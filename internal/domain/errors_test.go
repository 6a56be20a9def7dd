package domain

import (
	"context"
	"errors"
	"testing"
)

func TestSentinelHierarchy(t *testing.T) {
	if !errors.Is(ErrEmptyInput, ErrInvalidInput) {
		t.Error("ErrEmptyInput must match ErrInvalidInput")
	}
	if !errors.Is(ErrEmptyIndex, ErrInvalidInput) {
		t.Error("ErrEmptyIndex must match ErrInvalidInput")
	}
	if errors.Is(ErrEmbeddingUnavailable, ErrInvalidInput) {
		t.Error("unavailability must be distinguishable from validation")
	}
}

func TestEmbeddingUnavailableError(t *testing.T) {
	cause := errors.New("503")
	err := error(&EmbeddingUnavailableError{Attempts: 3, Err: cause})

	if !errors.Is(err, ErrEmbeddingUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected both sentinel and cause, got %v", err)
	}
	if err.Error() != "embedding unavailable after 3 attempt(s): 503" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestGenerationError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&GenerationError{Err: cause})
	if !errors.Is(err, ErrGeneration) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrGeneration and cause, got %v", err)
	}
}

func TestFailedError(t *testing.T) {
	cause := &EmbeddingUnavailableError{Attempts: 3, Err: errors.New("timeout")}
	err := error(&FailedError{Stage: "embedding", Err: cause})

	if !errors.Is(err, ErrProcessingFailed) {
		t.Error("expected ErrProcessingFailed")
	}
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Error("expected cause chain to be preserved")
	}
	var fe *FailedError
	if !errors.As(err, &fe) || fe.Stage != "embedding" {
		t.Errorf("expected stage embedding, got %+v", fe)
	}
}

func TestMarkTransient(t *testing.T) {
	if MarkTransient(nil) != nil {
		t.Error("nil must stay nil")
	}
	cause := errors.New("reset by peer")
	err := MarkTransient(cause)
	if !IsTransient(err) || !errors.Is(err, cause) {
		t.Errorf("expected transient wrapping cause, got %v", err)
	}
	if IsTransient(cause) {
		t.Error("unmarked error must not be transient")
	}
}

func TestEmbeddingUsage(t *testing.T) {
	var nilUsage *EmbeddingUsage
	nilUsage.AddTokens(5)
	if nilUsage.TotalTokens() != 0 || nilUsage.Used() {
		t.Error("nil usage must be inert")
	}
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected no usage in bare context")
	}

	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(0)
	if !u.Used() {
		t.Error("zero-token call still counts as used")
	}
	UsageFromContext(ctx).AddTokens(12)
	if u.TotalTokens() != 12 {
		t.Errorf("expected 12 tokens, got %d", u.TotalTokens())
	}
}
