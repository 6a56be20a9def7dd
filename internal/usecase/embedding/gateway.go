package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// Gateway validates embedding input and retries transient provider failures.
// It keeps no state between calls.
type Gateway struct {
	embedder domain.Embedder
	policy   RetryPolicy
	sleep    Sleeper
	logger   *zap.Logger
}

// NewGateway wraps an embedder chain with the given retry policy.
func NewGateway(embedder domain.Embedder, policy RetryPolicy, logger *zap.Logger) (*Gateway, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Gateway{
		embedder: embedder,
		policy:   policy,
		sleep:    SleepContext,
		logger:   logger,
	}, nil
}

// WithSleeper replaces the backoff wait, for tests.
func (g *Gateway) WithSleeper(s Sleeper) *Gateway {
	g.sleep = s
	return g
}

// EmbedOne embeds a single text.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in order. Every vector of the result shares one dimensionality.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embed batch: no texts: %w", domain.ErrEmptyInput)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("embed batch: text %d is blank: %w", i, domain.ErrEmptyInput)
		}
	}

	var res domain.BatchEmbeddingResult
	err := g.withRetry(ctx, len(texts), func(ctx context.Context) error {
		var err error
		res, err = g.batch(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}
	dim := len(res.Embeddings[0])
	for i, v := range res.Embeddings {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d: %w",
				i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}

	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	return res.Embeddings, nil
}

func (g *Gateway) batch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.EmbedAll(ctx, g.embedder, texts) //nolint:wrapcheck // classified by withRetry
}

// withRetry runs op until it succeeds, fails permanently or the policy gives up.
func (g *Gateway) withRetry(ctx context.Context, batchSize int, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return &domain.EmbeddingUnavailableError{Attempts: attempt - 1, Err: err}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &domain.EmbeddingUnavailableError{Attempts: attempt, Err: err}
		}
		if !g.policy.retryable(err) {
			return fmt.Errorf("embed: %w", err)
		}
		if attempt >= g.policy.MaxAttempts {
			metrics.EmbeddingRetriesTotal.WithLabelValues("exhausted").Inc()
			g.logger.Error("Embedding retries exhausted",
				zap.Int("attempts", attempt),
				zap.Int("batch_size", batchSize),
				zap.Error(err),
			)
			return &domain.EmbeddingUnavailableError{Attempts: attempt, Err: err}
		}

		wait := g.policy.Backoff(attempt)
		metrics.EmbeddingRetriesTotal.WithLabelValues("retried").Inc()
		g.logger.Warn("Transient embedding failure, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.policy.MaxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		if serr := g.sleep(ctx, wait); serr != nil {
			return &domain.EmbeddingUnavailableError{Attempts: attempt, Err: errors.Join(serr, err)}
		}
	}
}

// MaxBackoff reports the total wait the policy allows across all attempts.
func (g *Gateway) MaxBackoff() time.Duration {
	var total time.Duration
	for a := 1; a < g.policy.MaxAttempts; a++ {
		total += g.policy.Backoff(a)
	}
	return total
}
