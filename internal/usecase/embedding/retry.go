package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// RetryPolicy decides how often and how long the gateway waits between
// embedding attempts.
type RetryPolicy struct {
	// MaxAttempts counts the first call, so 3 means at most two retries.
	MaxAttempts int
	// Floor is the wait before the second attempt; each later wait doubles.
	Floor time.Duration
	// Ceiling caps every wait.
	Ceiling time.Duration
	// Retryable classifies provider errors; nil means domain.IsTransient.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns 3 attempts with waits of 4s then 8s, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Floor:       4 * time.Second,
		Ceiling:     10 * time.Second,
		Retryable:   domain.IsTransient,
	}
}

// Validate rejects policies that would never call the provider or never stop waiting.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be >= 1, got %d: %w", p.MaxAttempts, domain.ErrConfiguration)
	}
	if p.Floor < 0 || p.Ceiling < p.Floor {
		return fmt.Errorf("retry backoff floor %s / ceiling %s out of order: %w",
			p.Floor, p.Ceiling, domain.ErrConfiguration)
	}
	return nil
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.Floor
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.Ceiling {
			return p.Ceiling
		}
	}
	return min(d, p.Ceiling)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return domain.IsTransient(err)
	}
	return p.Retryable(err)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
