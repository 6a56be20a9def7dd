// Package budget persists embedding token counters in the key-value store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/docqa/internal/db"
)

// Counter lifetimes. Each outlives its period so a restart near midnight
// still finds the running total.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

type counters interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Store implements embedding.BudgetStore.
type Store struct {
	kv       counters
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store. Non-positive TTLs fall back to the defaults.
func New(kv counters, dailyTTL, monthTTL time.Duration) *Store {
	s := &Store{kv: kv, dailyTTL: DefaultDailyTTL, monthTTL: DefaultMonthlyTTL}
	if dailyTTL > 0 {
		s.dailyTTL = dailyTTL
	}
	if monthTTL > 0 {
		s.monthTTL = monthTTL
	}
	return s
}

// IncrBy adds tokens to the counter at key.
func (s *Store) IncrBy(ctx context.Context, key string, tokens int64) error {
	if _, err := s.kv.IncrByWithTTL(ctx, key, tokens, s.ttl(key)); err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	return nil
}

// Get returns the counter at key, 0 if it does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget: %w", err)
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget: counter %s holds %q: %w", key, raw, err)
	}
	return n, nil
}

// ttl reads the period from keys shaped docqa:budget:{provider}:{daily|monthly}:{date}.
func (s *Store) ttl(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.dailyTTL
	}
	return s.monthTTL
}
