package embedding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// BudgetAction is what happens once a token limit is reached.
type BudgetAction string

const (
	// BudgetActionWarn logs and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with domain.ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists counters so a restart keeps the running totals.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

const storeWriteTimeout = 2 * time.Second

// window is one budget period: a UTC day or a UTC month.
type window struct {
	name   string
	layout string
	limit  int64
	used   int64
	start  time.Time
	floor  func(time.Time) time.Time
}

func (w *window) roll(now time.Time) {
	if s := w.floor(now); s.After(w.start) {
		w.start = s
		w.used = 0
	}
}

func (w *window) exhausted() bool { return w.limit > 0 && w.used >= w.limit }

// remaining is -1 for an unlimited window.
func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

func (w *window) key(provider string, now time.Time) string {
	return domain.KeyPrefix + "budget:" + provider + ":" + w.name + ":" + now.Format(w.layout)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BudgetTracker counts embedding tokens per UTC day and month. Check reads
// memory only; Record writes through to the store when one is attached.
type BudgetTracker struct {
	mu       sync.Mutex
	daily    window
	monthly  window
	action   BudgetAction
	provider string
	now      func() time.Time
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit means unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		daily:    window{name: "daily", layout: "2006-01-02", limit: dailyLimit, floor: startOfDay},
		monthly:  window{name: "monthly", layout: "2006-01", limit: monthlyLimit, floor: startOfMonth},
		action:   action,
		provider: provider,
		logger:   logger,
	}
	b.setClock(time.Now)
	return b
}

// WithClock replaces the time source, for tests.
func (b *BudgetTracker) WithClock(now func() time.Time) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setClock(now)
	return b
}

func (b *BudgetTracker) setClock(now func() time.Time) {
	b.now = func() time.Time { return now().UTC() }
	t := b.now()
	b.daily.start, b.daily.used = startOfDay(t), 0
	b.monthly.start, b.monthly.used = startOfMonth(t), 0
}

// WithStore attaches a store and seeds the counters from it. Read failures
// are logged and leave the in-memory counters at zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	for _, w := range []*window{&b.daily, &b.monthly} {
		used, err := store.Get(ctx, w.key(b.provider, now))
		if err != nil {
			b.logger.Warn("Failed to load budget counter", zap.String("period", w.name), zap.Error(err))
			continue
		}
		w.used = used
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

// Check fails with domain.ErrEmbeddingQuotaExceeded when a limit is reached
// and the action is reject. With the warn action it only logs.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()

	if !b.daily.exhausted() && !b.monthly.exhausted() {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record adds tokens consumed by a finished request.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.roll()
	b.daily.used += tokens
	b.monthly.used += tokens
	store, now := b.store, b.now()
	keys := []string{b.daily.key(b.provider, now), b.monthly.key(b.provider, now)}
	b.mu.Unlock()

	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	for _, k := range keys {
		if err := store.IncrBy(ctx, k, tokens); err != nil {
			b.logger.Warn("Failed to persist budget counter", zap.String("key", k), zap.Error(err))
		}
	}
}

// DailyLimit returns the daily limit, 0 when unlimited.
func (b *BudgetTracker) DailyLimit() int64 { return b.daily.limit }

// MonthlyLimit returns the monthly limit, 0 when unlimited.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.monthly.limit }

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 { return b.read(func() int64 { return b.daily.used }) }

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 { return b.read(func() int64 { return b.monthly.used }) }

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 { return b.read(b.daily.remaining) }

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 { return b.read(b.monthly.remaining) }

func (b *BudgetTracker) read(f func() int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return f()
}

func (b *BudgetTracker) roll() {
	now := b.now()
	b.daily.roll(now)
	b.monthly.roll(now)
}
