// Package usage describes embedding token consumption against the configured budget.
package usage

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a Period. Empty means month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("unknown usage period %q: %w", s, domain.ErrInvalidInput)
	}
}

// Report is embedding token usage for one budget period.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	used      int64
	limit     int64
	remaining int64
}

// NewReport creates a usage report. limit 0 means unlimited.
func NewReport(period Period, start, end time.Time, used, limit int64) Report {
	remaining := int64(-1)
	if limit > 0 {
		remaining = max(limit-used, 0)
	}
	return Report{
		period:    period,
		start:     start,
		end:       end,
		used:      used,
		limit:     limit,
		remaining: remaining,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// Start returns the beginning of the period (UTC).
func (r *Report) Start() time.Time { return r.start }

// End returns the exclusive end of the period, which is also when the budget resets.
func (r *Report) End() time.Time { return r.end }

// TokensUsed returns the embedding tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.used }

// TokensLimit returns the budget for the period, 0 if unlimited.
func (r *Report) TokensLimit() int64 { return r.limit }

// TokensRemaining returns the tokens left, -1 if unlimited.
func (r *Report) TokensRemaining() int64 { return r.remaining }

// Exhausted reports whether a limited budget has no tokens left.
func (r *Report) Exhausted() bool { return r.limit > 0 && r.remaining == 0 }
