package usage

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodMonth, false},
		{"month", PeriodMonth, false},
		{"day", PeriodDay, false},
		{"total", "", true},
	}
	for _, tc := range tests {
		got, err := ParsePeriod(tc.in)
		if tc.wantErr {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("%q: expected ErrInvalidInput, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%q: got %q, %v", tc.in, got, err)
		}
	}
}

func TestNewReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	tests := []struct {
		name          string
		used, limit   int64
		wantRemaining int64
		wantExhausted bool
	}{
		{"unlimited", 500, 0, -1, false},
		{"within budget", 300, 1000, 700, false},
		{"exactly spent", 1000, 1000, 0, true},
		{"overspent", 1200, 1000, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReport(PeriodMonth, start, end, tc.used, tc.limit)
			if r.TokensRemaining() != tc.wantRemaining {
				t.Errorf("remaining: got %d, want %d", r.TokensRemaining(), tc.wantRemaining)
			}
			if r.Exhausted() != tc.wantExhausted {
				t.Errorf("exhausted: got %v, want %v", r.Exhausted(), tc.wantExhausted)
			}
			if r.TokensUsed() != tc.used || r.TokensLimit() != tc.limit {
				t.Errorf("unexpected counters %d/%d", r.TokensUsed(), r.TokensLimit())
			}
			if !r.Start().Equal(start) || !r.End().Equal(end) || r.Period() != PeriodMonth {
				t.Errorf("unexpected period bounds")
			}
		})
	}
}
