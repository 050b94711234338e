package service

import (
	"context"
	"errors"
	"testing"

	"craftbid/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func TestSplitCommission(t *testing.T) {
	tests := []struct {
		name           string
		agreedPrice    int64
		percent        float64
		wantCommission int64
		wantEarnings   int64
	}{
		{"ten percent", 1500, 10, 150, 1350},
		{"zero percent", 1500, 0, 0, 1500},
		{"hundred percent", 1500, 100, 1500, 0},
		{"rounds half up", 999, 10, 100, 899},
		{"fractional percent", 1000, 12.5, 125, 875},
		{"negative percent treated as zero", 1500, -5, 0, 1500},
		{"over hundred treated as zero", 1500, 101, 0, 1500},
		{"zero price", 0, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commission, earnings := SplitCommission(tt.agreedPrice, tt.percent)
			if commission != tt.wantCommission || earnings != tt.wantEarnings {
				t.Errorf("SplitCommission(%d, %v) = (%d, %d), want (%d, %d)",
					tt.agreedPrice, tt.percent, commission, earnings,
					tt.wantCommission, tt.wantEarnings)
			}
		})
	}
}

func TestProperty_SplitAlwaysReassemblesPrice(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("commission + earnings == price, both non-negative", prop.ForAll(
		func(price int64, percent float64) bool {
			commission, earnings := SplitCommission(price, percent)
			if commission+earnings != price {
				t.Logf("FAIL: split of %d at %v%% lost units: %d + %d", price, percent, commission, earnings)
				return false
			}
			if commission < 0 || earnings < 0 {
				t.Logf("FAIL: negative leg: %d / %d", commission, earnings)
				return false
			}
			return true
		},
		gen.Int64Range(0, 1_000_000_000),
		gen.Float64Range(-10, 110),
	))

	properties.TestingRun(t)
}

type stubSettings struct {
	value float64
	err   error
	calls int
}

func (s *stubSettings) CommissionPercent(ctx context.Context, category string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.value, nil
}

func TestCommissionRates_ReadsConfiguredPercent(t *testing.T) {
	settings := &stubSettings{value: 12.5}
	rates := NewCommissionRates(settings, zap.NewNop())

	if got := rates.Percent(context.Background(), CommissionCategory); got != 12.5 {
		t.Fatalf("Percent = %v, want 12.5", got)
	}
}

func TestCommissionRates_MissingSettingFallsBackToZero(t *testing.T) {
	settings := &stubSettings{err: repository.ErrSettingNotFound}
	rates := NewCommissionRates(settings, zap.NewNop())

	if got := rates.Percent(context.Background(), CommissionCategory); got != 0 {
		t.Fatalf("Percent = %v, want 0 for missing setting", got)
	}
	if settings.calls != 1 {
		t.Fatalf("missing setting retried %d times, want 1 lookup", settings.calls)
	}
}

func TestCommissionRates_TransientFailureRetriesThenFallsBack(t *testing.T) {
	settings := &stubSettings{err: errors.New("connection reset")}
	rates := NewCommissionRates(settings, zap.NewNop())

	if got := rates.Percent(context.Background(), CommissionCategory); got != 0 {
		t.Fatalf("Percent = %v, want 0 after exhausted retries", got)
	}
	if settings.calls < 2 {
		t.Fatalf("transient failure attempted %d lookups, want retries", settings.calls)
	}
}
