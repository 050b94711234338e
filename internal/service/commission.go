package service

import (
	"context"
	"math"
	"time"

	"craftbid/internal/repository"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// CommissionCategory is the settings key for project engagements.
const CommissionCategory = "projects-merchants"

const (
	commissionFetchAttempts = 3
	commissionFetchBackoff  = 100 * time.Millisecond
)

// SplitCommission divides the agreed price into the platform's cut and the
// vendor's earnings. The two always sum exactly to the agreed price. An
// out-of-range or non-finite percentage is treated as 0%, never an error:
// completion must not fail because of a bad config value.
func SplitCommission(agreedPrice int64, percent float64) (commission, earnings int64) {
	if math.IsNaN(percent) || math.IsInf(percent, 0) || percent < 0 || percent > 100 {
		percent = 0
	}
	commission = int64(math.Round(float64(agreedPrice) * percent / 100))
	return commission, agreedPrice - commission
}

// CommissionRates resolves the current commission percentage for a category.
type CommissionRates interface {
	Percent(ctx context.Context, category string) float64
}

type settingsCommissionRates struct {
	settings repository.SettingsRepository
	logger   *zap.Logger
}

// NewCommissionRates reads commission percentages from the settings store
// with bounded retries, falling back to 0% when the value is missing,
// invalid, or the store stays unreachable.
func NewCommissionRates(settings repository.SettingsRepository, logger *zap.Logger) CommissionRates {
	return &settingsCommissionRates{settings: settings, logger: logger}
}

func (c *settingsCommissionRates) Percent(ctx context.Context, category string) float64 {
	var percent float64
	backoff := retry.WithMaxRetries(commissionFetchAttempts-1, retry.NewConstant(commissionFetchBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := c.settings.CommissionPercent(ctx, category)
		if err != nil {
			if err == repository.ErrSettingNotFound {
				// Absent config is a stable answer, not a transient failure.
				return err
			}
			return retry.RetryableError(err)
		}
		percent = p
		return nil
	})
	if err != nil {
		c.logger.Warn("Commission percentage unavailable, defaulting to 0%",
			zap.String("category", category),
			zap.Error(err),
		)
		return 0
	}
	return percent
}
