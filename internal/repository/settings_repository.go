package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository reads platform configuration values owned by the
// surrounding system. The core consumes them; it never writes.
type SettingsRepository interface {
	CommissionPercent(ctx context.Context, category string) (float64, error)
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// CommissionPercent returns the configured commission percentage for a
// category key such as "projects-merchants". A missing or non-numeric value
// surfaces as an error; the fallback-to-zero policy belongs to the caller.
func (r *settingsRepository) CommissionPercent(ctx context.Context, category string) (float64, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`,
		"commission:"+category).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrSettingNotFound
		}
		return 0, fmt.Errorf("failed to read commission setting: %w", err)
	}

	percent, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("commission setting %q is not numeric: %w", raw, err)
	}
	return percent, nil
}
