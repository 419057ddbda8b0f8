package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

// SettingsRepo manages the single cost_settings row.
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetCostSettings returns the stored settings, or the documented defaults
// if the row was never written.
func (r *SettingsRepo) GetCostSettings(ctx context.Context) (models.CostSettings, error) {
	query := `SELECT daily_cap, notification_threshold, updated_at
		FROM cost_settings WHERE id = 1`

	var s models.CostSettings
	err := r.db.conn.QueryRowContext(ctx, query).
		Scan(&s.DailyCap, &s.NotificationThreshold, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.DefaultCostSettings(), nil
	}
	if err != nil {
		return models.CostSettings{}, fmt.Errorf("failed to get cost settings: %w", err)
	}
	return s, nil
}

// UpdateCostSettings overwrites the singleton row.
func (r *SettingsRepo) UpdateCostSettings(ctx context.Context, s models.CostSettings) error {
	if s.DailyCap <= 0 {
		return fmt.Errorf("daily cap must be positive, got %v", s.DailyCap)
	}
	if s.NotificationThreshold < 0 {
		return fmt.Errorf("notification threshold must not be negative, got %v", s.NotificationThreshold)
	}
	if s.NotificationThreshold > s.DailyCap {
		return fmt.Errorf("notification threshold %v exceeds daily cap %v", s.NotificationThreshold, s.DailyCap)
	}

	query := `
		INSERT INTO cost_settings (id, daily_cap, notification_threshold, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			daily_cap = excluded.daily_cap,
			notification_threshold = excluded.notification_threshold,
			updated_at = excluded.updated_at`

	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(query),
		s.DailyCap, s.NotificationThreshold, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update cost settings: %w", err)
	}
	return nil
}
