// Package cost gates paid analysis calls against the configured daily
// budget.
package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

// Status reports today's spend against the configured cap. Blocked uses an
// inclusive boundary: spend equal to the cap already blocks.
type Status struct {
	Spend            models.DailySpend   `json:"spend"`
	Settings         models.CostSettings `json:"settings"`
	Blocked          bool                `json:"blocked"`
	ThresholdReached bool                `json:"threshold_reached"`
}

// Governor recomputes daily spend from activity rows on every check; there
// is no cached counter to drift.
type Governor struct {
	activities *database.ActivityRepo
	settings   *database.SettingsRepo
}

func NewGovernor(activities *database.ActivityRepo, settings *database.SettingsRepo) *Governor {
	return &Governor{activities: activities, settings: settings}
}

// Check sums today's spend and compares it to the cap and notification
// threshold. A blocked status forces the caller to skip analysis no matter
// what the capture gate decided.
func (g *Governor) Check(ctx context.Context, now time.Time) (Status, error) {
	settings, err := g.settings.GetCostSettings(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to load cost settings: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	spend, err := g.activities.DailySpend(ctx, dayStart)
	if err != nil {
		return Status{}, fmt.Errorf("failed to aggregate daily spend: %w", err)
	}

	return Status{
		Spend:            *spend,
		Settings:         settings,
		Blocked:          spend.Cost >= settings.DailyCap,
		ThresholdReached: spend.Cost >= settings.NotificationThreshold,
	}, nil
}
