package timeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

// Service runs the derived-timeline passes against the activity store.
type Service struct {
	activities *database.ActivityRepo
	streaks    *database.StreakRepo
	ceiling    time.Duration
	log        *zap.Logger
}

func NewService(activities *database.ActivityRepo, streaks *database.StreakRepo, log *zap.Logger) *Service {
	return &Service{
		activities: activities,
		streaks:    streaks,
		ceiling:    DefaultDurationCeiling,
		log:        log,
	}
}

// FillDurations infers durations for activities that do not have one yet.
// Already-set durations are left untouched, so re-running is safe.
func (s *Service) FillDurations(ctx context.Context) (int, error) {
	activities, err := s.activities.ListUndated(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load undated activities: %w", err)
	}
	return s.applyDurations(ctx, activities)
}

// RecomputeDurations wipes every stored duration and rebuilds from the full
// analyzed history.
func (s *Service) RecomputeDurations(ctx context.Context) (int, error) {
	if err := s.activities.ClearDurations(ctx); err != nil {
		return 0, err
	}
	activities, err := s.activities.ListAnalyzed(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load analyzed activities: %w", err)
	}
	for _, a := range activities {
		a.DurationMinutes = nil
	}
	return s.applyDurations(ctx, activities)
}

func (s *Service) applyDurations(ctx context.Context, activities []*models.Activity) (int, error) {
	assignments, err := InferDurations(activities, s.ceiling)
	if err != nil {
		return 0, fmt.Errorf("duration inference aborted: %w", err)
	}

	for _, assignment := range assignments {
		if err := s.activities.SetDuration(ctx, assignment.ActivityID, assignment.Minutes); err != nil {
			return 0, err
		}
	}

	s.log.Info("duration inference complete",
		zap.Int("processed", len(activities)),
		zap.Int("updated", len(assignments)))
	return len(assignments), nil
}

// RecomputeStreaks rebuilds the streak summary from the distinct activity
// dates and overwrites the stored row.
func (s *Service) RecomputeStreaks(ctx context.Context) (models.Streak, error) {
	dates, err := s.activities.DistinctDates(ctx)
	if err != nil {
		return models.Streak{}, fmt.Errorf("failed to load activity dates: %w", err)
	}

	current, longest := ComputeStreaks(dates, time.Now())

	streak := models.Streak{
		CurrentStreak: current,
		LongestStreak: longest,
	}
	if len(dates) > 0 {
		// DistinctDates is newest-first.
		last := dates[0]
		streak.LastActivityDate = &last
	}

	if err := s.streaks.Replace(ctx, streak); err != nil {
		return models.Streak{}, err
	}

	s.log.Info("streaks recomputed",
		zap.Int("current", current),
		zap.Int("longest", longest))
	return streak, nil
}
