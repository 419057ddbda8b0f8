package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

// StreakRepo stores the derived streak summary as a single row.
type StreakRepo struct {
	db *DB
}

func NewStreakRepo(db *DB) *StreakRepo {
	return &StreakRepo{db: db}
}

func (r *StreakRepo) Get(ctx context.Context) (models.Streak, error) {
	query := `SELECT current_streak, longest_streak, last_activity_date, updated_at
		FROM user_streaks WHERE id = 1`

	var s models.Streak
	err := r.db.conn.QueryRowContext(ctx, query).
		Scan(&s.CurrentStreak, &s.LongestStreak, &s.LastActivityDate, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Streak{}, nil
	}
	if err != nil {
		return models.Streak{}, fmt.Errorf("failed to get streak: %w", err)
	}
	return s, nil
}

// Replace overwrites the streak row wholesale; streaks are recomputed, not
// incremented.
func (r *StreakRepo) Replace(ctx context.Context, s models.Streak) error {
	query := `
		INSERT INTO user_streaks (id, current_streak, longest_streak, last_activity_date, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_activity_date = excluded.last_activity_date,
			updated_at = excluded.updated_at`

	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(query),
		s.CurrentStreak, s.LongestStreak, s.LastActivityDate, time.Now())
	if err != nil {
		return fmt.Errorf("failed to replace streak: %w", err)
	}
	return nil
}
