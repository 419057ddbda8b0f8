package models

import "time"

// Streak is the derived consecutive-day summary. It is always recomputed
// from the full distinct-date set and written back as a full overwrite.
type Streak struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
