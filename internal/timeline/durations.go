// Package timeline derives duration and streak metrics from the activity
// log. Both computations rebuild from scratch on every run instead of
// maintaining incremental state; determinism and idempotence are worth the
// extra reads.
package timeline

import (
	"fmt"
	"time"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

// DefaultDurationCeiling caps inferred durations; a longer gap means the
// person left or slept, not that one activity ran that long.
const DefaultDurationCeiling = 240 * time.Minute

// UnknownPerson is the sentinel label for an unidentified person. A null
// person is normalized to this value before comparison so the two never
// diverge across code paths.
const UnknownPerson = "Unknown"

// DurationAssignment records one inferred duration to persist.
type DurationAssignment struct {
	ActivityID string
	Minutes    int
}

// InferDurations walks activities in ascending timestamp order and infers
// how long each one lasted from the gap to its immediate successor. An
// activity receives a duration only when all of:
//
//   - it has no duration yet (already-set values are never overwritten)
//   - the gap is strictly greater than zero whole minutes
//   - the gap is strictly less than the ceiling
//   - both activities carry the same (normalized) person label
//   - both activities happened in the same room
//
// The last activity never gets a duration; it has no successor yet.
// Input must already be sorted ascending; out-of-order timestamps abort
// the whole batch with an error rather than producing wrong durations.
func InferDurations(activities []*models.Activity, ceiling time.Duration) ([]DurationAssignment, error) {
	if ceiling <= 0 {
		ceiling = DefaultDurationCeiling
	}

	for i := 1; i < len(activities); i++ {
		if activities[i].Timestamp.Before(activities[i-1].Timestamp) {
			return nil, fmt.Errorf("activities out of order at index %d: %s before %s",
				i, activities[i].Timestamp.Format(time.RFC3339), activities[i-1].Timestamp.Format(time.RFC3339))
		}
	}

	ceilingMinutes := int(ceiling.Minutes())

	var assignments []DurationAssignment
	for i := 0; i+1 < len(activities); i++ {
		current, next := activities[i], activities[i+1]

		if current.DurationMinutes != nil {
			continue
		}

		minutes := int(next.Timestamp.Sub(current.Timestamp).Minutes())
		if minutes <= 0 || minutes >= ceilingMinutes {
			continue
		}
		if normalizePerson(current.PersonName) != normalizePerson(next.PersonName) {
			continue
		}
		if current.Room != next.Room {
			continue
		}

		assignments = append(assignments, DurationAssignment{
			ActivityID: current.ID,
			Minutes:    minutes,
		})
	}
	return assignments, nil
}

func normalizePerson(name *string) string {
	if name == nil || *name == "" {
		return UnknownPerson
	}
	return *name
}
