package models

import (
	"time"

	"github.com/google/uuid"
)

// Skip reasons recorded on activities that did not invoke paid analysis.
const (
	SkipReasonNoPerson      = "no_person_detected"
	SkipReasonNoChanges     = "no_significant_changes"
	SkipReasonCostCap       = "cost_cap_reached"
	SkipReasonAnalysisError = "analysis_error"
	SkipReasonDetectorError = "detector_error"
)

// Activity is one capture attempt on a camera, analyzed or skipped.
// A skipped attempt still produces a row so gate behavior stays auditable.
type Activity struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	CameraName         string    `json:"camera_name"`
	Room               string    `json:"room"`
	Activity           string    `json:"activity"`
	Details            string    `json:"details"`
	Category           *string   `json:"category,omitempty"`
	CategoryConfidence *float64  `json:"category_confidence,omitempty"`
	PersonName         *string   `json:"person_name,omitempty"`
	PersonDetected     bool      `json:"person_detected"`
	DetectionConf      float64   `json:"detection_confidence"`
	Skipped            bool      `json:"skipped"`
	SkipReason         *string   `json:"skip_reason,omitempty"`
	TokensUsed         *int      `json:"tokens_used,omitempty"`
	Cost               *float64  `json:"cost,omitempty"`
	DurationMinutes    *int      `json:"duration_minutes,omitempty"`
	ImagePath          string    `json:"image_path"`
}

// SkippedActivityText is stored in place of a real description when the
// expensive analysis was not run.
const SkippedActivityText = "Analysis skipped"

func NewActivity(cameraName, room string) *Activity {
	return &Activity{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		CameraName: cameraName,
		Room:       room,
	}
}

// NewSkippedActivity records a capture attempt that did not reach the
// analyzer. Cost and tokens stay null so spend aggregates are unaffected.
func NewSkippedActivity(cameraName, room, reason string) *Activity {
	a := NewActivity(cameraName, room)
	a.Activity = SkippedActivityText
	a.Skipped = true
	a.SkipReason = &reason
	return a
}
