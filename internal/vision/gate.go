package vision

import (
	"image"
	"math"
	"sync"
	"time"
)

// Gate decision reasons. Skip reasons overlap with the closed set recorded
// on activity rows.
const (
	ReasonInitialCapture = "initial_capture"
	ReasonForcedNoPerson = "forced_interval_no_person"
	ReasonForcedInterval = "forced_interval_elapsed"
	ReasonMovement       = "movement_detected"
	ReasonVisualChange   = "visual_change_detected"
	ReasonNoPerson       = "no_person_detected"
	ReasonNoChanges      = "no_significant_changes"
)

// ObservationState remembers what the scene looked like the last time a
// camera's frame was fully analyzed. It is replaced wholesale on every
// analyze decision, never partially updated.
type ObservationState struct {
	LastAnalyzedAt time.Time
	LastBBox       *BoundingBox
	LastFrame      image.Image
}

// Decision is the gate's verdict for one capture attempt.
type Decision struct {
	Analyze    bool
	Reason     string
	Detection  *Detection
	MovementPx float64
	FrameDiff  float64
}

// GateConfig holds the tunable thresholds. Movement and frame-difference
// checks trigger on strictly-greater comparisons, so a measurement exactly
// at a threshold does not trigger analysis.
type GateConfig struct {
	PersonConfidence     float64
	MovementThresholdPx  float64
	FrameDiffThreshold   float64
	ForceAnalyzeInterval time.Duration
}

// Gate decides whether a capture attempt justifies a paid analysis call.
// It owns the per-camera observation state; camera loops run concurrently
// so access is serialized.
type Gate struct {
	cfg GateConfig

	mu     sync.Mutex
	states map[string]*ObservationState
}

func NewGate(cfg GateConfig) *Gate {
	return &Gate{
		cfg:    cfg,
		states: make(map[string]*ObservationState),
	}
}

// Evaluate runs the decision sequence for one frame. It is total: every
// call returns a decision, never an error. Checks run in a fixed order and
// the first match wins:
//
//  1. no confident person and forced interval not elapsed: skip
//  2. first capture for the camera: analyze
//  3. forced interval elapsed: analyze
//  4. dominant bounding box moved beyond the movement threshold: analyze
//  5. frame difference beyond the visual-change threshold: analyze
//  6. otherwise: skip
//
// Movement is the Euclidean distance between the centers of the current and
// previous dominant boxes.
func (g *Gate) Evaluate(cameraName string, frame image.Image, detections []Detection, now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.states[cameraName]
	dominant, personPresent := DominantDetection(detections, g.cfg.PersonConfidence)

	// A camera never analyzed before has unbounded staleness.
	intervalElapsed := state == nil ||
		now.Sub(state.LastAnalyzedAt) >= g.cfg.ForceAnalyzeInterval

	if !personPresent {
		if intervalElapsed {
			// Periodic room-state check even with nobody present.
			g.replaceState(cameraName, frame, nil, now)
			return Decision{Analyze: true, Reason: ReasonForcedNoPerson}
		}
		return Decision{Analyze: false, Reason: ReasonNoPerson}
	}

	det := dominant
	if state == nil {
		g.replaceState(cameraName, frame, &det.BoundingBox, now)
		return Decision{Analyze: true, Reason: ReasonInitialCapture, Detection: &det}
	}

	if intervalElapsed {
		g.replaceState(cameraName, frame, &det.BoundingBox, now)
		return Decision{Analyze: true, Reason: ReasonForcedInterval, Detection: &det}
	}

	movement := bboxMovement(state.LastBBox, &det.BoundingBox)
	if movement > g.cfg.MovementThresholdPx {
		g.replaceState(cameraName, frame, &det.BoundingBox, now)
		return Decision{Analyze: true, Reason: ReasonMovement, Detection: &det, MovementPx: movement}
	}

	diff := FrameDifference(state.LastFrame, frame)
	if diff > g.cfg.FrameDiffThreshold {
		g.replaceState(cameraName, frame, &det.BoundingBox, now)
		return Decision{
			Analyze:    true,
			Reason:     ReasonVisualChange,
			Detection:  &det,
			MovementPx: movement,
			FrameDiff:  diff,
		}
	}

	return Decision{
		Analyze:    false,
		Reason:     ReasonNoChanges,
		Detection:  &det,
		MovementPx: movement,
		FrameDiff:  diff,
	}
}

// State returns a copy of the camera's observation state, or false if the
// camera has never been analyzed.
func (g *Gate) State(cameraName string) (ObservationState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.states[cameraName]
	if !ok {
		return ObservationState{}, false
	}
	return *s, true
}

func (g *Gate) replaceState(cameraName string, frame image.Image, bbox *BoundingBox, now time.Time) {
	g.states[cameraName] = &ObservationState{
		LastAnalyzedAt: now,
		LastBBox:       bbox,
		LastFrame:      frame,
	}
}

// bboxMovement is the center-to-center Euclidean distance in pixels. A
// missing previous box counts as unbounded movement: the person just
// appeared.
func bboxMovement(prev, curr *BoundingBox) float64 {
	if prev == nil || curr == nil {
		return math.Inf(1)
	}
	px, py := prev.Center()
	cx, cy := curr.Center()
	dx := cx - px
	dy := cy - py
	return math.Sqrt(dx*dx + dy*dy)
}
