package vision

import (
	"context"
	"image"
)

// BoundingBox is an axis-aligned box in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the box midpoint.
func (b BoundingBox) Center() (float64, float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// Detection is one person detection in a frame.
type Detection struct {
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// Detector finds people in a frame. Implementations are external services;
// no ordering of the returned detections is guaranteed.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]Detection, error)
}

// DominantDetection returns the single highest-confidence detection at or
// above minConfidence, or false when none qualifies. Boxes are never
// combined or averaged.
func DominantDetection(detections []Detection, minConfidence float64) (Detection, bool) {
	var (
		best  Detection
		found bool
	)
	for _, d := range detections {
		if d.Confidence < minConfidence {
			continue
		}
		if !found || d.Confidence > best.Confidence {
			best = d
			found = true
		}
	}
	return best, found
}
