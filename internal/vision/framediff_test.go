package vision

import (
	"image"
	"testing"
)

func TestFrameDifferenceIdenticalFrames(t *testing.T) {
	frame := uniformFrame(100)

	diff := FrameDifference(frame, frame)
	if diff > 0.01 {
		t.Errorf("Identical frames should score near 0, got %f", diff)
	}
}

func TestFrameDifferenceNilFrame(t *testing.T) {
	frame := uniformFrame(100)

	if diff := FrameDifference(nil, frame); diff != 1.0 {
		t.Errorf("Nil first frame should score 1.0, got %f", diff)
	}
	if diff := FrameDifference(frame, nil); diff != 1.0 {
		t.Errorf("Nil second frame should score 1.0, got %f", diff)
	}
	if diff := FrameDifference(nil, nil); diff != 1.0 {
		t.Errorf("Both nil should score 1.0, got %f", diff)
	}
}

func TestFrameDifferenceEmptyBounds(t *testing.T) {
	empty := image.NewGray(image.Rect(0, 0, 0, 0))
	frame := uniformFrame(100)

	if diff := FrameDifference(empty, frame); diff != 1.0 {
		t.Errorf("Empty frame should score 1.0, got %f", diff)
	}
}

func TestFrameDifferenceDissimilarFrames(t *testing.T) {
	diff := FrameDifference(uniformFrame(100), noiseFrame())
	if diff < 0.5 {
		t.Errorf("Structurally different frames should score high, got %f", diff)
	}
}

func TestFrameDifferenceRange(t *testing.T) {
	frames := []image.Image{
		uniformFrame(0),
		uniformFrame(100),
		uniformFrame(255),
		noiseFrame(),
	}
	for i, a := range frames {
		for j, b := range frames {
			diff := FrameDifference(a, b)
			if diff < 0 || diff > 1 {
				t.Errorf("Diff of frames %d,%d out of [0,1]: %f", i, j, diff)
			}
		}
	}
}

func TestFrameDifferenceMixedResolutions(t *testing.T) {
	small := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range small.Pix {
		small.Pix[i] = 100
	}

	// A resolution change counts as a full scene change regardless of content.
	if diff := FrameDifference(small, uniformFrame(100)); diff != 1.0 {
		t.Errorf("Shape-differing frames should score 1.0, got %f", diff)
	}
	if diff := FrameDifference(uniformFrame(100), small); diff != 1.0 {
		t.Errorf("Shape-differing frames should score 1.0 both ways, got %f", diff)
	}
}
