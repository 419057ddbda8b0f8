package storage

import (
	"io"
	"time"
)

// FrameStorage persists captured frame images. Paths returned by SaveFrame
// are relative references suitable for storing on activity rows.
type FrameStorage interface {
	SaveFrame(cameraName string, capturedAt time.Time, jpegData []byte) (string, error)
	OpenFrame(path string) (io.ReadSeekCloser, error)
	DeleteFrame(path string) error
}
