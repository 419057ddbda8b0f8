package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"
)

// FrameSource grabs a single frame from a camera. Stream transport lives
// behind this interface; the pipeline only ever sees decoded frames.
type FrameSource interface {
	Capture(ctx context.Context, snapshotURL string) (image.Image, error)
}

// HTTPFrameSource pulls stills from a camera's snapshot endpoint.
type HTTPFrameSource struct {
	httpClient *http.Client
}

func NewHTTPFrameSource(timeout time.Duration) *HTTPFrameSource {
	return &HTTPFrameSource{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *HTTPFrameSource) Capture(ctx context.Context, snapshotURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", snapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode)
	}

	frame, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return frame, nil
}
