package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"
)

// YOLOClient talks to a person-detection sidecar exposing POST /detect,
// which accepts a JPEG body and returns detections for class "person".
type YOLOClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewYOLOClient(endpoint string, timeout time.Duration) *YOLOClient {
	return &YOLOClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type yoloDetection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

type yoloResponse struct {
	Detections []yoloDetection `json:"detections"`
	Error      string          `json:"error,omitempty"`
}

func (c *YOLOClient) Detect(ctx context.Context, frame image.Image) ([]Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call detector: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read detector response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed yoloResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse detector response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("detector error: %s", parsed.Error)
	}

	var detections []Detection
	for _, d := range parsed.Detections {
		if d.Class != "person" {
			continue
		}
		detections = append(detections, Detection{
			Confidence: d.Confidence,
			BoundingBox: BoundingBox{
				X:      d.X,
				Y:      d.Y,
				Width:  d.Width,
				Height: d.Height,
			},
		})
	}
	return detections, nil
}
