package ai

import (
	"context"
	"strings"
)

// Result is the structured outcome of one paid analysis call. Fields are
// parsed out of the model's line-oriented response at the boundary so the
// rest of the system never touches raw model output.
type Result struct {
	Room         string  `json:"room"`
	Activity     string  `json:"activity"`
	Details      string  `json:"details"`
	RawResponse  string  `json:"raw_response"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// TokensUsed is the combined prompt and completion token count.
func (r *Result) TokensUsed() int {
	return r.InputTokens + r.OutputTokens
}

// Analyzer describes a frame in terms of where the person is and what they
// are doing. Invoked only when the capture gate and cost governor both
// permit.
type Analyzer interface {
	AnalyzeFrame(ctx context.Context, imageData []byte, cameraName string) (*Result, error)
}

// parseResponse extracts the Room/Activity/Details lines the prompt asks
// the model to emit. Missing lines stay empty rather than failing; the raw
// response is preserved alongside.
func parseResponse(text string) (room, activity, details string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Room:"):
			room = strings.TrimSpace(strings.TrimPrefix(line, "Room:"))
		case strings.HasPrefix(line, "Activity:"):
			activity = strings.TrimSpace(strings.TrimPrefix(line, "Activity:"))
		case strings.HasPrefix(line, "Details:"):
			details = strings.TrimSpace(strings.TrimPrefix(line, "Details:"))
		}
	}
	return room, activity, details
}
