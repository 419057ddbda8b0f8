package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openAIAPIURL = "https://api.openai.com/v1/chat/completions"

// gpt-4o-mini pricing per million tokens.
const (
	inputTokenCostPerM  = 0.150
	outputTokenCostPerM = 0.600
)

type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func trackingPrompt(cameraName string) string {
	return fmt.Sprintf(`You are a life-tracking assistant analyzing footage from a %s camera. Your goal is to track BOTH where the person is AND what they're doing.

Provide a structured response in this EXACT format:
Room: [room name - be specific: living_room, kitchen, bedroom, home_office, bathroom, etc.]
Activity: [what is the person doing - be specific and action-oriented]
Details: [comprehensive details about the person's location, activity, posture, what they're interacting with, context clues]

IMPORTANT GUIDELINES:
1. LOCATION IS CRITICAL - Always identify which room/area the person is in
2. PERSON FOCUS - Describe their actions, position, and what they're doing
3. If person is NOT visible, note "Person not visible" and describe room state
4. Be specific about activities AND location
5. Include spatial context: where in the room (at desk, on couch, at counter, in bed, etc.)
6. Describe posture and engagement: sitting, standing, lying down, focused, relaxed, etc.
7. Note objects and their location`, cameraName)
}

func (c *OpenAIClient) AnalyzeFrame(ctx context.Context, imageData []byte, cameraName string) (*Result, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(imageData)

	reqBody := openAIRequest{
		Model:     c.model,
		MaxTokens: 150,
		Messages: []openAIMessage{
			{
				Role: "user",
				Content: []openAIContentPart{
					{
						Type: "text",
						Text: trackingPrompt(cameraName),
					},
					{
						Type: "image_url",
						ImageURL: &openAIImageURL{
							URL: fmt.Sprintf("data:image/jpeg;base64,%s", imageBase64),
						},
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if parsed.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	content := parsed.Choices[0].Message.Content
	room, activity, details := parseResponse(content)

	cost := float64(parsed.Usage.PromptTokens)*inputTokenCostPerM/1_000_000 +
		float64(parsed.Usage.CompletionTokens)*outputTokenCostPerM/1_000_000

	return &Result{
		Room:         room,
		Activity:     activity,
		Details:      details,
		RawResponse:  content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		Cost:         cost,
	}, nil
}
