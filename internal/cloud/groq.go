// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// QuotaAwareVisionModel is a rate-limited client for an OpenAI-compatible
// chat-completions endpoint hosting a vision model. The decorator keeps the
// pipeline inside the provider's request quota and retries transient
// failures a bounded number of times.
type QuotaAwareVisionModel struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	RateLimit   *rate.Limiter
	HTTPClient  *http.Client
}

// NewQuotaAwareVisionModel builds a vision client from its model config.
// requestsPerSecond becomes the limiter's burst size with a one-token-per-
// second refill.
func NewQuotaAwareVisionModel(cfg VisionModel) *QuotaAwareVisionModel {
	rps := cfg.RateLimit
	if rps < 1 {
		rps = 1
	}
	return &QuotaAwareVisionModel{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		RateLimit:   rate.NewLimiter(rate.Every(time.Second), rps),
		HTTPClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

// chatMessage and friends mirror the OpenAI chat-completions wire format.
// Content is a list of parts so a single user message can carry the text
// instruction plus every frame as an inline data URL.
type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// AnalyzeFrames sends the instruction prompt and the JPEG frames to the
// vision model in a single user message and returns the model's text reply.
// Frames are inlined as base64 data URLs. Calls block on the rate limiter
// and retry up to MaxRetries on transport or server errors.
func (q *QuotaAwareVisionModel) AnalyzeFrames(ctx context.Context, instruction string, frames [][]byte) (string, error) {
	parts := make([]chatContentPart, 0, len(frames)+1)
	parts = append(parts, chatContentPart{Type: "text", Text: instruction})
	for _, frame := range frames {
		parts = append(parts, chatContentPart{
			Type: "image_url",
			ImageURL: &chatImageURL{
				URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame),
			},
		})
	}

	payload := &chatCompletionRequest{
		Model:       q.Model,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
		MaxTokens:   q.MaxTokens,
		Temperature: q.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode vision request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return "", err
		}
		reply, err := q.post(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("vision analysis failed after %d retries: %w", MaxRetries, lastErr)
}

func (q *QuotaAwareVisionModel) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+q.APIKey)

	resp, err := q.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("vision endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("vision endpoint returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
