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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
)

// cloudPlatformScope is the OAuth scope required by the Vertex AI predict
// endpoint.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// QuotaAwareMusicModel is a rate-limited client for the Vertex AI Lyria
// prediction endpoint. Lyria has no SDK surface, so requests go over the raw
// :predict REST API with application-default credentials.
type QuotaAwareMusicModel struct {
	ProjectID   string
	Location    string
	Model       string
	SampleCount int
	Seed        int
	RateLimit   *rate.Limiter
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
}

// NewQuotaAwareMusicModel builds a Lyria client from its model config using
// application-default credentials for authentication.
func NewQuotaAwareMusicModel(ctx context.Context, projectID string, cfg MusicModel) (*QuotaAwareMusicModel, error) {
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain default credentials for music model: %w", err)
	}
	rps := cfg.RateLimit
	if rps < 1 {
		rps = 1
	}
	sampleCount := cfg.SampleCount
	if sampleCount < 1 {
		sampleCount = 1
	}
	location := cfg.Location
	if location == "" {
		location = "us-central1"
	}
	return &QuotaAwareMusicModel{
		ProjectID:   projectID,
		Location:    location,
		Model:       cfg.Model,
		SampleCount: sampleCount,
		Seed:        cfg.Seed,
		RateLimit:   rate.NewLimiter(rate.Every(time.Second), rps),
		TokenSource: ts,
		HTTPClient:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// lyriaInstance is one entry of the :predict "instances" array. Seed is a
// pointer so zero can be omitted and Lyria picks its own.
type lyriaInstance struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	SampleCount    int    `json:"sample_count"`
	Seed           *int   `json:"seed,omitempty"`
}

type lyriaRequest struct {
	Instances  []lyriaInstance        `json:"instances"`
	Parameters map[string]interface{} `json:"parameters"`
}

type lyriaResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MIMEType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateMusic asks Lyria for a track described by prompt and returns the
// decoded WAV bytes of the first prediction. Calls block on the rate limiter
// and retry up to MaxRetries.
func (q *QuotaAwareMusicModel) GenerateMusic(ctx context.Context, prompt string, negativePrompt string) ([]byte, error) {
	instance := lyriaInstance{
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		SampleCount:    q.SampleCount,
	}
	if q.Seed != 0 {
		instance.Seed = &q.Seed
	}
	body, err := json.Marshal(&lyriaRequest{
		Instances:  []lyriaInstance{instance},
		Parameters: map[string]interface{}{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode music request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		wav, err := q.predict(ctx, body)
		if err == nil {
			return wav, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("music generation failed after %d retries: %w", MaxRetries, lastErr)
}

func (q *QuotaAwareMusicModel) endpoint() string {
	return fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		q.Location, q.ProjectID, q.Location, q.Model)
}

func (q *QuotaAwareMusicModel) predict(ctx context.Context, body []byte) ([]byte, error) {
	token, err := q.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := q.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("music endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed lyriaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode music response: %w", err)
	}
	if len(parsed.Predictions) == 0 {
		return nil, fmt.Errorf("music endpoint returned no predictions")
	}
	wav, err := base64.StdEncoding.DecodeString(parsed.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	return wav, nil
}
