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

// Package sampler_test contains unit tests for the frame sampling plan,
// which must be fully deterministic for a given video shape.
package sampler_test

import (
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/core/sampler"
	"github.com/stretchr/testify/assert"
)

func TestPlanEvenSpacing(t *testing.T) {
	// Ten seconds at 30 fps, five frames requested: one frame every two
	// seconds starting at zero.
	entries, err := sampler.Plan(10, 30, 300, 5)
	assert.NoError(t, err)
	assert.Len(t, entries, 5)

	expectedTimestamps := []float64{0, 2, 4, 6, 8}
	expectedFrames := []int64{0, 60, 120, 180, 240}
	for i, entry := range entries {
		assert.Equal(t, expectedTimestamps[i], entry.Timestamp)
		assert.Equal(t, expectedFrames[i], entry.TargetFrame)
	}
}

func TestPlanSingleFrame(t *testing.T) {
	entries, err := sampler.Plan(10, 30, 300, 1)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, float64(0), entries[0].Timestamp)
	assert.Equal(t, int64(0), entries[0].TargetFrame)
}

// Timestamps always stay inside the video: increasing from zero and short
// of the duration, so the last planned frame exists.
func TestPlanTimestampsWithinDuration(t *testing.T) {
	entries, err := sampler.Plan(7.5, 24, 180, 6)
	assert.NoError(t, err)

	previous := -1.0
	for _, entry := range entries {
		assert.Greater(t, entry.Timestamp, previous)
		assert.Less(t, entry.Timestamp, 7.5)
		previous = entry.Timestamp
	}
}

// When the reported frame count is lower than duration times fps, targets
// clamp to the last real frame instead of running past the stream.
func TestPlanClampsToLastFrame(t *testing.T) {
	entries, err := sampler.Plan(10, 30, 100, 5)
	assert.NoError(t, err)

	for _, entry := range entries {
		assert.LessOrEqual(t, entry.TargetFrame, int64(99))
	}
	assert.Equal(t, int64(99), entries[4].TargetFrame)
}

func TestPlanRejectsInvalidInput(t *testing.T) {
	_, err := sampler.Plan(0, 30, 300, 5)
	assert.ErrorIs(t, err, sampler.ErrInvalidInput)

	_, err = sampler.Plan(-1, 30, 300, 5)
	assert.ErrorIs(t, err, sampler.ErrInvalidInput)

	_, err = sampler.Plan(10, 30, 300, 0)
	assert.ErrorIs(t, err, sampler.ErrInvalidInput)
}

func TestMetadataDuration(t *testing.T) {
	meta := sampler.Metadata{FPS: 25, FrameCount: 250}
	assert.Equal(t, 10.0, meta.Duration())

	zero := sampler.Metadata{FPS: 0, FrameCount: 250}
	assert.Equal(t, 0.0, zero.Duration())
}

func TestNewSamplerDefaultsBinaryPaths(t *testing.T) {
	s := sampler.NewSampler("", "")
	assert.Equal(t, "ffmpeg", s.FFmpegPath)
	assert.Equal(t, "ffprobe", s.FFprobePath)
}
