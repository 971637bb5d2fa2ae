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

// Package model_test contains unit tests for the persistent data models,
// focused on the constructors: deterministic video ids, initial lifecycle
// states, and the vision prompt cap on generation rows.
package model_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestNewVideo verifies the video id is the UUIDv5 hash of the GCS URL, so
// a re-delivered upload notification resolves to the same row.
func TestNewVideo(t *testing.T) {
	video := model.NewVideo("video_score_uploads", "clip.mp4")

	expectedID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("gs://video_score_uploads/clip.mp4"))
	assert.Equal(t, expectedID.String(), video.Id)
	assert.Equal(t, "clip.mp4", video.FileName)
	assert.Equal(t, "gs://video_score_uploads/clip.mp4", video.StorageURL)
	assert.Equal(t, model.VideoStatusUploaded, video.Status)

	// Same object, same id; different object, different id.
	again := model.NewVideo("video_score_uploads", "clip.mp4")
	assert.Equal(t, video.Id, again.Id)
	other := model.NewVideo("video_score_uploads", "other.mp4")
	assert.NotEqual(t, video.Id, other.Id)
}

func TestNewMusicGeneration(t *testing.T) {
	gen := model.NewMusicGeneration("video-id", "a forest scene", "Calm ambient music.")

	assert.NotEmpty(t, gen.Id)
	assert.Equal(t, "video-id", gen.VideoId)
	assert.Equal(t, "a forest scene", gen.VisionPrompt)
	assert.Equal(t, "Calm ambient music.", gen.MusicPrompt)
	assert.Equal(t, model.GenerationStatusPending, gen.Status)
}

// Vision prompts longer than the column limit are truncated at
// construction rather than rejected at insert time.
func TestNewMusicGenerationTruncatesVisionPrompt(t *testing.T) {
	long := strings.Repeat("x", model.MaxVisionPromptLength+100)
	gen := model.NewMusicGeneration("video-id", long, "prompt")

	assert.Len(t, gen.VisionPrompt, model.MaxVisionPromptLength)
}

// Truncation counts characters and lands on a rune boundary, so a long
// non-ASCII vision prompt still stores as valid UTF-8.
func TestNewMusicGenerationTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("м", model.MaxVisionPromptLength+100)
	gen := model.NewMusicGeneration("video-id", long, "prompt")

	assert.True(t, utf8.ValidString(gen.VisionPrompt))
	assert.Equal(t, model.MaxVisionPromptLength, utf8.RuneCountInString(gen.VisionPrompt))
}
