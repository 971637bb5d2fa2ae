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

// Package model holds the data structures shared across the pipeline: the
// rows persisted to Postgres and the transient values passed between
// workflow commands and API handlers.
package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Video lifecycle states.
const (
	VideoStatusUploaded        = "uploaded"
	VideoStatusFramesExtracted = "frames_extracted"
	VideoStatusFailed          = "failed"
)

// Music generation lifecycle states. Rows move strictly forward:
// pending -> generating -> completed or failed.
const (
	GenerationStatusPending    = "pending"
	GenerationStatusGenerating = "generating"
	GenerationStatusCompleted  = "completed"
	GenerationStatusFailed     = "failed"
)

// MaxVisionPromptLength caps the vision analysis text stored on a
// generation row.
const MaxVisionPromptLength = 1000

// Video is the persisted record of an uploaded source video.
type Video struct {
	Id              string    `json:"id"`
	FileName        string    `json:"filename"`
	StorageURL      string    `json:"storage_url"`
	FPS             float64   `json:"fps"`
	FrameCount      int64     `json:"frame_count"`
	DurationSeconds float64   `json:"duration_seconds"`
	VisionAnalysis  string    `json:"vision_analysis,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewVideo creates a Video for an object in the video bucket. The id is
// derived deterministically from the object's GCS URL so re-delivered
// notifications for the same upload resolve to the same row.
func NewVideo(bucket string, name string) *Video {
	url := fmt.Sprintf("gs://%s/%s", bucket, name)
	return &Video{
		Id:         uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String(),
		FileName:   name,
		StorageURL: url,
		Status:     VideoStatusUploaded,
	}
}

// Frame is the persisted record of one sampled frame.
type Frame struct {
	Id               string  `json:"id"`
	VideoId          string  `json:"video_id"`
	FrameNumber      int     `json:"frame_number"`
	SourceFrame      int64   `json:"source_frame"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
	FilePath         string  `json:"file_path"`
}

// MusicGeneration is the persisted record of one music generation attempt
// for a video.
type MusicGeneration struct {
	Id              string    `json:"id"`
	VideoId         string    `json:"video_id"`
	VisionPrompt    string    `json:"vision_prompt"`
	MusicPrompt     string    `json:"music_prompt"`
	Status          string    `json:"status"`
	MusicFilePath   string    `json:"music_file_path,omitempty"`
	FinalVideoPath  string    `json:"final_video_path,omitempty"`
	MusicFileSizeMB float64   `json:"music_file_size_mb,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMusicGeneration creates a pending generation row for a video. The
// vision prompt is truncated to the column limit, counted in characters to
// match VARCHAR semantics and so a multi-byte rune is never split.
func NewMusicGeneration(videoId string, visionPrompt string, musicPrompt string) *MusicGeneration {
	if utf8.RuneCountInString(visionPrompt) > MaxVisionPromptLength {
		visionPrompt = string([]rune(visionPrompt)[:MaxVisionPromptLength])
	}
	return &MusicGeneration{
		Id:           uuid.NewString(),
		VideoId:      videoId,
		VisionPrompt: visionPrompt,
		MusicPrompt:  musicPrompt,
		Status:       GenerationStatusPending,
	}
}
