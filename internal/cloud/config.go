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

// Package cloud defines the application configuration structures, loaded from
// TOML files, and the clients for the external services the pipeline talks to:
// Google Cloud Storage, Pub/Sub, Postgres, the Groq vision endpoint, and the
// Lyria music generation endpoint.
package cloud

import (
	"errors"
	"fmt"
)

// Storage names the GCS buckets used by the pipeline. Uploaded source videos,
// sampled frames, generated WAV tracks, and final muxed videos each live in
// their own bucket.
type Storage struct {
	VideoBucket      string `toml:"video_bucket"`
	FrameBucket      string `toml:"frame_bucket"`
	MusicBucket      string `toml:"music_bucket"`
	FinalVideoBucket string `toml:"final_video_bucket"`
}

// Database holds the Postgres connection settings. The DSN is a standard
// pgx/libpq connection string.
type Database struct {
	DSN      string `toml:"dsn"`
	MaxConns int32  `toml:"max_conns"`
}

// TopicSubscription represents the configuration for a Pub/Sub topic
// subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// VisionModel configures an OpenAI-compatible chat-completions vision model
// (Groq-hosted Llama). RateLimit is in requests per second.
type VisionModel struct {
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
	RateLimit   int     `toml:"rate_limit"`
}

// MusicModel configures a Vertex AI Lyria prediction model. SampleCount is
// the number of audio candidates requested per call; the first one wins.
type MusicModel struct {
	Model       string `toml:"model"`
	Location    string `toml:"location"`
	SampleCount int    `toml:"sample_count"`
	Seed        int    `toml:"seed"`
	RateLimit   int    `toml:"rate_limit"`
}

// Sampler configures the frame sampler: how many frames to extract per video
// and where the FFmpeg binaries live.
type Sampler struct {
	FrameCount  int    `toml:"frame_count"`
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// PromptTemplates holds the text templates sent to the vision model.
type PromptTemplates struct {
	VisionPrompt string `toml:"vision"`
	CustomPrefix string `toml:"custom_prefix"`
}

// Config is the root configuration container, populated by LoadConfig from
// the hierarchical TOML files.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		GoogleProjectId string `toml:"google_project_id"`
		GoogleLocation  string `toml:"location"`
		ThreadPoolSize  int    `toml:"thread_pool_size"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Database           Database                     `toml:"database"`
	Sampler            Sampler                      `toml:"sampler"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	VisionModels       map[string]VisionModel       `toml:"vision_models"`
	MusicModels        map[string]MusicModel        `toml:"music_models"`
}

// NewConfig creates a Config with its map fields initialized so the TOML
// decoder can populate them.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		VisionModels:       make(map[string]VisionModel),
		MusicModels:        make(map[string]MusicModel),
	}
}

// Validate fails fast on settings the pipeline cannot run without. Called at
// startup before any client is created.
func (c *Config) Validate() error {
	var errs []error
	if c.Application.GoogleProjectId == "" {
		errs = append(errs, errors.New("application.google_project_id is required"))
	}
	if c.Storage.VideoBucket == "" || c.Storage.FrameBucket == "" {
		errs = append(errs, errors.New("storage.video_bucket and storage.frame_bucket are required"))
	}
	if c.Storage.MusicBucket == "" || c.Storage.FinalVideoBucket == "" {
		errs = append(errs, errors.New("storage.music_bucket and storage.final_video_bucket are required"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	for name, vm := range c.VisionModels {
		if vm.APIKey == "" {
			errs = append(errs, fmt.Errorf("vision_models.%s.api_key is required", name))
		}
		if vm.Model == "" {
			errs = append(errs, fmt.Errorf("vision_models.%s.model is required", name))
		}
	}
	for name, mm := range c.MusicModels {
		if mm.Model == "" {
			errs = append(errs, fmt.Errorf("music_models.%s.model is required", name))
		}
	}
	return errors.Join(errs...)
}
