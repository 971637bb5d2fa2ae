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

// Package commands provides the concrete workflow steps of the video
// ingestion and music generation pipelines. Each command embeds
// cor.BaseCommand, reads its input from the shared chain context, and leaves
// its output for the next command.
package commands

// Well-known context keys for values that several commands need besides the
// piped input.
const (
	videoMetadataKey = "__VIDEO_META__"
	customPromptKey  = "__CUSTOM_PROMPT__"
	videoKey         = "__VIDEO__"
	visionPromptKey  = "__VISION_PROMPT__"
	generationKey    = "__GENERATION__"
	musicObjectKey   = "__MUSIC_OBJECT__"
	musicSizeKey     = "__MUSIC_SIZE_MB__"
)

// GetVideoMetadataName returns the context key holding the probed
// sampler.Metadata for the video being ingested.
func GetVideoMetadataName() string { return videoMetadataKey }

// GetVideoName returns the context key holding the *model.Video being
// processed.
func GetVideoName() string { return videoKey }

// GetCustomPromptName returns the context key holding a caller-supplied
// instruction that overrides the configured vision prompt template.
func GetCustomPromptName() string { return customPromptKey }

// GetVisionPromptName returns the context key holding the vision model's
// scene description.
func GetVisionPromptName() string { return visionPromptKey }

// GetGenerationName returns the context key holding the
// *model.MusicGeneration row for the current generation run.
func GetGenerationName() string { return generationKey }

// GetMusicObjectName returns the context key holding the GCS path of the
// uploaded music file.
func GetMusicObjectName() string { return musicObjectKey }

// GetMusicSizeName returns the context key holding the generated music
// file's size in megabytes.
func GetMusicSizeName() string { return musicSizeKey }
