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

package commands

import (
	"log"
	"strings"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
)

// Fallback descriptions used when the vision model cannot be consulted. The
// generation still proceeds so a video without usable frames gets neutral
// background music rather than an error.
const (
	NoFramesFallbackPrompt = "Neutral background music with subtle ambient tones."
	AnalysisFallbackPrompt = "Calm ambient music with peaceful undertones and gentle atmospheric textures."
)

// VisionAnalysis sends the loaded frames to the vision model with the
// configured instruction template and pipes the resulting scene description
// to the prompt gate. The description is also stored on the video row.
type VisionAnalysis struct {
	cor.BaseCommand
	model       *cloud.QuotaAwareVisionModel
	videos      *services.VideoService
	instruction string
}

// NewVisionAnalysis creates the vision analysis command with the default
// instruction template from configuration.
func NewVisionAnalysis(name string, visionModel *cloud.QuotaAwareVisionModel, videos *services.VideoService, instruction string) *VisionAnalysis {
	return &VisionAnalysis{
		BaseCommand: *cor.NewBaseCommand(name),
		model:       visionModel,
		videos:      videos,
		instruction: instruction,
	}
}

// Execute analyzes the piped frames, falling back to a neutral description
// when there are no frames or the model call fails.
func (c *VisionAnalysis) Execute(context cor.Context) {
	images := context.Get(c.GetInputParam()).([][]byte)
	video := context.Get(GetVideoName()).(*model.Video)
	ctx := context.GetContext()

	instruction := c.instruction
	if custom, ok := context.Get(GetCustomPromptName()).(string); ok && custom != "" {
		instruction = custom
	}

	var description string
	if len(images) == 0 {
		log.Printf("no frames available for video %s, using neutral prompt", video.Id)
		description = NoFramesFallbackPrompt
	} else {
		result, err := c.model.AnalyzeFrames(ctx, instruction, images)
		if err != nil {
			log.Printf("vision analysis failed for video %s, using fallback: %v\n", video.Id, err)
			description = AnalysisFallbackPrompt
		} else {
			description = strings.TrimSpace(result)
		}
		if description == "" {
			log.Printf("vision model returned an empty description for video %s, using fallback", video.Id)
			description = AnalysisFallbackPrompt
		}
	}

	if err := c.videos.UpdateVisionAnalysis(ctx, video.Id, description); err != nil {
		// The description still flows downstream; losing the stored copy is
		// logged, not fatal.
		log.Printf("failed to store vision analysis for video %s: %v\n", video.Id, err)
	}
	video.VisionAnalysis = description

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(GetVisionPromptName(), description)
	context.Add(c.GetOutputParam(), description)
}
