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
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
)

// GenerationRecord creates the music_generations row for this run: inserted
// as pending, then immediately moved to generating before the model call.
// The row is stored in the context so later steps and the workflow's failure
// handler can update it.
type GenerationRecord struct {
	cor.BaseCommand
	generations *services.GenerationService
}

// NewGenerationRecord creates the record command.
func NewGenerationRecord(name string, generations *services.GenerationService) *GenerationRecord {
	return &GenerationRecord{BaseCommand: *cor.NewBaseCommand(name), generations: generations}
}

// Execute inserts the row for the piped music prompt.
func (c *GenerationRecord) Execute(context cor.Context) {
	musicPrompt := context.Get(c.GetInputParam()).(string)
	video := context.Get(GetVideoName()).(*model.Video)
	ctx := context.GetContext()

	visionPrompt, _ := context.Get(GetVisionPromptName()).(string)

	gen := model.NewMusicGeneration(video.Id, visionPrompt, musicPrompt)
	if err := c.generations.CreateGeneration(ctx, gen); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	if err := c.generations.UpdateStatus(ctx, gen.Id, model.GenerationStatusGenerating, ""); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	gen.Status = model.GenerationStatusGenerating

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(GetGenerationName(), gen)
	context.Add(c.GetOutputParam(), musicPrompt)
}
