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

	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
)

// GenerationComplete closes out a successful run: the generation row gets
// its artifact paths, the audio size, and the completed status.
type GenerationComplete struct {
	cor.BaseCommand
	generations *services.GenerationService
}

// NewGenerationComplete creates the completion command.
func NewGenerationComplete(name string, generations *services.GenerationService) *GenerationComplete {
	return &GenerationComplete{BaseCommand: *cor.NewBaseCommand(name), generations: generations}
}

// Execute records the piped final-video path on the generation row.
func (c *GenerationComplete) Execute(context cor.Context) {
	finalPath := context.Get(c.GetInputParam()).(string)
	gen := context.Get(GetGenerationName()).(*model.MusicGeneration)
	ctx := context.GetContext()

	musicPath, _ := context.Get(GetMusicObjectName()).(string)
	sizeMB, _ := context.Get(GetMusicSizeName()).(float64)

	if err := c.generations.Complete(ctx, gen.Id, musicPath, finalPath, sizeMB); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	gen.Status = model.GenerationStatusCompleted
	gen.MusicFilePath = musicPath
	gen.FinalVideoPath = finalPath
	gen.MusicFileSizeMB = sizeMB

	c.GetSuccessCounter().Add(ctx, 1)
	log.Printf("generation %s completed for video %s", gen.Id, gen.VideoId)
	context.Add(c.GetOutputParam(), gen)
}
