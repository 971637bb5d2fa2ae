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

package workflow

import (
	"errors"
	"log"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/commands"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/prompt"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
)

// Logical model names looked up in the configuration maps.
const (
	DefaultVisionModelKey = "default"
	DefaultMusicModelKey  = "lyria"
)

// MusicGenerationWorkflow produces a scored video for an already ingested
// one: stored frames go to the vision model, the resulting description runs
// through the prompt quality gate, the music model renders a track, and the
// track is muxed back under the source video. Every attempt is recorded as a
// music_generations row that moves pending -> generating -> completed, or to
// failed when any step breaks after the row exists.
type MusicGenerationWorkflow struct {
	cor.BaseCommand
	chain       cor.Chain
	generations *services.GenerationService
}

// Execute runs the chain and, when it fails after the generation row was
// created, marks that row failed with the first chain error.
func (w *MusicGenerationWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)

	if !context.HasErrors() {
		return
	}
	gen, ok := context.Get(commands.GetGenerationName()).(*model.MusicGeneration)
	if !ok {
		return
	}

	var errs []error
	for _, err := range context.GetErrors() {
		errs = append(errs, err)
	}
	message := errors.Join(errs...).Error()

	if err := w.generations.UpdateStatus(context.GetContext(), gen.Id, model.GenerationStatusFailed, message); err != nil {
		log.Printf("failed to mark generation %s as failed: %v\n", gen.Id, err)
		return
	}
	gen.Status = model.GenerationStatusFailed
	gen.ErrorMessage = message
}

// NewMusicGenerationWorkflow builds the generation pipeline from the shared
// clients and configuration.
func NewMusicGenerationWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	videos *services.VideoService,
	generations *services.GenerationService) *MusicGenerationWorkflow {

	gate := prompt.NewGate(nil)
	visionModel := serviceClients.VisionModels[DefaultVisionModelKey]
	musicModel := serviceClients.MusicModels[DefaultMusicModelKey]

	out := &MusicGenerationWorkflow{
		BaseCommand: *cor.NewBaseCommand("music-generation-workflow"),
		generations: generations,
	}

	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewFrameLoader("frame-loader", serviceClients.StorageClient, videos))
	chain.AddCommand(commands.NewVisionAnalysis("vision-analysis", visionModel, videos, config.PromptTemplates.VisionPrompt))
	chain.AddCommand(commands.NewPromptGateCheck("prompt-gate", gate))
	chain.AddCommand(commands.NewGenerationRecord("generation-record", generations))
	chain.AddCommand(commands.NewMusicGenerate("music-generate", musicModel, ""))
	chain.AddCommand(commands.NewMusicUpload("music-upload", serviceClients.StorageClient, config.Storage.MusicBucket))
	chain.AddCommand(commands.NewAudioMux("audio-mux", serviceClients.StorageClient, config.Sampler.FFmpegPath))
	chain.AddCommand(commands.NewFinalVideoUpload("final-video-upload", serviceClients.StorageClient, config.Storage.FinalVideoBucket))
	chain.AddCommand(commands.NewGenerationComplete("generation-complete", generations))
	out.chain = chain

	return out
}
