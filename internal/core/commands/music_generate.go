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
	"fmt"
	"log"
	"os"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// MusicGenerate asks the music model for a track described by the piped
// prompt and writes the returned WAV to a temporary file for the upload and
// mux steps.
type MusicGenerate struct {
	cor.BaseCommand
	model          *cloud.QuotaAwareMusicModel
	negativePrompt string
}

// NewMusicGenerate creates the generation command. negativePrompt describes
// what the track should avoid and may be empty.
func NewMusicGenerate(name string, musicModel *cloud.QuotaAwareMusicModel, negativePrompt string) *MusicGenerate {
	return &MusicGenerate{
		BaseCommand:    *cor.NewBaseCommand(name),
		model:          musicModel,
		negativePrompt: negativePrompt,
	}
}

// Execute generates audio for the piped prompt.
func (c *MusicGenerate) Execute(context cor.Context) {
	musicPrompt := context.Get(c.GetInputParam()).(string)
	ctx := context.GetContext()

	wav, err := c.model.GenerateMusic(ctx, musicPrompt, c.negativePrompt)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}

	// The endpoint is documented to return WAV. Warn on anything else but
	// let the mux step decide what it can handle.
	if !filetype.IsType(wav, matchers.TypeWav) {
		log.Printf("generated audio does not look like WAV (%d bytes), continuing anyway", len(wav))
	}

	tempFile, err := os.CreateTemp("", "music-*.wav")
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create temp file for audio: %w", err))
		return
	}
	if _, err := tempFile.Write(wav); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to write audio to %s: %w", tempFile.Name(), err))
		_ = tempFile.Close()
		return
	}
	_ = tempFile.Close()

	c.GetSuccessCounter().Add(ctx, 1)
	context.AddTempFile(tempFile.Name())
	context.Add(GetMusicSizeName(), float64(len(wav))/(1024*1024))
	context.Add(c.GetOutputParam(), tempFile.Name())
}
