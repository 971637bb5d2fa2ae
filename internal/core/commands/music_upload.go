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
	"io"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
)

// MusicUpload stores the generated WAV in the music bucket as
// "<generationId>.wav". The local path passes through to the mux step; the
// GCS path is stored for the completion record.
type MusicUpload struct {
	cor.BaseCommand
	client      *storage.Client
	musicBucket string
}

// NewMusicUpload creates the upload command for the music bucket.
func NewMusicUpload(name string, client *storage.Client, musicBucket string) *MusicUpload {
	return &MusicUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		musicBucket: musicBucket,
	}
}

// Execute uploads the WAV named by the input path.
func (c *MusicUpload) Execute(context cor.Context) {
	wavPath := context.Get(c.GetInputParam()).(string)
	gen := context.Get(GetGenerationName()).(*model.MusicGeneration)
	ctx := context.GetContext()

	dat, err := os.Open(wavPath)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to open audio file %s: %w", wavPath, err))
		return
	}
	defer func() { _ = dat.Close() }()

	objectName := gen.Id + ".wav"
	writer := c.client.Bucket(c.musicBucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "audio/wav"

	if written, err := io.Copy(writer, dat); err != nil {
		log.Printf("failed to upload audio, %d bytes written: %v\n", written, err)
		_ = writer.Close()
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	if err := writer.Close(); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize audio upload: %w", err))
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(GetMusicObjectName(), fmt.Sprintf("gs://%s/%s", c.musicBucket, objectName))
	context.Add(c.GetOutputParam(), wavPath)
}
