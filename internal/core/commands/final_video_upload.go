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

// FinalVideoUpload stores the muxed video in the final bucket as
// "<generationId>_final.mp4" and pipes the resulting GCS path to the
// completion step.
type FinalVideoUpload struct {
	cor.BaseCommand
	client      *storage.Client
	finalBucket string
}

// NewFinalVideoUpload creates the upload command for the final-video bucket.
func NewFinalVideoUpload(name string, client *storage.Client, finalBucket string) *FinalVideoUpload {
	return &FinalVideoUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		finalBucket: finalBucket,
	}
}

// Execute uploads the muxed file named by the input path.
func (c *FinalVideoUpload) Execute(context cor.Context) {
	muxedPath := context.Get(c.GetInputParam()).(string)
	gen := context.Get(GetGenerationName()).(*model.MusicGeneration)
	ctx := context.GetContext()

	dat, err := os.Open(muxedPath)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to open muxed video %s: %w", muxedPath, err))
		return
	}
	defer func() { _ = dat.Close() }()

	objectName := gen.Id + "_final.mp4"
	writer := c.client.Bucket(c.finalBucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "video/mp4"

	if written, err := io.Copy(writer, dat); err != nil {
		log.Printf("failed to upload final video, %d bytes written: %v\n", written, err)
		_ = writer.Close()
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	if err := writer.Close(); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize final video upload: %w", err))
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), fmt.Sprintf("gs://%s/%s", c.finalBucket, objectName))
}
