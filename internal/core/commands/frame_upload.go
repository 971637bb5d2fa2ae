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

	"cloud.google.com/go/storage"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/sampler"
	"github.com/google/uuid"
)

// FrameUpload writes every sampled frame to the frame bucket under
// "<videoId>/frame_<ordinal>.jpg" and pipes the resulting Frame rows to the
// persist step. Writes are preconditioned on the object not existing; a
// precondition failure is retried once under a uuid-suffixed name so a
// concurrent ingest cannot clobber frames.
type FrameUpload struct {
	cor.BaseCommand
	client      *storage.Client
	frameBucket string
}

// NewFrameUpload creates the frame upload command for the given bucket.
func NewFrameUpload(name string, client *storage.Client, frameBucket string) *FrameUpload {
	return &FrameUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		frameBucket: frameBucket,
	}
}

// Execute uploads the piped samples.
func (c *FrameUpload) Execute(context cor.Context) {
	samples := context.Get(c.GetInputParam()).([]sampler.Sample)
	video := context.Get(GetVideoName()).(*model.Video)

	bucket := c.client.Bucket(c.frameBucket)
	frames := make([]*model.Frame, 0, len(samples))

	for _, sample := range samples {
		objectName := fmt.Sprintf("%s/frame_%d.jpg", video.Id, sample.Ordinal)
		finalName, err := c.write(context, bucket, objectName, sample.Data)
		if err != nil {
			// Retry once under a unique name before giving up on the frame.
			retryName := fmt.Sprintf("%s/frame_%d_%s.jpg", video.Id, sample.Ordinal, uuid.NewString())
			log.Printf("frame upload to %s failed (%v), retrying as %s", objectName, err, retryName)
			finalName, err = c.write(context, bucket, retryName, sample.Data)
			if err != nil {
				c.GetErrorCounter().Add(context.GetContext(), 1)
				context.AddError(c.GetName(), fmt.Errorf("failed to upload frame %d for video %s: %w", sample.Ordinal, video.Id, err))
				return
			}
		}

		frames = append(frames, &model.Frame{
			Id:               uuid.NewString(),
			VideoId:          video.Id,
			FrameNumber:      sample.Ordinal,
			SourceFrame:      sample.SourceFrame,
			TimestampSeconds: sample.Timestamp,
			FilePath:         fmt.Sprintf("gs://%s/%s", c.frameBucket, finalName),
		})
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("uploaded %d frames for video %s", len(frames), video.Id)
	context.Add(c.GetOutputParam(), frames)
}

// write uploads one JPEG with an if-not-exists precondition.
func (c *FrameUpload) write(context cor.Context, bucket *storage.BucketHandle, objectName string, data []byte) (string, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(context.GetContext())
	writer.ContentType = "image/jpeg"
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return objectName, nil
}
