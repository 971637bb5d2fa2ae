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
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/storage"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/sampler"
	"google.golang.org/api/iterator"
)

// FrameCleanup deletes any frame objects left in the frame bucket from a
// previous ingestion of the same video, so a re-ingest never mixes old and
// new frames. The piped samples pass through unchanged.
type FrameCleanup struct {
	cor.BaseCommand
	client      *storage.Client
	frameBucket string
}

// NewFrameCleanup creates the cleanup command for the given frame bucket.
func NewFrameCleanup(name string, client *storage.Client, frameBucket string) *FrameCleanup {
	return &FrameCleanup{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		frameBucket: frameBucket,
	}
}

// Execute lists and deletes every object under the video's prefix.
func (c *FrameCleanup) Execute(context cor.Context) {
	samples := context.Get(c.GetInputParam()).([]sampler.Sample)
	video := context.Get(GetVideoName()).(*model.Video)

	bucket := c.client.Bucket(c.frameBucket)
	it := bucket.Objects(context.GetContext(), &storage.Query{Prefix: video.Id + "/"})

	deleted := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to list existing frames for video %s: %w", video.Id, err))
			return
		}
		if err := bucket.Object(attrs.Name).Delete(context.GetContext()); err != nil {
			// A leftover stale object does not block ingestion.
			log.Printf("failed to delete stale frame object %s: %v\n", attrs.Name, err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		log.Printf("removed %d stale frame objects for video %s", deleted, video.Id)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), samples)
}
