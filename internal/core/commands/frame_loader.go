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
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
)

// FrameLoader is the entry command of the generation workflow. Given a video
// id, it loads the video row and pulls each stored frame JPEG out of GCS so
// the vision model can look at them. Frames that fail to download are
// skipped; an empty result is not an error because the vision step has a
// fallback for frameless videos.
type FrameLoader struct {
	cor.BaseCommand
	client *storage.Client
	videos *services.VideoService
}

// NewFrameLoader creates the frame loader command.
func NewFrameLoader(name string, client *storage.Client, videos *services.VideoService) *FrameLoader {
	return &FrameLoader{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		videos:      videos,
	}
}

// Execute loads the video row named by the input id and downloads its
// frames.
func (c *FrameLoader) Execute(context cor.Context) {
	// Topic-triggered runs pipe the raw message payload in, so the id may
	// carry surrounding whitespace.
	videoId := strings.TrimSpace(context.Get(c.GetInputParam()).(string))
	ctx := context.GetContext()

	video, err := c.videos.GetVideo(ctx, videoId)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(GetVideoName(), video)

	frames, err := c.videos.ListFrames(ctx, videoId)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}

	images := make([][]byte, 0, len(frames))
	for _, frame := range frames {
		data, err := c.download(context, frame.FilePath)
		if err != nil {
			log.Printf("skipping frame %d of video %s: %v\n", frame.FrameNumber, videoId, err)
			continue
		}
		images = append(images, data)
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), images)
}

// download reads a gs://bucket/object path into memory.
func (c *FrameLoader) download(context cor.Context, gsPath string) ([]byte, error) {
	trimmed := strings.TrimPrefix(gsPath, "gs://")
	bucket, object, found := strings.Cut(trimmed, "/")
	if !found {
		return nil, fmt.Errorf("malformed frame path %q", gsPath)
	}

	reader, err := c.client.Bucket(bucket).Object(object).NewReader(context.GetContext())
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}
