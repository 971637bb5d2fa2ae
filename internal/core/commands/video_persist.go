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

	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/sampler"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
)

// VideoPersist is the final ingestion step: it fills the Video row with the
// probed metadata, saves it together with the piped Frame rows, and marks
// the video as frames_extracted.
type VideoPersist struct {
	cor.BaseCommand
	videos *services.VideoService
}

// NewVideoPersist creates the persist command over the video service.
func NewVideoPersist(name string, videos *services.VideoService) *VideoPersist {
	return &VideoPersist{BaseCommand: *cor.NewBaseCommand(name), videos: videos}
}

// Execute saves the video and frame rows.
func (c *VideoPersist) Execute(context cor.Context) {
	frames := context.Get(c.GetInputParam()).([]*model.Frame)
	video := context.Get(GetVideoName()).(*model.Video)
	meta := context.Get(GetVideoMetadataName()).(sampler.Metadata)

	video.FPS = meta.FPS
	video.FrameCount = meta.FrameCount
	video.DurationSeconds = meta.Duration()
	video.Status = model.VideoStatusFramesExtracted

	ctx := context.GetContext()
	if err := c.videos.SaveVideo(ctx, video); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	if err := c.videos.SaveFrames(ctx, video.Id, frames); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("video row saved but frames failed: %w", err))
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), video)
}
