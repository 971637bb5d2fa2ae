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
	"github.com/gitalabs/gcp-go-video-score/internal/core/sampler"
)

// FrameSampling probes the downloaded video and extracts the evenly spaced
// frame set. The samples become the chain output; the probed metadata is
// stored under its own key for the persist step.
type FrameSampling struct {
	cor.BaseCommand
	sampler   *sampler.Sampler
	numFrames int
}

// NewFrameSampling creates the sampling command. numFrames below one falls
// back to the sampler default.
func NewFrameSampling(name string, s *sampler.Sampler, numFrames int) *FrameSampling {
	return &FrameSampling{
		BaseCommand: *cor.NewBaseCommand(name),
		sampler:     s,
		numFrames:   numFrames,
	}
}

// Execute samples frames from the local video file named by the input.
func (c *FrameSampling) Execute(context cor.Context) {
	videoPath := context.Get(c.GetInputParam()).(string)

	samples, meta, err := c.sampler.SampleFrames(context.GetContext(), videoPath, c.numFrames)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to sample frames from %s: %w", videoPath, err))
		return
	}
	if len(samples) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no frames could be decoded from %s", videoPath))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetVideoMetadataName(), meta)
	context.Add(c.GetOutputParam(), samples)
}
