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

// Package workflow assembles the pipeline commands into the two high-level
// orchestrations: video ingestion and music generation.
package workflow

import (
	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/commands"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/sampler"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
)

// VideoIngestionWorkflow turns an upload notification into a fully ingested
// video: the file is downloaded, probed, sampled into frames, the frames are
// uploaded to the frame bucket, and the video and frame rows are persisted
// with status frames_extracted.
type VideoIngestionWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// Execute runs the underlying command chain.
func (w *VideoIngestionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// NewVideoIngestionWorkflow builds the ingestion pipeline from the shared
// clients and configuration.
func NewVideoIngestionWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	videos *services.VideoService) *VideoIngestionWorkflow {

	frameSampler := sampler.NewSampler(config.Sampler.FFmpegPath, config.Sampler.FFprobePath)

	out := &VideoIngestionWorkflow{BaseCommand: *cor.NewBaseCommand("video-ingestion-workflow")}

	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewVideoTriggerToGCSObject("video-trigger-reader"))
	chain.AddCommand(commands.NewGCSToTempFile("video-download", serviceClients.StorageClient, "ingest-"))
	chain.AddCommand(commands.NewFrameSampling("frame-sampling", frameSampler, config.Sampler.FrameCount))
	chain.AddCommand(commands.NewFrameCleanup("frame-cleanup", serviceClients.StorageClient, config.Storage.FrameBucket))
	chain.AddCommand(commands.NewFrameUpload("frame-upload", serviceClients.StorageClient, config.Storage.FrameBucket))
	chain.AddCommand(commands.NewVideoPersist("video-persist", videos))
	out.chain = chain

	return out
}
