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

// This file runs the video ingestion workflow end to end against a canned
// upload notification: download from GCS, probe and sample with FFmpeg,
// upload the frames, and persist the video and frame rows.
package workflow_test

import (
	"log"
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/core/commands"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/core/sampler"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
	"github.com/gitalabs/gcp-go-video-score/internal/core/workflow"
	test "github.com/gitalabs/gcp-go-video-score/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
)

// TestVideoIngestionWorkflow simulates the Pub/Sub trigger for a new upload
// and asserts the full chain completes: the video row exists with status
// frames_extracted and the configured number of frame rows alongside it.
func TestVideoIngestionWorkflow(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "video-ingestion-test")
	defer span.End()

	videoService := services.NewVideoService(cloudClients.DatabasePool)
	ingestion := workflow.NewVideoIngestionWorkflow(config, cloudClients, videoService)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(traceContext)
	chainCtx.Add(cor.CtxIn, test.GetTestVideoMessageText())

	assert.True(t, ingestion.IsExecutable(chainCtx))

	ingestion.Execute(chainCtx)

	for _, err := range chainCtx.GetErrors() {
		log.Printf("error in chain: %v", err.Error())
	}

	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed - video-ingestion-test")
	}
	assert.False(t, chainCtx.HasErrors())

	// The persisted video rides out of the chain as the final output.
	video, ok := chainCtx.Get(cor.CtxIn).(*model.Video)
	assert.True(t, ok)
	assert.Equal(t, model.VideoStatusFramesExtracted, video.Status)
	assert.Greater(t, video.FPS, 0.0)
	assert.Greater(t, video.DurationSeconds, 0.0)

	frames, err := videoService.ListFrames(traceContext, video.Id)
	assert.NoError(t, err)
	assert.Len(t, frames, config.Sampler.FrameCount)
	for i, frame := range frames {
		assert.Equal(t, i, frame.FrameNumber)
		assert.NotEmpty(t, frame.FilePath)
	}

	span.SetStatus(codes.Ok, "passed - video-ingestion-test")
}

// TestVideoMetadataStoredOnContext verifies the sampling step leaves the
// probed metadata on the chain context for later commands.
func TestVideoMetadataStoredOnContext(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "video-metadata-test")
	defer span.End()

	videoService := services.NewVideoService(cloudClients.DatabasePool)
	ingestion := workflow.NewVideoIngestionWorkflow(config, cloudClients, videoService)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(traceContext)
	chainCtx.Add(cor.CtxIn, test.GetTestVideoMessageText())

	ingestion.Execute(chainCtx)
	assert.False(t, chainCtx.HasErrors())

	meta, ok := chainCtx.Get(commands.GetVideoMetadataName()).(sampler.Metadata)
	assert.True(t, ok)
	assert.Greater(t, meta.FPS, 0.0)
	assert.Greater(t, meta.FrameCount, int64(0))

	span.SetStatus(codes.Ok, "passed - video-metadata-test")
}
