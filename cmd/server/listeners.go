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

// This file starts the Pub/Sub listener that reacts to new uploads in the
// video bucket by running the ingestion workflow.
package main

import (
	"context"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/workflow"
)

// SetupListeners attaches the ingestion workflow to the video-topic
// subscription and the generation workflow to the music-topic subscription,
// then starts receiving in the background. Messages only ack when the whole
// chain succeeds, so transient failures redeliver. A music-topic message
// carries the id of an already ingested video.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	videoIngestion := workflow.NewVideoIngestionWorkflow(config, cloudClients, state.videoService)
	cloudClients.PubSubListeners["VideoTopic"].SetCommand(videoIngestion)
	cloudClients.PubSubListeners["VideoTopic"].Listen(ctx)

	cloudClients.PubSubListeners["MusicTopic"].SetCommand(state.musicWorkflow)
	cloudClients.PubSubListeners["MusicTopic"].Listen(ctx)
}
