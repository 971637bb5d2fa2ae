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

// This file holds the server's state initialization: loading configuration,
// constructing the cloud clients and database-backed services, building the
// generation workflow, and starting the upload listener.
package main

import (
	"context"
	"log"
	"os"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
	"github.com/gitalabs/gcp-go-video-score/internal/core/workflow"
)

// StateManager holds the shared dependencies for the server: configuration,
// cloud clients, the database services, and the music generation workflow
// the API invokes directly.
type StateManager struct {
	config            *cloud.Config
	cloud             *cloud.ServiceClients
	videoService      *services.VideoService
	generationService *services.GenerationService
	trackService      *services.TrackService
	musicWorkflow     *workflow.MusicGenerationWorkflow
}

// state is the single instance of StateManager for the process.
var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory and the
// "local" runtime, so base settings come from configs/.env.toml with
// overrides from configs/.env.local.toml.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration,
// loading the TOML files on the first call and caching the result.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState builds the entire application state: cloud clients, the
// Postgres-backed services, the track catalog, the generation workflow, and
// the Pub/Sub listener for new uploads.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.videoService = services.NewVideoService(cloudClients.DatabasePool)
	state.generationService = services.NewGenerationService(cloudClients.DatabasePool)
	state.trackService = services.NewTrackService()

	state.musicWorkflow = workflow.NewMusicGenerationWorkflow(
		config,
		cloudClients,
		state.videoService,
		state.generationService)

	SetupListeners(config, cloudClients, ctx)
}
