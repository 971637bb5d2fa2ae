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

// Package test provides helpers and mock data for the test suite: a cached
// test configuration, environment setup, and canned Pub/Sub notification
// payloads for the ingestion workflow.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
)

// StateManager caches the loaded configuration so the TOML files are read
// once per test run rather than once per test.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the current test when err is not nil. Cuts down the
// boilerplate around config and client setup in tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestVideoMessageText returns a canned GCS Pub/Sub notification for a
// video finalized in the upload bucket. Used to drive the ingestion
// workflow in tests without a real bucket event.
func GetTestVideoMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "video_score_uploads/test-clip-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/video_score_uploads/o/test-clip-001.mp4",
  "name": "test-clip-001.mp4",
  "bucket": "video_score_uploads",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "48025531",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/video_score_uploads/o/test-clip-001.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "3" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
	}`
}

// SetupOS points the configuration loader at the test TOML files
// (configs/.env.toml overlaid with configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor tests use for configuration. The
// first call sets up the environment and loads the TOML files; later calls
// return the cached struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
