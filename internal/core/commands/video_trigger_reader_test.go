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

// Package commands_test contains unit tests for the workflow commands that
// run without cloud clients.
package commands_test

import (
	"context"
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/commands"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/stretchr/testify/assert"
)

const notificationJSON = `{
  "kind": "storage#object",
  "name": "clip.mp4",
  "bucket": "video_score_uploads",
  "contentType": "video/mp4",
  "size": "1024"
}`

// TestVideoTriggerParsesNotification verifies a GCS notification turns into
// the GCSObject output plus the seeded Video row with its deterministic id.
func TestVideoTriggerParsesNotification(t *testing.T) {
	cmd := commands.NewVideoTriggerToGCSObject("trigger-reader")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, notificationJSON)

	assert.True(t, cmd.IsExecutable(chainCtx))
	cmd.Execute(chainCtx)
	assert.False(t, chainCtx.HasErrors())

	obj, ok := chainCtx.Get(cor.CtxOut).(*cloud.GCSObject)
	assert.True(t, ok)
	assert.Equal(t, "video_score_uploads", obj.Bucket)
	assert.Equal(t, "clip.mp4", obj.Name)
	assert.Equal(t, "video/mp4", obj.MIMEType)

	video, ok := chainCtx.Get(commands.GetVideoName()).(*model.Video)
	assert.True(t, ok)
	assert.Equal(t, model.NewVideo("video_score_uploads", "clip.mp4").Id, video.Id)
	assert.Equal(t, model.VideoStatusUploaded, video.Status)
}

func TestVideoTriggerRejectsMalformedPayload(t *testing.T) {
	cmd := commands.NewVideoTriggerToGCSObject("trigger-reader")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "not json at all")

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Contains(t, chainCtx.GetErrors(), "trigger-reader")
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}
