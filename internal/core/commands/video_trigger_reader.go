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
	"encoding/json"
	"fmt"

	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
)

// VideoTriggerToGCSObject is the entry command of the ingestion workflow. It
// parses the raw GCS Pub/Sub notification JSON into a simplified GCSObject
// and seeds the context with the Video row the rest of the chain will fill
// in.
type VideoTriggerToGCSObject struct {
	cor.BaseCommand
}

// NewVideoTriggerToGCSObject creates the trigger reader command.
func NewVideoTriggerToGCSObject(name string) *VideoTriggerToGCSObject {
	return &VideoTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the notification payload from the input parameter.
func (c *VideoTriggerToGCSObject) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	err := json.Unmarshal([]byte(in), &out)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	context.Add(cloud.GetGCSObjectName(), msg)

	// The video id is deterministic over the GCS URL, so redelivered
	// notifications converge on the same row.
	context.Add(GetVideoName(), model.NewVideo(msg.Bucket, msg.Name))

	context.Add(c.GetOutputParam(), msg)
}
