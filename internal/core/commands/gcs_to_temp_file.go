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
	"os"

	"cloud.google.com/go/storage"
	"github.com/gitalabs/gcp-go-video-score/internal/cloud"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
)

// GCSToTempFile bridges the GCS-based workflow to local tools like FFmpeg:
// it streams the object named by the input GCSObject into a local temporary
// file and pipes the file path to the next command. The temp file is
// registered with the context for cleanup at the end of the workflow.
type GCSToTempFile struct {
	cor.BaseCommand
	client         *storage.Client
	tempFilePrefix string
}

// NewGCSToTempFile creates the download command with a prefix for the
// temporary file name.
func NewGCSToTempFile(name string, client *storage.Client, tempFilePrefix string) *GCSToTempFile {
	return &GCSToTempFile{
		BaseCommand:    *cor.NewBaseCommand(name),
		client:         client,
		tempFilePrefix: tempFilePrefix,
	}
}

// Execute downloads the input object to a temp file.
func (c *GCSToTempFile) Execute(context cor.Context) {
	msg := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	obj := c.client.Bucket(msg.Bucket).Object(msg.Name)

	reader, err := obj.NewReader(context.GetContext())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create GCS reader for gs://%s/%s: %w", msg.Bucket, msg.Name, err))
		return
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			log.Printf("failed to close GCS reader: %v\n", err)
		}
	}(reader)

	tempFile, err := os.CreateTemp("", c.tempFilePrefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create temp file: %w", err))
		return
	}

	written, err := io.Copy(tempFile, reader)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		log.Printf("failed to copy GCS object to local file, %d bytes written: %v\n", written, err)
		context.AddError(c.GetName(), err)
		_ = tempFile.Close()
		return
	}
	_ = tempFile.Close()

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("downloaded gs://%s/%s to local file %s (%d bytes)", msg.Bucket, msg.Name, tempFile.Name(), written)
	context.AddTempFile(tempFile.Name())
	context.Add(c.GetOutputParam(), tempFile.Name())
}
