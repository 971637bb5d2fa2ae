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
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
)

// AudioMux lays the generated track under the source video. The video
// stream is copied rather than re-encoded, so the visual content and its
// duration are untouched; "-shortest" trims the audio to the video length.
type AudioMux struct {
	cor.BaseCommand
	client     *storage.Client
	ffmpegPath string
}

// NewAudioMux creates the mux command.
func NewAudioMux(name string, client *storage.Client, ffmpegPath string) *AudioMux {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &AudioMux{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		ffmpegPath:  ffmpegPath,
	}
}

// Execute downloads the source video and muxes the piped WAV onto it.
func (c *AudioMux) Execute(context cor.Context) {
	wavPath := context.Get(c.GetInputParam()).(string)
	video := context.Get(GetVideoName()).(*model.Video)
	ctx := context.GetContext()

	videoPath, err := c.downloadSource(context, video.StorageURL)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}

	outFile, err := os.CreateTemp("", "final-*.mp4")
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create temp file for mux output: %w", err))
		return
	}
	_ = outFile.Close()
	context.AddTempFile(outFile.Name())

	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-i", wavPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outFile.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("ffmpeg mux failed: %v: %s", err, stderr.String()))
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), outFile.Name())
}

// downloadSource streams the gs://bucket/object source video to a temp file.
func (c *AudioMux) downloadSource(context cor.Context, gsPath string) (string, error) {
	trimmed := strings.TrimPrefix(gsPath, "gs://")
	bucket, object, found := strings.Cut(trimmed, "/")
	if !found {
		return "", fmt.Errorf("malformed video path %q", gsPath)
	}

	reader, err := c.client.Bucket(bucket).Object(object).NewReader(context.GetContext())
	if err != nil {
		return "", fmt.Errorf("failed to open source video %s: %w", gsPath, err)
	}
	defer func() { _ = reader.Close() }()

	tempFile, err := os.CreateTemp("", "source-*.mp4")
	if err != nil {
		return "", fmt.Errorf("could not create temp file for source video: %w", err)
	}
	if _, err := io.Copy(tempFile, reader); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("failed to download source video %s: %w", gsPath, err)
	}
	_ = tempFile.Close()
	context.AddTempFile(tempFile.Name())
	return tempFile.Name(), nil
}
