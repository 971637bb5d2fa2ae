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

// Package sampler extracts a small, evenly spaced set of JPEG frames from a
// video so the vision model can describe it without reading the whole file.
// Planning is pure arithmetic and separately testable; decoding shells out
// to FFmpeg with one seek per planned frame.
package sampler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultFrameCount is how many frames are sampled when the caller does not
// ask for a specific count.
const DefaultFrameCount = 5

// ErrInvalidInput reports media the sampler cannot work with: an unreadable
// file, a non-positive duration, or a frame request below one.
var ErrInvalidInput = errors.New("invalid sampling input")

// Metadata is the probed shape of a video stream. It is read once per video
// and never mutated.
type Metadata struct {
	FPS        float64
	FrameCount int64
}

// Duration returns the video length in seconds derived from the frame count
// and rate.
func (m Metadata) Duration() float64 {
	if m.FPS <= 0 {
		return 0
	}
	return float64(m.FrameCount) / m.FPS
}

// Sample is one decoded frame. Ordinal is contiguous from zero over the
// frames that actually decoded; SourceFrame keeps the originally planned
// frame index so callers can detect gaps left by skipped decodes.
type Sample struct {
	Data        []byte
	Timestamp   float64
	Ordinal     int
	SourceFrame int64
}

// PlanEntry is one planned extraction: the nominal timestamp and the frame
// index it maps to.
type PlanEntry struct {
	Timestamp   float64
	TargetFrame int64
}

// Plan computes the deterministic extraction schedule. Frames are spaced
// duration/numFrames apart starting at zero; a single-frame request takes
// the first frame. Each timestamp maps to frame floor(timestamp*fps),
// clamped to the last frame of the video.
func Plan(duration float64, fps float64, frameCount int64, numFrames int) ([]PlanEntry, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidInput, duration)
	}
	if numFrames < 1 {
		return nil, fmt.Errorf("%w: frame count must be at least 1, got %d", ErrInvalidInput, numFrames)
	}

	interval := duration
	if numFrames > 1 {
		interval = duration / float64(numFrames)
	}

	entries := make([]PlanEntry, 0, numFrames)
	for i := 0; i < numFrames; i++ {
		timestamp := float64(i) * interval
		target := int64(math.Floor(timestamp * fps))
		if frameCount > 0 && target > frameCount-1 {
			target = frameCount - 1
		}
		entries = append(entries, PlanEntry{Timestamp: timestamp, TargetFrame: target})
	}
	return entries, nil
}

// Sampler probes and decodes video files through the FFmpeg binaries.
type Sampler struct {
	FFmpegPath  string
	FFprobePath string
	logger      *slog.Logger
}

// NewSampler creates a sampler using the given binary paths, defaulting to
// the ones on PATH when empty.
func NewSampler(ffmpegPath string, ffprobePath string) *Sampler {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Sampler{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		logger:      slog.Default(),
	}
}

// ffprobeOutput maps the JSON emitted by ffprobe for the fields the sampler
// needs.
type ffprobeOutput struct {
	Streams []struct {
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the frame rate and frame count of the first video stream.
// Unreadable media or a non-positive duration returns ErrInvalidInput.
func (s *Sampler) Probe(ctx context.Context, videoPath string) (Metadata, error) {
	cmd := exec.CommandContext(ctx, s.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Metadata{}, fmt.Errorf("%w: ffprobe failed for %s: %v: %s",
			ErrInvalidInput, videoPath, err, stderr.String())
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to parse ffprobe output: %v", ErrInvalidInput, err)
	}
	if len(probed.Streams) == 0 {
		return Metadata{}, fmt.Errorf("%w: no video stream in %s", ErrInvalidInput, videoPath)
	}

	fps, err := parseFrameRate(probed.Streams[0].RFrameRate)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	frameCount, _ := strconv.ParseInt(probed.Streams[0].NbFrames, 10, 64)
	if frameCount <= 0 {
		// Not every container records nb_frames; fall back to the format
		// duration times the frame rate.
		duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: no frame count or duration for %s", ErrInvalidInput, videoPath)
		}
		frameCount = int64(math.Round(duration * fps))
	}

	meta := Metadata{FPS: fps, FrameCount: frameCount}
	if meta.Duration() <= 0 {
		return Metadata{}, fmt.Errorf("%w: non-positive duration for %s", ErrInvalidInput, videoPath)
	}
	return meta, nil
}

// parseFrameRate converts ffprobe's rational frame rate ("30000/1001") to a
// float.
func parseFrameRate(raw string) (float64, error) {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		fps, err := strconv.ParseFloat(raw, 64)
		if err != nil || fps <= 0 {
			return 0, fmt.Errorf("unparseable frame rate %q", raw)
		}
		return fps, nil
	}
	n, errN := strconv.ParseFloat(num, 64)
	d, errD := strconv.ParseFloat(den, 64)
	if errN != nil || errD != nil || d == 0 || n <= 0 {
		return 0, fmt.Errorf("unparseable frame rate %q", raw)
	}
	return n / d, nil
}

// SampleFrames probes the video, plans the extraction schedule, and decodes
// one JPEG per planned entry. A frame that fails to decode is logged and
// skipped, so the result may hold fewer samples than requested; ordinals
// stay contiguous over the survivors. Unreadable media aborts with
// ErrInvalidInput and no partial output.
func (s *Sampler) SampleFrames(ctx context.Context, videoPath string, numFrames int) ([]Sample, Metadata, error) {
	if numFrames < 1 {
		numFrames = DefaultFrameCount
	}

	meta, err := s.Probe(ctx, videoPath)
	if err != nil {
		return nil, Metadata{}, err
	}

	entries, err := Plan(meta.Duration(), meta.FPS, meta.FrameCount, numFrames)
	if err != nil {
		return nil, Metadata{}, err
	}

	samples := make([]Sample, 0, len(entries))
	for _, entry := range entries {
		// Seek to the exact planned frame, not the nominal timestamp, so
		// clamping near the end of the video is honored.
		seek := float64(entry.TargetFrame) / meta.FPS
		data, err := s.decodeFrame(ctx, videoPath, seek)
		if err != nil {
			s.logger.Warn("skipping frame that failed to decode",
				"video", videoPath,
				"frame", entry.TargetFrame,
				"timestamp", entry.Timestamp,
				"error", err)
			continue
		}
		samples = append(samples, Sample{
			Data:        data,
			Timestamp:   entry.Timestamp,
			Ordinal:     len(samples),
			SourceFrame: entry.TargetFrame,
		})
	}

	return samples, meta, nil
}

// decodeFrame extracts a single JPEG at the given seek offset.
func (s *Sampler) decodeFrame(ctx context.Context, videoPath string, seek float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.FFmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(seek, 'f', 6, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %v: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg produced no frame data")
	}
	return stdout.Bytes(), nil
}
