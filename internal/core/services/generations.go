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

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GenerationService persists music generation attempts and their status
// transitions.
type GenerationService struct {
	pool *pgxpool.Pool
}

// NewGenerationService creates a GenerationService over the shared pool.
func NewGenerationService(pool *pgxpool.Pool) *GenerationService {
	return &GenerationService{pool: pool}
}

// CreateGeneration inserts a new pending generation row.
func (s *GenerationService) CreateGeneration(ctx context.Context, gen *model.MusicGeneration) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO music_generations (id, video_id, vision_prompt, music_prompt, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		gen.Id, gen.VideoId, gen.VisionPrompt, gen.MusicPrompt, gen.Status)
	if err != nil {
		return fmt.Errorf("failed to create generation %s: %w", gen.Id, err)
	}
	return nil
}

// GetGeneration fetches a generation row by id.
func (s *GenerationService) GetGeneration(ctx context.Context, id string) (*model.MusicGeneration, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, video_id, vision_prompt, music_prompt, status,
		       COALESCE(music_file_path, ''), COALESCE(final_video_path, ''),
		       COALESCE(music_file_size_mb, 0), COALESCE(error_message, ''), created_at
		FROM music_generations WHERE id = $1`, id)

	gen := &model.MusicGeneration{}
	err := row.Scan(&gen.Id, &gen.VideoId, &gen.VisionPrompt, &gen.MusicPrompt,
		&gen.Status, &gen.MusicFilePath, &gen.FinalVideoPath, &gen.MusicFileSizeMB,
		&gen.ErrorMessage, &gen.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation %s: %w", id, err)
	}
	return gen, nil
}

// UpdateStatus moves a generation row to a new state, optionally recording
// an error message for failed rows.
func (s *GenerationService) UpdateStatus(ctx context.Context, id string, status string, errorMessage string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE music_generations SET status = $2, error_message = NULLIF($3, '')
		WHERE id = $1`, id, status, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to update generation %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	return nil
}

// Complete marks a generation as finished and records where its artifacts
// landed.
func (s *GenerationService) Complete(ctx context.Context, id string, musicPath string, finalVideoPath string, sizeMB float64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE music_generations
		SET status = $2, music_file_path = $3, final_video_path = $4, music_file_size_mb = $5
		WHERE id = $1`,
		id, model.GenerationStatusCompleted, musicPath, finalVideoPath, sizeMB)
	if err != nil {
		return fmt.Errorf("failed to complete generation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListByVideo returns every generation attempt for a video, newest first.
func (s *GenerationService) ListByVideo(ctx context.Context, videoId string) ([]*model.MusicGeneration, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, video_id, vision_prompt, music_prompt, status,
		       COALESCE(music_file_path, ''), COALESCE(final_video_path, ''),
		       COALESCE(music_file_size_mb, 0), COALESCE(error_message, ''), created_at
		FROM music_generations WHERE video_id = $1 ORDER BY created_at DESC`, videoId)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations for video %s: %w", videoId, err)
	}
	defer rows.Close()

	var gens []*model.MusicGeneration
	for rows.Next() {
		gen := &model.MusicGeneration{}
		if err := rows.Scan(&gen.Id, &gen.VideoId, &gen.VisionPrompt, &gen.MusicPrompt,
			&gen.Status, &gen.MusicFilePath, &gen.FinalVideoPath, &gen.MusicFileSizeMB,
			&gen.ErrorMessage, &gen.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}
		gens = append(gens, gen)
	}
	return gens, rows.Err()
}
