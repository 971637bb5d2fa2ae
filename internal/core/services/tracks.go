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
	"strings"

	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
)

// TrackService answers stock-music searches from a small in-memory catalog.
// A real deployment would swap this for a licensed library's search API.
type TrackService struct {
	catalog []model.Track
}

// NewTrackService creates a TrackService with the built-in catalog.
func NewTrackService() *TrackService {
	return &TrackService{catalog: defaultCatalog()}
}

// Search matches the query case-insensitively against title, artist, genre,
// and mood. An empty query returns nothing; a query with no matches returns
// the first three tracks as suggestions.
func (s *TrackService) Search(query string) []model.Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []model.Track{}
	}

	var results []model.Track
	for _, track := range s.catalog {
		if strings.Contains(strings.ToLower(track.Title), query) ||
			strings.Contains(strings.ToLower(track.Artist), query) ||
			strings.Contains(strings.ToLower(track.Genre), query) ||
			strings.Contains(strings.ToLower(track.Mood), query) {
			results = append(results, track)
		}
	}

	if len(results) == 0 {
		return s.catalog[:3]
	}
	return results
}

func defaultCatalog() []model.Track {
	return []model.Track{
		{
			Title:       "Upbeat Adventure",
			Artist:      "Creative Commons",
			Genre:       "Electronic",
			Duration:    "2:45",
			Mood:        "energetic",
			DownloadURL: "https://example.com/upbeat-adventure.mp3",
		},
		{
			Title:       "Calm Waters",
			Artist:      "Free Music Archive",
			Genre:       "Ambient",
			Duration:    "3:20",
			Mood:        "relaxing",
			DownloadURL: "https://example.com/calm-waters.mp3",
		},
		{
			Title:       "Tech Startup",
			Artist:      "CC Mixter",
			Genre:       "Corporate",
			Duration:    "1:55",
			Mood:        "professional",
			DownloadURL: "https://example.com/tech-startup.mp3",
		},
		{
			Title:       "Summer Vibes",
			Artist:      "Incompetech",
			Genre:       "Pop",
			Duration:    "2:30",
			Mood:        "happy",
			DownloadURL: "https://example.com/summer-vibes.mp3",
		},
		{
			Title:       "Night Drive",
			Artist:      "Free Music Archive",
			Genre:       "Synthwave",
			Duration:    "4:15",
			Mood:        "mysterious",
			DownloadURL: "https://example.com/night-drive.mp3",
		},
	}
}
