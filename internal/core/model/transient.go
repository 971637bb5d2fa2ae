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

package model

// Track is one entry of the stock-music catalog served by the search
// endpoint.
type Track struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Genre       string `json:"genre"`
	Duration    string `json:"duration"`
	Mood        string `json:"mood"`
	DownloadURL string `json:"download_url"`
}

// GenerationRequest is the API payload that starts a music generation for a
// video. Prompt optionally overrides the vision analysis as the seed text
// for the music prompt.
type GenerationRequest struct {
	Prompt string `json:"prompt,omitempty"`
}

// SearchRequest is the API payload for the track search endpoint.
type SearchRequest struct {
	Query string `json:"query"`
}
