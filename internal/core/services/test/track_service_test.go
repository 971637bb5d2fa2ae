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

// Package services_test contains unit tests for the stock-music track
// search, which runs against the in-memory catalog and needs no database.
package services_test

import (
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func TestTrackSearchMatchesAcrossFields(t *testing.T) {
	svc := services.NewTrackService()

	byGenre := svc.Search("ambient")
	assert.Len(t, byGenre, 1)
	assert.Equal(t, "Calm Waters", byGenre[0].Title)

	byMood := svc.Search("mysterious")
	assert.Len(t, byMood, 1)
	assert.Equal(t, "Night Drive", byMood[0].Title)

	byArtist := svc.Search("free music archive")
	assert.Len(t, byArtist, 2)
}

func TestTrackSearchIsCaseInsensitive(t *testing.T) {
	svc := services.NewTrackService()

	upper := svc.Search("SUMMER")
	assert.Len(t, upper, 1)
	assert.Equal(t, "Summer Vibes", upper[0].Title)
}

// An empty query returns nothing, but a query with no matches falls back
// to the first three catalog tracks as suggestions.
func TestTrackSearchEmptyAndNoMatch(t *testing.T) {
	svc := services.NewTrackService()

	assert.Empty(t, svc.Search(""))
	assert.Empty(t, svc.Search("   "))

	suggestions := svc.Search("zzzzz-no-such-track")
	assert.Len(t, suggestions, 3)
	assert.Equal(t, "Upbeat Adventure", suggestions[0].Title)
}
