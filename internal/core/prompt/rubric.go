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

// Package prompt implements the quality gate that sits between vision
// analysis and music generation. Every candidate prompt is scored against a
// keyword rubric, sanitized, optionally restructured into the form the music
// model responds best to, and replaced with a safe fallback when it cannot
// be fixed.
package prompt

import "regexp"

// KeywordCategory is one scored dimension of the rubric: a named category
// and the vocabulary that satisfies it.
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// Rubric holds every table the gate scores against. The tables are plain
// data so they can be versioned or swapped without touching the scoring
// logic; DefaultRubric returns the canonical set.
type Rubric struct {
	// MinLength and MaxLength bound the prompt size in characters. Violating
	// either makes the prompt invalid.
	MinLength int
	MaxLength int

	// Categories are checked by case-insensitive substring match. A missing
	// category costs 10 points, a present one earns 5.
	Categories []KeywordCategory

	// FormatPatterns describe the preferred prompt shape. Fewer than two
	// matches costs 5 points.
	FormatPatterns []*regexp.Regexp

	// BannedTerms make a prompt invalid on substring match and cost 50
	// points. Sanitize removes them as whole words.
	BannedTerms []string

	// BannedChars cost 10 points and are replaced with spaces by Sanitize.
	BannedChars []string

	// StructuredPattern recognizes prompts that already follow the target
	// structure; ImproveStructure leaves those untouched.
	StructuredPattern *regexp.Regexp

	// StyleKeywords and InstrumentKeywords drive restructuring: the first
	// style found names the score, the first three instruments found fill
	// the "featuring" clause.
	StyleKeywords      []string
	InstrumentKeywords []string

	// EmptySanitizeFallback replaces an empty prompt in Sanitize;
	// EmptyImproveFallback does the same in ImproveStructure.
	EmptySanitizeFallback string
	EmptyImproveFallback  string

	// HardFailFallback replaces prompts that score below the soft-pass
	// threshold; SafeFallback is returned when the gate itself fails.
	HardFailFallback string
	SafeFallback     string
}

// DefaultRubric returns the canonical scoring tables.
func DefaultRubric() *Rubric {
	return &Rubric{
		MinLength: 20,
		MaxLength: 500,
		Categories: []KeywordCategory{
			{
				Name: "style",
				Keywords: []string{
					"film score", "trailer music", "ambient", "electronic",
					"orchestral", "jazz", "rock", "pop", "classical", "folk",
					"world", "experimental",
				},
			},
			{
				Name: "location",
				Keywords: []string{
					"studio", "concert hall", "outdoor", "live", "recording",
					"los angeles", "london", "new york", "tokyo",
				},
			},
			{
				Name: "instruments",
				Keywords: []string{
					"piano", "guitar", "drums", "bass", "strings", "brass",
					"synths", "percussion", "violin", "cello", "trumpet",
					"saxophone",
				},
			},
			{
				Name: "mood",
				Keywords: []string{
					"peaceful", "dramatic", "energetic", "melancholic",
					"uplifting", "dark", "bright", "mysterious", "romantic",
					"tension", "relaxing",
				},
			},
		},
		FormatPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([A-Z][a-z]+)\s+(Film Score|Trailer Music|Background Music)`),
			regexp.MustCompile(`(?i)(Studio|Live|Concert)\s+recording`),
			regexp.MustCompile(`(?i)(Pristine|Contemporary|Modern)\s+(Instrumental|Music)`),
			regexp.MustCompile(`(?i)(featuring|with|including)\s+[a-z\s]+(instruments?|elements?)`),
		},
		BannedTerms: []string{
			"copyright", "trademark", "brand", "explicit", "offensive",
			"inappropriate", "illegal", "unauthorized", "stolen",
			"plagiarized", "ripped off",
		},
		BannedChars: []string{"<", ">", "&", `"`, "'", `\`, "/", "|"},
		StructuredPattern: regexp.MustCompile(
			`([A-Z][a-z]+)\s+(Film Score|Trailer Music|Background Music|Music)`),
		StyleKeywords: []string{
			"ambient", "dramatic", "peaceful", "energetic", "melancholic",
			"uplifting", "dark", "bright", "mysterious", "romantic",
		},
		InstrumentKeywords: []string{
			"piano", "guitar", "drums", "bass", "strings", "brass", "synths",
			"percussion", "violin", "cello",
		},
		EmptySanitizeFallback: "Ambient atmospheric music with gentle textures and flowing melodies",
		EmptyImproveFallback:  "Ambient atmospheric music with gentle textures and flowing melodies, suitable for contemplative scenes.",
		HardFailFallback:      "Ambient atmospheric music with gentle textures and flowing melodies, suitable for contemplative scenes with natural elements and soft lighting.",
		SafeFallback:          "Peaceful background music with subtle ambient tones and gentle melodies.",
	}
}
