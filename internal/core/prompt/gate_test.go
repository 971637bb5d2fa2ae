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

// Package prompt_test contains unit tests for the prompt quality gate:
// scoring, sanitization, restructuring, and the top-level validate-and-fix
// behavior that must always return a usable prompt.
package prompt_test

import (
	"strings"
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/core/prompt"
	"github.com/stretchr/testify/assert"
)

// wellFormedPrompt hits every rubric category and all four format patterns,
// scoring exactly at the pass threshold. It is already sanitized, so the
// gate must return it byte for byte.
const wellFormedPrompt = "Dark Film Score, Studio recording, Pristine contemporary Instrumental, " +
	"featuring strings and brass instruments, evoking a mysterious mood."

func TestValidateWellFormedPrompt(t *testing.T) {
	gate := prompt.NewGate(nil)
	eval := gate.Validate(wellFormedPrompt)

	assert.True(t, eval.IsValid)
	assert.GreaterOrEqual(t, eval.Score, prompt.PassScore)
	assert.Empty(t, eval.Issues)
}

// TestValidateScoreRange feeds prompts from degenerate to perfect and
// asserts every score lands in [0, 100].
func TestValidateScoreRange(t *testing.T) {
	gate := prompt.NewGate(nil)
	prompts := []string{
		"",
		"x",
		"some plain text without any musical vocabulary at all",
		"copyright copyright copyright <>&",
		strings.Repeat("very long prompt about ambient piano music ", 20),
		wellFormedPrompt,
	}

	for _, p := range prompts {
		eval := gate.Validate(p)
		assert.GreaterOrEqual(t, eval.Score, 0, "prompt %q", p)
		assert.LessOrEqual(t, eval.Score, 100, "prompt %q", p)
	}
}

func TestValidateLengthBounds(t *testing.T) {
	gate := prompt.NewGate(nil)

	short := gate.Validate("too short")
	assert.False(t, short.IsValid)
	assert.Contains(t, short.Issues[0], "too short")

	long := gate.Validate(strings.Repeat("a", 501))
	assert.False(t, long.IsValid)
}

// TestValidateLengthCountsCharacters pins the length bounds to characters
// rather than bytes: a 12-character Cyrillic prompt is 24 bytes but still
// too short, and a 300-character one is 600 bytes but still within bounds.
func TestValidateLengthCountsCharacters(t *testing.T) {
	gate := prompt.NewGate(nil)

	short := gate.Validate(strings.Repeat("м", 12))
	assert.False(t, short.IsValid)
	assert.Contains(t, short.Issues[0], "too short")

	long := gate.Validate(strings.Repeat("м", 300))
	assert.True(t, long.IsValid)
}

// TestValidateBannedTermsInvalidate confirms banned vocabulary makes a
// prompt invalid even when everything else about it is fine.
func TestValidateBannedTermsInvalidate(t *testing.T) {
	gate := prompt.NewGate(nil)
	eval := gate.Validate("Uplifting orchestral piano music, studio recording, with copyright issues")

	assert.False(t, eval.IsValid)
	found := false
	for _, issue := range eval.Issues {
		if strings.Contains(issue, "problematic words") {
			found = true
		}
	}
	assert.True(t, found)
}

// Validity comes only from the hard rules. A prompt with no useful keywords
// still counts as valid as long as its length is in bounds and it carries
// no banned terms.
func TestValidateValidityIndependentOfScore(t *testing.T) {
	gate := prompt.NewGate(nil)
	eval := gate.Validate("a perfectly ordinary sentence about nothing in particular")

	assert.True(t, eval.IsValid)
	assert.Less(t, eval.Score, prompt.PassScore)
}

func TestSanitizeRemovesBannedChars(t *testing.T) {
	gate := prompt.NewGate(nil)
	assert.Equal(t, "Dark ambient music.", gate.Sanitize("dark <ambient> music"))
}

// Banned terms go away as whole words only, so "rebranding" survives even
// though "brand" alone is removed.
func TestSanitizeRemovesWholeWordsOnly(t *testing.T) {
	gate := prompt.NewGate(nil)
	assert.Equal(t, "New piano melody.", gate.Sanitize("brand new piano melody"))
	assert.Equal(t, "Rebranding piano melody.", gate.Sanitize("rebranding piano melody"))
}

func TestSanitizeEmptyPromptFallsBack(t *testing.T) {
	gate := prompt.NewGate(nil)
	rubric := prompt.DefaultRubric()
	assert.Equal(t, rubric.EmptySanitizeFallback, gate.Sanitize(""))
}

// Sanitize is idempotent: a second pass over clean output changes nothing.
func TestSanitizeIdempotent(t *testing.T) {
	gate := prompt.NewGate(nil)
	once := gate.Sanitize("dark <ambient>   music with 'piano'")
	twice := gate.Sanitize(once)
	assert.Equal(t, once, twice)
}

// Prompts that already follow the structured shape pass through
// ImproveStructure untouched.
func TestImproveStructureSkipsStructuredPrompts(t *testing.T) {
	gate := prompt.NewGate(nil)
	structured := "Epic Music with sweeping themes"
	assert.Equal(t, structured, gate.ImproveStructure(structured))
}

func TestImproveStructureBuildsPreferredShape(t *testing.T) {
	gate := prompt.NewGate(nil)
	improved := gate.ImproveStructure("dark piano and strings in the rain")

	assert.Equal(t,
		"Dark Film Score, Studio recording, Pristine contemporary Instrumental, featuring piano, strings.",
		improved)
}

func TestImproveStructureWithoutStyleUsesContemporary(t *testing.T) {
	gate := prompt.NewGate(nil)
	improved := gate.ImproveStructure("just some words")

	assert.True(t, strings.HasPrefix(improved, "Contemporary Film Score"))
}

// TestCheckQualityImprovesWeakPrompt verifies a failing prompt is
// restructured, the restructured variant wins when it scores higher, and
// the final score is the max of the two evaluations.
func TestCheckQualityImprovesWeakPrompt(t *testing.T) {
	gate := prompt.NewGate(nil)
	quality := gate.CheckQuality("too short")

	assert.True(t, quality.WasImproved)
	assert.Equal(t, quality.ImprovedPrompt, quality.FinalPrompt)
	assert.Greater(t, quality.ImprovedEvaluation.Score, quality.OriginalEvaluation.Score)
	assert.Equal(t, quality.ImprovedEvaluation.Score, quality.FinalScore)
}

// When the rewrite does not beat the original score, the sanitized variant
// is the final prompt.
func TestCheckQualityKeepsSanitizedWhenNoGain(t *testing.T) {
	gate := prompt.NewGate(nil)
	quality := gate.CheckQuality(wellFormedPrompt)

	assert.False(t, quality.WasImproved)
	assert.Equal(t, quality.SanitizedPrompt, quality.FinalPrompt)
	assert.Equal(t, quality.OriginalEvaluation.Score, quality.FinalScore)
}

func TestValidateAndFixPassesGoodPromptThrough(t *testing.T) {
	gate := prompt.NewGate(nil)
	assert.Equal(t, wellFormedPrompt, gate.ValidateAndFix(wellFormedPrompt))
}

// A prompt in the soft-pass band (at least 50 but below 70) is returned
// rather than replaced.
func TestValidateAndFixSoftPass(t *testing.T) {
	gate := prompt.NewGate(nil)
	softPrompt := "Ambient Film Score, Studio recording, featuring gentle piano elements."

	quality := gate.CheckQuality(softPrompt)
	assert.GreaterOrEqual(t, quality.FinalScore, prompt.SoftPassScore)
	assert.Less(t, quality.FinalScore, prompt.PassScore)

	assert.Equal(t, softPrompt, gate.ValidateAndFix(softPrompt))
}

// Anything the gate cannot repair above the soft-pass threshold becomes the
// hard-fail fallback, never an unusable prompt.
func TestValidateAndFixHardFailFallback(t *testing.T) {
	gate := prompt.NewGate(nil)
	rubric := prompt.DefaultRubric()

	assert.Equal(t, rubric.HardFailFallback, gate.ValidateAndFix("too short"))
	assert.Equal(t, rubric.HardFailFallback, gate.ValidateAndFix(""))
}

func TestValidateAndFixAlwaysReturnsUsablePrompt(t *testing.T) {
	gate := prompt.NewGate(nil)
	prompts := []string{
		"",
		"<<<>>>",
		"copyright",
		strings.Repeat("z", 600),
		wellFormedPrompt,
	}

	for _, p := range prompts {
		fixed := gate.ValidateAndFix(p)
		assert.NotEmpty(t, fixed, "prompt %q", p)
		assert.GreaterOrEqual(t, len(fixed), 20, "prompt %q", p)
	}
}
