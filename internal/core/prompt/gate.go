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

package prompt

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Passing thresholds for ValidateAndFix. A final score of at least PassScore
// is a clean pass, at least SoftPassScore passes with warnings, anything
// lower is replaced by the rubric's hard-fail fallback.
const (
	PassScore     = 70
	SoftPassScore = 50
)

// Evaluation is the scored verdict for a single prompt. Score is always in
// [0,100]. IsValid only reflects the hard rules (length bounds and banned
// terms); a prompt can be valid and still score poorly.
type Evaluation struct {
	IsValid     bool     `json:"is_valid"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// QualityResult is the full audit trail of one pass through the gate: the
// original prompt and its evaluation, the sanitized and improved variants,
// and the final selection.
type QualityResult struct {
	OriginalPrompt     string     `json:"original_prompt"`
	OriginalEvaluation Evaluation `json:"original_validation"`
	SanitizedPrompt    string     `json:"sanitized_prompt"`
	ImprovedPrompt     string     `json:"improved_prompt"`
	ImprovedEvaluation Evaluation `json:"improved_validation"`
	FinalPrompt        string     `json:"final_prompt"`
	WasImproved        bool       `json:"was_improved"`
	FinalScore         int        `json:"final_score"`
}

// Gate scores, cleans, and repairs music prompts against a Rubric.
type Gate struct {
	rubric *Rubric
}

// NewGate creates a gate for the given rubric, defaulting to DefaultRubric
// when rubric is nil.
func NewGate(rubric *Rubric) *Gate {
	if rubric == nil {
		rubric = DefaultRubric()
	}
	return &Gate{rubric: rubric}
}

// Validate scores a prompt against the rubric without modifying it.
//
// Scoring starts at zero: -30 for too short, -20 for too long, -10 per
// missing keyword category and +5 per present one, -5 when fewer than two
// format patterns match, -50 for banned terms, -10 for banned characters.
// The raw score is then shifted by +50 and clamped to [0,100].
func (g *Gate) Validate(prompt string) Evaluation {
	eval := Evaluation{
		IsValid:     true,
		Issues:      []string{},
		Suggestions: []string{},
	}
	score := 0

	// Length bounds count characters, not bytes, so non-ASCII prompts are
	// measured the same as ASCII ones.
	if utf8.RuneCountInString(strings.TrimSpace(prompt)) < g.rubric.MinLength {
		eval.IsValid = false
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("Prompt is too short (minimum %d characters)", g.rubric.MinLength))
		eval.Suggestions = append(eval.Suggestions,
			"Add more descriptive elements about style, instruments, and mood")
		score -= 30
	}

	if utf8.RuneCountInString(prompt) > g.rubric.MaxLength {
		eval.IsValid = false
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("Prompt is too long (maximum %d characters)", g.rubric.MaxLength))
		eval.Suggestions = append(eval.Suggestions,
			"Make the prompt more concise while keeping key elements")
		score -= 20
	}

	promptLower := strings.ToLower(prompt)

	for _, category := range g.rubric.Categories {
		found := false
		for _, kw := range category.Keywords {
			if strings.Contains(promptLower, kw) {
				found = true
				break
			}
		}
		if !found {
			eval.Issues = append(eval.Issues, fmt.Sprintf("Missing %s description", category.Name))
			eval.Suggestions = append(eval.Suggestions,
				fmt.Sprintf("Add %s elements to make the prompt more specific", category.Name))
			score -= 10
		} else {
			score += 5
		}
	}

	patternMatches := 0
	for _, pattern := range g.rubric.FormatPatterns {
		if pattern.MatchString(prompt) {
			patternMatches++
		}
	}
	if patternMatches < 2 {
		eval.Issues = append(eval.Issues, "Prompt doesn't follow the expected format guidelines")
		eval.Suggestions = append(eval.Suggestions,
			"Follow format: 'Style, Location, Recording type, Pristine/Contemporary Instrumental, featuring instruments and elements'")
		score -= 5
	}

	var foundTerms []string
	for _, term := range g.rubric.BannedTerms {
		if strings.Contains(promptLower, term) {
			foundTerms = append(foundTerms, term)
		}
	}
	if len(foundTerms) > 0 {
		eval.IsValid = false
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("Contains problematic words: %s", strings.Join(foundTerms, ", ")))
		eval.Suggestions = append(eval.Suggestions,
			"Remove references to copyrighted material or inappropriate content")
		score -= 50
	}

	var foundChars []string
	for _, char := range g.rubric.BannedChars {
		if strings.Contains(prompt, char) {
			foundChars = append(foundChars, char)
		}
	}
	if len(foundChars) > 0 {
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("Contains problematic characters: %s", strings.Join(foundChars, ", ")))
		eval.Suggestions = append(eval.Suggestions,
			"Remove special characters that might cause API issues")
		score -= 10
	}

	eval.Score = clamp(score+50, 0, 100)
	return eval
}

// Sanitize strips banned characters and terms from a prompt and normalizes
// it: whitespace collapsed, first letter capitalized, terminal punctuation
// added. An empty prompt becomes the rubric's sanitize fallback.
func (g *Gate) Sanitize(prompt string) string {
	if prompt == "" {
		return g.rubric.EmptySanitizeFallback
	}

	sanitized := prompt
	for _, char := range g.rubric.BannedChars {
		sanitized = strings.ReplaceAll(sanitized, char, " ")
	}

	// Banned terms are removed as whole words so embedded occurrences
	// ("copyrighted") survive sanitization even though they fail Validate.
	for _, term := range g.rubric.BannedTerms {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		sanitized = re.ReplaceAllString(sanitized, "")
	}

	sanitized = strings.TrimSpace(whitespaceRun.ReplaceAllString(sanitized, " "))

	if sanitized != "" {
		runes := []rune(sanitized)
		if unicode.IsLower(runes[0]) {
			runes[0] = unicode.ToUpper(runes[0])
			sanitized = string(runes)
		}
	}

	if sanitized != "" && !strings.HasSuffix(sanitized, ".") &&
		!strings.HasSuffix(sanitized, "!") && !strings.HasSuffix(sanitized, "?") {
		sanitized += "."
	}

	return sanitized
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ImproveStructure rewrites a free-form prompt into the preferred shape:
// "<Style> Film Score, Studio recording, Pristine contemporary
// Instrumental, featuring <instruments>, <original description>". Prompts
// that already match the structured pattern are returned unchanged.
func (g *Gate) ImproveStructure(prompt string) string {
	if prompt == "" {
		return g.rubric.EmptyImproveFallback
	}

	if g.rubric.StructuredPattern.MatchString(prompt) {
		return prompt
	}

	promptLower := strings.ToLower(prompt)

	var foundStyle string
	for _, kw := range g.rubric.StyleKeywords {
		if strings.Contains(promptLower, kw) {
			foundStyle = kw
			break
		}
	}

	var foundInstruments []string
	for _, kw := range g.rubric.InstrumentKeywords {
		if strings.Contains(promptLower, kw) {
			foundInstruments = append(foundInstruments, kw)
		}
	}

	var parts []string
	if foundStyle != "" {
		parts = append(parts, title(foundStyle)+" Film Score")
	} else {
		parts = append(parts, "Contemporary Film Score")
	}
	parts = append(parts, "Studio recording")
	parts = append(parts, "Pristine contemporary Instrumental")

	if len(foundInstruments) > 0 {
		if len(foundInstruments) > 3 {
			foundInstruments = foundInstruments[:3]
		}
		parts = append(parts, "featuring "+strings.Join(foundInstruments, ", "))
	}

	// Carry the descriptive tail of longer prompts so the rewritten version
	// still reflects the scene the vision model saw.
	if len(prompt) > 50 {
		descriptive := prompt
		if idx := strings.LastIndex(prompt, ","); idx >= 0 {
			descriptive = prompt[idx+1:]
		}
		descriptive = strings.TrimSpace(descriptive)
		if len(descriptive) > 10 {
			parts = append(parts, descriptive)
		}
	}

	improved := strings.Join(parts, ", ")
	if !strings.HasSuffix(improved, ".") && !strings.HasSuffix(improved, "!") &&
		!strings.HasSuffix(improved, "?") {
		improved += "."
	}

	return improved
}

// CheckQuality runs the whole gate over one prompt: validate the original,
// sanitize it, restructure when the original scored below PassScore, and
// re-validate. The final prompt is the improved variant only when it
// out-scores the original; otherwise the sanitized variant wins.
func (g *Gate) CheckQuality(promptText string) *QualityResult {
	original := g.Validate(promptText)
	sanitized := g.Sanitize(promptText)

	improved := sanitized
	if original.Score < PassScore {
		improved = g.ImproveStructure(sanitized)
	}
	improvedEval := g.Validate(improved)

	final := sanitized
	if improvedEval.Score > original.Score {
		final = improved
	}

	return &QualityResult{
		OriginalPrompt:     promptText,
		OriginalEvaluation: original,
		SanitizedPrompt:    sanitized,
		ImprovedPrompt:     improved,
		ImprovedEvaluation: improvedEval,
		FinalPrompt:        final,
		WasImproved:        improvedEval.Score > original.Score,
		FinalScore:         max(original.Score, improvedEval.Score),
	}
}

// ValidateAndFix is the gate's top-level operation: it always returns a
// usable prompt. Prompts whose final score clears SoftPassScore pass
// through (possibly repaired); anything lower is replaced with the
// hard-fail fallback. The function is total: an internal panic yields the
// safe fallback instead of propagating.
func (g *Gate) ValidateAndFix(promptText string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("prompt gate recovered from panic, using safe fallback", "panic", r)
			result = g.rubric.SafeFallback
		}
	}()

	quality := g.CheckQuality(promptText)

	switch {
	case quality.FinalScore >= PassScore:
		slog.Debug("prompt passed", "score", quality.FinalScore, "improved", quality.WasImproved)
		return quality.FinalPrompt
	case quality.FinalScore >= SoftPassScore:
		slog.Debug("prompt passed with warnings", "score", quality.FinalScore)
		return quality.FinalPrompt
	default:
		slog.Info("prompt failed validation, using fallback", "score", quality.FinalScore)
		return g.rubric.HardFailFallback
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// title uppercases the first letter of a single lowercase keyword.
func title(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
