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

package commands_test

import (
	"context"
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/core/commands"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/prompt"
	"github.com/stretchr/testify/assert"
)

// TestPromptGateCommandMatchesGate runs the command over passing, weak, and
// hopeless prompts and asserts its output is exactly what the gate's
// validate-and-fix pipeline selects for each.
func TestPromptGateCommandMatchesGate(t *testing.T) {
	gate := prompt.NewGate(nil)
	cmd := commands.NewPromptGateCheck("prompt-gate", gate)

	prompts := []string{
		"Dark Film Score, Studio recording, Pristine contemporary Instrumental, " +
			"featuring strings and brass instruments, evoking a mysterious mood.",
		"dark piano and strings in the rain",
		"too short",
	}

	for _, candidate := range prompts {
		chainCtx := cor.NewBaseContext()
		chainCtx.SetContext(context.Background())
		chainCtx.Add(cor.CtxIn, candidate)

		cmd.Execute(chainCtx)

		assert.False(t, chainCtx.HasErrors(), "prompt %q", candidate)
		assert.Equal(t, gate.ValidateAndFix(candidate), chainCtx.Get(cor.CtxOut), "prompt %q", candidate)
	}
}
