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
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/prompt"
)

// PromptGateCheck runs the piped scene description through the prompt
// quality gate. The gate is total, so this command never fails the chain:
// a hopeless prompt comes back as a safe fallback.
type PromptGateCheck struct {
	cor.BaseCommand
	gate *prompt.Gate
}

// NewPromptGateCheck creates the gate command.
func NewPromptGateCheck(name string, gate *prompt.Gate) *PromptGateCheck {
	return &PromptGateCheck{BaseCommand: *cor.NewBaseCommand(name), gate: gate}
}

// Execute validates and repairs the piped prompt. ValidateAndFix runs the
// validate, sanitize, and improve pipeline once and logs the verdict itself.
func (c *PromptGateCheck) Execute(context cor.Context) {
	candidate := context.Get(c.GetInputParam()).(string)

	fixed := c.gate.ValidateAndFix(candidate)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), fixed)
}
