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

// Package cor_test contains unit tests for the chain framework itself:
// input/output piping between commands and error short-circuiting.
package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/stretchr/testify/assert"
)

// appendCommand appends its suffix to the piped string input.
type appendCommand struct {
	cor.BaseCommand
	suffix string
}

func newAppendCommand(name string, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)
	context.Add(c.GetOutputParam(), in+c.suffix)
}

// failingCommand always records an error and produces no output.
type failingCommand struct {
	cor.BaseCommand
}

func newFailingCommand(name string) *failingCommand {
	return &failingCommand{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *failingCommand) Execute(context cor.Context) {
	context.AddError(c.GetName(), errors.New("boom"))
}

// TestChainPipesOutputToInput runs two commands and verifies the output of
// the first becomes the input of the second, with the final value left
// under CtxIn after the flip-flop.
func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(newAppendCommand("first", "-a"))
	chain.AddCommand(newAppendCommand("second", "-b"))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "start")

	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "start-a-b", chainCtx.Get(cor.CtxIn))
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

// The first recorded error stops the chain; commands after the failure
// never run.
func TestChainStopsOnFirstError(t *testing.T) {
	chain := cor.NewBaseChain("failing-chain")
	chain.AddCommand(newAppendCommand("first", "-a"))
	chain.AddCommand(newFailingCommand("second"))
	chain.AddCommand(newAppendCommand("third", "-c"))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "start")

	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Contains(t, chainCtx.GetErrors(), "second")
	// The failing command produced no output, so nothing reached the third.
	assert.Nil(t, chainCtx.Get(cor.CtxIn))
}

// A command whose input is missing is skipped rather than executed, since
// the default IsExecutable requires a value under the input key.
func TestChainSkipsCommandWithoutInput(t *testing.T) {
	chain := cor.NewBaseChain("empty-chain")
	chain.AddCommand(newAppendCommand("only", "-a"))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())

	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cor.CtxIn))
}

func TestContextTempFileTracking(t *testing.T) {
	chainCtx := cor.NewBaseContext()
	chainCtx.AddTempFile("/tmp/does-not-exist-1")
	chainCtx.AddTempFile("/tmp/does-not-exist-2")

	assert.Len(t, chainCtx.GetTempFiles(), 2)
	// Close is best effort; missing files only log.
	chainCtx.Close()
}
