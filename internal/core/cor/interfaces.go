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

// Package cor implements a small Chain of Responsibility framework used to
// assemble the video ingestion and music generation pipelines. A workflow is a
// Chain of Commands that share a Context; each command reads its input from
// the context, does one unit of work, and writes its output back for the next
// command in line.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the default context key for a command's primary input. The
	// chain populates it with the previous command's output before each step.
	CtxIn = "__IN__"
	// CtxOut is the default context key where a command places its primary
	// output. The chain moves it to CtxIn for the next command.
	CtxOut = "__OUT__"
)

// Context is the shared state for a single workflow execution. It carries the
// data exchanged between commands, the errors they raise, and the temporary
// files they create so everything can be cleaned up in one place.
type Context interface {
	// SetContext sets the Go context used for cancellation and trace
	// propagation.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a key-value pair and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the command that raised it.
	AddError(key string, err error)

	// GetErrors returns all errors recorded so far, keyed by command name.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// HasErrors reports whether any command has recorded an error.
	HasErrors() bool

	// AddTempFile registers a temporary file for removal on Close.
	AddTempFile(file string)

	// GetTempFiles returns the registered temporary file paths.
	GetTempFiles() []string

	// Close removes all registered temporary files. Defer it at the start of
	// a workflow run.
	Close()
}

// Executable is anything with a single unit of execution logic.
type Executable interface {
	// Execute runs the business logic, reading inputs from and writing
	// outputs to the given Context.
	Execute(context Context)
}

// Command is an atomic, individually traceable step of a workflow.
type Command interface {
	Executable

	// GetName returns the command name used in logs, spans, and metrics.
	GetName() string

	// GetInputParam returns the context key the command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions hold for the
	// given context. Checked by the chain before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains may be nested to compose larger workflows.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after a
	// command records an error. Defaults to stopping at the first failure.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
