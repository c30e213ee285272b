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

// Package cor (Chain of Responsibility) provides the building blocks used to
// assemble the recommendation search as a sequence of small commands. This
// file defines the interfaces every command, chain and context implements.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data between the commands of a
// BaseChain.
const (
	// CtxIn is the default key for the primary input of a command. The
	// BaseChain fills it with the output of the previous command.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the state shared by the commands of one chain execution. It
// carries data, the errors raised so far and the Go context that bounds the
// run.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext retrieves the Go context.
	GetContext() context.Context

	// Add stores a key-value pair and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error raised by the named command.
	AddError(key string, err error)

	// GetErrors returns all errors keyed by the command that raised them.
	GetErrors() map[string]error

	// FirstError returns the first error recorded, or nil.
	FirstError() error

	// Get retrieves a value by key.
	Get(key string) interface{}

	// Remove deletes a key.
	Remove(key string)

	// HasErrors reports whether any error was recorded.
	HasErrors() bool

	// Close releases resources held by the context.
	Close()
}

// Executable is any object with an execution step.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic unit of work in a chain.
type Command interface {
	Executable

	// GetName returns the name used for tracing and metrics.
	GetName() string

	// GetInputParam returns the key of the primary input.
	GetInputParam() string

	// GetOutputParam returns the key of the primary output.
	GetOutputParam() string

	// IsExecutable checks the preconditions of Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command so
// chains can nest.
type Chain interface {
	Command

	// ContinueOnFailure tells the chain whether to keep running commands
	// after one of them records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
