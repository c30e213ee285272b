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

// Package cor (Chain of Responsibility). This file defines `BaseChain`, the
// default implementation of the `Chain` interface.
//
// Logic Flow:
//
//  1. **Execution starts**: `Execute` is called with a shared context.
//  2. **Telemetry**: A span covers the whole chain and a child span covers
//     each command.
//  3. **Stop conditions**: Before each command the chain stops if a previous
//     command recorded an error (unless `continueOnFailure` is set) or if the
//     Go context was cancelled. A cancelled context is recorded as an error
//     under the chain's name so the caller sees why the run ended.
//  4. **Data Piping**: After a command runs, the value it placed in `CtxOut`
//     is moved to `CtxIn`, making the output of one command the input of the
//     next.
package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain is the default implementation of the Chain interface.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool      // Keep executing after a command fails.
	commands          []Command // Commands in execution order.
}

// NewBaseChain is the constructor for BaseChain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets the error handling behavior of the chain.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends a command to the chain's execution sequence.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable checks that a Go context is present.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs all commands in order.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	// The caller's context is restored once the chain returns, so a nested
	// chain does not leak its span context to the next sibling.
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			break
		}
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), err)
			break
		}

		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
		} else {
			chCtx.AddError(command.GetName(), fmt.Errorf("command not executable: %s", command.GetName()))
		}

		if _, failed := chCtx.GetErrors()[command.GetName()]; failed {
			commandSpan.SetStatus(codes.Error, "error during command execution")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()

		// Pipe this command's output into the next command's input.
		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
