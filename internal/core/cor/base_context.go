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

// Package cor (Chain of Responsibility). This file defines `BaseContext`, the
// default implementation of the `Context` interface.
//
// The context is the property bag handed from command to command. Besides the
// data map it keeps the errors in the order they were raised, so the caller of
// a chain can surface the first failure rather than an arbitrary one.
package cor

import (
	"context"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data       map[string]interface{} // Arbitrary key-value data.
	errors     map[string]error       // Errors keyed by the command that produced them.
	errorOrder []string               // Command names in the order their errors were added.
	context    context.Context        // Go context for cancellation and request-scoped values.
}

// NewBaseContext creates an empty context.
func NewBaseContext() Context {
	return &BaseContext{
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// NewBaseContextWith creates an empty context bound to ctx.
func NewBaseContextWith(ctx context.Context) Context {
	out := NewBaseContext()
	out.SetContext(ctx)
	return out
}

// SetContext sets the underlying Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close drops the data held by the context. Commands may hold large
// intermediate values (raw completions), so callers defer Close once a run
// ends.
func (c *BaseContext) Close() {
	for k := range c.data {
		delete(c.data, k)
	}
}

// Add stores a key-value pair in the context's data map.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddError adds an error keyed by the command name. A second error from the
// same command replaces the first but keeps its position.
func (c *BaseContext) AddError(key string, err error) {
	if _, ok := c.errors[key]; !ok {
		c.errorOrder = append(c.errorOrder, key)
	}
	c.errors[key] = err
}

// GetErrors returns the map of all errors collected during the workflow.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// FirstError returns the earliest error recorded, or nil.
func (c *BaseContext) FirstError() error {
	if len(c.errorOrder) == 0 {
		return nil
	}
	return c.errors[c.errorOrder[0]]
}

// Get retrieves a value from the context's data map by its key.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair from the context's data map.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors checks if any errors have been added to the context.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
