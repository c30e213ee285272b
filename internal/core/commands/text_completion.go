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

// Package commands. This file defines the command that sends the rendered
// prompt to the text model.
//
// The call runs under a hard timeout. The completer is invoked on its own
// goroutine so the timeout holds even for a client that ignores its context;
// a late answer is discarded. Failures are classified as:
//   - CANCELLED when the search context ended first (superseded or aborted).
//   - TIMEOUT when the completion deadline expired.
//   - TRANSPORT for anything else the completer returned.
package commands

import (
	goctx "context"
	"time"

	"github.com/shakah/recomenda-ia/internal/core/cor"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
	"go.opentelemetry.io/otel/attribute"
)

// TextCompleter sends a prompt to a text model and returns the raw reply.
type TextCompleter interface {
	Complete(ctx goctx.Context, prompt string) (string, error)
}

// TextCompletion calls a TextCompleter with a timeout.
type TextCompletion struct {
	cor.BaseCommand
	completer TextCompleter
	timeout   time.Duration
}

// NewTextCompletion is the constructor for the TextCompletion command.
func NewTextCompletion(name string, completer TextCompleter, timeout time.Duration) *TextCompletion {
	return &TextCompletion{
		BaseCommand: *cor.NewBaseCommand(name),
		completer:   completer,
		timeout:     timeout,
	}
}

type completion struct {
	value string
	err   error
}

// Execute sends the prompt and stores the raw reply.
func (t *TextCompletion) Execute(context cor.Context) {
	prompt := context.Get(t.GetInputParam()).(string)
	parent := context.GetContext()

	ctx, span := t.Tracer.Start(parent, "text_completion_call")
	defer span.End()
	span.SetAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("timeout", t.timeout.String()),
	)

	callCtx, cancel := goctx.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		value, err := t.completer.Complete(callCtx, prompt)
		done <- completion{value: value, err: err}
	}()

	var res completion
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = completion{err: callCtx.Err()}
	}

	if res.err != nil {
		switch {
		case parent.Err() != nil:
			t.Fail(context, rerrors.NewCancelled(parent.Err()))
		case callCtx.Err() == goctx.DeadlineExceeded:
			t.Fail(context, rerrors.NewTimeout(res.err))
		default:
			t.Fail(context, rerrors.NewTransport(res.err))
		}
		return
	}

	span.SetAttributes(attribute.Int("completion.length", len(res.value)))
	t.Succeed(context)
	context.Add(t.GetOutputParam(), res.value)
}
