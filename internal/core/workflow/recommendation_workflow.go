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

// Package workflow defines the high-level orchestrations, combining commands
// into pipelines. This file implements the recommendation workflow: the part
// of a search that turns a free-text query into a list of titles waiting for
// their posters.
package workflow

import (
	goctx "context"
	"fmt"
	"text/template"
	"time"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/core/commands"
	"github.com/shakah/recomenda-ia/internal/core/cor"
	"github.com/shakah/recomenda-ia/internal/core/model"
)

// TitlesOutputParamName is the context key holding the parsed titles.
const TitlesOutputParamName = "__titles_output__"

// RecommendationWorkflow orchestrates prompt rendering, the timed completion
// call and the parsing of the reply.
type RecommendationWorkflow struct {
	cor.BaseCommand
	completer commands.TextCompleter
	template  *template.Template
	timeout   time.Duration
	chain     cor.Chain
}

// Execute runs the underlying chain.
func (r *RecommendationWorkflow) Execute(context cor.Context) {
	r.chain.Execute(context)
}

// IsExecutable requires a search request and a Go context.
func (r *RecommendationWorkflow) IsExecutable(context cor.Context) bool {
	return r.chain.IsExecutable(context) && context.Get(r.GetInputParam()) != nil
}

func (r *RecommendationWorkflow) initializeChain() {
	out := cor.NewBaseChain(r.GetName())

	// Step 1: Render the prompt from the search request.
	out.AddCommand(commands.NewRecommendationPrompt("render-recommendation-prompt", r.template))

	// Step 2: Send the prompt to the text model under the completion timeout.
	out.AddCommand(commands.NewTextCompletion("complete-recommendation-prompt", r.completer, r.timeout))

	// Step 3: Isolate the JSON array in the free-text reply.
	out.AddCommand(commands.NewJsonArrayExtractor("extract-json-array"))

	// Step 4: Decode the array into titles with ids and placeholder posters.
	out.AddCommand(commands.NewTitlesJsonToStruct("convert-recommendations", TitlesOutputParamName))

	r.chain = out
}

// Run executes the workflow for one request and returns the titles or the
// first error raised by a command.
func (r *RecommendationWorkflow) Run(ctx goctx.Context, req *model.SearchRequest) ([]model.Title, error) {
	chCtx := cor.NewBaseContextWith(ctx)
	defer chCtx.Close()
	chCtx.Add(cor.CtxIn, req)

	r.Execute(chCtx)

	if chCtx.HasErrors() {
		return nil, chCtx.FirstError()
	}
	titles, ok := chCtx.Get(TitlesOutputParamName).([]model.Title)
	if !ok {
		return nil, fmt.Errorf("%s produced no titles", r.GetName())
	}
	return titles, nil
}

// NewRecommendationWorkflow is the constructor for the RecommendationWorkflow.
//
// Inputs:
//   - config: The application's overall configuration.
//   - completer: The text model client.
//
// Returns:
//   - A fully initialized RecommendationWorkflow, or an error when the prompt
//     template does not parse.
func NewRecommendationWorkflow(config *cloud.Config, completer commands.TextCompleter) (*RecommendationWorkflow, error) {
	text := config.PromptTemplates.Recommendation
	if text == "" {
		text = cloud.DefaultRecommendationPrompt
	}
	tmpl, err := template.New("recommendation-template").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recommendation prompt template: %w", err)
	}

	timeout := config.Recommendation.CompletionTimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	wf := &RecommendationWorkflow{
		BaseCommand: *cor.NewBaseCommand("recommendation-workflow"),
		completer:   completer,
		template:    tmpl,
		timeout:     timeout,
	}
	wf.initializeChain()
	return wf, nil
}
