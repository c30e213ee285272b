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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface used by the recommendation
// search. This file defines the command that renders the completion prompt.
//
// Logic Flow:
//
//  1. It receives a `model.SearchRequest` from the context.
//  2. It builds the template parameters: the query, the number of titles and
//     a JSON example of the expected reply (few-shot prompting).
//  3. It renders the configured Go template and places the prompt string in
//     the context for `TextCompletion`.
package commands

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/goccy/go-json"

	"github.com/shakah/recomenda-ia/internal/core/cor"
	"github.com/shakah/recomenda-ia/internal/core/model"
)

// RecommendationPrompt renders the completion prompt for a search request.
type RecommendationPrompt struct {
	cor.BaseCommand
	template    *template.Template // Template with QUERY, COUNT and EXAMPLE_JSON parameters.
	exampleJSON string
	exampleErr  error
}

// NewRecommendationPrompt is the constructor for the RecommendationPrompt
// command. The few-shot example is encoded once here.
func NewRecommendationPrompt(name string, template *template.Template) *RecommendationPrompt {
	out := &RecommendationPrompt{
		BaseCommand: *cor.NewBaseCommand(name),
		template:    template,
	}
	example, err := json.Marshal(model.GetExampleRecommendations())
	if err != nil {
		out.exampleErr = fmt.Errorf("failed to encode prompt example: %w", err)
	}
	out.exampleJSON = string(example)
	return out
}

// GenerateParams creates the map of values substituted into the template.
func (p *RecommendationPrompt) GenerateParams(req *model.SearchRequest) map[string]interface{} {
	params := make(map[string]interface{})
	params["QUERY"] = req.Query
	params["COUNT"] = strconv.Itoa(req.Count)
	params["EXAMPLE_JSON"] = p.exampleJSON
	return params
}

// Execute renders the prompt.
func (p *RecommendationPrompt) Execute(context cor.Context) {
	if p.exampleErr != nil {
		p.Fail(context, p.exampleErr)
		return
	}
	req, ok := context.Get(p.GetInputParam()).(*model.SearchRequest)
	if !ok {
		p.Fail(context, fmt.Errorf("unexpected input type %T", context.Get(p.GetInputParam())))
		return
	}

	var buffer bytes.Buffer
	if err := p.template.Execute(&buffer, p.GenerateParams(req)); err != nil {
		p.Fail(context, fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	p.Succeed(context)
	context.Add(p.GetOutputParam(), buffer.String())
}
