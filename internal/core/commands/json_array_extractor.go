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

// Package commands. This file defines the command that sniffs the JSON array
// out of a free-text completion. Text models often wrap the array in prose or
// markdown fences, so the span from the first '[' to the last ']' is taken.
package commands

import (
	"regexp"

	"github.com/shakah/recomenda-ia/internal/core/cor"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
)

// arrayPattern is greedy and spans newlines.
var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ExtractJSONArray returns the first '['..last ']' substring of raw.
func ExtractJSONArray(raw string) (string, bool) {
	match := arrayPattern.FindString(raw)
	return match, match != ""
}

// JsonArrayExtractor isolates the JSON array in a raw completion.
type JsonArrayExtractor struct {
	cor.BaseCommand
}

// NewJsonArrayExtractor is the constructor for the JsonArrayExtractor command.
func NewJsonArrayExtractor(name string) *JsonArrayExtractor {
	return &JsonArrayExtractor{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute extracts the array or fails with INVALID_RESPONSE_FORMAT.
func (j *JsonArrayExtractor) Execute(context cor.Context) {
	raw := context.Get(j.GetInputParam()).(string)
	array, ok := ExtractJSONArray(raw)
	if !ok {
		j.Fail(context, rerrors.NewInvalidResponseFormat())
		return
	}
	j.Succeed(context)
	context.Add(j.GetOutputParam(), array)
}
