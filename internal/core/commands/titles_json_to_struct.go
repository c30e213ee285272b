// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands. This file defines the data transformation step of the
// search chain: the JSON array isolated by `JsonArrayExtractor` is decoded
// into `model.RecommendationEntry` values and converted into titles carrying
// a fresh id and the loading poster placeholder.
//
// Entries whose title is blank are dropped because no poster can be looked
// up for them and a client has nothing to render.
package commands

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shakah/recomenda-ia/internal/core/cor"
	"github.com/shakah/recomenda-ia/internal/core/model"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
)

// TitlesJsonToStruct parses a JSON array into []model.Title.
type TitlesJsonToStruct struct {
	cor.BaseCommand
}

// NewTitlesJsonToStruct is the constructor for the TitlesJsonToStruct command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key where the resulting titles are also stored.
func NewTitlesJsonToStruct(name string, outputParamName string) *TitlesJsonToStruct {
	out := TitlesJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return &out
}

// ParseTitles decodes a JSON array of recommendation entries.
func ParseTitles(array string) ([]model.Title, error) {
	var entries []model.RecommendationEntry
	if err := json.Unmarshal([]byte(array), &entries); err != nil {
		return nil, rerrors.NewMalformedPayload(fmt.Errorf("failed to unmarshal recommendation JSON: %w", err))
	}
	titles := make([]model.Title, 0, len(entries))
	for i := range entries {
		entries[i].Title = strings.TrimSpace(entries[i].Title)
		if entries[i].Title == "" {
			continue
		}
		titles = append(titles, entries[i].ToTitle())
	}
	return titles, nil
}

// Execute decodes the array and publishes the titles.
func (s *TitlesJsonToStruct) Execute(context cor.Context) {
	in := context.Get(s.GetInputParam()).(string)

	titles, err := ParseTitles(in)
	if err != nil {
		s.Fail(context, err)
		return
	}

	s.Succeed(context)
	context.Add(s.GetOutputParam(), titles)
	context.Add(cor.CtxOut, titles)
}
