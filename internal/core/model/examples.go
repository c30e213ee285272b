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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides the hardcoded example reply used for few-shot
// prompting: the text model is shown the exact JSON shape it must return.
package model

// GetExampleRecommendations returns the sample reply injected into the
// recommendation prompt.
func GetExampleRecommendations() []*RecommendationEntry {
	return []*RecommendationEntry{
		{
			Title:       "Nome do Filme",
			Year:        "Ano",
			Description: "Breve descrição",
			Genre:       "Gênero",
			Type:        KindMovie,
		},
	}
}
