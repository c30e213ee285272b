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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the structs that only live in memory
// while a search runs. They are never written to the saved-list store in
// this form.
package model

// SearchRequest is the input of one recommendation search.
type SearchRequest struct {
	Query string // Free-text preference typed by the user.
	Count int    // Number of titles to request.
}

// RecommendationEntry is one element of the JSON array returned by the text
// model, before it is assigned an id and a poster placeholder.
type RecommendationEntry struct {
	Title       string      `json:"title"`
	Year        FlexString  `json:"year"`
	Description string      `json:"description"`
	Genre       LooseString `json:"genre,omitempty"`
	Director    LooseString `json:"director,omitempty"`
	Type        LooseString `json:"type,omitempty"`
}

// ToTitle converts the entry into a Title with a fresh id and the loading
// poster placeholder.
func (e *RecommendationEntry) ToTitle() Title {
	return Title{
		ID:          NewTitleID(),
		Title:       e.Title,
		Year:        e.Year,
		Description: e.Description,
		Genre:       e.Genre.String(),
		Director:    e.Director.String(),
		Kind:        NormalizeKind(e.Type.String()),
		Poster:      PosterLoading,
	}
}

// Update is one value of a search result stream. Batch is 0 for the first
// emission (no poster resolved yet) and n for the list emitted after the n-th
// poster batch. Cancelled marks the terminal emission of a cancelled run.
type Update struct {
	Titles    []Title `json:"titles"`
	Batch     int     `json:"batch"`
	Batches   int     `json:"batches"`
	Cancelled bool    `json:"cancelled,omitempty"`
}

// Done reports whether u is the last update of its run.
func (u Update) Done() bool {
	return u.Cancelled || (u.Batch == u.Batches)
}
