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

package model

import "time"

// Legacy list constants. A legacy record is lifted into exactly one list
// carrying these values.
const (
	LegacyListID    = "list-legacy"
	LegacyListTitle = "Lista anterior"
)

// SavedList is a persisted, named, timestamped snapshot of the titles
// produced by one search. Movies keeps recommendation order and is never
// mutated after the list is saved.
type SavedList struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Title  string    `json:"title"`
	Movies []Title   `json:"movies"`
	Legacy bool      `json:"legacy,omitempty"`
}

// NewLegacyList wraps a bare legacy title sequence into the synthetic list.
func NewLegacyList(movies []Title, now time.Time) SavedList {
	return SavedList{
		ID:     LegacyListID,
		Date:   now.UTC(),
		Title:  LegacyListTitle,
		Movies: movies,
		Legacy: true,
	}
}
