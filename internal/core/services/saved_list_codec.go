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

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/shakah/recomenda-ia/internal/core/model"
)

// errMixedShape reports a stored array that is neither all lists nor all
// titles.
var errMixedShape = errors.New("stored collection mixes saved lists and bare titles")

// storedShape is the layout of the value found under the saved-list key.
type storedShape int

const (
	shapeEmpty storedShape = iota
	shapeCurrent
	shapeLegacy
)

// storedListDateLayouts are tried in order on a stored date. Lists written by
// older clients carry a display date rather than a timestamp.
var storedListDateLayouts = []string{time.RFC3339Nano, "02/01/2006", "2006-01-02"}

// storedList is the decode side of model.SavedList. The date is read as text
// so a list whose date does not parse is kept with a zero date instead of
// making the whole collection unreadable.
type storedList struct {
	ID     string           `json:"id"`
	Date   model.FlexString `json:"date"`
	Title  string           `json:"title"`
	Movies []model.Title    `json:"movies"`
	Legacy bool             `json:"legacy,omitempty"`
}

func (l storedList) toSavedList() model.SavedList {
	out := model.SavedList{
		ID:     l.ID,
		Title:  l.Title,
		Movies: l.Movies,
		Legacy: l.Legacy,
	}
	if out.Movies == nil {
		out.Movies = []model.Title{}
	}
	for _, layout := range storedListDateLayouts {
		if t, err := time.Parse(layout, l.Date.String()); err == nil {
			out.Date = t.UTC()
			break
		}
	}
	return out
}

// decodeCollection decodes a stored value into saved lists. A legacy value
// (a bare array of titles) is lifted into one synthetic list dated now.
//
// The shape is decided explicitly: every element carrying a "movies" field
// means the current shape; every element carrying a "title" field and no
// "movies" field means the legacy shape. Anything else is an error.
func decodeCollection(raw string, now time.Time) ([]model.SavedList, storedShape, error) {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, shapeEmpty, fmt.Errorf("decode saved lists: %w", err)
	}
	if len(probe) == 0 {
		return []model.SavedList{}, shapeEmpty, nil
	}

	current, legacy := 0, 0
	for _, element := range probe {
		_, hasMovies := element["movies"]
		_, hasTitle := element["title"]
		switch {
		case hasMovies:
			current++
		case hasTitle:
			legacy++
		}
	}

	switch {
	case current == len(probe):
		var stored []storedList
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return nil, shapeEmpty, fmt.Errorf("decode saved lists: %w", err)
		}
		lists := make([]model.SavedList, len(stored))
		for i, list := range stored {
			lists[i] = list.toSavedList()
		}
		return lists, shapeCurrent, nil
	case legacy == len(probe):
		var titles []model.Title
		if err := json.Unmarshal([]byte(raw), &titles); err != nil {
			return nil, shapeEmpty, fmt.Errorf("decode legacy titles: %w", err)
		}
		return []model.SavedList{model.NewLegacyList(titles, now)}, shapeLegacy, nil
	default:
		return nil, shapeEmpty, errMixedShape
	}
}

// encodeCollection encodes saved lists in the current shape.
func encodeCollection(lists []model.SavedList) (string, error) {
	if lists == nil {
		lists = []model.SavedList{}
	}
	data, err := json.Marshal(lists)
	if err != nil {
		return "", fmt.Errorf("encode saved lists: %w", err)
	}
	return string(data), nil
}
