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
// This file, `title.go`, holds the Title recommendation produced by a search
// run together with the reserved poster values used while a poster is being
// resolved or when it could not be resolved.
package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Poster sentinels. They are render-ready placeholder images so a client can
// display them directly, but they never point at real poster art.
const (
	PosterLoading   = "https://via.placeholder.com/150x225?text=Carregando"
	PosterNotFound  = "https://via.placeholder.com/150x225?text=Sem+Imagem"
	PosterError     = "https://via.placeholder.com/150x225?text=Erro"
	PosterCancelled = "https://via.placeholder.com/150x225?text=Cancelado"
)

// Media kinds reported by the text model. Best effort only.
const (
	KindMovie  = "movie"
	KindSeries = "series"
)

// Title is one candidate recommendation (movie or series).
type Title struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Year        FlexString `json:"year"`
	Description string     `json:"description"`
	Genre       string     `json:"genre,omitempty"`
	Director    string     `json:"director,omitempty"`
	Kind        string     `json:"type,omitempty"`
	Poster      string     `json:"poster,omitempty"`
}

// NewTitleID returns a locally unique title identifier.
func NewTitleID() string {
	return "movie-" + uuid.NewString()
}

// PosterKey is the cache key for a (title, year) pair.
func PosterKey(title string, year string) string {
	return title + "-" + year
}

// IsSentinel reports whether poster is one of the reserved poster values.
func IsSentinel(poster string) bool {
	switch poster {
	case PosterLoading, PosterNotFound, PosterError, PosterCancelled:
		return true
	}
	return false
}

// IsResolved reports whether the poster lookup for t has finished, whatever
// its outcome was.
func (t Title) IsResolved() bool {
	return t.Poster != "" && t.Poster != PosterLoading
}

// NormalizeKind maps the free-form type string returned by the model onto
// KindMovie or KindSeries. Unknown values yield an empty string.
func NormalizeKind(in string) string {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "movie", "film", "filme":
		return KindMovie
	case "series", "serie", "série", "tv", "show", "tv show":
		return KindSeries
	}
	return ""
}

// CloneTitles returns a copy of in that shares no backing array with it.
func CloneTitles(in []Title) []Title {
	if in == nil {
		return nil
	}
	out := make([]Title, len(in))
	copy(out, in)
	return out
}

// FlexString is a string that also accepts JSON numbers on decode. Text
// models are asked for the year as a string but regularly answer with a
// number.
type FlexString string

// String returns the underlying string.
func (f FlexString) String() string {
	return string(f)
}

// UnmarshalJSON accepts a JSON string, number or null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if len(data) == 0 || !(data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) || !json.Valid(data) {
		return fmt.Errorf("flex string: unexpected JSON value %s", data)
	}
	*f = FlexString(data)
	return nil
}

// LooseString decodes any JSON value into best-effort text. Arrays are joined
// with ", ", objects and null become empty. It is used for the optional
// fields of a model reply, whose types are not under our control.
type LooseString string

// String returns the underlying string.
func (l LooseString) String() string {
	return string(l)
}

// UnmarshalJSON never fails on well-formed JSON.
func (l *LooseString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = LooseString(looseText(v))
	return nil
}

func looseText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := looseText(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
