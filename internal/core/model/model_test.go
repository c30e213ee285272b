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

package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shakah/recomenda-ia/internal/core/model"
)

func TestFlexString(t *testing.T) {
	var out struct {
		A model.FlexString `json:"a"`
		B model.FlexString `json:"b"`
		C model.FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1999","b":2001,"c":null}`), &out))
	assert.Equal(t, model.FlexString("1999"), out.A)
	assert.Equal(t, "2001", out.B.String())
	assert.Equal(t, model.FlexString(""), out.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &out))

	data, err := json.Marshal(model.Title{Year: "1988"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"year":"1988"`)
}

func TestLooseString(t *testing.T) {
	var entry model.RecommendationEntry
	require.NoError(t, json.Unmarshal([]byte(
		`{"title":"Dark","genre":["Drama", 1, true, {"x":1}],"director":{"name":"x"},"type":" serie "}`), &entry))
	assert.Equal(t, model.LooseString("Drama, 1, true"), entry.Genre)
	assert.Equal(t, "", entry.Director.String())
	assert.Equal(t, model.KindSeries, entry.ToTitle().Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"genre":[1,}`), &entry))
}

func TestNormalizeKind(t *testing.T) {
	for in, want := range map[string]string{
		"movie":    model.KindMovie,
		" Filme ":  model.KindMovie,
		"série":    model.KindSeries,
		"TV Show":  model.KindSeries,
		"":         "",
		"document": "",
	} {
		assert.Equal(t, want, model.NormalizeKind(in), in)
	}
}

func TestPosterSentinels(t *testing.T) {
	for _, p := range []string{model.PosterLoading, model.PosterNotFound, model.PosterError, model.PosterCancelled} {
		assert.True(t, model.IsSentinel(p), p)
	}
	assert.False(t, model.IsSentinel("https://image.tmdb.org/t/p/w500/x.jpg"))

	assert.False(t, model.Title{}.IsResolved())
	assert.False(t, model.Title{Poster: model.PosterLoading}.IsResolved())
	assert.True(t, model.Title{Poster: model.PosterError}.IsResolved())
	assert.True(t, model.Title{Poster: "https://image.tmdb.org/t/p/w500/x.jpg"}.IsResolved())

	assert.Equal(t, "Alien-1979", model.PosterKey("Alien", "1979"))
}

func TestCloneTitles(t *testing.T) {
	assert.Nil(t, model.CloneTitles(nil))

	in := []model.Title{{Title: "Alien"}}
	out := model.CloneTitles(in)
	out[0].Title = "Aliens"
	assert.Equal(t, "Alien", in[0].Title)
}

func TestRecommendationEntry_ToTitle(t *testing.T) {
	entry := &model.RecommendationEntry{Title: "Dark", Year: "2017", Type: "série", Director: "Baran bo Odar"}
	a, b := entry.ToTitle(), entry.ToTitle()

	assert.Equal(t, model.KindSeries, a.Kind)
	assert.Equal(t, model.PosterLoading, a.Poster)
	assert.Equal(t, "Baran bo Odar", a.Director)
	assert.True(t, strings.HasPrefix(a.ID, "movie-"))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpdate_Done(t *testing.T) {
	assert.False(t, model.Update{Batch: 0, Batches: 2}.Done())
	assert.False(t, model.Update{Batch: 1, Batches: 2}.Done())
	assert.True(t, model.Update{Batch: 2, Batches: 2}.Done())
	assert.True(t, model.Update{Batch: 0, Batches: 0}.Done())
	assert.True(t, model.Update{Batch: 1, Batches: 3, Cancelled: true}.Done())
}

func TestNewLegacyList(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	list := model.NewLegacyList([]model.Title{{Title: "Alien"}}, now)

	assert.Equal(t, model.LegacyListID, list.ID)
	assert.Equal(t, model.LegacyListTitle, list.Title)
	assert.True(t, list.Legacy)
	assert.Equal(t, time.UTC, list.Date.Location())
	assert.True(t, now.Equal(list.Date))
	assert.Len(t, list.Movies, 1)
}

func TestGetExampleRecommendations(t *testing.T) {
	examples := model.GetExampleRecommendations()
	require.Len(t, examples, 1)
	assert.Equal(t, "Nome do Filme", examples[0].Title)
}
