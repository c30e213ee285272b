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

package trailer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zeebo/assert"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/trailer"
)

func newFinder(t *testing.T, status int, page string) (*trailer.Finder, *string) {
	t.Helper()
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("search_query")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	f := trailer.NewFinder(cloud.Trailer{
		SearchURL:   srv.URL + "/results",
		EmbedURL:    "https://www.youtube.com/embed/",
		QuerySuffix: "trailer oficial",
	}, srv.Client())
	return f, &query
}

func TestFind_EmbedsFirstVideo(t *testing.T) {
	page := `<html><body><a href="/channel/x">canal</a><a href="/watch?v=jaJuwKCmJbY&t=1">Die Hard</a><a href="/watch?v=AAAAAAAAAAA">outro</a></body></html>`
	f, query := newFinder(t, http.StatusOK, page)

	got, err := f.Find(context.Background(), "Die Hard", "1988")
	assert.NoError(t, err)
	assert.Equal(t, "Die Hard 1988 trailer oficial", *query)
	assert.True(t, got.Embedded)
	assert.Equal(t, "jaJuwKCmJbY", got.VideoID)
	assert.Equal(t, "https://www.youtube.com/embed/jaJuwKCmJbY", got.URL)
}

func TestFind_ScriptDataFallback(t *testing.T) {
	page := `<html><script>var ytInitialData = {"url":"/watch?v=8Xv2d-5B_1Q"};</script></html>`
	f, _ := newFinder(t, http.StatusOK, page)

	got, err := f.Find(context.Background(), "Speed", "1994")
	assert.NoError(t, err)
	assert.Equal(t, "8Xv2d-5B_1Q", got.VideoID)
}

func TestFind_NoVideoReturnsResultsPage(t *testing.T) {
	f, _ := newFinder(t, http.StatusOK, `<html><body>nada</body></html>`)

	got, err := f.Find(context.Background(), "Obscuro", "")
	assert.NoError(t, err)
	assert.False(t, got.Embedded)
	assert.Equal(t, "Obscuro trailer oficial", got.Query)
	assert.Equal(t, f.ResultsURL("Obscuro trailer oficial"), got.URL)
}

func TestFind_Non2xxIsError(t *testing.T) {
	f, _ := newFinder(t, http.StatusTooManyRequests, ``)

	_, err := f.Find(context.Background(), "Die Hard", "1988")
	assert.Error(t, err)
}

func TestExtractVideoID_ShortIDIgnored(t *testing.T) {
	assert.Equal(t, "", trailer.ExtractVideoID([]byte(`<a href="/watch?v=short">x</a>`)))
}
