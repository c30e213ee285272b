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

// Package trailer finds a trailer video for a title by scraping the YouTube
// results page.
//
// The first video id found on the page wins. Anchors are inspected first; the
// results page usually renders its list from embedded script data, so the
// raw body is then searched for a watch link. When no id is found the
// results page itself is returned so the caller can still show something.
package trailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/httpx"
)

const (
	DefaultSearchURL   = "https://www.youtube.com/results"
	DefaultEmbedURL    = "https://www.youtube.com/embed/"
	DefaultQuerySuffix = "trailer oficial"
	maxPageSize        = 8 << 20
)

var watchPattern = regexp.MustCompile(`/watch\?v=([a-zA-Z0-9_-]{11})`)

// Trailer is the outcome of a search. Embedded is false when URL points at
// the results page rather than at a video.
type Trailer struct {
	Query    string `json:"query"`
	URL      string `json:"url"`
	VideoID  string `json:"video_id,omitempty"`
	Embedded bool   `json:"embedded"`
}

// Finder searches trailers.
type Finder struct {
	http        *http.Client
	searchURL   string
	embedURL    string
	querySuffix string
	logger      *slog.Logger
}

// NewFinder creates a Finder from the trailer configuration. A nil
// httpClient selects the shared retrying client.
func NewFinder(config cloud.Trailer, httpClient *http.Client) *Finder {
	if httpClient == nil {
		httpClient = httpx.NewClient(time.Duration(config.TimeoutSeconds) * time.Second)
	}
	f := &Finder{
		http:        httpClient,
		searchURL:   config.SearchURL,
		embedURL:    config.EmbedURL,
		querySuffix: config.QuerySuffix,
		logger:      slog.Default().With("component", "trailer"),
	}
	if f.searchURL == "" {
		f.searchURL = DefaultSearchURL
	}
	if f.embedURL == "" {
		f.embedURL = DefaultEmbedURL
	}
	if f.querySuffix == "" {
		f.querySuffix = DefaultQuerySuffix
	}
	return f
}

// Query returns the search text for a title.
func (f *Finder) Query(title string, year string) string {
	parts := []string{strings.TrimSpace(title)}
	if y := strings.TrimSpace(year); y != "" {
		parts = append(parts, y)
	}
	parts = append(parts, f.querySuffix)
	return strings.Join(parts, " ")
}

// ResultsURL returns the results page URL for query.
func (f *Finder) ResultsURL(query string) string {
	return f.searchURL + "?" + url.Values{"search_query": {query}}.Encode()
}

// Find searches the trailer of title. Transport failures and non-2xx
// responses are returned as errors.
func (f *Finder) Find(ctx context.Context, title string, year string) (Trailer, error) {
	query := f.Query(title, year)
	resultsURL := f.ResultsURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultsURL, nil)
	if err != nil {
		return Trailer{}, err
	}
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

	res, err := f.http.Do(req)
	if err != nil {
		return Trailer{}, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Trailer{}, fmt.Errorf("trailer search: unexpected status %d", res.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(res.Body, maxPageSize))
	if err != nil {
		return Trailer{}, err
	}

	id := ExtractVideoID(page)
	if id == "" {
		f.logger.DebugContext(ctx, "no video found, falling back to results page", "query", query)
		return Trailer{Query: query, URL: resultsURL}, nil
	}
	return Trailer{Query: query, URL: f.embedURL + id, VideoID: id, Embedded: true}, nil
}

// ExtractVideoID returns the first video id linked from page, or an empty
// string.
func ExtractVideoID(page []byte) string {
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page)); err == nil {
		var id string
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if m := watchPattern.FindStringSubmatch(href); m != nil {
				id = m[1]
				return false
			}
			return true
		})
		if id != "" {
			return id
		}
	}
	if m := watchPattern.FindSubmatch(page); m != nil {
		return string(m[1])
	}
	return ""
}
