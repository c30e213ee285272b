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

// Package tmdb implements the poster lookup against The Movie Database
// (TMDB) v3 search API.
//
// Requests go through a client-side rate limiter and a circuit breaker. The
// breaker opens after repeated transport failures or server errors so a TMDB
// outage turns into fast poster errors instead of a queue of slow requests.
// Cancelled lookups never count as failures.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/httpx"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultLanguage     = "pt-BR"
	searchPath          = "/search/movie"
	maxErrorBody        = 512
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("tmdb: unexpected status")

// Result is the subset of a TMDB search result the application uses.
type Result struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
}

type searchResponse struct {
	Page    int      `json:"page"`
	Results []Result `json:"results"`
}

// Client searches TMDB for movies.
type Client struct {
	http         *http.Client
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	limiter      *rate.Limiter
	cb           *gobreaker.CircuitBreaker[*searchResponse]
	logger       *slog.Logger
}

// NewClient creates a client from the TMDB configuration. A nil httpClient
// selects the shared retrying client.
func NewClient(config cloud.TMDB, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpx.NewClient(time.Duration(config.TimeoutSeconds) * time.Second)
	}
	c := &Client{
		http:         httpClient,
		apiKey:       config.APIKey,
		baseURL:      strings.TrimRight(orDefault(config.BaseURL, DefaultBaseURL), "/"),
		imageBaseURL: strings.TrimRight(orDefault(config.ImageBaseURL, DefaultImageBaseURL), "/"),
		language:     orDefault(config.Language, DefaultLanguage),
		logger:       slog.Default().With("component", "tmdb"),
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), rps)

	c.cb = gobreaker.NewCircuitBreaker[*searchResponse](gobreaker.Settings{
		Name:        "tmdb-search",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Lookup searches for title, filtered by year when year is not empty. found
// is false when TMDB returned no result. posterURL is empty when the first
// result has no poster art.
func (c *Client) Lookup(ctx context.Context, title string, year string) (posterURL string, found bool, err error) {
	resp, err := c.Search(ctx, title, year)
	if err != nil {
		return "", false, err
	}
	if len(resp) == 0 {
		return "", false, nil
	}
	return c.PosterURL(resp[0].PosterPath), true, nil
}

// PosterURL joins a poster path with the image base URL. An empty path
// yields an empty URL.
func (c *Client) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}

// Search returns the first page of results for title.
func (c *Client) Search(ctx context.Context, title string, year string) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.cb.Execute(func() (*searchResponse, error) {
		return c.search(ctx, title, year)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.WarnContext(ctx, "request rejected by circuit breaker", "title", title)
		}
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) search(ctx context.Context, title string, year string) (*searchResponse, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	if year != "" {
		q.Set("year", year)
	}
	q.Set("include_adult", "false")
	q.Set("language", c.language)
	q.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tmdb: decode search response: %w", err)
	}
	return &out, nil
}
