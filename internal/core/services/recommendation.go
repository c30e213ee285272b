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

// Package services. This file implements the recommendation search.
//
// A RecommendationService owns at most one active search. Starting a search
// cancels the previous one, whose caller then receives either a CANCELLED
// error (when it was still waiting on the text model) or a terminal cancelled
// update (when it was already enriching posters).
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/core/model"
	"github.com/shakah/recomenda-ia/internal/core/workflow"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
)

// Defaults applied when the configuration leaves a value unset.
const (
	DefaultTitleCount = 8
	MaxTitleCount     = 12
)

// SearchOption customizes a single search.
type SearchOption func(*model.SearchRequest)

// WithCount requests n titles. Values outside the configured bounds are
// clamped; zero or negative values keep the default.
func WithCount(n int) SearchOption {
	return func(r *model.SearchRequest) {
		if n > 0 {
			r.Count = n
		}
	}
}

// RecommendationService runs searches and their poster enrichment.
type RecommendationService struct {
	workflow     *workflow.RecommendationWorkflow
	enricher     *PosterEnricher
	defaultCount int
	maxCount     int
	logger       *slog.Logger
	tracer       trace.Tracer

	mu     sync.Mutex
	cancel context.CancelFunc
	active uint64
}

// NewRecommendationService wires the recommendation workflow and the poster
// enricher. cache may be nil.
func NewRecommendationService(
	config *cloud.Config,
	generator TextGenerator,
	lookup PosterLookup,
	cache PosterCache) (*RecommendationService, error) {

	wf, err := workflow.NewRecommendationWorkflow(config, generator)
	if err != nil {
		return nil, err
	}

	defaultCount := config.Recommendation.DefaultCount
	if defaultCount <= 0 {
		defaultCount = DefaultTitleCount
	}
	maxCount := config.Recommendation.MaxCount
	if maxCount <= 0 {
		maxCount = MaxTitleCount
	}

	return &RecommendationService{
		workflow:     wf,
		enricher:     NewPosterEnricher(lookup, cache, config.Recommendation.PosterBatchSize),
		defaultCount: defaultCount,
		maxCount:     maxCount,
		logger:       slog.Default().With("component", "recommendation-service"),
		tracer:       otel.Tracer("recommendation-service"),
	}, nil
}

// Enricher exposes the poster enricher so it can be driven on its own.
func (s *RecommendationService) Enricher() *PosterEnricher {
	return s.enricher
}

// Search runs one recommendation search and streams its updates to emit.
//
// An empty query is ignored: nothing is requested, nothing is emitted and nil
// is returned. Otherwise any search still running on this service is
// cancelled first. The first update carries the parsed titles with the
// loading placeholder; one update follows per completed poster batch. Errors
// of the completion stage are returned as *errors.RecError and nothing is
// emitted for them.
func (s *RecommendationService) Search(ctx context.Context, query string, emit func(model.Update), opts ...SearchOption) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if emit == nil {
		emit = func(model.Update) {}
	}

	req := &model.SearchRequest{Query: query, Count: s.defaultCount}
	for _, opt := range opts {
		opt(req)
	}
	req.Count = max(1, min(req.Count, s.maxCount))

	runCtx, release := s.begin(ctx)
	defer release()

	runCtx, span := s.tracer.Start(runCtx, "recommendation_search")
	defer span.End()
	span.SetAttributes(attribute.Int("count", req.Count))

	titles, err := s.workflow.Run(runCtx, req)
	if err != nil {
		err = classify(runCtx, err)
		span.SetStatus(codes.Error, string(rerrors.CodeOf(err)))
		if rerrors.Ignorable(err) {
			s.logger.DebugContext(ctx, "search cancelled before completion", "query", query)
		} else {
			s.logger.ErrorContext(ctx, "search failed", "query", query, "error", err)
		}
		return err
	}
	if runCtx.Err() != nil {
		span.SetStatus(codes.Error, string(rerrors.ErrCancelled))
		return rerrors.NewCancelled(runCtx.Err())
	}

	batches := s.enricher.Batches(len(titles))
	emit(model.Update{Titles: model.CloneTitles(titles), Batch: 0, Batches: batches})

	s.enricher.Enrich(runCtx, titles, emit)
	span.SetStatus(codes.Ok, "search completed")
	return nil
}

// Cancel cancels the active search, if any.
func (s *RecommendationService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// EnrichPosters resolves posters for titles without running a search.
func (s *RecommendationService) EnrichPosters(ctx context.Context, titles []model.Title, emit func(model.Update)) []model.Title {
	return s.enricher.Enrich(ctx, titles, emit)
}

// begin supersedes the active search and registers a new one. The returned
// release function unregisters it and releases its context.
func (s *RecommendationService) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.active++
	id := s.active
	s.cancel = cancel

	return runCtx, func() {
		s.mu.Lock()
		if s.active == id {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
}

// classify maps chain errors to the failure taxonomy. A raw context error
// means the chain stopped between commands because the search was cancelled.
func classify(ctx context.Context, err error) error {
	var recErr *rerrors.RecError
	if errors.As(err, &recErr) {
		return err
	}
	if ctx.Err() != nil {
		return rerrors.NewCancelled(err)
	}
	return rerrors.NewInternal(err)
}
