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

// Package services. This file implements poster enrichment.
//
// Logic Flow:
//
//  1. The titles are split into fixed-size batches.
//  2. Each title of a batch is resolved on its own goroutine; the batch is
//     complete only when every goroutine has reported on the `results`
//     channel. Batch N+1 never starts before batch N completes, which bounds
//     the number of in-flight lookups by the batch size.
//  3. Results carry the index of their title and are applied by index, so
//     every emission keeps the original order.
//  4. After each batch the full list is emitted as a copy.
//  5. When the context is cancelled, lookups that finished before the signal
//     keep their result. Every other title, including one whose lookup
//     answers after the signal, gets the cancelled placeholder and one
//     terminal cancelled update is emitted.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/shakah/recomenda-ia/internal/core/cor"
	"github.com/shakah/recomenda-ia/internal/core/model"
)

// DefaultPosterBatchSize is used when no positive batch size is configured.
const DefaultPosterBatchSize = 3

// PosterEnricher resolves posters for a list of titles in batches.
type PosterEnricher struct {
	lookup    PosterLookup
	cache     PosterCache
	batchSize int
	logger    *slog.Logger
	tracer    trace.Tracer

	lookupCounter   metric.Int64Counter
	cacheHitCounter metric.Int64Counter
	errorCounter    metric.Int64Counter
	notFoundCounter metric.Int64Counter
}

// NewPosterEnricher creates an enricher. A nil cache disables caching.
func NewPosterEnricher(lookup PosterLookup, cache PosterCache, batchSize int) *PosterEnricher {
	if batchSize <= 0 {
		batchSize = DefaultPosterBatchSize
	}
	if cache == nil {
		cache = noCache{}
	}
	meter := otel.Meter(cor.MeterName)
	out := &PosterEnricher{
		lookup:    lookup,
		cache:     cache,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "poster-enricher"),
		tracer:    otel.Tracer("poster-enricher"),
	}
	out.lookupCounter, _ = meter.Int64Counter("posters.lookup")
	out.cacheHitCounter, _ = meter.Int64Counter("posters.cache.hit")
	out.errorCounter, _ = meter.Int64Counter("posters.lookup.error")
	out.notFoundCounter, _ = meter.Int64Counter("posters.lookup.not_found")
	return out
}

// BatchSize returns the number of lookups run concurrently.
func (e *PosterEnricher) BatchSize() int {
	return e.batchSize
}

// Batches returns the number of batches needed for n titles.
func (e *PosterEnricher) Batches(n int) int {
	return (n + e.batchSize - 1) / e.batchSize
}

// posterResult is sent back by a lookup goroutine.
type posterResult struct {
	index  int
	poster string
}

// Enrich resolves the poster of every title and returns the final list. The
// input slice is never modified. emit may be nil.
func (e *PosterEnricher) Enrich(ctx context.Context, titles []model.Title, emit func(model.Update)) []model.Title {
	if emit == nil {
		emit = func(model.Update) {}
	}
	working := model.CloneTitles(titles)
	batches := e.Batches(len(working))

	for b := 0; b < batches; b++ {
		start := b * e.batchSize
		end := min(start+e.batchSize, len(working))

		if ctx.Err() != nil {
			return e.cancelRemaining(working, b, batches, emit)
		}

		e.runBatch(ctx, working, start, end, b+1)

		if ctx.Err() != nil {
			return e.cancelRemaining(working, b, batches, emit)
		}
		emit(model.Update{Titles: model.CloneTitles(working), Batch: b + 1, Batches: batches})
	}
	return working
}

// runBatch resolves working[start:end] concurrently and applies the results.
func (e *PosterEnricher) runBatch(ctx context.Context, working []model.Title, start int, end int, batch int) {
	batchCtx, span := e.tracer.Start(ctx, fmt.Sprintf("poster_batch_%d", batch))
	defer span.End()
	span.SetAttributes(attribute.Int("batch", batch), attribute.Int("size", end-start))

	var wg sync.WaitGroup
	results := make(chan posterResult, end-start)

	for i := start; i < end; i++ {
		wg.Add(1)
		go func(index int, title model.Title) {
			defer wg.Done()
			results <- posterResult{index: index, poster: e.resolve(batchCtx, title)}
		}(i, working[i])
	}

	wg.Wait()
	close(results)

	for r := range results {
		working[r.index].Poster = r.poster
	}

	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "batch cancelled")
	} else {
		span.SetStatus(codes.Ok, "batch completed")
	}
}

// cancelRemaining marks every unresolved title as cancelled and emits the
// terminal update. completed is the number of batches fully emitted.
func (e *PosterEnricher) cancelRemaining(working []model.Title, completed int, batches int, emit func(model.Update)) []model.Title {
	cancelled := 0
	for i := range working {
		if !working[i].IsResolved() {
			working[i].Poster = model.PosterCancelled
			cancelled++
		}
	}
	e.logger.Debug("poster enrichment cancelled", "completed_batches", completed, "cancelled_titles", cancelled)
	emit(model.Update{Titles: model.CloneTitles(working), Batch: completed, Batches: batches, Cancelled: true})
	return working
}

// resolve returns the poster for one title. It never fails: errors degrade
// to placeholder values.
func (e *PosterEnricher) resolve(ctx context.Context, title model.Title) string {
	year := title.Year.String()
	key := model.PosterKey(title.Title, year)

	if poster, ok := e.cache.Get(key); ok {
		e.cacheHitCounter.Add(ctx, 1)
		return poster
	}

	e.lookupCounter.Add(ctx, 1)
	url, found, err := e.lookup.Lookup(ctx, title.Title, year)
	if err == nil && !found && year != "" {
		e.lookupCounter.Add(ctx, 1)
		url, found, err = e.lookup.Lookup(ctx, title.Title, "")
	}

	// An answer that arrives after cancellation is dropped, found or not.
	if ctx.Err() != nil {
		return model.PosterCancelled
	}

	switch {
	case err != nil:
		e.errorCounter.Add(ctx, 1)
		e.logger.WarnContext(ctx, "poster lookup failed", "title", title.Title, "year", year, "error", err)
		return model.PosterError
	case !found:
		e.notFoundCounter.Add(ctx, 1)
		return model.PosterNotFound
	case url == "":
		e.notFoundCounter.Add(ctx, 1)
		e.cache.Put(key, model.PosterNotFound)
		return model.PosterNotFound
	default:
		e.cache.Put(key, url)
		return url
	}
}

type noCache struct{}

func (noCache) Get(string) (string, bool) { return "", false }
func (noCache) Put(string, string)        {}
