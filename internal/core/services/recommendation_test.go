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

package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shakah/recomenda-ia/internal/core/model"
	"github.com/shakah/recomenda-ia/internal/core/services"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
	test "github.com/shakah/recomenda-ia/internal/testutil"
)

// replyWith returns a completion listing n titles named "Filme 1".."Filme n".
func replyWith(n int) string {
	entries := make([]string, n)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{"title": "Filme %d", "year": %d, "description": "d"}`, i+1, 2000+i+1)
	}
	return "Aqui está:\n[" + strings.Join(entries, ",\n") + "]"
}

func foundAll(n int) *test.FakePosterLookup {
	lookup := test.NewFakePosterLookup()
	for i := 1; i <= n; i++ {
		lookup.Found(fmt.Sprintf("Filme %d", i), fmt.Sprint(2000+i), fmt.Sprintf("https://image.tmdb.org/t/p/w500/%d.jpg", i))
	}
	return lookup
}

func newService(t *testing.T, generator services.TextGenerator, lookup services.PosterLookup, cache services.PosterCache) *services.RecommendationService {
	t.Helper()
	svc, err := services.NewRecommendationService(test.NewConfig(), generator, lookup, cache)
	require.NoError(t, err)
	return svc
}

func names(titles []model.Title) []string {
	out := make([]string, len(titles))
	for i, title := range titles {
		out[i] = title.Title
	}
	return out
}

func TestSearch_StreamsBatchesInOrder(t *testing.T) {
	lookup := foundAll(7)
	svc := newService(t, &test.FakeTextGenerator{Reply: replyWith(7)}, lookup, nil)
	rec := &test.Recorder{}

	require.NoError(t, svc.Search(context.Background(), "ficção", rec.Emit, services.WithCount(7)))

	updates := rec.Updates()
	require.Len(t, updates, 4)
	want := []string{"Filme 1", "Filme 2", "Filme 3", "Filme 4", "Filme 5", "Filme 6", "Filme 7"}
	for i, u := range updates {
		assert.Equal(t, i, u.Batch)
		assert.Equal(t, 3, u.Batches)
		assert.Equal(t, want, names(u.Titles))
		assert.False(t, u.Cancelled)
	}

	for _, title := range updates[0].Titles {
		assert.Equal(t, model.PosterLoading, title.Poster)
	}
	// After batch 1 the first three posters are resolved and the rest wait.
	for i, title := range updates[1].Titles {
		assert.Equal(t, i < 3, title.IsResolved(), title.Title)
	}
	last := updates[3]
	assert.True(t, last.Done())
	for i, title := range last.Titles {
		assert.Equal(t, fmt.Sprintf("https://image.tmdb.org/t/p/w500/%d.jpg", i+1), title.Poster)
	}
	assert.LessOrEqual(t, lookup.PeakInFlight(), 3)
}

func TestSearch_FirstUpdateBeforeAnyPoster(t *testing.T) {
	lookup := foundAll(2)
	lookup.Gate = make(chan struct{})
	svc := newService(t, &test.FakeTextGenerator{Reply: replyWith(2)}, lookup, nil)
	rec := &test.Recorder{}

	done := make(chan error, 1)
	go func() { done <- svc.Search(context.Background(), "ficção", rec.Emit) }()

	require.Eventually(t, func() bool { return len(rec.Updates()) == 1 }, time.Second, 5*time.Millisecond)
	first := rec.Updates()[0]
	assert.Equal(t, 0, first.Batch)
	for _, title := range first.Titles {
		assert.Equal(t, model.PosterLoading, title.Poster)
	}

	close(lookup.Gate)
	require.NoError(t, <-done)
	assert.Len(t, rec.Updates(), 2)
}

func TestSearch_BoundsInFlightLookups(t *testing.T) {
	lookup := foundAll(7)
	lookup.Gate = make(chan struct{})
	lookup.Started = make(chan test.LookupCall, 32)
	svc := newService(t, &test.FakeTextGenerator{Reply: replyWith(7)}, lookup, nil)

	done := make(chan error, 1)
	go func() { done <- svc.Search(context.Background(), "ficção", nil, services.WithCount(7)) }()

	for i := 0; i < 3; i++ {
		select {
		case <-lookup.Started:
		case <-time.After(time.Second):
			t.Fatalf("lookup %d never started", i+1)
		}
	}
	select {
	case call := <-lookup.Started:
		t.Fatalf("lookup for %q started before the first batch finished", call.Title)
	case <-time.After(50 * time.Millisecond):
	}

	close(lookup.Gate)
	require.NoError(t, <-done)
	assert.Equal(t, 3, lookup.PeakInFlight())
	assert.Len(t, lookup.Calls(), 7)
}

func TestSearch_PosterOutcomes(t *testing.T) {
	lookup := test.NewFakePosterLookup().
		Failing("Die Hard", "1988").
		Found("Speed", "", "https://image.tmdb.org/t/p/w500/speed.jpg")
	cache := services.NewMemoryPosterCache()
	svc := newService(t, &test.FakeTextGenerator{Reply: test.GetDieHardReply()}, lookup, cache)
	rec := &test.Recorder{}

	require.NoError(t, svc.Search(context.Background(), "ação", rec.Emit))

	updates := rec.Updates()
	require.Len(t, updates, 2)
	final := updates[1].Titles
	assert.Equal(t, model.PosterError, final[0].Poster)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/speed.jpg", final[1].Poster)

	// Speed was retried without the year.
	assert.ElementsMatch(t, []test.LookupCall{
		{Title: "Die Hard", Year: "1988"},
		{Title: "Speed", Year: "1994"},
		{Title: "Speed", Year: ""},
	}, lookup.Calls())

	// Errors are not cached, found posters are.
	_, ok := cache.Get(model.PosterKey("Die Hard", "1988"))
	assert.False(t, ok)
	poster, ok := cache.Get(model.PosterKey("Speed", "1994"))
	assert.True(t, ok)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/speed.jpg", poster)
}

func TestSearch_CacheSkipsLookup(t *testing.T) {
	lookup := test.NewFakePosterLookup().Found("Die Hard", "1988", "https://image.tmdb.org/t/p/w500/diehard.jpg")
	cache := services.NewMemoryPosterCache()
	svc := newService(t, &test.FakeTextGenerator{Reply: test.GetDieHardReply()}, lookup, cache)

	require.NoError(t, svc.Search(context.Background(), "ação", nil))
	assert.Len(t, lookup.Calls(), 3)

	rec := &test.Recorder{}
	require.NoError(t, svc.Search(context.Background(), "ação", rec.Emit))

	// Die Hard comes from the cache; Speed was not found, which is not cached.
	assert.Len(t, lookup.Calls(), 5)
	assert.Equal(t, 1, cache.Len())
	final := rec.Updates()[1].Titles
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/diehard.jpg", final[0].Poster)
	assert.Equal(t, model.PosterNotFound, final[1].Poster)
}

func TestSearch_EmptyPosterPathIsCachedAsNotFound(t *testing.T) {
	lookup := test.NewFakePosterLookup()
	lookup.Answers[model.PosterKey("Die Hard", "1988")] = test.PosterAnswer{Found: true}
	cache := services.NewMemoryPosterCache()
	svc := newService(t, &test.FakeTextGenerator{Reply: test.GetDieHardReply()}, lookup, cache)
	rec := &test.Recorder{}

	require.NoError(t, svc.Search(context.Background(), "ação", rec.Emit))

	assert.Equal(t, model.PosterNotFound, rec.Updates()[1].Titles[0].Poster)
	poster, ok := cache.Get(model.PosterKey("Die Hard", "1988"))
	assert.True(t, ok)
	assert.Equal(t, model.PosterNotFound, poster)
}

func TestSearch_CancelDuringEnrichment(t *testing.T) {
	lookup := foundAll(5)
	lookup.Gate = make(chan struct{})
	lookup.Started = make(chan test.LookupCall, 32)
	svc := newService(t, &test.FakeTextGenerator{Reply: replyWith(5)}, lookup, nil)
	rec := &test.Recorder{}

	done := make(chan error, 1)
	go func() { done <- svc.Search(context.Background(), "ficção", rec.Emit, services.WithCount(5)) }()

	<-lookup.Started
	svc.Cancel()
	require.NoError(t, <-done)

	updates := rec.Updates()
	require.Len(t, updates, 2)
	last := updates[1]
	assert.True(t, last.Cancelled)
	assert.True(t, last.Done())
	assert.Equal(t, 0, last.Batch)
	assert.Equal(t, 2, last.Batches)
	for _, title := range last.Titles {
		assert.Equal(t, model.PosterCancelled, title.Poster)
	}
	// The second batch never started.
	assert.Len(t, lookup.Calls(), 3)
}

func TestSearch_SupersededWhileCompleting(t *testing.T) {
	generator := &test.FakeTextGenerator{Fn: func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "primeira") {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return test.GetDieHardReply(), nil
	}}
	svc := newService(t, generator, test.NewFakePosterLookup(), nil)
	first := &test.Recorder{}

	done := make(chan error, 1)
	go func() { done <- svc.Search(context.Background(), "primeira busca", first.Emit) }()
	require.Eventually(t, func() bool { return len(generator.Prompts()) == 1 }, time.Second, 5*time.Millisecond)

	second := &test.Recorder{}
	require.NoError(t, svc.Search(context.Background(), "segunda busca", second.Emit))

	err := <-done
	assert.True(t, rerrors.Is(err, rerrors.ErrCancelled))
	assert.True(t, rerrors.Ignorable(err))
	assert.Empty(t, first.Updates())
	assert.Len(t, second.Updates(), 2)
}

func TestSearch_CallerContextCancelled(t *testing.T) {
	svc := newService(t, test.BlockingTextGenerator(), test.NewFakePosterLookup(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := svc.Search(ctx, "terror", nil)
	assert.Equal(t, rerrors.ErrCancelled, rerrors.CodeOf(err))
}

func TestSearch_CompletionFailures(t *testing.T) {
	tests := []struct {
		name      string
		generator *test.FakeTextGenerator
		code      rerrors.ErrorCode
		status    int
	}{
		{name: "no array", generator: &test.FakeTextGenerator{Reply: "Desculpe."}, code: rerrors.ErrInvalidResponseFormat, status: 502},
		{name: "malformed", generator: &test.FakeTextGenerator{Reply: `[{"title": "Alien" "year": 1979}]`}, code: rerrors.ErrMalformedPayload, status: 502},
		{name: "timeout", generator: test.BlockingTextGenerator(), code: rerrors.ErrTimeout, status: 504},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := test.NewConfig()
			config.Recommendation.CompletionTimeoutSeconds = 1
			svc, err := services.NewRecommendationService(config, tt.generator, test.NewFakePosterLookup(), nil)
			require.NoError(t, err)
			rec := &test.Recorder{}

			err = svc.Search(context.Background(), "terror", rec.Emit)
			require.Error(t, err)
			assert.Equal(t, tt.code, rerrors.CodeOf(err))
			assert.Equal(t, tt.status, rerrors.StatusOf(err))
			assert.Empty(t, rec.Updates())
		})
	}
}

func TestSearch_CountAndQuery(t *testing.T) {
	generator := &test.FakeTextGenerator{Reply: "[]"}
	svc := newService(t, generator, test.NewFakePosterLookup(), nil)

	require.NoError(t, svc.Search(context.Background(), "   ", nil))
	assert.Empty(t, generator.Prompts())

	require.NoError(t, svc.Search(context.Background(), "drama", nil))
	require.NoError(t, svc.Search(context.Background(), "drama", nil, services.WithCount(50)))
	require.NoError(t, svc.Search(context.Background(), "drama", nil, services.WithCount(-1)))
	require.NoError(t, svc.Search(context.Background(), "drama", nil, services.WithCount(2)))

	prompts := generator.Prompts()
	require.Len(t, prompts, 4)
	assert.Contains(t, prompts[0], "Recomende 8 ")
	assert.Contains(t, prompts[1], "Recomende 12 ")
	assert.Contains(t, prompts[2], "Recomende 8 ")
	assert.Contains(t, prompts[3], "Recomende 2 ")
}

func TestSearch_NoTitles(t *testing.T) {
	svc := newService(t, &test.FakeTextGenerator{Reply: "[]"}, test.NewFakePosterLookup(), nil)
	rec := &test.Recorder{}

	require.NoError(t, svc.Search(context.Background(), "nada", rec.Emit))
	updates := rec.Updates()
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Done())
	assert.Empty(t, updates[0].Titles)
}

func TestEnrichPosters_DoesNotMutateInput(t *testing.T) {
	lookup := test.NewFakePosterLookup().Found("Alien", "1979", "https://image.tmdb.org/t/p/w500/alien.jpg")
	svc := newService(t, &test.FakeTextGenerator{}, lookup, nil)
	in := []model.Title{{ID: "movie-1", Title: "Alien", Year: "1979", Poster: model.PosterLoading}}

	out := svc.EnrichPosters(context.Background(), in, nil)
	assert.Equal(t, model.PosterLoading, in[0].Poster)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/alien.jpg", out[0].Poster)
	assert.Equal(t, 3, svc.Enricher().BatchSize())
}

func TestPosterEnricher_Batches(t *testing.T) {
	enricher := services.NewPosterEnricher(test.NewFakePosterLookup(), nil, 0)
	assert.Equal(t, services.DefaultPosterBatchSize, enricher.BatchSize())
	for n, want := range map[int]int{0: 0, 1: 1, 3: 1, 4: 2, 6: 2, 7: 3, 12: 4} {
		assert.Equal(t, want, enricher.Batches(n), n)
	}
}

func TestPosterEnricher_CancelledBeforeStart(t *testing.T) {
	lookup := test.NewFakePosterLookup()
	enricher := services.NewPosterEnricher(lookup, nil, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &test.Recorder{}

	out := enricher.Enrich(ctx, []model.Title{{Title: "A", Poster: model.PosterLoading}, {Title: "B", Poster: "https://x/b.jpg"}}, rec.Emit)
	assert.Empty(t, lookup.Calls())
	assert.Equal(t, model.PosterCancelled, out[0].Poster)
	assert.Equal(t, "https://x/b.jpg", out[1].Poster)
	require.Len(t, rec.Updates(), 1)
	assert.True(t, rec.Updates()[0].Cancelled)
}

// lookupFunc adapts a function to services.PosterLookup.
type lookupFunc func(ctx context.Context, title string, year string) (string, bool, error)

func (f lookupFunc) Lookup(ctx context.Context, title string, year string) (string, bool, error) {
	return f(ctx, title, year)
}

func TestPosterEnricher_DropsAnswersAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	late := lookupFunc(func(context.Context, string, string) (string, bool, error) {
		cancel()
		return "https://image.tmdb.org/t/p/w500/late.jpg", true, nil
	})
	cache := services.NewMemoryPosterCache()
	enricher := services.NewPosterEnricher(late, cache, 3)
	rec := &test.Recorder{}

	out := enricher.Enrich(ctx, []model.Title{{Title: "Alien", Year: "1979", Poster: model.PosterLoading}}, rec.Emit)

	assert.Equal(t, model.PosterCancelled, out[0].Poster)
	updates := rec.Updates()
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Cancelled)
	assert.Equal(t, model.PosterCancelled, updates[0].Titles[0].Poster)
	assert.Equal(t, 0, cache.Len())
}
