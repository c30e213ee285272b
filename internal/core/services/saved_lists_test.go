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
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/core/model"
	"github.com/shakah/recomenda-ia/internal/core/services"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
	"github.com/shakah/recomenda-ia/internal/storage"
	test "github.com/shakah/recomenda-ia/internal/testutil"
)

var savedAt = time.Date(2024, 3, 5, 21, 30, 0, 0, time.UTC)

func newLists(store storage.KeyValueStore) *services.SavedListService {
	return services.NewSavedListService(store, test.NewConfig().SavedLists).
		WithClock(func() time.Time { return savedAt })
}

func sampleTitles() []model.Title {
	return []model.Title{
		{ID: "movie-1", Title: "Alien", Year: "1979", Poster: "https://image.tmdb.org/t/p/w500/alien.jpg"},
		{ID: "movie-2", Title: "Aliens", Year: "1986", Poster: model.PosterNotFound},
	}
}

func TestSavedLists_SaveAndListAll(t *testing.T) {
	ctx := context.Background()
	lists := newLists(storage.NewMemoryStore())

	empty, err := lists.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := lists.Save(ctx, sampleTitles(), "Terror no espaço")
	require.NoError(t, err)
	second, err := lists.Save(ctx, sampleTitles()[:1], "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.ID, "list-"))
	assert.Equal(t, strings.ToLower(first.ID), first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Terror no espaço", first.Title)
	assert.Equal(t, "Recomendações 05/03/2024", second.Title)
	assert.True(t, savedAt.Equal(first.Date))

	all, err := lists.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, sampleTitles(), all[0].Movies)
}

func TestSavedLists_SaveCopiesTitles(t *testing.T) {
	ctx := context.Background()
	lists := newLists(storage.NewMemoryStore())
	titles := sampleTitles()

	saved, err := lists.Save(ctx, titles, "x")
	require.NoError(t, err)
	titles[0].Title = "mudou"

	found, err := lists.Find(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alien", found.Movies[0].Title)

	empty, err := lists.Save(ctx, nil, "vazia")
	require.NoError(t, err)
	assert.NotNil(t, empty.Movies)
}

func TestSavedLists_StoredShape(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	lists := newLists(store)

	_, err := lists.Save(ctx, sampleTitles(), "x")
	require.NoError(t, err)

	raw, ok, err := store.Get(ctx, services.DefaultSavedListsKey)
	require.NoError(t, err)
	require.True(t, ok)

	var stored []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 1)
	for _, field := range []string{"id", "date", "title", "movies"} {
		assert.Contains(t, stored[0], field)
	}
}

func TestSavedLists_Delete(t *testing.T) {
	ctx := context.Background()
	lists := newLists(storage.NewMemoryStore())
	a, err := lists.Save(ctx, sampleTitles(), "a")
	require.NoError(t, err)
	b, err := lists.Save(ctx, sampleTitles(), "b")
	require.NoError(t, err)

	remaining, err := lists.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)

	again, err := lists.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, remaining, again)

	_, err = lists.Find(ctx, a.ID)
	assert.True(t, rerrors.Is(err, rerrors.ErrNotFound))
	assert.Equal(t, 404, rerrors.StatusOf(err))
}

func TestSavedLists_LegacyValue(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, services.DefaultSavedListsKey, test.GetLegacyValue()))
	lists := newLists(store)

	all, err := lists.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.LegacyListID, all[0].ID)
	assert.Equal(t, model.LegacyListTitle, all[0].Title)
	assert.True(t, all[0].Legacy)
	assert.True(t, savedAt.Equal(all[0].Date))
	assert.Equal(t, []string{"Alien", "Aliens"}, names(all[0].Movies))

	// Reading leaves the store untouched.
	raw, _, err := store.Get(ctx, services.DefaultSavedListsKey)
	require.NoError(t, err)
	assert.Equal(t, test.GetLegacyValue(), raw)

	// The next write upgrades it.
	saved, err := lists.Save(ctx, sampleTitles(), "nova")
	require.NoError(t, err)
	all, err = lists.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.LegacyListID, all[0].ID)
	assert.Equal(t, saved.ID, all[1].ID)

	raw, _, err = store.Get(ctx, services.DefaultSavedListsKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"movies"`)
}

func TestSavedLists_UnreadableValueIsNeverOverwritten(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{
		"{not json",
		`{"id":"list-1"}`,
		`[{"id":"list-1","movies":[]},{"id":"movie-1","title":"Alien"}]`,
		`[1, 2]`,
	} {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, services.DefaultSavedListsKey, raw))
		lists := newLists(store)

		all, err := lists.ListAll(ctx)
		require.NoError(t, err, raw)
		assert.Empty(t, all, raw)

		_, err = lists.Save(ctx, sampleTitles(), "x")
		assert.True(t, rerrors.Is(err, rerrors.ErrInternal), raw)
		_, err = lists.Delete(ctx, "list-1")
		assert.True(t, rerrors.Is(err, rerrors.ErrInternal), raw)

		stored, _, err := store.Get(ctx, services.DefaultSavedListsKey)
		require.NoError(t, err)
		assert.Equal(t, raw, stored)
	}
}

func TestSavedLists_KeepsListsWithDisplayDates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, services.DefaultSavedListsKey,
		`[{"id":"list-1","date":"05/03/2024","title":"Antiga","movies":[{"id":"movie-1","title":"Alien","year":1979}]},`+
			`{"id":"list-2","date":"ontem","title":"Sem data","movies":[]}]`))
	lists := newLists(store)

	all, err := lists.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Equal(all[0].Date))
	assert.True(t, all[1].Date.IsZero())

	saved, err := lists.Save(ctx, sampleTitles(), "nova")
	require.NoError(t, err)

	all, err = lists.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"list-1", "list-2", saved.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "Alien", all[0].Movies[0].Title)
}

func TestSavedLists_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	lists := services.NewSavedListService(storage.NewMemoryStore(), test.NewConfig().SavedLists)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lists.Save(ctx, sampleTitles(), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := lists.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 20)
	ids := make(map[string]struct{}, len(all))
	for _, list := range all {
		ids[list.ID] = struct{}{}
	}
	assert.Len(t, ids, 20)
}

func TestSavedLists_StoreErrors(t *testing.T) {
	ctx := context.Background()
	readErr := errors.New("disk unavailable")
	writeErr := errors.New("quota exceeded")

	failingRead := newLists(&test.FailingStore{GetErr: readErr})
	_, err := failingRead.ListAll(ctx)
	assert.ErrorIs(t, err, readErr)
	_, err = failingRead.Save(ctx, sampleTitles(), "")
	assert.ErrorIs(t, err, readErr)
	_, err = failingRead.Delete(ctx, "list-1")
	assert.ErrorIs(t, err, readErr)

	failingWrite := newLists(&test.FailingStore{SetErr: writeErr})
	_, err = failingWrite.Save(ctx, sampleTitles(), "")
	assert.ErrorIs(t, err, writeErr)
	_, err = failingWrite.Delete(ctx, "list-1")
	assert.ErrorIs(t, err, writeErr)
}

func TestSavedLists_CustomNaming(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	lists := services.NewSavedListService(store, cloud.SavedLists{Key: "favoritos", TitlePrefix: "Lista", DateLayout: "2006-01-02"}).
		WithClock(func() time.Time { return savedAt })

	saved, err := lists.Save(ctx, sampleTitles(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "Lista 2024-03-05", saved.Title)
	assert.Equal(t, "favoritos", lists.Key())

	_, ok, err := store.Get(ctx, "favoritos")
	require.NoError(t, err)
	assert.True(t, ok)
}
