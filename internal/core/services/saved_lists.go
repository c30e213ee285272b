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

// Package services. This file implements the saved-list store: named,
// timestamped snapshots of search results kept as one JSON collection under a
// single key of a KeyValueStore.
//
// Every write reads the full collection, changes it and writes it back with
// one Set. Writes from one service are serialized by a mutex; several
// processes sharing the same key are not coordinated.
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/core/model"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
	"github.com/shakah/recomenda-ia/internal/storage"
)

// Defaults applied when the configuration leaves a value unset.
const (
	DefaultSavedListsKey   = "@movies_Saveds"
	DefaultListTitlePrefix = "Recomendações"
	DefaultListDateLayout  = "02/01/2006"
)

// SavedListService persists and retrieves saved lists.
type SavedListService struct {
	store       storage.KeyValueStore
	key         string
	titlePrefix string
	dateLayout  string
	now         func() time.Time
	logger      *slog.Logger

	mu sync.Mutex // Serializes read-modify-write cycles.

	idMu    sync.Mutex
	entropy io.Reader
}

// NewSavedListService creates a service over store.
func NewSavedListService(store storage.KeyValueStore, config cloud.SavedLists) *SavedListService {
	s := &SavedListService{
		store:       store,
		key:         config.Key,
		titlePrefix: config.TitlePrefix,
		dateLayout:  config.DateLayout,
		now:         time.Now,
		logger:      slog.Default().With("component", "saved-lists"),
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
	if s.key == "" {
		s.key = DefaultSavedListsKey
	}
	if s.titlePrefix == "" {
		s.titlePrefix = DefaultListTitlePrefix
	}
	if s.dateLayout == "" {
		s.dateLayout = DefaultListDateLayout
	}
	return s
}

// WithClock replaces the clock used for ids, dates and default titles.
func (s *SavedListService) WithClock(now func() time.Time) *SavedListService {
	s.now = now
	return s
}

// Key returns the storage key holding the collection.
func (s *SavedListService) Key() string {
	return s.key
}

// Save appends a new list built from titles and persists the collection. A
// blank displayTitle is replaced by the default "<prefix> <date>" title. A
// stored legacy value is upgraded as part of the same write.
func (s *SavedListService) Save(ctx context.Context, titles []model.Title, displayTitle string) (*model.SavedList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	lists, err := s.read(ctx, now, true)
	if err != nil {
		return nil, err
	}

	displayTitle = strings.TrimSpace(displayTitle)
	if displayTitle == "" {
		displayTitle = s.DefaultTitle(now)
	}
	created := model.SavedList{
		ID:     s.newID(now),
		Date:   now.UTC(),
		Title:  displayTitle,
		Movies: model.CloneTitles(titles),
	}
	if created.Movies == nil {
		created.Movies = []model.Title{}
	}

	if err = s.write(ctx, append(lists, created)); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "saved list", "id", created.ID, "titles", len(created.Movies))
	return &created, nil
}

// ListAll returns every saved list in insertion order. An absent or
// unparseable value yields an empty slice; Save and Delete refuse to
// overwrite an unparseable value instead. A legacy value is upgraded in the
// result only; the store is left untouched.
func (s *SavedListService) ListAll(ctx context.Context) ([]model.SavedList, error) {
	return s.read(ctx, s.now(), false)
}

// Find returns the list with id, or a NOT_FOUND error.
func (s *SavedListService) Find(ctx context.Context, id string) (*model.SavedList, error) {
	lists, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lists {
		if lists[i].ID == id {
			return &lists[i], nil
		}
	}
	return nil, rerrors.NewNotFound(id)
}

// Delete removes the list with id, persists the collection and returns it.
// An unknown id still persists the unchanged collection.
func (s *SavedListService) Delete(ctx context.Context, id string) ([]model.SavedList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.read(ctx, s.now(), true)
	if err != nil {
		return nil, err
	}
	kept := make([]model.SavedList, 0, len(lists))
	for _, list := range lists {
		if list.ID != id {
			kept = append(kept, list)
		}
	}
	if err = s.write(ctx, kept); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "deleted list", "id", id, "removed", len(lists)-len(kept))
	return kept, nil
}

// DefaultTitle returns the display title given to a list saved at t.
func (s *SavedListService) DefaultTitle(t time.Time) string {
	return s.titlePrefix + " " + t.Format(s.dateLayout)
}

// read loads the collection. An unreadable value reads as empty, unless the
// caller is about to write, in which case it is an error so the value is
// never overwritten.
func (s *SavedListService) read(ctx context.Context, now time.Time, forWrite bool) ([]model.SavedList, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.SavedList{}, nil
	}
	lists, shape, err := decodeCollection(raw, now)
	if err != nil {
		if forWrite {
			return nil, rerrors.NewInternal(fmt.Errorf("refusing to overwrite unreadable saved lists under %q: %w", s.key, err))
		}
		s.logger.WarnContext(ctx, "stored saved lists are unreadable, treating as empty", "key", s.key, "error", err)
		return []model.SavedList{}, nil
	}
	if shape == shapeLegacy {
		s.logger.DebugContext(ctx, "upgraded legacy saved titles", "key", s.key, "titles", len(lists[0].Movies))
	}
	return lists, nil
}

func (s *SavedListService) write(ctx context.Context, lists []model.SavedList) error {
	value, err := encodeCollection(lists)
	if err != nil {
		return rerrors.NewInternal(err)
	}
	return s.store.Set(ctx, s.key, value)
}

func (s *SavedListService) newID(now time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return "list-" + strings.ToLower(ulid.MustNew(ulid.Timestamp(now), s.entropy).String())
}
