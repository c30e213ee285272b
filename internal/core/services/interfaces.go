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

// Package services provides the business logic of the application: the
// recommendation search with poster enrichment and the saved-list store.
// This file declares the external collaborators the services depend on.
package services

import (
	"context"
	"sync"
)

// TextGenerator sends a prompt to a generative text model and returns the raw
// text of its reply.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// PosterLookup searches the media-metadata API for a title. An empty year
// searches without a year filter. found is false when the search returned no
// result; posterURL is empty when the first result carries no poster art.
type PosterLookup interface {
	Lookup(ctx context.Context, title string, year string) (posterURL string, found bool, err error)
}

// PosterCache memoizes resolved posters by model.PosterKey.
type PosterCache interface {
	Get(key string) (string, bool)
	Put(key string, poster string)
}

// MemoryPosterCache is a process-local PosterCache safe for concurrent use.
type MemoryPosterCache struct {
	mu      sync.RWMutex
	posters map[string]string
}

// NewMemoryPosterCache creates an empty cache.
func NewMemoryPosterCache() *MemoryPosterCache {
	return &MemoryPosterCache{posters: make(map[string]string)}
}

func (c *MemoryPosterCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.posters[key]
	return p, ok
}

func (c *MemoryPosterCache) Put(key string, poster string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posters[key] = poster
}

// Len returns the number of cached posters.
func (c *MemoryPosterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.posters)
}
