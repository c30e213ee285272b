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

package main

import (
	"context"
	"errors"
	"os"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/core/services"
	"github.com/shakah/recomenda-ia/internal/storage"
	"github.com/shakah/recomenda-ia/internal/tmdb"
	"github.com/shakah/recomenda-ia/internal/trailer"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	store           storage.KeyValueStore
	posters         *services.MemoryPosterCache
	recommendations *services.RecommendationService
	lists           *services.SavedListService
	trailers        *trailer.Finder
}

var state = &StateManager{}

// SetupOS points the configuration loader at ./configs unless the
// environment already chose a location or runtime.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the configuration once.
func GetConfig() (*cloud.Config, error) {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			return nil, err
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			return nil, err
		}
		state.config = config
	}
	return state.config, nil
}

// InitState creates the clients and services.
func InitState(ctx context.Context, config *cloud.Config) error {
	if config.TMDB.APIKey == "" {
		return errors.New("tmdb api key is not configured (set " + cloud.EnvTMDBAPIKey + ")")
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	generator, err := cloudClients.TextGenerator(config.Recommendation.AgentModel)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, config.Storage)
	if err != nil {
		return err
	}
	state.store = store

	state.posters = services.NewMemoryPosterCache()
	state.recommendations, err = services.NewRecommendationService(config, generator, tmdb.NewClient(config.TMDB, nil), state.posters)
	if err != nil {
		return errors.Join(err, store.Close())
	}
	state.lists = services.NewSavedListService(store, config.SavedLists)
	state.trailers = trailer.NewFinder(config.Trailer, nil)
	return nil
}

// CloseState releases the clients and the store.
func CloseState() error {
	if state.cloud != nil {
		state.cloud.Close()
	}
	if state.store != nil {
		return state.store.Close()
	}
	return nil
}
