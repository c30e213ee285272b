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

// Command recomenda runs recommendation searches and manages saved lists from
// the terminal. Output is JSON on stdout; logs go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/core/services"
	"github.com/shakah/recomenda-ia/internal/storage"
	"github.com/shakah/recomenda-ia/internal/telemetry"
	"github.com/shakah/recomenda-ia/internal/tmdb"
	"github.com/shakah/recomenda-ia/internal/trailer"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		_ = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	}
	config := cloud.NewConfig()
	if err = cloud.LoadConfig(config); err != nil {
		return err
	}

	closeLog, err := telemetry.SetupLogging(config.Telemetry)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, config.Storage)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	d := &deps{
		lists:    services.NewSavedListService(store, config.SavedLists),
		trailers: trailer.NewFinder(config.Trailer, nil),
		out:      os.Stdout,
		searcher: func() (Searcher, error) {
			return newSearcher(ctx, config)
		},
	}
	return newCLIApp(d).RunContext(ctx, os.Args)
}

func newSearcher(ctx context.Context, config *cloud.Config) (Searcher, error) {
	if config.TMDB.APIKey == "" {
		return nil, errors.New("tmdb api key is not configured (set " + cloud.EnvTMDBAPIKey + ")")
	}
	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	generator, err := clients.TextGenerator(config.Recommendation.AgentModel)
	if err != nil {
		return nil, err
	}
	return services.NewRecommendationService(config, generator, tmdb.NewClient(config.TMDB, nil), services.NewMemoryPosterCache())
}
