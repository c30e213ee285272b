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

// Package test provides utility functions and fakes to support the
// application's test suite: a cached test configuration, canned text model
// replies and in-process stand-ins for the external services.
package test

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/shakah/recomenda-ia/internal/cloud"
)

// StateManager caches the test configuration so it is loaded once per run.
type StateManager struct {
	once   sync.Once
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ConfigDir returns the absolute path of the repository's configs directory.
func ConfigDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "configs"
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at the test configuration files.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig returns the cached test configuration, loading it on first use.
func GetConfig() *cloud.Config {
	state.once.Do(func() {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	})
	return state.config
}

// NewConfig returns a fresh copy of the defaults tuned for fast tests. Use it
// when a test mutates the configuration.
func NewConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Storage.Backend = "memory"
	config.Recommendation.CompletionTimeoutSeconds = 2
	config.Telemetry.Exporter = "none"
	return config
}

// GetDieHardReply returns a completion that wraps a two-title array in prose
// and markdown, the way text models tend to answer.
func GetDieHardReply() string {
	return "Claro! Aqui estão algumas recomendações:\n```json\n" + `[
  {"title": "Die Hard", "year": "1988", "description": "Um policial enfrenta terroristas em um arranha-céu.", "genre": "Ação", "type": "movie"},
  {"title": "Speed", "year": 1994, "description": "Um ônibus não pode desacelerar.", "genre": "Ação", "type": "filme"}
]` + "\n```\nBom filme!"
}

// GetLegacyValue returns a stored value in the legacy shape: a bare array of
// titles.
func GetLegacyValue() string {
	return `[
  {"id": "movie-1", "title": "Alien", "year": "1979", "description": "Terror no espaço.", "poster": "https://image.tmdb.org/t/p/w500/alien.jpg"},
  {"id": "movie-2", "title": "Aliens", "year": "1986", "description": "A volta de Ripley.", "poster": "https://via.placeholder.com/150x225?text=Sem+Imagem"}
]`
}
