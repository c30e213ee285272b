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

// Package storage provides the string key-value stores that back the saved
// lists. Every backend stores opaque string values under string keys; the
// saved-list service owns the encoding.
//
// Backends:
//   - memory: process-local map, for tests and ephemeral runs.
//   - bolt: a single bbolt file on local disk (default).
//   - badger: a BadgerDB directory on local disk.
//   - gcs: one object per key in a Google Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shakah/recomenda-ia/internal/cloud"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendGCS    = "gcs"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// KeyValueStore is an asynchronous string key-value store.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Close releases the resources held by the store.
	Close() error
}

// Open creates the store selected by config.Backend.
func Open(ctx context.Context, config cloud.Storage) (KeyValueStore, error) {
	switch strings.ToLower(strings.TrimSpace(config.Backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendBolt:
		return OpenBoltStore(config.Path)
	case BackendBadger:
		return OpenBadgerStore(config.Path)
	case BackendGCS:
		return OpenGCSStore(ctx, config.Bucket, config.Prefix, config.GCSEndpoint)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", config.Backend)
	}
}
