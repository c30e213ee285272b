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

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// boltBucket holds every key of the store.
var boltBucket = []byte("kv")

// BoltStore is a KeyValueStore kept in a single bbolt file. The file stays
// open for the life of the store, so only one process can use it at a time.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the bbolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("storage: bolt backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create bolt directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt file %s: %w", path, err)
	}
	if err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(boltBucket)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create bolt bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(key)); v != nil {
			// v is only valid inside the transaction.
			value = string(v)
			ok = true
		}
		return nil
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return "", false, ErrClosed
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: bolt get %s: %w", key, err)
	}
	return value, ok, nil
}

func (b *BoltStore) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, e := tx.CreateBucketIfNotExists(boltBucket)
		if e != nil {
			return e
		}
		return bucket.Put([]byte(key), []byte(value))
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("storage: bolt set %s: %w", key, err)
	}
	return nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
