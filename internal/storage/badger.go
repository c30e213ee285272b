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

	"github.com/dgraph-io/badger/v4"
)

// badgerKeyPrefix namespaces the keys of the store inside the database.
const badgerKeyPrefix = "kv:"

// BadgerStore is a KeyValueStore kept in a BadgerDB directory.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens the BadgerDB at dir. An empty dir opens an in-memory
// database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger db: %w", err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an open database. The store takes ownership of db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (b *BadgerStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return "", false, nil
	case errors.Is(err, badger.ErrDBClosed):
		return "", false, ErrClosed
	case err != nil:
		return "", false, fmt.Errorf("storage: badger get %s: %w", key, err)
	}
	return string(value), true, nil
}

func (b *BadgerStore) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), []byte(value))
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("storage: badger set %s: %w", key, err)
	}
	return nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
