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
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore is a KeyValueStore that keeps each key in its own object of a
// Google Cloud Storage bucket. Keys are path-escaped so characters
// such as '/' do not create nested objects.
type GCSStore struct {
	client     *gcs.Client
	bucket     string
	prefix     string
	ownsClient bool
}

// OpenGCSStore creates a client and a store for bucket. A non-empty endpoint
// points the client at an emulator, without authentication.
func OpenGCSStore(ctx context.Context, bucket string, prefix string, endpoint string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("storage: gcs backend requires a bucket")
	}
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	s := NewGCSStore(client, bucket, prefix)
	s.ownsClient = true
	return s, nil
}

// NewGCSStore wraps an existing client. The caller keeps ownership of it.
func NewGCSStore(client *gcs.Client, bucket string, prefix string) *GCSStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}
}

// ObjectName returns the object holding key.
func (g *GCSStore) ObjectName(key string) string {
	return g.prefix + url.PathEscape(key) + ".json"
}

func (g *GCSStore) Get(ctx context.Context, key string) (string, bool, error) {
	reader, err := g.client.Bucket(g.bucket).Object(g.ObjectName(key)).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: gcs read %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", false, fmt.Errorf("storage: gcs read %s: %w", key, err)
	}
	return string(data), true, nil
}

func (g *GCSStore) Set(ctx context.Context, key string, value string) error {
	writer := g.client.Bucket(g.bucket).Object(g.ObjectName(key)).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := io.WriteString(writer, value); err != nil {
		_ = writer.Close()
		return fmt.Errorf("storage: gcs write %s: %w", key, err)
	}
	// The object is only committed by Close.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("storage: gcs commit %s: %w", key, err)
	}
	return nil
}

func (g *GCSStore) Close() error {
	if g.ownsClient {
		return g.client.Close()
	}
	return nil
}
