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

package test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shakah/recomenda-ia/internal/core/model"
)

// FakeTextGenerator answers every prompt with Reply, or calls Fn when set.
type FakeTextGenerator struct {
	Reply string
	Err   error
	Fn    func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *FakeTextGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.Fn != nil {
		return f.Fn(ctx, prompt)
	}
	return f.Reply, f.Err
}

// Prompts returns the prompts received so far.
func (f *FakeTextGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

// BlockingTextGenerator blocks until its context ends, then returns the
// context error.
func BlockingTextGenerator() *FakeTextGenerator {
	return &FakeTextGenerator{Fn: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
}

// PosterAnswer is the canned answer of FakePosterLookup for one query.
type PosterAnswer struct {
	URL   string
	Found bool
	Err   error
}

// LookupCall records one call to FakePosterLookup.
type LookupCall struct {
	Title string
	Year  string
}

// FakePosterLookup answers from Answers keyed by model.PosterKey(title, year).
// Unknown keys report not found. It tracks the peak number of concurrent
// calls. When Gate is set every call waits for it to be closed (or for its
// context to end) before answering.
type FakePosterLookup struct {
	Answers map[string]PosterAnswer
	Gate    chan struct{}
	// Started, when set, receives one value per call as the call begins.
	Started chan LookupCall

	mu       sync.Mutex
	calls    []LookupCall
	inFlight atomic.Int32
	peak     atomic.Int32
}

// NewFakePosterLookup creates a lookup with no answers.
func NewFakePosterLookup() *FakePosterLookup {
	return &FakePosterLookup{Answers: make(map[string]PosterAnswer)}
}

// Found registers a poster for (title, year).
func (f *FakePosterLookup) Found(title, year, url string) *FakePosterLookup {
	f.Answers[model.PosterKey(title, year)] = PosterAnswer{URL: url, Found: true}
	return f
}

// Failing registers a transport error for (title, year).
func (f *FakePosterLookup) Failing(title, year string) *FakePosterLookup {
	f.Answers[model.PosterKey(title, year)] = PosterAnswer{Err: errors.New("connection reset by peer")}
	return f
}

func (f *FakePosterLookup) Lookup(ctx context.Context, title string, year string) (string, bool, error) {
	call := LookupCall{Title: title, Year: year}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.Started != nil {
		f.Started <- call
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}

	answer := f.Answers[model.PosterKey(title, year)]
	return answer.URL, answer.Found, answer.Err
}

// Calls returns the calls received so far.
func (f *FakePosterLookup) Calls() []LookupCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]LookupCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// PeakInFlight returns the highest number of concurrent calls observed.
func (f *FakePosterLookup) PeakInFlight() int {
	return int(f.peak.Load())
}

// FailingStore is a KeyValueStore whose reads or writes fail.
type FailingStore struct {
	Value   string
	Present bool
	GetErr  error
	SetErr  error
}

func (f *FailingStore) Get(context.Context, string) (string, bool, error) {
	return f.Value, f.Present, f.GetErr
}

func (f *FailingStore) Set(context.Context, string, string) error {
	return f.SetErr
}

func (f *FailingStore) Close() error { return nil }

// Recorder collects search updates in a thread-safe way.
type Recorder struct {
	mu      sync.Mutex
	updates []model.Update
}

// Emit appends u.
func (r *Recorder) Emit(u model.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

// Updates returns the updates received so far.
func (r *Recorder) Updates() []model.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Update, len(r.updates))
	copy(out, r.updates)
	return out
}
