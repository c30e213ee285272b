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

// Package cloud. This file implements a wrapper around the Generative AI
// models handle that adds client-side rate limiting (Decorator pattern).
//
// Services like Gemini have quotas on how many requests can be made per
// minute. The wrapper waits for a token of its limiter before every call, so
// bursts of searches queue locally instead of failing remotely. Waiting
// honors the caller's context: a cancelled search stops waiting at once.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: The generation settings and model handle,
//     plus the rate limiter.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: Waits for the limiter, then calls the model.
package cloud

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the subset of *genai.Models used by the wrapper.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel wraps a model handle with a rate limiter.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Generation settings sent with every request.
	ModelName               string                       // Model identifier, e.g. "gemini-2.0-flash".
	ModelHandle             ContentGenerator             // Usually the client's *genai.Models.
	RateLimit               *rate.Limiter                // Controls request frequency.
}

// NewQuotaAwareModel creates a QuotaAwareGenerativeAIModel.
//
// Inputs:
//   - wrapped: The generation settings.
//   - name: The model name.
//   - modelHandle: The handle performing the calls.
//   - requestsPerSecond: Burst size; the bucket refills at one token per second.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle ContentGenerator, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent waits for the rate limiter and then calls the model.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}
