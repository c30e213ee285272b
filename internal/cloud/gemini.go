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

package cloud

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const generatorMeterName = "github.com/shakah/recomenda-ia/internal/cloud"

// GeminiTextGenerator sends text prompts to a rate-limited model and counts
// the tokens spent.
type GeminiTextGenerator struct {
	model        *QuotaAwareGenerativeAIModel
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	retries      metric.Int64Counter
}

// NewGeminiTextGenerator creates a generator over model.
func NewGeminiTextGenerator(model *QuotaAwareGenerativeAIModel) *GeminiTextGenerator {
	meter := otel.Meter(generatorMeterName)
	inputTokens, _ := meter.Int64Counter("genai.tokens.input")
	outputTokens, _ := meter.Int64Counter("genai.tokens.output")
	retries, _ := meter.Int64Counter("genai.retries")
	return &GeminiTextGenerator{
		model:        model,
		inputTokens:  inputTokens,
		outputTokens: outputTokens,
		retries:      retries,
	}
}

// Complete returns the text of the model's reply to prompt.
func (g *GeminiTextGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return GenerateMultiModalResponse(ctx, g.inputTokens, g.outputTokens, g.retries, 0, g.model, NewTextPart(prompt))
}
