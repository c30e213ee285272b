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

// Package cloud. This file is responsible for initializing and holding the
// client objects needed to talk to the generative model. It acts as a
// dependency injection container: a single ServiceClients value is created at
// startup and handed to the services that need a text model.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup.
//  2. It creates the genai client. An API key selects the Gemini Developer
//     API; without one the client uses Vertex AI and application default
//     credentials.
//  3. It reads the agent model configurations and wraps each one in the
//     rate-limited QuotaAwareGenerativeAIModel.
//  4. TextGenerator hands out a GeminiTextGenerator for a configured model.
package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// ServiceClients is the central container of the generative model clients.
type ServiceClients struct {
	GenAIClient *genai.Client                           // Client for the Gemini API or Vertex AI.
	AgentModels map[string]*QuotaAwareGenerativeAIModel // Configured text models, keyed by a logical name.
}

// Close exists for symmetry with the other clients of the application. The
// genai client holds no connection that needs releasing.
func (c *ServiceClients) Close() {}

// TextGenerator returns a text generator bound to the agent model name.
func (c *ServiceClients) TextGenerator(name string) (*GeminiTextGenerator, error) {
	model, ok := c.AgentModels[name]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", name)
	}
	return NewGeminiTextGenerator(model), nil
}

// NewGenerateContentConfig translates a model configuration into the genai
// generation settings.
func NewGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](values.Temperature),
		TopP:            genai.Ptr[float32](values.TopP),
		TopK:            genai.Ptr[float32](values.TopK),
		MaxOutputTokens: values.MaxTokens,
		SafetySettings:  DefaultSafetySettings,
	}
	if values.SystemInstructions != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	if values.OutputFormat != "" {
		config.ResponseMIMEType = values.OutputFormat
	}
	return config
}

// NewCloudServiceClients initializes the generative model clients based on
// the provided configuration.
//
// Inputs:
//   - ctx: The root context.Context for the application.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized clients.
//   - error: An error if the genai client fails to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	clientConfig := &genai.ClientConfig{
		Project:  config.Gemini.GoogleProjectId,
		Location: config.Gemini.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	}
	if config.Gemini.APIKey != "" {
		clientConfig = &genai.ClientConfig{
			APIKey:  config.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	slog.Debug("creating genai client", "backend", clientConfig.Backend, "project", clientConfig.Project)

	gc, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		slog.Debug("configuring agent model", "key", amKey, "model", values.Model)
		agentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, gc.Models, values.RateLimit)
	}

	cloud = &ServiceClients{
		GenAIClient: gc,
		AgentModels: agentModels,
	}
	return cloud, nil
}
