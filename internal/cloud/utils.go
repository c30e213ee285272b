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

// Package cloud provides components for interacting with external services.
// This file contains general-purpose utility functions that support the cloud package.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first reads a base
//     configuration file and then overwrites values with a second, environment-specific
//     file (e.g., .env.local.toml, .env.test.toml). The environment is determined by
//     an environment variable. API keys can finally be overridden from the environment.
//   - GenerateMultiModalResponse: A wrapper for making calls to the GenAI model. It includes
//     a retry mechanism to handle transient errors and integrates with OpenTelemetry to
//     record metrics for token usage and retries.
//   - NewTextPart: Factory for text prompts.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Cloud Constants define key strings and values used throughout the package,
// primarily for configuration loading and API interaction policies.
const (
	ConfigFileBaseName  = ".env"                    // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"                   // The file extension for configuration files.
	ConfigSeparator     = "."                       // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "RECOMENDA_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "RECOMENDA_RUNTIME"       // The environment variable for the runtime context (e.g., "local", "test", "prod").
	EnvGeminiAPIKey     = "GEMINI_API_KEY"          // Overrides gemini.api_key.
	EnvTMDBAPIKey       = "TMDB_API_KEY"            // Overrides tmdb.api_key.
	DefaultRuntime      = "local"                   // Runtime used when EnvConfigRuntime is unset.
	MaxRetries          = 3                         // The maximum number of times to retry a failed API call.
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime-specific configuration file paths
// selected by the environment.
func ConfigFiles() (base string, runtime string) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = DefaultRuntime
	}

	base = configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	runtime = configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, runtime
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. Missing files are skipped; files that do not decode are errors.
//
// Inputs:
//   - config: The configuration to populate, usually created by NewConfig so unset
//     values keep their defaults.
func LoadConfig(config *Config) error {
	baseConfigFileName, envConfigFileName := ConfigFiles()
	slog.Debug("loading configuration", "base", baseConfigFileName, "runtime", envConfigFileName)

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, config); err != nil {
			return fmt.Errorf("failed to decode base configuration file %s: %w", baseConfigFileName, err)
		}
	}

	// Values in the runtime file overwrite the values from the base file.
	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, config); err != nil {
			return fmt.Errorf("failed to decode environment configuration file %s: %w", envConfigFileName, err)
		}
	}

	ApplyEnvOverrides(config)
	return nil
}

// ApplyEnvOverrides copies the API keys found in the environment into config.
func ApplyEnvOverrides(config *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey)); v != "" {
		config.Gemini.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTMDBAPIKey)); v != "" {
		config.TMDB.APIKey = v
	}
}

// GenerateMultiModalResponse is a helper function for executing requests
// against a Generative AI model. It includes logic for retries and telemetry.
// Retries stop as soon as ctx is done.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - inputTokenCounter: An OpenTelemetry counter for prompt tokens used.
//   - outputTokenCounter: An OpenTelemetry counter for response tokens generated.
//   - retryCounter: An OpenTelemetry counter for tracking the number of retries.
//   - tryCount: The current attempt number for this request (starts at 0).
//   - model: The rate-limited, quota-aware generative model to use.
//   - content: The prompt contents.
//
// Outputs:
//   - string: The concatenated text content from the model's response.
//   - error: An error if the request fails after all retries.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content)
	if err != nil {
		if tryCount < MaxRetries && ctx.Err() == nil {
			retryCounter.Add(ctx, 1)
			return GenerateMultiModalResponse(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, content)
		}
		return "", err
	}

	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				builder.WriteString(part.Text)
			}
		}
	}
	return TrimCodeFence(builder.String()), nil
}

// TrimCodeFence strips a surrounding markdown code fence (```json ... ```).
func TrimCodeFence(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value)
}

// NewTextPart creates the contents of a text-only prompt.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}
