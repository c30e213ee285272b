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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the clients for the external services the
// application talks to.
//
// Structs:
//   - GeminiConfig: Credentials and backend selection for the Gemini API.
//   - VertexAiLLMModel: Generation settings for a named text model.
//   - PromptTemplates: Text templates for prompts sent to the text model.
//   - Recommendation: Search pipeline tuning (title count, timeout, batch size).
//   - TMDB: Poster lookup client settings.
//   - Trailer: Trailer search settings.
//   - Storage: Key-value backend selection for saved lists.
//   - SavedLists: Saved-list naming and storage key.
//   - Server: HTTP surface settings.
//   - Telemetry: Logging level and exporter selection.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import (
	"time"

	"google.golang.org/genai"
)

// DefaultSafetySettings defines the content safety thresholds for the text
// model. Recommendation prompts are free text typed by the user, so only
// high-probability harmful content is blocked.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
}

// GeminiConfig selects how the genai client authenticates. With an API key
// the Gemini Developer API is used; without one the client falls back to
// Vertex AI with application default credentials.
type GeminiConfig struct {
	APIKey          string `toml:"api_key"`           // API key for the Gemini Developer API.
	GoogleProjectId string `toml:"google_project_id"` // Project used with the Vertex AI backend.
	GoogleLocation  string `toml:"location"`          // Location used with the Vertex AI backend.
}

// VertexAiLLMModel represents the configuration for a generative text model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the model, e.g. "gemini-2.0-flash".
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the model.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter.
	TopP               float32 `toml:"top_p"`               // The top_p parameter.
	TopK               float32 `toml:"top_k"`               // The top_k parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of output tokens.
	OutputFormat       string  `toml:"output_format"`       // The response MIME type, e.g. "application/json".
	RateLimit          int     `toml:"rate_limit"`          // Burst size of the per-second rate limiter.
}

// PromptTemplates holds the templates for the prompts sent to the text model.
type PromptTemplates struct {
	Recommendation string `toml:"recommendation"` // Template with QUERY, COUNT and EXAMPLE_JSON parameters.
}

// Recommendation holds the tuning of the search pipeline.
type Recommendation struct {
	AgentModel               string `toml:"agent_model"`                // Key into Config.AgentModels.
	DefaultCount             int    `toml:"default_count"`              // Titles requested when the caller gives no count.
	MaxCount                 int    `toml:"max_count"`                  // Upper bound of titles requested.
	CompletionTimeoutSeconds int    `toml:"completion_timeout_seconds"` // Hard timeout of the completion call.
	PosterBatchSize          int    `toml:"poster_batch_size"`          // Concurrent poster lookups per batch.
}

// CompletionTimeout returns the completion timeout as a duration.
func (r Recommendation) CompletionTimeout() time.Duration {
	return time.Duration(r.CompletionTimeoutSeconds) * time.Second
}

// TMDB holds the media-metadata API settings.
type TMDB struct {
	APIKey            string `toml:"api_key"`             // TMDB v3 API key.
	BaseURL           string `toml:"base_url"`            // API root, e.g. "https://api.themoviedb.org/3".
	ImageBaseURL      string `toml:"image_base_url"`      // Poster root, e.g. "https://image.tmdb.org/t/p/w500".
	Language          string `toml:"language"`            // Result language, e.g. "pt-BR".
	RequestsPerSecond int    `toml:"requests_per_second"` // Client side rate limit.
	TimeoutSeconds    int    `toml:"timeout_seconds"`     // Per request timeout.
}

// Trailer holds the trailer search settings.
type Trailer struct {
	SearchURL      string `toml:"search_url"`      // Results page, e.g. "https://www.youtube.com/results".
	EmbedURL       string `toml:"embed_url"`       // Embed root, e.g. "https://www.youtube.com/embed/".
	QuerySuffix    string `toml:"query_suffix"`    // Appended to "<title> <year>".
	TimeoutSeconds int    `toml:"timeout_seconds"` // Per request timeout.
}

// Storage selects the key-value backend used by the saved-list store.
type Storage struct {
	Backend     string `toml:"backend"`      // One of "bolt", "badger", "gcs", "memory".
	Path        string `toml:"path"`         // File (bolt) or directory (badger) on local disk.
	Bucket      string `toml:"bucket"`       // GCS bucket for the "gcs" backend.
	Prefix      string `toml:"prefix"`       // GCS object prefix.
	GCSEndpoint string `toml:"gcs_endpoint"` // Optional endpoint override, e.g. an emulator.
}

// SavedLists holds the saved-list naming and storage key.
type SavedLists struct {
	Key         string `toml:"key"`          // Storage key holding the whole collection.
	TitlePrefix string `toml:"title_prefix"` // Default display title prefix.
	DateLayout  string `toml:"date_layout"`  // Go time layout of the default display title date.
}

// Server holds the HTTP surface settings.
type Server struct {
	Address                string   `toml:"address"`                   // Listen address, e.g. ":8080".
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`  // Graceful shutdown window.
	AllowedOrigins         []string `toml:"allowed_origins"`           // CORS origins; empty allows all.
	SearchKeepAliveSeconds int      `toml:"search_keep_alive_seconds"` // Interval of SSE keep-alive comments.
}

// Telemetry holds logging and exporter settings.
type Telemetry struct {
	LogLevel string `toml:"log_level"` // debug, info, warn or error.
	LogFile  string `toml:"log_file"`  // Optional file receiving a copy of the logs.
	Exporter string `toml:"exporter"`  // "gcp" exports traces/metrics to Google Cloud; anything else disables export.
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // Project used by the telemetry exporters.
	} `toml:"application"`
	Gemini          GeminiConfig                `toml:"gemini"`
	AgentModels     map[string]VertexAiLLMModel `toml:"agent_models"` // Keyed by a logical name (e.g., "recommender").
	PromptTemplates PromptTemplates             `toml:"prompt_templates"`
	Recommendation  Recommendation              `toml:"recommendation"`
	TMDB            TMDB                        `toml:"tmdb"`
	Trailer         Trailer                     `toml:"trailer"`
	Storage         Storage                     `toml:"storage"`
	SavedLists      SavedLists                  `toml:"saved_lists"`
	Server          Server                      `toml:"server"`
	Telemetry       Telemetry                   `toml:"telemetry"`
}

// DefaultRecommendationPrompt is used when no template is configured.
const DefaultRecommendationPrompt = `Recomende {{.COUNT}} filmes ou séries baseados no seguinte critério: {{.QUERY}}.
Retorne apenas um JSON no formato:
{{.EXAMPLE_JSON}}`

// NewConfig creates a Config populated with defaults. The maps are
// initialized so the TOML decoder can fill them.
func NewConfig() *Config {
	c := &Config{
		AgentModels: map[string]VertexAiLLMModel{
			"recommender": {
				Model:        "gemini-2.0-flash",
				Temperature:  1,
				TopP:         0.95,
				TopK:         40,
				MaxTokens:    8192,
				OutputFormat: "text/plain",
				RateLimit:    5,
			},
		},
		PromptTemplates: PromptTemplates{Recommendation: DefaultRecommendationPrompt},
		Recommendation: Recommendation{
			AgentModel:               "recommender",
			DefaultCount:             8,
			MaxCount:                 12,
			CompletionTimeoutSeconds: 15,
			PosterBatchSize:          3,
		},
		TMDB: TMDB{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p/w500",
			Language:          "pt-BR",
			RequestsPerSecond: 20,
			TimeoutSeconds:    10,
		},
		Trailer: Trailer{
			SearchURL:      "https://www.youtube.com/results",
			EmbedURL:       "https://www.youtube.com/embed/",
			QuerySuffix:    "trailer oficial",
			TimeoutSeconds: 10,
		},
		Storage: Storage{
			Backend: "bolt",
			Path:    "data/recomenda.bolt",
		},
		SavedLists: SavedLists{
			Key:         "@movies_Saveds",
			TitlePrefix: "Recomendações",
			DateLayout:  "02/01/2006",
		},
		Server: Server{
			Address:                ":8080",
			ShutdownTimeoutSeconds: 5,
			SearchKeepAliveSeconds: 15,
		},
		Telemetry: Telemetry{
			LogLevel: "info",
			Exporter: "none",
		},
	}
	c.Application.Name = "recomenda-ia"
	return c
}
