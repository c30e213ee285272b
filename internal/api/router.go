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

// Package api contains the HTTP route definitions of the server.
//
// Routes (all under /api/v1):
//   - GET    /recommendations   Streams a search as server-sent events.
//   - DELETE /recommendations   Cancels the running search.
//   - GET    /lists             Lists the saved lists.
//   - POST   /lists             Saves a list.
//   - GET    /lists/:id         Returns one saved list.
//   - DELETE /lists/:id         Deletes a saved list.
//   - GET    /trailers          Finds the trailer of a title.
//   - GET    /stats             Reports store and cache sizes.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/shakah/recomenda-ia/internal/cloud"
	"github.com/shakah/recomenda-ia/internal/core/services"
	"github.com/shakah/recomenda-ia/internal/trailer"
)

// TrailerFinder finds the trailer of a title.
type TrailerFinder interface {
	Find(ctx context.Context, title string, year string) (trailer.Trailer, error)
}

// Handler holds the services behind the routes.
type Handler struct {
	Recommendations *services.RecommendationService
	Lists           *services.SavedListService
	Trailers        TrailerFinder
	// Posters is optional; when it reports its size /stats includes it.
	Posters interface{ Len() int }
	// KeepAlive is the interval of SSE comment lines on an idle stream.
	KeepAlive time.Duration

	logger *slog.Logger
}

func (h *Handler) log() *slog.Logger {
	if h.logger == nil {
		h.logger = slog.Default().With("component", "api")
	}
	return h.logger
}

// NewRouter builds the gin engine with tracing and CORS middleware and the
// API routes.
func NewRouter(h *Handler, config cloud.Server, serviceName string) *gin.Engine {
	if h.KeepAlive <= 0 {
		h.KeepAlive = time.Duration(config.SearchKeepAliveSeconds) * time.Second
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))

	if len(config.AllowedOrigins) == 0 {
		r.Use(cors.Default())
	} else {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = config.AllowedOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		r.Use(cors.New(corsConfig))
	}

	apiV1 := r.Group("/api/v1")
	{
		RecommendationRouter(apiV1, h)
		ListRouter(apiV1, h)
		TrailerRouter(apiV1, h)
		Dashboard(apiV1, h)
	}
	return r
}
