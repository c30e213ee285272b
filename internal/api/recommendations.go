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

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shakah/recomenda-ia/internal/core/model"
	"github.com/shakah/recomenda-ia/internal/core/services"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
)

// SSE event names.
const (
	EventTitles = "titles"
	EventError  = "error"
	EventDone   = "done"
)

// RecommendationRouter sets up the search routes.
func RecommendationRouter(r *gin.RouterGroup, h *Handler) {
	recommendations := r.Group("/recommendations")
	{
		recommendations.GET("", h.streamSearch)
		recommendations.DELETE("", func(c *gin.Context) {
			h.Recommendations.Cancel()
			c.Status(http.StatusNoContent)
		})
	}
}

// streamSearch runs a search and relays its updates as server-sent events:
// one "titles" event per update, an "error" event when the search fails and
// a final "done" event.
func (h *Handler) streamSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondError(c, rerrors.NewInvalidRequest("Informe o que você quer assistir"))
		return
	}
	var opts []services.SearchOption
	if raw := c.Query("count"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count <= 0 {
			respondError(c, rerrors.NewInvalidRequest("count deve ser um inteiro positivo"))
			return
		}
		opts = append(opts, services.WithCount(count))
	}

	if _, ok := c.Writer.(http.Flusher); !ok {
		respondError(c, rerrors.NewInternal(errors.New("streaming not supported")))
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	updates := make(chan model.Update, 4)
	result := make(chan error, 1)
	go func() {
		defer close(updates)
		result <- h.Recommendations.Search(ctx, query, func(u model.Update) {
			select {
			case updates <- u:
			case <-ctx.Done():
			}
		}, opts...)
	}()

	keepAlive := time.NewTicker(h.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				h.finishStream(c, <-result)
				return
			}
			c.SSEvent(EventTitles, u)
			c.Writer.Flush()
		case <-keepAlive.C:
			_, _ = io.WriteString(c.Writer, ": keep-alive\n\n")
			c.Writer.Flush()
		case <-ctx.Done():
			// The client went away; the search sees the same context and stops.
			for range updates {
				// drain
			}
			h.log().DebugContext(ctx, "search stream closed by client", "query", query)
			return
		}
	}
}

func (h *Handler) finishStream(c *gin.Context, err error) {
	if err != nil {
		if !rerrors.Ignorable(err) {
			h.log().WarnContext(c.Request.Context(), "search failed", "error", err)
		}
		c.SSEvent(EventError, errorBody(err))
	}
	c.SSEvent(EventDone, gin.H{})
	c.Writer.Flush()
}
