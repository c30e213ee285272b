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
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	rerrors "github.com/shakah/recomenda-ia/internal/errors"
)

// TrailerRouter sets up the trailer route.
func TrailerRouter(r *gin.RouterGroup, h *Handler) {
	r.GET("/trailers", func(c *gin.Context) {
		title := strings.TrimSpace(c.Query("title"))
		if title == "" {
			respondError(c, rerrors.NewInvalidRequest("Informe o título"))
			return
		}
		out, err := h.Trailers.Find(c.Request.Context(), title, c.Query("year"))
		if err != nil {
			h.log().WarnContext(c.Request.Context(), "trailer search failed", "title", title, "error", err)
			respondError(c, rerrors.NewTransport(err))
			return
		}
		c.JSON(http.StatusOK, out)
	})
}
