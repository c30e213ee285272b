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

	"github.com/gin-gonic/gin"

	"github.com/shakah/recomenda-ia/internal/core/model"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
)

// SaveListRequest is the body of POST /lists.
type SaveListRequest struct {
	Title  string        `json:"title"`
	Movies []model.Title `json:"movies"`
}

// ListRouter sets up the saved-list routes.
func ListRouter(r *gin.RouterGroup, h *Handler) {
	lists := r.Group("/lists")
	{
		lists.GET("", func(c *gin.Context) {
			out, err := h.Lists.ListAll(c.Request.Context())
			if err != nil {
				h.log().ErrorContext(c.Request.Context(), "failed to read saved lists", "error", err)
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		lists.POST("", func(c *gin.Context) {
			var req SaveListRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, rerrors.NewInvalidRequest("Corpo da requisição inválido"))
				return
			}
			if len(req.Movies) == 0 {
				respondError(c, rerrors.NewInvalidRequest("Nenhum filme para salvar"))
				return
			}
			saved, err := h.Lists.Save(c.Request.Context(), req.Movies, req.Title)
			if err != nil {
				h.log().ErrorContext(c.Request.Context(), "failed to save list", "error", err)
				respondError(c, err)
				return
			}
			c.JSON(http.StatusCreated, saved)
		})

		lists.GET("/:id", func(c *gin.Context) {
			out, err := h.Lists.Find(c.Request.Context(), c.Param("id"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		lists.DELETE("/:id", func(c *gin.Context) {
			remaining, err := h.Lists.Delete(c.Request.Context(), c.Param("id"))
			if err != nil {
				h.log().ErrorContext(c.Request.Context(), "failed to delete list", "error", err)
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, remaining)
		})
	}
}
