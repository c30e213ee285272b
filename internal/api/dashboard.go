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
)

// Stats is the body of GET /stats.
type Stats struct {
	SavedLists    int `json:"saved_lists"`
	SavedTitles   int `json:"saved_titles"`
	CachedPosters int `json:"cached_posters"`
}

// Dashboard configures the statistics route.
func Dashboard(r *gin.RouterGroup, h *Handler) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			lists, err := h.Lists.ListAll(c.Request.Context())
			if err != nil {
				respondError(c, err)
				return
			}
			out := Stats{SavedLists: len(lists)}
			for _, l := range lists {
				out.SavedTitles += len(l.Movies)
			}
			if h.Posters != nil {
				out.CachedPosters = h.Posters.Len()
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
