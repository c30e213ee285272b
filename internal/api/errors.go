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
	"github.com/gin-gonic/gin"

	rerrors "github.com/shakah/recomenda-ia/internal/errors"
)

// ErrorBody is the JSON shape of every error response and SSE error event.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(err error) ErrorBody {
	return ErrorBody{Code: string(rerrors.CodeOf(err)), Message: rerrors.MessageOf(err)}
}

// respondError writes err with the status of its failure class.
func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(rerrors.StatusOf(err), errorBody(err))
}
