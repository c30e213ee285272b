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

// Package errors defines the structured errors surfaced by the recommendation
// pipeline and the saved-list store. Every error carries a code, an HTTP
// status for the API surface and a message fit for display to a user.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure class.
type ErrorCode string

const (
	ErrTimeout               ErrorCode = "TIMEOUT"                 // 504
	ErrInvalidResponseFormat ErrorCode = "INVALID_RESPONSE_FORMAT" // 502
	ErrMalformedPayload      ErrorCode = "MALFORMED_PAYLOAD"       // 502
	ErrTransport             ErrorCode = "TRANSPORT"               // 502
	ErrCancelled             ErrorCode = "CANCELLED"               // 499, ignorable
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"         // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"               // 404
	ErrInternal              ErrorCode = "INTERNAL"                // 500
)

// StatusClientClosedRequest is the non-standard status used for requests the
// caller abandoned.
const StatusClientClosedRequest = 499

// RecError is a structured error with code, status and message.
type RecError struct {
	Code    ErrorCode
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RecError) Unwrap() error {
	return e.Err
}

// NewTimeout reports that the completion call did not answer in time.
func NewTimeout(err error) *RecError {
	return &RecError{
		Code:    ErrTimeout,
		Status:  http.StatusGatewayTimeout,
		Message: "Tempo esgotado ao buscar recomendações",
		Err:     err,
	}
}

// NewInvalidResponseFormat reports a completion without any JSON array.
func NewInvalidResponseFormat() *RecError {
	return &RecError{
		Code:    ErrInvalidResponseFormat,
		Status:  http.StatusBadGateway,
		Message: "Formato de resposta inválido",
	}
}

// NewMalformedPayload reports a JSON array that could not be decoded.
func NewMalformedPayload(err error) *RecError {
	return &RecError{
		Code:    ErrMalformedPayload,
		Status:  http.StatusBadGateway,
		Message: "Resposta de recomendações malformada",
		Err:     err,
	}
}

// NewTransport reports a network-level failure of the completion call.
func NewTransport(err error) *RecError {
	return &RecError{
		Code:    ErrTransport,
		Status:  http.StatusBadGateway,
		Message: "Erro ao buscar recomendações",
		Err:     err,
	}
}

// NewCancelled reports a search superseded or cancelled before it produced
// any titles.
func NewCancelled(err error) *RecError {
	return &RecError{
		Code:    ErrCancelled,
		Status:  StatusClientClosedRequest,
		Message: "Busca cancelada",
		Err:     err,
	}
}

// NewInvalidRequest reports invalid caller input.
func NewInvalidRequest(msg string) *RecError {
	return &RecError{
		Code:    ErrInvalidRequest,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

// NewNotFound reports a saved list that does not exist.
func NewNotFound(id string) *RecError {
	return &RecError{
		Code:    ErrNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("Lista não encontrada: %s", id),
	}
}

// NewInternal wraps an unexpected error.
func NewInternal(err error) *RecError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &RecError{
		Code:    ErrInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		Err:     err,
	}
}

// Is reports whether err (or any error it wraps) is a RecError with code.
func Is(err error, code ErrorCode) bool {
	var rErr *RecError
	if stderrors.As(err, &rErr) {
		return rErr.Code == code
	}
	return false
}

// CodeOf returns the code of err, or ErrInternal when err is not a RecError.
func CodeOf(err error) ErrorCode {
	var rErr *RecError
	if stderrors.As(err, &rErr) {
		return rErr.Code
	}
	return ErrInternal
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	var rErr *RecError
	if stderrors.As(err, &rErr) {
		return rErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var rErr *RecError
	if stderrors.As(err, &rErr) {
		return rErr.Message
	}
	return "Erro ao buscar recomendações"
}

// Ignorable reports whether err should not be shown to a user.
func Ignorable(err error) bool {
	return err == nil || Is(err, ErrCancelled)
}
