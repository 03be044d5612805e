// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"codeberg.org/ttools/ttsync/core/outcome"
)

// Error codes of responses that are not sync results.
const (
	CodeBadRequest     = "bad-request"
	CodeUnknownLocale  = "unknown-locale"
	CodeInternal       = "internal-error"
	CodeNotFound       = "not-found"
	CodeRateLimited    = "rate-limited"
	CodeBodyTooLarge   = "body-too-large"
)

// HTTPError is an error with the status and code sent to the client.
//
// Message is shown to the client and should already be translated; Err is
// only logged.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}

	return e.Code + ": " + e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError returns an *HTTPError.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// ErrorBody is the "error" member of every response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// AsHTTPError converts err to an *HTTPError. Errors that are not already one
// become a 500 internal error.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	return NewHTTPError(http.StatusInternalServerError, CodeInternal, http.StatusText(http.StatusInternalServerError), err)
}

// WriteError writes the JSON error response for err.
func WriteError(w http.ResponseWriter, err error) {
	httpErr := AsHTTPError(err)

	writeJSON(w, httpErr.Status, errorResponse{
		Error: ErrorBody{Code: httpErr.Code, Message: httpErr.Message},
	})
}

func errorBody(e *outcome.Error) *ErrorBody {
	if e == nil {
		return nil
	}

	return &ErrorBody{Code: string(e.Kind), Message: e.Message}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}
