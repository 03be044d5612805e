// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/core/audit"
	"codeberg.org/ttools/ttsync/server/request_context"
	"codeberg.org/ttools/ttsync/server/routes"
)

// CatchError wraps HTTP handlers that return an error, providing centralized error handling,
// response buffering, and request logging.
//
// The handler's output is buffered. When it returns an error, the buffered
// output is discarded and the error is written as a JSON error body with the
// status of its [routes.HTTPError], or 500 for any other error. Otherwise the
// buffered response is written to the client.
//
// Every completed request is logged through the audit package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Destination: audit.ToUser,
			RequestID:   ctx.RequestID,
			Method:      r.Method,
			URL:         r.URL.String(),
		}

		_ = span.Begin(r.Context())
		defer span.End()

		recorder := httptest.NewRecorder()

		err := handler(recorder, r)

		ctx.RequestError = err

		if err != nil {
			httpErr := routes.AsHTTPError(err)
			if httpErr.Status >= http.StatusInternalServerError {
				log.Err(err).
					Str("request_id", ctx.RequestID).
					Msg("Request failed")
			}

			ctx.StatusCode = httpErr.Status
			routes.WriteError(w, httpErr)
		} else {
			if recorder.Code == 0 {
				recorder.Code = http.StatusOK
			}

			ctx.StatusCode = recorder.Code
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			if _, err := recorder.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError

		if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
			span.Log()
		}
	}
}
