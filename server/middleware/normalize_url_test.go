// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		method           string
		requestURL       string
		expectedStatus   int
		expectedLocation string
		expectedPath     string
	}{
		{
			name:           "Root path is untouched",
			method:         http.MethodGet,
			requestURL:     "/",
			expectedStatus: http.StatusOK,
			expectedPath:   "/",
		},
		{
			name:           "Canonical path is untouched",
			method:         http.MethodGet,
			requestURL:     "/api/locales",
			expectedStatus: http.StatusOK,
			expectedPath:   "/api/locales",
		},
		{
			name:             "GET with trailing slash redirects",
			method:           http.MethodGet,
			requestURL:       "/api/locales/?force=1",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/api/locales?force=1",
		},
		{
			name:           "POST with trailing slash is rewritten",
			method:         http.MethodPost,
			requestURL:     "/api/sync/",
			expectedStatus: http.StatusOK,
			expectedPath:   "/api/sync",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotPath string

			handler := Wrap(NormalizeURL, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path

				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.requestURL, nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedLocation, rr.Header().Get("Location"))
			assert.Equal(t, tt.expectedPath, gotPath)
		})
	}
}
