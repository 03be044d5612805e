// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/ttools/ttsync/server/middleware"
	"codeberg.org/ttools/ttsync/server/request_context"
)

func TestWithRequestContext_AttachesContext(t *testing.T) {
	t.Parallel()

	var got *request_context.RequestContext

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = request_context.FromRequest(r)

		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.NoError(t, got.RequestError)
}

func TestWithRequestContext_GeneratesUniqueRequestIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[request_context.FromRequest(r).RequestID] = true
	}))

	for range 3 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	}

	assert.Len(t, seen, 3)
}

func TestWithRequestContext_PreservesRequestData(t *testing.T) {
	t.Parallel()

	var method, path string

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/sync", path)
}

func TestWithRequestContext_Language(t *testing.T) {
	t.Parallel()

	var tag language.Tag

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag = request_context.FromRequest(r).T
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// Without catalogs loaded every request resolves to English.
	assert.Equal(t, "en", tag.String())
}
