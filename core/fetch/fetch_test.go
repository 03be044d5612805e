// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/requests"
)

func newFetcher(t *testing.T, timeout time.Duration) (*Fetcher, string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.po", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("msgid \"\"\nmsgstr \"\"\n"))
	})
	mux.HandleFunc("/missing.po", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("/error.po", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
	})
	mux.HandleFunc("/slow.po", func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return New(requests.NewClient(srv.Client(), ""), timeout), srv.URL
}

func TestFetch_FirstCandidate(t *testing.T) {
	t.Parallel()

	f, base := newFetcher(t, time.Second)

	logs, body, oerr := f.Fetch(context.Background(), []Candidate{
		{Label: "stable", URL: base + "/ok.po"},
		{Label: "development", URL: base + "/missing.po"},
	})
	require.Nil(t, oerr)
	assert.Equal(t, "msgid \"\"\nmsgstr \"\"\n", string(body))
	assert.Equal(t, outcome.Log{
		"Downloading translation from " + base + "/ok.po…",
		"Downloaded stable translation (19 bytes).",
	}, logs)
}

func TestFetch_AllNotFound(t *testing.T) {
	t.Parallel()

	f, base := newFetcher(t, time.Second)

	logs, body, oerr := f.Fetch(context.Background(), []Candidate{
		{Label: "stable", URL: base + "/missing.po"},
		{Label: "development", URL: base + "/missing.po"},
	})
	require.NotNil(t, oerr)
	assert.Equal(t, outcome.KindDownload, oerr.Kind)
	assert.Nil(t, body)

	notFound := 0

	for _, line := range logs {
		if line == "Project not found." {
			notFound++
		}
	}

	assert.Equal(t, 2, notFound)
}

func TestFetch_FallbackAfterTimeout(t *testing.T) {
	t.Parallel()

	f, base := newFetcher(t, 50*time.Millisecond)

	logs, body, oerr := f.Fetch(context.Background(), []Candidate{
		{Label: "stable", URL: base + "/slow.po"},
		{Label: "development", URL: base + "/ok.po"},
	})
	require.Nil(t, oerr)
	assert.NotEmpty(t, body)

	require.Len(t, logs, 4)
	assert.Equal(t, "The request timed out after 50ms.", logs[1])
	assert.Equal(t, "Downloaded development translation (19 bytes).", logs[3])
}

func TestFetch_ServerErrorDiagnostics(t *testing.T) {
	t.Parallel()

	f, base := newFetcher(t, time.Second)

	logs, _, oerr := f.Fetch(context.Background(), []Candidate{{Label: "stable", URL: base + "/error.po"}})
	require.NotNil(t, oerr)
	assert.Contains(t, logs, "Download failed with status 500: database unavailable")
}

func TestFetch_TransportError(t *testing.T) {
	t.Parallel()

	f, _ := newFetcher(t, time.Second)

	logs, _, oerr := f.Fetch(context.Background(), []Candidate{{Label: "stable", URL: "http://127.0.0.1:0/x.po"}})
	require.NotNil(t, oerr)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[1], "Download failed: ")
}

func TestFetch_NoCandidates(t *testing.T) {
	t.Parallel()

	f, _ := newFetcher(t, 0)
	assert.Equal(t, DefaultTimeout, f.timeout)

	logs, _, oerr := f.Fetch(context.Background(), nil)
	require.NotNil(t, oerr)
	assert.Equal(t, outcome.KindDownload, oerr.Kind)
	require.ErrorIs(t, oerr, errNoCandidates)
	assert.Empty(t, logs)
}
