// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package fetch downloads a catalog from the first source that has it.

Candidates are tried in order. A missing project (404) and any other failure
are logged and the next candidate is tried; only running out of candidates
is an error.
*/
package fetch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/requests"
	"codeberg.org/ttools/ttsync/i18n"
)

// DefaultTimeout bounds each download attempt.
const DefaultTimeout = 15 * time.Second

var (
	errNoCandidates = errors.New("no source URL")
	errExhausted    = errors.New("all sources failed")
)

// knownErrors maps HTTP statuses to the message logged for them.
var knownErrors = map[int]i18n.MsgKey{
	http.StatusNotFound: "Project not found.",
}

// Candidate is one source for a catalog, e.g. the stable or development
// version of a project.
type Candidate struct {
	Label string
	URL   string
}

// Fetcher downloads raw catalogs.
type Fetcher struct {
	client  *requests.Client
	timeout time.Duration
}

// New returns a fetcher. A non-positive timeout selects [DefaultTimeout].
func New(client *requests.Client, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Fetcher{client: client, timeout: timeout}
}

// Fetch returns the body of the first candidate that answers 200. The log
// keeps the diagnostics of every failed attempt.
func (f *Fetcher) Fetch(ctx context.Context, candidates []Candidate) (outcome.Log, []byte, *outcome.Error) {
	var logs outcome.Log

	if len(candidates) == 0 {
		return logs, nil, outcome.New(outcome.KindDownload,
			i18n.Tr(ctx, "Download failed.")+" "+i18n.Tr(ctx, "A valid URL was not provided."),
			errNoCandidates)
	}

	for _, c := range candidates {
		logs.Add(i18n.Tr(ctx, "Downloading translation from {{.URL}}…", "URL", c.URL))

		resp, err := f.client.Get(ctx, c.URL, f.timeout)

		switch {
		case err != nil && requests.IsTimeout(err):
			logs.Add(i18n.Tr(ctx, "The request timed out after {{.Timeout}}.", "Timeout", f.timeout.String()))
		case err != nil:
			logs.Add(i18n.Tr(ctx, "Download failed: {{.Error}}", "Error", err.Error()))
		case resp.OK():
			logs.Add(i18n.TrN(ctx,
				"Downloaded {{.Label}} translation ({{.Count}} byte).",
				"Downloaded {{.Label}} translation ({{.Count}} bytes).",
				len(resp.Body), "Label", c.Label, "Count", len(resp.Body)))

			return logs, resp.Body, nil
		default:
			logs.Append(diagnostics(ctx, resp)...)
		}
	}

	return logs, nil, outcome.New(outcome.KindDownload,
		i18n.Tr(ctx, "Download failed.")+" "+i18n.Tr(ctx, "No source provided a translation."),
		errExhausted)
}

// diagnostics describes a non-200 response.
func diagnostics(ctx context.Context, resp *requests.Response) []string {
	if msg, ok := knownErrors[resp.StatusCode]; ok {
		return []string{msg.Tr(ctx)}
	}

	return []string{
		i18n.Tr(ctx, "Download failed with status {{.Status}}: {{.Message}}",
			"Status", resp.StatusCode, "Message", requests.ErrorMessage(resp)),
	}
}
