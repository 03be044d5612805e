// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"codeberg.org/ttools/ttsync/core/locale"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/project"
	"codeberg.org/ttools/ttsync/core/syncer"
	"codeberg.org/ttools/ttsync/core/translate"
	"codeberg.org/ttools/ttsync/i18n"
)

const maxBodySize = 64 << 10

// SyncRequest is the body of POST /api/sync. Unset output flags take the
// server defaults: compiled and JSON output on, PHP and domain-prefixed JSON
// names from the configuration.
type SyncRequest struct {
	Type          string `json:"type"`
	Slug          string `json:"slug"`
	Domain        string `json:"domain"`
	Name          string `json:"name"`
	Locale        string `json:"locale"`
	Compiled      *bool  `json:"compiled"`
	JSON          *bool  `json:"json"`
	PHP           *bool  `json:"php"`
	IncludeDomain *bool  `json:"include_domain"`
	ForceRefresh  bool   `json:"force_refresh"`
}

// SyncResponse is the outcome of one pass.
type SyncResponse struct {
	Log     []string   `json:"log"`
	Success bool       `json:"success"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// CoreRequest is the body of POST /api/sync/core.
type CoreRequest struct {
	Locales      []string `json:"locales"`
	Compiled     *bool    `json:"compiled"`
	JSON         *bool    `json:"json"`
	PHP          *bool    `json:"php"`
	ForceRefresh bool     `json:"force_refresh"`
}

// CoreResponse is the outcome for one core subproject in one locale.
type CoreResponse struct {
	Locale  string `json:"locale"`
	Project string `json:"project"`
	SyncResponse
}

func newSyncResponse(res outcome.Result) SyncResponse {
	lines := res.Log
	if lines == nil {
		lines = outcome.Log{}
	}

	return SyncResponse{Log: lines, Success: res.OK(), Error: errorBody(res.Err)}
}

// Sync handles POST /api/sync.
//
// The pass is detached from the client connection: once started it runs to
// completion even if the client goes away.
func (a *API) Sync(w http.ResponseWriter, r *http.Request) error {
	var body SyncRequest
	if err := decodeBody(w, r, &body); err != nil {
		return err
	}

	ctx := context.WithoutCancel(r.Context())

	req, err := a.syncRequest(ctx, body)
	if err != nil {
		return err
	}

	l, err := a.Catalog.Locale(ctx, body.Locale, body.ForceRefresh)

	switch {
	case errors.Is(err, translate.ErrUnknownLocale):
		return NewHTTPError(http.StatusBadRequest, CodeUnknownLocale,
			i18n.Tr(ctx, "Unknown locale {{.Locale}}.", "Locale", body.Locale), err)
	case err != nil:
		writeJSON(w, http.StatusOK, newSyncResponse(outcome.Result{
			Err: outcome.New(outcome.KindAPIUnavailable,
				i18n.Tr(ctx, "The WordPress.org Translations API is unavailable."), err),
		}))

		return nil
	}

	req.Locale = l

	writeJSON(w, http.StatusOK, newSyncResponse(a.Syncer.Sync(ctx, req)))

	return nil
}

func (a *API) syncRequest(ctx context.Context, body SyncRequest) (syncer.Request, error) {
	t, err := project.ParseType(body.Type)
	if err != nil {
		return syncer.Request{}, NewHTTPError(http.StatusBadRequest, CodeBadRequest,
			i18n.Tr(ctx, "Unknown project type {{.Type}}.", "Type", body.Type), err)
	}

	p, err := project.New(t, body.Slug, body.Domain, body.Name)

	switch {
	case errors.Is(err, project.ErrInvalidDomain):
		return syncer.Request{}, NewHTTPError(http.StatusBadRequest, CodeBadRequest,
			i18n.Tr(ctx, "Invalid text domain {{.Domain}}.", "Domain", body.Domain), err)
	case errors.Is(err, project.ErrInvalidSlug):
		return syncer.Request{}, NewHTTPError(http.StatusBadRequest, CodeBadRequest,
			i18n.Tr(ctx, "Invalid project slug {{.Slug}}.", "Slug", body.Slug), err)
	case err != nil:
		return syncer.Request{}, NewHTTPError(http.StatusBadRequest, CodeBadRequest,
			i18n.Tr(ctx, "A project slug is required for plugins and themes."), err)
	}

	if body.Locale == "" || body.Locale == locale.SourceLocale {
		return syncer.Request{}, NewHTTPError(http.StatusBadRequest, CodeBadRequest,
			i18n.Tr(ctx, "A locale other than {{.Locale}} is required.", "Locale", locale.SourceLocale), nil)
	}

	return syncer.Request{
		Project:       p,
		Compiled:      orDefault(body.Compiled, true),
		JSON:          orDefault(body.JSON, true),
		PHP:           orDefault(body.PHP, a.Defaults.GeneratePHP),
		IncludeDomain: orDefault(body.IncludeDomain, a.Defaults.IncludeDomain),
		ForceRefresh:  body.ForceRefresh,
	}, nil
}

// SyncCore handles POST /api/sync/core.
func (a *API) SyncCore(w http.ResponseWriter, r *http.Request) error {
	var body CoreRequest
	if err := decodeBody(w, r, &body); err != nil {
		return err
	}

	ctx := context.WithoutCancel(r.Context())

	if len(locale.Select(body.Locales...)) == 0 {
		return NewHTTPError(http.StatusBadRequest, CodeBadRequest,
			i18n.Tr(ctx, "A locale other than {{.Locale}} is required.", "Locale", locale.SourceLocale), nil)
	}

	results := a.Syncer.UpdateCore(ctx, body.Locales, syncer.CoreOptions{
		Compiled:     orDefault(body.Compiled, true),
		JSON:         orDefault(body.JSON, true),
		PHP:          orDefault(body.PHP, a.Defaults.GeneratePHP),
		ForceRefresh: body.ForceRefresh,
	})

	out := make([]CoreResponse, 0, len(results))
	for _, res := range results {
		out = append(out, CoreResponse{
			Locale:       res.Locale,
			Project:      res.Project,
			SyncResponse: newSyncResponse(res.Result),
		})
	}

	writeJSON(w, http.StatusOK, out)

	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewHTTPError(http.StatusRequestEntityTooLarge, CodeBodyTooLarge,
				i18n.Tr(r.Context(), "The request body is too large."), err)
		}

		return NewHTTPError(http.StatusBadRequest, CodeBadRequest,
			i18n.Tr(r.Context(), "The request body is not valid JSON."), err)
	}

	return nil
}

func orDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}

	return *v
}
