// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"strconv"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/translate"
	"codeberg.org/ttools/ttsync/i18n"
)

// LocaleResponse describes one locale of the translation site.
type LocaleResponse struct {
	WPLocale         string `json:"wp_locale"`
	Slug             string `json:"slug"`
	Variant          string `json:"variant"`
	EnglishName      string `json:"english_name"`
	NativeName       string `json:"native_name"`
	NPlurals         int    `json:"nplurals"`
	PluralExpression string `json:"plural_expression"`
}

// ProjectResponse is the core subproject used for the configured WordPress version.
type ProjectResponse struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Development bool     `json:"development"`
	Log         []string `json:"log"`
}

// HealthResponse reports the state of the instance and of the translation site.
type HealthResponse struct {
	Status    string     `json:"status"`
	Version   string     `json:"version"`
	Revision  string     `json:"revision"`
	Instance  string     `json:"instance"`
	Started   string     `json:"started"`
	Languages []string   `json:"languages"`
	Error     *ErrorBody `json:"error,omitempty"`
}

func forced(r *http.Request) bool {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	return force
}

// Locales handles GET /api/locales.
func (a *API) Locales(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	locales, err := a.Catalog.Locales(ctx, forced(r))
	if err != nil {
		return NewHTTPError(http.StatusBadGateway, string(outcome.KindAPIUnavailable),
			i18n.Tr(ctx, "The WordPress.org Translations API is unavailable."), err)
	}

	out := make([]LocaleResponse, 0, len(locales))
	for _, l := range locales {
		out = append(out, LocaleResponse{
			WPLocale:         l.WPLocale,
			Slug:             l.Slug,
			Variant:          l.Variant,
			EnglishName:      l.EnglishName,
			NativeName:       l.NativeName,
			NPlurals:         l.NPlurals,
			PluralExpression: l.PluralExpression,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"locales": out})

	return nil
}

// Project handles GET /api/project.
func (a *API) Project(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	sub, logs, oerr := a.Catalog.CoreProject(ctx, forced(r))
	if oerr != nil {
		return NewHTTPError(http.StatusBadGateway, string(oerr.Kind), oerr.Message, oerr)
	}

	if logs == nil {
		logs = outcome.Log{}
	}

	resp := ProjectResponse{Name: "Development", Slug: translate.DevSlug, Development: true, Log: logs}
	if sub != nil {
		resp.Name = sub.Name
		resp.Slug = sub.Slug
		resp.Development = sub.Slug == translate.DevSlug
	}

	writeJSON(w, http.StatusOK, resp)

	return nil
}

// Health handles GET /api/health. It answers 503 when the translation site
// cannot be reached.
func (a *API) Health(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	resp := HealthResponse{
		Status:   "ok",
		Version:  config.BuildVersion,
		Revision: config.Global.Build.Revision(),
		Instance: config.Global.Instance.ID,
		Started:  config.Global.Instance.StartingTime,
	}

	for _, tag := range i18n.Languages() {
		resp.Languages = append(resp.Languages, tag.String())
	}

	status := http.StatusOK

	if oerr := a.Catalog.Check(ctx); oerr != nil {
		resp.Status = "degraded"
		resp.Error = errorBody(oerr)
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)

	return nil
}
