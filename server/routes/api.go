// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes implements the JSON API served to WordPress hosts.

Handlers have the signature func(w http.ResponseWriter, r *http.Request) error
and are wrapped by middleware.CatchError, which turns returned errors into
JSON error responses. A sync pass that fails is not an HTTP error: it is
reported with "success": false and the log accumulated up to the failure.
*/
package routes

import (
	"context"

	"codeberg.org/ttools/ttsync/core/locale"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/syncer"
	"codeberg.org/ttools/ttsync/core/translate"
)

// Syncer runs sync passes.
type Syncer interface {
	Sync(ctx context.Context, req syncer.Request) outcome.Result
	UpdateCore(ctx context.Context, wpLocales []string, opts syncer.CoreOptions) []syncer.CoreResult
}

// Catalog answers metadata queries about the translation site.
type Catalog interface {
	Locales(ctx context.Context, force bool) ([]locale.Locale, error)
	Locale(ctx context.Context, wpLocale string, force bool) (locale.Locale, error)
	CoreProject(ctx context.Context, force bool) (*translate.SubProject, outcome.Log, *outcome.Error)
	Check(ctx context.Context) *outcome.Error
}

// Defaults fills the optional fields of sync requests.
type Defaults struct {
	GeneratePHP   bool
	IncludeDomain bool
}

// API holds the dependencies of the route handlers.
type API struct {
	Syncer   Syncer
	Catalog  Catalog
	Defaults Defaults
}
