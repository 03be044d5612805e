// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package syncer

import (
	"context"

	"codeberg.org/ttools/ttsync/core/locale"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/project"
	"codeberg.org/ttools/ttsync/i18n"
)

// CoreOptions selects the outputs of a core update.
type CoreOptions struct {
	Compiled     bool
	JSON         bool
	PHP          bool
	ForceRefresh bool
}

// CoreResult is the outcome for one core subproject in one locale.
type CoreResult struct {
	Locale  string
	Project string
	Result  outcome.Result
}

// UpdateCore syncs every core subproject for each locale in wpLocales, one
// after another. Core JSON files are named without the domain.
func (s *Syncer) UpdateCore(ctx context.Context, wpLocales []string, opts CoreOptions) []CoreResult {
	var (
		selected = locale.Select(wpLocales...)
		projects = project.CoreSubprojects()
		total    = len(selected) * len(projects)
		results  = make([]CoreResult, 0, total)
		force    = opts.ForceRefresh
		index    int
	)

	for _, wpLocale := range selected {
		l, err := s.deps.Locales.Locale(ctx, wpLocale, force)
		force = false

		for _, p := range projects {
			index++

			var res outcome.Result

			res.Log.Add(i18n.Tr(ctx, "Updating translations for {{.Name}} ({{.Locale}}) ({{.Index}}/{{.Total}})",
				"Name", p.Name, "Locale", wpLocale, "Index", index, "Total", total))

			if err != nil {
				res.Err = outcome.New(outcome.KindAPIUnavailable,
					i18n.Tr(ctx, "The WordPress.org Translations API is unavailable."), err)
			} else {
				pass := s.Sync(ctx, Request{
					Project:  p,
					Locale:   l,
					Compiled: opts.Compiled,
					JSON:     opts.JSON,
					PHP:      opts.PHP,
				})

				res.Log.Append(pass.Log...)
				res.Err = pass.Err
			}

			results = append(results, CoreResult{Locale: wpLocale, Project: p.Name, Result: res})
		}
	}

	return results
}
