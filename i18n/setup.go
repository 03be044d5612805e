// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// poDomain is the gettext domain every catalogue is loaded under.
const poDomain = "ttsync"

// Setup loads every "<locale>.po" file at the root of catalogs and makes
// them available to [Tr] and friends.
//
// The <locale> part may use hyphens or underscores, for example "pt-PT.po" or
// "pt_PT.po". Other files, such as the "ttsync.pot" template, are ignored.
// [BaseLocale] is always supported.
//
// Calling Setup again replaces the previously loaded catalogues.
func Setup(catalogs fs.FS) error {
	Logger = log.With().Str("sys", "i18n").Logger()

	entries, err := fs.ReadDir(catalogs, ".")
	if err != nil {
		return fmt.Errorf("failed to read po directory: %w", err)
	}

	var (
		byTag  = make(map[string]*gotext.Locale)
		loaded []language.Tag
	)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".po" {
			continue
		}

		t, err := language.Parse(strings.ReplaceAll(strings.TrimSuffix(name, ".po"), "_", "-"))
		if err != nil {
			Logger.Warn().Err(err).Str("file", name).Msg("Skipping invalid locale file")

			continue
		}

		po := gotext.NewPoFS(catalogs)
		po.ParseFile(name)

		// The base path is unused since the translator is added directly.
		loc := gotext.NewLocale("", t.String())
		loc.AddTranslator(poDomain, po)

		byTag[t.String()] = loc
		loaded = append(loaded, t)

		Logger.Info().
			Str("locale", t.String()).
			Str("file", name).
			Msg("Loaded locale")
	}

	current.Store(newCatalogues(byTag, loaded))

	return nil
}
