// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package syncer

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/core/fetch"
	"codeberg.org/ttools/ttsync/core/fsys"
	"codeberg.org/ttools/ttsync/core/requests"
	"codeberg.org/ttools/ttsync/core/translate"
)

// Setup builds a syncer and its translation site client from [config.Global].
func Setup() (*Syncer, *translate.Client, error) {
	cfg := config.Global.Translate

	cache, err := requests.Setup()
	if err != nil {
		return nil, nil, err
	}

	fs, err := fsys.New(cfg.LanguagesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open languages directory: %w", err)
	}

	hc := requests.NewClient(nil, cfg.UserAgent)

	client := translate.New(hc, cache, translate.Options{
		BaseURL:      cfg.BaseURL,
		StatusFilter: cfg.StatusFilter,
		Timeout:      cfg.Timeout,
		CoreVersion:  cfg.CoreVersion,
		CacheTTL:     config.Global.Cache.TTL,
	})

	s := New(Deps{
		FS:        fs,
		Fetcher:   fetch.New(hc, cfg.Timeout),
		Resolver:  client,
		Locales:   client,
		Generator: config.Global.Generator(),
	})

	log.Info().
		Str("languages_dir", cfg.LanguagesDir).
		Str("core_version", cfg.CoreVersion).
		Msg("Initialized syncer")

	return s, client, nil
}
