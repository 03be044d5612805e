// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/rs/zerolog/log"
)

func (cfg *Config) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Str("instance", cfg.Instance.ID).
		Msg("Starting ttsync")

	// Credentials embedded in the base URL are never printed.
	printable := *cfg
	if u, err := url.Parse(printable.Translate.BaseURL); err == nil {
		printable.Translate.BaseURL = u.Redacted()
	}

	configYAML, err := printable.Marshal()
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Info().
		Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}
