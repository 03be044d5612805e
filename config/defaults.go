// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	defaultCacheTTL         = time.Hour
	defaultTranslateTimeout = 15 * time.Second
	defaultLimiterIdle      = 10 * time.Minute
)

// SetDefaults populates the configuration with default values.
func (cfg *Config) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "8383"

	cfg.Translate.BaseURL = "https://translate.wordpress.org/"
	cfg.Translate.StatusFilter = "current"
	cfg.Translate.Timeout = defaultTranslateTimeout
	cfg.Translate.UserAgent = "ttsync/" + BuildVersion
	cfg.Translate.CoreVersion = ""
	cfg.Translate.LanguagesDir = "./languages"

	cfg.Output.GeneratePHP = false
	cfg.Output.IncludeDomain = true

	cfg.Cache.Enabled = true
	cfg.Cache.Size = 100
	cfg.Cache.TTL = defaultCacheTTL
	cfg.Cache.Compress = true

	cfg.Development.SaveResponses = false
	cfg.Development.ResponseSaveLocation = "/tmp/ttsync/responses"

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = false
	cfg.Limiter.Rate = 1
	cfg.Limiter.Burst = 5
	cfg.Limiter.IdleTimeout = defaultLimiterIdle

	cfg.Internationalization.StrictMissingKeys = false
}
