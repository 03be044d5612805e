// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/user"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
	errInvalidBaseURL               = errors.New("Translate.BaseURL must be an absolute http(s) URL")
	errInvalidStatusFilter          = errors.New("invalid Translate.StatusFilter")
	errInvalidTimeout               = errors.New("Translate.Timeout must be positive")
	errInvalidCoreVersion           = errors.New("Translate.CoreVersion must look like 6.4 or 6.4.2")
	errEmptyLanguagesDir            = errors.New("Translate.LanguagesDir cannot be empty")
	errInvalidCacheSize             = errors.New("Cache.Size must be positive when the cache is enabled")
	errInvalidLimiterRate           = errors.New("Limiter.Rate and Limiter.Burst must be positive when the limiter is enabled")
	errInvalidLogFormat             = errors.New("Log.Format must be console or json")
)

// StatusFilters are the GlotPress translation statuses accepted for export.
var StatusFilters = []string{
	"current",
	"waiting",
	"fuzzy",
	"untranslated",
	"rejected",
	"old",
	"current_or_waiting",
	"current_or_waiting_or_fuzzy",
	"current_or_waiting_or_fuzzy_or_untranslated",
	"all",
}

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
	coreVersionRegexp    = regexp.MustCompile(`^[0-9]+\.[0-9]+(?:\.[0-9]+)?(?:-[0-9A-Za-z.]+)?$`)
)

// validateAndSet validates the configuration and populates derived fields.
func (cfg *Config) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	baseURL, err := parseBaseURL(cfg.Translate.BaseURL)
	if err != nil {
		return err
	}

	cfg.Translate.BaseURL = baseURL

	if !slices.Contains(StatusFilters, cfg.Translate.StatusFilter) {
		return fmt.Errorf("%w: %q", errInvalidStatusFilter, cfg.Translate.StatusFilter)
	}

	if cfg.Translate.Timeout <= 0 {
		return errInvalidTimeout
	}

	if cfg.Translate.CoreVersion != "" && !coreVersionRegexp.MatchString(cfg.Translate.CoreVersion) {
		return fmt.Errorf("%w: %q", errInvalidCoreVersion, cfg.Translate.CoreVersion)
	}

	if strings.TrimSpace(cfg.Translate.LanguagesDir) == "" {
		return errEmptyLanguagesDir
	}

	if cfg.Cache.Enabled && cfg.Cache.Size <= 0 {
		return errInvalidCacheSize
	}

	if cfg.Limiter.Enabled && (cfg.Limiter.Rate <= 0 || cfg.Limiter.Burst <= 0) {
		return errInvalidLimiterRate
	}

	switch cfg.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w, got %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}

func (cfg *Config) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8383"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		return nil
	}

	if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
		return errUnixSocketWithHostPort
	}

	mode, err := parseFileMode(cfg.Basic.RawUnixSocketPermissions)
	if err != nil {
		return err
	}

	cfg.Basic.UnixSocketPermissions = mode

	if u := cfg.Basic.UnixSocketUser; u != "" {
		lookup := func(s string) error { _, err := user.Lookup(s); return err }
		if digitsRegexp.MatchString(u) {
			lookup = func(s string) error { _, err := user.LookupId(s); return err }
		}

		if lookup(u) != nil {
			return errUnixSocketUserDoesNotExist
		}
	}

	if g := cfg.Basic.UnixSocketGroup; g != "" {
		lookup := func(s string) error { _, err := user.LookupGroup(s); return err }
		if digitsRegexp.MatchString(g) {
			lookup = func(s string) error { _, err := user.LookupGroupId(s); return err }
		}

		if lookup(g) != nil {
			return errUnixSocketGroupDoesNotExist
		}
	}

	return nil
}

// parseFileMode accepts "660", "0660" or "rw-rw----". Empty means 0o666.
func parseFileMode(raw string) (os.FileMode, error) {
	switch {
	case raw == "":
		return 0o666, nil
	case fileModeOctalRegexp.MatchString(raw):
		mode, _ := strconv.ParseUint(raw, 8, 32)

		return os.FileMode(mode), nil
	case fileModeStringRegexp.MatchString(raw):
		const bits = 8

		mode := os.FileMode(0)

		for i, c := range raw {
			if c != '-' {
				mode |= 1 << (bits - i)
			}
		}

		return mode, nil
	default:
		return 0, errUnixSocketInvalidPermissions
	}
}

// parseBaseURL requires an absolute http(s) URL and returns it with a trailing slash.
func parseBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidBaseURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w, got %q", errInvalidBaseURL, raw)
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return u.String(), nil
}
