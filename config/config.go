// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package config loads the ttsync configuration.

Values are applied in order of increasing precedence: built-in defaults, the
YAML configuration file, a .env file and finally environment variables.
*/
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	_ "codeberg.org/ttools/ttsync/core/audit" // setup better logging format
	"codeberg.org/ttools/ttsync/core/idgen"
)

// Global exposes the service configuration.
var Global Config

// Config holds the application configuration.
type Config struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"TTSYNC_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"TTSYNC_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"TTSYNC_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"TTSYNC_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"TTSYNC_UNIXSOCKET_USER" yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"TTSYNC_UNIXSOCKET_GROUP" yaml:"unixSocketGroup"`
	} `yaml:"basic"`

	Translate struct {
		// BaseURL is the root of a GlotPress instance.
		BaseURL      string        `env:"TTSYNC_TRANSLATE_BASE_URL,overwrite" yaml:"baseUrl"`
		StatusFilter string        `env:"TTSYNC_TRANSLATE_STATUS_FILTER,overwrite" yaml:"statusFilter"`
		Timeout      time.Duration `env:"TTSYNC_TRANSLATE_TIMEOUT,overwrite" yaml:"timeout"`
		UserAgent    string        `env:"TTSYNC_TRANSLATE_USER_AGENT,overwrite" yaml:"userAgent"`

		// CoreVersion selects the WordPress release whose core translations
		// are preferred, e.g. "6.4.2". Empty means development only.
		CoreVersion string `env:"TTSYNC_CORE_VERSION,overwrite" yaml:"coreVersion"`

		// LanguagesDir receives every generated file.
		LanguagesDir string `env:"TTSYNC_LANGUAGES_DIR,overwrite" yaml:"languagesDir"`
	} `yaml:"translate"`

	Output struct {
		GeneratePHP   bool `env:"TTSYNC_GENERATE_PHP,overwrite" yaml:"generatePhp"`
		IncludeDomain bool `env:"TTSYNC_INCLUDE_DOMAIN,overwrite" yaml:"includeDomain"`
	} `yaml:"output"`

	Cache struct {
		Enabled  bool          `env:"TTSYNC_CACHE,overwrite" yaml:"enabled"`
		Size     int           `env:"TTSYNC_CACHE_SIZE,overwrite" yaml:"cacheSize"`
		TTL      time.Duration `env:"TTSYNC_CACHE_TTL,overwrite" yaml:"cacheTTL"`
		Compress bool          `env:"TTSYNC_CACHE_COMPRESS,overwrite" yaml:"compress"`
	} `yaml:"cache"`

	Instance struct {
		StartingTime string `yaml:"-"`
		ID           string `yaml:"-"`
	} `yaml:"-"`

	Development struct {
		InDevelopment        bool   `env:"TTSYNC_DEV" yaml:"inDevelopment"`
		SaveResponses        bool   `env:"TTSYNC_SAVE_RESPONSES,overwrite" yaml:"saveResponses"`
		ResponseSaveLocation string `env:"TTSYNC_RESPONSE_SAVE_LOCATION,overwrite" yaml:"responseSaveLocation"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"TTSYNC_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"TTSYNC_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"TTSYNC_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled bool `env:"TTSYNC_LIMITER,overwrite" yaml:"enabled"`

		// Rate is the sustained number of sync requests per second per client.
		Rate  float64 `env:"TTSYNC_LIMITER_RATE,overwrite" yaml:"rate"`
		Burst int     `env:"TTSYNC_LIMITER_BURST,overwrite" yaml:"burst"`

		// IdleTimeout drops the bucket of a client that has been quiet this long.
		IdleTimeout time.Duration `env:"TTSYNC_LIMITER_IDLE_TIMEOUT,overwrite" yaml:"idleTimeout"`
	} `yaml:"limiter"`

	Internationalization struct {
		// Strict mode for missing keys.
		//
		// When enabled, missing keys are logged (deduplicated per locale+key) and
		// visibly wrapped using markers.
		StrictMissingKeys bool `env:"TTSYNC_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`
	} `yaml:"internationalization"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *Config) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	var configFilePath string

	// Precedence: -config flag, TTSYNC_CONFIGFILE, then ./config.yaml or ./config.yml.
	if configFlagUserSet {
		configFilePath = parsedConfigFlagValue
	} else if envVar := os.Getenv("TTSYNC_CONFIGFILE"); envVar != "" {
		configFilePath = envVar
	} else {
		configFilePath = parsedConfigFlagValue
		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			ymlPath := "./config.yml"
			if _, statErr := os.Stat(ymlPath); statErr == nil {
				configFilePath = ymlPath
			}
		}
	}

	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.ID = idgen.Make()
	cfg.Instance.StartingTime = time.Now().UTC().Format(time.RFC3339)

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if err := cfg.setupAudit(); err != nil {
		return err
	}

	cfg.print()

	if isContainerized() && cfg.Basic.UnixSocket == "" && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a container but host is not a wildcard address (e.g., '0.0.0.0' or '::'). The API may not be reachable from outside the container.")
	}

	return nil
}

// Generator returns the value written to the "generator" field of JSON catalogs.
func (cfg *Config) Generator() string {
	return "ttsync/" + strings.TrimPrefix(BuildVersion, "v")
}

// ShouldSkipServerLogging reports whether requests to path are left out of the access log.
func (cfg *Config) ShouldSkipServerLogging(path string) bool {
	return path == "/api/health" && !cfg.Development.InDevelopment
}

// isContainerized checks for common indicators of a containerized environment.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	for _, marker := range []string{"/.dockerenv", "/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}

	// #nosec G304 -- well-known system file
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}

	content := string(cgroup)
	for _, keyword := range []string{"docker", "kubepods", "containerd", "lxc", "crio", ".machine"} {
		if strings.Contains(content, keyword) {
			return true
		}
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
