// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var errUnsupportedFieldType = errors.New("unsupported field type")

// readEnv fills the tagged fields of cfg's sections from the environment.
//
// A field tagged `env:"NAME"` is only set while it still holds its zero
// value; `env:"NAME,overwrite"` always takes the variable.
func readEnv(cfg *Config) error {
	return readEnvStruct(reflect.ValueOf(cfg).Elem())
}

func readEnvStruct(v reflect.Value) error {
	t := v.Type()

	for i := range v.NumField() {
		field, sf := v.Field(i), t.Field(i)

		name, opts, tagged := strings.Cut(sf.Tag.Get("env"), ",")
		if name == "" {
			if field.Kind() == reflect.Struct && sf.IsExported() {
				if err := readEnvStruct(field); err != nil {
					return err
				}
			}

			continue
		}

		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		if !(tagged && opts == "overwrite") && !field.IsZero() {
			continue
		}

		if err := setFromEnv(field, raw); err != nil {
			return fmt.Errorf("env var %s (%q): %w", name, raw, err)
		}
	}

	return nil
}

// setFromEnv parses raw into field. []string values are comma separated.
func setFromEnv(field reflect.Value, raw string) error {
	switch p := field.Addr().Interface().(type) {
	case *string:
		*p = raw
	case *bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		*p = b
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}

		*p = n
	case *float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}

		*p = f
	case *time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}

		*p = d
	case *[]string:
		var list []string

		for item := range strings.SplitSeq(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}

		*p = list
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFieldType, field.Type())
	}

	return nil
}

// useDotEnv exports the variables of the first .env file found in the
// working directory or next to the binary. Variables already set win.
// A missing file is not an error.
func useDotEnv() error {
	for _, path := range dotEnvCandidates() {
		data, err := os.ReadFile(path) // #nosec G304 - fixed candidate paths
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Could not read .env file")

			return nil
		}

		exportDotEnv(path, data)

		log.Info().Str("path", path).Msg("Loaded configuration from .env file")

		return nil
	}

	log.Info().Msg("No .env file found, skipping")

	return nil
}

func dotEnvCandidates() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), ".env"))
	}

	return paths
}

// exportDotEnv sets every KEY=VALUE line of data that is not yet in the
// environment. Blank lines and # comments are skipped, matching quotes
// around a value are removed.
func exportDotEnv(path string, data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			log.Warn().Str("path", path).Int("line", line).Msg("Invalid line in .env file")

			continue
		}

		key, value = strings.TrimSpace(key), unquote(strings.TrimSpace(value))

		if _, set := os.LookupEnv(key); set {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Could not set environment variable")
		}
	}
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
		return value[1 : len(value)-1]
	}

	return value
}
