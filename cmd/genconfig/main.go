// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command genconfig writes the example .env and config.yaml files under
// deploy/ from the configuration defaults.
package main

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/core/audit"
)

const (
	envFile  = "deploy/.env.example"
	yamlFile = "deploy/config.yaml.example"

	exampleCoreVersion = "6.8.1"

	banner = `# ttsync configuration (%s)
#
# Copy this file to %s and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
	proxyNote = `## Network proxy settings
## ref: https://pkg.go.dev/net/http#ProxyFromEnvironment
# HTTPS_PROXY=
# HTTP_PROXY=
`
	coreVersionNote = "# -- The installed WordPress version; core translations of its branch are preferred"
)

// Variables written uncommented in the .env example.
var essentialEnv = map[string]bool{
	"TTSYNC_HOST":          true,
	"TTSYNC_PORT":          true,
	"TTSYNC_LANGUAGES_DIR": true,
	"TTSYNC_CORE_VERSION":  true,
}

func main() {
	audit.SetDefaultLogger()

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Translate.CoreVersion = exampleCoreVersion

	yml, err := yamlExample(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	for path, data := range map[string][]byte{envFile: envExample(cfg), yamlFile: yml} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to write example")
		}

		log.Info().Str("path", path).Msg("Generated example")
	}
}

// envExample lists every env-tagged option grouped by section. Options
// outside essentialEnv are commented out, and empty values are left blank.
func envExample(cfg *config.Config) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, banner+"\n", "via environment variables", ".env")

	root := reflect.ValueOf(cfg).Elem()

	for i := range root.NumField() {
		section := root.Field(i)
		if section.Kind() != reflect.Struct || root.Type().Field(i).Name == "Build" {
			continue
		}

		var lines []string

		for j := range section.NumField() {
			tag, ok := section.Type().Field(j).Tag.Lookup("env")
			if !ok {
				continue
			}

			name, _, _ := strings.Cut(tag, ",")
			v := section.Field(j)

			switch {
			case essentialEnv[name]:
				lines = append(lines, fmt.Sprintf("%s=%q", name, fmt.Sprint(v.Interface())))
			case v.Kind() == reflect.Slice || v.IsZero() && v.Kind() == reflect.String:
				lines = append(lines, "# "+name+"=")
			default:
				lines = append(lines, fmt.Sprintf("# %s=%v", name, v.Interface()))
			}
		}

		if len(lines) > 0 {
			fmt.Fprintf(&b, "## %s\n%s\n\n", root.Type().Field(i).Name, strings.Join(lines, "\n"))
		}
	}

	b.WriteString(proxyNote + "\n")

	return b.Bytes()
}

// yamlExample renders the defaults as YAML with every option commented out
// except the core version.
func yamlExample(cfg *config.Config) ([]byte, error) {
	raw, err := yaml.MarshalWithOptions(cfg, config.GetDurationEncoderOption(), yaml.Indent(2))
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer

	fmt.Fprintf(&b, banner, "via configuration file", "config.yaml")

	for line := range strings.SplitSeq(string(raw), "\n") {
		body := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(body)]

		switch {
		case strings.TrimSpace(line) == "":
		case indent == "":
			fmt.Fprintf(&b, "\n%s\n", line)
		case strings.HasPrefix(body, "coreVersion:"):
			fmt.Fprintf(&b, "%s%s\n%s\n", indent, coreVersionNote, line)
		default:
			fmt.Fprintf(&b, "%s# %s\n", indent, body)
		}
	}

	return b.Bytes(), nil
}
