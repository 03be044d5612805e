// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/ttools/ttsync/core/audit"
)

const logFilePermissions = 0o666

// setupAudit installs the global logger and the response recorder.
func (cfg *Config) setupAudit() error {
	if !cfg.Development.InDevelopment {
		if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil && level != zerolog.NoLevel {
			zerolog.SetGlobalLevel(level)
		}
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	writers := []io.Writer{}

	if len(cfg.Log.Outputs) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	for _, output := range cfg.Log.Outputs {
		var w io.Writer

		switch output {
		case "/dev/stdout":
			w = ConsoleWriter(os.Stdout)
		case "/dev/stderr":
			w = ConsoleWriter(os.Stderr)
		default:
			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec:G302,G304
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)

				continue
			}

			if cfg.Log.Format == "json" {
				w = file
			} else {
				w = ConsoleWriter(file)
			}
		}

		writers = append(writers, w)
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))

	dir := ""
	if cfg.Development.SaveResponses {
		dir = cfg.Development.ResponseSaveLocation
	}

	if err := audit.SaveResponsesTo(dir); err != nil {
		return fmt.Errorf("failed to prepare response directory %s: %w", dir, err)
	}

	return nil
}

// ConsoleWriter returns a human-readable zerolog writer for f, coloured only on terminals.
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd())

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			// Outbound requests are printed as one line.
			if sys, ok := m["sys"]; ok && sys == "http" {
				m["message"] = fmt.Sprintf("[%s] %v %-5s %s", m["destination"], m["status_code"], m["method"], m["url"])
				for _, k := range []string{"sys", "method", "status_code", "url", "destination", "request_id"} {
					delete(m, k)
				}
			}

			return nil
		}
	}

	return w
}
