// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package audit logs HTTP exchanges and exposes them as Server-Timing metrics.
package audit

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDefaultLogger installs a console logger for use before the
// configuration has been loaded.
func SetDefaultLogger() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	})
}
