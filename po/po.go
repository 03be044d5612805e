// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package po embeds the gettext catalogues used to translate sync log lines.
package po

import "embed"

// FS holds one "<locale>.po" file per supported language.
//
//go:embed *.po
var FS embed.FS
