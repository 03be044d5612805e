// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"codeberg.org/ttools/ttsync/config"
)

// Logger is the logger of package i18n. [Setup] tags it with sys=i18n.
var Logger zerolog.Logger

// reported holds "locale\x00key" for every missing message already logged.
var reported sync.Map

func strictMissingKeys() bool {
	return config.Global.Internationalization.StrictMissingKeys
}

// reportMissing logs a missing translation once per language and key.
// Variants are ignored so "pt-PT-u-ca-gregory" and "pt-PT" share entries.
func reportMissing(tag language.Tag, key string) {
	base, script, region := tag.Raw()
	stripped, _ := language.Compose(base, script, region)

	if _, seen := reported.LoadOrStore(stripped.String()+"\x00"+key, struct{}{}); seen {
		return
	}

	Logger.Warn().
		Str("locale", stripped.String()).
		Str("key", key).
		Msg("Missing i18n translation")
}

func markMissing(text string) string {
	return "⟦" + text + "⟧"
}
