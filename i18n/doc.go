// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n translates the log lines a sync pass reports back to its caller.
It is backed by GNU gettext .po catalogues and supports both context and
plural forms.

# Quick start

Use the original English text as the msgid; do not invent keys.

	i18n.Tr(ctx, "Nothing to do.")
	i18n.TrC(ctx, "status", "current")
	i18n.TrN(ctx, "{{.Count}} file", "{{.Count}} files", n, "Count", n)

Messages that are picked before the locale is known can be stored as a
[MsgKey] and translated later.

# Missing translations

By default, missing translations return the msgid unchanged. When
StrictMissingKeys is enabled, missing lookups are logged once
per locale+key and the returned text is visibly wrapped as "⟦...⟧".

# Formatting

Placeholders are processed by text/template. Provide substitutions as
alternating key-value pairs:

	i18n.Tr(ctx, "Saving file {{.File}}…", "File", name)

Numbers are not localised automatically.
*/
package i18n
