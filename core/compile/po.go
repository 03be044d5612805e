// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package compile

import (
	"strconv"
	"strings"

	"codeberg.org/ttools/ttsync/core/catalog"
)

// ExtPOT is the extension of gettext templates.
const ExtPOT = "pot"

var poEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

// PO renders cat as gettext source text. Disabled entries are left out.
// Plural entries get at least as many msgstr[n] lines as the catalog's plural
// rule asks for, empty when untranslated.
func PO(cat *catalog.Catalog) []byte {
	var b strings.Builder

	writePOString(&b, "msgid", "")
	writePOString(&b, "msgstr", cat.HeaderBlock())

	nplurals := cat.PluralRule().Count

	for _, e := range cat.Entries() {
		if e.Disabled {
			continue
		}

		b.WriteString("\n")

		if len(e.Flags) > 0 {
			b.WriteString("#, " + strings.Join(e.Flags, ", ") + "\n")
		}

		if len(e.References) > 0 {
			b.WriteString("#:")

			for _, ref := range e.References {
				b.WriteString(" " + ref.String())
			}

			b.WriteString("\n")
		}

		if e.Context != "" {
			writePOString(&b, "msgctxt", e.Context)
		}

		writePOString(&b, "msgid", e.Original)

		if e.Plural == "" {
			writePOString(&b, "msgstr", e.Translation())

			continue
		}

		writePOString(&b, "msgid_plural", e.Plural)

		forms := e.Translations
		for len(forms) < nplurals {
			forms = append(forms, "")
		}

		for i, form := range forms {
			writePOString(&b, "msgstr["+strconv.Itoa(i)+"]", form)
		}
	}

	return []byte(b.String())
}

// writePOString writes keyword followed by s. Values spanning several lines
// start with an empty string and continue with one quoted line per line.
func writePOString(b *strings.Builder, keyword, s string) {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) <= 1 {
		b.WriteString(keyword + ` "` + poEscaper.Replace(s) + "\"\n")

		return
	}

	b.WriteString(keyword + " \"\"\n")

	for _, line := range lines {
		b.WriteString(`"` + poEscaper.Replace(line) + "\"\n")
	}
}
