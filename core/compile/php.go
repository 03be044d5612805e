// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package compile

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"codeberg.org/ttools/ttsync/core/catalog"
	"codeberg.org/ttools/ttsync/core/fsys"
)

// PHP encodes cat as a WordPress .l10n.php translation file: a PHP array of
// lower-cased headers plus a "messages" map. Plural translations are joined
// with NUL bytes and keyed by the singular original.
func PHP(cat *catalog.Catalog) []byte {
	var b bytes.Buffer

	b.WriteString("<?php\nreturn [")

	for _, h := range cat.Headers() {
		b.WriteString(phpString(strings.ToLower(h.Name)))
		b.WriteString("=>")
		b.WriteString(phpString(h.Value))
		b.WriteString(",")
	}

	b.WriteString(`'messages'=>[`)

	for _, e := range cat.Entries() {
		if e.Disabled || !e.IsTranslated() {
			continue
		}

		value := e.Translation()
		if e.Plural != "" {
			value = strings.Join(e.Translations, "\x00")
		}

		b.WriteString(phpString(e.Key()))
		b.WriteString("=>")
		b.WriteString(phpString(value))
		b.WriteString(",")
	}

	b.WriteString("]];\n")

	return b.Bytes()
}

// WritePHP encodes cat and writes it to name.
func WritePHP(fs afero.Fs, name string, cat *catalog.Catalog) error {
	return fsys.WriteFile(fs, name, PHP(cat))
}

// phpString renders s as a double-quoted PHP string literal. Control bytes
// are written as \xHH escapes.
func phpString(s string) string {
	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := range len(s) {
		c := s[i]

		switch {
		case c == '\\' || c == '"' || c == '$':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c == 0x7f:
			b.WriteString(`\x`)

			if c < 0x10 {
				b.WriteByte('0')
			}

			b.WriteString(strconv.FormatUint(uint64(c), 16))
		default:
			b.WriteByte(c)
		}
	}

	b.WriteByte('"')

	return b.String()
}
