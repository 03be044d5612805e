// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// Vars holds the named placeholder values of a message.
type Vars map[string]any

// Tr translates msgid into the language carried by ctx and fills its
// {{.Name}} placeholders from kv, given as alternating name, value pairs.
//
// A msgid without translation is returned unchanged, or wrapped in "⟦⟧"
// in strict mode.
func Tr(ctx context.Context, msgid string, kv ...any) string {
	return message{singular: msgid}.render(ctx, kv)
}

// TrC is [Tr] with a disambiguating gettext context (pgettext).
func TrC(ctx context.Context, contextKey, msgid string, kv ...any) string {
	return message{context: contextKey, singular: msgid}.render(ctx, kv)
}

// TrN picks the plural form for n. Without a translation, singular is used
// when n == 1 and plural otherwise. n is not added to the placeholders.
func TrN(ctx context.Context, singular, plural string, n int, kv ...any) string {
	return message{singular: singular, plural: plural, n: n, counted: true}.render(ctx, kv)
}

// TrNC is [TrN] with a disambiguating gettext context (npgettext).
func TrNC(ctx context.Context, contextKey, singular, plural string, n int, kv ...any) string {
	return message{context: contextKey, singular: singular, plural: plural, n: n, counted: true}.render(ctx, kv)
}

// message is one lookup: a msgid, its optional context and, when counted,
// its plural msgid and count.
type message struct {
	context  string
	singular string
	plural   string
	n        int
	counted  bool
}

// key is the gettext identity of m, "context\x04msgid" when m has a context.
func (m message) key() string {
	if m.context == "" {
		return m.singular
	}

	return m.context + gotext.EotSeparator + m.singular
}

func (m message) untranslated() string {
	if m.counted && m.n != 1 {
		return m.plural
	}

	return m.singular
}

func (m message) lookup(loc *gotext.Locale) (string, bool) {
	switch {
	case m.counted && m.context != "":
		if loc.IsTranslatedNDC(poDomain, m.singular, m.n, m.context) {
			return loc.GetNDC(poDomain, m.singular, m.plural, m.n, m.context), true
		}
	case m.counted:
		if loc.IsTranslatedND(poDomain, m.singular, m.n) {
			return loc.GetND(poDomain, m.singular, m.plural, m.n), true
		}
	case m.context != "":
		if loc.IsTranslatedDC(poDomain, m.singular, m.context) {
			return loc.GetDC(poDomain, m.singular, m.context), true
		}
	default:
		if loc.IsTranslatedD(poDomain, m.singular) {
			return loc.GetD(poDomain, m.singular), true
		}
	}

	return "", false
}

func (m message) render(ctx context.Context, kv []any) string {
	loc, tag := current.Load().resolve(TagFrom(ctx))

	text, ok := "", false
	if loc != nil {
		text, ok = m.lookup(loc)
	}

	if !ok {
		text = m.untranslated()

		// The base locale has no catalogue; its msgids are the translations.
		if tag != baseTag && strictMissingKeys() {
			reportMissing(tag, m.key())

			text = markMissing(text)
		}
	}

	return fill(tag, text, pairs(kv))
}

// templates caches parsed placeholder templates by their text.
var templates sync.Map // string -> *template.Template

// fill substitutes the placeholders of text. A template that does not parse
// or references a missing value leaves text as is, so a broken translation
// never drops a log line.
func fill(tag language.Tag, text string, vars Vars) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	tmpl, err := parsed(text)
	if err == nil {
		var buf bytes.Buffer

		if err = tmpl.Execute(&buf, map[string]any(vars)); err == nil {
			return buf.String()
		}
	}

	Logger.Warn().
		Err(err).
		Str("locale", tag.String()).
		Str("text", text).
		Msg("Failed to fill message placeholders")

	if strictMissingKeys() {
		return markMissing(text)
	}

	return text
}

func parsed(text string) (*template.Template, error) {
	if t, ok := templates.Load(text); ok {
		return t.(*template.Template), nil //nolint:forcetypeassert
	}

	t, err := template.New("msg").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}

	templates.Store(text, t)

	return t, nil
}

// pairs builds Vars from alternating name, value arguments. It panics on an
// odd count or a non-string name since both are programming errors.
func pairs(kv []any) Vars {
	if len(kv)%2 != 0 {
		panic("i18n: odd number of placeholder arguments")
	}

	vars := make(Vars, len(kv)/2)

	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic("i18n: placeholder name must be a string")
		}

		vars[name] = kv[i+1]
	}

	return vars
}
