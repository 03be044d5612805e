// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package jsplit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"codeberg.org/ttools/ttsync/core/catalog"
)

// DefaultDomain is the JED domain used when the catalog has none.
const DefaultDomain = "messages"

const defaultLang = "en"

var errInvalidJSON = errors.New("existing catalog is not valid JSON")

type jedFile struct {
	TranslationRevisionDate string                    `json:"translation-revision-date"`
	Generator               string                    `json:"generator"`
	Domain                  string                    `json:"domain"`
	LocaleData              map[string]map[string]any `json:"locale_data"`
	Comment                 jedComment                `json:"comment"`
}

type jedConfig struct {
	Domain      string `json:"domain"`
	PluralForms string `json:"plural-forms"`
	Lang        string `json:"lang"`
}

type jedComment struct {
	Reference string `json:"reference"`
}

func jedDomain(sub *catalog.Catalog) string {
	if d := sub.Domain(); d != "" {
		return d
	}

	return DefaultDomain
}

// Encode renders sub in the wordpress.org JED layout.
//
// Message keys are sorted, with the "" configuration record first. Disabled
// entries are skipped. A message holds the singular translation followed by
// the plural forms when at least one of them is non-empty.
func Encode(sub *catalog.Catalog, generator string) ([]byte, error) {
	domain := jedDomain(sub)

	cfg := jedConfig{
		Domain:      domain,
		PluralForms: catalog.DefaultPluralRule.String(),
		Lang:        defaultLang,
	}

	if sub.HasPluralForms() {
		cfg.PluralForms = sub.PluralForms()
	}

	if lang := sub.Language(); lang != "" {
		cfg.Lang = lang
	}

	messages := map[string]any{"": cfg}

	for _, e := range sub.Entries() {
		if e.Disabled {
			continue
		}

		messages[e.Key()] = message(sub, e)
	}

	file := jedFile{
		TranslationRevisionDate: sub.Header(catalog.HeaderRevisionDate),
		Generator:               generator,
		Domain:                  domain,
		LocaleData:              map[string]map[string]any{domain: messages},
		Comment:                 jedComment{Reference: sub.Header(catalog.HeaderSource)},
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("failed to encode JSON catalog: %w", err)
	}

	return buf.Bytes(), nil
}

func message(sub *catalog.Catalog, e *catalog.Entry) []string {
	if e.Verbatim {
		return append([]string{}, e.Translations...)
	}

	msg := []string{e.Translation()}

	if !e.HasPluralTranslations() {
		return msg
	}

	plurals := e.PluralTranslations()

	if sub.HasPluralForms() {
		want := max(sub.PluralRule().Count-1, 0)

		switch {
		case len(plurals) > want:
			plurals = plurals[:want]
		case len(plurals) < want:
			plurals = append(plurals, make([]string, want-len(plurals))...)
		}
	}

	return append(msg, plurals...)
}

// Merge re-inserts into sub every message of the existing JED document that
// sub does not already carry, and reports how many were added. Re-inserted
// messages keep their stored translation list. Messages are read from
// locale_data under sub's domain, falling back to "messages" and then to the
// only domain present. Values that are neither a string nor an array of
// strings are skipped.
func Merge(sub *catalog.Catalog, existing []byte) (added int, err error) {
	if !gjson.ValidBytes(existing) {
		return 0, errInvalidJSON
	}

	messages := existingMessages(gjson.GetBytes(existing, "locale_data"), jedDomain(sub))
	if !messages.IsObject() {
		return 0, nil
	}

	skipped := 0

	messages.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if k == "" {
			return true
		}

		if _, ok := sub.Get(k); ok {
			return true
		}

		translations, ok := stringList(value)
		if !ok {
			skipped++

			return true
		}

		ctx, original := catalog.SplitKey(k)

		e, err := catalog.NewEntry(ctx, original, translations...)
		if err != nil {
			skipped++

			return true
		}

		e.Verbatim = true
		sub.Add(e)
		added++

		return true
	})

	if skipped > 0 {
		log.Debug().
			Str("sys", "jsplit").
			Int("skipped", skipped).
			Msg("Skipped existing JSON messages that are not strings")
	}

	return added, nil
}

// stringList reads a JED message value: a string or an array of strings.
func stringList(value gjson.Result) ([]string, bool) {
	if value.Type == gjson.String {
		return []string{value.Str}, true
	}

	if !value.IsArray() {
		return nil, false
	}

	items := value.Array()
	out := make([]string, 0, len(items))

	for _, item := range items {
		if item.Type != gjson.String {
			return nil, false
		}

		out = append(out, item.Str)
	}

	return out, true
}

// existingMessages returns localeData[domain], then localeData["messages"],
// then the only member of localeData. Keys are matched literally since
// domains may contain path syntax.
func existingMessages(localeData gjson.Result, domain string) gjson.Result {
	var (
		found, fallback, only gjson.Result
		onlyKey               string
		members               int
	)

	localeData.ForEach(func(key, value gjson.Result) bool {
		members++
		onlyKey, only = key.String(), value

		switch key.String() {
		case domain:
			found = value
			return false
		case DefaultDomain:
			fallback = value
		}

		return true
	})

	switch {
	case found.Exists():
		return found
	case fallback.Exists():
		return fallback
	case members == 1:
		log.Debug().
			Str("sys", "jsplit").
			Str("domain", domain).
			Str("used", onlyKey).
			Msg("Merging existing JSON messages from a different domain")

		return only
	default:
		return gjson.Result{}
	}
}
