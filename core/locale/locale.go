// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package locale describes the WordPress locales translations are fetched for.
package locale

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// DefaultVariant is the translate-site variant used when none is given.
const DefaultVariant = "default"

// SourceLocale is the locale strings are written in; it never needs updating.
const SourceLocale = "en_US"

var errEmptyLocale = errors.New("empty locale")

// Locale is a read-only record of one WordPress locale.
type Locale struct {
	// WPLocale is the WordPress locale, e.g. "pt_PT". It names the files.
	WPLocale string

	// Slug and Variant address the locale on the translate site, e.g. "pt" and "default".
	Slug    string
	Variant string

	EnglishName      string
	NativeName       string
	NPlurals         int
	PluralExpression string
	HasLanguagePack  bool

	tag language.Tag
}

// Option sets optional fields of a [Locale].
type Option func(*Locale)

func WithSlug(slug string) Option       { return func(l *Locale) { l.Slug = slug } }
func WithVariant(variant string) Option { return func(l *Locale) { l.Variant = variant } }

func WithNames(english, native string) Option {
	return func(l *Locale) { l.EnglishName, l.NativeName = english, native }
}

func WithPlurals(n int, expression string) Option {
	return func(l *Locale) { l.NPlurals, l.PluralExpression = n, expression }
}

func WithLanguagePack(has bool) Option { return func(l *Locale) { l.HasLanguagePack = has } }

// New validates wpLocale as a BCP 47 tag (with "_" read as "-") and returns
// its record. Without [WithSlug] the slug is the lower-cased language subtag.
func New(wpLocale string, opts ...Option) (Locale, error) {
	if wpLocale == "" {
		return Locale{}, errEmptyLocale
	}

	tag, err := ParseTag(wpLocale)
	if err != nil {
		return Locale{}, err
	}

	l := Locale{WPLocale: wpLocale, tag: tag}

	for _, opt := range opts {
		opt(&l)
	}

	if l.Slug == "" {
		base, _ := tag.Base()
		l.Slug = strings.ToLower(base.String())
	}

	if l.Variant == "" {
		l.Variant = DefaultVariant
	}

	return l, nil
}

// ParseTag parses a WordPress locale such as "pt_PT" or "de_DE_formal".
// Trailing WordPress-only variants that are not valid BCP 47 are dropped.
func ParseTag(wpLocale string) (language.Tag, error) {
	s := strings.ReplaceAll(wpLocale, "_", "-")

	tag, err := language.Parse(s)
	if err == nil {
		return tag, nil
	}

	if i := strings.LastIndexByte(s, '-'); i > 0 {
		if tag, err2 := language.Parse(s[:i]); err2 == nil {
			return tag, nil
		}
	}

	return language.Tag{}, fmt.Errorf("invalid locale %q: %w", wpLocale, err)
}

// PathSlug returns "slug/variant" as used in translate-site URLs.
func (l Locale) PathSlug() string {
	return l.Slug + "/" + l.Variant
}

// Tag returns the BCP 47 tag of l.
func (l Locale) Tag() language.Tag {
	return l.tag
}

// Select returns the locales that need core updates: empty values and
// [SourceLocale] removed, duplicates dropped, sorted.
func Select(wpLocales ...string) []string {
	out := make([]string, 0, len(wpLocales))

	for _, l := range wpLocales {
		if l = strings.TrimSpace(l); l == "" || l == SourceLocale {
			continue
		}

		out = append(out, l)
	}

	slices.Sort(out)

	return slices.Compact(out)
}
