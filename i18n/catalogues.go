// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"slices"
	"strings"
	"sync/atomic"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// BaseLocale is the language of every msgid and the fallback for lookups.
const BaseLocale = "en"

var baseTag = language.Make(BaseLocale)

// catalogues is the state installed by [Setup]. It is replaced as a whole,
// never mutated.
type catalogues struct {
	byTag   map[string]*gotext.Locale
	tags    []language.Tag // baseTag first
	matcher language.Matcher
}

var current atomic.Pointer[catalogues]

func newCatalogues(byTag map[string]*gotext.Locale, loaded []language.Tag) *catalogues {
	tags := []language.Tag{baseTag}

	for _, t := range loaded {
		if t != baseTag {
			tags = append(tags, t)
		}
	}

	slices.SortFunc(tags[1:], compareTags)

	return &catalogues{
		byTag:   byTag,
		tags:    tags,
		matcher: language.NewMatcher(tags),
	}
}

// match returns the best supported tag for the preferences, which may be
// BCP 47 tags or Accept-Language values. No preferences yields baseTag.
func (c *catalogues) match(preferred ...string) language.Tag {
	if c == nil || len(preferred) == 0 {
		return baseTag
	}

	tag, _ := language.MatchStrings(c.matcher, preferred...)

	return tag
}

// resolve returns the loaded locale for t, which is nil for BaseLocale.
func (c *catalogues) resolve(t language.Tag) (*gotext.Locale, language.Tag) {
	if c == nil {
		return nil, baseTag
	}

	matched := c.match(t.String())

	return c.byTag[matched.String()], matched
}

func compareTags(a, b language.Tag) int {
	return strings.Compare(a.String(), b.String())
}

// Languages returns the supported tags sorted by their string form. The
// slice is a copy.
//
// It panics when [Setup] has not been called.
func Languages() []language.Tag {
	c := current.Load()
	if c == nil {
		panic("i18n: Setup must be called before calling Languages")
	}

	out := slices.Clone(c.tags)
	slices.SortFunc(out, compareTags)

	return out
}
