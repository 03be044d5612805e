// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package catalog models a gettext translation catalog for one project and locale.

A [Catalog] carries the catalog-wide metadata (domain, language, plural rule and
the remaining header fields, in their original order) plus an ordered set of
[Entry] values keyed by context and original string. Catalogs are produced by
[Parse] and consumed by the writers in package compile and the JSON splitter in
package jsplit.
*/
package catalog

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Well-known header names.
const (
	HeaderDomain       = "X-Domain"
	HeaderLanguage     = "Language"
	HeaderPluralForms  = "Plural-Forms"
	HeaderRevisionDate = "PO-Revision-Date"
	HeaderSource       = "Source"
	HeaderContentType  = "Content-Type"
)

var errEmptyOriginal = errors.New("entry original must not be empty")

// DefaultPluralRule is used when a catalog does not declare Plural-Forms.
var DefaultPluralRule = PluralRule{Count: 2, Expression: "(n != 1)"}

// PluralRule is the parsed form of a Plural-Forms header.
type PluralRule struct {
	Count      int
	Expression string
}

// String renders r in Plural-Forms header syntax.
func (r PluralRule) String() string {
	return "nplurals=" + strconv.Itoa(r.Count) + "; plural=" + r.Expression + ";"
}

// ParsePluralForms parses a Plural-Forms header value such as
// "nplurals=2; plural=(n != 1);".
func ParsePluralForms(value string) (PluralRule, bool) {
	var (
		rule     PluralRule
		hasCount bool
	)

	for part := range strings.SplitSeq(value, ";") {
		name, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}

		switch strings.TrimSpace(name) {
		case "nplurals":
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 1 {
				return PluralRule{}, false
			}

			rule.Count = n
			hasCount = true
		case "plural":
			rule.Expression = strings.TrimSpace(val)
		}
	}

	if !hasCount || rule.Expression == "" {
		return PluralRule{}, false
	}

	return rule, true
}

// Reference is a source location an entry was extracted from.
type Reference struct {
	File string
	Line int // zero when the reference carries no line number
}

// String renders the reference in "#:" comment syntax.
func (r Reference) String() string {
	if r.Line > 0 {
		return r.File + ":" + strconv.Itoa(r.Line)
	}

	return r.File
}

// Entry is one translatable string.
type Entry struct {
	Context  string
	Original string
	Plural   string

	// Translations holds the singular translation at index 0 followed by the
	// plural forms.
	Translations []string

	References []Reference
	Flags      []string

	// Disabled marks obsolete ("#~") entries.
	Disabled bool

	// Verbatim entries were carried over from an earlier output file. Writers
	// emit their translations as stored, without plural-form normalisation.
	Verbatim bool
}

// NewEntry returns an entry for original under context with the given translations.
func NewEntry(context, original string, translations ...string) (*Entry, error) {
	if original == "" {
		return nil, errEmptyOriginal
	}

	return &Entry{
		Context:      context,
		Original:     original,
		Translations: slices.Clone(translations),
	}, nil
}

// Key returns the identity of e: context and original joined by
// [gotext.EotSeparator], or the original alone when there is no context.
func (e *Entry) Key() string {
	return MakeKey(e.Context, e.Original)
}

// Translation returns the singular translation or "".
func (e *Entry) Translation() string {
	if len(e.Translations) == 0 {
		return ""
	}

	return e.Translations[0]
}

// PluralTranslations returns the translations after the singular one.
func (e *Entry) PluralTranslations() []string {
	if len(e.Translations) < 2 {
		return nil
	}

	return e.Translations[1:]
}

// HasPluralTranslations reports whether any plural form is non-empty.
func (e *Entry) HasPluralTranslations() bool {
	for _, t := range e.PluralTranslations() {
		if t != "" {
			return true
		}
	}

	return false
}

// IsTranslated reports whether at least one translation is non-empty.
func (e *Entry) IsTranslated() bool {
	return e.Translation() != "" || e.HasPluralTranslations()
}

// HasFlag reports whether e carries the "#," flag f.
func (e *Entry) HasFlag(f string) bool {
	return slices.Contains(e.Flags, f)
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Translations = slices.Clone(e.Translations)
	c.References = slices.Clone(e.References)
	c.Flags = slices.Clone(e.Flags)

	return &c
}

// MakeKey joins context and original the way gettext keys contextual messages.
func MakeKey(context, original string) string {
	if context == "" {
		return original
	}

	return context + gotext.EotSeparator + original
}

// SplitKey is the inverse of [MakeKey].
func SplitKey(key string) (context, original string) {
	if ctx, orig, found := strings.Cut(key, gotext.EotSeparator); found {
		return ctx, orig
	}

	return "", key
}

// Header is a single header field.
type Header struct {
	Name  string
	Value string
}

// Catalog is the in-memory form of a gettext catalog.
//
// The zero value is an empty catalog ready for use.
type Catalog struct {
	headers []Header
	entries []*Entry
	index   map[string]int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Header returns the value of header name, matched case-insensitively.
func (c *Catalog) Header(name string) string {
	for _, h := range c.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}

	return ""
}

// HasHeader reports whether header name is present.
func (c *Catalog) HasHeader(name string) bool {
	for _, h := range c.headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}

	return false
}

// SetHeader sets header name to value, keeping its position when it already exists.
func (c *Catalog) SetHeader(name, value string) {
	for i, h := range c.headers {
		if strings.EqualFold(h.Name, name) {
			c.headers[i].Value = value

			return
		}
	}

	c.headers = append(c.headers, Header{Name: name, Value: value})
}

// Headers returns a copy of the headers in declaration order.
func (c *Catalog) Headers() []Header {
	return slices.Clone(c.headers)
}

// Domain returns the text domain declared by the X-Domain header.
func (c *Catalog) Domain() string { return c.Header(HeaderDomain) }

// SetDomain sets the X-Domain header.
func (c *Catalog) SetDomain(domain string) { c.SetHeader(HeaderDomain, domain) }

// Language returns the Language header.
func (c *Catalog) Language() string { return c.Header(HeaderLanguage) }

// SetLanguage sets the Language header.
func (c *Catalog) SetLanguage(lang string) { c.SetHeader(HeaderLanguage, lang) }

// PluralForms returns the raw Plural-Forms header.
func (c *Catalog) PluralForms() string { return c.Header(HeaderPluralForms) }

// HasPluralForms reports whether the catalog declares a usable Plural-Forms header.
func (c *Catalog) HasPluralForms() bool {
	_, ok := ParsePluralForms(c.PluralForms())

	return ok
}

// PluralRule returns the declared plural rule, or [DefaultPluralRule] when
// the header is missing or malformed. The header itself is left untouched.
func (c *Catalog) PluralRule() PluralRule {
	if rule, ok := ParsePluralForms(c.PluralForms()); ok {
		return rule
	}

	return DefaultPluralRule
}

// Add inserts e. An entry with the same key is replaced in place.
func (c *Catalog) Add(e *Entry) {
	if c.index == nil {
		c.index = make(map[string]int)
	}

	key := e.Key()
	if i, ok := c.index[key]; ok {
		c.entries[i] = e

		return
	}

	c.index[key] = len(c.entries)
	c.entries = append(c.entries, e)
}

// Get returns the entry stored under key.
func (c *Catalog) Get(key string) (*Entry, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}

	return c.entries[i], true
}

// Entries returns the entries in insertion order. The slice is a copy; the
// entries are shared.
func (c *Catalog) Entries() []*Entry {
	return slices.Clone(c.entries)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// NewSub returns an empty catalog carrying c's domain, language, plural rule
// and revision date.
func (c *Catalog) NewSub() *Catalog {
	sub := New()

	for _, name := range []string{HeaderDomain, HeaderLanguage, HeaderRevisionDate, HeaderPluralForms} {
		if c.HasHeader(name) {
			sub.SetHeader(name, c.Header(name))
		}
	}

	return sub
}

// HeaderBlock renders the headers as the msgstr of the gettext header entry.
func (c *Catalog) HeaderBlock() string {
	var b strings.Builder

	for _, h := range c.headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\n")
	}

	return b.String()
}
