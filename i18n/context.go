// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type contextKeyType struct{}

var tagKey = contextKeyType{}

// LangParam is the name of the URL query parameter used by HTTP helpers to read
// a preferred log language as a BCP 47 tag.
const LangParam = "lang"

// WithTag stores t in ctx and returns a derived context that carries it.
//
// The returned context should be passed to downstream code that performs
// translations. Passing the zero value of [language.Tag] clears any existing value.
//
// The ctx must not be nil.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, tagKey, t)
}

// TagFrom returns the language tag stored in ctx, or the tag for [BaseLocale]
// if none is present. It never returns the zero value of [language.Tag].
func TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if t, _ := ctx.Value(tagKey).(language.Tag); t != (language.Tag{}) {
			return t
		}
	}

	return baseTag
}

// FromRequest returns the best language tag for r. The query parameter
// [LangParam] takes priority over the Accept-Language header; "auto" means
// the header alone decides.
//
// If r is nil, or if Setup has not been called, FromRequest returns the tag for [BaseLocale].
func FromRequest(r *http.Request) language.Tag {
	if r == nil {
		return baseTag
	}

	preferred := make([]string, 0, 2)

	if q := r.URL.Query().Get(LangParam); q != "" && !strings.EqualFold(q, "auto") {
		preferred = append(preferred, strings.ReplaceAll(q, "_", "-"))
	}

	if al := r.Header.Get("Accept-Language"); al != "" {
		preferred = append(preferred, al)
	}

	return current.Load().match(preferred...)
}

// WithRequest resolves the language from r using [FromRequest] and installs the
// matched tag in the returned context.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return WithTag(ctx, FromRequest(r))
}

// Match returns the best supported tag for a POSIX locale name such as
// "pt_PT.UTF-8". Empty, "C" and "POSIX" map to [BaseLocale].
func Match(posix string) language.Tag {
	name, _, _ := strings.Cut(posix, ".")
	name, _, _ = strings.Cut(name, "@")

	if name == "" || name == "C" || name == "POSIX" {
		return baseTag
	}

	return current.Load().match(strings.ReplaceAll(name, "_", "-"))
}
