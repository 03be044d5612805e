// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
)

// NormalizeURL redirects paths with a trailing slash (except root) to their
// canonical form. GET and HEAD requests get a permanent redirect; other
// methods are rewritten in place so that request bodies are not lost.
func NormalizeURL(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if r.URL.Path == "/" || !strings.HasSuffix(r.URL.Path, "/") {
		next.ServeHTTP(w, r)

		return
	}

	target := *r.URL
	target.Path = strings.TrimRight(target.Path, "/")

	if target.Path == "" {
		target.Path = "/"
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		r2 := r.Clone(r.Context())
		r2.URL = &target

		next.ServeHTTP(w, r2)

		return
	}

	http.Redirect(w, r, target.String(), http.StatusPermanentRedirect)
}
