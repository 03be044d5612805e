// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/ttools/ttsync/i18n"
	"codeberg.org/ttools/ttsync/server/routes"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit" // This is intended.
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
)

// limitedPrefix selects the paths the limiter applies to.
const limitedPrefix = "/api/sync"

// Evaluate is the limiter middleware.
func (l *Limiter) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if !strings.HasPrefix(r.URL.Path, limitedPrefix) {
		next.ServeHTTP(w, r)

		return
	}

	key := clientKey(r)
	if key == "" {
		routes.WriteError(w, routes.NewHTTPError(http.StatusBadRequest, routes.CodeBadRequest,
			i18n.Tr(r.Context(), "Could not determine the client address."), nil))

		return
	}

	d := l.Allow(key)

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))

	if !d.Allowed {
		log.Warn().
			Str("network", key).
			Dur("retry_after", d.RetryAfter).
			Msg("Request blocked, exceeded rate limit")

		w.Header().Set("Retry-After", retryAfterSeconds(d.RetryAfter))
		routes.WriteError(w, routes.NewHTTPError(http.StatusTooManyRequests, routes.CodeRateLimited,
			i18n.Tr(r.Context(), "Too many sync requests. Try again later."), nil))

		return
	}

	next.ServeHTTP(w, r)
}

// retryAfterSeconds rounds d up to whole seconds, at least 1.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}
