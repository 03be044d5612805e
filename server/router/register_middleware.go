// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/ttools/ttsync/server/middleware"
	"codeberg.org/ttools/ttsync/server/middleware/limiter"
	"codeberg.org/ttools/ttsync/server/middleware/set_request_context"
)

// RegisterMiddleware installs the middleware chain. A nil lim disables rate limiting.
func (router *Router) RegisterMiddleware(lim *limiter.Limiter) {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                // handle trailing slashes
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all responses need this

	if lim != nil {
		router.Use(lim.Evaluate)
	}
}
