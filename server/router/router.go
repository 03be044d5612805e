// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"sync"

	"codeberg.org/ttools/ttsync/server/middleware"
)

// Router is the API mux behind an ordered middleware chain.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware

	once    sync.Once
	handler http.Handler
}

// NewRouter returns a router with an empty mux and no middleware.
func NewRouter() *Router {
	return &Router{ServeMux: http.NewServeMux()}
}

// Use appends m to the chain. The chain is fixed by the first request, so
// every middleware must be added before serving.
func (router *Router) Use(m middleware.Middleware) {
	router.middlewares = append(router.middlewares, m)
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.once.Do(func() { router.handler = router.chain() })

	router.handler.ServeHTTP(w, r)
}

// chain wraps the mux so that the first middleware added runs first.
func (router *Router) chain() http.Handler {
	var h http.Handler = router.ServeMux

	for i := len(router.middlewares) - 1; i >= 0; i-- {
		h = middleware.Wrap(router.middlewares[i], h)
	}

	return h
}
