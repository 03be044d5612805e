// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/i18n"
	"codeberg.org/ttools/ttsync/server/middleware"
	"codeberg.org/ttools/ttsync/server/routes"
)

// DefineRoutes registers the API handlers of api on the router.
func (router *Router) DefineRoutes(api *routes.API) {
	router.HandleFunc("POST /api/sync", middleware.CatchError(api.Sync))
	router.HandleFunc("POST /api/sync/core", middleware.CatchError(api.SyncCore))

	router.HandleFunc("GET /api/locales", middleware.CatchError(api.Locales))
	router.HandleFunc("GET /api/project", middleware.CatchError(api.Project))
	router.HandleFunc("GET /api/health", middleware.CatchError(api.Health))

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}

	// Anything else is a JSON 404.
	router.HandleFunc("/", middleware.CatchError(notFound))
}

func notFound(_ http.ResponseWriter, r *http.Request) error {
	return routes.NewHTTPError(http.StatusNotFound, routes.CodeNotFound,
		i18n.Tr(r.Context(), "Not found."), nil)
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router) {
	err := flightRecorder.Start()
	if err != nil {
		panic(err)
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, r *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
