// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
ttsync serves the translation catalog sync API to WordPress hosts.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/core/audit"
	"codeberg.org/ttools/ttsync/core/syncer"
	"codeberg.org/ttools/ttsync/i18n"
	"codeberg.org/ttools/ttsync/po"
	"codeberg.org/ttools/ttsync/server/listen"
	"codeberg.org/ttools/ttsync/server/middleware/limiter"
	"codeberg.org/ttools/ttsync/server/router"
	"codeberg.org/ttools/ttsync/server/routes"
)

const (
	readHeaderTimeout = 15 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 30 * time.Second
	// A sync pass downloads a catalog and writes several files.
	writeTimeout = 5 * time.Minute

	shutdownGrace = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run serves until SIGINT or SIGTERM, then drains in-flight syncs.
func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := i18n.Setup(po.FS); err != nil {
		return fmt.Errorf("failed to initialize i18n engine: %w", err)
	}

	log.Info().Msg("Initialized i18n engine")

	s, client, err := syncer.Setup()
	if err != nil {
		return err
	}

	var lim *limiter.Limiter
	if cfg := config.Global.Limiter; cfg.Enabled {
		lim = limiter.New(cfg.Rate, cfg.Burst, cfg.IdleTimeout)
	}

	mux := router.NewRouter()
	mux.DefineRoutes(&routes.API{
		Syncer:  s,
		Catalog: client,
		Defaults: routes.Defaults{
			GeneratePHP:   config.Global.Output.GeneratePHP,
			IncludeDomain: config.Global.Output.IncludeDomain,
		},
	})
	mux.RegisterMiddleware(lim)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	basic := config.Global.Basic

	listener, err := listen.Open(ctx, listen.Options{
		Host:   basic.Host,
		Port:   basic.Port,
		Socket: basic.UnixSocket,
		Mode:   basic.UnixSocketPermissions,
		Owner:  basic.UnixSocketUser,
		Group:  basic.UnixSocketGroup,
	})
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	if lim != nil {
		g.Go(func() error {
			return lim.Run(gctx, limiter.CleanupInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Stopped")

	return nil
}
