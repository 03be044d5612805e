// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupInterval is the period of [Limiter.Run].
const CleanupInterval = 5 * time.Minute

// Run calls [Limiter.Cleanup] every interval until ctx is done. It always
// returns nil so it can run in an errgroup next to the server.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			dropped := l.Cleanup()

			log.Debug().
				Str("sys", "limiter").
				Int("dropped", dropped).
				Int("tracked", l.Len()).
				Dur("dur", time.Since(start)).
				Msg("limiter cleanup")
		}
	}
}
