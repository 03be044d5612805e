// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that rate limits the sync endpoints.

Clients are grouped by IP network (/32 for IPv4, /64 for IPv6) and each
network gets a token bucket. A sync pass writes files and calls the
translation site, so only paths below /api/sync are limited; metadata and
health requests always pass.
*/
package limiter
