// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rs/zerolog/log"
)

// Prefix lengths of the networks that share a bucket. A single IPv6 host
// usually controls a whole /64.
const (
	ipv4Bits = 32
	ipv6Bits = 64
)

// clientAddr returns the address of the client behind r. X-Real-IP and then
// the last X-Forwarded-For hop are honoured only when the peer is on a
// private or loopback network.
func clientAddr(r *http.Request) (netip.Addr, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	peer, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}

	if !peer.IsPrivate() && !peer.IsLoopback() {
		if r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != "" {
			log.Debug().Str("sys", "limiter").Str("remote_ip", host).Msg("Ignoring proxy headers from untrusted peer")
		}

		return peer.Unmap(), true
	}

	forwarded := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if forwarded == "" {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			forwarded = strings.TrimSpace(xff[strings.LastIndexByte(xff, ',')+1:])
		}
	}

	if forwarded != "" {
		if a, err := netip.ParseAddr(forwarded); err == nil {
			return a.Unmap(), true
		}
	}

	return peer.Unmap(), true
}

// clientKey returns the bucket key of the client of r, or "" when no
// address can be determined.
func clientKey(r *http.Request) string {
	a, ok := clientAddr(r)
	if !ok {
		return ""
	}

	bits := ipv6Bits
	if a.Is4() {
		bits = ipv4Bits
	}

	p, err := a.Prefix(bits)
	if err != nil {
		return ""
	}

	return p.String()
}
