// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"crypto/tls"
	"net/http"
)

const (
	clientSessionCacheSize = 20
	maxIdleConnsPerHost    = 20
	bufferSize             = 32 * 1024
)

// DefaultHTTPClient is shared by clients created without their own.
// Timeouts are applied per request through the context.
var DefaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{
			ClientSessionCache: tls.NewLRUClientSessionCache(clientSessionCacheSize),
			MinVersion:         tls.VersionTLS12,
		},
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		WriteBufferSize:     bufferSize,
		ReadBufferSize:      bufferSize,
	},
}
