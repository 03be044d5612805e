// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP middleware of the ttsync API.

Route definitions are centralized in router.DefineRoutes; the middleware
chain is assembled in router.RegisterMiddleware.
*/
package middleware
