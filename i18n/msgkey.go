// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import "context"

// MsgKey is a source message id (msgid) whose translation is deferred until
// a context is available.
//
// MsgKey should be the original English text, not an invented key.
type MsgKey string

// Tr translates this msgid within the locale carried by ctx.
// The ctx may be nil, in which case the base locale is used.
func (s MsgKey) Tr(ctx context.Context) string {
	return Tr(ctx, string(s))
}

// String returns the untranslated msgid.
func (s MsgKey) String() string {
	return string(s)
}
