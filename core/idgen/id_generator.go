// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package idgen makes short identifiers for requests and outbound calls.
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Make returns an ID made of the wall-clock time (hhmmss) and 3 random bytes.
func Make() string {
	return MakeAt(time.Now())
}

// MakeAt is [Make] with an explicit time.
func MakeAt(t time.Time) string {
	entropy := [3]byte{'a', 'a', 'a'}

	_, _ = rand.Read(entropy[:])

	return t.Format("150405") + base64.RawURLEncoding.EncodeToString(entropy[:])
}

// Child derives the ID of a sub-operation, e.g. an outbound request made
// while serving parent.
func Child(parent string) string {
	if parent == "" {
		return Make()
	}

	return parent + "-" + Make()
}
