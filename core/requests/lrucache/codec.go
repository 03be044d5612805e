// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package lrucache

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
)

type kind uint8

const (
	kindOther kind = iota
	kindBytes
	kindString
)

// stored is a cache value as kept in memory.
type stored struct {
	value      any
	kind       kind
	compressed bool
}

// codec compresses string and []byte values. A nil codec stores values as-is.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	// nil writer/reader: EncodeAll and DecodeAll only.
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}

	return &codec{enc: enc, dec: dec}, nil
}

// pack prepares value for storage. []byte values are never aliased.
func (cd *codec) pack(value any) stored {
	switch v := value.(type) {
	case []byte:
		if packed, ok := cd.compress(v); ok {
			return stored{value: packed, kind: kindBytes, compressed: true}
		}

		return stored{value: bytes.Clone(v), kind: kindBytes}
	case string:
		if packed, ok := cd.compress([]byte(v)); ok {
			return stored{value: packed, kind: kindString, compressed: true}
		}

		return stored{value: v, kind: kindString}
	default:
		return stored{value: value, kind: kindOther}
	}
}

// compress reports false when compression is disabled or does not shrink b.
func (cd *codec) compress(b []byte) ([]byte, bool) {
	if cd == nil || len(b) == 0 {
		return nil, false
	}

	packed := cd.enc.EncodeAll(b, nil)
	if len(packed) >= len(b) {
		return nil, false
	}

	return packed, true
}

// unpack returns the caller's copy of s. A value that fails to decompress is
// reported as missing.
func (cd *codec) unpack(s stored) (any, bool) {
	if !s.compressed {
		if b, ok := s.value.([]byte); ok {
			return bytes.Clone(b), true
		}

		return s.value, true
	}

	if cd == nil {
		return nil, false
	}

	decoded, err := cd.dec.DecodeAll(s.value.([]byte), nil) //nolint:forcetypeassert
	if err != nil {
		return nil, false
	}

	if s.kind == kindString {
		return string(decoded), true
	}

	return decoded, true
}
