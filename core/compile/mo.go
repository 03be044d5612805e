// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package compile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leonelquinteros/gotext"
	"github.com/spf13/afero"

	"codeberg.org/ttools/ttsync/core/catalog"
	"codeberg.org/ttools/ttsync/core/fsys"
)

const (
	moMagic      uint32 = 0x950412de
	moRevision   uint32 = 0
	moHeaderSize        = 28
	moTableEntry        = 8
)

var errMOMismatch = errors.New("compiled catalog does not match its source")

type moMessage struct {
	key   string
	value string
}

// MO encodes cat as a GNU MO file.
//
// Disabled and untranslated entries are skipped. Originals are sorted and no
// hash table is emitted.
func MO(cat *catalog.Catalog) ([]byte, error) {
	messages := moMessages(cat)

	n := uint32(len(messages)) //nolint:gosec // catalog sizes are far below 2^32
	origTable := uint32(moHeaderSize)
	transTable := origTable + n*moTableEntry
	stringsStart := transTable + n*moTableEntry

	var (
		origs  bytes.Buffer
		transl bytes.Buffer
		table  = make([]uint32, 0, 4*n)
	)

	// Originals first, then translations.
	offset := stringsStart
	for _, m := range messages {
		table = append(table, uint32(len(m.key)), offset) //nolint:gosec
		origs.WriteString(m.key)
		origs.WriteByte(0)
		offset += uint32(len(m.key)) + 1 //nolint:gosec
	}

	for _, m := range messages {
		table = append(table, uint32(len(m.value)), offset) //nolint:gosec
		transl.WriteString(m.value)
		transl.WriteByte(0)
		offset += uint32(len(m.value)) + 1 //nolint:gosec
	}

	var out bytes.Buffer

	out.Grow(int(offset))

	header := []uint32{
		moMagic,
		moRevision,
		n,
		origTable,
		transTable,
		0,            // hash table size
		stringsStart, // hash table offset
	}

	if err := binary.Write(&out, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to encode MO header: %w", err)
	}

	if err := binary.Write(&out, binary.LittleEndian, table); err != nil {
		return nil, fmt.Errorf("failed to encode MO tables: %w", err)
	}

	out.Write(origs.Bytes())
	out.Write(transl.Bytes())

	return out.Bytes(), nil
}

// WriteMO compiles cat, checks the result by loading it back, and writes it to name.
func WriteMO(fs afero.Fs, name string, cat *catalog.Catalog) error {
	data, err := MO(cat)
	if err != nil {
		return err
	}

	if err := VerifyMO(data, cat); err != nil {
		return err
	}

	return fsys.WriteFile(fs, name, data)
}

// VerifyMO loads data with the gettext runtime and checks that every
// translated singular entry of cat resolves to its translation.
func VerifyMO(data []byte, cat *catalog.Catalog) error {
	mo := gotext.NewMo()
	mo.Parse(data)

	for _, e := range cat.Entries() {
		if e.Disabled || e.Plural != "" || e.Translation() == "" {
			continue
		}

		var got string
		if e.Context != "" {
			got = mo.GetC(e.Original, e.Context)
		} else {
			got = mo.Get(e.Original)
		}

		if got != e.Translation() {
			return fmt.Errorf("%w: %q resolved to %q", errMOMismatch, e.Key(), got)
		}
	}

	return nil
}

func moMessages(cat *catalog.Catalog) []moMessage {
	entries := cat.Entries()
	messages := make([]moMessage, 0, len(entries)+1)

	if block := cat.HeaderBlock(); block != "" {
		messages = append(messages, moMessage{key: "", value: block})
	}

	for _, e := range entries {
		if e.Disabled || !e.IsTranslated() {
			continue
		}

		m := moMessage{key: e.Key(), value: e.Translation()}
		if e.Plural != "" {
			m.key += "\x00" + e.Plural
			m.value = strings.Join(e.Translations, "\x00")
		}

		messages = append(messages, m)
	}

	slices.SortFunc(messages, func(a, b moMessage) int {
		return strings.Compare(a.key, b.key)
	})

	return messages
}
