// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package jsplit partitions a catalog by the JavaScript files its entries are
referenced from and writes one JED-style JSON catalog per file.

Each target file is named after the MD5 of its source path, the name the
WordPress script loader looks for. When a target already exists its messages
are merged into the new catalog instead of being discarded, so several
catalogs (for example the core subprojects) can contribute to the same file.
*/
package jsplit

import (
	"context"
	"crypto/md5" //nolint:gosec // file names, not security
	"encoding/hex"
	"errors"
	"path"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"codeberg.org/ttools/ttsync/core/catalog"
	"codeberg.org/ttools/ttsync/core/fsys"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/i18n"
)

// Group is the sub-catalog of entries referenced from one JavaScript file.
type Group struct {
	Source  string
	Catalog *catalog.Catalog
}

// Split groups cat by normalised JavaScript source. Groups are returned in
// the order their source is first seen. An entry referenced from several
// files appears in each of their groups.
func Split(cat *catalog.Catalog) []Group {
	var (
		groups []Group
		index  = make(map[string]int)
	)

	for _, e := range cat.Entries() {
		for _, source := range sources(e) {
			i, ok := index[source]
			if !ok {
				sub := cat.NewSub()
				sub.SetHeader(catalog.HeaderSource, source)

				i = len(groups)
				index[source] = i
				groups = append(groups, Group{Source: source, Catalog: sub})
			}

			groups[i].Catalog.Add(e)
		}
	}

	return groups
}

// NormaliseSource maps a reference path to the JavaScript file it belongs
// to. "x.min.js" becomes "x.js". Paths that are not JavaScript return "".
func NormaliseSource(file string) string {
	if base, ok := strings.CutSuffix(file, ".min.js"); ok {
		return base + ".js"
	}

	if strings.HasSuffix(file, ".js") {
		return file
	}

	return ""
}

func sources(e *catalog.Entry) []string {
	var out []string

	for _, ref := range e.References {
		source := NormaliseSource(ref.File)
		if source == "" {
			continue
		}

		if !slices.Contains(out, source) {
			out = append(out, source)
		}
	}

	return out
}

// FileName returns "{base}-{md5(source)}.json".
func FileName(base, source string) string {
	sum := md5.Sum([]byte(source)) //nolint:gosec

	return base + "-" + hex.EncodeToString(sum[:]) + ".json"
}

// Splitter writes the JSON catalogs of one sync pass.
type Splitter struct {
	FS afero.Fs

	// Locker serialises the read-merge-write cycle per target file.
	// A nil Locker disables locking.
	Locker *fsys.Locker

	// Generator is written to the "generator" field, e.g. "ttsync/3.1.0".
	Generator string
}

// Write groups cat by JavaScript source and writes each group to
// dir/{base}-{md5}.json, merging with existing files. The first write failure
// stops the pass; files already written are kept.
func (s *Splitter) Write(ctx context.Context, cat *catalog.Catalog, dir, base string) (outcome.Log, *outcome.Error) {
	var logs outcome.Log

	groups := Split(cat)
	if len(groups) == 0 {
		logs.Add(i18n.Tr(ctx, "No JavaScript translations found. No .json file was generated."))

		return logs, nil
	}

	for _, g := range groups {
		name := FileName(base, g.Source)

		logs.Add(i18n.Tr(ctx, "Saving file {{.File}}…", "File", name))

		if err := s.writeGroup(ctx, g, path.Join(dir, name), &logs); err != nil {
			return logs, outcome.New(outcome.KindGenerateJSON, i18n.Tr(ctx, "Could not create file."), err)
		}
	}

	return logs, nil
}

func (s *Splitter) writeGroup(ctx context.Context, g Group, target string, logs *outcome.Log) error {
	if s.Locker != nil {
		unlock := s.Locker.Lock(target)
		defer unlock()
	}

	existing, err := fsys.ReadFileIfExists(s.FS, target)
	if err != nil {
		return err
	}

	if existing != nil {
		added, err := Merge(g.Catalog, existing)

		switch {
		case errors.Is(err, errInvalidJSON):
			log.Warn().
				Str("sys", "jsplit").
				Str("file", target).
				Msg("Existing JSON catalog is not valid JSON; replacing it")

			logs.Add(i18n.Tr(ctx, "Existing file {{.File}} is not valid JSON and will be replaced.", "File", path.Base(target)))
		case err != nil:
			return err
		case added > 0:
			logs.Add(i18n.TrN(ctx,
				"Kept {{.Count}} existing translation from {{.File}}.",
				"Kept {{.Count}} existing translations from {{.File}}.",
				added, "Count", added, "File", path.Base(target)))
		}
	}

	data, err := Encode(g.Catalog, s.Generator)
	if err != nil {
		return err
	}

	return fsys.WriteFile(s.FS, target, data)
}
