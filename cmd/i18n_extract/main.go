// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command i18n_extract scans the module for translatable messages and writes
// the gettext template used by the server's own locales.
package main

import (
	"cmp"
	"flag"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/tools/go/packages"

	"codeberg.org/ttools/ttsync/core/catalog"
	"codeberg.org/ttools/ttsync/core/compile"
)

func main() {
	out := flag.String("o", "po/ttsync.pot", "output file")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working directory: %v", err)
	}

	pkgs, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax}, "./...")
	if err != nil {
		log.Fatalf("failed to load packages: %v", err)
	}

	if packages.PrintErrors(pkgs) > 0 {
		log.Fatal("failed to load packages due to errors")
	}

	pot, err := template(scan(pkgs, projectRoot(wd)), version())
	if err != nil {
		log.Fatalf("invalid message: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := os.WriteFile(*out, compile.PO(pot), 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", *out, err)
	}

	log.Printf("wrote %d messages to %s", pot.Len(), *out)
}

// template builds the POT catalogue, with entries ordered by context, msgid
// and plural.
func template(refs map[key][]ref, ver string) (*catalog.Catalog, error) {
	pot := catalog.New()

	pot.SetHeader("Project-Id-Version", "ttsync "+ver)
	pot.SetHeader("POT-Creation-Date", time.Now().UTC().Format("2006-01-02 15:04+0000"))
	pot.SetHeader(catalog.HeaderLanguage, "en")
	pot.SetHeader("Report-Msgid-Bugs-To", "https://codeberg.org/ttools/ttsync/issues")
	pot.SetHeader("MIME-Version", "1.0")
	pot.SetHeader(catalog.HeaderContentType, "text/plain; charset=UTF-8")
	pot.SetHeader("Content-Transfer-Encoding", "8bit")
	pot.SetHeader(catalog.HeaderPluralForms, catalog.DefaultPluralRule.String())

	keys := make([]key, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b key) int {
		return cmp.Or(cmp.Compare(a.ctx, b.ctx), cmp.Compare(a.id, b.id), cmp.Compare(a.plural, b.plural))
	})

	for _, k := range keys {
		e, err := catalog.NewEntry(k.ctx, k.id)
		if err != nil {
			return nil, err
		}

		e.Plural = k.plural
		e.References = references(refs[k])

		pot.Add(e)
	}

	return pot, nil
}

// references orders rs by file and line and drops duplicates.
func references(rs []ref) []catalog.Reference {
	slices.SortFunc(rs, func(a, b ref) int {
		return cmp.Or(cmp.Compare(a.file, b.file), cmp.Compare(a.line, b.line))
	})

	rs = slices.Compact(rs)

	out := make([]catalog.Reference, len(rs))
	for i, r := range rs {
		out[i] = catalog.Reference{File: r.file, Line: r.line}
	}

	return out
}

func version() string {
	if v := git("", "describe", "--tags", "--always", "--dirty"); v != "" {
		return v
	}

	return "dev"
}

// projectRoot picks the directory references are made relative to: the git
// toplevel, else the nearest directory holding go.mod, else wd.
func projectRoot(wd string) string {
	if root := git(wd, "rev-parse", "--show-toplevel"); root != "" {
		return filepath.Clean(root)
	}

	for dir := filepath.Clean(wd); ; {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}

		dir = parent
	}
}

// git runs a git subcommand in dir and returns its trimmed output, or "" on
// failure.
func git(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(out))
}
