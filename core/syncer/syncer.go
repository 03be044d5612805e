// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package syncer runs a translation sync pass for one project and locale.

A pass resolves the source candidates, downloads the catalog, stores it as
.po, parses it once and then writes the compiled (.mo, optionally .l10n.php)
and JSON outputs that were requested. The first failing stage ends the pass
and its error is returned with every log line collected so far.
*/
package syncer

import (
	"context"
	"errors"
	"path"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"codeberg.org/ttools/ttsync/core/catalog"
	"codeberg.org/ttools/ttsync/core/compile"
	"codeberg.org/ttools/ttsync/core/fetch"
	"codeberg.org/ttools/ttsync/core/fsys"
	"codeberg.org/ttools/ttsync/core/jsplit"
	"codeberg.org/ttools/ttsync/core/locale"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/project"
	"codeberg.org/ttools/ttsync/i18n"
)

// Fetcher downloads the first available candidate.
type Fetcher interface {
	Fetch(ctx context.Context, candidates []fetch.Candidate) (outcome.Log, []byte, *outcome.Error)
}

// Resolver lists the source candidates of a project in a locale.
type Resolver interface {
	Candidates(ctx context.Context, p project.Project, l locale.Locale, force bool) ([]fetch.Candidate, outcome.Log, *outcome.Error)
}

// Locales looks up locale records by WordPress locale.
type Locales interface {
	Locale(ctx context.Context, wpLocale string, force bool) (locale.Locale, error)
}

// Request selects what a pass produces.
type Request struct {
	Project project.Project
	Locale  locale.Locale

	// Compiled writes the .mo file, and the .l10n.php file when PHP is also set.
	Compiled bool
	PHP      bool

	// JSON writes the per-script JSON files.
	JSON bool

	// IncludeDomain prefixes JSON file names with the project domain.
	IncludeDomain bool

	// ForceRefresh bypasses cached translation site metadata.
	ForceRefresh bool
}

// Deps are the collaborators of a [Syncer].
type Deps struct {
	FS  afero.Fs
	Dir string

	Fetcher  Fetcher
	Resolver Resolver
	Locales  Locales

	// Locker serialises JSON merges per file. A nil Locker gets a private one.
	Locker *fsys.Locker

	// Generator is written into JSON files, e.g. "ttsync/3.1.0".
	Generator string
}

// Syncer runs sync passes. It is safe for concurrent use when its
// collaborators are.
type Syncer struct {
	deps     Deps
	splitter *jsplit.Splitter
}

// New returns a syncer for deps.
func New(deps Deps) *Syncer {
	if deps.Locker == nil {
		deps.Locker = &fsys.Locker{}
	}

	return &Syncer{
		deps: deps,
		splitter: &jsplit.Splitter{
			FS:        deps.FS,
			Locker:    deps.Locker,
			Generator: deps.Generator,
		},
	}
}

// Sync runs one pass.
func (s *Syncer) Sync(ctx context.Context, req Request) outcome.Result {
	var res outcome.Result

	if !req.Compiled && !req.JSON {
		res.Log.Add(i18n.Tr(ctx, "Nothing to do."))

		return res
	}

	res.Err = s.run(ctx, req, &res.Log)
	if res.Err != nil {
		log.Warn().
			Str("sys", "syncer").
			Str("project", req.Project.Name).
			Str("locale", req.Locale.WPLocale).
			Str("kind", string(res.Err.Kind)).
			Err(res.Err).
			Msg("Translation sync failed")

		return res
	}

	res.Log.Add(i18n.Tr(ctx, "Translation updated successfully."))

	return res
}

func (s *Syncer) run(ctx context.Context, req Request, logs *outcome.Log) *outcome.Error {
	candidates, l, oerr := s.deps.Resolver.Candidates(ctx, req.Project, req.Locale, req.ForceRefresh)
	logs.Append(l...)

	if oerr != nil {
		return oerr
	}

	l, body, oerr := s.deps.Fetcher.Fetch(ctx, candidates)
	logs.Append(l...)

	if oerr != nil {
		return oerr
	}

	dir := path.Join(s.deps.Dir, req.Project.Dir())
	base := req.Project.FileBase(req.Locale.WPLocale)

	poName := compile.FileName(req.Project.Domain, req.Locale.WPLocale, compile.ExtPO)
	logs.Add(savingFile(ctx, poName))

	if err := compile.WriteRaw(s.deps.FS, path.Join(dir, poName), body); err != nil {
		return outcome.New(outcome.KindGeneratePO, i18n.Tr(ctx, "Could not create file."), err)
	}

	cat, oerr := s.extract(ctx, path.Join(dir, poName), logs)
	if oerr != nil {
		return oerr
	}

	if req.Compiled {
		if oerr := s.writeCompiled(ctx, req, cat, dir, logs); oerr != nil {
			return oerr
		}
	}

	if req.JSON {
		jsonBase := req.Locale.WPLocale
		if req.IncludeDomain {
			jsonBase = base
		}

		l, oerr := s.splitter.Write(ctx, cat, dir, jsonBase)
		logs.Append(l...)

		if oerr != nil {
			return oerr
		}
	}

	return nil
}

// extract parses the stored .po file. The resulting catalog feeds both the
// compiled and the JSON outputs.
func (s *Syncer) extract(ctx context.Context, name string, logs *outcome.Log) (*catalog.Catalog, *outcome.Error) {
	logs.Add(i18n.Tr(ctx, "Extracting translations from file {{.File}}…", "File", path.Base(name)))

	cat, err := catalog.Load(s.deps.FS, name)

	switch {
	case errors.Is(err, catalog.ErrFileNotFound):
		return nil, outcome.New(outcome.KindExtract, i18n.Tr(ctx, "File not found."), err)
	case err != nil:
		var perr *catalog.ParseError
		if errors.As(err, &perr) {
			logs.Add(i18n.Tr(ctx, "Line {{.Line}}: {{.Message}}", "Line", perr.Line, "Message", perr.Msg))
		}

		return nil, outcome.New(outcome.KindExtract, i18n.Tr(ctx, "Could not extract translations from file."), err)
	}

	return cat, nil
}

func (s *Syncer) writeCompiled(ctx context.Context, req Request, cat *catalog.Catalog, dir string, logs *outcome.Log) *outcome.Error {
	moName := compile.FileName(req.Project.Domain, req.Locale.WPLocale, compile.ExtMO)
	logs.Add(savingFile(ctx, moName))

	if err := compile.WriteMO(s.deps.FS, path.Join(dir, moName), cat); err != nil {
		return outcome.New(outcome.KindGenerateMO, i18n.Tr(ctx, "Could not create file."), err)
	}

	if !req.PHP {
		return nil
	}

	phpName := compile.FileName(req.Project.Domain, req.Locale.WPLocale, compile.ExtPHP)
	logs.Add(savingFile(ctx, phpName))

	if err := compile.WritePHP(s.deps.FS, path.Join(dir, phpName), cat); err != nil {
		return outcome.New(outcome.KindGeneratePHP, i18n.Tr(ctx, "Could not create file."), err)
	}

	return nil
}

func savingFile(ctx context.Context, name string) string {
	return i18n.Tr(ctx, "Saving file {{.File}}…", "File", name)
}
