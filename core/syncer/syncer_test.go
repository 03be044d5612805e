// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/ttools/ttsync/core/fetch"
	"codeberg.org/ttools/ttsync/core/locale"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/project"
)

const samplePO = `msgid ""
msgstr ""
"Language: pt_PT\n"
"Plural-Forms: nplurals=2; plural=n != 1;\n"
"X-Domain: hello\n"

#: js/app.js:12
msgid "Save"
msgstr "Guardar"

#: hello.php:3
msgid "Hello"
msgstr "Olá"
`

const appFile = "hello-pt_PT-41d794d24ff042b1f9ac211fc3f9f951.json"

type fakeResolver struct {
	calls  int
	forces []bool
	err    *outcome.Error
}

func (r *fakeResolver) Candidates(
	_ context.Context, p project.Project, l locale.Locale, force bool,
) ([]fetch.Candidate, outcome.Log, *outcome.Error) {
	r.calls++
	r.forces = append(r.forces, force)

	if r.err != nil {
		return nil, nil, r.err
	}

	return []fetch.Candidate{{Label: "stable", URL: "https://example.org/" + p.Slug + l.PathSlug()}}, nil, nil
}

type fakeFetcher struct {
	body  []byte
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, candidates []fetch.Candidate) (outcome.Log, []byte, *outcome.Error) {
	f.calls++

	if f.body == nil {
		return outcome.Log{"Project not found."}, nil,
			outcome.New(outcome.KindDownload, "Download failed.", nil)
	}

	return outcome.Log{"fetched " + candidates[0].Label}, f.body, nil
}

type fakeLocales struct {
	failing string
	forces  []bool
}

func (f *fakeLocales) Locale(_ context.Context, wpLocale string, force bool) (locale.Locale, error) {
	f.forces = append(f.forces, force)

	if wpLocale == f.failing {
		return locale.Locale{}, errors.New("api down")
	}

	return locale.New(wpLocale)
}

type fixture struct {
	fs       afero.Fs
	resolver *fakeResolver
	fetcher  *fakeFetcher
	locales  *fakeLocales
	syncer   *Syncer
}

func newFixture(fs afero.Fs, body string) *fixture {
	f := &fixture{
		fs:       fs,
		resolver: &fakeResolver{},
		fetcher:  &fakeFetcher{},
		locales:  &fakeLocales{},
	}

	if body != "" {
		f.fetcher.body = []byte(body)
	}

	f.syncer = New(Deps{
		FS:        fs,
		Dir:       "languages",
		Fetcher:   f.fetcher,
		Resolver:  f.resolver,
		Locales:   f.locales,
		Generator: "ttsync/test",
	})

	return f
}

func pluginRequest(t *testing.T) Request {
	t.Helper()

	p, err := project.New(project.TypePlugins, "hello", "hello", "Hello")
	require.NoError(t, err)

	l, err := locale.New("pt_PT")
	require.NoError(t, err)

	return Request{Project: p, Locale: l}
}

func exists(t *testing.T, fs afero.Fs, name string) bool {
	t.Helper()

	ok, err := afero.Exists(fs, name)
	require.NoError(t, err)

	return ok
}

func TestSync_NothingToDo(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), samplePO)

	res := f.syncer.Sync(context.Background(), pluginRequest(t))
	assert.True(t, res.OK())
	assert.Equal(t, outcome.Log{"Nothing to do."}, res.Log)
	assert.Zero(t, f.resolver.calls)
	assert.Zero(t, f.fetcher.calls)
}

func TestSync_CompiledAndJSON(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), samplePO)

	req := pluginRequest(t)
	req.Compiled = true
	req.JSON = true
	req.IncludeDomain = true

	res := f.syncer.Sync(context.Background(), req)
	require.True(t, res.OK(), "%v", res.Err)

	assert.Equal(t, outcome.Log{
		"fetched stable",
		"Saving file hello-pt_PT.po…",
		"Extracting translations from file hello-pt_PT.po…",
		"Saving file hello-pt_PT.mo…",
		"Saving file " + appFile + "…",
		"Translation updated successfully.",
	}, res.Log)

	for _, name := range []string{"hello-pt_PT.po", "hello-pt_PT.mo", appFile} {
		assert.True(t, exists(t, f.fs, "languages/plugins/"+name), name)
	}

	assert.False(t, exists(t, f.fs, "languages/plugins/hello-pt_PT.l10n.php"))
}

func TestSync_PHPAndLocaleNamedJSON(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), samplePO)

	req := pluginRequest(t)
	req.Compiled = true
	req.PHP = true
	req.JSON = true

	res := f.syncer.Sync(context.Background(), req)
	require.True(t, res.OK(), "%v", res.Err)

	assert.Contains(t, res.Log, "Saving file hello-pt_PT.l10n.php…")
	assert.True(t, exists(t, f.fs, "languages/plugins/hello-pt_PT.l10n.php"))
	assert.True(t, exists(t, f.fs, "languages/plugins/pt_PT-41d794d24ff042b1f9ac211fc3f9f951.json"))
}

func TestSync_JSONOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), samplePO)

	req := pluginRequest(t)
	req.JSON = true
	req.IncludeDomain = true

	res := f.syncer.Sync(context.Background(), req)
	require.True(t, res.OK(), "%v", res.Err)

	assert.True(t, exists(t, f.fs, "languages/plugins/hello-pt_PT.po"))
	assert.False(t, exists(t, f.fs, "languages/plugins/hello-pt_PT.mo"))
	assert.True(t, exists(t, f.fs, "languages/plugins/"+appFile))
}

func TestSync_ResolveFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), samplePO)
	f.resolver.err = outcome.New(outcome.KindAPIUnavailable, "unavailable", nil)

	req := pluginRequest(t)
	req.Compiled = true
	req.ForceRefresh = true

	res := f.syncer.Sync(context.Background(), req)
	require.NotNil(t, res.Err)
	assert.Equal(t, outcome.KindAPIUnavailable, res.Err.Kind)
	assert.Zero(t, f.fetcher.calls)
	assert.Equal(t, []bool{true}, f.resolver.forces)
}

func TestSync_DownloadFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), "")

	req := pluginRequest(t)
	req.Compiled = true
	req.JSON = true

	res := f.syncer.Sync(context.Background(), req)
	require.NotNil(t, res.Err)
	assert.Equal(t, outcome.KindDownload, res.Err.Kind)
	assert.Equal(t, outcome.Log{"Project not found."}, res.Log)

	files, err := afero.ReadDir(f.fs, "/")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSync_WriteFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewReadOnlyFs(afero.NewMemMapFs()), samplePO)

	req := pluginRequest(t)
	req.Compiled = true

	res := f.syncer.Sync(context.Background(), req)
	require.NotNil(t, res.Err)
	assert.Equal(t, outcome.KindGeneratePO, res.Err.Kind)
	assert.Equal(t, "Could not create file.", res.Err.Message)
	assert.Equal(t, "Saving file hello-pt_PT.po…", res.Log[len(res.Log)-1])
}

func TestSync_ExtractFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), "msgid \"Save\"\nmsgstr \"unterminated\n")

	req := pluginRequest(t)
	req.Compiled = true
	req.JSON = true

	res := f.syncer.Sync(context.Background(), req)
	require.NotNil(t, res.Err)
	assert.Equal(t, outcome.KindExtract, res.Err.Kind)
	assert.Equal(t, "Could not extract translations from file.", res.Err.Message)

	assert.True(t, exists(t, f.fs, "languages/plugins/hello-pt_PT.po"), "raw file is kept")
	assert.False(t, exists(t, f.fs, "languages/plugins/hello-pt_PT.mo"))
	assert.NotContains(t, res.Log, "Translation updated successfully.")
}

func TestUpdateCore(t *testing.T) {
	t.Parallel()

	f := newFixture(afero.NewMemMapFs(), samplePO)
	f.locales.failing = "fr_FR"

	results := f.syncer.UpdateCore(context.Background(), []string{"pt_PT", "en_US", "fr_FR", "pt_PT", ""},
		CoreOptions{Compiled: true, JSON: true, ForceRefresh: true})

	require.Len(t, results, 8)

	// Locales are sorted: fr_FR first.
	for _, r := range results[:4] {
		assert.Equal(t, "fr_FR", r.Locale)
		require.NotNil(t, r.Result.Err)
		assert.Equal(t, outcome.KindAPIUnavailable, r.Result.Err.Kind)
	}

	for _, r := range results[4:] {
		assert.Equal(t, "pt_PT", r.Locale)
		assert.True(t, r.Result.OK(), "%v", r.Result.Err)
	}

	assert.Equal(t, "Updating translations for Development (fr_FR) (1/8)", results[0].Result.Log[0])
	assert.Equal(t, "Updating translations for Continents & Cities (pt_PT) (8/8)", results[7].Result.Log[0])
	assert.Equal(t, "Administration", results[5].Project)

	assert.Equal(t, []bool{true, false}, f.locales.forces, "only the first pass refreshes")

	assert.True(t, exists(t, f.fs, "languages/pt_PT.mo"))
	assert.True(t, exists(t, f.fs, "languages/admin-pt_PT.mo"))
	assert.True(t, exists(t, f.fs, "languages/pt_PT-41d794d24ff042b1f9ac211fc3f9f951.json"))
}
