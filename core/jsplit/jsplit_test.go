// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package jsplit

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/ttools/ttsync/core/catalog"
	"codeberg.org/ttools/ttsync/core/fsys"
	"codeberg.org/ttools/ttsync/core/outcome"
)

const samplePO = `msgid ""
msgstr ""
"PO-Revision-Date: 2024-01-02 10:00:00+0000\n"
"Language: pt_PT\n"
"Plural-Forms: nplurals=2; plural=n != 1;\n"
"X-Domain: hello\n"

#: js/app.min.js:10 js/app.js:12 includes/a.php:3
msgid "Save"
msgstr "Guardar"

#: js/editor.js:5
msgctxt "verb"
msgid "Post"
msgstr "Publicar"

#: js/app.js:20
msgid "%d file"
msgid_plural "%d files"
msgstr[0] "%d ficheiro"
msgstr[1] "%d ficheiros"

#: includes/b.php:1
msgid "PHP only"
msgstr "Só PHP"
`

const (
	appFile    = "hello-pt_PT-41d794d24ff042b1f9ac211fc3f9f951.json"
	editorFile = "hello-pt_PT-f9fa84d520bfade2b893ee11278fde2e.json"
)

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.Parse([]byte(samplePO))
	require.NoError(t, err)

	return cat
}

func TestNormaliseSource(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "js/app.js", NormaliseSource("js/app.min.js"))
	assert.Equal(t, "js/app.js", NormaliseSource("js/app.js"))
	assert.Empty(t, NormaliseSource("includes/a.php"))
	assert.Empty(t, NormaliseSource("style.min.css"))
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "d-pt_PT-80bc7e08557b804e545632936a63b065.json", FileName("d-pt_PT", "admin/index.js"))
	assert.Equal(t, FileName("pt_PT", "js/app.js"), FileName("pt_PT", NormaliseSource("js/app.min.js")))
}

func TestSplit(t *testing.T) {
	t.Parallel()

	groups := Split(sampleCatalog(t))
	require.Len(t, groups, 2)

	assert.Equal(t, "js/app.js", groups[0].Source)
	assert.Equal(t, 2, groups[0].Catalog.Len())
	assert.Equal(t, "js/app.js", groups[0].Catalog.Header(catalog.HeaderSource))
	assert.Equal(t, "hello", groups[0].Catalog.Domain())
	assert.Equal(t, "2024-01-02 10:00:00+0000", groups[0].Catalog.Header(catalog.HeaderRevisionDate))

	assert.Equal(t, "js/editor.js", groups[1].Source)
	assert.Equal(t, 1, groups[1].Catalog.Len())
}

func TestEncode(t *testing.T) {
	t.Parallel()

	groups := Split(sampleCatalog(t))

	data, err := Encode(groups[0].Catalog, "ttsync/test")
	require.NoError(t, err)

	want := `{"translation-revision-date":"2024-01-02 10:00:00+0000","generator":"ttsync/test","domain":"hello",` +
		`"locale_data":{"hello":{"":{"domain":"hello","plural-forms":"nplurals=2; plural=n != 1;","lang":"pt_PT"},` +
		`"%d file":["%d ficheiro","%d ficheiros"],"Save":["Guardar"]}},"comment":{"reference":"js/app.js"}}` + "\n"

	assert.Equal(t, want, string(data))

	data, err = Encode(groups[1].Catalog, "ttsync/test")
	require.NoError(t, err)
	assert.Equal(t, "Publicar", gjson.GetBytes(data, "locale_data.hello.verb\x04Post.0").String())
}

func TestEncode_Defaults(t *testing.T) {
	t.Parallel()

	sub := catalog.New()

	e, err := catalog.NewEntry("", "Hello", "Olá", "")
	require.NoError(t, err)
	sub.Add(e)

	disabled, err := catalog.NewEntry("", "Gone", "Ido")
	require.NoError(t, err)

	disabled.Disabled = true
	sub.Add(disabled)

	data, err := Encode(sub, "ttsync")
	require.NoError(t, err)

	assert.Equal(t, "messages", gjson.GetBytes(data, "domain").String())
	assert.Contains(t, string(data), `"":{"domain":"messages","plural-forms":"nplurals=2; plural=(n != 1);","lang":"en"}`)

	// Empty plural forms are not emitted.
	assert.JSONEq(t, `["Olá"]`, gjson.GetBytes(data, "locale_data.messages.Hello").Raw)
	assert.False(t, gjson.GetBytes(data, "locale_data.messages.Gone").Exists())
}

func TestEncode_PadsPluralForms(t *testing.T) {
	t.Parallel()

	sub := catalog.New()
	sub.SetHeader(catalog.HeaderPluralForms, "nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 ? 1 : 2);")

	e, err := catalog.NewEntry("", "%d file", "%d plik", "%d pliki")
	require.NoError(t, err)

	e.Plural = "%d files"
	sub.Add(e)

	data, err := Encode(sub, "ttsync")
	require.NoError(t, err)
	assert.JSONEq(t, `["%d plik","%d pliki",""]`, gjson.GetBytes(data, `locale_data.messages.%d file`).Raw)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	existing := []byte(`{"domain":"hello","locale_data":{"hello":{` +
		`"":{"domain":"hello"},"Save":["Gravar"],"Old":["Antigo"],"ctx\u0004Kept":["Mantido"]}}}`)

	sub := Split(sampleCatalog(t))[0].Catalog

	added, err := Merge(sub, existing)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	save, ok := sub.Get("Save")
	require.True(t, ok)
	assert.Equal(t, "Guardar", save.Translation(), "new value wins")

	old, ok := sub.Get("Old")
	require.True(t, ok)
	assert.Equal(t, "Antigo", old.Translation())

	kept, ok := sub.Get(catalog.MakeKey("ctx", "Kept"))
	require.True(t, ok)
	assert.Equal(t, "ctx", kept.Context)
	assert.Equal(t, "Kept", kept.Original)
}

func TestMerge_FallsBackToMessages(t *testing.T) {
	t.Parallel()

	sub := catalog.New()
	sub.SetDomain("hello")

	added, err := Merge(sub, []byte(`{"locale_data":{"messages":{"":{},"Old":["Antigo"]}}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestMerge_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := Merge(catalog.New(), []byte(`{"locale_data":`))
	require.ErrorIs(t, err, errInvalidJSON)
}

func newSplitter(fs afero.Fs) *Splitter {
	return &Splitter{FS: fs, Locker: &fsys.Locker{}, Generator: "ttsync/test"}
}

func TestSplitter_Write(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s := newSplitter(fs)

	logs, oerr := s.Write(context.Background(), sampleCatalog(t), "plugins", "hello-pt_PT")
	require.Nil(t, oerr)

	assert.Equal(t, outcome.Log{
		"Saving file " + appFile + "…",
		"Saving file " + editorFile + "…",
	}, logs)

	for _, name := range []string{appFile, editorFile} {
		exists, err := afero.Exists(fs, "plugins/"+name)
		require.NoError(t, err)
		assert.True(t, exists, name)
	}
}

func TestSplitter_WriteMergesExisting(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s := newSplitter(fs)

	require.NoError(t, fsys.WriteFile(fs, appFile,
		[]byte(`{"locale_data":{"hello":{"":{},"Save":["Gravar"],"Old":["Antigo"]}}}`)))

	logs, oerr := s.Write(context.Background(), sampleCatalog(t), "", "hello-pt_PT")
	require.Nil(t, oerr)
	assert.Contains(t, logs, "Kept 1 existing translation from "+appFile+".")

	data, err := afero.ReadFile(fs, appFile)
	require.NoError(t, err)

	messages := gjson.GetBytes(data, "locale_data.hello")
	assert.Equal(t, "Guardar", messages.Get("Save.0").String())
	assert.Equal(t, "Antigo", messages.Get("Old.0").String())
	assert.Equal(t, "%d ficheiros", messages.Get(`%d file.1`).String())
}

func TestSplitter_WriteIsIdempotent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s := newSplitter(fs)

	require.NoError(t, fsys.WriteFile(fs, appFile, []byte(`{"locale_data":{"hello":{"Old":["Antigo"]}}}`)))

	_, oerr := s.Write(context.Background(), sampleCatalog(t), "", "hello-pt_PT")
	require.Nil(t, oerr)

	first, err := afero.ReadFile(fs, appFile)
	require.NoError(t, err)

	_, oerr = s.Write(context.Background(), sampleCatalog(t), "", "hello-pt_PT")
	require.Nil(t, oerr)

	second, err := afero.ReadFile(fs, appFile)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestSplitter_WriteReplacesCorruptFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s := newSplitter(fs)

	require.NoError(t, fsys.WriteFile(fs, appFile, []byte("not json")))

	logs, oerr := s.Write(context.Background(), sampleCatalog(t), "", "hello-pt_PT")
	require.Nil(t, oerr)
	assert.Contains(t, logs, "Existing file "+appFile+" is not valid JSON and will be replaced.")

	data, err := afero.ReadFile(fs, appFile)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(data))
}

func TestSplitter_WriteWithoutJavaScript(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Parse([]byte("#: includes/a.php:1\nmsgid \"PHP\"\nmsgstr \"PHP\"\n"))
	require.NoError(t, err)

	fs := afero.NewMemMapFs()

	logs, oerr := newSplitter(fs).Write(context.Background(), cat, "", "pt_PT")
	require.Nil(t, oerr)
	assert.Equal(t, outcome.Log{"No JavaScript translations found. No .json file was generated."}, logs)

	files, err := afero.ReadDir(fs, "/")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSplitter_WriteFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	logs, oerr := newSplitter(fs).Write(context.Background(), sampleCatalog(t), "", "hello-pt_PT")
	require.NotNil(t, oerr)
	assert.Equal(t, outcome.KindGenerateJSON, oerr.Kind)
	assert.Equal(t, outcome.Log{"Saving file " + appFile + "…"}, logs, "the pass stops at the first failure")
}

func TestMerge_KeepsExistingValues(t *testing.T) {
	t.Parallel()

	sub := catalog.New()
	sub.SetDomain("hello")
	sub.SetHeader(catalog.HeaderPluralForms, "nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 ? 1 : 2);")

	e, err := catalog.NewEntry("", "%d file", "%d plik", "%d pliki")
	require.NoError(t, err)

	e.Plural = "%d files"
	sub.Add(e)

	existing := []byte(`{"locale_data":{"hello":{"":{},` +
		`"Old":["a","b"],"Half":["x",""],"Many":["1","2","3","4"],"%d file":["stary"]}}}`)

	added, err := Merge(sub, existing)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	data, err := Encode(sub, "ttsync")
	require.NoError(t, err)

	messages := gjson.GetBytes(data, "locale_data.hello")
	assert.JSONEq(t, `["a","b"]`, messages.Get("Old").Raw, "fewer forms than nplurals")
	assert.JSONEq(t, `["x",""]`, messages.Get("Half").Raw, "empty plural form")
	assert.JSONEq(t, `["1","2","3","4"]`, messages.Get("Many").Raw, "more forms than nplurals")
	assert.JSONEq(t, `["%d plik","%d pliki",""]`, messages.Get(`%d file`).Raw, "new entries are normalised")
}

func TestMerge_SingleForeignDomain(t *testing.T) {
	t.Parallel()

	sub := catalog.New()
	sub.SetDomain("hello")

	added, err := Merge(sub, []byte(`{"locale_data":{"hello-old":{"":{},"Old":["Antigo"]}}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	old, ok := sub.Get("Old")
	require.True(t, ok)
	assert.Equal(t, "Antigo", old.Translation())

	added, err = Merge(catalog.New(), []byte(`{"locale_data":{"a":{"X":["1"]},"b":{"Y":["2"]}}}`))
	require.NoError(t, err)
	assert.Zero(t, added, "several unrelated domains are ambiguous")
}

func TestMerge_SkipsNonStringValues(t *testing.T) {
	t.Parallel()

	sub := catalog.New()

	added, err := Merge(sub, []byte(`{"locale_data":{"messages":{"":{},`+
		`"Obj":{"a":"b"},"Num":[1],"Mixed":["ok",true],"Str":"Texto"}}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	for _, key := range []string{"Obj", "Num", "Mixed"} {
		_, ok := sub.Get(key)
		assert.False(t, ok, key)
	}

	str, ok := sub.Get("Str")
	require.True(t, ok)
	assert.Equal(t, []string{"Texto"}, str.Translations)
}
