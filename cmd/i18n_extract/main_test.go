// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

const i18nSrc = `package i18n

type MsgKey string

func Tr(ctx any, k MsgKey, kv ...any) string { return "" }
func TrC(ctx any, c string, k MsgKey, kv ...any) string { return "" }
func TrN(ctx any, s, p string, n int, kv ...any) string { return "" }
func TrNC(ctx any, c, s, p string, n int, kv ...any) string { return "" }
func Keys(ks ...MsgKey) []MsgKey { return ks }
`

const appSrc = `package app

import t "example.com/i18n"

const greeting = "Hello"

type page struct {
	Title t.MsgKey
	Body  string
}

var (
	_ = t.Tr(nil, greeting+" world")
	_ = t.TrC(nil, "menu", "Open")
	_ = t.TrN(nil, "%d file", "%d files", 2)
	_ = t.TrNC(nil, "disk", "%d byte", "%d bytes", 2)
	_ = t.MsgKey("Converted")
	_ = t.Keys("One", "Two")
	_ = []t.MsgKey{"Listed"}
	_ = map[t.MsgKey]string{"Mapped": "x"}
	_ = page{Title: "Titled", Body: "ignored"}
	_ = &page{"Positional", "ignored"}
	dynamic = "x"
	_ = t.Tr(nil, t.MsgKey(dynamic))
)
`

type pkgImporter map[string]*types.Package

func (m pkgImporter) Import(path string) (*types.Package, error) {
	return m[path], nil
}

func check(t *testing.T, fset *token.FileSet, path, name, src string, imp types.Importer) *packages.Package {
	t.Helper()

	f, err := parser.ParseFile(fset, filepath.Join("/src", name, name+".go"), src, 0)
	require.NoError(t, err)

	info := &types.Info{
		Types: map[ast.Expr]types.TypeAndValue{},
		Uses:  map[*ast.Ident]types.Object{},
		Defs:  map[*ast.Ident]types.Object{},
	}

	pkg, err := (&types.Config{Importer: imp}).Check(path, fset, []*ast.File{f}, info)
	require.NoError(t, err)

	return &packages.Package{
		Name:      pkg.Name(),
		PkgPath:   path,
		Fset:      fset,
		Syntax:    []*ast.File{f},
		Types:     pkg,
		TypesInfo: info,
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	fset := token.NewFileSet()
	i18n := check(t, fset, "example.com/i18n", "i18n", i18nSrc, nil)
	app := check(t, fset, "example.com/app", "app", appSrc, pkgImporter{"example.com/i18n": i18n.Types})

	refs := scan([]*packages.Package{i18n, app}, "/src")

	want := []key{
		{id: "Hello world"},
		{ctx: "menu", id: "Open"},
		{id: "%d file", plural: "%d files"},
		{ctx: "disk", id: "%d byte", plural: "%d bytes"},
		{id: "Converted"},
		{id: "One"},
		{id: "Two"},
		{id: "Listed"},
		{id: "Mapped"},
		{id: "Titled"},
		{id: "Positional"},
	}

	for _, k := range want {
		assert.Contains(t, refs, k)
	}

	assert.NotContains(t, refs, key{id: "ignored"})
	assert.Len(t, refs, len(want))

	r := refs[key{id: "Hello world"}]
	require.Len(t, r, 1)
	assert.Equal(t, "app/app.go", r[0].file)
}

func TestTemplate(t *testing.T) {
	t.Parallel()

	refs := map[key][]ref{
		{id: "b"}:              {{"x.go", 9}, {"a.go", 3}, {"x.go", 9}},
		{id: "a"}:              {{"a.go", 1}},
		{ctx: "menu", id: "a"}: {{"a.go", 2}},
	}

	pot, err := template(refs, "v1")
	require.NoError(t, err)
	require.Equal(t, 3, pot.Len())

	assert.Equal(t, "ttsync v1", pot.Header("Project-Id-Version"))

	entries := pot.Entries()
	assert.Equal(t, "a", entries[0].Original)
	assert.Empty(t, entries[0].Context)
	assert.Equal(t, "b", entries[1].Original)
	assert.Equal(t, "menu", entries[2].Context)
}

func TestReferences(t *testing.T) {
	t.Parallel()

	got := references([]ref{{"x.go", 9}, {"a.go", 3}, {"x.go", 9}, {"a.go", 1}})

	require.Len(t, got, 3)
	assert.Equal(t, "a.go", got[0].File)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, 3, got[1].Line)
	assert.Equal(t, "x.go", got[2].File)
}

func TestProjectRoot_GoMod(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")

	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))

	assert.Equal(t, root, projectRoot(nested))
}
