// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

// key identifies one catalogue entry. plural is empty for singular messages.
type key struct {
	ctx    string
	id     string
	plural string
}

type ref struct {
	file string
	line int
}

// trArgs gives the argument positions of a translation call. A negative
// position means the call has no such argument.
type trArgs struct {
	ctx, id, plural int
}

func (a trArgs) need() int {
	return max(a.ctx, a.id, a.plural) + 1
}

var trFuncs = map[string]trArgs{
	"Tr":   {ctx: -1, id: 1, plural: -1},
	"TrC":  {ctx: 1, id: 2, plural: -1},
	"TrN":  {ctx: -1, id: 1, plural: 2},
	"TrNC": {ctx: 1, id: 2, plural: 3},
}

type scanner struct {
	refs map[key][]ref
	root string
	fset *token.FileSet
	info *types.Info
	i18n map[string]bool
}

// scan walks the syntax of every package and collects message references.
func scan(pkgs []*packages.Package, root string) map[key][]ref {
	refs := map[key][]ref{}
	i18n := i18nPackages(pkgs)

	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		s := &scanner{refs: refs, root: root, fset: p.Fset, info: p.TypesInfo, i18n: i18n}

		for _, f := range p.Syntax {
			ast.Inspect(f, s.visit)
		}
	}

	return refs
}

func (s *scanner) visit(n ast.Node) bool {
	switch x := n.(type) {
	case *ast.CallExpr:
		s.call(x)
	case *ast.CompositeLit:
		s.literal(x)
	}

	return true
}

// i18nPackages finds the packages named i18n that declare a string-based
// MsgKey type. Calls are matched against these paths so aliased imports work.
func i18nPackages(pkgs []*packages.Package) map[string]bool {
	out := map[string]bool{}

	for _, p := range pkgs {
		if p.Name != "i18n" || p.Types == nil {
			continue
		}

		tn, ok := p.Types.Scope().Lookup("MsgKey").(*types.TypeName)
		if !ok {
			continue
		}

		if b, ok := tn.Type().Underlying().(*types.Basic); ok && b.Kind() == types.String {
			out[p.PkgPath] = true
		}
	}

	return out
}

// isMsgKey reports whether t is the MsgKey type of a known i18n package.
func (s *scanner) isMsgKey(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()

	return obj != nil && obj.Pkg() != nil && obj.Name() == "MsgKey" && s.i18n[obj.Pkg().Path()]
}

// str returns the compile-time string value of expr.
func (s *scanner) str(expr ast.Expr) (string, bool) {
	tv, ok := s.info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}

// key records expr as a plain message when it is a constant string.
func (s *scanner) key(expr ast.Expr) {
	if msg, ok := s.str(expr); ok {
		s.add(expr.Pos(), key{id: msg})
	}
}

func (s *scanner) literal(x *ast.CompositeLit) {
	tv, ok := s.info.Types[x]
	if !ok || tv.Type == nil {
		return
	}

	t := tv.Type
	if p, ok := t.Underlying().(*types.Pointer); ok {
		t = p.Elem()
	}

	switch u := t.Underlying().(type) {
	case *types.Map:
		keys, vals := s.isMsgKey(u.Key()), s.isMsgKey(u.Elem())

		for _, elt := range x.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				continue
			}

			if keys {
				s.key(kv.Key)
			}

			if vals {
				s.key(kv.Value)
			}
		}

	case *types.Slice:
		s.elements(x.Elts, u.Elem())

	case *types.Array:
		s.elements(x.Elts, u.Elem())

	case *types.Struct:
		for i, elt := range x.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				if i < u.NumFields() && s.isMsgKey(u.Field(i).Type()) {
					s.key(elt)
				}

				continue
			}

			id, ok := kv.Key.(*ast.Ident)
			if !ok {
				continue
			}

			for f := range u.Fields() {
				if f.Name() == id.Name && s.isMsgKey(f.Type()) {
					s.key(kv.Value)
				}
			}
		}
	}
}

func (s *scanner) elements(elts []ast.Expr, elem types.Type) {
	if !s.isMsgKey(elem) {
		return
	}

	for _, elt := range elts {
		s.key(elt)
	}
}

func (s *scanner) call(x *ast.CallExpr) {
	// MsgKey("...") conversion.
	if tv, ok := s.info.Types[x.Fun]; ok && tv.IsType() {
		if len(x.Args) == 1 && s.isMsgKey(tv.Type) {
			s.key(x.Args[0])
		}

		return
	}

	if sel, ok := x.Fun.(*ast.SelectorExpr); ok {
		if fn, ok := s.info.Uses[sel.Sel].(*types.Func); ok && fn.Pkg() != nil && s.i18n[fn.Pkg().Path()] {
			if a, ok := trFuncs[fn.Name()]; ok {
				s.translation(x.Args, a)

				return
			}
		}
	}

	s.params(x)
}

// translation records a Tr family call whose message arguments are all
// constant.
func (s *scanner) translation(args []ast.Expr, a trArgs) {
	if len(args) < a.need() {
		return
	}

	arg := func(i int) (string, bool) {
		if i < 0 {
			return "", true
		}

		return s.str(args[i])
	}

	ctx, ok1 := arg(a.ctx)
	id, ok2 := arg(a.id)
	plural, ok3 := arg(a.plural)

	if ok1 && ok2 && ok3 {
		s.add(args[a.id].Pos(), key{ctx: ctx, id: id, plural: plural})
	}
}

// params records constant arguments passed to MsgKey parameters of any call.
func (s *scanner) params(x *ast.CallExpr) {
	sig, ok := s.info.TypeOf(x.Fun).(*types.Signature)
	if !ok || sig.Params().Len() == 0 {
		return
	}

	params := sig.Params()
	last := params.Len() - 1

	for i, arg := range x.Args {
		var pt types.Type

		switch {
		case sig.Variadic() && i >= last:
			// f(xs...) is covered by the literal that built xs.
			if x.Ellipsis != token.NoPos {
				continue
			}

			pt = params.At(last).Type().(*types.Slice).Elem()
		case i > last:
			return
		default:
			pt = params.At(i).Type()
		}

		if s.isMsgKey(pt) {
			s.key(arg)
		}
	}
}

// add stores a reference with its file path relative to the project root.
func (s *scanner) add(pos token.Pos, k key) {
	p := s.fset.Position(pos)

	file := p.Filename
	if rel, err := filepath.Rel(s.root, file); err == nil {
		file = rel
	}

	s.refs[k] = append(s.refs[k], ref{file: filepath.ToSlash(file), line: p.Line})
}
