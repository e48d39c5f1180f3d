package scope

import (
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
)

// Build estimates the declaration scope of every module in the workspace,
// then wires imports between them. Same-module duplicates inside one
// category are reported with both source positions; ambiguity across
// imports is deferred to lookup time.
func Build(ws *ast.Workspace) (map[fstree.NodeID]*DeclScope, []*diag.Report) {
	var reports []*diag.Report
	scopes := map[fstree.NodeID]*DeclScope{}

	for root := range ws.ModuleSettings {
		s, reps := estimateDeclScope(ws, root)
		reports = append(reports, reps...)
		scopes[root] = s
	}

	// Resolve imports: the scope of an importing module is extended with
	// every public declaration of its directly imported modules, under
	// the importing module's namespaces.
	for root, s := range scopes {
		settings := ws.ModuleSettings[root]
		byNS, rep := settings.ImportedModules()
		if rep != nil {
			reports = append(reports, rep)
			continue
		}
		for ns, mods := range byNS {
			for _, mod := range mods {
				imported, ok := scopes[mod]
				if !ok {
					continue
				}
				s.AddImport(ns, imported)
			}
		}
	}
	return scopes, reports
}

// estimateDeclScope gathers the declaration heads of every file under the
// module root, indexed by name and sorted into categories.
func estimateDeclScope(ws *ast.Workspace, root fstree.NodeID) (*DeclScope, []*diag.Report) {
	s := newDeclScope(ws.Tree, root)
	var reports []*diag.Report

	dup := func(prev, next DeclHead) *diag.Report {
		return diag.New(diag.SCP003, "scope", next.Span,
			"%s %q is already declared in this module (previous declaration at %s)",
			next.Category, next.Name, prev.Span).
			With("previous", prev.Span.String())
	}

	addUnique := func(h DeclHead) {
		hs := s.set(h.Name)
		for _, prev := range hs.Heads(h.Category) {
			if prev.Arity == h.Arity {
				reports = append(reports, dup(prev, h))
				return
			}
		}
		hs.add(h)
	}

	for _, f := range ws.ModuleFiles(root) {
		file := f.Node
		head := func(name string, cat Category, arity int, privacy ast.Privacy, span diag.Span, tgt Target) DeclHead {
			return DeclHead{
				Name:     name,
				Category: cat,
				Arity:    arity,
				Private:  privacy == ast.Private,
				File:     file,
				Module:   root,
				Span:     span,
				Target:   tgt,
			}
		}

		for _, idx := range f.Funcs {
			d := ws.Funcs.At(idx)
			// Functions overload; every head is kept and call dispatch
			// disambiguates.
			s.set(d.Name).add(head(d.Name, CategoryFunc, len(d.Params), d.Privacy, d.Span,
				Target{Kind: TargetFunc, Index: uint32(idx)}))
		}
		for _, idx := range f.Structs {
			d := ws.Structs.At(idx)
			addUnique(head(d.Name, CategoryType, len(d.TypeParams), d.Privacy, d.Span,
				Target{Kind: TargetStruct, Index: uint32(idx)}))
		}
		for _, idx := range f.Enums {
			d := ws.Enums.At(idx)
			addUnique(head(d.Name, CategoryType, 0, d.Privacy, d.Span,
				Target{Kind: TargetEnum, Index: uint32(idx)}))
		}
		for _, idx := range f.TypeAliases {
			d := ws.TypeAliases.At(idx)
			addUnique(head(d.Name, CategoryType, len(d.TypeParams), d.Privacy, d.Span,
				Target{Kind: TargetTypeAlias, Index: uint32(idx)}))
		}
		for _, idx := range f.Globals {
			d := ws.Globals.At(idx)
			// Globals share the value-name category with expression
			// aliases.
			addUnique(head(d.Name, CategoryExprAlias, 0, d.Privacy, d.Span,
				Target{Kind: TargetGlobal, Index: uint32(idx)}))
		}
		for _, idx := range f.ExprAliases {
			d := ws.ExprAliases.At(idx)
			addUnique(head(d.Name, CategoryExprAlias, 0, d.Privacy, d.Span,
				Target{Kind: TargetExprAlias, Index: uint32(idx)}))
		}
		for _, idx := range f.Traits {
			d := ws.Traits.At(idx)
			addUnique(head(d.Name, CategoryTrait, len(d.TypeParams), d.Privacy, d.Span,
				Target{Kind: TargetTrait, Index: uint32(idx)}))
		}
		for _, idx := range f.Impls {
			d := ws.Impls.At(idx)
			h := head(d.Name, CategoryImpl, 0, d.Privacy, d.Span,
				Target{Kind: TargetImpl, Index: uint32(idx)})
			if d.Name != "" {
				addUnique(h)
			}
			s.Impls = append(s.Impls, ImplEntry{Head: h, Trait: d.Trait})
		}
	}
	return s, reports
}
