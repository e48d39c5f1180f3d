package resolve

import (
	"strings"

	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
	"github.com/adeptlang/adept/internal/scope"
	"github.com/adeptlang/adept/internal/types"
)

// GivenBound is a resolved trait bound of a function head.
type GivenBound struct {
	// Name is the bound's parameter name; empty for anonymous bounds.
	Name string

	TraitDecl types.DeclRef
	TraitName string
	TraitArgs []types.Type
}

// FuncHead is the resolved signature of a function: everything a call
// site needs without touching the body.
type FuncHead struct {
	Name    string
	FuncIdx uint32
	File    fstree.NodeID
	Module  fstree.NodeID

	// Params and Return may contain polymorphs for generic functions.
	Params []types.Type
	Return types.Type

	// Polymorphs lists $names in first-appearance order.
	Polymorphs []string

	Givens []GivenBound

	Foreign bool
	Exposed bool
	Mangled string
	Span    diag.Span
}

// IsGeneric reports whether the head carries polymorphs or trait bounds.
func (h *FuncHead) IsGeneric() bool {
	return len(h.Polymorphs) > 0 || len(h.Givens) > 0
}

// ResolveFuncHead resolves a function's declared signature.
func (r *Resolver) ResolveFuncHead(idx arena.Idx[ast.Func], file fstree.NodeID) (*FuncHead, *diag.Report) {
	d := r.WS.Funcs.At(idx)
	v := r.ViewOf(file)

	head := &FuncHead{
		Name:    d.Name,
		FuncIdx: uint32(idx),
		File:    file,
		Module:  v.Module,
		Foreign: d.Foreign,
		Exposed: d.Exposed || d.Foreign,
		Span:    d.Span,
	}

	for _, p := range d.Params {
		collectPolymorphs(p.Type, &head.Polymorphs)
		t, rep := r.ResolveType(v, p.Type)
		if rep != nil {
			return nil, rep
		}
		head.Params = append(head.Params, t.Type)
	}

	if d.Return == nil {
		head.Return = types.Void{}
	} else {
		collectPolymorphs(d.Return, &head.Polymorphs)
		ret, rep := r.ResolveType(v, d.Return)
		if rep != nil {
			return nil, rep
		}
		head.Return = ret.Type
	}

	for _, g := range d.Givens {
		bound, rep := r.resolveGiven(v, g)
		if rep != nil {
			return nil, rep
		}
		head.Givens = append(head.Givens, bound)
	}

	head.Mangled = mangle(r.WS.Tree, head)
	return head, nil
}

func (r *Resolver) resolveGiven(v View, g ast.Given) (GivenBound, *diag.Report) {
	head, rep := r.Scope(v).FindSymbol(scope.Search{
		Namespace: g.Trait.Namespace,
		Name:      g.Trait.Name,
		Category:  scope.CategoryTrait,
		Arity:     len(g.Trait.Args),
		From:      v.File,
		Span:      g.Trait.Span,
	})
	if rep != nil {
		return GivenBound{}, rep
	}
	args := make([]types.Type, len(g.Trait.Args))
	for i, a := range g.Trait.Args {
		t, rep := r.ResolveTypeKeepAliases(v, a)
		if rep != nil {
			return GivenBound{}, rep
		}
		args[i] = t
	}
	return GivenBound{
		Name:      g.Name,
		TraitDecl: types.DeclRef{Kind: types.DeclTrait, Index: head.Target.Index},
		TraitName: g.Trait.Name,
		TraitArgs: args,
	}, nil
}

// collectPolymorphs gathers $names from a surface type in
// first-appearance order.
func collectPolymorphs(t ast.Type, into *[]string) {
	add := func(name string) {
		for _, n := range *into {
			if n == name {
				return
			}
		}
		*into = append(*into, name)
	}
	switch t := t.(type) {
	case ast.TypePolymorph:
		add(t.Name)
	case ast.TypePtr:
		collectPolymorphs(t.Inner, into)
	case ast.TypeDeref:
		collectPolymorphs(t.Inner, into)
	case ast.TypeFixedArray:
		collectPolymorphs(t.Elem, into)
	case ast.TypeNamed:
		for _, a := range t.Args {
			collectPolymorphs(a, into)
		}
	}
}

// mangle produces the linker-visible name. Foreign functions keep their C
// name untouched; owned functions are prefixed with the module path.
func mangle(tree *fstree.Tree, h *FuncHead) string {
	if h.Foreign {
		return h.Name
	}
	module := strings.Trim(tree.Path(h.Module), "/")
	if module == "" {
		return "adept." + h.Name
	}
	return "adept." + strings.ReplaceAll(module, "/", ".") + "." + h.Name
}
