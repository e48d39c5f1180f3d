// Package resolve maps surface syntax onto the resolved type system:
// types, function heads, and function bodies, including preferred-type
// propagation, unification-driven conformance, and call dispatch.
package resolve

import (
	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
	"github.com/adeptlang/adept/internal/scope"
	"github.com/adeptlang/adept/internal/types"
)

// idx converts a raw head index back into the function arena's typed
// index.
func idx(i uint32) arena.Idx[ast.Func] {
	return arena.Idx[ast.Func](i)
}

// Resolver holds the immutable inputs every resolution step shares.
type Resolver struct {
	WS     *ast.Workspace
	Scopes map[fstree.NodeID]*scope.DeclScope
}

// Assumptions returns the unifier assumptions in effect for a module.
func (r *Resolver) Assumptions(module fstree.NodeID) types.Assumptions {
	s := r.WS.ModuleSettings[module]
	if s == nil {
		return types.Assumptions{IntAtLeast32Bits: true}
	}
	return types.Assumptions{IntAtLeast32Bits: s.IntAtLeast32Bits}
}

// View is the vantage point of one resolution: the file it happens in,
// the module scope it searches, and the polymorph bindings currently in
// force (generic argument substitution during alias expansion).
type View struct {
	File   fstree.NodeID
	Module fstree.NodeID

	// polyBindings substitutes surface $name types during alias
	// expansion; nil outside of one.
	polyBindings map[string]types.Type

	// aliasStack tracks in-progress alias expansions for cycle
	// detection.
	aliasStack []string
}

// Scope returns the view's module scope.
func (r *Resolver) Scope(v View) *scope.DeclScope {
	return r.Scopes[v.Module]
}

// ViewOf builds the view for a file.
func (r *Resolver) ViewOf(file fstree.NodeID) View {
	return View{File: file, Module: r.WS.ModuleOf(file)}
}

func (v View) withBindings(b map[string]types.Type) View {
	out := v
	out.polyBindings = b
	return out
}

func (v View) pushAlias(name string) (View, bool) {
	for _, n := range v.aliasStack {
		if n == name {
			return v, false
		}
	}
	out := v
	out.aliasStack = append(append([]string{}, v.aliasStack...), name)
	return out, true
}

// ResolveType resolves a surface type, unaliasing the outermost layer.
func (r *Resolver) ResolveType(v View, t ast.Type) (types.UnaliasedType, *diag.Report) {
	resolved, rep := r.resolve(v, t, false)
	if rep != nil {
		return types.UnaliasedType{}, rep
	}
	return types.Unalias(resolved), nil
}

// ResolveTypeKeepAliases resolves a surface type, preserving an outer
// alias constructor when the surface form names one.
func (r *Resolver) ResolveTypeKeepAliases(v View, t ast.Type) (types.Type, *diag.Report) {
	return r.resolve(v, t, true)
}

func (r *Resolver) resolve(v View, t ast.Type, keepAliases bool) (types.Type, *diag.Report) {
	switch t := t.(type) {
	case ast.TypePrimitive:
		return primitiveType(t.Prim), nil

	case ast.TypePtr:
		inner, rep := r.resolve(v, t.Inner, keepAliases)
		if rep != nil {
			return nil, rep
		}
		return types.Ptr{Inner: inner}, nil

	case ast.TypeDeref:
		inner, rep := r.resolve(v, t.Inner, keepAliases)
		if rep != nil {
			return nil, rep
		}
		return types.Deref{Inner: inner}, nil

	case ast.TypeFixedArray:
		size, rep := r.Evaluate(v, t.Size)
		if rep != nil {
			return nil, rep
		}
		if size < 0 || size > 1<<32 {
			return nil, diag.New(diag.TYP005, "resolve", t.Span,
				"array size %d is out of range", size)
		}
		elem, rep := r.resolve(v, t.Elem, keepAliases)
		if rep != nil {
			return nil, rep
		}
		return types.FixedArray{Count: uint64(size), Elem: elem}, nil

	case ast.TypePolymorph:
		if bound, ok := v.polyBindings[t.Name]; ok {
			return bound, nil
		}
		return types.Polymorph{Name: t.Name}, nil

	case ast.TypeNamed:
		return r.resolveNamed(v, t, keepAliases)
	}
	diag.ICE("resolve: unhandled surface type %T", t)
	return nil, nil
}

func (r *Resolver) resolveNamed(v View, t ast.TypeNamed, keepAliases bool) (types.Type, *diag.Report) {
	head, rep := r.Scope(v).FindSymbol(scope.Search{
		Namespace: t.Namespace,
		Name:      t.Name,
		Category:  scope.CategoryType,
		Arity:     len(t.Args),
		From:      v.File,
		Span:      t.Span,
	})
	if rep != nil {
		// Re-key scope errors into the type taxonomy.
		code := diag.TYP001
		if rep.Code == diag.SCP002 {
			code = diag.TYP002
		}
		return nil, diag.New(code, "resolve", t.Span, "undeclared or ambiguous type %q: %s", t.Name, rep.Message)
	}

	args := make([]types.Type, len(t.Args))
	for i, a := range t.Args {
		resolved, rep := r.resolve(v, a, keepAliases)
		if rep != nil {
			return nil, rep
		}
		args[i] = resolved
	}

	switch head.Target.Kind {
	case scope.TargetStruct:
		d := r.WS.Structs.At(arena.Idx[ast.Struct](head.Target.Index))
		return types.UserDefined{
			Decl: types.DeclRef{Kind: types.DeclStruct, Index: head.Target.Index},
			Name: d.Name,
			Args: args,
		}, nil

	case scope.TargetEnum:
		d := r.WS.Enums.At(arena.Idx[ast.Enum](head.Target.Index))
		return types.UserDefined{
			Decl: types.DeclRef{Kind: types.DeclEnum, Index: head.Target.Index},
			Name: d.Name,
		}, nil

	case scope.TargetTypeAlias:
		return r.expandAlias(v, head, args, keepAliases, t.Span)
	}
	return nil, diag.New(diag.TYP001, "resolve", t.Span, "%q does not name a type", t.Name)
}

func (r *Resolver) expandAlias(v View, head scope.DeclHead, args []types.Type, keepAliases bool, span diag.Span) (types.Type, *diag.Report) {
	d := r.WS.TypeAliases.At(arena.Idx[ast.TypeAlias](head.Target.Index))

	next, ok := v.pushAlias(d.Name)
	if !ok {
		return nil, diag.New(diag.TYP003, "resolve", span,
			"type alias %q is recursive", d.Name)
	}

	bindings := map[string]types.Type{}
	for i, p := range d.TypeParams {
		bindings[p] = args[i]
	}
	// Alias bodies resolve in the defining module's scope.
	defView := View{
		File:       head.File,
		Module:     head.Module,
		aliasStack: next.aliasStack,
	}
	under, rep := r.resolve(defView.withBindings(bindings), d.Target, keepAliases)
	if rep != nil {
		return nil, rep
	}
	if keepAliases {
		return types.Alias{
			Decl:       types.DeclRef{Kind: types.DeclAlias, Index: head.Target.Index},
			Name:       d.Name,
			Args:       args,
			Underlying: under,
		}, nil
	}
	return types.Unalias(under).Type, nil
}

func primitiveType(p ast.Primitive) types.Type {
	switch p {
	case ast.PrimBool:
		return types.Boolean{}
	case ast.PrimI8:
		return types.BitInteger{Bits: 8, Signed: true}
	case ast.PrimI16:
		return types.BitInteger{Bits: 16, Signed: true}
	case ast.PrimI32:
		return types.BitInteger{Bits: 32, Signed: true}
	case ast.PrimI64:
		return types.BitInteger{Bits: 64, Signed: true}
	case ast.PrimU8:
		return types.BitInteger{Bits: 8, Signed: false}
	case ast.PrimU16:
		return types.BitInteger{Bits: 16, Signed: false}
	case ast.PrimU32:
		return types.BitInteger{Bits: 32, Signed: false}
	case ast.PrimU64:
		return types.BitInteger{Bits: 64, Signed: false}
	case ast.PrimF32:
		return types.Floating{Bits: 32}
	case ast.PrimF64:
		return types.Floating{Bits: 64}
	case ast.PrimUsize:
		return types.SizeInteger{Signed: false}
	case ast.PrimIsize:
		return types.SizeInteger{Signed: true}
	case ast.PrimChar:
		return types.CInteger{Kind: types.CChar, Sign: types.SignUnspecified}
	case ast.PrimUchar:
		return types.CInteger{Kind: types.CChar, Sign: types.SignUnsigned}
	case ast.PrimSchar:
		return types.CInteger{Kind: types.CChar, Sign: types.SignSigned}
	case ast.PrimShort:
		return types.CInteger{Kind: types.CShort, Sign: types.SignSigned}
	case ast.PrimUshort:
		return types.CInteger{Kind: types.CShort, Sign: types.SignUnsigned}
	case ast.PrimInt:
		return types.CInteger{Kind: types.CInt, Sign: types.SignSigned}
	case ast.PrimUint:
		return types.CInteger{Kind: types.CInt, Sign: types.SignUnsigned}
	case ast.PrimLong:
		return types.CInteger{Kind: types.CLong, Sign: types.SignSigned}
	case ast.PrimUlong:
		return types.CInteger{Kind: types.CLong, Sign: types.SignUnsigned}
	case ast.PrimLonglong:
		return types.CInteger{Kind: types.CLongLong, Sign: types.SignSigned}
	case ast.PrimUlonglong:
		return types.CInteger{Kind: types.CLongLong, Sign: types.SignUnsigned}
	case ast.PrimVoid:
		return types.Void{}
	case ast.PrimNever:
		return types.Never{}
	}
	diag.ICE("resolve: unknown primitive %d", p)
	return nil
}
