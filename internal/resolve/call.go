package resolve

import (
	"fmt"

	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/cfg"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/poly"
	"github.com/adeptlang/adept/internal/scope"
	"github.com/adeptlang/adept/internal/types"
)

// BuiltinKind distinguishes the built-in call forms from ordinary
// dispatch.
type BuiltinKind int

const (
	BuiltinNone BuiltinKind = iota

	// BuiltinCast is a primitive-type cast like u32(x).
	BuiltinCast

	// BuiltinPtr lifts an l-value destination to a pointer.
	BuiltinPtr

	// BuiltinDeref loads through a pointer operand.
	BuiltinDeref
)

// CallSite is the dispatch result for one call instruction.
type CallSite struct {
	Builtin     BuiltinKind
	BuiltinType types.Type // cast target for BuiltinCast

	Callee *FuncHead
	Recipe *poly.Recipe

	// Params and Return are the baked (polymorph-free) types.
	Params []types.Type
	Return types.Type

	// Impls binds each trait-bound parameter to its implementation.
	Impls map[string]poly.ImplRef
}

// builtinCastTarget maps a built-in cast name to its target type. The
// second result is true for ptr/deref even though they have no fixed
// target.
func builtinCastTarget(name string) (types.Type, bool) {
	switch name {
	case "bool":
		return types.Boolean{}, true
	case "i8":
		return types.BitInteger{Bits: 8, Signed: true}, true
	case "i16":
		return types.BitInteger{Bits: 16, Signed: true}, true
	case "i32":
		return types.BitInteger{Bits: 32, Signed: true}, true
	case "i64":
		return types.BitInteger{Bits: 64, Signed: true}, true
	case "u8":
		return types.BitInteger{Bits: 8, Signed: false}, true
	case "u16":
		return types.BitInteger{Bits: 16, Signed: false}, true
	case "u32":
		return types.BitInteger{Bits: 32, Signed: false}, true
	case "u64":
		return types.BitInteger{Bits: 64, Signed: false}, true
	case "f32", "float":
		return types.Floating{Bits: 32}, true
	case "f64", "double":
		return types.Floating{Bits: 64}, true
	case "usize":
		return types.SizeInteger{Signed: false}, true
	case "isize":
		return types.SizeInteger{Signed: true}, true
	case "ptr", "deref":
		return nil, true
	}
	return nil, false
}

// callCandidates returns the prefetched heads of every overload
// candidate for a call.
func (b *bodyResolver) callCandidates(in *cfg.Instr) []*FuncHead {
	var out []*FuncHead
	for _, h := range b.r.Scope(b.view).FindFuncs(scope.Search{
		Namespace: in.Call.Namespace,
		Name:      in.Call.Name,
		From:      b.view.File,
		Span:      in.Span,
	}) {
		out = append(out, b.heads[h.Target.Index])
	}
	return out
}

func (b *bodyResolver) dispatchCall(ref cfg.InstrRef, in *cfg.Instr) {
	call := in.Call

	// Built-in casts apply directly, producing a single typed value.
	if target, ok := builtinCastTarget(call.Name); ok && len(call.Namespace) == 0 && len(in.Args) == 1 {
		b.dispatchBuiltin(ref, in, call.Name, target)
		return
	}

	// String subscripts have no defined semantics.
	if call.Name == "__subscript" && len(in.Args) == 2 {
		base := rvalue(b.typeOf(in.Args[0]))
		if p, ok := types.Unalias(base).Type.(types.Ptr); ok {
			if c, ok := types.Unalias(p.Inner).Type.(types.CInteger); ok && c.Kind == types.CChar {
				b.reports = append(b.reports, diag.New(diag.RES021, "resolve", in.Span,
					"strings cannot be subscripted"))
				b.out.Types[ref] = types.Never{}
				return
			}
		}
	}

	site, rep := b.selectOverload(ref, in)
	if rep != nil {
		b.reports = append(b.reports, rep)
		b.out.Types[ref] = types.Never{}
		return
	}

	// Conform each argument to its baked parameter type.
	for i, arg := range in.Args {
		b.conformOperand(ref, 2+i, arg, site.Params[i], in.Span)
	}

	// An explicit return-type claim must equal the baked return type.
	if call.ExpectedToReturn != nil {
		claimed, rep := b.r.ResolveType(b.view, call.ExpectedToReturn)
		if rep != nil {
			b.reports = append(b.reports, rep)
		} else if !types.Equal(types.Unalias(site.Return).Type, claimed.Type) {
			b.reports = append(b.reports, diag.New(diag.RES005, "resolve", in.Span,
				"call returns %s, not %s as claimed", site.Return, claimed.Type))
		}
	}

	b.out.Calls[ref] = site
	b.out.Types[ref] = site.Return
}

func (b *bodyResolver) dispatchBuiltin(ref cfg.InstrRef, in *cfg.Instr, name string, target types.Type) {
	arg := in.Args[0]
	argT := types.Unalias(b.typeOf(arg)).Type

	switch name {
	case "deref":
		inner, ok := types.Unalias(rvalue(argT)).Type.(types.Ptr)
		if !ok {
			b.reports = append(b.reports, diag.New(diag.RES010, "resolve", in.Span,
				"deref requires a pointer operand, not %s", argT))
			b.out.Types[ref] = types.Never{}
			return
		}
		b.conformOperand(ref, 2, arg, types.Ptr{Inner: inner.Inner}, in.Span)
		b.out.Calls[ref] = &CallSite{Builtin: BuiltinDeref, Return: types.Deref{Inner: inner.Inner}}
		b.out.Types[ref] = types.Deref{Inner: inner.Inner}

	case "ptr":
		d, ok := argT.(types.Deref)
		if !ok {
			b.reports = append(b.reports, diag.New(diag.RES011, "resolve", in.Span,
				"ptr requires an addressable destination, not %s", argT))
			b.out.Types[ref] = types.Never{}
			return
		}
		b.out.Calls[ref] = &CallSite{Builtin: BuiltinPtr, Return: types.Ptr{Inner: d.Inner}}
		b.out.Types[ref] = types.Ptr{Inner: d.Inner}

	default:
		plan, ok := types.Conform(b.typeOf(arg), target, types.ConformExplicit, b.asm)
		if !ok {
			b.reports = append(b.reports, diag.New(diag.RES003, "resolve", in.Span,
				"cannot cast %s to %s", b.typeOf(arg), target))
			b.out.Types[ref] = types.Never{}
			return
		}
		if len(plan) > 0 {
			b.out.OperandCasts[OperandKey{User: ref, Operand: 2}] = plan
		}
		b.out.Calls[ref] = &CallSite{Builtin: BuiltinCast, BuiltinType: target, Return: target}
		b.out.Types[ref] = target
	}
}

// selectOverload performs overload resolution: candidates with matching
// arity whose declared parameter types either equal each argument's type
// or admit a conformance. Fewer conformances win; ties are hard errors.
func (b *bodyResolver) selectOverload(ref cfg.InstrRef, in *cfg.Instr) (*CallSite, *diag.Report) {
	type viable struct {
		site *CallSite
		cost int
	}
	var best []viable

	argTypes := make([]types.Type, len(in.Args))
	for i, a := range in.Args {
		argTypes[i] = rvalue(b.typeOf(a))
	}

	for _, head := range b.callCandidates(in) {
		if head == nil || len(head.Params) != len(in.Args) {
			continue
		}
		site, cost, ok := b.tryCandidate(head, in, argTypes)
		if !ok {
			continue
		}
		v := viable{site: site, cost: cost}
		switch {
		case len(best) == 0 || cost < best[0].cost:
			best = []viable{v}
		case cost == best[0].cost:
			best = append(best, v)
		}
	}

	switch len(best) {
	case 0:
		return nil, diag.New(diag.RES001, "resolve", in.Span,
			"no function %q matches these argument types", in.Call.Name)
	case 1:
		return best[0].site, nil
	default:
		return nil, diag.New(diag.RES002, "resolve", in.Span,
			"call to %q is ambiguous (%d equally good candidates)", in.Call.Name, len(best))
	}
}

// tryCandidate matches one overload candidate, building its catalog and
// counting required conformances.
func (b *bodyResolver) tryCandidate(head *FuncHead, in *cfg.Instr, argTypes []types.Type) (*CallSite, int, bool) {
	cat := poly.NewCatalog()

	// Explicit generics bind the head's polymorphs in declaration order.
	if n := len(in.Call.Generics); n > 0 {
		if n > len(head.Polymorphs) {
			return nil, 0, false
		}
		for i, g := range in.Call.Generics {
			t, rep := b.r.ResolveType(b.view, g)
			if rep != nil {
				return nil, 0, false
			}
			if cat.Insert(head.Polymorphs[i], poly.TypeValue{Type: t.Type}) != nil {
				return nil, 0, false
			}
		}
	}

	cost := 0
	for i, pattern := range head.Params {
		concrete := argTypes[i]
		if types.ContainsPolymorph(pattern) {
			// Pin flexible literals before binding a polymorph.
			if lit, ok := types.Unify(nil, []types.Type{concrete}, b.asm); ok {
				concrete = lit
			}
			if poly.MatchType(pattern, concrete, cat) != nil {
				return nil, 0, false
			}
			continue
		}
		plan, ok := types.Conform(concrete, pattern, types.ConformImplicit, b.asm)
		if !ok {
			return nil, 0, false
		}
		if len(plan) > 0 {
			cost++
		}
	}

	impls, ok := b.resolveImplArgs(head, in, cat)
	if !ok {
		return nil, 0, false
	}

	recipe := cat.Bake()
	site := &CallSite{Callee: head, Recipe: recipe, Impls: impls}
	for _, p := range head.Params {
		baked, err := recipe.ResolveType(p)
		if err != nil {
			return nil, 0, false
		}
		site.Params = append(site.Params, baked)
	}
	ret, err := recipe.ResolveType(head.Return)
	if err != nil {
		return nil, 0, false
	}
	site.Return = types.Unalias(ret).Type
	return site, cost, true
}

// resolveImplArgs wires `using` clauses and infers the rest by unique
// scope search.
func (b *bodyResolver) resolveImplArgs(head *FuncHead, in *cfg.Instr, cat *poly.Catalog) (map[string]poly.ImplRef, bool) {
	if len(head.Givens) == 0 {
		return nil, true
	}
	impls := map[string]poly.ImplRef{}

	used := map[int]bool{}
	for gi, given := range head.Givens {
		key := givenKey(given, gi)

		// An explicit using clause naming this parameter wins.
		if implRef, ok := b.findSpecifiedImpl(given, in.Call.Using, cat); ok {
			impls[key] = implRef
			used[gi] = true
			continue
		}

		// Otherwise search the surrounding scope for a unique impl.
		matches := b.matchingImpls(given, cat)
		if len(matches) != 1 {
			b.reports = append(b.reports, diag.New(diag.POL004, "resolve", in.Span,
				"%d implementations of %s satisfy this call; exactly one is required",
				len(matches), given.TraitName))
			return nil, false
		}
		impls[key] = matches[0]
	}
	return impls, true
}

func givenKey(g GivenBound, i int) string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("%s#%d", g.TraitName, i)
}

// findSpecifiedImpl resolves a using-clause impl for the given bound.
func (b *bodyResolver) findSpecifiedImpl(given GivenBound, using []ast.UsingArg, cat *poly.Catalog) (poly.ImplRef, bool) {
	for _, u := range using {
		if u.Name != "" && u.Name != given.Name {
			continue
		}
		head, rep := b.r.Scope(b.view).FindSymbol(scope.Search{
			Namespace: u.Impl.Namespace,
			Name:      u.Impl.Name,
			Category:  scope.CategoryImpl,
			Arity:     scope.AnyArity,
			From:      b.view.File,
			Span:      u.Span,
		})
		if rep != nil {
			continue
		}
		implRef := poly.ImplRef{Index: head.Target.Index}
		if b.implMatchesGiven(head, given, cat) {
			return implRef, true
		}
	}
	return poly.ImplRef{}, false
}

// matchingImpls searches the module scope for impls targeting the bound's
// trait with congruent type arguments.
func (b *bodyResolver) matchingImpls(given GivenBound, cat *poly.Catalog) []poly.ImplRef {
	var out []poly.ImplRef
	for _, entry := range b.r.Scope(b.view).Impls {
		if b.implMatchesGiven(entry.Head, given, cat) {
			out = append(out, poly.ImplRef{Index: entry.Head.Target.Index})
		}
	}
	return out
}

// implMatchesGiven matches the given's (possibly polymorphic) trait
// reference against one impl's concrete trait reference, extending the
// catalog on success.
func (b *bodyResolver) implMatchesGiven(implHead scope.DeclHead, given GivenBound, cat *poly.Catalog) bool {
	d := b.r.WS.Impls.At(arena.Idx[ast.Impl](implHead.Target.Index))
	implView := b.r.ViewOf(implHead.File)

	traitHead, rep := b.r.Scope(implView).FindSymbol(scope.Search{
		Namespace: d.Trait.Namespace,
		Name:      d.Trait.Name,
		Category:  scope.CategoryTrait,
		Arity:     len(d.Trait.Args),
		From:      implHead.File,
		Span:      d.Trait.Span,
	})
	if rep != nil {
		return false
	}
	if (types.DeclRef{Kind: types.DeclTrait, Index: traitHead.Target.Index}) != given.TraitDecl {
		return false
	}
	if len(d.Trait.Args) != len(given.TraitArgs) {
		return false
	}

	// Match pattern args (the bound's, possibly polymorphic) against the
	// impl's concrete args. A speculative catalog protects the real one
	// until the whole impl matches.
	trial := poly.NewCatalog()
	for _, name := range cat.Names() {
		v, _ := cat.Get(name)
		if trial.Insert(name, v) != nil {
			return false
		}
	}
	for i, implArg := range d.Trait.Args {
		concrete, rep := b.r.ResolveType(implView, implArg)
		if rep != nil {
			return false
		}
		if poly.MatchType(given.TraitArgs[i], concrete.Type, trial) != nil {
			return false
		}
	}
	for _, name := range trial.Names() {
		v, _ := trial.Get(name)
		if cat.Insert(name, v) != nil {
			return false
		}
	}
	return true
}
