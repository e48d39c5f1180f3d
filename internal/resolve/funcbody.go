package resolve

import (
	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/cfg"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/types"
)

// OperandKey addresses one operand use of an instruction: 0 is A, 1 is
// B, and 2+n is Args[n] or the n-th phi incoming.
type OperandKey struct {
	User    cfg.InstrRef
	Operand int
}

// Binding records what a name instruction resolved to.
type Binding struct {
	// IsParam selects between a function parameter and a declare
	// instruction.
	IsParam bool
	Param   int
	Decl    cfg.InstrRef

	// Global is set when the name resolved to a module global.
	Global     bool
	GlobalIdx  uint32
	GlobalName string

	// Const is set when the name resolved to an expression alias; the
	// folded value lowers as a constant.
	Const    bool
	ConstVal int64
}

// ResolvedFunc is a fully typed function body: the artifact the lowerer
// consumes.
type ResolvedFunc struct {
	Head  *FuncHead
	Graph *cfg.Graph
	Doms  *cfg.Dominators

	// Types assigns every instruction's result type; literal kinds are
	// finalized to concrete types before the artifact is published.
	Types map[cfg.InstrRef]types.Type

	// Preferred carries the hint each instruction received, when any.
	Preferred map[cfg.InstrRef]types.Type

	// OperandCasts are the conformance plans per operand use.
	OperandCasts map[OperandKey][]types.Cast

	// EndCasts conform a block terminator's value (return value or
	// branch condition).
	EndCasts map[cfg.BlockID][]types.Cast

	// Calls holds dispatch results per call instruction.
	Calls map[cfg.InstrRef]*CallSite

	// Bindings resolves every name instruction.
	Bindings map[cfg.InstrRef]Binding

	// VarTypes records the value type behind each declare instruction.
	VarTypes map[cfg.InstrRef]types.Type
}

type varBinding struct {
	b Binding
	t types.Type // the variable's value type (not the l-value wrapper)
}

type bodyResolver struct {
	r    *Resolver
	head *FuncHead
	view View
	asm  types.Assumptions

	g    *cfg.Graph
	doms *cfg.Dominators

	// heads are prefetched callee signatures by function arena index.
	heads map[uint32]*FuncHead

	out     *ResolvedFunc
	vars    map[cfg.BlockID]map[string]varBinding
	reports []*diag.Report
}

// ResolveFuncBody builds the CFG for a function body, propagates
// preferred types in reverse post-order, and assigns a resolved type to
// every value in dominator order. Callee heads must be prefetched by the
// caller (the executor task) for every overload candidate in the body.
func (r *Resolver) ResolveFuncBody(head *FuncHead, heads map[uint32]*FuncHead) (*ResolvedFunc, []*diag.Report) {
	d := r.WS.Funcs.At(arena.Idx[ast.Func](head.FuncIdx))

	g, reports := cfg.Build(d.Body, d.Span)
	doms := cfg.ComputeDominators(g)

	b := &bodyResolver{
		r:    r,
		head: head,
		view: r.ViewOf(head.File),
		asm:  r.Assumptions(head.Module),
		g:    g,
		doms: doms,
		heads: heads,
		out: &ResolvedFunc{
			Head:         head,
			Graph:        g,
			Doms:         doms,
			Types:        map[cfg.InstrRef]types.Type{},
			Preferred:    map[cfg.InstrRef]types.Type{},
			OperandCasts: map[OperandKey][]types.Cast{},
			EndCasts:     map[cfg.BlockID][]types.Cast{},
			Calls:        map[cfg.InstrRef]*CallSite{},
			Bindings:     map[cfg.InstrRef]Binding{},
			VarTypes:     map[cfg.InstrRef]types.Type{},
		},
		vars: map[cfg.BlockID]map[string]varBinding{},
	}
	b.reports = append(b.reports, reports...)

	b.propagatePreferred()
	b.assignTypes()
	b.finalizeLiterals()

	return b.out, b.reports
}

// typeOf returns an instruction's currently assigned type.
func (b *bodyResolver) typeOf(ref cfg.InstrRef) types.Type {
	t, ok := b.out.Types[ref]
	if !ok {
		diag.ICE("resolve: value %v used before assignment", ref)
	}
	return t
}

// conformOperand plans a conformance for one operand use and records it.
func (b *bodyResolver) conformOperand(user cfg.InstrRef, operand int, from cfg.InstrRef, to types.Type, span diag.Span) bool {
	plan, ok := types.Conform(b.typeOf(from), to, types.ConformImplicit, b.asm)
	if !ok {
		b.reports = append(b.reports, diag.New(diag.RES003, "resolve", span,
			"value of type %s cannot be used as %s", b.typeOf(from), to))
		return false
	}
	if len(plan) > 0 {
		b.out.OperandCasts[OperandKey{User: user, Operand: operand}] = plan
	}
	return true
}

// rvalue strips the l-value layer for a use: it returns the value type
// behind a Deref and any other type unchanged. The matching dereference
// cast comes from the operand's conformance plan.
func rvalue(t types.Type) types.Type {
	if d, ok := types.Unalias(t).Type.(types.Deref); ok {
		return d.Inner
	}
	return t
}

// assignTypes walks blocks in dominator order so every operand is
// assigned before its uses, and every variable declaration is seen
// before any dominated reference.
func (b *bodyResolver) assignTypes() {
	for _, blk := range b.doms.DomPreorder() {
		b.vars[blk] = b.envFor(blk)
		for i := range b.g.Blocks[blk].Instrs {
			ref := cfg.InstrRef{Block: blk, Index: uint32(i)}
			b.assignInstr(ref, &b.g.Blocks[blk].Instrs[i])
		}
		b.assignEnd(blk)
	}
}

// envFor seeds a block's symbol table from its immediate dominator; the
// start block sees the parameters.
func (b *bodyResolver) envFor(blk cfg.BlockID) map[string]varBinding {
	if blk == cfg.Start {
		env := map[string]varBinding{}
		d := b.r.WS.Funcs.At(arena.Idx[ast.Func](b.head.FuncIdx))
		for i, p := range d.Params {
			env[p.Name] = varBinding{
				b: Binding{IsParam: true, Param: i},
				t: b.head.Params[i],
			}
		}
		return env
	}
	parent := b.vars[b.doms.Idom[blk]]
	env := make(map[string]varBinding, len(parent))
	for k, v := range parent {
		env[k] = v
	}
	return env
}

func (b *bodyResolver) assignInstr(ref cfg.InstrRef, in *cfg.Instr) {
	env := b.vars[ref.Block]

	switch in.Kind {
	case cfg.InstrIntLit:
		b.out.Types[ref] = types.IntegerLiteral{Value: in.Int}

	case cfg.InstrFloatLit:
		b.out.Types[ref] = types.FloatLiteral{Value: in.Float}

	case cfg.InstrBoolLit:
		b.out.Types[ref] = types.BoolLiteral{Value: in.Bool}

	case cfg.InstrNullLit:
		b.out.Types[ref] = types.NullLiteral{}

	case cfg.InstrCharLit:
		b.out.Types[ref] = types.AsciiCharLiteral{Value: in.Byte}

	case cfg.InstrStringLit:
		b.out.Types[ref] = types.Ptr{Inner: types.CInteger{Kind: types.CChar, Sign: types.SignUnspecified}}

	case cfg.InstrName:
		b.assignName(ref, in, env)

	case cfg.InstrDeclare:
		declared, rep := b.r.ResolveType(b.view, in.DeclType)
		if rep != nil {
			b.reports = append(b.reports, rep)
			b.out.Types[ref] = types.Void{}
			return
		}
		if in.B.Valid {
			b.conformOperand(ref, 1, in.B.Ref, declared.Type, in.Span)
		}
		env[in.Name] = varBinding{b: Binding{Decl: ref}, t: declared.Type}
		b.out.VarTypes[ref] = declared.Type
		b.out.Types[ref] = types.Void{}

	case cfg.InstrDeclareAssign:
		vt := rvalue(b.typeOf(in.B.Ref))
		// Literal initializers pin the variable to their default type.
		if concrete, ok := types.Unify(nil, []types.Type{vt}, b.asm); ok {
			vt = concrete
		}
		b.conformOperand(ref, 1, in.B.Ref, vt, in.Span)
		env[in.Name] = varBinding{b: Binding{Decl: ref}, t: vt}
		b.out.VarTypes[ref] = vt
		b.out.Types[ref] = types.Void{}

	case cfg.InstrAssign:
		dest := types.Unalias(b.typeOf(in.A.Ref)).Type
		d, ok := dest.(types.Deref)
		if !ok {
			b.reports = append(b.reports, diag.New(diag.RES011, "resolve", in.Span,
				"cannot assign to a value of type %s", dest))
			b.out.Types[ref] = types.Void{}
			return
		}
		b.conformOperand(ref, 1, in.B.Ref, d.Inner, in.Span)
		b.out.Types[ref] = types.Void{}

	case cfg.InstrBinOp:
		b.assignBinOp(ref, in)

	case cfg.InstrUnaryOp:
		b.assignUnaryOp(ref, in)

	case cfg.InstrPhi:
		b.assignPhi(ref, in)

	case cfg.InstrCall:
		b.dispatchCall(ref, in)

	default:
		diag.ICE("resolve: unhandled instruction kind %d", in.Kind)
	}
}

func (b *bodyResolver) assignName(ref cfg.InstrRef, in *cfg.Instr, env map[string]varBinding) {
	if len(in.Namespace) == 0 {
		if vb, ok := env[in.Name]; ok {
			b.out.Bindings[ref] = vb.b
			b.out.Types[ref] = types.Deref{Inner: vb.t}
			return
		}
	}
	// Globals and expression aliases share the value-name category.
	if binding, t, ok := b.lookupValueName(in); ok {
		b.out.Bindings[ref] = binding
		b.out.Types[ref] = t
		return
	}
	b.reports = append(b.reports, diag.New(diag.SCP001, "resolve", in.Span,
		"%q is not defined", in.Name))
	b.out.Types[ref] = types.Never{}
}

func (b *bodyResolver) assignBinOp(ref cfg.InstrRef, in *cfg.Instr) {
	lt := rvalue(b.typeOf(in.A.Ref))
	rt := rvalue(b.typeOf(in.B.Ref))

	if in.BinOp == ast.OpLogicalAnd || in.BinOp == ast.OpLogicalOr {
		b.conformOperand(ref, 0, in.A.Ref, types.Boolean{}, in.Span)
		b.conformOperand(ref, 1, in.B.Ref, types.Boolean{}, in.Span)
		b.out.Types[ref] = types.Boolean{}
		return
	}

	unified, ok := types.Unify(b.out.Preferred[ref], []types.Type{lt, rt}, b.asm)
	if !ok {
		b.reports = append(b.reports, diag.New(diag.TYP004, "resolve", in.Span,
			"incompatible types %s and %s", lt, rt))
		b.out.Types[ref] = types.Never{}
		return
	}
	b.conformOperand(ref, 0, in.A.Ref, unified, in.Span)
	b.conformOperand(ref, 1, in.B.Ref, unified, in.Span)
	if in.BinOp.ReturnsBool() {
		b.out.Types[ref] = types.Boolean{}
	} else {
		b.out.Types[ref] = unified
	}
}

func (b *bodyResolver) assignUnaryOp(ref cfg.InstrRef, in *cfg.Instr) {
	vt := rvalue(b.typeOf(in.A.Ref))
	switch in.UnaryOp {
	case ast.OpNot:
		b.conformOperand(ref, 0, in.A.Ref, types.Boolean{}, in.Span)
		b.out.Types[ref] = types.Boolean{}
	default:
		unified, ok := types.Unify(b.out.Preferred[ref], []types.Type{vt}, b.asm)
		if !ok {
			b.reports = append(b.reports, diag.New(diag.TYP004, "resolve", in.Span,
				"operand type %s is not numeric", vt))
			b.out.Types[ref] = types.Never{}
			return
		}
		b.conformOperand(ref, 0, in.A.Ref, unified, in.Span)
		b.out.Types[ref] = unified
	}
}

func (b *bodyResolver) assignPhi(ref cfg.InstrRef, in *cfg.Instr) {
	incoming := make([]types.Type, len(in.Incoming))
	for i, inc := range in.Incoming {
		incoming[i] = rvalue(b.typeOf(inc.Value))
	}
	unified, ok := types.Unify(b.out.Preferred[ref], incoming, b.asm)
	if !ok {
		b.reports = append(b.reports, diag.New(diag.TYP004, "resolve", in.Span,
			"branches produce incompatible types"))
		b.out.Types[ref] = types.Never{}
		return
	}
	for i, inc := range in.Incoming {
		b.conformOperand(ref, 2+i, inc.Value, unified, in.Span)
	}
	b.out.Types[ref] = unified
}

func (b *bodyResolver) assignEnd(blk cfg.BlockID) {
	end := &b.g.Blocks[blk].End
	switch end.Kind {
	case cfg.EndReturn:
		ret := types.Unalias(b.head.Return).Type
		if !end.Value.Valid {
			if _, isVoid := ret.(types.Void); !isVoid {
				b.reports = append(b.reports, diag.New(diag.RES004, "resolve", end.Span,
					"function must return a value of type %s", ret))
			}
			return
		}
		plan, ok := types.Conform(b.typeOf(end.Value.Ref), ret, types.ConformImplicit, b.asm)
		if !ok {
			b.reports = append(b.reports, diag.New(diag.RES004, "resolve", end.Span,
				"cannot return %s from a function returning %s", b.typeOf(end.Value.Ref), ret))
			return
		}
		if len(plan) > 0 {
			b.out.EndCasts[blk] = plan
		}

	case cfg.EndCondBranch:
		plan, ok := types.Conform(b.typeOf(end.Cond), types.Boolean{}, types.ConformImplicit, b.asm)
		if !ok {
			b.reports = append(b.reports, diag.New(diag.RES003, "resolve", end.Span,
				"branch condition has type %s, not bool", b.typeOf(end.Cond)))
			return
		}
		if len(plan) > 0 {
			b.out.EndCasts[blk] = plan
		}
	}
}

// finalizeLiterals pins every still-literal value to a concrete type:
// the preferred type when it fits, the literal default otherwise.
func (b *bodyResolver) finalizeLiterals() {
	for ref, t := range b.out.Types {
		if !isTransientLiteral(t) {
			continue
		}
		if pref := b.out.Preferred[ref]; pref != nil {
			if _, ok := types.Conform(t, pref, types.ConformImplicit, b.asm); ok {
				b.out.Types[ref] = types.Unalias(pref).Type
				continue
			}
		}
		if concrete, ok := types.Unify(nil, []types.Type{t}, b.asm); ok {
			b.out.Types[ref] = concrete
		} else {
			b.reports = append(b.reports, diag.New(diag.LOW001, "resolve", diag.None,
				"cannot determine a concrete type for literal %s", t))
		}
	}
}

func isTransientLiteral(t types.Type) bool {
	switch t.(type) {
	case types.IntegerLiteral, types.FloatLiteral, types.BoolLiteral,
		types.NullLiteral, types.AsciiCharLiteral, types.IntegerLiteralInRange:
		return true
	}
	return false
}
