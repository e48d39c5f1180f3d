package lower

import (
	"fmt"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/cfg"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/ir"
	"github.com/adeptlang/adept/internal/poly"
	"github.com/adeptlang/adept/internal/resolve"
	"github.com/adeptlang/adept/internal/types"
)

// LowerFunc lowers a resolved function under one polymorph recipe: the
// declared IR function is filled with basic blocks mirroring the CFG,
// with conformance plans compiled into concrete cast instructions.
func LowerFunc(mb *ModuleBuilder, rf *resolve.ResolvedFunc, recipe *poly.Recipe) (ir.FuncRef, []*diag.Report) {
	l := &funcLowerer{
		mb:       mb,
		rf:       rf,
		recipe:   recipe,
		target:   mb.Mod.Target,
		values:  map[cfg.InstrRef]ir.Ref{},
		irTypes: map[ir.Ref]ir.Type{},
	}

	params := make([]ir.Type, len(rf.Head.Params))
	for i, p := range rf.Head.Params {
		params[i] = l.lowerType(p, diag.None)
	}
	ret := l.lowerType(rf.Head.Return, diag.None)

	own := ir.OwnedHidden
	if rf.Head.Exposed {
		own = ir.OwnedExposed
	}
	ref := mb.EnsureFunc(SpecializedMangled(rf.Head, recipe), params, ret, own)

	l.blocks = make([]ir.Block, len(rf.Graph.Blocks))
	l.prologue(params)
	for _, blk := range rf.Doms.DomPreorder() {
		l.lowerBlock(blk)
	}
	l.patchPhis()

	mb.SetBody(ref, l.blocks)
	return ref, l.reports
}

// DeclareExtern declares a foreign function: a Reference with no blocks.
func DeclareExtern(mb *ModuleBuilder, head *resolve.FuncHead) (ir.FuncRef, []*diag.Report) {
	l := &funcLowerer{mb: mb, recipe: poly.EmptyRecipe(), target: mb.Mod.Target}
	params := make([]ir.Type, len(head.Params))
	for i, p := range head.Params {
		params[i] = l.lowerType(p, head.Span)
	}
	ret := l.lowerType(head.Return, head.Span)
	return mb.EnsureFunc(head.Mangled, params, ret, ir.Reference), l.reports
}

type phiPatch struct {
	block int // IR block holding the phi
	index int
	ref   cfg.InstrRef
}

type funcLowerer struct {
	mb     *ModuleBuilder
	rf     *resolve.ResolvedFunc
	recipe *poly.Recipe
	target ir.Target

	blocks  []ir.Block
	values  map[cfg.InstrRef]ir.Ref
	irTypes map[ir.Ref]ir.Type

	paramAddrs []ir.Ref
	phis       []phiPatch
	reports    []*diag.Report
}

func (l *funcLowerer) lowerType(t types.Type, span diag.Span) ir.Type {
	baked, err := l.recipe.ResolveType(t)
	if err != nil {
		l.reports = append(l.reports, diag.New(diag.LOW001, "lower", span, "%v", err))
		return ir.Void{}
	}
	out, rep := LowerType(baked, l.target, l.mb)
	if rep != nil {
		rep.Span = span
		l.reports = append(l.reports, rep)
		return ir.Void{}
	}
	return out
}

func (l *funcLowerer) push(block int, in ir.Instr) ir.Ref {
	l.blocks[block].Instrs = append(l.blocks[block].Instrs, in)
	ref := ir.Ref{Block: uint32(block), Index: uint32(len(l.blocks[block].Instrs) - 1)}
	l.irTypes[ref] = in.Type
	return ref
}

// prologue materializes parameters into stack slots so every parameter
// behaves as an l-value.
func (l *funcLowerer) prologue(params []ir.Type) {
	for i, pt := range params {
		v := l.push(0, ir.Instr{Op: ir.OpParam, Type: pt, ParamIndex: i})
		slot := l.push(0, ir.Instr{Op: ir.OpAlloca, Type: ir.Ptr{Inner: pt}})
		l.push(0, ir.Instr{Op: ir.OpStore, Type: ir.Void{}, A: slot, HasA: true, B: v, HasB: true})
		l.paramAddrs = append(l.paramAddrs, slot)
	}
}

func (l *funcLowerer) lowerBlock(blk cfg.BlockID) {
	bi := int(blk)
	for i := range l.rf.Graph.Blocks[blk].Instrs {
		ref := cfg.InstrRef{Block: blk, Index: uint32(i)}
		l.lowerInstr(bi, ref, &l.rf.Graph.Blocks[blk].Instrs[i])
	}
	l.lowerEnd(bi, blk)
}

// use produces an operand value with its conformance plan applied.
func (l *funcLowerer) use(block int, user cfg.InstrRef, operand int, from cfg.InstrRef) ir.Ref {
	v := l.values[from]
	plan := l.rf.OperandCasts[resolve.OperandKey{User: user, Operand: operand}]
	return l.applyCasts(block, v, plan)
}

func (l *funcLowerer) applyCasts(block int, v ir.Ref, plan []types.Cast) ir.Ref {
	for _, c := range plan {
		to := l.lowerType(c.To, diag.None)
		switch c.Kind {
		case types.CastDereference:
			v = l.push(block, ir.Instr{Op: ir.OpLoad, Type: to, A: v, HasA: true})

		case types.CastExtend:
			signed := false
			if src, ok := l.irTypes[v].(ir.I); ok {
				signed = src.Signed
			}
			op := ir.OpZExt
			if signed {
				op = ir.OpSExt
			}
			v = l.push(block, ir.Instr{Op: op, Type: to, A: v, HasA: true})

		case types.CastTruncate:
			op := ir.OpTrunc
			if _, isFloat := to.(ir.F); isFloat {
				op = ir.OpFTrunc
			}
			v = l.push(block, ir.Instr{Op: op, Type: to, A: v, HasA: true})

		case types.CastFloatExtend:
			v = l.push(block, ir.Instr{Op: ir.OpFExt, Type: to, A: v, HasA: true})

		case types.CastSpecializeInteger, types.CastSpecializeFloat,
			types.CastSpecializeBool, types.CastSpecializePointerOuter:
			// Specializations re-type constants; the producing literal
			// was already emitted at its finalized type. A residual
			// width mismatch re-emits the constant.
			if src, ok := l.irTypes[v]; ok && !ir.TypeEqual(src, to) {
				v = l.respecialize(block, v, to)
			}
		}
	}
	return v
}

// respecialize adjusts a constant to a differently-typed use site.
func (l *funcLowerer) respecialize(block int, v ir.Ref, to ir.Type) ir.Ref {
	src := l.instrAt(v)
	if src != nil && src.Op == ir.OpLiteral {
		lit := *src.Lit
		return l.push(block, ir.Instr{Op: ir.OpLiteral, Type: to, Lit: &lit})
	}
	return l.push(block, ir.Instr{Op: ir.OpBitcast, Type: to, A: v, HasA: true})
}

func (l *funcLowerer) instrAt(ref ir.Ref) *ir.Instr {
	b := int(ref.Block)
	if b >= len(l.blocks) || int(ref.Index) >= len(l.blocks[b].Instrs) {
		return nil
	}
	return &l.blocks[b].Instrs[ref.Index]
}

func (l *funcLowerer) lowerInstr(bi int, ref cfg.InstrRef, in *cfg.Instr) {
	resType := l.rf.Types[ref]

	switch in.Kind {
	case cfg.InstrIntLit:
		t := l.lowerType(resType, in.Span)
		lit := &ir.Literal{Kind: ir.LitInt, Int: in.Int}
		if _, isFloat := t.(ir.F); isFloat {
			lit = &ir.Literal{Kind: ir.LitFloat, F: float64(in.Int)}
		}
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t, Lit: lit})

	case cfg.InstrFloatLit:
		t := l.lowerType(resType, in.Span)
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t,
			Lit: &ir.Literal{Kind: ir.LitFloat, F: in.Float}})

	case cfg.InstrBoolLit:
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: ir.Bool{},
			Lit: &ir.Literal{Kind: ir.LitBool, Bool: in.Bool}})

	case cfg.InstrNullLit:
		t := l.lowerType(resType, in.Span)
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t,
			Lit: &ir.Literal{Kind: ir.LitNullPtr}})

	case cfg.InstrCharLit:
		t := l.lowerType(resType, in.Span)
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t,
			Lit: &ir.Literal{Kind: ir.LitInt, Int: int64(in.Byte)}})

	case cfg.InstrStringLit:
		t := l.lowerType(resType, in.Span)
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t,
			Lit: &ir.Literal{Kind: ir.LitCString, Str: in.Str}})

	case cfg.InstrName:
		l.lowerName(bi, ref, in)

	case cfg.InstrDeclare, cfg.InstrDeclareAssign:
		vt := l.lowerType(l.rf.VarTypes[ref], in.Span)
		slot := l.push(bi, ir.Instr{Op: ir.OpAlloca, Type: ir.Ptr{Inner: vt}})
		l.values[ref] = slot
		if in.B.Valid {
			v := l.use(bi, ref, 1, in.B.Ref)
			l.push(bi, ir.Instr{Op: ir.OpStore, Type: ir.Void{}, A: slot, HasA: true, B: v, HasB: true})
		}

	case cfg.InstrAssign:
		dest := l.values[in.A.Ref]
		v := l.use(bi, ref, 1, in.B.Ref)
		l.push(bi, ir.Instr{Op: ir.OpStore, Type: ir.Void{}, A: dest, HasA: true, B: v, HasB: true})

	case cfg.InstrBinOp:
		l.lowerBinOp(bi, ref, in)

	case cfg.InstrUnaryOp:
		l.lowerUnaryOp(bi, ref, in)

	case cfg.InstrPhi:
		t := l.lowerType(resType, in.Span)
		phiRef := l.push(bi, ir.Instr{Op: ir.OpPhi, Type: t})
		l.values[ref] = phiRef
		l.phis = append(l.phis, phiPatch{
			block: bi,
			index: int(phiRef.Index),
			ref:   ref,
		})

	case cfg.InstrCall:
		l.lowerCall(bi, ref, in)

	default:
		diag.ICE("lower: unhandled instruction kind %d", in.Kind)
	}
}

func (l *funcLowerer) lowerName(bi int, ref cfg.InstrRef, in *cfg.Instr) {
	binding := l.rf.Bindings[ref]
	switch {
	case binding.IsParam:
		l.values[ref] = l.paramAddrs[binding.Param]

	case binding.Global:
		t := l.lowerType(l.rf.Types[ref], in.Span) // Ptr to pointee
		gref := l.mb.EnsureGlobal(binding.GlobalIdx, binding.GlobalName, innerOf(t), false)
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpGlobalAddr, Type: t, Global: gref})

	case binding.Const:
		t := l.lowerType(l.rf.Types[ref], in.Span)
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t,
			Lit: &ir.Literal{Kind: ir.LitInt, Int: binding.ConstVal}})

	default:
		// A local variable: its declare instruction's stack slot.
		l.values[ref] = l.values[binding.Decl]
	}
}

func innerOf(t ir.Type) ir.Type {
	if p, ok := t.(ir.Ptr); ok {
		return p.Inner
	}
	return t
}

func (l *funcLowerer) lowerBinOp(bi int, ref cfg.InstrRef, in *cfg.Instr) {
	a := l.use(bi, ref, 0, in.A.Ref)
	b := l.use(bi, ref, 1, in.B.Ref)

	operandT := l.irTypes[a]
	signed := false
	isFloat := false
	switch t := operandT.(type) {
	case ir.I:
		signed = t.Signed
	case ir.F:
		isFloat = true
	}

	if in.BinOp.ReturnsBool() {
		op := ir.OpICmp
		if isFloat {
			op = ir.OpFCmp
		}
		// Logical and/or reach here with boolean operands and lower to
		// bitwise ops instead.
		if in.BinOp == ast.OpLogicalAnd {
			l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpAnd, Type: ir.Bool{}, A: a, HasA: true, B: b, HasB: true})
			return
		}
		if in.BinOp == ast.OpLogicalOr {
			l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpOr, Type: ir.Bool{}, A: a, HasA: true, B: b, HasB: true})
			return
		}
		l.values[ref] = l.push(bi, ir.Instr{
			Op: op, Type: ir.Bool{}, A: a, HasA: true, B: b, HasB: true,
			Cmp: cmpPred(in.BinOp), Signed: signed,
		})
		return
	}

	t := l.lowerType(l.rf.Types[ref], in.Span)
	op := arithOp(in.BinOp, signed, isFloat)
	l.values[ref] = l.push(bi, ir.Instr{Op: op, Type: t, A: a, HasA: true, B: b, HasB: true, Signed: signed})
}

func cmpPred(op ast.BinOpKind) ir.CmpPred {
	switch op {
	case ast.OpEq:
		return ir.CmpEq
	case ast.OpNe:
		return ir.CmpNe
	case ast.OpLt:
		return ir.CmpLT
	case ast.OpLe:
		return ir.CmpLE
	case ast.OpGt:
		return ir.CmpGT
	case ast.OpGe:
		return ir.CmpGE
	}
	diag.ICE("lower: operator %d is not a comparison", op)
	return 0
}

func arithOp(op ast.BinOpKind, signed, isFloat bool) ir.Op {
	if isFloat {
		switch op {
		case ast.OpAdd:
			return ir.OpFAdd
		case ast.OpSub:
			return ir.OpFSub
		case ast.OpMul:
			return ir.OpFMul
		case ast.OpDiv:
			return ir.OpFDiv
		}
	}
	switch op {
	case ast.OpAdd:
		return ir.OpAdd
	case ast.OpSub:
		return ir.OpSub
	case ast.OpMul:
		return ir.OpMul
	case ast.OpDiv:
		if signed {
			return ir.OpSDiv
		}
		return ir.OpUDiv
	case ast.OpMod:
		if signed {
			return ir.OpSRem
		}
		return ir.OpURem
	case ast.OpBitAnd:
		return ir.OpAnd
	case ast.OpBitOr:
		return ir.OpOr
	case ast.OpBitXor:
		return ir.OpXor
	case ast.OpShl:
		return ir.OpShl
	case ast.OpShr:
		if signed {
			return ir.OpAShr
		}
		return ir.OpLShr
	}
	diag.ICE("lower: operator %d is not arithmetic", op)
	return 0
}

func (l *funcLowerer) lowerUnaryOp(bi int, ref cfg.InstrRef, in *cfg.Instr) {
	v := l.use(bi, ref, 0, in.A.Ref)
	t := l.lowerType(l.rf.Types[ref], in.Span)

	switch in.UnaryOp {
	case ast.OpNegate:
		if _, isFloat := t.(ir.F); isFloat {
			zero := l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t, Lit: &ir.Literal{Kind: ir.LitFloat}})
			l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpFSub, Type: t, A: zero, HasA: true, B: v, HasB: true})
			return
		}
		zero := l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t, Lit: &ir.Literal{Kind: ir.LitInt}})
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpSub, Type: t, A: zero, HasA: true, B: v, HasB: true})

	case ast.OpNot:
		one := l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: ir.Bool{}, Lit: &ir.Literal{Kind: ir.LitBool, Bool: true}})
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpXor, Type: ir.Bool{}, A: v, HasA: true, B: one, HasB: true})

	case ast.OpBitComplement:
		ones := l.push(bi, ir.Instr{Op: ir.OpLiteral, Type: t, Lit: &ir.Literal{Kind: ir.LitInt, Int: -1}})
		l.values[ref] = l.push(bi, ir.Instr{Op: ir.OpXor, Type: t, A: v, HasA: true, B: ones, HasB: true})
	}
}

func (l *funcLowerer) lowerCall(bi int, ref cfg.InstrRef, in *cfg.Instr) {
	site := l.rf.Calls[ref]
	if site == nil {
		diag.ICE("lower: call at %v was never dispatched", ref)
	}

	switch site.Builtin {
	case resolve.BuiltinCast:
		// The conformance plan on the sole argument carries the whole
		// cast.
		l.values[ref] = l.use(bi, ref, 2, in.Args[0])
		return

	case resolve.BuiltinDeref:
		p := l.use(bi, ref, 2, in.Args[0])
		// The result is an l-value; consumers load through it.
		l.values[ref] = p
		return

	case resolve.BuiltinPtr:
		l.values[ref] = l.values[in.Args[0]]
		return
	}

	args := make([]ir.Ref, len(in.Args))
	for i, a := range in.Args {
		args[i] = l.use(bi, ref, 2+i, a)
	}

	params := make([]ir.Type, len(site.Params))
	for i, p := range site.Params {
		params[i] = l.lowerType(p, in.Span)
	}
	ret := l.lowerType(site.Return, in.Span)

	own := ir.OwnedHidden
	if site.Callee.Foreign {
		own = ir.Reference
	} else if site.Callee.Exposed {
		own = ir.OwnedExposed
	}
	callee := l.mb.EnsureFunc(SpecializedMangled(site.Callee, site.Recipe), params, ret, own)

	l.values[ref] = l.push(bi, ir.Instr{
		Op: ir.OpCall, Type: ret, Callee: callee, Args: args,
	})
}

func (l *funcLowerer) lowerEnd(bi int, blk cfg.BlockID) {
	end := &l.rf.Graph.Blocks[blk].End
	switch end.Kind {
	case cfg.EndReturn:
		in := ir.Instr{Op: ir.OpRet, Type: ir.Void{}}
		if end.Value.Valid {
			v := l.applyCasts(bi, l.values[end.Value.Ref], l.rf.EndCasts[blk])
			in.A = v
			in.HasA = true
		}
		l.push(bi, in)

	case cfg.EndJump, cfg.EndNewScope, cfg.EndExitScope:
		l.push(bi, ir.Instr{Op: ir.OpBr, Type: ir.Void{}, To: uint32(end.To)})

	case cfg.EndCondBranch:
		cond := l.applyCasts(bi, l.values[end.Cond], l.rf.EndCasts[blk])
		l.push(bi, ir.Instr{
			Op: ir.OpCondBr, Type: ir.Void{}, A: cond, HasA: true,
			True: uint32(end.True), False: uint32(end.False),
		})

	case cfg.EndUnreachable:
		l.push(bi, ir.Instr{Op: ir.OpUnreachable, Type: ir.Void{}})

	default:
		diag.ICE("lower: unterminated block %d", blk)
	}
}

// patchPhis fills phi incomings after every block is lowered, emitting
// each incoming's conformance casts in its predecessor block just before
// the terminator.
func (l *funcLowerer) patchPhis() {
	for _, p := range l.phis {
		in := l.rf.Graph.Instr(p.ref)
		var incoming []ir.PhiIn
		for i, inc := range in.Incoming {
			v := l.values[inc.Value]
			plan := l.rf.OperandCasts[resolve.OperandKey{User: p.ref, Operand: 2 + i}]
			if len(plan) > 0 {
				v = l.insertBeforeTerminator(int(inc.From), v, plan)
			}
			incoming = append(incoming, ir.PhiIn{Block: uint32(inc.From), Value: v})
		}
		l.blocks[p.block].Instrs[p.index].Incoming = incoming
	}
}

// insertBeforeTerminator applies a cast plan in a predecessor block,
// keeping its terminator last.
func (l *funcLowerer) insertBeforeTerminator(block int, v ir.Ref, plan []types.Cast) ir.Ref {
	instrs := l.blocks[block].Instrs
	if len(instrs) == 0 {
		return l.applyCasts(block, v, plan)
	}
	term := instrs[len(instrs)-1]
	l.blocks[block].Instrs = instrs[:len(instrs)-1]
	v = l.applyCasts(block, v, plan)
	l.blocks[block].Instrs = append(l.blocks[block].Instrs, term)
	return v
}

// specializationKey is the identity LowerFuncTask dedups on: the function
// plus its baked polymorph values.
func specializationKey(funcIdx uint32, recipe *poly.Recipe, polymorphs []string) string {
	key := fmt.Sprintf("lower:%d", funcIdx)
	for _, name := range polymorphs {
		if v, ok := recipe.Lookup(name); ok {
			key += ":" + v.Key()
		}
	}
	return key
}
