package cfg

import (
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
)

// Builder translates a statement list into a Graph. Break, continue, and
// goto are emitted as placeholders and patched when their targets become
// known.
type Builder struct {
	graph Graph
	cur   BlockID

	loops   []loopFrame
	labels  map[string]BlockID
	pending []pendingGoto

	reports []*diag.Report
}

type loopFrame struct {
	breaks    []BlockID // blocks ending in EndIncompleteBreak
	continues []BlockID
}

type pendingGoto struct {
	block BlockID
	label string
	span  diag.Span
}

// Build lowers a function body. The returned reports carry unmatched
// labels and other structural errors; the graph is complete regardless.
func Build(body []ast.Stmt, span diag.Span) (*Graph, []*diag.Report) {
	b := &Builder{labels: map[string]BlockID{}}
	b.graph.Blocks = append(b.graph.Blocks, Block{})
	b.cur = Start

	b.stmts(body)

	// An open block at function end returns void implicitly.
	if b.block().End.Kind == EndOpen {
		b.terminate(EndInstr{Kind: EndReturn, Span: span})
	}

	for _, pg := range b.pending {
		if target, ok := b.labels[pg.label]; ok {
			b.graph.Blocks[pg.block].End = EndInstr{Kind: EndJump, To: target, Span: pg.span}
		} else {
			b.reports = append(b.reports, diag.New(diag.RES014, "resolve", pg.span,
				"goto references label %q which does not exist", pg.label))
			b.graph.Blocks[pg.block].End = EndInstr{Kind: EndUnreachable, Span: pg.span}
		}
	}
	return &b.graph, b.reports
}

func (b *Builder) block() *Block {
	return &b.graph.Blocks[b.cur]
}

func (b *Builder) newBlock() BlockID {
	b.graph.Blocks = append(b.graph.Blocks, Block{})
	return BlockID(len(b.graph.Blocks) - 1)
}

func (b *Builder) push(in Instr) InstrRef {
	blk := b.block()
	blk.Instrs = append(blk.Instrs, in)
	return InstrRef{Block: b.cur, Index: uint32(len(blk.Instrs) - 1)}
}

// terminate seals the current block. Instructions after a terminator land
// in a fresh unreachable block, matching the original's tolerance for
// dead code after return.
func (b *Builder) terminate(end EndInstr) {
	if b.block().End.Kind != EndOpen {
		b.cur = b.newBlock()
	}
	b.block().End = end
}

func (b *Builder) stmts(list []ast.Stmt) {
	for _, s := range list {
		b.stmt(s)
	}
}

func (b *Builder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case ast.ExprStmt:
		b.expr(s.Expr)

	case ast.Return:
		end := EndInstr{Kind: EndReturn, Span: s.Span}
		if s.Value != nil {
			end.Value = Some(b.expr(s.Value))
		}
		b.terminate(end)

	case ast.Declare:
		in := Instr{Kind: InstrDeclare, Name: s.Name, DeclType: s.Type, Span: s.Span}
		if s.Value != nil {
			in.B = Some(b.expr(s.Value))
		}
		b.push(in)

	case ast.DeclareAssign:
		v := b.expr(s.Value)
		b.push(Instr{Kind: InstrDeclareAssign, Name: s.Name, B: Some(v), Span: s.Span})

	case ast.Assign:
		dest := b.expr(s.Dest)
		v := b.expr(s.Value)
		b.push(Instr{Kind: InstrAssign, A: Some(dest), B: Some(v), Span: s.Span})

	case ast.CompoundAssign:
		// Desugars to load-op-store: the destination is evaluated once.
		dest := b.expr(s.Dest)
		v := b.expr(s.Value)
		op := b.push(Instr{Kind: InstrBinOp, BinOp: s.Op, A: Some(dest), B: Some(v), Span: s.Span})
		b.push(Instr{Kind: InstrAssign, A: Some(dest), B: Some(op), Span: s.Span})

	case ast.If:
		cond := b.expr(s.Cond)
		thenBlk := b.newBlock()
		var elseBlk BlockID
		join := b.newBlock()
		if s.Else != nil {
			elseBlk = b.newBlock()
		} else {
			elseBlk = join
		}
		b.terminate(EndInstr{Kind: EndCondBranch, Cond: cond, True: thenBlk, False: elseBlk, Span: s.Span})

		b.cur = thenBlk
		b.stmts(s.Then)
		b.exitTo(join, s.Span)

		if s.Else != nil {
			b.cur = elseBlk
			b.stmts(s.Else)
			b.exitTo(join, s.Span)
		}
		b.cur = join

	case ast.While:
		condBlk := b.newBlock()
		bodyBlk := b.newBlock()
		exitBlk := b.newBlock()

		b.terminate(EndInstr{Kind: EndJump, To: condBlk, Span: s.Span})

		b.cur = condBlk
		cond := b.expr(s.Cond)
		b.terminate(EndInstr{Kind: EndCondBranch, Cond: cond, True: bodyBlk, False: exitBlk, Span: s.Span})

		b.loops = append(b.loops, loopFrame{})
		b.cur = bodyBlk
		b.stmts(s.Body)
		b.exitTo(condBlk, s.Span)
		frame := b.loops[len(b.loops)-1]
		b.loops = b.loops[:len(b.loops)-1]

		for _, blk := range frame.breaks {
			b.graph.Blocks[blk].End = EndInstr{Kind: EndJump, To: exitBlk, Span: s.Span}
		}
		for _, blk := range frame.continues {
			b.graph.Blocks[blk].End = EndInstr{Kind: EndJump, To: condBlk, Span: s.Span}
		}
		b.cur = exitBlk

	case ast.Break:
		if len(b.loops) == 0 {
			b.reports = append(b.reports, diag.New(diag.RES020, "resolve", s.Span,
				"break outside of a loop"))
			return
		}
		b.terminate(EndInstr{Kind: EndIncompleteBreak, Span: s.Span})
		b.loops[len(b.loops)-1].breaks = append(b.loops[len(b.loops)-1].breaks, b.cur)
		b.cur = b.newBlock()

	case ast.Continue:
		if len(b.loops) == 0 {
			b.reports = append(b.reports, diag.New(diag.RES020, "resolve", s.Span,
				"continue outside of a loop"))
			return
		}
		b.terminate(EndInstr{Kind: EndIncompleteContinue, Span: s.Span})
		b.loops[len(b.loops)-1].continues = append(b.loops[len(b.loops)-1].continues, b.cur)
		b.cur = b.newBlock()

	case ast.Goto:
		b.terminate(EndInstr{Kind: EndIncompleteGoto, Label: s.Label, Span: s.Span})
		b.pending = append(b.pending, pendingGoto{block: b.cur, label: s.Label, span: s.Span})
		b.cur = b.newBlock()

	case ast.LabelStmt:
		target := b.newBlock()
		if b.block().End.Kind == EndOpen {
			b.terminate(EndInstr{Kind: EndJump, To: target, Span: s.Span})
		}
		b.labels[s.Name] = target
		b.cur = target

	case ast.Block:
		// Explicit nested scope: entered through EndNewScope, left
		// through EndExitScope, so the resolver can bound variable
		// lifetimes.
		body := b.newBlock()
		after := b.newBlock()
		b.terminate(EndInstr{Kind: EndNewScope, To: body, Span: s.Span})
		b.cur = body
		b.stmts(s.Stmts)
		if b.block().End.Kind == EndOpen {
			b.terminate(EndInstr{Kind: EndExitScope, To: after, Span: s.Span})
		}
		b.cur = after

	case ast.Pragma:
		// Build-script pragmas never reach function bodies; the
		// workspace routes them to the interpreter entry function.
		b.expr(s.Expr)

	default:
		diag.ICE("cfg: unhandled statement %T", s)
	}
}

// exitTo seals the current block with a jump unless it already ended.
func (b *Builder) exitTo(to BlockID, span diag.Span) {
	if b.block().End.Kind == EndOpen {
		b.block().End = EndInstr{Kind: EndJump, To: to, Span: span}
	}
}

func (b *Builder) expr(e ast.Expr) InstrRef {
	switch e := e.(type) {
	case ast.IntegerLit:
		return b.push(Instr{Kind: InstrIntLit, Int: e.Value, Span: e.Span})
	case ast.FloatLit:
		return b.push(Instr{Kind: InstrFloatLit, Float: e.Value, Span: e.Span})
	case ast.BoolLit:
		return b.push(Instr{Kind: InstrBoolLit, Bool: e.Value, Span: e.Span})
	case ast.NullLit:
		return b.push(Instr{Kind: InstrNullLit, Span: e.Span})
	case ast.CharLit:
		return b.push(Instr{Kind: InstrCharLit, Byte: e.Value, Span: e.Span})
	case ast.StringLit:
		return b.push(Instr{Kind: InstrStringLit, Str: e.Value, Span: e.Span})
	case ast.NameExpr:
		return b.push(Instr{Kind: InstrName, Namespace: e.Namespace, Name: e.Name, Span: e.Span})
	case ast.BinOp:
		l := b.expr(e.Left)
		r := b.expr(e.Right)
		return b.push(Instr{Kind: InstrBinOp, BinOp: e.Op, A: Some(l), B: Some(r), Span: e.Span})
	case ast.UnaryOp:
		v := b.expr(e.Val)
		return b.push(Instr{Kind: InstrUnaryOp, UnaryOp: e.Op, A: Some(v), Span: e.Span})
	case ast.Ternary:
		// Two-arm conditional joined by a phi.
		cond := b.expr(e.Cond)
		thenBlk := b.newBlock()
		elseBlk := b.newBlock()
		join := b.newBlock()
		b.terminate(EndInstr{Kind: EndCondBranch, Cond: cond, True: thenBlk, False: elseBlk, Span: e.Span})

		b.cur = thenBlk
		thenVal := b.expr(e.Then)
		thenPred := b.cur
		b.exitTo(join, e.Span)

		b.cur = elseBlk
		elseVal := b.expr(e.Else)
		elsePred := b.cur
		b.exitTo(join, e.Span)

		b.cur = join
		return b.push(Instr{Kind: InstrPhi, Incoming: []PhiIncoming{
			{From: thenPred, Value: thenVal},
			{From: elsePred, Value: elseVal},
		}, Span: e.Span})
	case ast.Subscript:
		// No defined semantics for string subscripts; arrays index
		// through a call to the builtin at dispatch time.
		base := b.expr(e.Base)
		idx := b.expr(e.Index)
		call := &ast.Call{Name: "__subscript", Span: e.Span}
		return b.push(Instr{Kind: InstrCall, Call: call, Args: []InstrRef{base, idx}, Span: e.Span})
	case ast.Call:
		args := make([]InstrRef, len(e.Args))
		for i, a := range e.Args {
			args[i] = b.expr(a)
		}
		call := e
		return b.push(Instr{Kind: InstrCall, Call: &call, Args: args, Span: e.Span})
	default:
		diag.ICE("cfg: unhandled expression %T", e)
		return InstrRef{}
	}
}
