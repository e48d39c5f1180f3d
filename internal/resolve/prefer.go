package resolve

import (
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/cfg"
	"github.com/adeptlang/adept/internal/types"
)

// propagatePreferred walks the CFG in reverse post-order and pushes
// result-type hints down to operands. Preferred types steer literal
// conformance without forcing it; nothing here reports errors.
func (b *bodyResolver) propagatePreferred() {
	set := func(ref cfg.InstrRef, t types.Type) {
		if t == nil {
			return
		}
		if _, exists := b.out.Preferred[ref]; !exists {
			b.out.Preferred[ref] = t
		}
	}

	for _, blk := range b.doms.ReversePostOrder() {
		// Terminators seed the hints for the block's tail values.
		end := &b.g.Blocks[blk].End
		switch end.Kind {
		case cfg.EndReturn:
			if end.Value.Valid {
				set(end.Value.Ref, types.Unalias(b.head.Return).Type)
			}
		case cfg.EndCondBranch:
			set(end.Cond, types.Boolean{})
		}

		// Instructions propagate backwards so consumers run before
		// their operands.
		instrs := b.g.Blocks[blk].Instrs
		for i := len(instrs) - 1; i >= 0; i-- {
			ref := cfg.InstrRef{Block: blk, Index: uint32(i)}
			in := &instrs[i]
			pref := b.out.Preferred[ref]

			switch in.Kind {
			case cfg.InstrDeclare:
				if in.B.Valid {
					if t, rep := b.r.ResolveType(b.view, in.DeclType); rep == nil {
						set(in.B.Ref, t.Type)
					}
				}

			case cfg.InstrPhi:
				for _, inc := range in.Incoming {
					set(inc.Value, pref)
				}

			case cfg.InstrUnaryOp:
				if in.UnaryOp != ast.OpNot {
					set(in.A.Ref, pref)
				} else {
					set(in.A.Ref, types.Boolean{})
				}

			case cfg.InstrBinOp:
				switch {
				case in.BinOp == ast.OpLogicalAnd || in.BinOp == ast.OpLogicalOr:
					set(in.A.Ref, types.Boolean{})
					set(in.B.Ref, types.Boolean{})
				case !in.BinOp.ReturnsBool():
					set(in.A.Ref, pref)
					set(in.B.Ref, pref)
				}

			case cfg.InstrCall:
				b.preferCallArgs(in)
			}
		}
	}
}

// preferCallArgs pushes declared parameter types onto call arguments
// when exactly one monomorphic candidate exists; anything richer waits
// for dispatch.
func (b *bodyResolver) preferCallArgs(in *cfg.Instr) {
	if in.Call == nil {
		return
	}
	if cast, ok := builtinCastTarget(in.Call.Name); ok && len(in.Args) == 1 {
		if _, exists := b.out.Preferred[in.Args[0]]; !exists && cast != nil {
			b.out.Preferred[in.Args[0]] = cast
		}
		return
	}
	candidates := b.callCandidates(in)
	if len(candidates) != 1 {
		return
	}
	head := candidates[0]
	if head == nil || head.IsGeneric() || len(head.Params) != len(in.Args) {
		return
	}
	for i, arg := range in.Args {
		if _, exists := b.out.Preferred[arg]; !exists {
			b.out.Preferred[arg] = types.Unalias(head.Params[i]).Type
		}
	}
}
