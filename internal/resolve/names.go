package resolve

import (
	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/cfg"
	"github.com/adeptlang/adept/internal/scope"
	"github.com/adeptlang/adept/internal/types"
)

// lookupValueName resolves a name instruction against module-level value
// names: globals (l-values) and expression aliases (constants).
func (b *bodyResolver) lookupValueName(in *cfg.Instr) (Binding, types.Type, bool) {
	head, rep := b.r.Scope(b.view).FindSymbol(scope.Search{
		Namespace: in.Namespace,
		Name:      in.Name,
		Category:  scope.CategoryExprAlias,
		Arity:     scope.AnyArity,
		From:      b.view.File,
		Span:      in.Span,
	})
	if rep != nil {
		return Binding{}, nil, false
	}

	switch head.Target.Kind {
	case scope.TargetGlobal:
		d := b.r.WS.Globals.At(arena.Idx[ast.Global](head.Target.Index))
		t, rep2 := b.r.ResolveType(b.r.ViewOf(head.File), d.Type)
		if rep2 != nil {
			b.reports = append(b.reports, rep2)
			return Binding{}, nil, false
		}
		return Binding{Global: true, GlobalIdx: head.Target.Index, GlobalName: d.Name},
			types.Deref{Inner: t.Type}, true

	case scope.TargetExprAlias:
		d := b.r.WS.ExprAliases.At(arena.Idx[ast.ExprAlias](head.Target.Index))
		val, rep2 := b.r.Evaluate(b.r.ViewOf(head.File), d.Value)
		if rep2 != nil {
			b.reports = append(b.reports, rep2)
			return Binding{}, nil, false
		}
		return Binding{Const: true, ConstVal: val}, types.IntegerLiteral{Value: val}, true
	}
	return Binding{}, nil, false
}
