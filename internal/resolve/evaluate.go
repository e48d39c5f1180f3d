package resolve

import (
	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/scope"
)

// Evaluate folds a compile-time constant integer expression: literals,
// expression aliases, unary negation, and integer arithmetic. Array
// sizes and enum backing values go through here.
func (r *Resolver) Evaluate(v View, e ast.Expr) (int64, *diag.Report) {
	switch e := e.(type) {
	case ast.IntegerLit:
		return e.Value, nil

	case ast.CharLit:
		return int64(e.Value), nil

	case ast.BoolLit:
		if e.Value {
			return 1, nil
		}
		return 0, nil

	case ast.NameExpr:
		head, rep := r.Scope(v).FindSymbol(scope.Search{
			Namespace: e.Namespace,
			Name:      e.Name,
			Category:  scope.CategoryExprAlias,
			Arity:     scope.AnyArity,
			From:      v.File,
			Span:      e.Span,
		})
		if rep != nil {
			return 0, rep
		}
		d := r.WS.ExprAliases.At(arena.Idx[ast.ExprAlias](head.Target.Index))
		return r.Evaluate(r.ViewOf(head.File), d.Value)

	case ast.UnaryOp:
		val, rep := r.Evaluate(v, e.Val)
		if rep != nil {
			return 0, rep
		}
		switch e.Op {
		case ast.OpNegate:
			return -val, nil
		case ast.OpBitComplement:
			return ^val, nil
		case ast.OpNot:
			if val == 0 {
				return 1, nil
			}
			return 0, nil
		}

	case ast.BinOp:
		l, rep := r.Evaluate(v, e.Left)
		if rep != nil {
			return 0, rep
		}
		rv, rep := r.Evaluate(v, e.Right)
		if rep != nil {
			return 0, rep
		}
		switch e.Op {
		case ast.OpAdd:
			return l + rv, nil
		case ast.OpSub:
			return l - rv, nil
		case ast.OpMul:
			return l * rv, nil
		case ast.OpDiv:
			if rv == 0 {
				return 0, diag.New(diag.INT002, "resolve", e.Span, "division by zero in constant expression")
			}
			return l / rv, nil
		case ast.OpMod:
			if rv == 0 {
				return 0, diag.New(diag.INT002, "resolve", e.Span, "division by zero in constant expression")
			}
			return l % rv, nil
		case ast.OpShl:
			return l << uint(rv), nil
		case ast.OpShr:
			return l >> uint(rv), nil
		case ast.OpBitAnd:
			return l & rv, nil
		case ast.OpBitOr:
			return l | rv, nil
		case ast.OpBitXor:
			return l ^ rv, nil
		}
	}
	return 0, diag.New(diag.TYP005, "resolve", e.ExprSpan(),
		"expression is not a compile-time constant integer")
}
