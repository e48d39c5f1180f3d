package resolve

import (
	"fmt"
	"sort"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/executor"
	"github.com/adeptlang/adept/internal/fstree"
	"github.com/adeptlang/adept/internal/scope"
)

// FuncHeadTask resolves one function's signature. Identity is the
// function's arena index: the referenced arenas are stable for the
// compilation, so the index pins the input contents.
type FuncHeadTask struct {
	R       *Resolver
	FuncIdx uint32
	File    fstree.NodeID
}

func (t *FuncHeadTask) Key() string {
	return fmt.Sprintf("funchead:%d", t.FuncIdx)
}

func (t *FuncHeadTask) Execute(ctx *executor.Ctx) (any, error) {
	head, rep := t.R.ResolveFuncHead(idx(t.FuncIdx), t.File)
	if rep != nil {
		return nil, rep
	}
	return head, nil
}

// FuncBodyTask resolves one function body. It suspends first on the
// function's own head, then on the head of every overload candidate its
// body may call; the final pass is synchronous.
type FuncBodyTask struct {
	R       *Resolver
	FuncIdx uint32
	File    fstree.NodeID

	// Suspension slots; never part of identity.
	head       executor.Await[*FuncHead]
	candidates executor.AwaitMany[*FuncHead]
}

func (t *FuncBodyTask) Key() string {
	return fmt.Sprintf("funcbody:%d", t.FuncIdx)
}

func (t *FuncBodyTask) Execute(ctx *executor.Ctx) (any, error) {
	head, err := executor.Need(ctx, &t.head, func() executor.Task {
		return &FuncHeadTask{R: t.R, FuncIdx: t.FuncIdx, File: t.File}
	})
	if err != nil {
		return nil, err
	}

	candidateIdx := t.R.callCandidateIndices(head)
	heads, err := executor.NeedMany(ctx, &t.candidates, func() []executor.Task {
		tasks := make([]executor.Task, len(candidateIdx))
		for i, c := range candidateIdx {
			tasks[i] = &FuncHeadTask{R: t.R, FuncIdx: c.idx, File: c.file}
		}
		return tasks
	})
	if err != nil {
		return nil, err
	}

	byIdx := make(map[uint32]*FuncHead, len(heads))
	for i, h := range heads {
		byIdx[candidateIdx[i].idx] = h
	}

	resolved, reports := t.R.ResolveFuncBody(head, byIdx)
	if err := diag.ErrorList(reports); err != nil {
		return nil, err
	}
	return resolved, nil
}

type candidate struct {
	idx  uint32
	file fstree.NodeID
}

// callCandidateIndices walks a function body and returns the arena index
// of every overload candidate any call in it could dispatch to, in
// deterministic order.
func (r *Resolver) callCandidateIndices(head *FuncHead) []candidate {
	d := r.WS.Funcs.At(idx(head.FuncIdx))
	v := r.ViewOf(head.File)

	seen := map[uint32]fstree.NodeID{}
	visitCalls(d.Body, func(c *ast.Call) {
		if _, isBuiltin := builtinCastTarget(c.Name); isBuiltin && len(c.Namespace) == 0 {
			return
		}
		for _, h := range r.Scope(v).FindFuncs(scope.Search{
			Namespace: c.Namespace,
			Name:      c.Name,
			From:      v.File,
		}) {
			seen[h.Target.Index] = h.File
		}
	})

	out := make([]candidate, 0, len(seen))
	for i, f := range seen {
		out = append(out, candidate{idx: i, file: f})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].idx < out[b].idx })
	return out
}

// visitCalls invokes fn for every call expression in a statement list.
func visitCalls(stmts []ast.Stmt, fn func(*ast.Call)) {
	var walkExpr func(ast.Expr)
	walkExpr = func(e ast.Expr) {
		switch e := e.(type) {
		case ast.Call:
			for _, a := range e.Args {
				walkExpr(a)
			}
			fn(&e)
		case ast.BinOp:
			walkExpr(e.Left)
			walkExpr(e.Right)
		case ast.UnaryOp:
			walkExpr(e.Val)
		case ast.Ternary:
			walkExpr(e.Cond)
			walkExpr(e.Then)
			walkExpr(e.Else)
		case ast.Subscript:
			walkExpr(e.Base)
			walkExpr(e.Index)
		}
	}
	var walkStmt func(ast.Stmt)
	walkStmt = func(s ast.Stmt) {
		switch s := s.(type) {
		case ast.ExprStmt:
			walkExpr(s.Expr)
		case ast.Return:
			if s.Value != nil {
				walkExpr(s.Value)
			}
		case ast.Declare:
			if s.Value != nil {
				walkExpr(s.Value)
			}
		case ast.DeclareAssign:
			walkExpr(s.Value)
		case ast.Assign:
			walkExpr(s.Dest)
			walkExpr(s.Value)
		case ast.CompoundAssign:
			walkExpr(s.Dest)
			walkExpr(s.Value)
		case ast.If:
			walkExpr(s.Cond)
			for _, inner := range s.Then {
				walkStmt(inner)
			}
			for _, inner := range s.Else {
				walkStmt(inner)
			}
		case ast.While:
			walkExpr(s.Cond)
			for _, inner := range s.Body {
				walkStmt(inner)
			}
		case ast.Block:
			for _, inner := range s.Stmts {
				walkStmt(inner)
			}
		case ast.Pragma:
			walkExpr(s.Expr)
		}
	}
	for _, s := range stmts {
		walkStmt(s)
	}
}
