package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
)

func TestBuildReturnLiteral(t *testing.T) {
	g, reports := Build([]ast.Stmt{
		ast.Return{Value: ast.IntegerLit{Value: 42}},
	}, diag.None)
	require.Empty(t, reports)
	require.Len(t, g.Blocks, 1)

	blk := g.Blocks[Start]
	require.Len(t, blk.Instrs, 1)
	assert.Equal(t, InstrIntLit, blk.Instrs[0].Kind)
	assert.Equal(t, int64(42), blk.Instrs[0].Int)
	assert.Equal(t, EndReturn, blk.End.Kind)
	assert.True(t, blk.End.Value.Valid)
}

func TestBuildImplicitVoidReturn(t *testing.T) {
	g, reports := Build(nil, diag.None)
	require.Empty(t, reports)
	require.Len(t, g.Blocks, 1)
	assert.Equal(t, EndReturn, g.Blocks[Start].End.Kind)
	assert.False(t, g.Blocks[Start].End.Value.Valid)
}

func TestBuildIfElseJoins(t *testing.T) {
	g, reports := Build([]ast.Stmt{
		ast.If{
			Cond: ast.BoolLit{Value: true},
			Then: []ast.Stmt{ast.ExprStmt{Expr: ast.IntegerLit{Value: 1}}},
			Else: []ast.Stmt{ast.ExprStmt{Expr: ast.IntegerLit{Value: 2}}},
		},
		ast.Return{},
	}, diag.None)
	require.Empty(t, reports)

	start := g.Blocks[Start]
	require.Equal(t, EndCondBranch, start.End.Kind)
	thenEnd := g.Blocks[start.End.True].End
	elseEnd := g.Blocks[start.End.False].End
	assert.Equal(t, EndJump, thenEnd.Kind)
	assert.Equal(t, EndJump, elseEnd.Kind)
	assert.Equal(t, thenEnd.To, elseEnd.To, "both arms join the same block")
}

func TestBuildWhileBreakContinue(t *testing.T) {
	g, reports := Build([]ast.Stmt{
		ast.While{
			Cond: ast.BoolLit{Value: true},
			Body: []ast.Stmt{
				ast.If{Cond: ast.BoolLit{Value: false}, Then: []ast.Stmt{ast.Break{}}},
				ast.Continue{},
			},
		},
		ast.Return{},
	}, diag.None)
	require.Empty(t, reports)

	// No placeholder terminators survive construction.
	for i, blk := range g.Blocks {
		assert.NotEqual(t, EndIncompleteBreak, blk.End.Kind, "block %d", i)
		assert.NotEqual(t, EndIncompleteContinue, blk.End.Kind, "block %d", i)
	}
}

func TestBuildBreakOutsideLoop(t *testing.T) {
	_, reports := Build([]ast.Stmt{ast.Break{}}, diag.None)
	require.Len(t, reports, 1)
	assert.Equal(t, diag.RES020, reports[0].Code)
}

func TestBuildGotoBackpatch(t *testing.T) {
	g, reports := Build([]ast.Stmt{
		ast.Goto{Label: "end"},
		ast.LabelStmt{Name: "end"},
		ast.Return{},
	}, diag.None)
	require.Empty(t, reports)
	for i, blk := range g.Blocks {
		assert.NotEqual(t, EndIncompleteGoto, blk.End.Kind, "block %d", i)
	}
}

func TestBuildGotoUnmatchedLabel(t *testing.T) {
	_, reports := Build([]ast.Stmt{
		ast.Goto{Label: "nowhere"},
		ast.Return{},
	}, diag.None)
	require.Len(t, reports, 1)
	assert.Equal(t, diag.RES014, reports[0].Code)
}

func TestBuildTernaryPhi(t *testing.T) {
	g, reports := Build([]ast.Stmt{
		ast.Return{Value: ast.Ternary{
			Cond: ast.BoolLit{Value: true},
			Then: ast.IntegerLit{Value: 1},
			Else: ast.IntegerLit{Value: 2},
		}},
	}, diag.None)
	require.Empty(t, reports)

	var phi *Instr
	for b := range g.Blocks {
		for i := range g.Blocks[b].Instrs {
			if g.Blocks[b].Instrs[i].Kind == InstrPhi {
				phi = &g.Blocks[b].Instrs[i]
			}
		}
	}
	require.NotNil(t, phi, "ternary produces a phi")
	require.Len(t, phi.Incoming, 2)
	assert.NotEqual(t, phi.Incoming[0].From, phi.Incoming[1].From)
}

func TestBuildCompoundAssignDesugars(t *testing.T) {
	g, reports := Build([]ast.Stmt{
		ast.Declare{Name: "x", Type: ast.TypePrimitive{Prim: ast.PrimI32}, Value: ast.IntegerLit{Value: 1}},
		ast.CompoundAssign{Dest: ast.NameExpr{Name: "x"}, Op: ast.OpAdd, Value: ast.IntegerLit{Value: 2}},
		ast.Return{},
	}, diag.None)
	require.Empty(t, reports)

	kinds := []InstrKind{}
	for _, in := range g.Blocks[Start].Instrs {
		kinds = append(kinds, in.Kind)
	}
	assert.Contains(t, kinds, InstrBinOp)
	assert.Contains(t, kinds, InstrAssign)
}
