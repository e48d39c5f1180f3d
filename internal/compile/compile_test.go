package compile

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/fstree"
	"github.com/adeptlang/adept/internal/interp"
	"github.com/adeptlang/adept/internal/ir"
)

func linux() ir.Target { return ir.Target{Arch: ir.ArchX8664, OS: ir.OSLinux} }

func workspaceOf(raw ast.RawFile) *ast.Workspace {
	tree := fstree.New()
	ws := ast.NewWorkspace(tree)
	file := tree.Insert("src/main.adept", fstree.KindFile, time.Now())
	ws.AddFile(file, raw)
	ws.ComputeModules()
	return ws
}

func prim(p ast.Primitive) ast.Type { return ast.TypePrimitive{Prim: p} }

func findFunc(mod *ir.Module, pred func(*ir.Func) bool) *ir.Func {
	var out *ir.Func
	mod.Funcs.Each(func(_ ir.FuncRef, f *ir.Func) {
		if out == nil && pred(f) {
			out = f
		}
	})
	return out
}

func TestTrivialExternLowering(t *testing.T) {
	ws := workspaceOf(ast.RawFile{Funcs: []ast.Func{{
		Name:    "puts",
		Params:  []ast.Param{{Name: "msg", Type: ast.TypePtr{Inner: prim(ast.PrimUchar)}}},
		Return:  prim(ast.PrimInt),
		Foreign: true,
		Privacy: ast.Public,
	}}})

	res := Build(ws, Options{Target: linux(), Workers: 2})
	require.False(t, res.HasErrors(), "reports: %v", res.Reports)

	f := findFunc(res.Module, func(f *ir.Func) bool { return f.Mangled == "puts" })
	require.NotNil(t, f)
	assert.Equal(t, ir.Reference, f.Ownership)
	assert.Empty(t, f.Blocks, "extern functions carry no basic blocks")
	require.Len(t, f.Params, 1)
	p, ok := f.Params[0].(ir.Ptr)
	require.True(t, ok)
	assert.True(t, ir.TypeEqual(ir.I{Bits: 8, Signed: false}, p.Inner))
	assert.True(t, ir.TypeEqual(ir.I{Bits: 32, Signed: true}, f.Return))
}

func TestIntegerPromotionLowering(t *testing.T) {
	ws := workspaceOf(ast.RawFile{Funcs: []ast.Func{{
		Name:   "f",
		Params: []ast.Param{{Name: "x", Type: prim(ast.PrimU8)}},
		Return: prim(ast.PrimU8),
		Body: []ast.Stmt{ast.Return{Value: ast.BinOp{
			Op:    ast.OpAdd,
			Left:  ast.NameExpr{Name: "x"},
			Right: ast.IntegerLit{Value: 1},
		}}},
		Privacy: ast.Public,
	}}})

	res := Build(ws, Options{Target: linux(), Workers: 2})
	require.False(t, res.HasErrors(), "reports: %v", res.Reports)

	f := findFunc(res.Module, func(f *ir.Func) bool {
		return strings.HasSuffix(f.Mangled, ".f")
	})
	require.NotNil(t, f)

	u8 := ir.I{Bits: 8, Signed: false}
	sawAddAtU8 := false
	for _, blk := range f.Blocks {
		for _, in := range blk.Instrs {
			assert.NotEqual(t, ir.OpTrunc, in.Op, "no truncation emitted")
			if in.Op == ir.OpAdd && ir.TypeEqual(u8, in.Type) {
				sawAddAtU8 = true
			}
		}
	}
	assert.True(t, sawAddAtU8, "the add runs at u8")
	assert.True(t, ir.TypeEqual(u8, f.Return))
}

func TestPolymorphicSpecializations(t *testing.T) {
	ws := workspaceOf(ast.RawFile{Funcs: []ast.Func{
		{
			Name:    "id",
			Params:  []ast.Param{{Name: "x", Type: ast.TypePolymorph{Name: "T"}}},
			Return:  ast.TypePolymorph{Name: "T"},
			Body:    []ast.Stmt{ast.Return{Value: ast.NameExpr{Name: "x"}}},
			Privacy: ast.Public,
		},
		{
			Name:   "a",
			Params: []ast.Param{{Name: "v", Type: prim(ast.PrimU16)}},
			Return: prim(ast.PrimU16),
			Body: []ast.Stmt{ast.Return{Value: ast.Call{
				Name: "id", Args: []ast.Expr{ast.NameExpr{Name: "v"}},
			}}},
			Privacy: ast.Public,
		},
		{
			Name:   "b",
			Params: []ast.Param{{Name: "v", Type: prim(ast.PrimF64)}},
			Return: prim(ast.PrimF64),
			Body: []ast.Stmt{ast.Return{Value: ast.Call{
				Name: "id", Args: []ast.Expr{ast.NameExpr{Name: "v"}},
			}}},
			Privacy: ast.Public,
		},
	}})

	res := Build(ws, Options{Target: linux(), Workers: 4})
	require.False(t, res.HasErrors(), "reports: %v", res.Reports)

	u16Spec := findFunc(res.Module, func(f *ir.Func) bool {
		return strings.Contains(f.Mangled, "id<u16>")
	})
	f64Spec := findFunc(res.Module, func(f *ir.Func) bool {
		return strings.Contains(f.Mangled, "id<f64>")
	})
	require.NotNil(t, u16Spec, "u16 specialization exists")
	require.NotNil(t, f64Spec, "f64 specialization is distinct")
	assert.NotEmpty(t, u16Spec.Blocks, "specializations carry bodies")
	assert.True(t, ir.TypeEqual(ir.I{Bits: 16, Signed: false}, u16Spec.Return))
	assert.True(t, ir.TypeEqual(ir.F{Bits: 64}, f64Spec.Return))
}

func TestBuildScriptOutcome(t *testing.T) {
	ws := workspaceOf(ast.RawFile{Pragmas: []ast.Pragma{{
		Expr: ast.Call{Name: "project", Args: []ast.Expr{
			ast.StringLit{Value: "app"},
			ast.NameExpr{Name: "ConsoleApp"},
		}},
	}}})

	var scriptOut bytes.Buffer
	res := Build(ws, Options{Target: linux(), Workers: 2, ScriptOut: &scriptOut})
	require.False(t, res.HasErrors(), "reports: %v", res.Reports)

	require.NotNil(t, res.Outcome)
	require.Len(t, res.Outcome.Projects, 1)
	assert.Equal(t, interp.Project{Name: "app", Kind: interp.ConsoleApp}, res.Outcome.Projects[0])

	entry := findFunc(res.Module, func(f *ir.Func) bool {
		return f.Ownership == ir.InterpreterEntryPoint
	})
	require.NotNil(t, entry, "the entry function exists for the interpreter")
}

func TestCompileErrorSurfacesDiagnostic(t *testing.T) {
	ws := workspaceOf(ast.RawFile{Funcs: []ast.Func{{
		Name: "bad",
		Body: []ast.Stmt{ast.Return{Value: ast.NameExpr{Name: "missing"}}},
		Privacy: ast.Public,
	}}})

	res := Build(ws, Options{Target: linux(), Workers: 2})
	assert.True(t, res.HasErrors())
}
