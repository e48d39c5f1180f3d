package lower

import (
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
	"github.com/adeptlang/adept/internal/ir"
)

// pragmaSyscalls maps the build-script call names onto syscall kinds and
// their fixed arities.
var pragmaSyscalls = map[string]struct {
	kind  ir.SyscallKind
	arity int
}{
	"println":                       {ir.SysPrintln, 1},
	"project":                       {ir.SysBuildAddProject, 2},
	"linkFilename":                  {ir.SysBuildLinkFilename, 1},
	"linkFramework":                 {ir.SysBuildLinkFrameworkName, 1},
	"adeptVersion":                  {ir.SysBuildSetAdeptVersion, 1},
	"experimental":                  {ir.SysExperimental, 1},
	"importNamespace":               {ir.SysImportNamespace, 1},
	"dontAssumeIntAtLeast32Bits":    {ir.SysDontAssumeIntAtLeast32Bits, 0},
	"useDependency":                 {ir.SysUseDependency, 2},
}

// projectKinds are the enum spellings a project pragma accepts.
var projectKinds = map[string]int64{
	"ConsoleApp":     0,
	"WindowedApp":    1,
	"StaticLibrary":  2,
	"DynamicLibrary": 3,
}

// BuildScript synthesizes the interpreter entry function wrapping every
// pragma expression in the workspace, in deterministic file order.
func BuildScript(mb *ModuleBuilder, ws *ast.Workspace) (ir.FuncRef, []*diag.Report) {
	var reports []*diag.Report
	var block ir.Block

	push := func(in ir.Instr) ir.Ref {
		block.Instrs = append(block.Instrs, in)
		return ir.Ref{Block: 0, Index: uint32(len(block.Instrs) - 1)}
	}

	var walk func(fstree.NodeID)
	walk = func(id fstree.NodeID) {
		if f, ok := ws.Files[id]; ok {
			for _, pragma := range f.Pragmas {
				if rep := lowerPragma(push, pragma); rep != nil {
					reports = append(reports, rep)
				}
			}
		}
		for _, c := range ws.Tree.Children(id) {
			walk(c)
		}
	}
	walk(fstree.Root)

	push(ir.Instr{Op: ir.OpRet, Type: ir.Void{}})

	ref := mb.EnsureFunc("adept.build", nil, ir.Void{}, ir.InterpreterEntryPoint)
	mb.SetBody(ref, []ir.Block{block})
	return ref, reports
}

func lowerPragma(push func(ir.Instr) ir.Ref, pragma ast.Pragma) *diag.Report {
	call, ok := pragma.Expr.(ast.Call)
	if !ok {
		return diag.New(diag.INT005, "lower", pragma.Span,
			"pragma must be a build-script call")
	}
	sys, ok := pragmaSyscalls[call.Name]
	if !ok {
		return diag.New(diag.INT005, "lower", call.Span,
			"unknown build-script call %q", call.Name)
	}
	if len(call.Args) != sys.arity {
		return diag.New(diag.INT005, "lower", call.Span,
			"%s expects %d arguments, got %d", call.Name, sys.arity, len(call.Args))
	}

	args := make([]ir.Ref, 0, len(call.Args))
	for _, a := range call.Args {
		ref, rep := lowerPragmaArg(push, a)
		if rep != nil {
			return rep
		}
		args = append(args, ref)
	}
	push(ir.Instr{Op: ir.OpSyscall, Type: ir.Void{}, Syscall: sys.kind, Args: args})
	return nil
}

// lowerPragmaArg handles the argument forms build scripts use: string
// literals (as C strings), integers, booleans, and named enum values.
func lowerPragmaArg(push func(ir.Instr) ir.Ref, e ast.Expr) (ir.Ref, *diag.Report) {
	switch e := e.(type) {
	case ast.StringLit:
		return push(ir.Instr{
			Op: ir.OpLiteral, Type: ir.Ptr{Inner: ir.I{Bits: 8}},
			Lit: &ir.Literal{Kind: ir.LitCString, Str: e.Value},
		}), nil
	case ast.IntegerLit:
		return push(ir.Instr{
			Op: ir.OpLiteral, Type: ir.I{Bits: 32, Signed: true},
			Lit: &ir.Literal{Kind: ir.LitInt, Int: e.Value},
		}), nil
	case ast.BoolLit:
		v := int64(0)
		if e.Value {
			v = 1
		}
		return push(ir.Instr{
			Op: ir.OpLiteral, Type: ir.I{Bits: 32, Signed: true},
			Lit: &ir.Literal{Kind: ir.LitInt, Int: v},
		}), nil
	case ast.NameExpr:
		if v, ok := projectKinds[e.Name]; ok {
			return push(ir.Instr{
				Op: ir.OpLiteral, Type: ir.I{Bits: 32, Signed: true},
				Lit: &ir.Literal{Kind: ir.LitInt, Int: v},
			}), nil
		}
		return ir.Ref{}, diag.New(diag.INT005, "lower", e.Span,
			"unknown build-script value %q", e.Name)
	}
	return ir.Ref{}, diag.New(diag.INT005, "lower", e.ExprSpan(),
		"unsupported build-script argument")
}
