// Package compile wires the whole pipeline together: scope construction,
// the request-driven executor over resolution and lowering, and the
// build-script interpreter.
package compile

import (
	"io"
	"log/slog"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/executor"
	"github.com/adeptlang/adept/internal/interp"
	"github.com/adeptlang/adept/internal/ir"
	"github.com/adeptlang/adept/internal/lower"
	"github.com/adeptlang/adept/internal/poly"
	"github.com/adeptlang/adept/internal/resolve"
	"github.com/adeptlang/adept/internal/scope"
	"github.com/adeptlang/adept/internal/types"
)

// Options configures one compilation.
type Options struct {
	Target  ir.Target
	Workers int
	Logger  *slog.Logger
	Metrics *executor.Metrics

	// ScriptOut receives build-script println output.
	ScriptOut io.Writer

	// StepBudget overrides the interpreter budget when positive.
	StepBudget int
}

// Result is everything a front end needs after one pass.
type Result struct {
	Module    *ir.Module
	Outcome   *interp.Outcome
	Execution executor.Execution
	Reports   []*diag.Report
}

// HasErrors reports whether the compilation failed.
func (r *Result) HasErrors() bool {
	return diag.HasErrors(r.Reports)
}

// Build drives a workspace to IR and runs its build script.
func Build(ws *ast.Workspace, opts Options) *Result {
	out := &Result{}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	scopes, reports := scope.Build(ws)
	out.Reports = append(out.Reports, reports...)
	if diag.HasErrors(out.Reports) {
		return out
	}

	r := &resolve.Resolver{WS: ws, Scopes: scopes}
	structs := &structResolver{r: r, target: opts.Target}
	mb := lower.NewModuleBuilder(opts.Target, structs.resolve)
	structs.mb = mb
	out.Module = mb.Mod

	_, reps := lower.BuildScript(mb, ws)
	out.Reports = append(out.Reports, reps...)

	e := executor.New(
		executor.WithWorkers(opts.Workers),
		executor.WithLogger(opts.Logger),
		executor.WithMetrics(opts.Metrics),
	)

	// Non-generic functions are the lowering roots; generic ones are
	// reached on demand, once per specialization, from their call sites.
	for _, f := range ws.Files {
		for _, fidx := range f.Funcs {
			d := ws.Funcs.Get(fidx)
			if isGenericDecl(&d) {
				continue
			}
			e.Spawn(nil, &lower.LowerFuncTask{
				R: r, MB: mb,
				FuncIdx: uint32(fidx),
				File:    f.Node,
				Recipe:  poly.EmptyRecipe(),
			})
		}
	}

	out.Execution = e.Start()
	out.Reports = append(out.Reports, out.Execution.Reports...)
	if diag.HasErrors(out.Reports) {
		return out
	}

	it := interp.New(mb.Mod, opts.ScriptOut)
	if opts.StepBudget > 0 {
		it.StepBudget = opts.StepBudget
	}
	if rep := it.RunEntry(); rep != nil {
		out.Reports = append(out.Reports, rep)
	}
	out.Outcome = it.Outcome
	return out
}

func isGenericDecl(d *ast.Func) bool {
	if len(d.Givens) > 0 {
		return true
	}
	var names []string
	for _, p := range d.Params {
		collectSurfacePolymorphs(p.Type, &names)
	}
	if d.Return != nil {
		collectSurfacePolymorphs(d.Return, &names)
	}
	return len(names) > 0
}

func collectSurfacePolymorphs(t ast.Type, into *[]string) {
	switch t := t.(type) {
	case ast.TypePolymorph:
		*into = append(*into, t.Name)
	case ast.TypePtr:
		collectSurfacePolymorphs(t.Inner, into)
	case ast.TypeDeref:
		collectSurfacePolymorphs(t.Inner, into)
	case ast.TypeFixedArray:
		collectSurfacePolymorphs(t.Elem, into)
	case ast.TypeNamed:
		for _, a := range t.Args {
			collectSurfacePolymorphs(a, into)
		}
	}
}

// structResolver adapts the resolver into the lowerer's struct callback:
// resolve the field types, then lower them against the same builder so
// nested records land in the module too.
type structResolver struct {
	r      *resolve.Resolver
	target ir.Target
	mb     *lower.ModuleBuilder
}

func (s *structResolver) resolve(decl types.DeclRef, args []types.Type) (ir.Struct, error) {
	shape, err := s.r.ResolveStruct(decl, args)
	if err != nil {
		return ir.Struct{}, err
	}
	out := ir.Struct{Name: shape.Name, Packed: shape.Packed}
	for _, f := range shape.Fields {
		ft, rep := lower.LowerType(f.Type, s.target, s.mb)
		if rep != nil {
			return ir.Struct{}, rep
		}
		out.Fields = append(out.Fields, ir.Field{Name: f.Name, Type: ft})
	}
	return out, nil
}
