package lower

import (
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/executor"
	"github.com/adeptlang/adept/internal/fstree"
	"github.com/adeptlang/adept/internal/poly"
	"github.com/adeptlang/adept/internal/resolve"
)

// LowerFuncTask lowers one function specialization. Identity is the
// function index plus the baked recipe; every distinct recipe is a
// distinct monomorphization.
type LowerFuncTask struct {
	R       *resolve.Resolver
	MB      *ModuleBuilder
	FuncIdx uint32
	File    fstree.NodeID
	Recipe  *poly.Recipe

	// Polymorphs orders the recipe for the identity key.
	Polymorphs []string

	// Suspension slots; never part of identity.
	head executor.Await[*resolve.FuncHead]
	body executor.Await[*resolve.ResolvedFunc]
}

func (t *LowerFuncTask) Key() string {
	return specializationKey(t.FuncIdx, t.Recipe, t.Polymorphs)
}

func (t *LowerFuncTask) Execute(ctx *executor.Ctx) (any, error) {
	head, err := executor.Need(ctx, &t.head, func() executor.Task {
		return &resolve.FuncHeadTask{R: t.R, FuncIdx: t.FuncIdx, File: t.File}
	})
	if err != nil {
		return nil, err
	}

	if head.Foreign {
		ref, reports := DeclareExtern(t.MB, head)
		if err := diag.ErrorList(reports); err != nil {
			return nil, err
		}
		return ref, nil
	}

	rf, err := executor.Need(ctx, &t.body, func() executor.Task {
		return &resolve.FuncBodyTask{R: t.R, FuncIdx: t.FuncIdx, File: t.File}
	})
	if err != nil {
		return nil, err
	}

	ref, reports := LowerFunc(t.MB, rf, t.Recipe)
	if err := diag.ErrorList(reports); err != nil {
		return nil, err
	}

	// Every owned callee specialization becomes its own request; the
	// call instruction already holds the declared FuncRef, so there is
	// nothing to await.
	for _, site := range rf.Calls {
		if site.Callee == nil || site.Callee.Foreign {
			if site.Callee != nil {
				ctx.Request(&LowerFuncTask{
					R: t.R, MB: t.MB,
					FuncIdx: site.Callee.FuncIdx, File: site.Callee.File,
					Recipe: poly.EmptyRecipe(),
				})
			}
			continue
		}
		ctx.Request(&LowerFuncTask{
			R: t.R, MB: t.MB,
			FuncIdx:    site.Callee.FuncIdx,
			File:       site.Callee.File,
			Recipe:     site.Recipe,
			Polymorphs: site.Callee.Polymorphs,
		})
	}
	return ref, nil
}

var _ executor.Task = (*LowerFuncTask)(nil)
