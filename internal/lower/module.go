package lower

import (
	"fmt"
	"sync"

	"github.com/adeptlang/adept/internal/ir"
	"github.com/adeptlang/adept/internal/poly"
	"github.com/adeptlang/adept/internal/resolve"
	"github.com/adeptlang/adept/internal/types"
)

// StructResolver produces the IR shape of a user-defined struct given its
// generic arguments.
type StructResolver func(decl types.DeclRef, args []types.Type) (ir.Struct, error)

// ModuleBuilder owns the IR module under construction. Function and
// struct declarations are deduplicated by mangled identity so recursive
// and mutually-recursive lowering terminates.
type ModuleBuilder struct {
	mu  sync.Mutex
	Mod *ir.Module

	funcsByName   map[string]ir.FuncRef
	globalsByIdx  map[uint32]ir.GlobalRef
	structsByKey  map[string]ir.StructRef
	structResolve StructResolver
}

// NewModuleBuilder creates a builder for the target.
func NewModuleBuilder(target ir.Target, structs StructResolver) *ModuleBuilder {
	return &ModuleBuilder{
		Mod:           ir.NewModule(target),
		funcsByName:   map[string]ir.FuncRef{},
		globalsByIdx:  map[uint32]ir.GlobalRef{},
		structsByKey:  map[string]ir.StructRef{},
		structResolve: structs,
	}
}

// EnsureFunc declares a function (bodiless) and returns its stable
// reference; repeated calls with the same mangled name share one slot.
func (mb *ModuleBuilder) EnsureFunc(mangled string, params []ir.Type, ret ir.Type, own ir.Ownership) ir.FuncRef {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if ref, ok := mb.funcsByName[mangled]; ok {
		return ref
	}
	ref := mb.Mod.Funcs.Alloc(ir.Func{
		Mangled:   mangled,
		Params:    params,
		Return:    ret,
		Ownership: own,
	})
	mb.funcsByName[mangled] = ref
	return ref
}

// SetBody fills a declared function's basic blocks.
func (mb *ModuleBuilder) SetBody(ref ir.FuncRef, blocks []ir.Block) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.Mod.Funcs.At(ref).Blocks = blocks
}

// EnsureGlobal declares a module global once per workspace index.
func (mb *ModuleBuilder) EnsureGlobal(idx uint32, mangled string, t ir.Type, threadLocal bool) ir.GlobalRef {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if ref, ok := mb.globalsByIdx[idx]; ok {
		return ref
	}
	ref := mb.Mod.Globals.Alloc(ir.Global{Mangled: mangled, Type: t, ThreadLocal: threadLocal})
	mb.globalsByIdx[idx] = ref
	return ref
}

// LowerStruct implements StructLowerer: one IR struct per (declaration,
// argument list) specialization.
func (mb *ModuleBuilder) LowerStruct(decl types.DeclRef, args []types.Type) (ir.StructRef, error) {
	key := fmt.Sprintf("%d:%d%s", decl.Kind, decl.Index, argsKey(args))
	mb.mu.Lock()
	if ref, ok := mb.structsByKey[key]; ok {
		mb.mu.Unlock()
		return ref, nil
	}
	mb.mu.Unlock()

	if mb.structResolve == nil {
		return ir.StructRef{}, fmt.Errorf("no struct resolver configured")
	}
	s, err := mb.structResolve(decl, args)
	if err != nil {
		return ir.StructRef{}, err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	if ref, ok := mb.structsByKey[key]; ok {
		return ref, nil
	}
	idx := mb.Mod.Structs.Alloc(s)
	ref := ir.StructRef{Index: uint32(idx)}
	mb.structsByKey[key] = ref
	return ref, nil
}

func argsKey(args []types.Type) string {
	out := ""
	for _, a := range args {
		out += "," + a.Key()
	}
	return out
}

// SpecializedMangled derives the linker name of one monomorphization:
// the head's mangled name plus the baked polymorph values in declaration
// order. Foreign names never gain a suffix.
func SpecializedMangled(head *resolve.FuncHead, recipe *poly.Recipe) string {
	if head.Foreign || len(head.Polymorphs) == 0 {
		return head.Mangled
	}
	out := head.Mangled + "<"
	for i, name := range head.Polymorphs {
		if i > 0 {
			out += ", "
		}
		if v, ok := recipe.Lookup(name); ok {
			out += v.String()
		} else {
			out += "$" + name
		}
	}
	return out + ">"
}
