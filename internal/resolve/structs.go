package resolve

import (
	"fmt"

	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/fstree"
	"github.com/adeptlang/adept/internal/types"
)

// StructField is one resolved struct member.
type StructField struct {
	Name string
	Type types.Type
}

// StructShape is the resolved form of a struct specialization, ready for
// layout and lowering.
type StructShape struct {
	Name   string
	Fields []StructField
	Packed bool
}

// ResolveStruct resolves a user-defined struct's fields with its generic
// parameters bound to args.
func (r *Resolver) ResolveStruct(decl types.DeclRef, args []types.Type) (*StructShape, error) {
	if decl.Kind != types.DeclStruct {
		return nil, fmt.Errorf("declaration is not a struct")
	}
	d := r.WS.Structs.At(arena.Idx[ast.Struct](decl.Index))
	file, ok := r.fileOfStruct(decl.Index)
	if !ok {
		return nil, fmt.Errorf("struct %q has no owning file", d.Name)
	}
	if len(args) != len(d.TypeParams) {
		return nil, fmt.Errorf("struct %q expects %d type arguments, got %d",
			d.Name, len(d.TypeParams), len(args))
	}

	bindings := map[string]types.Type{}
	for i, p := range d.TypeParams {
		bindings[p] = args[i]
	}
	v := r.ViewOf(file).withBindings(bindings)

	shape := &StructShape{Name: d.Name, Packed: d.Packed}
	for _, f := range d.Fields {
		t, rep := r.ResolveType(v, f.Type)
		if rep != nil {
			return nil, fmt.Errorf("field %q: %s", f.Name, rep.Message)
		}
		shape.Fields = append(shape.Fields, StructField{Name: f.Name, Type: t.Type})
	}
	return shape, nil
}

func (r *Resolver) fileOfStruct(index uint32) (fstree.NodeID, bool) {
	for node, f := range r.WS.Files {
		for _, idx := range f.Structs {
			if uint32(idx) == index {
				return node, true
			}
		}
	}
	return 0, false
}
