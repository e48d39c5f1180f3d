// Package poly implements the polymorphism environment: the mutable
// catalog built up while matching a call site against a generic
// declaration, and the baked recipe that substitutes every polymorph.
package poly

import (
	"errors"
	"fmt"

	"github.com/adeptlang/adept/internal/types"
)

// ErrIncongruent is returned when a polymorph would be bound to two
// different concrete values. Congruence is the sole match failure for
// already-bound names.
var ErrIncongruent = errors.New("polymorph bound to two different values")

// ErrLengthMismatch is returned when structurally compound types disagree
// on argument count.
var ErrLengthMismatch = errors.New("generic argument length mismatch")

// ErrNoMatch is returned when a pattern cannot structurally match the
// concrete type.
var ErrNoMatch = errors.New("type does not match pattern")

// ImplRef identifies a concrete trait implementation by arena index.
type ImplRef struct {
	Index uint32
}

// Value is one polymorph binding: a type, an evaluated arithmetic size,
// a concrete impl, or a reference to another polymorphic impl parameter.
type Value interface {
	Key() string
	String() string
	isValue()
}

type TypeValue struct {
	Type types.Type
}

type SizeValue struct {
	Value uint64
}

type ImplValue struct {
	Ref ImplRef
}

// PolyImplValue defers to an impl parameter of the enclosing declaration.
type PolyImplValue struct {
	Name string
}

func (v TypeValue) Key() string     { return "ty:" + v.Type.Key() }
func (v SizeValue) Key() string     { return fmt.Sprintf("sz:%d", v.Value) }
func (v ImplValue) Key() string     { return fmt.Sprintf("impl:%d", v.Ref.Index) }
func (v PolyImplValue) Key() string { return "polyimpl:" + v.Name }

func (v TypeValue) String() string     { return v.Type.String() }
func (v SizeValue) String() string     { return fmt.Sprintf("%d", v.Value) }
func (v ImplValue) String() string     { return fmt.Sprintf("impl #%d", v.Ref.Index) }
func (v PolyImplValue) String() string { return "$" + v.Name }

func (TypeValue) isValue()     {}
func (SizeValue) isValue()     {}
func (ImplValue) isValue()     {}
func (PolyImplValue) isValue() {}

// Catalog is an insertion-ordered map from polymorph name to value.
type Catalog struct {
	names []string
	m     map[string]Value
}

func NewCatalog() *Catalog {
	return &Catalog{m: map[string]Value{}}
}

// Get returns the binding for name.
func (c *Catalog) Get(name string) (Value, bool) {
	v, ok := c.m[name]
	return v, ok
}

// Insert records name ↦ v. Re-inserting the same value is a no-op;
// re-inserting a different value fails with ErrIncongruent.
func (c *Catalog) Insert(name string, v Value) error {
	if existing, ok := c.m[name]; ok {
		if existing.Key() != v.Key() {
			return fmt.Errorf("$%s: %w (%s vs %s)", name, ErrIncongruent, existing, v)
		}
		return nil
	}
	c.names = append(c.names, name)
	c.m[name] = v
	return nil
}

// Names returns bound names in insertion order.
func (c *Catalog) Names() []string {
	return c.names
}

// Bake freezes the catalog into an immutable recipe.
func (c *Catalog) Bake() *Recipe {
	m := make(map[string]Value, len(c.m))
	for k, v := range c.m {
		m[k] = v
	}
	return &Recipe{m: m}
}

// Recipe is the baked, immutable form of a catalog. It resolves any
// polymorph-containing type into a concrete type.
type Recipe struct {
	m map[string]Value
}

// EmptyRecipe resolves nothing; useful for monomorphic declarations.
func EmptyRecipe() *Recipe {
	return &Recipe{m: map[string]Value{}}
}

// Lookup returns the binding for a polymorph name.
func (r *Recipe) Lookup(name string) (Value, bool) {
	v, ok := r.m[name]
	return v, ok
}

// ResolveType substitutes every polymorph in t. A polymorph with no
// binding, or bound to a non-type value, is an error.
func (r *Recipe) ResolveType(t types.Type) (types.Type, error) {
	switch t := t.(type) {
	case types.Polymorph:
		v, ok := r.m[t.Name]
		if !ok {
			return nil, fmt.Errorf("polymorph $%s is unresolved", t.Name)
		}
		tv, ok := v.(TypeValue)
		if !ok {
			return nil, fmt.Errorf("polymorph $%s is bound to %s, not a type", t.Name, v)
		}
		return tv.Type, nil
	case types.Ptr:
		inner, err := r.ResolveType(t.Inner)
		if err != nil {
			return nil, err
		}
		return types.Ptr{Inner: inner}, nil
	case types.Deref:
		inner, err := r.ResolveType(t.Inner)
		if err != nil {
			return nil, err
		}
		return types.Deref{Inner: inner}, nil
	case types.FixedArray:
		elem, err := r.ResolveType(t.Elem)
		if err != nil {
			return nil, err
		}
		return types.FixedArray{Count: t.Count, Elem: elem}, nil
	case types.UserDefined:
		if len(t.Args) == 0 {
			return t, nil
		}
		args := make([]types.Type, len(t.Args))
		for i, a := range t.Args {
			resolved, err := r.ResolveType(a)
			if err != nil {
				return nil, err
			}
			args[i] = resolved
		}
		return types.UserDefined{Decl: t.Decl, Name: t.Name, Args: args}, nil
	case types.Alias:
		under, err := r.ResolveType(t.Underlying)
		if err != nil {
			return nil, err
		}
		out := t
		out.Underlying = under
		return out, nil
	default:
		return t, nil
	}
}
