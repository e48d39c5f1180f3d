// Package scope builds per-module declaration tables and answers name
// lookups across visibility and namespace boundaries.
package scope

import (
	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
)

// Category partitions a name's declarations. Two declarations may share a
// name across categories, and within one only at different arities
// (functions excepted: they overload and are disambiguated at call
// dispatch).
type Category int

const (
	CategoryType Category = iota
	CategoryFunc
	CategoryTrait
	CategoryExprAlias
	CategoryImpl
)

func (c Category) String() string {
	return [...]string{"type", "function", "trait", "expression alias", "impl"}[c]
}

// TargetKind tags which workspace arena a head points into.
type TargetKind int

const (
	TargetFunc TargetKind = iota
	TargetStruct
	TargetEnum
	TargetTypeAlias
	TargetTrait
	TargetExprAlias
	TargetGlobal
	TargetImpl
)

// Target is the arena address of a declaration.
type Target struct {
	Kind  TargetKind
	Index uint32
}

// DeclHead summarizes one top-level declaration.
type DeclHead struct {
	Name     string
	Category Category

	// Arity is the type-parameter count for types and traits, the
	// value-parameter count for functions.
	Arity int

	Private bool
	File    fstree.NodeID
	Module  fstree.NodeID
	Span    diag.Span
	Target  Target
}

// DeclHeadSet is the per-name bundle of heads, partitioned by category.
type DeclHeadSet struct {
	byCat map[Category][]DeclHead
}

func (s *DeclHeadSet) add(h DeclHead) {
	if s.byCat == nil {
		s.byCat = map[Category][]DeclHead{}
	}
	s.byCat[h.Category] = append(s.byCat[h.Category], h)
}

// Heads returns the heads in the category.
func (s *DeclHeadSet) Heads(c Category) []DeclHead {
	if s == nil {
		return nil
	}
	return s.byCat[c]
}

// ImplEntry records one trait implementation for inference searches.
type ImplEntry struct {
	Head  DeclHead
	Trait ast.TypeNamed // the implemented trait reference with arguments
}

// DeclScope is a module's name table plus its imported namespaces.
type DeclScope struct {
	Module fstree.NodeID
	Tree   *fstree.Tree

	names map[string]*DeclHeadSet

	// Impls lists every implementation declared in the module, named or
	// not, for trait-argument inference.
	Impls []ImplEntry

	// namespaces maps each imported namespace to the scopes of the
	// modules it provides.
	namespaces map[string][]*DeclScope
}

func newDeclScope(tree *fstree.Tree, module fstree.NodeID) *DeclScope {
	return &DeclScope{
		Module:     module,
		Tree:       tree,
		names:      map[string]*DeclHeadSet{},
		namespaces: map[string][]*DeclScope{},
	}
}

func (s *DeclScope) set(name string) *DeclHeadSet {
	hs, ok := s.names[name]
	if !ok {
		hs = &DeclHeadSet{}
		s.names[name] = hs
	}
	return hs
}

// Lookup returns the head set for a name, local declarations only.
func (s *DeclScope) Lookup(name string) *DeclHeadSet {
	return s.names[name]
}

// AddImport extends the scope with an imported module's scope under the
// namespace.
func (s *DeclScope) AddImport(namespace string, imported *DeclScope) {
	s.namespaces[namespace] = append(s.namespaces[namespace], imported)
}

// Namespace returns the scopes imported under the namespace.
func (s *DeclScope) Namespace(ns string) []*DeclScope {
	return s.namespaces[ns]
}

// FuncDecl is a convenience accessor pairing a head with its declaration.
func FuncDecl(ws *ast.Workspace, h DeclHead) *ast.Func {
	if h.Target.Kind != TargetFunc {
		diag.ICE("scope: head %q is not a function", h.Name)
	}
	return ws.Funcs.At(arena.Idx[ast.Func](h.Target.Index))
}
