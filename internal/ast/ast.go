// Package ast defines the typed abstract syntax consumed by the compiler
// core. The external lexer/parser collaborator produces these values; the
// core never sees raw source bytes.
package ast

import (
	"github.com/adeptlang/adept/internal/diag"
)

// Privacy controls cross-module visibility of a declaration.
type Privacy int

const (
	Private Privacy = iota
	Public
)

// Type is a surface type expression.
type Type interface {
	TypeSpan() diag.Span
	isType()
}

// Primitive enumerates the built-in scalar type names.
type Primitive int

const (
	PrimBool Primitive = iota
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimF32
	PrimF64
	PrimUsize
	PrimIsize
	PrimChar
	PrimUchar
	PrimSchar
	PrimShort
	PrimUshort
	PrimInt
	PrimUint
	PrimLong
	PrimUlong
	PrimLonglong
	PrimUlonglong
	PrimVoid
	PrimNever
)

type TypePrimitive struct {
	Prim Primitive
	Span diag.Span
}

// TypeNamed is a (possibly namespaced, possibly generic) reference to a
// user-defined type or alias.
type TypeNamed struct {
	Namespace []string
	Name      string
	Args      []Type
	Span      diag.Span
}

type TypePtr struct {
	Inner Type
	Span  diag.Span
}

// TypeDeref is the mutable l-value type "deref T".
type TypeDeref struct {
	Inner Type
	Span  diag.Span
}

// TypeFixedArray is array<N, T>; Size must be a build-time constant
// integer expression.
type TypeFixedArray struct {
	Size Expr
	Elem Type
	Span diag.Span
}

// TypePolymorph is an unresolved type variable "$name".
type TypePolymorph struct {
	Name string
	Span diag.Span
}

func (t TypePrimitive) TypeSpan() diag.Span  { return t.Span }
func (t TypeNamed) TypeSpan() diag.Span      { return t.Span }
func (t TypePtr) TypeSpan() diag.Span        { return t.Span }
func (t TypeDeref) TypeSpan() diag.Span      { return t.Span }
func (t TypeFixedArray) TypeSpan() diag.Span { return t.Span }
func (t TypePolymorph) TypeSpan() diag.Span  { return t.Span }

func (TypePrimitive) isType()  {}
func (TypeNamed) isType()      {}
func (TypePtr) isType()        {}
func (TypeDeref) isType()      {}
func (TypeFixedArray) isType() {}
func (TypePolymorph) isType()  {}
