// Package types defines the resolved type system: the closed sum every
// expression is assigned, the unaliasing discipline, and the unifier that
// decides a single type for a set of values.
package types

import (
	"fmt"
	"strings"
)

// Type is a resolved type. Equality ignores source positions (resolved
// types carry none); Key returns a stable identity string used for
// hashing and congruence checks.
type Type interface {
	String() string
	Key() string
	isType()
}

// Equal reports structural equality of two resolved types.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// Literal kinds. These exist only transiently during unification; no
// lowered value ever carries one.

type IntegerLiteral struct {
	Value int64
}

type FloatLiteral struct {
	Value float64
}

type BoolLiteral struct {
	Value bool
}

type NullLiteral struct{}

type AsciiCharLiteral struct {
	Value byte
}

// IntegerLiteralInRange is the most specific "any integer that fits here"
// type: the join of a set of integer literals.
type IntegerLiteralInRange struct {
	Min int64
	Max int64
}

// Scalar kinds.

type Boolean struct{}

// BitInteger is a fixed-width integer.
type BitInteger struct {
	Bits   int
	Signed bool
}

// Sign is the three-valued signedness of a C integer; unspecified defers
// to the target at lowering time.
type Sign int

const (
	SignUnspecified Sign = iota
	SignSigned
	SignUnsigned
)

// CInteger is a loose C integer whose width depends on the target.
type CInteger struct {
	Kind CKind
	Sign Sign
}

// SizeInteger is usize/isize: pointer-width on every target.
type SizeInteger struct {
	Signed bool
}

// Floating is an IEEE float of 32 or 64 bits.
type Floating struct {
	Bits int
}

type Ptr struct {
	Inner Type
}

// Deref is the mutable l-value type: the result of a dereferencable
// place expression.
type Deref struct {
	Inner Type
}

type Void struct{}

type Never struct{}

type FixedArray struct {
	Count uint64
	Elem  Type
}

// DeclKind tags which arena a DeclRef points into.
type DeclKind int

const (
	DeclStruct DeclKind = iota
	DeclEnum
	DeclAlias
	DeclTrait
)

// DeclRef identifies a user-defined declaration by arena index. Identity
// uses the index, never the surface name.
type DeclRef struct {
	Kind  DeclKind
	Index uint32
}

// UserDefined is a user type applied to generic arguments.
type UserDefined struct {
	Decl DeclRef
	Name string
	Args []Type
}

// Polymorph is an unresolved type variable "$name".
type Polymorph struct {
	Name string
}

// Label is a direct goto label type.
type Label struct {
	Name string
}

// Alias is a transparent alias application, preserved only by
// keep-aliases resolution.
type Alias struct {
	Decl       DeclRef
	Name       string
	Args       []Type
	Underlying Type
}

// UnaliasedType guarantees the outermost layer is not a transparent
// alias.
type UnaliasedType struct {
	Type
}

// Unalias strips outer alias layers.
func Unalias(t Type) UnaliasedType {
	for {
		a, ok := t.(Alias)
		if !ok {
			return UnaliasedType{t}
		}
		t = a.Underlying
	}
}

func (t IntegerLiteral) String() string { return fmt.Sprintf("integer %d", t.Value) }
func (t FloatLiteral) String() string   { return fmt.Sprintf("float %g", t.Value) }
func (t BoolLiteral) String() string    { return fmt.Sprintf("bool %v", t.Value) }
func (NullLiteral) String() string      { return "null" }
func (t AsciiCharLiteral) String() string {
	return fmt.Sprintf("char %q", string(rune(t.Value)))
}
func (t IntegerLiteralInRange) String() string {
	return fmt.Sprintf("integer %d..%d", t.Min, t.Max)
}
func (Boolean) String() string { return "bool" }
func (t BitInteger) String() string {
	if t.Signed {
		return fmt.Sprintf("i%d", t.Bits)
	}
	return fmt.Sprintf("u%d", t.Bits)
}
func (t CInteger) String() string { return t.Kind.Spell(t.Sign) }
func (t SizeInteger) String() string {
	if t.Signed {
		return "isize"
	}
	return "usize"
}
func (t Floating) String() string { return fmt.Sprintf("f%d", t.Bits) }
func (t Ptr) String() string      { return "ptr<" + t.Inner.String() + ">" }
func (t Deref) String() string    { return "deref " + t.Inner.String() }
func (Void) String() string       { return "void" }
func (Never) String() string      { return "never" }
func (t FixedArray) String() string {
	return fmt.Sprintf("array<%d, %s>", t.Count, t.Elem)
}
func (t UserDefined) String() string { return applied(t.Name, t.Args) }
func (t Polymorph) String() string   { return "$" + t.Name }
func (t Label) String() string       { return "label " + t.Name }
func (t Alias) String() string       { return applied(t.Name, t.Args) }

func applied(name string, args []Type) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}

func (t IntegerLiteral) Key() string { return fmt.Sprintf("ilit:%d", t.Value) }
func (t FloatLiteral) Key() string   { return fmt.Sprintf("flit:%g", t.Value) }
func (t BoolLiteral) Key() string    { return fmt.Sprintf("blit:%v", t.Value) }
func (NullLiteral) Key() string      { return "nulllit" }
func (t AsciiCharLiteral) Key() string {
	return fmt.Sprintf("clit:%d", t.Value)
}
func (t IntegerLiteralInRange) Key() string {
	return fmt.Sprintf("irange:%d:%d", t.Min, t.Max)
}
func (Boolean) Key() string { return "bool" }
func (t BitInteger) Key() string {
	return fmt.Sprintf("bits:%d:%v", t.Bits, t.Signed)
}
func (t CInteger) Key() string {
	return fmt.Sprintf("cint:%d:%d", t.Kind, t.Sign)
}
func (t SizeInteger) Key() string { return fmt.Sprintf("size:%v", t.Signed) }
func (t Floating) Key() string    { return fmt.Sprintf("float:%d", t.Bits) }
func (t Ptr) Key() string         { return "ptr(" + t.Inner.Key() + ")" }
func (t Deref) Key() string       { return "deref(" + t.Inner.Key() + ")" }
func (Void) Key() string          { return "void" }
func (Never) Key() string         { return "never" }
func (t FixedArray) Key() string {
	return fmt.Sprintf("array(%d,%s)", t.Count, t.Elem.Key())
}
func (t UserDefined) Key() string {
	return fmt.Sprintf("user(%d:%d%s)", t.Decl.Kind, t.Decl.Index, argsKey(t.Args))
}
func (t Polymorph) Key() string { return "poly($" + t.Name + ")" }
func (t Label) Key() string     { return "label(" + t.Name + ")" }
func (t Alias) Key() string {
	return fmt.Sprintf("alias(%d:%d%s)", t.Decl.Kind, t.Decl.Index, argsKey(t.Args))
}

func argsKey(args []Type) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range args {
		b.WriteString(",")
		b.WriteString(a.Key())
	}
	return b.String()
}

func (IntegerLiteral) isType()        {}
func (FloatLiteral) isType()          {}
func (BoolLiteral) isType()           {}
func (NullLiteral) isType()           {}
func (AsciiCharLiteral) isType()      {}
func (IntegerLiteralInRange) isType() {}
func (Boolean) isType()               {}
func (BitInteger) isType()            {}
func (CInteger) isType()              {}
func (SizeInteger) isType()           {}
func (Floating) isType()              {}
func (Ptr) isType()                   {}
func (Deref) isType()                 {}
func (Void) isType()                  {}
func (Never) isType()                 {}
func (FixedArray) isType()            {}
func (UserDefined) isType()           {}
func (Polymorph) isType()             {}
func (Label) isType()                 {}
func (Alias) isType()                 {}

// ContainsPolymorph reports whether any layer of t is a polymorph.
func ContainsPolymorph(t Type) bool {
	switch t := t.(type) {
	case Polymorph:
		return true
	case Ptr:
		return ContainsPolymorph(t.Inner)
	case Deref:
		return ContainsPolymorph(t.Inner)
	case FixedArray:
		return ContainsPolymorph(t.Elem)
	case UserDefined:
		for _, a := range t.Args {
			if ContainsPolymorph(a) {
				return true
			}
		}
	case Alias:
		for _, a := range t.Args {
			if ContainsPolymorph(a) {
				return true
			}
		}
		return ContainsPolymorph(t.Underlying)
	}
	return false
}
