package ast

import "github.com/adeptlang/adept/internal/diag"

// Param is a function parameter.
type Param struct {
	Name string
	Type Type
	Span diag.Span
}

// Given is a trait bound on a function: "using name: Trait<args>". Name
// may be empty for anonymous bounds.
type Given struct {
	Name  string
	Trait TypeNamed
	Span  diag.Span
}

// Func is a function declaration. Foreign functions have no body and
// lower to extern references.
type Func struct {
	Name    string
	Params  []Param
	Return  Type
	Givens  []Given
	Body    []Stmt
	Privacy Privacy
	Foreign bool
	Exposed bool
	Span    diag.Span
}

// Field is a struct field.
type Field struct {
	Name string
	Type Type
	Span diag.Span
}

// Struct is a record declaration; TypeParams are "$T" names.
type Struct struct {
	Name       string
	TypeParams []string
	Fields     []Field
	Packed     bool
	Privacy    Privacy
	Span       diag.Span
}

// Enum is a C-like enumeration over an integer backing type.
type Enum struct {
	Name    string
	Members []string
	Backing Type // nil defaults to int
	Privacy Privacy
	Span    diag.Span
}

// Global is a module-level variable.
type Global struct {
	Name        string
	Type        Type
	ThreadLocal bool
	Privacy     Privacy
	Span        diag.Span
}

// TypeAlias is a transparent alias; resolution unaliases the outermost
// layer on demand.
type TypeAlias struct {
	Name       string
	TypeParams []string
	Target     Type
	Privacy    Privacy
	Span       diag.Span
}

// ExprAlias names a constant expression.
type ExprAlias struct {
	Name    string
	Value   Expr
	Privacy Privacy
	Span    diag.Span
}

// TraitFunc is a method signature required by a trait.
type TraitFunc struct {
	Name   string
	Params []Param
	Return Type
	Span   diag.Span
}

// Trait declares a constraint with required methods.
type Trait struct {
	Name       string
	TypeParams []string
	Funcs      []TraitFunc
	Privacy    Privacy
	Span       diag.Span
}

// Impl provides a trait for concrete type arguments, e.g.
// "impl Printable<i32>". Name is optional and used by "using" clauses.
type Impl struct {
	Name    string
	Trait   TypeNamed
	Funcs   []Func
	Privacy Privacy
	Span    diag.Span
}
