// Package lower translates resolved functions into the backend IR:
// types lose their literal and polymorph kinds, C integers take their
// target widths, and conformance plans become concrete instructions.
package lower

import (
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/ir"
	"github.com/adeptlang/adept/internal/types"
)

// StructLowerer resolves a user-defined struct reference into an IR
// struct, requesting the struct body as a sub-computation when needed.
type StructLowerer interface {
	LowerStruct(decl types.DeclRef, args []types.Type) (ir.StructRef, error)
}

// LowerType maps a resolved type onto its IR shape for the target.
func LowerType(t types.Type, target ir.Target, structs StructLowerer) (ir.Type, *diag.Report) {
	t = types.Unalias(t).Type
	switch t := t.(type) {
	case types.Boolean:
		return ir.Bool{}, nil
	case types.BitInteger:
		return ir.I{Bits: t.Bits, Signed: t.Signed}, nil
	case types.CInteger:
		kind := cWidthKind(t.Kind)
		signed := target.DefaultSigned(kind)
		switch t.Sign {
		case types.SignSigned:
			signed = true
		case types.SignUnsigned:
			signed = false
		}
		return ir.I{Bits: target.CIntBits(kind), Signed: signed}, nil
	case types.SizeInteger:
		return ir.I{Bits: target.PtrBits(), Signed: t.Signed}, nil
	case types.Floating:
		return ir.F{Bits: t.Bits}, nil
	case types.Ptr:
		inner, rep := LowerType(t.Inner, target, structs)
		if rep != nil {
			return nil, rep
		}
		return ir.Ptr{Inner: inner}, nil
	case types.Deref:
		// An l-value lowers to the address of its pointee.
		inner, rep := LowerType(t.Inner, target, structs)
		if rep != nil {
			return nil, rep
		}
		return ir.Ptr{Inner: inner}, nil
	case types.Void, types.Never:
		return ir.Void{}, nil
	case types.FixedArray:
		elem, rep := LowerType(t.Elem, target, structs)
		if rep != nil {
			return nil, rep
		}
		return ir.FixedArray{Count: t.Count, Elem: elem}, nil
	case types.UserDefined:
		if structs == nil {
			return nil, diag.New(diag.LOW001, "lower", diag.None,
				"no struct context to lower %s", t)
		}
		ref, err := structs.LowerStruct(t.Decl, t.Args)
		if err != nil {
			return nil, diag.New(diag.LOW001, "lower", diag.None,
				"cannot lower %s: %v", t, err)
		}
		return ref, nil
	case types.Polymorph:
		return nil, diag.New(diag.LOW001, "lower", diag.None,
			"polymorph $%s survived to lowering", t.Name)
	}
	return nil, diag.New(diag.LOW001, "lower", diag.None,
		"cannot lower unspecialized value of type %s", t)
}

func cWidthKind(k types.CKind) ir.CKindWidth {
	switch k {
	case types.CChar:
		return ir.CWidthChar
	case types.CShort:
		return ir.CWidthShort
	case types.CInt:
		return ir.CWidthInt
	case types.CLong:
		return ir.CWidthLong
	case types.CLongLong:
		return ir.CWidthLongLong
	}
	panic("unreachable")
}
