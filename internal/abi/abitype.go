package abi

import (
	"github.com/adeptlang/adept/internal/ir"
)

// Kind enumerates the ABI treatments a parameter or return value can
// receive.
type Kind int

const (
	// Direct passes in registers, optionally coerced to another type.
	Direct Kind = iota

	// Extend is Direct plus mandatory sign- or zero-extension to a full
	// register.
	Extend

	// Indirect passes by hidden pointer; ByVal controls the callee-side
	// copy, SRet marks a hidden return slot.
	Indirect

	// Ignore elides zero-sized values entirely.
	Ignore

	// Expand flattens an aggregate into its scalar leaves.
	Expand

	// CoerceAndExpand coerces to a scalar sequence, some of it padding.
	CoerceAndExpand

	// InAlloca packs every in-memory argument into one combined struct;
	// only targets that require it produce this kind.
	InAlloca
)

// ABIType is one value's classification.
type ABIType struct {
	Kind Kind

	// CoerceTo is the register-visible type sequence for Direct and
	// CoerceAndExpand.
	CoerceTo []ir.Type

	// SignExtend selects sign over zero extension for Extend.
	SignExtend bool

	ByVal bool
	SRet  bool
}

// ClassifyReturn computes the treatment of a function's return type.
func ClassifyReturn(mod *ir.Module, t ir.Type) ABIType {
	if _, ok := t.(ir.Void); ok {
		return ABIType{Kind: Ignore}
	}
	a := classifyValue(mod, t)
	if a.Kind == Indirect {
		a.SRet = true
		a.ByVal = false
	}
	return a
}

// ClassifyParam computes the treatment of one parameter.
func ClassifyParam(mod *ir.Module, t ir.Type) ABIType {
	a := classifyValue(mod, t)
	if a.Kind == Indirect {
		a.ByVal = true
	}
	return a
}

func classifyValue(mod *ir.Module, t ir.Type) ABIType {
	switch t := t.(type) {
	case ir.I:
		// Integers narrower than int promote to a full register with
		// their own signedness.
		if t.Bits < 32 {
			return ABIType{Kind: Extend, SignExtend: t.Signed}
		}
		return ABIType{Kind: Direct}
	case ir.Bool:
		return ABIType{Kind: Extend}
	case ir.F, ir.Ptr:
		return ABIType{Kind: Direct}
	case ir.Void:
		return ABIType{Kind: Ignore}
	}

	// Aggregates.
	layout := LayoutOf(mod, t)
	if layout.Size == 0 {
		return ABIType{Kind: Ignore}
	}

	if mod.Target.Arch == ir.ArchAarch64 {
		if base, count, ok := isHomogeneousFloatAggregate(mod, t); ok {
			coerce := make([]ir.Type, count)
			for i := range coerce {
				coerce[i] = base
			}
			return ABIType{Kind: Direct, CoerceTo: coerce}
		}
	}

	c := classify(mod, t)
	if len(c.classes) == 1 && c.classes[0] == ClassMemory {
		return ABIType{Kind: Indirect}
	}

	coerce := make([]ir.Type, 0, len(c.classes))
	for i, cl := range c.classes {
		width := eightbyteWidth(c.size, i)
		switch cl {
		case ClassInteger:
			coerce = append(coerce, ir.I{Bits: width * 8, Signed: false})
		case ClassSSE:
			if width <= 4 {
				coerce = append(coerce, ir.F{Bits: 32})
			} else {
				coerce = append(coerce, ir.F{Bits: 64})
			}
		case ClassSSEUp:
			// Extends the previous SSE eightbyte; nothing separate.
		default:
			return ABIType{Kind: Indirect}
		}
	}
	return ABIType{Kind: Direct, CoerceTo: coerce}
}

// eightbyteWidth returns the byte width the i-th eightbyte actually
// covers.
func eightbyteWidth(size uint64, i int) int {
	rem := size - uint64(i)*8
	if rem >= 8 {
		return 8
	}
	return int(rem)
}
