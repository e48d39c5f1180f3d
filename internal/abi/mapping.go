package abi

import (
	"github.com/adeptlang/adept/internal/ir"
)

// ParamRange is the backend-visible slot subrange of one logical
// parameter: zero slots (Ignore, InAlloca), one (Direct scalar,
// Indirect, Extend), or several (flattened Direct, Expand,
// CoerceAndExpand).
type ParamRange struct {
	Start int
	Count int
}

// ParamsMapping relates logical parameters to backend slots, including
// the hidden sret and inalloca slots.
type ParamsMapping struct {
	Params []ParamRange

	TotalSlots int

	// SRetSlot is the hidden return pointer slot, -1 when absent.
	SRetSlot int

	// InAllocaSlot is the combined in-memory argument slot, -1 when
	// absent.
	InAllocaSlot int
}

// FuncABI is the full classification of one function signature.
type FuncABI struct {
	Return  ABIType
	Params  []ABIType
	Mapping ParamsMapping
}

// ClassifyFunc classifies a signature and computes the slot mapping.
func ClassifyFunc(mod *ir.Module, params []ir.Type, ret ir.Type) FuncABI {
	out := FuncABI{
		Return: ClassifyReturn(mod, ret),
	}
	out.Mapping.SRetSlot = -1
	out.Mapping.InAllocaSlot = -1

	slot := 0
	if out.Return.SRet {
		out.Mapping.SRetSlot = slot
		slot++
	}

	inAlloca := false
	for _, p := range params {
		a := ClassifyParam(mod, p)
		out.Params = append(out.Params, a)
		n := slotCount(a)
		out.Mapping.Params = append(out.Mapping.Params, ParamRange{Start: slot, Count: n})
		slot += n
		if a.Kind == InAlloca {
			inAlloca = true
		}
	}
	if inAlloca {
		out.Mapping.InAllocaSlot = slot
		slot++
	}
	out.Mapping.TotalSlots = slot
	return out
}

func slotCount(a ABIType) int {
	switch a.Kind {
	case Ignore, InAlloca:
		return 0
	case Direct:
		if len(a.CoerceTo) > 1 {
			return len(a.CoerceTo)
		}
		return 1
	case Extend, Indirect:
		return 1
	case Expand, CoerceAndExpand:
		n := 0
		for _, t := range a.CoerceTo {
			if !isPadding(t) {
				n++
			}
		}
		if n == 0 {
			n = 1
		}
		return n
	}
	return 1
}

// isPadding recognizes the padding entries a CoerceAndExpand sequence
// may carry: zero-length arrays.
func isPadding(t ir.Type) bool {
	arr, ok := t.(ir.FixedArray)
	return ok && arr.Count == 0
}
