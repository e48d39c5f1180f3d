package abi

import (
	"github.com/adeptlang/adept/internal/ir"
)

// Class is one eightbyte's classification in the System V x86-64 scheme.
type Class int

const (
	ClassNoClass Class = iota
	ClassInteger
	ClassSSE
	ClassSSEUp
	ClassX87
	ClassX87Up
	ClassComplexX87
	ClassMemory
)

// merge combines two classes covering the same eightbyte, by the
// priority rules of the psABI.
func merge(a, b Class) Class {
	switch {
	case a == b:
		return a
	case a == ClassNoClass:
		return b
	case b == ClassNoClass:
		return a
	case a == ClassMemory || b == ClassMemory:
		return ClassMemory
	case a == ClassInteger || b == ClassInteger:
		return ClassInteger
	case a == ClassX87 || b == ClassX87 || a == ClassX87Up || b == ClassX87Up ||
		a == ClassComplexX87 || b == ClassComplexX87:
		return ClassMemory
	default:
		return ClassSSE
	}
}

// classified is an aggregate's per-eightbyte classes.
type classified struct {
	classes []Class
	size    uint64
}

// classify walks a type's layout, assigning a class to every eightbyte.
// Aggregates larger than two eightbytes go straight to memory.
func classify(mod *ir.Module, t ir.Type) classified {
	layout := LayoutOf(mod, t)
	n := (layout.Size + 7) / 8
	c := classified{size: layout.Size}
	if layout.Size == 0 {
		return c
	}
	if layout.Size > 16 {
		c.classes = []Class{ClassMemory}
		return c
	}
	c.classes = make([]Class, n)
	classifyAt(mod, t, 0, c.classes)

	// Post-processing: any memory eightbyte poisons the whole value;
	// SSEUp must follow SSE.
	for i, cl := range c.classes {
		if cl == ClassMemory {
			c.classes = []Class{ClassMemory}
			return c
		}
		if cl == ClassSSEUp && (i == 0 || c.classes[i-1] != ClassSSE) {
			c.classes[i] = ClassSSE
		}
	}
	return c
}

func classifyAt(mod *ir.Module, t ir.Type, offset uint64, classes []Class) {
	set := func(off uint64, cl Class) {
		idx := off / 8
		if int(idx) < len(classes) {
			classes[idx] = merge(classes[idx], cl)
		}
	}
	switch t := t.(type) {
	case ir.I, ir.Bool, ir.Ptr:
		set(offset, ClassInteger)
		layout := LayoutOf(mod, t)
		if offset/8 != (offset+layout.Size-1)/8 {
			// Straddles an eightbyte boundary.
			set(offset+layout.Size-1, ClassInteger)
		}
	case ir.F:
		set(offset, ClassSSE)
	case ir.FixedArray:
		el := LayoutOf(mod, t.Elem)
		for i := uint64(0); i < t.Count; i++ {
			classifyAt(mod, t.Elem, offset+i*el.Size, classes)
		}
	case ir.StructRef:
		s := mod.Structs.At(ir.StructIdx(t.Index))
		rl := RecordLayoutOf(mod, s)
		for i, f := range s.Fields {
			classifyAt(mod, f.Type, offset+rl.Offsets[i], classes)
		}
	}
}

// isHomogeneousFloatAggregate reports whether the type flattens to 1–4
// floats of one width; such aggregates receive register-coalesced
// treatment on aarch64.
func isHomogeneousFloatAggregate(mod *ir.Module, t ir.Type) (ir.F, int, bool) {
	var base ir.F
	count := 0
	ok := true
	var walk func(ir.Type)
	walk = func(t ir.Type) {
		if !ok {
			return
		}
		switch t := t.(type) {
		case ir.F:
			if count == 0 {
				base = t
			} else if base.Bits != t.Bits {
				ok = false
				return
			}
			count++
		case ir.FixedArray:
			for i := uint64(0); i < t.Count; i++ {
				walk(t.Elem)
			}
		case ir.StructRef:
			s := mod.Structs.At(ir.StructIdx(t.Index))
			for _, f := range s.Fields {
				walk(f.Type)
			}
		default:
			ok = false
		}
	}
	walk(t)
	if !ok || count == 0 || count > 4 {
		return ir.F{}, 0, false
	}
	return base, count, true
}
