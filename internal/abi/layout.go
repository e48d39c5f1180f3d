// Package abi computes record layouts and classifies parameters and
// return values for C-compatible calls: the Itanium record builder feeds
// an eightbyte classifier in the System V x86-64 style, post-processed
// into ABI type kinds a backend can consume directly.
package abi

import (
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/ir"
)

// TypeLayout is a type's size and alignment in bytes.
type TypeLayout struct {
	Size  uint64
	Align uint64
}

// RecordLayout is a struct's full layout: per-field offsets plus the
// padded total.
type RecordLayout struct {
	TypeLayout
	Offsets []uint64
}

// LayoutOf computes the layout of any lowered type.
func LayoutOf(mod *ir.Module, t ir.Type) TypeLayout {
	switch t := t.(type) {
	case ir.I:
		b := uint64(t.Bits) / 8
		if b == 0 {
			b = 1
		}
		return TypeLayout{Size: b, Align: b}
	case ir.F:
		b := uint64(t.Bits) / 8
		return TypeLayout{Size: b, Align: b}
	case ir.Bool:
		return TypeLayout{Size: 1, Align: 1}
	case ir.Ptr:
		b := uint64(mod.Target.PtrBits()) / 8
		return TypeLayout{Size: b, Align: b}
	case ir.Void:
		return TypeLayout{}
	case ir.FixedArray:
		el := LayoutOf(mod, t.Elem)
		return TypeLayout{Size: el.Size * t.Count, Align: el.Align}
	case ir.StructRef:
		return RecordLayoutOf(mod, mod.Structs.At(ir.StructIdx(t.Index))).TypeLayout
	}
	diag.ICE("abi: no layout for %T", t)
	return TypeLayout{}
}

// RecordLayoutOf runs the record builder: fields in declaration order,
// each aligned to its own alignment (1 for packed records), with tail
// padding to the record's alignment.
func RecordLayoutOf(mod *ir.Module, s *ir.Struct) RecordLayout {
	var out RecordLayout
	out.Align = 1
	for _, f := range s.Fields {
		fl := LayoutOf(mod, f.Type)
		align := fl.Align
		if s.Packed {
			align = 1
		}
		out.Size = alignTo(out.Size, align)
		out.Offsets = append(out.Offsets, out.Size)
		out.Size += fl.Size
		if align > out.Align {
			out.Align = align
		}
	}
	out.Size = alignTo(out.Size, out.Align)
	return out
}

func alignTo(off, align uint64) uint64 {
	if align == 0 {
		return off
	}
	return (off + align - 1) / align * align
}
