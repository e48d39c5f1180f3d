package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/ir"
)

func linuxMod() *ir.Module {
	return ir.NewModule(ir.Target{Arch: ir.ArchX8664, OS: ir.OSLinux})
}

func defStruct(mod *ir.Module, s ir.Struct) ir.StructRef {
	idx := mod.Structs.Alloc(s)
	return ir.StructRef{Index: uint32(idx)}
}

func TestRecordLayoutAlignmentAndTailPadding(t *testing.T) {
	mod := linuxMod()
	s := ir.Struct{Name: "mixed", Fields: []ir.Field{
		{Name: "a", Type: ir.I{Bits: 8}},
		{Name: "b", Type: ir.I{Bits: 32}},
		{Name: "c", Type: ir.I{Bits: 8}},
	}}
	rl := RecordLayoutOf(mod, &s)

	assert.Equal(t, []uint64{0, 4, 8}, rl.Offsets)
	assert.Equal(t, uint64(12), rl.Size, "tail padding to 4-byte alignment")
	assert.Equal(t, uint64(4), rl.Align)
}

func TestRecordLayoutPacked(t *testing.T) {
	mod := linuxMod()
	s := ir.Struct{Name: "packed", Packed: true, Fields: []ir.Field{
		{Name: "a", Type: ir.I{Bits: 8}},
		{Name: "b", Type: ir.I{Bits: 32}},
	}}
	rl := RecordLayoutOf(mod, &s)
	assert.Equal(t, []uint64{0, 1}, rl.Offsets)
	assert.Equal(t, uint64(5), rl.Size)
}

func TestClassifySmallIntExtends(t *testing.T) {
	mod := linuxMod()
	a := ClassifyParam(mod, ir.I{Bits: 8, Signed: true})
	assert.Equal(t, Extend, a.Kind)
	assert.True(t, a.SignExtend)

	a = ClassifyParam(mod, ir.I{Bits: 16, Signed: false})
	assert.Equal(t, Extend, a.Kind)
	assert.False(t, a.SignExtend)

	a = ClassifyParam(mod, ir.I{Bits: 64, Signed: true})
	assert.Equal(t, Direct, a.Kind)
}

func TestClassifySmallStructCoerces(t *testing.T) {
	mod := linuxMod()
	ref := defStruct(mod, ir.Struct{Name: "pair", Fields: []ir.Field{
		{Name: "x", Type: ir.I{Bits: 64}},
		{Name: "y", Type: ir.I{Bits: 64}},
	}})
	a := ClassifyParam(mod, ref)
	require.Equal(t, Direct, a.Kind)
	require.Len(t, a.CoerceTo, 2, "two eightbytes, coerced to (i64, i64)")
	assert.True(t, ir.TypeEqual(ir.I{Bits: 64}, a.CoerceTo[0]))
	assert.True(t, ir.TypeEqual(ir.I{Bits: 64}, a.CoerceTo[1]))
}

func TestClassifyFloatPairUsesSSE(t *testing.T) {
	mod := linuxMod()
	ref := defStruct(mod, ir.Struct{Name: "vec2", Fields: []ir.Field{
		{Name: "x", Type: ir.F{Bits: 64}},
		{Name: "y", Type: ir.F{Bits: 64}},
	}})
	a := ClassifyParam(mod, ref)
	require.Equal(t, Direct, a.Kind)
	require.Len(t, a.CoerceTo, 2)
	assert.True(t, ir.TypeEqual(ir.F{Bits: 64}, a.CoerceTo[0]))
}

func TestClassifyLargeStructIndirect(t *testing.T) {
	mod := linuxMod()
	ref := defStruct(mod, ir.Struct{Name: "big", Fields: []ir.Field{
		{Name: "a", Type: ir.I{Bits: 64}},
		{Name: "b", Type: ir.I{Bits: 64}},
		{Name: "c", Type: ir.I{Bits: 64}},
	}})
	a := ClassifyParam(mod, ref)
	assert.Equal(t, Indirect, a.Kind)
	assert.True(t, a.ByVal)

	r := ClassifyReturn(mod, ref)
	assert.Equal(t, Indirect, r.Kind)
	assert.True(t, r.SRet)
	assert.False(t, r.ByVal)
}

func TestClassifyEmptyStructIgnored(t *testing.T) {
	mod := linuxMod()
	ref := defStruct(mod, ir.Struct{Name: "unit"})
	a := ClassifyParam(mod, ref)
	assert.Equal(t, Ignore, a.Kind)
}

func TestHomogeneousFloatAggregateOnAarch64(t *testing.T) {
	mod := ir.NewModule(ir.Target{Arch: ir.ArchAarch64, OS: ir.OSLinux})
	ref := defStruct(mod, ir.Struct{Name: "vec3", Fields: []ir.Field{
		{Name: "x", Type: ir.F{Bits: 32}},
		{Name: "y", Type: ir.F{Bits: 32}},
		{Name: "z", Type: ir.F{Bits: 32}},
	}})
	a := ClassifyParam(mod, ref)
	require.Equal(t, Direct, a.Kind)
	assert.Len(t, a.CoerceTo, 3, "HFA coalesces into three float registers")
}

func TestParamsMappingSlots(t *testing.T) {
	mod := linuxMod()
	big := defStruct(mod, ir.Struct{Name: "big", Fields: []ir.Field{
		{Name: "a", Type: ir.I{Bits: 64}},
		{Name: "b", Type: ir.I{Bits: 64}},
		{Name: "c", Type: ir.I{Bits: 64}},
	}})
	pair := defStruct(mod, ir.Struct{Name: "pair", Fields: []ir.Field{
		{Name: "x", Type: ir.I{Bits: 64}},
		{Name: "y", Type: ir.I{Bits: 64}},
	}})

	fa := ClassifyFunc(mod,
		[]ir.Type{ir.I{Bits: 32, Signed: true}, pair, ir.Ptr{Inner: ir.I{Bits: 8}}},
		big)

	require.True(t, fa.Return.SRet)
	assert.Equal(t, 0, fa.Mapping.SRetSlot, "sret occupies the first slot")
	require.Len(t, fa.Mapping.Params, 3)
	assert.Equal(t, ParamRange{Start: 1, Count: 1}, fa.Mapping.Params[0])
	assert.Equal(t, ParamRange{Start: 2, Count: 2}, fa.Mapping.Params[1], "pair flattens to two slots")
	assert.Equal(t, ParamRange{Start: 4, Count: 1}, fa.Mapping.Params[2])
	assert.Equal(t, 5, fa.Mapping.TotalSlots)
	assert.Equal(t, -1, fa.Mapping.InAllocaSlot)
}

func TestWindowsLongIs32Bits(t *testing.T) {
	win := ir.Target{Arch: ir.ArchX8664, OS: ir.OSWindows}
	linux := ir.Target{Arch: ir.ArchX8664, OS: ir.OSLinux}
	assert.Equal(t, 32, win.CIntBits(ir.CWidthLong))
	assert.Equal(t, 64, linux.CIntBits(ir.CWidthLong))
	assert.Equal(t, 64, win.CIntBits(ir.CWidthLongLong))
}
