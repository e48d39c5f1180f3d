package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/ir"
)

func entryModule(blocks []ir.Block) *ir.Module {
	mod := ir.NewModule(ir.Target{Arch: ir.ArchX8664, OS: ir.OSLinux})
	mod.Funcs.Alloc(ir.Func{
		Mangled:   "adept.build",
		Return:    ir.Void{},
		Ownership: ir.InterpreterEntryPoint,
		Blocks:    blocks,
	})
	return mod
}

func lit(s string) ir.Instr {
	return ir.Instr{Op: ir.OpLiteral, Type: ir.Ptr{Inner: ir.I{Bits: 8}},
		Lit: &ir.Literal{Kind: ir.LitCString, Str: s}}
}

func intLit(v int64) ir.Instr {
	return ir.Instr{Op: ir.OpLiteral, Type: ir.I{Bits: 32, Signed: true},
		Lit: &ir.Literal{Kind: ir.LitInt, Int: v}}
}

func ref(i uint32) ir.Ref { return ir.Ref{Block: 0, Index: i} }

func TestBuildScriptAddsProject(t *testing.T) {
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		lit("app"),
		intLit(int64(ConsoleApp)),
		{Op: ir.OpSyscall, Type: ir.Void{}, Syscall: ir.SysBuildAddProject,
			Args: []ir.Ref{ref(0), ref(1)}},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	it := New(mod, nil)
	require.Nil(t, it.RunEntry())
	require.Len(t, it.Outcome.Projects, 1)
	assert.Equal(t, Project{Name: "app", Kind: ConsoleApp}, it.Outcome.Projects[0])
}

func TestBuildScriptSettings(t *testing.T) {
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		lit("3.0"),
		{Op: ir.OpSyscall, Type: ir.Void{}, Syscall: ir.SysBuildSetAdeptVersion, Args: []ir.Ref{ref(0)}},
		lit("m"),
		lit("math"),
		{Op: ir.OpSyscall, Type: ir.Void{}, Syscall: ir.SysUseDependency, Args: []ir.Ref{ref(2), ref(3)}},
		{Op: ir.OpSyscall, Type: ir.Void{}, Syscall: ir.SysDontAssumeIntAtLeast32Bits},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	it := New(mod, nil)
	require.Nil(t, it.RunEntry())
	assert.Equal(t, "3.0", it.Outcome.AdeptVersion)
	assert.Equal(t, []string{"math"}, it.Outcome.UsedDependencies["m"])
	assert.False(t, it.Outcome.AssumeIntAtLeast32Bits)
}

func TestPrintln(t *testing.T) {
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		lit("hello"),
		{Op: ir.OpSyscall, Type: ir.Void{}, Syscall: ir.SysPrintln, Args: []ir.Ref{ref(0)}},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	var out bytes.Buffer
	it := New(mod, &out)
	require.Nil(t, it.RunEntry())
	assert.Equal(t, "hello\n", out.String())
}

func TestDivisionByZero(t *testing.T) {
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		intLit(1),
		intLit(0),
		{Op: ir.OpSDiv, Type: ir.I{Bits: 32, Signed: true}, A: ref(0), HasA: true, B: ref(1), HasB: true},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	it := New(mod, nil)
	rep := it.RunEntry()
	require.NotNil(t, rep)
	assert.Equal(t, diag.INT002, rep.Code)
}

func TestStepBudget(t *testing.T) {
	// Block 0 jumps to itself forever.
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		{Op: ir.OpBr, Type: ir.Void{}, To: 0},
	}}})

	it := New(mod, nil)
	it.StepBudget = 1000
	rep := it.RunEntry()
	require.NotNil(t, rep)
	assert.Equal(t, diag.INT003, rep.Code)
}

func TestUninitializedRegister(t *testing.T) {
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		{Op: ir.OpAdd, Type: ir.I{Bits: 32, Signed: true},
			A: ir.Ref{Block: 0, Index: 55}, HasA: true,
			B: ir.Ref{Block: 0, Index: 56}, HasB: true},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	it := New(mod, nil)
	rep := it.RunEntry()
	require.NotNil(t, rep)
	assert.Equal(t, diag.INT004, rep.Code)
}

func TestReservedAddressFaults(t *testing.T) {
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		{Op: ir.OpLiteral, Type: ir.Ptr{Inner: ir.I{Bits: 32, Signed: true}},
			Lit: &ir.Literal{Kind: ir.LitNullPtr}},
		{Op: ir.OpLoad, Type: ir.I{Bits: 32, Signed: true}, A: ref(0), HasA: true},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	it := New(mod, nil)
	rep := it.RunEntry()
	require.NotNil(t, rep)
	assert.Equal(t, diag.INT001, rep.Code)
	assert.True(t, strings.Contains(rep.Message, "reserved"))
}

func TestScalarRoundTripThroughMemory(t *testing.T) {
	// alloca i32; store 7; load it back; return-as-exit via syscall-free body.
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		{Op: ir.OpAlloca, Type: ir.Ptr{Inner: ir.I{Bits: 32, Signed: true}}},
		intLit(7),
		{Op: ir.OpStore, Type: ir.Void{}, A: ref(0), HasA: true, B: ref(1), HasB: true},
		{Op: ir.OpLoad, Type: ir.I{Bits: 32, Signed: true}, A: ref(0), HasA: true},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	it := New(mod, nil)
	require.Nil(t, it.RunEntry())
}

func TestStructMemoryUnsupported(t *testing.T) {
	mod := entryModule([]ir.Block{{Instrs: []ir.Instr{
		{Op: ir.OpAlloca, Type: ir.Ptr{Inner: ir.FixedArray{Count: 4, Elem: ir.I{Bits: 8}}}},
		{Op: ir.OpRet, Type: ir.Void{}},
	}}})

	it := New(mod, nil)
	rep := it.RunEntry()
	require.NotNil(t, rep)
	assert.Equal(t, diag.INT006, rep.Code)
}
