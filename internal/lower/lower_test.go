package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/ir"
	"github.com/adeptlang/adept/internal/poly"
	"github.com/adeptlang/adept/internal/resolve"
	"github.com/adeptlang/adept/internal/types"
)

func linux() ir.Target { return ir.Target{Arch: ir.ArchX8664, OS: ir.OSLinux} }
func windows() ir.Target { return ir.Target{Arch: ir.ArchX8664, OS: ir.OSWindows} }

func TestLowerScalarTypes(t *testing.T) {
	tests := []struct {
		in   types.Type
		want ir.Type
	}{
		{types.Boolean{}, ir.Bool{}},
		{types.BitInteger{Bits: 16, Signed: false}, ir.I{Bits: 16, Signed: false}},
		{types.SizeInteger{Signed: true}, ir.I{Bits: 64, Signed: true}},
		{types.Floating{Bits: 32}, ir.F{Bits: 32}},
		{types.Ptr{Inner: types.Void{}}, ir.Ptr{Inner: ir.Void{}}},
		{types.Void{}, ir.Void{}},
		{types.Never{}, ir.Void{}},
		{types.FixedArray{Count: 3, Elem: types.BitInteger{Bits: 8, Signed: true}},
			ir.FixedArray{Count: 3, Elem: ir.I{Bits: 8, Signed: true}}},
	}
	for _, tc := range tests {
		got, rep := LowerType(tc.in, linux(), nil)
		require.Nil(t, rep, "lowering %s", tc.in)
		assert.True(t, ir.TypeEqual(tc.want, got), "%s lowers to %s, got %s", tc.in, tc.want, got)
	}
}

func TestLowerCIntegerPerTarget(t *testing.T) {
	long := types.CInteger{Kind: types.CLong, Sign: types.SignSigned}

	onLinux, rep := LowerType(long, linux(), nil)
	require.Nil(t, rep)
	assert.True(t, ir.TypeEqual(ir.I{Bits: 64, Signed: true}, onLinux))

	onWindows, rep := LowerType(long, windows(), nil)
	require.Nil(t, rep)
	assert.True(t, ir.TypeEqual(ir.I{Bits: 32, Signed: true}, onWindows),
		"long is 32 bits on windows")
}

func TestLowerCharSignDefaultsPerTarget(t *testing.T) {
	ch := types.CInteger{Kind: types.CChar, Sign: types.SignUnspecified}

	x86, rep := LowerType(ch, linux(), nil)
	require.Nil(t, rep)
	assert.True(t, ir.TypeEqual(ir.I{Bits: 8, Signed: true}, x86))

	arm, rep := LowerType(ch, ir.Target{Arch: ir.ArchAarch64, OS: ir.OSLinux}, nil)
	require.Nil(t, rep)
	assert.True(t, ir.TypeEqual(ir.I{Bits: 8, Signed: false}, arm),
		"plain char is unsigned on aarch64 linux")
}

func TestLowerPolymorphFails(t *testing.T) {
	_, rep := LowerType(types.Polymorph{Name: "T"}, linux(), nil)
	require.NotNil(t, rep)
	assert.Equal(t, "LOW001", rep.Code)
}

func TestSpecializedMangled(t *testing.T) {
	head := &resolve.FuncHead{Name: "id", Mangled: "adept.id", Polymorphs: []string{"T"}}
	cat := poly.NewCatalog()
	require.NoError(t, cat.Insert("T", poly.TypeValue{Type: types.BitInteger{Bits: 16, Signed: false}}))

	assert.Equal(t, "adept.id<u16>", SpecializedMangled(head, cat.Bake()))

	foreign := &resolve.FuncHead{Name: "puts", Mangled: "puts", Foreign: true}
	assert.Equal(t, "puts", SpecializedMangled(foreign, poly.EmptyRecipe()))
}

func TestBuildScriptSynthesis(t *testing.T) {
	mb := NewModuleBuilder(linux(), nil)
	ws := testWorkspace(t)

	ref, reports := BuildScript(mb, ws)
	require.Empty(t, reports)

	f := mb.Mod.Funcs.Get(ref)
	assert.Equal(t, ir.InterpreterEntryPoint, f.Ownership)
	require.Len(t, f.Blocks, 1)

	var syscalls []ir.SyscallKind
	for _, in := range f.Blocks[0].Instrs {
		if in.Op == ir.OpSyscall {
			syscalls = append(syscalls, in.Syscall)
		}
	}
	assert.Equal(t, []ir.SyscallKind{ir.SysBuildAddProject, ir.SysBuildLinkFilename}, syscalls)
	assert.Equal(t, ir.OpRet, f.Blocks[0].Instrs[len(f.Blocks[0].Instrs)-1].Op)
}

func TestBuildScriptRejectsUnknownCall(t *testing.T) {
	mb := NewModuleBuilder(linux(), nil)
	ws := pragmaWorkspace(t, ast.Pragma{Expr: ast.Call{Name: "detonate"}})

	_, reports := BuildScript(mb, ws)
	require.Len(t, reports, 1)
	assert.Equal(t, "INT005", reports[0].Code)
}
