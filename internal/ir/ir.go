package ir

import (
	"fmt"

	"github.com/adeptlang/adept/internal/arena"
)

// Ref addresses an instruction value inside a function.
type Ref struct {
	Block uint32
	Index uint32
}

// Op enumerates the three-address instruction set.
type Op int

const (
	OpLiteral Op = iota
	OpParam
	OpAlloca
	OpLoad
	OpStore
	OpGlobalAddr

	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	OpFAdd
	OpFSub
	OpFMul
	OpFDiv

	OpICmp
	OpFCmp

	OpBitcast
	OpZExt
	OpSExt
	OpTrunc
	OpFExt
	OpFTrunc

	OpCall
	OpSyscall
	OpPhi

	OpBr
	OpCondBr
	OpRet
	OpUnreachable
)

// CmpPred is a comparison predicate; signedness is explicit because the
// lowered integer types alone decide it.
type CmpPred int

const (
	CmpEq CmpPred = iota
	CmpNe
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// LitKind tags the payload of a literal.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitCString
	LitNullPtr
)

// Literal is a constant operand.
type Literal struct {
	Kind LitKind
	Int  int64
	F    float64
	Bool bool
	Str  string
}

// PhiIn is one incoming phi edge.
type PhiIn struct {
	Block uint32
	Value Ref
}

// SyscallKind enumerates the build-time syscalls the interpreter
// dispatches; see the interp package for the handler table.
type SyscallKind int

const (
	SysPrintln SyscallKind = iota
	SysBuildAddProject
	SysBuildLinkFilename
	SysBuildLinkFrameworkName
	SysBuildSetAdeptVersion
	SysExperimental
	SysImportNamespace
	SysDontAssumeIntAtLeast32Bits
	SysUseDependency
)

// Instr is one lowered instruction. Field use depends on Op.
type Instr struct {
	Op   Op
	Type Type // result type; Void for non-values

	Lit        *Literal
	ParamIndex int

	A, B     Ref
	HasA     bool
	HasB     bool
	Signed   bool // arithmetic/compare signedness
	Cmp      CmpPred
	Callee   FuncRef
	Args     []Ref
	Incoming []PhiIn
	Global   GlobalRef

	To    uint32 // OpBr target
	True  uint32 // OpCondBr
	False uint32

	Syscall SyscallKind
}

// Block is a basic block: a run of instructions ending in a terminator
// (OpBr, OpCondBr, OpRet, OpUnreachable).
type Block struct {
	Instrs []Instr
}

// Ownership classifies a function for the backend and linker.
type Ownership int

const (
	// OwnedExposed functions have bodies and external linkage.
	OwnedExposed Ownership = iota

	// OwnedHidden functions have bodies and internal linkage.
	OwnedHidden

	// Reference functions are extern declarations with no basic blocks.
	Reference

	// InterpreterEntryPoint is the synthesized build-script entry.
	InterpreterEntryPoint
)

// Func is a lowered function.
type Func struct {
	Mangled   string
	Params    []Type
	Return    Type
	Ownership Ownership
	Blocks    []Block
}

// HasBody reports whether the function carries basic blocks.
func (f *Func) HasBody() bool {
	return f.Ownership != Reference
}

// Global is a module-level variable.
type Global struct {
	Mangled     string
	Type        Type
	ThreadLocal bool
}

// FuncRef / GlobalRef / StructIdx are module-arena handles.
type FuncRef = arena.Idx[Func]
type GlobalRef = arena.Idx[Global]
type StructIdx = arena.Idx[Struct]

// Module owns every lowered artifact for one compilation.
type Module struct {
	Target  Target
	Funcs   arena.Arena[Func]
	Structs arena.Arena[Struct]
	Globals arena.Arena[Global]
}

// NewModule creates an empty module for the target.
func NewModule(target Target) *Module {
	return &Module{Target: target}
}

func (r Ref) String() string {
	return fmt.Sprintf("%%%d.%d", r.Block, r.Index)
}
