package interp

import (
	"fmt"
	"io"
	"math"

	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/ir"
)

// DefaultStepBudget bounds build-script execution.
const DefaultStepBudget = 1_000_000

// Interpreter is a register VM over lowered IR. Registers are instruction
// results; memory holds only scalars (structs and arrays raise a Todo
// diagnostic, matching the build-script language's current scope).
type Interpreter struct {
	Mod        *ir.Module
	StepBudget int
	Out        io.Writer

	Outcome *Outcome

	mem     *Memory
	strings map[string]uint64
	globals map[uint32]uint64
	steps   int
}

// New creates an interpreter for the module.
func New(mod *ir.Module, out io.Writer) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	return &Interpreter{
		Mod:        mod,
		StepBudget: DefaultStepBudget,
		Out:        out,
		Outcome:    NewOutcome(),
		mem:        NewMemory(),
		strings:    map[string]uint64{},
		globals:    map[uint32]uint64{},
	}
}

type frame struct {
	fn   *ir.Func
	regs map[ir.Ref]uint64
	set  map[ir.Ref]bool

	block     int
	prevBlock int
}

// RunEntry executes the interpreter entry point.
func (it *Interpreter) RunEntry() *diag.Report {
	var entry ir.FuncRef
	found := false
	it.Mod.Funcs.Each(func(ref ir.FuncRef, f *ir.Func) {
		if f.Ownership == ir.InterpreterEntryPoint {
			entry = ref
			found = true
		}
	})
	if !found {
		return nil // nothing to interpret
	}
	_, rep := it.Call(entry, nil)
	return rep
}

// Call runs one function with raw argument words.
func (it *Interpreter) Call(ref ir.FuncRef, args []uint64) (uint64, *diag.Report) {
	fn := it.Mod.Funcs.Get(ref)
	if !fn.HasBody() || len(fn.Blocks) == 0 {
		return 0, diag.New(diag.INT001, "interp", diag.None,
			"cannot interpret %q: no body", fn.Mangled)
	}
	fr := &frame{
		fn:   &fn,
		regs: map[ir.Ref]uint64{},
		set:  map[ir.Ref]bool{},
	}

	for {
		blk := fn.Blocks[fr.block]
		for idx := 0; idx < len(blk.Instrs); idx++ {
			it.steps++
			if it.steps > it.StepBudget {
				return 0, diag.New(diag.INT003, "interp", diag.None,
					"build script exceeded %d instructions", it.StepBudget)
			}
			in := &blk.Instrs[idx]
			ref := ir.Ref{Block: uint32(fr.block), Index: uint32(idx)}

			switch in.Op {
			case ir.OpBr:
				fr.prevBlock = fr.block
				fr.block = int(in.To)
			case ir.OpCondBr:
				c, rep := it.reg(fr, in.A, args)
				if rep != nil {
					return 0, rep
				}
				fr.prevBlock = fr.block
				if c != 0 {
					fr.block = int(in.True)
				} else {
					fr.block = int(in.False)
				}
			case ir.OpRet:
				if in.HasA {
					return it.reg(fr, in.A, args)
				}
				return 0, nil
			case ir.OpUnreachable:
				return 0, diag.New(diag.INT001, "interp", diag.None,
					"reached unreachable code")
			default:
				v, rep := it.eval(fr, ref, in, args)
				if rep != nil {
					return 0, rep
				}
				fr.regs[ref] = v
				fr.set[ref] = true
				continue
			}
			// A terminator transfers control; restart at the new block.
			idx = -1
			blk = fn.Blocks[fr.block]
		}
	}
}

func (it *Interpreter) reg(fr *frame, ref ir.Ref, args []uint64) (uint64, *diag.Report) {
	if !fr.set[ref] {
		return 0, diag.New(diag.INT004, "interp", diag.None,
			"read of uninitialized register %s", ref)
	}
	return fr.regs[ref], nil
}

func scalarSize(t ir.Type) (uint64, bool) {
	switch t := t.(type) {
	case ir.I:
		return uint64(t.Bits) / 8, true
	case ir.F:
		return uint64(t.Bits) / 8, true
	case ir.Bool:
		return 1, true
	case ir.Ptr:
		return 8, true
	}
	return 0, false
}

func (it *Interpreter) eval(fr *frame, ref ir.Ref, in *ir.Instr, args []uint64) (uint64, *diag.Report) {
	operand := func(r ir.Ref) (uint64, *diag.Report) { return it.reg(fr, r, args) }

	switch in.Op {
	case ir.OpLiteral:
		switch in.Lit.Kind {
		case ir.LitInt:
			return uint64(in.Lit.Int), nil
		case ir.LitFloat:
			return math.Float64bits(in.Lit.F), nil
		case ir.LitBool:
			if in.Lit.Bool {
				return 1, nil
			}
			return 0, nil
		case ir.LitCString:
			addr, ok := it.strings[in.Lit.Str]
			if !ok {
				addr = it.mem.InternCString(in.Lit.Str)
				it.strings[in.Lit.Str] = addr
			}
			return addr, nil
		case ir.LitNullPtr:
			return 0, nil
		}

	case ir.OpParam:
		if in.ParamIndex >= len(args) {
			return 0, diag.New(diag.INT004, "interp", diag.None,
				"missing argument %d", in.ParamIndex)
		}
		return args[in.ParamIndex], nil

	case ir.OpAlloca:
		inner := ir.Type(ir.Void{})
		if p, ok := in.Type.(ir.Ptr); ok {
			inner = p.Inner
		}
		size, ok := scalarSize(inner)
		if !ok {
			return 0, diag.New(diag.INT006, "interp", diag.None,
				"build-script memory supports scalars only, not %s", inner)
		}
		return it.allocStack(size)

	case ir.OpLoad:
		addr, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		size, ok := scalarSize(in.Type)
		if !ok {
			return 0, diag.New(diag.INT006, "interp", diag.None,
				"build-script memory supports scalars only, not %s", in.Type)
		}
		return it.mem.Read(addr, size)

	case ir.OpStore:
		addr, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		v, rep := operand(in.B)
		if rep != nil {
			return 0, rep
		}
		var size uint64 = 8
		if src := it.instrOf(fr, in.B); src != nil {
			if s, ok := scalarSize(src.Type); ok {
				size = s
			} else {
				return 0, diag.New(diag.INT006, "interp", diag.None,
					"build-script memory supports scalars only")
			}
		}
		return 0, it.mem.Write(addr, size, v)

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpSDiv, ir.OpUDiv, ir.OpSRem, ir.OpURem,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpLShr, ir.OpAShr:
		a, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		b, rep := operand(in.B)
		if rep != nil {
			return 0, rep
		}
		return it.arith(in.Op, a, b)

	case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv:
		a, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		b, rep := operand(in.B)
		if rep != nil {
			return 0, rep
		}
		x, y := math.Float64frombits(a), math.Float64frombits(b)
		switch in.Op {
		case ir.OpFAdd:
			return math.Float64bits(x + y), nil
		case ir.OpFSub:
			return math.Float64bits(x - y), nil
		case ir.OpFMul:
			return math.Float64bits(x * y), nil
		default:
			return math.Float64bits(x / y), nil
		}

	case ir.OpICmp:
		a, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		b, rep := operand(in.B)
		if rep != nil {
			return 0, rep
		}
		return cmpInt(in.Cmp, a, b, in.Signed), nil

	case ir.OpFCmp:
		a, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		b, rep := operand(in.B)
		if rep != nil {
			return 0, rep
		}
		return cmpFloat(in.Cmp, math.Float64frombits(a), math.Float64frombits(b)), nil

	case ir.OpBitcast:
		return operand(in.A)

	case ir.OpZExt, ir.OpTrunc:
		v, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		return maskTo(v, in.Type), nil

	case ir.OpSExt:
		v, rep := operand(in.A)
		if rep != nil {
			return 0, rep
		}
		// Loads and masks leave narrow values zero-extended, so widen from
		// the source width.
		if src := it.instrOf(fr, in.A); src != nil {
			if i, ok := src.Type.(ir.I); ok && i.Bits < 64 {
				shift := uint(64 - i.Bits)
				return uint64(int64(v<<shift) >> shift), nil
			}
		}
		return v, nil

	case ir.OpFExt, ir.OpFTrunc:
		return operand(in.A)

	case ir.OpPhi:
		for _, inc := range in.Incoming {
			if int(inc.Block) == fr.prevBlock {
				return operand(inc.Value)
			}
		}
		return 0, diag.New(diag.INT004, "interp", diag.None,
			"phi has no incoming edge for block %d", fr.prevBlock)

	case ir.OpCall:
		callArgs := make([]uint64, len(in.Args))
		for i, a := range in.Args {
			v, rep := operand(a)
			if rep != nil {
				return 0, rep
			}
			callArgs[i] = v
		}
		return it.Call(in.Callee, callArgs)

	case ir.OpSyscall:
		vals := make([]uint64, len(in.Args))
		for i, a := range in.Args {
			v, rep := operand(a)
			if rep != nil {
				return 0, rep
			}
			vals[i] = v
		}
		return 0, it.syscall(in.Syscall, vals)

	case ir.OpGlobalAddr:
		// Globals get a heap cell on first address-taken use.
		return it.globalAddr(in.Global)
	}
	return 0, diag.New(diag.INT005, "interp", diag.None,
		"cannot interpret op %d", in.Op)
}

func (it *Interpreter) allocStack(size uint64) (uint64, *diag.Report) {
	return it.mem.AllocStack(size)
}

func (it *Interpreter) globalAddr(ref ir.GlobalRef) (uint64, *diag.Report) {
	if addr, ok := it.globals[uint32(ref)]; ok {
		return addr, nil
	}
	g := it.Mod.Globals.Get(ref)
	size, ok := scalarSize(g.Type)
	if !ok {
		return 0, diag.New(diag.INT006, "interp", diag.None,
			"build-script memory supports scalar globals only")
	}
	addr := it.mem.AllocHeap(size)
	it.globals[uint32(ref)] = addr
	return addr, nil
}

func (it *Interpreter) instrOf(fr *frame, ref ir.Ref) *ir.Instr {
	if int(ref.Block) >= len(fr.fn.Blocks) {
		return nil
	}
	blk := fr.fn.Blocks[ref.Block]
	if int(ref.Index) >= len(blk.Instrs) {
		return nil
	}
	return &blk.Instrs[ref.Index]
}

func (it *Interpreter) arith(op ir.Op, a, b uint64) (uint64, *diag.Report) {
	switch op {
	case ir.OpAdd:
		return a + b, nil
	case ir.OpSub:
		return a - b, nil
	case ir.OpMul:
		return a * b, nil
	case ir.OpSDiv:
		if b == 0 {
			return 0, diag.New(diag.INT002, "interp", diag.None, "division by zero")
		}
		return uint64(int64(a) / int64(b)), nil
	case ir.OpUDiv:
		if b == 0 {
			return 0, diag.New(diag.INT002, "interp", diag.None, "division by zero")
		}
		return a / b, nil
	case ir.OpSRem:
		if b == 0 {
			return 0, diag.New(diag.INT002, "interp", diag.None, "division by zero")
		}
		return uint64(int64(a) % int64(b)), nil
	case ir.OpURem:
		if b == 0 {
			return 0, diag.New(diag.INT002, "interp", diag.None, "division by zero")
		}
		return a % b, nil
	case ir.OpAnd:
		return a & b, nil
	case ir.OpOr:
		return a | b, nil
	case ir.OpXor:
		return a ^ b, nil
	case ir.OpShl:
		return a << (b & 63), nil
	case ir.OpLShr:
		return a >> (b & 63), nil
	case ir.OpAShr:
		return uint64(int64(a) >> (b & 63)), nil
	}
	panic("unreachable")
}

func maskTo(v uint64, t ir.Type) uint64 {
	if i, ok := t.(ir.I); ok && i.Bits < 64 {
		return v & ((1 << i.Bits) - 1)
	}
	return v
}

func cmpInt(pred ir.CmpPred, a, b uint64, signed bool) uint64 {
	var r bool
	if signed {
		x, y := int64(a), int64(b)
		switch pred {
		case ir.CmpEq:
			r = x == y
		case ir.CmpNe:
			r = x != y
		case ir.CmpLT:
			r = x < y
		case ir.CmpLE:
			r = x <= y
		case ir.CmpGT:
			r = x > y
		case ir.CmpGE:
			r = x >= y
		}
	} else {
		switch pred {
		case ir.CmpEq:
			r = a == b
		case ir.CmpNe:
			r = a != b
		case ir.CmpLT:
			r = a < b
		case ir.CmpLE:
			r = a <= b
		case ir.CmpGT:
			r = a > b
		case ir.CmpGE:
			r = a >= b
		}
	}
	if r {
		return 1
	}
	return 0
}

func cmpFloat(pred ir.CmpPred, a, b float64) uint64 {
	var r bool
	switch pred {
	case ir.CmpEq:
		r = a == b
	case ir.CmpNe:
		r = a != b
	case ir.CmpLT:
		r = a < b
	case ir.CmpLE:
		r = a <= b
	case ir.CmpGT:
		r = a > b
	case ir.CmpGE:
		r = a >= b
	}
	if r {
		return 1
	}
	return 0
}

// syscall dispatches the fixed build-script syscall table.
func (it *Interpreter) syscall(kind ir.SyscallKind, args []uint64) *diag.Report {
	str := func(i int) (string, *diag.Report) {
		if i >= len(args) {
			return "", diag.New(diag.INT005, "interp", diag.None, "syscall argument %d missing", i)
		}
		return it.mem.CString(args[i])
	}

	switch kind {
	case ir.SysPrintln:
		s, rep := str(0)
		if rep != nil {
			return rep
		}
		fmt.Fprintln(it.Out, s)

	case ir.SysBuildAddProject:
		name, rep := str(0)
		if rep != nil {
			return rep
		}
		if len(args) < 2 {
			return diag.New(diag.INT005, "interp", diag.None, "project requires a kind")
		}
		it.Outcome.Projects = append(it.Outcome.Projects, Project{
			Name: name,
			Kind: ProjectKind(int64(args[1])),
		})

	case ir.SysBuildLinkFilename:
		s, rep := str(0)
		if rep != nil {
			return rep
		}
		it.Outcome.LinkFilenames = append(it.Outcome.LinkFilenames, s)

	case ir.SysBuildLinkFrameworkName:
		s, rep := str(0)
		if rep != nil {
			return rep
		}
		it.Outcome.LinkFrameworks = append(it.Outcome.LinkFrameworks, s)

	case ir.SysBuildSetAdeptVersion:
		s, rep := str(0)
		if rep != nil {
			return rep
		}
		it.Outcome.AdeptVersion = s

	case ir.SysExperimental:
		s, rep := str(0)
		if rep != nil {
			return rep
		}
		it.Outcome.Experiments = append(it.Outcome.Experiments, s)

	case ir.SysImportNamespace:
		s, rep := str(0)
		if rep != nil {
			return rep
		}
		it.Outcome.ImportedNamespaces = append(it.Outcome.ImportedNamespaces, s)

	case ir.SysDontAssumeIntAtLeast32Bits:
		it.Outcome.AssumeIntAtLeast32Bits = false

	case ir.SysUseDependency:
		ns, rep := str(0)
		if rep != nil {
			return rep
		}
		dep, rep := str(1)
		if rep != nil {
			return rep
		}
		it.Outcome.UsedDependencies[ns] = append(it.Outcome.UsedDependencies[ns], dep)

	default:
		return diag.New(diag.INT005, "interp", diag.None, "unknown syscall %d", kind)
	}
	return nil
}
