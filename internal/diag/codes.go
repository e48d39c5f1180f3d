// Package diag provides source positions, centralized error code
// definitions, and the structured report type used by every compiler phase.
// All error codes follow a consistent taxonomy so that tooling can key off
// the stable identifier rather than the rendered message.
package diag

// Error code constants organized by phase.
const (
	// ============================================================================
	// Workspace / filesystem errors (WSP###)
	// ============================================================================

	// WSP001 indicates a settings file could not be decoded
	WSP001 = "WSP001"

	// WSP002 indicates a dependency name that no known module provides
	WSP002 = "WSP002"

	// ============================================================================
	// Scope errors (SCP###)
	// ============================================================================

	// SCP001 indicates a name that is not defined in the searched scope
	SCP001 = "SCP001"

	// SCP002 indicates a name that matches declarations in more than one
	// imported module
	SCP002 = "SCP002"

	// SCP003 indicates two same-module declarations sharing a name and
	// arity within one category
	SCP003 = "SCP003"

	// ============================================================================
	// Type errors (TYP###)
	// ============================================================================

	// TYP001 indicates a type name that could not be resolved
	TYP001 = "TYP001"

	// TYP002 indicates an ambiguous type name
	TYP002 = "TYP002"

	// TYP003 indicates a recursive type alias
	TYP003 = "TYP003"

	// TYP004 indicates a set of values with no unifying type
	TYP004 = "TYP004"

	// TYP005 indicates a fixed array size that exceeds the supported range
	TYP005 = "TYP005"

	// TYP006 indicates a conformance that would lose precision or change
	// signedness without an explicit cast
	TYP006 = "TYP006"

	// TYP007 indicates trait constraints that the supplied types do not satisfy
	TYP007 = "TYP007"

	// ============================================================================
	// Polymorphism errors (POL###)
	// ============================================================================

	// POL001 indicates a polymorph bound to two different concrete values
	POL001 = "POL001"

	// POL002 indicates a structural length mismatch while matching generics
	POL002 = "POL002"

	// POL003 indicates a polymorph left unresolved after call dispatch
	POL003 = "POL003"

	// POL004 indicates zero or multiple impls satisfying a trait bound
	POL004 = "POL004"

	// ============================================================================
	// Resolution errors (RES###)
	// ============================================================================

	// RES001 indicates a call with no viable callee
	RES001 = "RES001"

	// RES002 indicates a call matching more than one callee equally well
	RES002 = "RES002"

	// RES003 indicates a value used where a different type is required
	RES003 = "RES003"

	// RES004 indicates a return value incompatible with the function return type
	RES004 = "RES004"

	// RES005 indicates a claimed return type that differs from the callee's
	RES005 = "RES005"

	// RES010 indicates dereferencing a non-pointer value
	RES010 = "RES010"

	// RES011 indicates taking the address of a non-addressable value
	RES011 = "RES011"

	// RES014 indicates a goto naming a label that never appears
	RES014 = "RES014"

	// RES020 indicates break or continue outside of a loop
	RES020 = "RES020"

	// RES021 indicates subscripting a string, which has no defined semantics
	RES021 = "RES021"

	// ============================================================================
	// Lowering errors (LOW###)
	// ============================================================================

	// LOW001 indicates an attempt to lower an unspecialized literal
	LOW001 = "LOW001"

	// LOW002 indicates an integer literal outside the destination range
	LOW002 = "LOW002"

	// ============================================================================
	// Interpreter errors (INT###)
	// ============================================================================

	// INT001 indicates an out-of-bounds or reserved-address memory access
	INT001 = "INT001"

	// INT002 indicates integer division by zero at build time
	INT002 = "INT002"

	// INT003 indicates the interpreter step budget was exhausted
	INT003 = "INT003"

	// INT004 indicates a read from a register that was never written
	INT004 = "INT004"

	// INT005 indicates an unknown build-time syscall
	INT005 = "INT005"

	// INT006 indicates an operation the build-time interpreter does not
	// support yet (structs and arrays in memory)
	INT006 = "INT006"

	// ============================================================================
	// Executor errors (EXE###)
	// ============================================================================

	// EXE001 indicates a task left suspended at quiescence (dependency cycle)
	EXE001 = "EXE001"

	// EXE002 indicates a task that failed with a plain error carrying no
	// diagnostic of its own
	EXE002 = "EXE002"

	// ============================================================================
	// Language server errors (LSP###)
	// ============================================================================

	// LSP001 indicates a malformed framed message
	LSP001 = "LSP001"

	// LSP002 indicates exit received without a prior shutdown
	LSP002 = "LSP002"
)
