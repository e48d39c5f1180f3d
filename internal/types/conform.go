package types

// CastKind enumerates the unary casts conformance may insert. The order
// they appear in a plan is the order they apply.
type CastKind int

const (
	// CastSpecializeInteger pins an integer literal to a concrete
	// integer type.
	CastSpecializeInteger CastKind = iota

	// CastSpecializeFloat pins a numeric literal to a concrete float.
	CastSpecializeFloat

	// CastSpecializeBool pins a boolean literal.
	CastSpecializeBool

	// CastSpecializePointerOuter pins a null literal or adjusts the
	// outer pointer layer; a no-op at IR level.
	CastSpecializePointerOuter

	// CastDereference loads through an l-value.
	CastDereference

	// CastExtend widens an integer, sign- or zero-extending per the
	// source signedness.
	CastExtend

	// CastTruncate narrows an integer; only explicit casts plan it.
	CastTruncate

	// CastFloatExtend widens f32 to f64.
	CastFloatExtend
)

// Cast is one conformance step toward To.
type Cast struct {
	Kind CastKind
	To   Type
}

// ConformMode selects how aggressive a plan may be. Implicit conformance
// must never lose precision or change signedness undetectably; explicit
// casts may truncate.
type ConformMode int

const (
	ConformImplicit ConformMode = iota
	ConformExplicit
)

// Conform plans the cast sequence taking a value of type from to type to,
// or reports that no conformance exists. An empty plan means the types
// already agree.
func Conform(from, to Type, mode ConformMode, asm Assumptions) ([]Cast, bool) {
	from = Unalias(from).Type
	to = Unalias(to).Type

	if Equal(from, to) {
		return nil, true
	}

	// L-values conform by dereferencing first.
	if d, ok := from.(Deref); ok {
		rest, ok := Conform(d.Inner, to, mode, asm)
		if !ok {
			return nil, false
		}
		return append([]Cast{{Kind: CastDereference, To: d.Inner}}, rest...), true
	}

	// Never conforms to everything.
	if _, ok := from.(Never); ok {
		return nil, true
	}

	switch from := from.(type) {
	case IntegerLiteral:
		return specializeInteger(from.Value, from.Value, to, asm)
	case AsciiCharLiteral:
		return specializeInteger(int64(from.Value), int64(from.Value), to, asm)
	case IntegerLiteralInRange:
		return specializeInteger(from.Min, from.Max, to, asm)
	case FloatLiteral:
		if f, ok := to.(Floating); ok {
			return []Cast{{Kind: CastSpecializeFloat, To: f}}, true
		}
	case BoolLiteral:
		if _, ok := to.(Boolean); ok {
			return []Cast{{Kind: CastSpecializeBool, To: Boolean{}}}, true
		}
	case NullLiteral:
		if p, ok := to.(Ptr); ok {
			return []Cast{{Kind: CastSpecializePointerOuter, To: p}}, true
		}
	case BitInteger:
		return conformInteger(from.Bits, from.Signed, to, mode, asm)
	case CInteger:
		bits := from.Kind.MinBits(asm.IntAtLeast32Bits)
		return conformInteger(bits, from.Sign != SignUnsigned, to, mode, asm)
	case SizeInteger:
		return conformInteger(64, from.Signed, to, mode, asm)
	case Floating:
		if f, ok := to.(Floating); ok {
			if f.Bits > from.Bits {
				return []Cast{{Kind: CastFloatExtend, To: f}}, true
			}
			if mode == ConformExplicit {
				return []Cast{{Kind: CastTruncate, To: f}}, true
			}
		}
	case Ptr:
		if p, ok := to.(Ptr); ok {
			// Outer pointer specialization only; inner types must agree.
			if Equal(from.Inner, p.Inner) {
				return nil, true
			}
			if _, isVoid := p.Inner.(Void); isVoid {
				return []Cast{{Kind: CastSpecializePointerOuter, To: p}}, true
			}
		}
	}

	if mode == ConformExplicit {
		return explicitPlan(from, to, asm)
	}
	return nil, false
}

func specializeInteger(min, max int64, to Type, asm Assumptions) ([]Cast, bool) {
	if t, ok := integerFits(to, min, max, asm); ok {
		return []Cast{{Kind: CastSpecializeInteger, To: t}}, true
	}
	if f, ok := to.(Floating); ok {
		return []Cast{{Kind: CastSpecializeFloat, To: f}}, true
	}
	return nil, false
}

func conformInteger(bits int, signed bool, to Type, mode ConformMode, asm Assumptions) ([]Cast, bool) {
	var toBits int
	var toSigned bool
	switch to := to.(type) {
	case BitInteger:
		toBits, toSigned = to.Bits, to.Signed
	case CInteger:
		toBits, toSigned = to.Kind.MinBits(asm.IntAtLeast32Bits), to.Sign != SignUnsigned
	case SizeInteger:
		toBits, toSigned = 64, to.Signed
	default:
		return nil, false
	}

	switch {
	case toBits == bits && toSigned == signed:
		return nil, true
	case toBits > bits && toSigned == signed,
		toBits > bits && toSigned && !signed:
		// Widening that preserves every value: same sign, or unsigned
		// into a strictly wider signed type.
		return []Cast{{Kind: CastExtend, To: to}}, true
	}
	if mode == ConformExplicit {
		if toBits < bits {
			return []Cast{{Kind: CastTruncate, To: to}}, true
		}
		return []Cast{{Kind: CastExtend, To: to}}, true
	}
	return nil, false
}

// explicitPlan covers the remaining source-level cast forms: pointer
// reinterpretation and bool-to-integer.
func explicitPlan(from, to Type, asm Assumptions) ([]Cast, bool) {
	switch from.(type) {
	case Ptr:
		if _, ok := to.(Ptr); ok {
			return []Cast{{Kind: CastSpecializePointerOuter, To: to}}, true
		}
	case Boolean:
		if isIntegerLike(to) {
			return []Cast{{Kind: CastExtend, To: to}}, true
		}
	}
	return nil, false
}
