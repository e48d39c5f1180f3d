package types

// Assumptions carries the module-level facts the unifier may rely on when
// reasoning about loose C integers.
type Assumptions struct {
	IntAtLeast32Bits bool
}

// Unify computes a single type every input can be conformed to, or
// reports that none exists. The preferred type, when non-nil, steers
// literal specialization without forcing it.
func Unify(preferred Type, ts []Type, asm Assumptions) (Type, bool) {
	if len(ts) == 0 {
		return nil, false
	}

	// Never is the bottom type: it conforms to anything, so it never
	// constrains the join.
	filtered := make([]Type, 0, len(ts))
	for _, t := range ts {
		t = Unalias(t).Type
		if _, isNever := t.(Never); !isNever {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return Never{}, true
	}
	ts = filtered

	// Rule 1: every value already shares one resolved type.
	if !isLiteralKind(ts[0]) {
		same := true
		for _, t := range ts[1:] {
			if !Equal(ts[0], t) {
				same = false
				break
			}
		}
		if same {
			return ts[0], true
		}
	}

	// Rule 2: all integer literals.
	if allOf(ts, isIntegerLiteralKind) {
		min, max := literalRange(ts)
		if preferred != nil {
			if p, ok := integerFits(Unalias(preferred).Type, min, max, asm); ok {
				return p, true
			}
		}
		return defaultIntegerFor(min, max), true
	}

	// Rule 3: integer and float literals mix to a float.
	if allOf(ts, isNumericLiteralKind) {
		if p, ok := Unalias(preferredOrNil(preferred)).Type.(Floating); ok && p.Bits == 32 {
			return Floating{Bits: 32}, true
		}
		return Floating{Bits: 64}, true
	}

	// Rule 4: all integer-like values merge via IntegerProperties.
	if allOf(ts, isIntegerLike) {
		return unifyIntegers(ts, asm)
	}

	return nil, false
}

func preferredOrNil(t Type) Type {
	if t == nil {
		return Void{}
	}
	return t
}

func allOf(ts []Type, pred func(Type) bool) bool {
	for _, t := range ts {
		if !pred(t) {
			return false
		}
	}
	return true
}

func isLiteralKind(t Type) bool {
	switch t.(type) {
	case IntegerLiteral, FloatLiteral, BoolLiteral, NullLiteral,
		AsciiCharLiteral, IntegerLiteralInRange:
		return true
	}
	return false
}

func isIntegerLiteralKind(t Type) bool {
	switch t.(type) {
	case IntegerLiteral, AsciiCharLiteral, IntegerLiteralInRange:
		return true
	}
	return false
}

func isNumericLiteralKind(t Type) bool {
	if isIntegerLiteralKind(t) {
		return true
	}
	_, ok := t.(FloatLiteral)
	return ok
}

func isIntegerLike(t Type) bool {
	if isIntegerLiteralKind(t) {
		return true
	}
	switch t.(type) {
	case BitInteger, CInteger, SizeInteger:
		return true
	}
	return false
}

func literalRange(ts []Type) (int64, int64) {
	var min, max int64
	first := true
	upd := func(lo, hi int64) {
		if first {
			min, max = lo, hi
			first = false
			return
		}
		if lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	for _, t := range ts {
		switch t := t.(type) {
		case IntegerLiteral:
			upd(t.Value, t.Value)
		case AsciiCharLiteral:
			upd(int64(t.Value), int64(t.Value))
		case IntegerLiteralInRange:
			upd(t.Min, t.Max)
		}
	}
	return min, max
}

// integerFits reports whether the candidate is an integer type guaranteed
// to hold every value in [min, max], signedness included.
func integerFits(t Type, min, max int64, asm Assumptions) (Type, bool) {
	switch t := t.(type) {
	case BitInteger:
		if rangeFits(min, max, t.Bits, t.Signed) {
			return t, true
		}
	case CInteger:
		signed := t.Sign != SignUnsigned
		if rangeFits(min, max, t.Kind.MinBits(asm.IntAtLeast32Bits), signed) {
			return t, true
		}
	case SizeInteger:
		// Pointer width is at least 32 on every supported target.
		if rangeFits(min, max, 32, t.Signed) {
			return t, true
		}
	}
	return nil, false
}

func rangeFits(min, max int64, bits int, signed bool) bool {
	if !signed {
		if min < 0 {
			return false
		}
		if bits >= 64 {
			return true
		}
		return uint64(max) <= (uint64(1)<<bits)-1
	}
	if bits >= 64 {
		return true
	}
	lo := -(int64(1) << (bits - 1))
	hi := (int64(1) << (bits - 1)) - 1
	return min >= lo && max <= hi
}

// defaultIntegerFor picks the fallback for unconstrained integer
// literals: i32 when it fits, widening only as far as the values demand.
func defaultIntegerFor(min, max int64) Type {
	switch {
	case rangeFits(min, max, 32, true):
		return BitInteger{Bits: 32, Signed: true}
	case rangeFits(min, max, 64, true):
		return BitInteger{Bits: 64, Signed: true}
	default:
		return BitInteger{Bits: 64, Signed: false}
	}
}

// integer property merging (rule 4)

type signReq int

const (
	signFlexible signReq = iota // literal-only, fits either signedness
	signSigned
	signUnsigned
)

// integerProperties summarizes an integer-like value set: whether a loose
// C kind participated (and the largest such kind), the required bit
// width, and the required sign.
type integerProperties struct {
	loose     bool
	looseKind CKind
	sign      signReq
	bits      int // required width under sign
	bitsIfSigned int // width needed when later forced signed (flexible only)
}

func propsOf(t Type, asm Assumptions) integerProperties {
	switch t := t.(type) {
	case IntegerLiteral:
		return literalProps(t.Value, t.Value)
	case AsciiCharLiteral:
		return literalProps(int64(t.Value), int64(t.Value))
	case IntegerLiteralInRange:
		return literalProps(t.Min, t.Max)
	case BitInteger:
		s := signUnsigned
		if t.Signed {
			s = signSigned
		}
		return integerProperties{sign: s, bits: t.Bits, bitsIfSigned: t.Bits}
	case CInteger:
		s := signSigned
		if t.Sign == SignUnsigned {
			s = signUnsigned
		}
		bits := t.Kind.MinBits(asm.IntAtLeast32Bits)
		return integerProperties{loose: true, looseKind: t.Kind, sign: s, bits: bits, bitsIfSigned: bits}
	case SizeInteger:
		s := signUnsigned
		if t.Signed {
			s = signSigned
		}
		return integerProperties{sign: s, bits: 64, bitsIfSigned: 64}
	}
	panic("unreachable")
}

func literalProps(min, max int64) integerProperties {
	if min < 0 {
		return integerProperties{sign: signSigned, bits: signedBitsFor(min, max), bitsIfSigned: signedBitsFor(min, max)}
	}
	return integerProperties{
		sign:         signFlexible,
		bits:         unsignedBitsFor(uint64(max)),
		bitsIfSigned: signedBitsFor(min, max),
	}
}

func unsignedBitsFor(v uint64) int {
	for _, b := range []int{8, 16, 32, 64} {
		if b == 64 || v <= (uint64(1)<<b)-1 {
			return b
		}
	}
	return 64
}

func signedBitsFor(min, max int64) int {
	for _, b := range []int{8, 16, 32, 64} {
		if rangeFits(min, max, b, true) {
			return b
		}
	}
	return 64
}

func mergeProps(a, b integerProperties) (integerProperties, bool) {
	out := integerProperties{loose: a.loose || b.loose}
	out.looseKind = a.looseKind
	if b.looseKind > out.looseKind {
		out.looseKind = b.looseKind
	}

	switch {
	case a.sign == signFlexible && b.sign == signFlexible:
		out.sign = signFlexible
		out.bits = maxInt(a.bits, b.bits)
		out.bitsIfSigned = maxInt(a.bitsIfSigned, b.bitsIfSigned)
	case a.sign == signFlexible:
		return mergeFlexible(b, a, out)
	case b.sign == signFlexible:
		return mergeFlexible(a, b, out)
	case a.sign == b.sign:
		out.sign = a.sign
		out.bits = maxInt(a.bits, b.bits)
		out.bitsIfSigned = out.bits
	default:
		// A signed and an unsigned mix: the join is signed and must hold
		// the unsigned value range, doubling its width.
		signed, unsigned := a, b
		if a.sign == signUnsigned {
			signed, unsigned = b, a
		}
		need := maxInt(signed.bits, unsigned.bits*2)
		if need > 64 {
			return out, false
		}
		out.sign = signSigned
		out.bits = need
		out.bitsIfSigned = need
	}
	return out, true
}

func mergeFlexible(fixed, flex integerProperties, out integerProperties) (integerProperties, bool) {
	out.sign = fixed.sign
	if fixed.sign == signSigned {
		out.bits = maxInt(fixed.bits, flex.bitsIfSigned)
	} else {
		out.bits = maxInt(fixed.bits, flex.bits)
	}
	if out.bits > 64 {
		return out, false
	}
	out.bitsIfSigned = out.bits
	return out, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func unifyIntegers(ts []Type, asm Assumptions) (Type, bool) {
	props := propsOf(ts[0], asm)
	for _, t := range ts[1:] {
		var ok bool
		props, ok = mergeProps(props, propsOf(t, asm))
		if !ok {
			return nil, false
		}
	}

	signed := props.sign != signUnsigned
	bits := props.bits
	if props.sign == signFlexible {
		bits = props.bitsIfSigned
	}
	if bits < 8 {
		bits = 8
	}

	if props.loose {
		kind, ok := promotedKind(props.looseKind, bits, asm.IntAtLeast32Bits)
		if !ok {
			return nil, false
		}
		sign := SignSigned
		if !signed {
			sign = SignUnsigned
		}
		return CInteger{Kind: kind, Sign: sign}, true
	}
	return BitInteger{Bits: bits, Signed: signed}, true
}
