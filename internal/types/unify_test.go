package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asm32 = Assumptions{IntAtLeast32Bits: true}

func TestUnifyIdentity(t *testing.T) {
	tests := []Type{
		BitInteger{Bits: 32, Signed: true},
		Boolean{},
		Ptr{Inner: BitInteger{Bits: 8, Signed: false}},
		Floating{Bits: 64},
	}
	for _, ty := range tests {
		got, ok := Unify(nil, []Type{ty}, asm32)
		require.True(t, ok, "unify([%s])", ty)
		assert.True(t, Equal(ty, got))
	}
}

func TestUnifyLiteralFit(t *testing.T) {
	u8 := BitInteger{Bits: 8, Signed: false}

	got, ok := Unify(u8, []Type{IntegerLiteral{Value: 200}}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(u8, got), "literal 200 should fit u8, got %s", got)

	got, ok = Unify(u8, []Type{IntegerLiteral{Value: 256}}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(BitInteger{Bits: 32, Signed: true}, got),
		"literal 256 should fall back to i32, got %s", got)
}

func TestUnifyNegativeLiteralNeedsSigned(t *testing.T) {
	u8 := BitInteger{Bits: 8, Signed: false}
	got, ok := Unify(u8, []Type{IntegerLiteral{Value: -1}}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(BitInteger{Bits: 32, Signed: true}, got))
}

func TestUnifyCIntegerMerge(t *testing.T) {
	cint := CInteger{Kind: CInt, Sign: SignSigned}
	ulong := CInteger{Kind: CLong, Sign: SignUnsigned}

	got, ok := Unify(nil, []Type{cint, ulong}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(CInteger{Kind: CLongLong, Sign: SignSigned}, got),
		"int + unsigned long should widen to signed long long, got %s", got)
}

func TestUnifySignedUnsignedWiden(t *testing.T) {
	got, ok := Unify(nil, []Type{
		BitInteger{Bits: 32, Signed: true},
		BitInteger{Bits: 32, Signed: false},
	}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(BitInteger{Bits: 64, Signed: true}, got),
		"i32 + u32 should widen to i64, got %s", got)
}

func TestUnifyLiteralWithFixedInteger(t *testing.T) {
	u8 := BitInteger{Bits: 8, Signed: false}
	got, ok := Unify(nil, []Type{IntegerLiteral{Value: 1}, u8}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(u8, got), "literal 1 joins u8 at u8, got %s", got)
}

func TestUnifyFloatLiteralMix(t *testing.T) {
	got, ok := Unify(nil, []Type{IntegerLiteral{Value: 1}, floatLit(2.5)}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(Floating{Bits: 64}, got))

	got, ok = Unify(Floating{Bits: 32}, []Type{floatLit(2.5)}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(Floating{Bits: 32}, got))
}

func floatLit(v float64) Type { return FloatLiteral{Value: v} }

func TestUnifyNeverIsBottom(t *testing.T) {
	i32 := BitInteger{Bits: 32, Signed: true}
	got, ok := Unify(nil, []Type{Never{}, i32}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(i32, got))

	got, ok = Unify(nil, []Type{Never{}}, asm32)
	require.True(t, ok)
	assert.True(t, Equal(Never{}, got))
}

func TestUnifyIncompatible(t *testing.T) {
	_, ok := Unify(nil, []Type{Boolean{}, BitInteger{Bits: 32, Signed: true}}, asm32)
	assert.False(t, ok)

	_, ok = Unify(nil, []Type{
		BitInteger{Bits: 64, Signed: true},
		BitInteger{Bits: 64, Signed: false},
	}, asm32)
	assert.False(t, ok, "i64 + u64 has no unifying type")
}

func TestConformDerefThenExtend(t *testing.T) {
	u8 := BitInteger{Bits: 8, Signed: false}
	i32 := BitInteger{Bits: 32, Signed: true}

	plan, ok := Conform(Deref{Inner: u8}, i32, ConformImplicit, asm32)
	require.True(t, ok)
	require.Len(t, plan, 2)
	assert.Equal(t, CastDereference, plan[0].Kind)
	assert.Equal(t, CastExtend, plan[1].Kind)
}

func TestConformRejectsImplicitNarrowing(t *testing.T) {
	i64 := BitInteger{Bits: 64, Signed: true}
	i8 := BitInteger{Bits: 8, Signed: true}

	_, ok := Conform(i64, i8, ConformImplicit, asm32)
	assert.False(t, ok)

	plan, ok := Conform(i64, i8, ConformExplicit, asm32)
	require.True(t, ok)
	require.Len(t, plan, 1)
	assert.Equal(t, CastTruncate, plan[0].Kind)
}

func TestAliasUnaliasing(t *testing.T) {
	inner := Ptr{Inner: BitInteger{Bits: 32, Signed: true}}
	alias := Alias{
		Decl:       DeclRef{Kind: DeclAlias, Index: 1},
		Name:       "X",
		Args:       []Type{BitInteger{Bits: 32, Signed: true}},
		Underlying: inner,
	}
	assert.True(t, Equal(inner, Unalias(alias).Type))
}
