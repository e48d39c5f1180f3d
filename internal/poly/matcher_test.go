package poly

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/types"
)

func i32() types.Type { return types.BitInteger{Bits: 32, Signed: true} }
func u16() types.Type { return types.BitInteger{Bits: 16, Signed: false} }

func TestMatchPolymorphBinds(t *testing.T) {
	cat := NewCatalog()
	err := MatchType(types.Polymorph{Name: "T"}, u16(), cat)
	require.NoError(t, err)

	v, ok := cat.Get("T")
	require.True(t, ok)
	assert.True(t, types.Equal(u16(), v.(TypeValue).Type))
}

func TestMatchCongruence(t *testing.T) {
	cat := NewCatalog()
	require.NoError(t, MatchType(types.Polymorph{Name: "T"}, u16(), cat))
	require.NoError(t, MatchType(types.Polymorph{Name: "T"}, u16(), cat))

	err := MatchType(types.Polymorph{Name: "T"}, i32(), cat)
	assert.True(t, errors.Is(err, ErrIncongruent))
}

func TestMatchStructural(t *testing.T) {
	cat := NewCatalog()
	pattern := types.Ptr{Inner: types.Polymorph{Name: "T"}}
	concrete := types.Ptr{Inner: i32()}
	require.NoError(t, MatchType(pattern, concrete, cat))

	v, _ := cat.Get("T")
	assert.True(t, types.Equal(i32(), v.(TypeValue).Type))
}

func TestMatchUserDefinedByDeclIdentity(t *testing.T) {
	declA := types.DeclRef{Kind: types.DeclStruct, Index: 1}
	declB := types.DeclRef{Kind: types.DeclStruct, Index: 2}

	cat := NewCatalog()
	pattern := types.UserDefined{Decl: declA, Name: "Box", Args: []types.Type{types.Polymorph{Name: "T"}}}

	sameDecl := types.UserDefined{Decl: declA, Name: "Renamed", Args: []types.Type{i32()}}
	require.NoError(t, MatchType(pattern, sameDecl, cat))

	otherDecl := types.UserDefined{Decl: declB, Name: "Box", Args: []types.Type{i32()}}
	err := MatchType(pattern, otherDecl, NewCatalog())
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestMatchLengthMismatch(t *testing.T) {
	decl := types.DeclRef{Kind: types.DeclStruct, Index: 1}
	pattern := types.UserDefined{Decl: decl, Name: "Pair", Args: []types.Type{
		types.Polymorph{Name: "A"}, types.Polymorph{Name: "B"},
	}}
	concrete := types.UserDefined{Decl: decl, Name: "Pair", Args: []types.Type{i32()}}

	err := MatchType(pattern, concrete, NewCatalog())
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestMatchThroughAlias(t *testing.T) {
	aliased := types.Alias{
		Decl:       types.DeclRef{Kind: types.DeclAlias, Index: 7},
		Name:       "Handle",
		Underlying: types.Ptr{Inner: i32()},
	}
	cat := NewCatalog()
	require.NoError(t, MatchType(types.Ptr{Inner: types.Polymorph{Name: "T"}}, aliased, cat))

	v, _ := cat.Get("T")
	assert.True(t, types.Equal(i32(), v.(TypeValue).Type))
}

func TestBakeAndResolve(t *testing.T) {
	cat := NewCatalog()
	require.NoError(t, cat.Insert("T", TypeValue{Type: u16()}))
	recipe := cat.Bake()

	got, err := recipe.ResolveType(types.Ptr{Inner: types.Polymorph{Name: "T"}})
	require.NoError(t, err)
	assert.True(t, types.Equal(types.Ptr{Inner: u16()}, got))

	_, err = recipe.ResolveType(types.Polymorph{Name: "U"})
	assert.Error(t, err)
}

func TestCatalogInsertionOrder(t *testing.T) {
	cat := NewCatalog()
	require.NoError(t, cat.Insert("B", TypeValue{Type: i32()}))
	require.NoError(t, cat.Insert("A", TypeValue{Type: u16()}))
	require.NoError(t, cat.Insert("B", TypeValue{Type: i32()})) // duplicate, no reorder
	assert.Equal(t, []string{"B", "A"}, cat.Names())
}
