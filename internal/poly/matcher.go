package poly

import (
	"fmt"

	"github.com/adeptlang/adept/internal/types"
)

// MatchType unifies a declaration pattern against a concrete argument
// type, extending the catalog with any new polymorph bindings. The
// concrete side must already be fully resolved.
func MatchType(pattern, concrete types.Type, cat *Catalog) error {
	// Aliases are transparent on both sides.
	pattern = types.Unalias(pattern).Type
	concrete = types.Unalias(concrete).Type

	if p, ok := pattern.(types.Polymorph); ok {
		return cat.Insert(p.Name, TypeValue{Type: concrete})
	}

	switch p := pattern.(type) {
	case types.Ptr:
		if c, ok := concrete.(types.Ptr); ok {
			return MatchType(p.Inner, c.Inner, cat)
		}
	case types.Deref:
		if c, ok := concrete.(types.Deref); ok {
			return MatchType(p.Inner, c.Inner, cat)
		}
	case types.FixedArray:
		if c, ok := concrete.(types.FixedArray); ok {
			if p.Count != c.Count {
				return fmt.Errorf("array sizes %d and %d: %w", p.Count, c.Count, ErrNoMatch)
			}
			return MatchType(p.Elem, c.Elem, cat)
		}
	case types.UserDefined:
		c, ok := concrete.(types.UserDefined)
		if !ok || p.Decl != c.Decl {
			// Type-decl identity is the arena index, never the name.
			return fmt.Errorf("%s vs %s: %w", pattern, concrete, ErrNoMatch)
		}
		if len(p.Args) != len(c.Args) {
			return fmt.Errorf("%s vs %s: %w", pattern, concrete, ErrLengthMismatch)
		}
		for i := range p.Args {
			if err := MatchType(p.Args[i], c.Args[i], cat); err != nil {
				return err
			}
		}
		return nil
	default:
		// Both primitive: identity.
		if types.Equal(pattern, concrete) {
			return nil
		}
	}
	return fmt.Errorf("%s vs %s: %w", pattern, concrete, ErrNoMatch)
}

// MatchAll matches parameter patterns against concrete argument types
// pairwise. Lengths must agree.
func MatchAll(patterns, concretes []types.Type, cat *Catalog) error {
	if len(patterns) != len(concretes) {
		return ErrLengthMismatch
	}
	for i := range patterns {
		if err := MatchType(patterns[i], concretes[i], cat); err != nil {
			return err
		}
	}
	return nil
}
