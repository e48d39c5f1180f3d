package scope

import (
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
)

// Search describes one symbol lookup.
type Search struct {
	Namespace []string
	Name      string
	Category  Category

	// Arity disambiguates types with different type-parameter counts.
	// Negative means any arity.
	Arity int

	// From is the file the lookup originates in; private declarations
	// are visible only from files under their owning module.
	From fstree.NodeID

	Span diag.Span
}

// AnyArity matches heads regardless of arity.
const AnyArity = -1

// FindSymbol returns the single matching head, or a NotDefined/Ambiguous
// report. Local declarations shadow imports; ambiguity arises only across
// imported modules.
func (s *DeclScope) FindSymbol(q Search) (DeclHead, *diag.Report) {
	if len(q.Namespace) > 0 {
		return s.findNamespaced(q)
	}

	if local := s.matchLocal(q); len(local) > 0 {
		if len(local) > 1 {
			return DeclHead{}, ambiguous(q, local)
		}
		return local[0], nil
	}

	// Fall through to every imported namespace.
	var found []DeclHead
	for _, imported := range s.allImports() {
		found = append(found, imported.matchPublic(q)...)
	}
	switch len(found) {
	case 0:
		return DeclHead{}, notDefined(q)
	case 1:
		return found[0], nil
	default:
		return DeclHead{}, ambiguous(q, found)
	}
}

// FindFuncs returns every function head candidate for overload
// resolution: the haystack. Local candidates come first.
func (s *DeclScope) FindFuncs(q Search) []DeclHead {
	q.Category = CategoryFunc
	q.Arity = AnyArity
	if len(q.Namespace) > 0 {
		var out []DeclHead
		for _, imported := range s.resolveNamespace(q.Namespace) {
			out = append(out, imported.matchPublic(q)...)
		}
		return out
	}
	out := s.matchLocal(q)
	for _, imported := range s.allImports() {
		out = append(out, imported.matchPublic(q)...)
	}
	return out
}

func (s *DeclScope) findNamespaced(q Search) (DeclHead, *diag.Report) {
	mods := s.resolveNamespace(q.Namespace)
	if len(mods) == 0 {
		return DeclHead{}, notDefined(q)
	}
	var found []DeclHead
	for _, imported := range mods {
		found = append(found, imported.matchPublic(q)...)
	}
	switch len(found) {
	case 0:
		return DeclHead{}, notDefined(q)
	case 1:
		return found[0], nil
	default:
		return DeclHead{}, ambiguous(q, found)
	}
}

// resolveNamespace walks a namespace chain. Only single-segment chains
// exist today; nested namespaces resolve segment by segment through the
// imported modules' own namespaces.
func (s *DeclScope) resolveNamespace(chain []string) []*DeclScope {
	scopes := []*DeclScope{s}
	for _, seg := range chain {
		var next []*DeclScope
		for _, sc := range scopes {
			next = append(next, sc.Namespace(seg)...)
		}
		scopes = next
	}
	return scopes
}

func (s *DeclScope) allImports() []*DeclScope {
	var out []*DeclScope
	seen := map[*DeclScope]bool{}
	for _, scopes := range s.namespaces {
		for _, sc := range scopes {
			if !seen[sc] {
				seen[sc] = true
				out = append(out, sc)
			}
		}
	}
	return out
}

// matchLocal returns local heads matching the query, honoring private
// visibility against the querying file.
func (s *DeclScope) matchLocal(q Search) []DeclHead {
	var out []DeclHead
	for _, h := range s.Lookup(q.Name).Heads(q.Category) {
		if q.Arity != AnyArity && h.Arity != q.Arity {
			continue
		}
		if h.Private && !s.Tree.IsUnder(q.From, s.Module) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// matchPublic returns only public heads; used for imported scopes.
func (s *DeclScope) matchPublic(q Search) []DeclHead {
	var out []DeclHead
	for _, h := range s.Lookup(q.Name).Heads(q.Category) {
		if h.Private {
			continue
		}
		if q.Arity != AnyArity && h.Arity != q.Arity {
			continue
		}
		out = append(out, h)
	}
	return out
}

func notDefined(q Search) *diag.Report {
	return diag.New(diag.SCP001, "scope", q.Span, "%s %q is not defined", q.Category, q.Name)
}

func ambiguous(q Search, found []DeclHead) *diag.Report {
	r := diag.New(diag.SCP002, "scope", q.Span, "%s %q is ambiguous (%d candidates)",
		q.Category, q.Name, len(found))
	for _, h := range found {
		r = r.With(h.Span.String(), h.Name)
	}
	return r
}
