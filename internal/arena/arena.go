// Package arena provides typed-index arenas: append-only containers whose
// dense integer indices are the universal handles of the compiler. Contents
// live as long as the arena; indices never invalidate.
package arena

// Idx is a dense index into an Arena[T]. The zero value means "none", so
// Idx works as an option without a sentinel field.
type Idx[T any] uint32

// NoneIdx returns the absent index for T.
func NoneIdx[T any]() Idx[T] { return 0 }

// IsNone reports whether the index refers to nothing.
func (i Idx[T]) IsNone() bool { return i == 0 }

// Arena owns a growable, append-only sequence of T.
type Arena[T any] struct {
	items []T
}

// Alloc appends a value and returns its index.
func (a *Arena[T]) Alloc(v T) Idx[T] {
	a.items = append(a.items, v)
	return Idx[T](len(a.items))
}

// At returns a pointer to the value at idx. The pointer stays valid only
// until the next Alloc; use Get for a copy or keep the index instead.
func (a *Arena[T]) At(i Idx[T]) *T {
	if i.IsNone() || int(i) > len(a.items) {
		panic("arena: index out of range")
	}
	return &a.items[int(i)-1]
}

// Get returns a copy of the value at idx.
func (a *Arena[T]) Get(i Idx[T]) T {
	return *a.At(i)
}

// Len returns the number of allocated values.
func (a *Arena[T]) Len() int { return len(a.items) }

// Each calls fn for every value in allocation order.
func (a *Arena[T]) Each(fn func(Idx[T], *T)) {
	for i := range a.items {
		fn(Idx[T](i+1), &a.items[i])
	}
}
