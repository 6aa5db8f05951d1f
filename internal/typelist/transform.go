package typelist

import (
	tlerrors "github.com/orizon-lang/typelist/internal/errors"
)

// Transform applies f to every marker in order and concatenates the returned
// lists. Mapping to the empty list drops a marker, to a single-slot list
// substitutes it, and to a longer list expands it.
func Transform[T, U comparable](l List[T], f Mapper[T, U]) (List[U], error) {
	var out []U
	for _, t := range l.slots {
		part := f(t)
		if len(out)+part.Size() > MaxArity {
			return List[U]{}, tlerrors.LengthLimit("transform", len(out)+part.Size(), MaxArity)
		}
		out = append(out, part.slots...)
	}
	return fromOwned(out)
}

// Map is Transform with a one-to-one function.
func Map[T, U comparable](l List[T], f func(T) U) List[U] {
	if l.IsEmpty() {
		return List[U]{}
	}
	out := make([]U, len(l.slots))
	for i, t := range l.slots {
		out[i] = f(t)
	}
	return List[U]{slots: out}
}
