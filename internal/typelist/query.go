package typelist

import (
	tlerrors "github.com/orizon-lang/typelist/internal/errors"
)

// Size returns the arity of the list.
func (l List[T]) Size() int { return len(l.slots) }

// IsEmpty reports whether the list has arity zero.
func (l List[T]) IsEmpty() bool { return len(l.slots) == 0 }

// ForAll reports whether pred holds for every marker. It is true on the empty
// list.
func (l List[T]) ForAll(pred Predicate[T]) bool {
	for _, t := range l.slots {
		if !pred(t) {
			return false
		}
	}
	return true
}

// Exists reports whether pred holds for at least one marker. It is false on
// the empty list.
func (l List[T]) Exists(pred Predicate[T]) bool {
	for _, t := range l.slots {
		if pred(t) {
			return true
		}
	}
	return false
}

// Contains reports whether marker occupies any slot.
func (l List[T]) Contains(marker T) bool {
	return l.Exists(func(t T) bool { return t == marker })
}

// ContainsSlice reports whether the marker wrapped by a single-slot list
// occupies any slot of l.
func (l List[T]) ContainsSlice(single List[T]) (bool, error) {
	if single.Size() != 1 {
		return false, tlerrors.ShapeMismatch("contains", "single-slot list", single.String())
	}
	return l.Contains(single.slots[0]), nil
}
