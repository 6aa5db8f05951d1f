package typelist

import (
	"fmt"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
)

// build concatenates parts into a newly allocated list.
func build[T comparable](op string, parts ...[]T) (List[T], error) {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	if n > MaxArity {
		return List[T]{}, tlerrors.LengthLimit(op, n, MaxArity)
	}
	slots := make([]T, 0, n)
	for _, p := range parts {
		slots = append(slots, p...)
	}
	return fromOwned(slots)
}

// PushFront returns a list with marker prepended.
func (l List[T]) PushFront(marker T) (List[T], error) {
	return build("push_front", []T{marker}, l.slots)
}

// PushBack returns a list with marker appended.
func (l List[T]) PushBack(marker T) (List[T], error) {
	return build("push_back", l.slots, []T{marker})
}

// Concat returns the slots of l followed by the slots of other.
func (l List[T]) Concat(other List[T]) (List[T], error) {
	return build("concat", l.slots, other.slots)
}

// Concat joins any number of lists in order.
func Concat[T comparable](lists ...List[T]) (List[T], error) {
	parts := make([][]T, len(lists))
	for i, l := range lists {
		parts[i] = l.slots
	}
	return build("concat", parts...)
}

// PopFront drops the first slot.
func (l List[T]) PopFront() (List[T], error) {
	if l.IsEmpty() {
		return List[T]{}, tlerrors.EmptyOperand("pop_front")
	}
	return build("pop_front", l.slots[1:])
}

// PopBack drops the last slot.
func (l List[T]) PopBack() (List[T], error) {
	if l.IsEmpty() {
		return List[T]{}, tlerrors.EmptyOperand("pop_back")
	}
	return build("pop_back", l.slots[:len(l.slots)-1])
}

// Reverse returns the slots in reverse order.
func (l List[T]) Reverse() List[T] {
	if len(l.slots) < 2 {
		return l
	}
	slots := make([]T, len(l.slots))
	for i, t := range l.slots {
		slots[len(slots)-1-i] = t
	}
	return List[T]{slots: slots}
}

// Insert places marker at index, shifting later slots back. Inserting at
// Size() appends.
func (l List[T]) Insert(index int, marker T) (List[T], error) {
	if index < 0 || index > len(l.slots) {
		return List[T]{}, tlerrors.OutOfRange("insert", index, len(l.slots)+1)
	}
	return build("insert", l.slots[:index], []T{marker}, l.slots[index:])
}

// InsertSorted inserts marker into a list already sorted by less. The marker
// goes immediately before the first slot x for which less(marker, x) holds,
// or at the back when there is none. With a non-strict less the marker lands
// before an equal slot.
func (l List[T]) InsertSorted(marker T, less Less[T]) (List[T], error) {
	at := len(l.slots)
	for i, x := range l.slots {
		if less(marker, x) {
			at = i
			break
		}
	}
	return build("insert", l.slots[:at], []T{marker}, l.slots[at:])
}

// Remove drops the slot at index.
func (l List[T]) Remove(index int) (List[T], error) {
	if index < 0 || index >= len(l.slots) {
		return List[T]{}, tlerrors.OutOfRange("remove", index, len(l.slots))
	}
	return build("remove", l.slots[:index], l.slots[index+1:])
}

// RemoveIf drops every slot satisfying pred; survivors keep their order.
func (l List[T]) RemoveIf(pred Predicate[T]) List[T] {
	slots := make([]T, 0, len(l.slots))
	for _, t := range l.slots {
		if !pred(t) {
			slots = append(slots, t)
		}
	}
	if len(slots) == 0 {
		return List[T]{}
	}
	return List[T]{slots: slots}
}

// TrimFront drops n slots from the front.
func (l List[T]) TrimFront(n int) (List[T], error) {
	if n < 0 || n > len(l.slots) {
		return List[T]{}, tlerrors.OutOfRange("trim_front", n, len(l.slots)+1)
	}
	return build("trim_front", l.slots[n:])
}

// TrimBack drops n slots from the back.
func (l List[T]) TrimBack(n int) (List[T], error) {
	if n < 0 || n > len(l.slots) {
		return List[T]{}, tlerrors.OutOfRange("trim_back", n, len(l.slots)+1)
	}
	return build("trim_back", l.slots[:len(l.slots)-n])
}

// Range returns the contiguous sub-list over [first, last).
func (l List[T]) Range(first, last int) (List[T], error) {
	if first > last {
		return List[T]{}, tlerrors.ArityMismatch("range", fmt.Sprintf("first %d is past last %d", first, last))
	}
	if first < 0 {
		return List[T]{}, tlerrors.OutOfRange("range", first, len(l.slots)+1)
	}
	if last > len(l.slots) {
		return List[T]{}, tlerrors.OutOfRange("range", last, len(l.slots)+1)
	}
	back, err := l.TrimBack(len(l.slots) - last)
	if err != nil {
		return List[T]{}, err
	}
	return back.TrimFront(first)
}

// Swap exchanges the slots at i and j. Swapping a slot with itself returns
// the list unchanged.
func (l List[T]) Swap(i, j int) (List[T], error) {
	n := len(l.slots)
	if i < 0 || i >= n {
		return List[T]{}, tlerrors.OutOfRange("swap", i, n)
	}
	if j < 0 || j >= n {
		return List[T]{}, tlerrors.OutOfRange("swap", j, n)
	}
	switch {
	case i == j:
		return l, nil
	case i > j:
		return l.Swap(j, i)
	}
	// prefix [0,i), slot j, middle (i,j), slot i, suffix (j,n)
	return build("swap",
		l.slots[:i],
		l.slots[j:j+1],
		l.slots[i+1:j],
		l.slots[i:i+1],
		l.slots[j+1:],
	)
}
