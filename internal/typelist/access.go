package typelist

import (
	tlerrors "github.com/orizon-lang/typelist/internal/errors"
)

// Element returns the marker at index.
func (l List[T]) Element(index int) (T, error) {
	var zero T
	if index < 0 || index >= len(l.slots) {
		return zero, tlerrors.OutOfRange("element", index, len(l.slots))
	}
	return l.slots[index], nil
}

// Slice returns the marker at index wrapped in a single-slot list.
func (l List[T]) Slice(index int) (List[T], error) {
	t, err := l.Element(index)
	if err != nil {
		return List[T]{}, err
	}
	return Of(t), nil
}

// Front returns the first marker.
func (l List[T]) Front() (T, error) {
	var zero T
	if l.IsEmpty() {
		return zero, tlerrors.EmptyOperand("front")
	}
	return l.slots[0], nil
}

// Back returns the last marker.
func (l List[T]) Back() (T, error) {
	var zero T
	if l.IsEmpty() {
		return zero, tlerrors.EmptyOperand("back")
	}
	return l.slots[len(l.slots)-1], nil
}

// FrontSlice returns the first marker wrapped in a single-slot list.
func (l List[T]) FrontSlice() (List[T], error) {
	t, err := l.Front()
	if err != nil {
		return List[T]{}, tlerrors.EmptyOperand("front_slice")
	}
	return Of(t), nil
}

// BackSlice returns the last marker wrapped in a single-slot list.
func (l List[T]) BackSlice() (List[T], error) {
	t, err := l.Back()
	if err != nil {
		return List[T]{}, tlerrors.EmptyOperand("back_slice")
	}
	return Of(t), nil
}
