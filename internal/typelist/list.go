// Package typelist implements immutable ordered lists of type markers and the
// algorithms that compose, inspect, reorder, filter and sort them.
//
// Every operation is a pure function: it never mutates its operands and
// returns a freshly formed list. Operations whose preconditions are violated
// return a contract error from internal/errors instead of clamping, wrapping
// or substituting a default, so callers can refuse to emit anything built on
// an ill-formed expression.
package typelist

import (
	"fmt"
	"reflect"
	"strings"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
)

// MaxArity is the largest list any operation will form.
const MaxArity = 4096

// List is an immutable ordered sequence of markers. The zero value is the
// empty list.
type List[T comparable] struct {
	slots []T
}

// Predicate inspects a single marker.
type Predicate[T comparable] func(T) bool

// Less is a total-order predicate over markers. It may be strict or
// non-strict; Merge and InsertSorted document how ties are resolved.
type Less[T comparable] func(x, y T) bool

// Mapper maps a marker to a list, the unit of Transform.
type Mapper[T, U comparable] func(T) List[U]

// Of forms a list from the given markers in order.
func Of[T comparable](ts ...T) List[T] {
	if len(ts) == 0 {
		return List[T]{}
	}
	slots := make([]T, len(ts))
	copy(slots, ts)
	return List[T]{slots: slots}
}

// Empty returns the list of arity zero.
func Empty[T comparable]() List[T] { return List[T]{} }

// fromOwned wraps a slice the caller will never touch again.
func fromOwned[T comparable](slots []T) (List[T], error) {
	if len(slots) > MaxArity {
		return List[T]{}, tlerrors.LengthLimit("form", len(slots), MaxArity)
	}
	if len(slots) == 0 {
		return List[T]{}, nil
	}
	return List[T]{slots: slots}, nil
}

// Slots returns a copy of the markers in order.
func (l List[T]) Slots() []T {
	out := make([]T, len(l.slots))
	copy(out, l.slots)
	return out
}

// All yields position and marker pairs in order.
func (l List[T]) All() func(yield func(int, T) bool) {
	return func(yield func(int, T) bool) {
		for i, t := range l.slots {
			if !yield(i, t) {
				return
			}
		}
	}
}

func (l List[T]) isList() {}

// String renders the list as list(a, b, c) using each marker's fmt form.
func (l List[T]) String() string {
	parts := make([]string, len(l.slots))
	for i, t := range l.slots {
		parts[i] = fmt.Sprint(t)
	}
	return "list(" + strings.Join(parts, ", ") + ")"
}

type listValue interface{ isList() }

// IsList reports whether v is a List value. Pointers to lists and every other
// type report false.
func IsList(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(listValue); !ok {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Struct
}

// Equal reports whether both lists have the same arity and identical markers
// at every position.
func Equal[T comparable](a, b List[T]) bool {
	if len(a.slots) != len(b.slots) {
		return false
	}
	for i := range a.slots {
		if a.slots[i] != b.slots[i] {
			return false
		}
	}
	return true
}

// NotEqual is the complement of Equal.
func NotEqual[T comparable](a, b List[T]) bool { return !Equal(a, b) }

// Equal reports whether l and other are the same list.
func (l List[T]) Equal(other List[T]) bool { return Equal(l, other) }
