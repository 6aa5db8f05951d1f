package typelist

// Merge combines two lists that are each sorted by less. At every step the
// fronts are compared: when less(front(l), front(r)) holds the left front is
// emitted, otherwise the right front is. With a non-strict less this keeps
// equal markers of l ahead of those of r; with a strict less it does the
// opposite. Callers relying on stability must pass a non-strict relation.
func Merge[T comparable](l, r List[T], less Less[T]) (List[T], error) {
	if l.IsEmpty() || r.IsEmpty() {
		return l.Concat(r)
	}
	out := make([]T, 0, len(l.slots)+len(r.slots))
	i, j := 0, 0
	for i < len(l.slots) && j < len(r.slots) {
		if less(l.slots[i], r.slots[j]) {
			out = append(out, l.slots[i])
			i++
		} else {
			out = append(out, r.slots[j])
			j++
		}
	}
	return build("merge", out, l.slots[i:], r.slots[j:])
}

// Sort orders the list with a recursive merge sort: lists of arity below two
// are returned unchanged, longer lists are split at Size()/2, each half is
// sorted, and the halves are merged with less.
func Sort[T comparable](l List[T], less Less[T]) (List[T], error) {
	n := l.Size()
	if n < 2 {
		return l, nil
	}
	half := n / 2
	left, err := l.Range(0, half)
	if err != nil {
		return List[T]{}, err
	}
	right, err := l.Range(half, n)
	if err != nil {
		return List[T]{}, err
	}
	if left, err = Sort(left, less); err != nil {
		return List[T]{}, err
	}
	if right, err = Sort(right, less); err != nil {
		return List[T]{}, err
	}
	return Merge(left, right, less)
}
