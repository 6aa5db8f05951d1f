package expr

import (
	"fmt"

	"github.com/maruel/natural"

	"github.com/orizon-lang/typelist/internal/diagnostic"
	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/tags"
	"github.com/orizon-lang/typelist/internal/typelist"
)

type builtin struct {
	min, max int // max < 0 means variadic
	fn       func(c *callCtx) (Value, error)
}

type callCtx struct {
	ev   *evaluator
	node *Call
	args []Value
}

// argErr pins err to argument i.
func (c *callCtx) argErr(i int, err error) error {
	return diagnostic.FromError(err, c.ev.span(c.node.Args[i]), c.ev.src.Text)
}

func (c *callCtx) want(i int, kind Kind) (Value, error) {
	v := c.args[i]
	if v.Kind != kind {
		return Value{}, c.argErr(i, tlerrors.ShapeMismatch(c.node.Func, kind.String(), v.Kind.String()))
	}
	return v, nil
}

func (c *callCtx) list(i int) (tags.List, error) {
	v, err := c.want(i, KindList)
	return v.List, err
}

func (c *callCtx) index(i int) (int, error) {
	v, err := c.want(i, KindInt)
	return v.Int, err
}

func (c *callCtx) pred(i int) (Predicate, error) {
	v, err := c.want(i, KindPredicate)
	return v.Pred, err
}

func (c *callCtx) less(i int) (Comparator, error) {
	v, err := c.want(i, KindComparator)
	return v.Less, err
}

func (c *callCtx) mapper(i int) (Mapper, error) {
	v, err := c.want(i, KindMapper)
	return v.Map, err
}

// marker accepts a tag, or a list which becomes a nested tag.
func (c *callCtx) marker(i int) (tags.Tag, error) {
	v := c.args[i]
	switch v.Kind {
	case KindTag:
		return v.Tag, nil
	case KindList:
		return c.ev.env.reg.Nest(v.List), nil
	}
	return tags.Tag{}, c.argErr(i, tlerrors.ShapeMismatch(c.node.Func, "tag or list", v.Kind.String()))
}

func listResult(l tags.List, err error) (Value, error) {
	if err != nil {
		return Value{}, err
	}
	return ListValue(l), nil
}

var (
	builtins  map[string]builtin
	constants map[string]func(ev *evaluator) Value
)

func init() {
	builtins = map[string]builtin{
		"list":        {0, -1, biList},
		"size":        {1, 1, biSize},
		"empty":       {1, 1, biEmpty},
		"is_list":     {1, 1, biIsList},
		"equal":       {2, 2, biEqual(false)},
		"not_equal":   {2, 2, biEqual(true)},
		"for_all":     {2, 2, biForAll},
		"exists":      {2, 2, biExists},
		"contains":    {2, 2, biContains},
		"element":     {2, 2, biElement},
		"slice":       {2, 2, biSlice},
		"front":       {1, 1, biFront},
		"back":        {1, 1, biBack},
		"front_slice": {1, 1, biFrontSlice},
		"back_slice":  {1, 1, biBackSlice},
		"push_front":  {2, 2, biPush(true)},
		"push_back":   {2, 2, biPush(false)},
		"concat":      {0, -1, biConcat},
		"pop_front":   {1, 1, biPopFront},
		"pop_back":    {1, 1, biPopBack},
		"reverse":     {1, 1, biReverse},
		"insert":      {3, 3, biInsert},
		"remove":      {2, 2, biRemove},
		"trim_front":  {2, 2, biTrim(true)},
		"trim_back":   {2, 2, biTrim(false)},
		"range":       {3, 3, biRange},
		"swap":        {3, 3, biSwap},
		"merge":       {3, 3, biMerge},
		"sort":        {2, 2, biSort},
		"transform":   {2, 2, biTransform},
		"unwrap":      {1, 1, biUnwrap},

		"width_eq": {1, 1, attrPredicate("width_eq", tags.Tag.Width, func(a, n int64) bool { return a == n })},
		"width_le": {1, 1, attrPredicate("width_le", tags.Tag.Width, func(a, n int64) bool { return a <= n })},
		"width_lt": {1, 1, attrPredicate("width_lt", tags.Tag.Width, func(a, n int64) bool { return a < n })},
		"width_ge": {1, 1, attrPredicate("width_ge", tags.Tag.Width, func(a, n int64) bool { return a >= n })},
		"width_gt": {1, 1, attrPredicate("width_gt", tags.Tag.Width, func(a, n int64) bool { return a > n })},
		"align_eq": {1, 1, attrPredicate("align_eq", tags.Tag.Align, func(a, n int64) bool { return a == n })},
		"align_le": {1, 1, attrPredicate("align_le", tags.Tag.Align, func(a, n int64) bool { return a <= n })},
		"align_ge": {1, 1, attrPredicate("align_ge", tags.Tag.Align, func(a, n int64) bool { return a >= n })},
		"is":       {1, 1, biIs},
		"not":      {1, 1, biNot},
		"keep":     {1, 1, biKeep(true)},
		"drop":     {1, 1, biKeep(false)},
		"repeat":   {1, 1, biRepeat},
	}

	constants = map[string]func(ev *evaluator) Value{
		"true":  func(*evaluator) Value { return BoolValue(true) },
		"false": func(*evaluator) Value { return BoolValue(false) },
		"width_le": comparator("width_le", tags.Tag.Width, func(x, y int64) bool { return x <= y }),
		"width_lt": comparator("width_lt", tags.Tag.Width, func(x, y int64) bool { return x < y }),
		"width_ge": comparator("width_ge", tags.Tag.Width, func(x, y int64) bool { return x >= y }),
		"width_gt": comparator("width_gt", tags.Tag.Width, func(x, y int64) bool { return x > y }),
		"align_le": comparator("align_le", tags.Tag.Align, func(x, y int64) bool { return x <= y }),
		"align_ge": comparator("align_ge", tags.Tag.Align, func(x, y int64) bool { return x >= y }),
		"name_lt": func(*evaluator) Value {
			return ComparatorValue("name_lt", func(x, y tags.Tag) bool { return natural.Less(x.Key(), y.Key()) })
		},
		"name_le": func(*evaluator) Value {
			return ComparatorValue("name_le", func(x, y tags.Tag) bool { return !natural.Less(y.Key(), x.Key()) })
		},
		"is_list": func(*evaluator) Value {
			return PredicateValue("is_list", func(t tags.Tag) bool { return t.Kind() == tags.KindNested })
		},
		"wrap": func(*evaluator) Value {
			return MapperValue("wrap", func(t tags.Tag) tags.List { return typelist.Of(t) })
		},
		"nest": func(ev *evaluator) Value {
			reg := ev.env.reg
			return MapperValue("nest", func(t tags.Tag) tags.List { return typelist.Of(reg.Nest(typelist.Of(t))) })
		},
		"unnest": func(ev *evaluator) Value {
			reg := ev.env.reg
			return MapperValue("unnest", func(t tags.Tag) tags.List {
				if l, ok := reg.Unnest(t); ok {
					return l
				}
				return typelist.Of(t)
			})
		},
	}
}

func comparator(name string, attr func(tags.Tag) int64, cmp func(x, y int64) bool) func(*evaluator) Value {
	return func(*evaluator) Value {
		return ComparatorValue(name, func(x, y tags.Tag) bool { return cmp(attr(x), attr(y)) })
	}
}

func attrPredicate(name string, attr func(tags.Tag) int64, cmp func(a, n int64) bool) func(c *callCtx) (Value, error) {
	return func(c *callCtx) (Value, error) {
		n, err := c.index(0)
		if err != nil {
			return Value{}, err
		}
		return PredicateValue(fmt.Sprintf("%s(%d)", name, n), func(t tags.Tag) bool { return cmp(attr(t), int64(n)) }), nil
	}
}

func biList(c *callCtx) (Value, error) {
	slots := make([]tags.Tag, len(c.args))
	for i := range c.args {
		t, err := c.marker(i)
		if err != nil {
			return Value{}, err
		}
		slots[i] = t
	}
	if len(slots) > typelist.MaxArity {
		return Value{}, tlerrors.LengthLimit("list", len(slots), typelist.MaxArity)
	}
	return ListValue(typelist.Of(slots...)), nil
}

func biSize(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	return IntValue(l.Size()), nil
}

func biEmpty(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(l.IsEmpty()), nil
}

func biIsList(c *callCtx) (Value, error) {
	return BoolValue(typelist.IsList(c.args[0].Native())), nil
}

func biEqual(negate bool) func(c *callCtx) (Value, error) {
	return func(c *callCtx) (Value, error) {
		a, b := c.args[0], c.args[1]
		eq := a.Kind == KindList && b.Kind == KindList && typelist.Equal(a.List, b.List)
		return BoolValue(eq != negate), nil
	}
}

func biForAll(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	p, err := c.pred(1)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(l.ForAll(p)), nil
}

func biExists(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	p, err := c.pred(1)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(l.Exists(p)), nil
}

func biContains(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	switch v := c.args[1]; v.Kind {
	case KindTag:
		return BoolValue(l.Contains(v.Tag)), nil
	case KindList:
		ok, err := l.ContainsSlice(v.List)
		if err != nil {
			return Value{}, c.argErr(1, err)
		}
		return BoolValue(ok), nil
	default:
		return Value{}, c.argErr(1, tlerrors.ShapeMismatch("contains", "tag or single-slot list", v.Kind.String()))
	}
}

func biElement(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	i, err := c.index(1)
	if err != nil {
		return Value{}, err
	}
	t, err := l.Element(i)
	if err != nil {
		return Value{}, err
	}
	return TagValue(t), nil
}

func biSlice(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	i, err := c.index(1)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.Slice(i))
}

func biFront(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	t, err := l.Front()
	if err != nil {
		return Value{}, err
	}
	return TagValue(t), nil
}

func biBack(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	t, err := l.Back()
	if err != nil {
		return Value{}, err
	}
	return TagValue(t), nil
}

func biFrontSlice(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.FrontSlice())
}

func biBackSlice(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.BackSlice())
}

func biPush(front bool) func(c *callCtx) (Value, error) {
	return func(c *callCtx) (Value, error) {
		t, err := c.marker(0)
		if err != nil {
			return Value{}, err
		}
		l, err := c.list(1)
		if err != nil {
			return Value{}, err
		}
		if front {
			return listResult(l.PushFront(t))
		}
		return listResult(l.PushBack(t))
	}
}

func biConcat(c *callCtx) (Value, error) {
	lists := make([]tags.List, len(c.args))
	for i := range c.args {
		l, err := c.list(i)
		if err != nil {
			return Value{}, err
		}
		lists[i] = l
	}
	return listResult(typelist.Concat(lists...))
}

func biPopFront(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.PopFront())
}

func biPopBack(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.PopBack())
}

func biReverse(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	return ListValue(l.Reverse()), nil
}

// biInsert handles insert(index, T, L) and insert(T, L, less).
func biInsert(c *callCtx) (Value, error) {
	if c.args[0].Kind == KindInt {
		t, err := c.marker(1)
		if err != nil {
			return Value{}, err
		}
		l, err := c.list(2)
		if err != nil {
			return Value{}, err
		}
		return listResult(l.Insert(c.args[0].Int, t))
	}
	t, err := c.marker(0)
	if err != nil {
		return Value{}, err
	}
	l, err := c.list(1)
	if err != nil {
		return Value{}, err
	}
	less, err := c.less(2)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.InsertSorted(t, less))
}

// biRemove handles remove(index, L) and remove(L, predicate).
func biRemove(c *callCtx) (Value, error) {
	if c.args[0].Kind == KindInt {
		l, err := c.list(1)
		if err != nil {
			return Value{}, err
		}
		return listResult(l.Remove(c.args[0].Int))
	}
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	p, err := c.pred(1)
	if err != nil {
		return Value{}, err
	}
	return ListValue(l.RemoveIf(p)), nil
}

func biTrim(front bool) func(c *callCtx) (Value, error) {
	return func(c *callCtx) (Value, error) {
		n, err := c.index(0)
		if err != nil {
			return Value{}, err
		}
		l, err := c.list(1)
		if err != nil {
			return Value{}, err
		}
		if front {
			return listResult(l.TrimFront(n))
		}
		return listResult(l.TrimBack(n))
	}
}

func biRange(c *callCtx) (Value, error) {
	first, err := c.index(0)
	if err != nil {
		return Value{}, err
	}
	last, err := c.index(1)
	if err != nil {
		return Value{}, err
	}
	l, err := c.list(2)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.Range(first, last))
}

func biSwap(c *callCtx) (Value, error) {
	i, err := c.index(0)
	if err != nil {
		return Value{}, err
	}
	j, err := c.index(1)
	if err != nil {
		return Value{}, err
	}
	l, err := c.list(2)
	if err != nil {
		return Value{}, err
	}
	return listResult(l.Swap(i, j))
}

func biMerge(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	r, err := c.list(1)
	if err != nil {
		return Value{}, err
	}
	less, err := c.less(2)
	if err != nil {
		return Value{}, err
	}
	return listResult(typelist.Merge(l, r, less))
}

func biSort(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	less, err := c.less(1)
	if err != nil {
		return Value{}, err
	}
	return listResult(typelist.Sort(l, less))
}

func biTransform(c *callCtx) (Value, error) {
	l, err := c.list(0)
	if err != nil {
		return Value{}, err
	}
	f, err := c.mapper(1)
	if err != nil {
		return Value{}, err
	}
	return listResult(typelist.Transform(l, f))
}

func biUnwrap(c *callCtx) (Value, error) {
	v, err := c.want(0, KindTag)
	if err != nil {
		return Value{}, err
	}
	l, ok := c.ev.env.reg.Unnest(v.Tag)
	if !ok {
		return Value{}, c.argErr(0, tlerrors.ShapeMismatch("unwrap", "nested list tag", v.Tag.Kind().String()+" tag"))
	}
	return ListValue(l), nil
}

func biIs(c *callCtx) (Value, error) {
	t, err := c.marker(0)
	if err != nil {
		return Value{}, err
	}
	return PredicateValue("is("+t.String()+")", func(x tags.Tag) bool { return x == t }), nil
}

func biNot(c *callCtx) (Value, error) {
	v, err := c.want(0, KindPredicate)
	if err != nil {
		return Value{}, err
	}
	p := v.Pred
	return PredicateValue("not("+v.Name+")", func(x tags.Tag) bool { return !p(x) }), nil
}

func biKeep(keep bool) func(c *callCtx) (Value, error) {
	return func(c *callCtx) (Value, error) {
		v, err := c.want(0, KindPredicate)
		if err != nil {
			return Value{}, err
		}
		p := v.Pred
		name := "drop(" + v.Name + ")"
		if keep {
			name = "keep(" + v.Name + ")"
		}
		return MapperValue(name, func(t tags.Tag) tags.List {
			if p(t) == keep {
				return typelist.Of(t)
			}
			return typelist.Empty[tags.Tag]()
		}), nil
	}
}

func biRepeat(c *callCtx) (Value, error) {
	n, err := c.index(0)
	if err != nil {
		return Value{}, err
	}
	if n > typelist.MaxArity {
		return Value{}, c.argErr(0, tlerrors.LengthLimit("repeat", n, typelist.MaxArity))
	}
	return MapperValue(fmt.Sprintf("repeat(%d)", n), func(t tags.Tag) tags.List {
		slots := make([]tags.Tag, n)
		for i := range slots {
			slots[i] = t
		}
		return typelist.Of(slots...)
	}), nil
}

// LookupMapper builds a mapper from a case table; markers without a case go
// through def.
func LookupMapper(name string, cases map[tags.Tag]tags.List, def Mapper) Value {
	return MapperValue(name, func(t tags.Tag) tags.List {
		if l, ok := cases[t]; ok {
			return l
		}
		return def(t)
	})
}
