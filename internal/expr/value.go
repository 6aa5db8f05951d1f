package expr

import (
	"fmt"
	"strconv"

	"github.com/orizon-lang/typelist/internal/tags"
	"github.com/orizon-lang/typelist/internal/typelist"
)

// Kind classifies evaluated values.
type Kind int

const (
	KindList Kind = iota
	KindTag
	KindInt
	KindBool
	KindPredicate
	KindComparator
	KindMapper
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindTag:
		return "tag"
	case KindInt:
		return "integer"
	case KindBool:
		return "bool"
	case KindPredicate:
		return "predicate"
	case KindComparator:
		return "comparator"
	case KindMapper:
		return "mapper"
	default:
		return "unknown"
	}
}

type (
	Predicate  = typelist.Predicate[tags.Tag]
	Comparator = typelist.Less[tags.Tag]
	Mapper     = typelist.Mapper[tags.Tag, tags.Tag]
)

// Value is the result of evaluating an expression.
type Value struct {
	Kind Kind
	List tags.List
	Tag  tags.Tag
	Int  int
	Bool bool
	Pred Predicate
	Less Comparator
	Map  Mapper
	// Name of a function value, for messages.
	Name string
}

func ListValue(l tags.List) Value { return Value{Kind: KindList, List: l} }
func TagValue(t tags.Tag) Value   { return Value{Kind: KindTag, Tag: t} }
func IntValue(n int) Value        { return Value{Kind: KindInt, Int: n} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }

func PredicateValue(name string, p Predicate) Value {
	return Value{Kind: KindPredicate, Pred: p, Name: name}
}

func ComparatorValue(name string, less Comparator) Value {
	return Value{Kind: KindComparator, Less: less, Name: name}
}

func MapperValue(name string, m Mapper) Value {
	return Value{Kind: KindMapper, Map: m, Name: name}
}

// Native returns the Go value carried by v.
func (v Value) Native() any {
	switch v.Kind {
	case KindList:
		return v.List
	case KindTag:
		return v.Tag
	case KindInt:
		return v.Int
	case KindBool:
		return v.Bool
	case KindPredicate:
		return v.Pred
	case KindComparator:
		return v.Less
	case KindMapper:
		return v.Map
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindList:
		return v.List.String()
	case KindTag:
		return v.Tag.String()
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return fmt.Sprintf("%s %s", v.Kind, v.Name)
	}
}

// Same reports whether two values are identical. Lists compare by arity and
// slot identity, tags by identity, scalars by value. Values of different
// kinds are never the same; function values never compare equal.
func Same(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindList:
		return typelist.Equal(a.List, b.List)
	case KindTag:
		return a.Tag == b.Tag
	case KindInt:
		return a.Int == b.Int
	case KindBool:
		return a.Bool == b.Bool
	}
	return false
}
