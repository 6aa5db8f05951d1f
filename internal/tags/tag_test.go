package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/typelist"
)

func TestTagIdentity(t *testing.T) {
	a := Abstract("w4a", 4, 4)
	b := Abstract("w4b", 4, 4)
	assert.NotEqual(t, a, b, "same attributes, different tags")
	assert.Equal(t, a, Abstract("w4a", 4, 4))

	i8 := GoType("", "int8", 1, 1)
	assert.Equal(t, "int8", i8.Key())
	dur := GoType("time", "Duration", 8, 8)
	assert.Equal(t, "time.Duration", dur.Key())
	assert.Equal(t, "Duration", dur.Name())
	assert.Equal(t, KindGoType, dur.Kind())

	assert.Equal(t, int64(1), Abstract("x", 0, 0).Align())
}

func TestNested(t *testing.T) {
	w1 := Abstract("w1", 1, 1)
	w2 := Abstract("w2", 2, 2)

	inner := typelist.Of(w1, w2)
	n1 := Nested(inner)
	n2 := Nested(typelist.Of(w1, w2))
	assert.Equal(t, n1, n2)
	assert.Equal(t, "[w1 w2]", n1.Key())
	assert.NotEqual(t, n1, Nested(typelist.Of(w2, w1)))
	assert.Equal(t, "[]", Nested(typelist.Empty[Tag]()).Key())
	assert.Equal(t, int64(0), n1.Width())

	// Keys may coincide across kinds; nested identity must not.
	abs := Nested(typelist.Of(Abstract("int8", 1, 1)))
	gt := Nested(typelist.Of(GoType("", "int8", 1, 1)))
	assert.Equal(t, abs.Key(), gt.Key())
	assert.NotEqual(t, abs, gt)
	assert.NotEqual(t, Nested(typelist.Of(abs)), Nested(typelist.Of(gt)))

	outer := typelist.Of(w1, n1, Nested(typelist.Empty[Tag]()))
	assert.Equal(t, "list(w1, [w1 w2], [])", outer.String())
	assert.True(t, outer.Contains(n2))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare("w1", Abstract("w1", 1, 1)))
	require.NoError(t, r.Declare("i8", GoType("", "int8", 1, 1)))

	err := r.Declare("w1", Abstract("w1", 1, 1))
	assert.True(t, tlerrors.Is(err, tlerrors.CategoryValidation))

	tag, ok := r.Lookup("i8")
	require.True(t, ok)
	assert.Equal(t, "int8", tag.Key())
	_, ok = r.Lookup("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"i8", "w1"}, r.Names())

	l := typelist.Of(tag)
	n := r.Nest(l)
	back, ok := r.Unnest(n)
	require.True(t, ok)
	assert.True(t, typelist.Equal(l, back))
	_, ok = r.Unnest(tag)
	assert.False(t, ok)

	// Same spelling, different kinds: both nestings survive.
	abs := Abstract("int8", 1, 1)
	na := r.Nest(typelist.Of(abs))
	ng := r.Nest(typelist.Of(tag))
	assert.NotEqual(t, na, ng)
	got, ok := r.Unnest(na)
	require.True(t, ok)
	assert.Equal(t, abs, got.Slots()[0])
	got, ok = r.Unnest(ng)
	require.True(t, ok)
	assert.Equal(t, tag, got.Slots()[0])

	r.Freeze()
	assert.Error(t, r.Declare("late", Abstract("late", 1, 1)))
}
