package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/expr"
	"github.com/orizon-lang/typelist/internal/tags"
	"github.com/orizon-lang/typelist/internal/typelist"
)

var (
	w1  = tags.Abstract("w1", 1, 1)
	w2  = tags.Abstract("w2", 2, 2)
	dur = tags.GoType("time", "Duration", 8, 8)
	i8  = tags.GoType("", "int8", 1, 1)
)

func render(t *testing.T, f *File) string {
	t.Helper()
	src, err := Render(f)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.AllErrors)
	require.NoError(t, err, "%s", src)
	return string(src)
}

func TestRenderLists(t *testing.T) {
	reg := tags.NewRegistry()
	pair := reg.Nest(typelist.Of(w1, i8))

	out := render(t, &File{
		Package:  "weights",
		Source:   "weights.yaml",
		Tags:     []tags.Tag{w1, w2},
		TagDocs:  map[string]string{"w2": "w2 is two bytes wide."},
		Registry: reg,
		Decls: []Decl{
			{Name: "Small", Doc: "Small holds the narrow markers.", Value: expr.ListValue(typelist.Of(w1, w2))},
			{Name: "Mixed", Value: expr.ListValue(typelist.Of(dur, pair))},
			{Name: "None", Value: expr.ListValue(typelist.Empty[tags.Tag]())},
			{Name: "Count", Value: expr.IntValue(2)},
			{Name: "Ok", Value: expr.BoolValue(true)},
			{Name: "First", Value: expr.TagValue(w1)},
		},
	})

	assert.Contains(t, out, Header)
	assert.Contains(t, out, "// Source: weights.yaml")
	assert.Contains(t, out, "package weights")
	assert.Contains(t, out, `time "time"`)
	assert.Contains(t, out, "// w1 is a marker tag (width 1, align 1).\ntype w1 struct{}")
	assert.Contains(t, out, "// w2 is two bytes wide.\ntype w2 struct{}")
	assert.Contains(t, out, "// Small holds the narrow markers.\ntype Small struct {\n\t_ [0]w1\n\t_ [0]w2\n}")
	assert.Contains(t, out, "const SmallLen = 2")
	assert.Contains(t, out, "SmallAt0 = w1")
	assert.Contains(t, out, "SmallAt1 = w2")
	assert.Contains(t, out, "_ [0]time.Duration")
	assert.Contains(t, out, "MixedAt0 = time.Duration")
	assert.Contains(t, out, "_ [0]int8")
	assert.Contains(t, out, "type None struct{}")
	assert.Contains(t, out, "const NoneLen = 0")
	assert.NotContains(t, out, "NoneAt0")
	assert.Contains(t, out, "const Count = 2")
	assert.Contains(t, out, "const Ok = true")
	assert.Contains(t, out, "type First = w1")
}

func TestRenderUnderlyingIdentity(t *testing.T) {
	out := render(t, &File{
		Package: "p",
		Tags:    []tags.Tag{w1, w2},
		Decls: []Decl{
			{Name: "A", Value: expr.ListValue(typelist.Of(w1, w2))},
			{Name: "B", Value: expr.ListValue(typelist.Of(w1, w2))},
			{Name: "C", Value: expr.ListValue(typelist.Of(w2, w1))},
		},
	})

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "gen.go", out, 0)
	require.NoError(t, err)
	pkg, err := new(types.Config).Check("p", fset, []*ast.File{f}, nil)
	require.NoError(t, err)

	typ := func(name string) types.Type { return pkg.Scope().Lookup(name).Type() }
	assert.False(t, types.Identical(typ("A"), typ("B")), "each list is its own defined type")
	assert.True(t, types.Identical(typ("A").Underlying(), typ("B").Underlying()))
	assert.True(t, types.ConvertibleTo(typ("A"), typ("B")))
	assert.False(t, types.Identical(typ("A").Underlying(), typ("C").Underlying()))
	assert.False(t, types.ConvertibleTo(typ("A"), typ("C")))
}

func TestRenderNoImports(t *testing.T) {
	out := render(t, &File{
		Package: "p",
		Decls:   []Decl{{Name: "L", Value: expr.ListValue(typelist.Of(i8))}},
	})
	assert.NotContains(t, out, "import")
	assert.NotContains(t, out, "// Source:")
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		file *File
		cat  tlerrors.ErrorCategory
	}{
		{
			name: "function value",
			file: &File{Package: "p", Decls: []Decl{{Name: "P", Value: expr.PredicateValue("is_list", nil)}}},
			cat:  tlerrors.CategoryShapeMismatch,
		},
		{
			name: "helper clash",
			file: &File{Package: "p", Decls: []Decl{
				{Name: "A", Value: expr.ListValue(typelist.Of(i8))},
				{Name: "ALen", Value: expr.IntValue(1)},
			}},
			cat: tlerrors.CategoryValidation,
		},
		{
			name: "nested without registry",
			file: &File{Package: "p", Decls: []Decl{
				{Name: "A", Value: expr.ListValue(typelist.Of(tags.Nested(typelist.Of(i8))))},
			}},
			cat: tlerrors.CategoryValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.file)
			require.Error(t, err)
			assert.True(t, tlerrors.Is(err, tt.cat), "got %v", err)
		})
	}
}

func TestImportBase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"time", "time"},
		{"example.com/geom", "geom"},
		{"gopkg.in/yaml.v3", "yaml"},
		{"example.com/thing/v2", "thing"},
		{"example.com/go-kit", "gokit"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, importBase(tt.in), tt.in)
	}
}

func TestImportNameConflict(t *testing.T) {
	out := render(t, &File{
		Package: "p",
		Decls: []Decl{{Name: "L", Value: expr.ListValue(typelist.Of(
			tags.GoType("example.com/a/geom", "Point", 16, 8),
			tags.GoType("example.com/b/geom", "Point", 8, 4),
		))}},
	})
	assert.Contains(t, out, `geom "example.com/a/geom"`)
	assert.Contains(t, out, `geom2 "example.com/b/geom"`)
	assert.Contains(t, out, "LAt1 = geom2.Point")
}

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.go")
	src := []byte("package p\n")

	ok, err := Check(path, src)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Write(path, src))
	ok, err = Check(path, src)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Check(path, []byte("package q\n"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.go")
	require.NoError(t, Write(path, []byte("package p\n\ntype A struct{}\n")))

	diff, err := Diff(path, []byte("package p\n\ntype A struct{}\n"))
	require.NoError(t, err)
	assert.Empty(t, diff)

	diff, err = Diff(path, []byte("package p\n\ntype B struct{}\n"))
	require.NoError(t, err)
	assert.Contains(t, diff, "--- "+path)
	assert.Contains(t, diff, "-type A struct{}")
	assert.Contains(t, diff, "+type B struct{}")
}
