package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/tags"
)

func TestResolveUniverse(t *testing.T) {
	r, err := New(Options{GOARCH: "amd64"})
	require.NoError(t, err)

	tests := []struct {
		name         string
		width, align int64
	}{
		{"int8", 1, 1},
		{"int16", 2, 2},
		{"int64", 8, 8},
		{"string", 16, 8},
		{"bool", 1, 1},
		{"complex128", 16, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := r.Resolve(context.Background(), tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, tag.Key())
			assert.Equal(t, tags.KindGoType, tag.Kind())
			assert.Equal(t, tt.width, tag.Width())
			assert.Equal(t, tt.align, tag.Align())
		})
	}
}

func TestResolveSizeModel(t *testing.T) {
	r, err := New(Options{GOARCH: "386"})
	require.NoError(t, err)
	tag, err := r.Resolve(context.Background(), "int")
	require.NoError(t, err)
	assert.Equal(t, int64(4), tag.Width())

	_, err = New(Options{GOARCH: "pdp11"})
	assert.True(t, tlerrors.Is(err, tlerrors.CategoryValidation))
}

func TestResolveUnknown(t *testing.T) {
	r, err := New(Options{GOARCH: "amd64"})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "int7")
	assert.True(t, tlerrors.Is(err, tlerrors.CategoryValidation), "got %v", err)
}

func TestResolvePackage(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}
	r, err := New(Options{GOARCH: "amd64"})
	require.NoError(t, err)

	got, err := r.ResolveAll(context.Background(), map[string]string{
		"dur":  "time.Duration",
		"when": "time.Time",
		"i8":   "int8",
	})
	require.NoError(t, err)
	assert.Equal(t, "time.Duration", got["dur"].Key())
	assert.Equal(t, int64(8), got["dur"].Width())
	assert.Equal(t, "time", got["when"].PkgPath())
	assert.Equal(t, int64(24), got["when"].Width())
	assert.Equal(t, int64(1), got["i8"].Width())

	_, err = r.Resolve(context.Background(), "time.notExported")
	assert.True(t, tlerrors.Is(err, tlerrors.CategoryValidation))
}
