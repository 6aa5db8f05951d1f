// Package resolver turns Go type names into tags, measuring their width and
// alignment with go/types so comparators can order real types the way they
// order abstract tags.
package resolver

import (
	"context"
	"fmt"
	"go/types"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/tools/go/packages"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/manifest"
	"github.com/orizon-lang/typelist/internal/tags"
)

// Options controls package loading.
type Options struct {
	// Dir is the working directory for go/packages; usually the manifest's.
	Dir string
	// GOARCH selects the size model. Empty means runtime.GOARCH.
	GOARCH string
	// BuildTags are passed to the go command.
	BuildTags []string
	// Concurrency bounds parallel package loads. <= 0 means GOMAXPROCS.
	Concurrency int
	Logger      zerolog.Logger
}

// Resolver loads each package at most once, even under concurrent requests.
type Resolver struct {
	opts  Options
	sizes types.Sizes

	sf    singleflight.Group
	mu    sync.Mutex
	cache map[string]*types.Package
}

// New creates a resolver for the size model of opts.GOARCH.
func New(opts Options) (*Resolver, error) {
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	sizes := types.SizesFor("gc", opts.GOARCH)
	if sizes == nil {
		return nil, tlerrors.Validation("BAD_GOARCH", fmt.Sprintf("no size model for GOARCH %q", opts.GOARCH))
	}
	return &Resolver{opts: opts, sizes: sizes, cache: make(map[string]*types.Package)}, nil
}

// Resolve returns the tag for a type name such as "int8" or
// "example.com/geom.Point".
func (r *Resolver) Resolve(ctx context.Context, typeName string) (tags.Tag, error) {
	pkgPath, name := manifest.SplitTypeName(typeName)
	if pkgPath == "" {
		obj, ok := types.Universe.Lookup(name).(*types.TypeName)
		if !ok {
			return tags.Tag{}, tlerrors.Validation("UNKNOWN_TYPE", fmt.Sprintf("%q is not a predeclared type", name))
		}
		return r.measure("", obj)
	}

	pkg, err := r.load(ctx, pkgPath)
	if err != nil {
		return tags.Tag{}, err
	}
	obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok || !obj.Exported() {
		return tags.Tag{}, tlerrors.Validation("UNKNOWN_TYPE", fmt.Sprintf("%s has no exported type %s", pkgPath, name))
	}
	return r.measure(pkgPath, obj)
}

// ResolveAll resolves a name → type-name table concurrently.
func (r *Resolver) ResolveAll(ctx context.Context, bindings map[string]string) (map[string]tags.Tag, error) {
	names := make([]string, 0, len(bindings))
	for n := range bindings {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make(map[string]tags.Tag, len(bindings))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for _, name := range names {
		name := name
		g.Go(func() error {
			t, err := r.Resolve(gctx, bindings[name])
			if err != nil {
				return fmt.Errorf("type %s (%s): %w", name, bindings[name], err)
			}
			mu.Lock()
			out[name] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) measure(pkgPath string, obj *types.TypeName) (tags.Tag, error) {
	t := obj.Type()
	if named, ok := t.(*types.Named); ok && named.TypeParams().Len() > 0 {
		return tags.Tag{}, tlerrors.ShapeMismatch("resolve", "non-generic type", obj.Name()+" has type parameters")
	}
	return tags.GoType(pkgPath, obj.Name(), r.sizes.Sizeof(t), r.sizes.Alignof(t)), nil
}

func (r *Resolver) load(ctx context.Context, pkgPath string) (*types.Package, error) {
	r.mu.Lock()
	if pkg, ok := r.cache[pkgPath]; ok {
		r.mu.Unlock()
		return pkg, nil
	}
	r.mu.Unlock()

	v, err, shared := r.sf.Do(pkgPath, func() (interface{}, error) {
		r.opts.Logger.Debug().Str("package", pkgPath).Str("goarch", r.opts.GOARCH).Msg("loading package")
		cfg := &packages.Config{
			Context: ctx,
			Dir:     r.opts.Dir,
			Mode:    packages.NeedName | packages.NeedTypes | packages.NeedTypesSizes,
			Env:     append(os.Environ(), "GOARCH="+r.opts.GOARCH),
		}
		if len(r.opts.BuildTags) > 0 {
			cfg.BuildFlags = append(cfg.BuildFlags, "-tags="+strings.Join(r.opts.BuildTags, ","))
		}
		pkgs, err := packages.Load(cfg, pkgPath)
		if err != nil {
			return nil, tlerrors.System("LOAD_FAILED", fmt.Sprintf("loading %s: %v", pkgPath, err))
		}
		if len(pkgs) != 1 || pkgs[0].Types == nil {
			return nil, tlerrors.Validation("UNKNOWN_PACKAGE", fmt.Sprintf("package %s not found", pkgPath))
		}
		if len(pkgs[0].Errors) > 0 {
			return nil, tlerrors.Validation("BAD_PACKAGE", fmt.Sprintf("package %s: %v", pkgPath, pkgs[0].Errors[0]))
		}

		r.mu.Lock()
		r.cache[pkgPath] = pkgs[0].Types
		r.mu.Unlock()
		return pkgs[0].Types, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.opts.Logger.Debug().Str("package", pkgPath).Msg("shared package load")
	}
	return v.(*types.Package), nil
}
