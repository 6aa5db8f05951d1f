// Package generator runs the typelist pipeline for one or more manifests:
// load, resolve markers, evaluate lists and assertions, render, write.
package generator

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/typelist/internal/codegen"
	"github.com/orizon-lang/typelist/internal/diagnostic"
	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/expr"
	"github.com/orizon-lang/typelist/internal/manifest"
	"github.com/orizon-lang/typelist/internal/position"
	"github.com/orizon-lang/typelist/internal/resolver"
	"github.com/orizon-lang/typelist/internal/tags"
)

// Options controls a generation run.
type Options struct {
	// Check compares instead of writing; a stale output is an error.
	Check bool
	// GOARCH overrides the manifest's size model.
	GOARCH    string
	BuildTags []string
	// MaxErrors caps diagnostics per manifest. <= 0 means unlimited.
	MaxErrors int
	// Concurrency bounds how many manifests run at once. <= 0 means GOMAXPROCS.
	Concurrency int
	Logger      zerolog.Logger
}

// Failure is returned when a manifest has error diagnostics.
type Failure struct {
	Manifest    string
	Diagnostics *diagnostic.DiagnosticEngine
}

func (f *Failure) Error() string { return f.Diagnostics.FormatDiagnostics() }

// Unwrap exposes the first error diagnostic, and through it the contract error.
func (f *Failure) Unwrap() error { return f.Diagnostics.Err() }

// Generate runs the pipeline for the manifest at path.
func Generate(ctx context.Context, path string, opts Options) (*Report, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return &Report{Manifest: path}, err
	}
	return GenerateManifest(ctx, m, opts)
}

// GenerateAll runs every manifest, at most opts.Concurrency at a time. Reports
// come back in input order; errors of all manifests are joined.
func GenerateAll(ctx context.Context, paths []string, opts Options) ([]*Report, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	reports := make([]*Report, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			reports[i], errs[i] = Generate(gctx, p, opts)
			// One bad manifest must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()
	return reports, stderrors.Join(errs...)
}

// GenerateManifest runs the pipeline for an already loaded manifest.
func GenerateManifest(ctx context.Context, m *manifest.Manifest, opts Options) (*Report, error) {
	start := time.Now()
	log := opts.Logger.With().Str("manifest", m.Path).Logger()
	report := &Report{Manifest: m.Path, Package: m.Package, Output: m.OutputPath()}
	defer func() { report.Duration = time.Since(start) }()

	diags := diagnostic.NewDiagnosticEngine(opts.MaxErrors)
	fail := func() (*Report, error) {
		report.addProblems(diags)
		return report, &Failure{Manifest: m.Path, Diagnostics: diags}
	}

	reg, abstract, err := declareTags(ctx, m, opts, log)
	if err != nil {
		diags.AddDiagnostic(diagnostic.FromError(err, manifestSpan(m), ""))
		return fail()
	}
	env := expr.NewEnv(reg)

	unemitted := defineMaps(env, m, diags)

	var decls []codegen.Decl
	for _, l := range m.Lists {
		src := expr.Source{Text: l.Expr, Origin: l.Origin}
		v, err := env.Eval(src)
		if err != nil {
			diags.AddDiagnostic(diagnostic.FromError(err, exprSpan(src), l.Expr))
			continue
		}
		if err := env.Define(l.Name, v); err != nil {
			diags.AddDiagnostic(diagnostic.FromError(err, exprSpan(src), l.Expr))
			continue
		}
		log.Debug().Str("list", l.Name).Stringer("value", v).Msg("evaluated")

		switch v.Kind {
		case expr.KindList, expr.KindTag, expr.KindInt, expr.KindBool:
			decls = append(decls, codegen.Decl{Name: l.Name, Doc: l.Doc, Value: v})
			report.Lists = append(report.Lists, listReport(l.Name, v))
		default:
			// Function values only serve later expressions.
			log.Debug().Str("list", l.Name).Stringer("kind", v.Kind).Msg("not emitted")
			unemitted = append(unemitted, unused{name: l.Name, kind: v.Kind.String(), span: exprSpan(src)})
		}
	}

	for _, a := range m.Asserts {
		if d := checkAssert(env, a); d != nil {
			diags.AddDiagnostic(d)
		}
		report.Asserts++
	}

	for _, u := range unemitted {
		if !env.Used(u.name) {
			diags.AddDiagnostic(unusedWarning(u))
		}
	}

	if diags.HasErrors() {
		return fail()
	}
	report.addProblems(diags)
	for _, p := range report.Problems {
		log.Warn().Str("at", p.Position).Msg(p.Message)
	}

	src, err := codegen.Render(&codegen.File{
		Package:  m.Package,
		Source:   filepath.Base(m.Path),
		Tags:     abstract,
		TagDocs:  tagDocs(m),
		Decls:    decls,
		Registry: reg,
	})
	if err != nil {
		diags.AddDiagnostic(diagnostic.FromError(err, manifestSpan(m), ""))
		return fail()
	}

	upToDate, err := codegen.Check(report.Output, src)
	if err != nil {
		return report, fmt.Errorf("reading %s: %w", report.Output, err)
	}
	report.UpToDate = upToDate
	switch {
	case upToDate:
		log.Debug().Str("output", report.Output).Msg("up to date")
	case opts.Check:
		diff, err := codegen.Diff(report.Output, src)
		if err != nil {
			return report, fmt.Errorf("diffing %s: %w", report.Output, err)
		}
		report.Diff = diff
		return report, tlerrors.Validation("STALE_OUTPUT", fmt.Sprintf("%s is out of date with %s", report.Output, m.Path))
	default:
		if err := codegen.Write(report.Output, src); err != nil {
			return report, fmt.Errorf("writing %s: %w", report.Output, err)
		}
		report.Written = true
		log.Info().Str("output", report.Output).Int("lists", len(report.Lists)).Msg("generated")
	}
	return report, nil
}

// declareTags fills the registry: abstract tags first, then resolved Go types.
// It returns the abstract tags in name order for rendering.
func declareTags(ctx context.Context, m *manifest.Manifest, opts Options, log zerolog.Logger) (*tags.Registry, []tags.Tag, error) {
	reg := tags.NewRegistry()
	var abstract []tags.Tag
	for _, name := range sortedKeys(m.Tags) {
		d := m.Tags[name]
		t := tags.Abstract(name, d.Width, d.Align)
		if err := reg.Declare(name, t); err != nil {
			return nil, nil, err
		}
		abstract = append(abstract, t)
	}
	if len(m.Types) == 0 {
		return reg, abstract, nil
	}

	goarch := opts.GOARCH
	if goarch == "" {
		goarch = m.GOARCH
	}
	res, err := resolver.New(resolver.Options{
		Dir:         m.Dir(),
		GOARCH:      goarch,
		BuildTags:   opts.BuildTags,
		Concurrency: opts.Concurrency,
		Logger:      log,
	})
	if err != nil {
		return nil, nil, err
	}
	resolved, err := res.ResolveAll(ctx, m.Types)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range sortedKeys(resolved) {
		if err := reg.Declare(name, resolved[name]); err != nil {
			return nil, nil, err
		}
	}
	return reg, abstract, nil
}

// unused is a defined name that generates no code, so it is only useful when
// another expression refers to it.
type unused struct {
	name string
	kind string
	span position.Span
}

func unusedWarning(u unused) *diagnostic.Diagnostic {
	return diagnostic.NewDiagnostic().
		Warning().
		Category(tlerrors.CategoryValidation).
		Title("Unused definition").
		Message(fmt.Sprintf("%s %s is never referenced and generates no code", u.kind, u.name)).
		Span(u.span).
		Build()
}

// defineMaps binds every manifest map as a lookup mapper and returns the
// maps it bound.
func defineMaps(env *expr.Env, m *manifest.Manifest, diags *diagnostic.DiagnosticEngine) []unused {
	var bound []unused
	for _, name := range sortedKeys(m.Maps) {
		md := m.Maps[name]
		ok := true

		cases := make(map[tags.Tag]tags.List, len(md.Cases))
		for _, k := range sortedKeys(md.Cases) {
			src := expr.Source{Text: md.Cases[k], Origin: md.CaseOrigins[k]}
			v, err := env.Compile(src, expr.KindList)
			if err != nil {
				diags.AddDiagnostic(diagnostic.FromError(err, exprSpan(src), src.Text))
				ok = false
				continue
			}
			t, _ := env.Registry().Lookup(k)
			cases[t] = v.List
		}

		def := md.Default
		if def == "" {
			def = "wrap"
		}
		src := expr.Source{Text: def, Origin: md.DefaultOrigin}
		dv, err := env.Compile(src, expr.KindMapper)
		if err != nil {
			diags.AddDiagnostic(diagnostic.FromError(err, exprSpan(src), src.Text))
			ok = false
		}
		if !ok {
			continue
		}
		if err := env.Define(name, expr.LookupMapper(name, cases, dv.Map)); err != nil {
			diags.AddDiagnostic(diagnostic.FromError(err, exprSpan(src), src.Text))
			continue
		}
		bound = append(bound, unused{name: name, kind: "map", span: mapSpan(m, md)})
	}
	return bound
}

// mapSpan points at a map's default, else its first case, else the manifest.
func mapSpan(m *manifest.Manifest, md manifest.MapDecl) position.Span {
	if md.Default != "" {
		return md.DefaultOrigin.Span(0, len(md.Default))
	}
	for _, k := range sortedKeys(md.Cases) {
		if o := md.CaseOrigins[k]; o.Line > 0 {
			return o.Span(0, len(md.Cases[k]))
		}
	}
	return manifestSpan(m)
}

// checkAssert returns a diagnostic when a does not hold.
func checkAssert(env *expr.Env, a manifest.AssertDecl) *diagnostic.Diagnostic {
	src := expr.Source{Text: a.Expr, Origin: a.Origin}
	v, err := env.Eval(src)

	if a.Fails != "" {
		want, _ := tlerrors.ParseCategory(a.Fails)
		if err == nil {
			return assertFailed(src, fmt.Sprintf("expected %s, but the expression is well-formed (%s)", want.CamelName(), v))
		}
		got, ok := failureCategory(err)
		if !ok || got != want {
			return assertFailed(src, fmt.Sprintf("expected %s, got: %v", want.CamelName(), err))
		}
		return nil
	}

	if err != nil {
		return diagnostic.FromError(err, exprSpan(src), a.Expr)
	}
	if v.Kind != expr.KindBool {
		return diagnostic.FromError(tlerrors.ShapeMismatch("assert", "bool", v.Kind.String()), exprSpan(src), a.Expr)
	}
	if !v.Bool {
		return assertFailed(src, "expression is false")
	}
	return nil
}

// failureCategory prefers the diagnostic's own category: syntax errors carry
// one without a contract error behind them.
func failureCategory(err error) (tlerrors.ErrorCategory, bool) {
	var d *diagnostic.Diagnostic
	if stderrors.As(err, &d) && d.Category != "" {
		return d.Category, true
	}
	return tlerrors.CategoryOf(err)
}

func assertFailed(src expr.Source, msg string) *diagnostic.Diagnostic {
	return diagnostic.NewDiagnostic().
		Error().
		Category(tlerrors.CategoryValidation).
		Title("Assertion failed").
		Message(msg).
		Span(exprSpan(src)).
		Source(src.Text).
		Build()
}

func exprSpan(src expr.Source) position.Span {
	return src.Origin.Span(0, len(src.Text))
}

func manifestSpan(m *manifest.Manifest) position.Span {
	p := position.Position{Filename: m.Path, Line: 1, Column: 1}
	return position.Span{Start: p, End: p}
}

func tagDocs(m *manifest.Manifest) map[string]string {
	docs := make(map[string]string)
	for name, d := range m.Tags {
		if d.Doc != "" {
			docs[name] = d.Doc
		}
	}
	return docs
}
