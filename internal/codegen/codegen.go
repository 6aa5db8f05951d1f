// Package codegen renders evaluated lists as Go source: a defined zero-size
// struct type per list whose field types spell out its markers. Two generated
// lists have identical underlying types, and so convert to each other,
// exactly when they hold the same markers in the same order.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/expr"
	"github.com/orizon-lang/typelist/internal/tags"
	"github.com/orizon-lang/typelist/internal/typelist"
)

// Header opens every generated file.
const Header = "// Code generated by typelistgen. DO NOT EDIT."

// File is everything rendered into one output file.
type File struct {
	Package string
	// Source is the manifest path, shown in the header.
	Source string
	// Tags are the abstract tags to declare, in output order.
	Tags    []tags.Tag
	TagDocs map[string]string
	Decls   []Decl
	// Registry unwraps nested tags.
	Registry *tags.Registry
}

// Decl is one named manifest result.
type Decl struct {
	Name  string
	Doc   string
	Value expr.Value
}

type renderer struct {
	f       *File
	buf     bytes.Buffer
	imports map[string]string // import path -> local name
	used    map[string]bool   // local names in use
	names   map[string]string // top-level identifiers -> what declared them
}

// Render returns the gofmt'ed source of f.
func Render(f *File) ([]byte, error) {
	r := &renderer{
		f:       f,
		imports: make(map[string]string),
		used:    make(map[string]bool),
		names:   make(map[string]string),
	}

	var body bytes.Buffer
	if err := r.body(&body); err != nil {
		return nil, err
	}

	fmt.Fprintf(&r.buf, "%s\n", Header)
	if f.Source != "" {
		fmt.Fprintf(&r.buf, "// Source: %s\n", f.Source)
	}
	fmt.Fprintf(&r.buf, "\npackage %s\n\n", f.Package)
	if len(r.imports) > 0 {
		paths := make([]string, 0, len(r.imports))
		for p := range r.imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		r.buf.WriteString("import (\n")
		for _, p := range paths {
			fmt.Fprintf(&r.buf, "\t%s %s\n", r.imports[p], strconv.Quote(p))
		}
		r.buf.WriteString(")\n\n")
	}
	r.buf.Write(body.Bytes())

	src, err := format.Source(r.buf.Bytes())
	if err != nil {
		e := tlerrors.System("FORMAT_FAILED", fmt.Sprintf("formatting generated code: %v", err))
		e.Context = map[string]interface{}{"source": r.buf.String()}
		return nil, e
	}
	return src, nil
}

func (r *renderer) body(w *bytes.Buffer) error {
	for _, t := range r.f.Tags {
		if err := r.claim(t.Name(), "tag"); err != nil {
			return err
		}
		if doc := r.f.TagDocs[t.Name()]; doc != "" {
			writeDoc(w, t.Name(), doc)
		} else {
			fmt.Fprintf(w, "// %s is a marker tag (width %d, align %d).\n", t.Name(), t.Width(), t.Align())
		}
		fmt.Fprintf(w, "type %s struct{}\n\n", t.Name())
	}

	for _, d := range r.f.Decls {
		if err := r.decl(w, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) decl(w *bytes.Buffer, d Decl) error {
	if err := r.claim(d.Name, "list"); err != nil {
		return err
	}
	switch d.Value.Kind {
	case expr.KindList:
		l := d.Value.List
		if err := r.claim(d.Name+"Len", "list "+d.Name); err != nil {
			return err
		}
		writeDoc(w, d.Name, d.Doc)
		typ, err := r.listType(l)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "type %s %s\n\n", d.Name, typ)
		fmt.Fprintf(w, "// %sLen is the number of markers in %s.\n", d.Name, d.Name)
		fmt.Fprintf(w, "const %sLen = %d\n\n", d.Name, l.Size())
		if l.IsEmpty() {
			return nil
		}
		w.WriteString("type (\n")
		for i, t := range l.All() {
			alias := fmt.Sprintf("%sAt%d", d.Name, i)
			if err := r.claim(alias, "list "+d.Name); err != nil {
				return err
			}
			ts, err := r.tagType(t)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\t%s = %s\n", alias, ts)
		}
		w.WriteString(")\n\n")
	case expr.KindTag:
		writeDoc(w, d.Name, d.Doc)
		ts, err := r.tagType(d.Value.Tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "type %s = %s\n\n", d.Name, ts)
	case expr.KindInt, expr.KindBool:
		writeDoc(w, d.Name, d.Doc)
		fmt.Fprintf(w, "const %s = %s\n\n", d.Name, d.Value.String())
	default:
		return tlerrors.ShapeMismatch("generate "+d.Name, "list, tag, integer or bool", d.Value.Kind.String())
	}
	return nil
}

// listType spells l as a struct of zero-length arrays, one per marker.
func (r *renderer) listType(l tags.List) (string, error) {
	if l.IsEmpty() {
		return "struct{}", nil
	}
	var firstErr error
	fields := typelist.Map(l, func(t tags.Tag) string {
		ts, err := r.tagType(t)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return "_ [0]" + ts
	})
	if firstErr != nil {
		return "", firstErr
	}
	return "struct {\n" + strings.Join(fields.Slots(), "\n") + "\n}", nil
}

func (r *renderer) tagType(t tags.Tag) (string, error) {
	switch t.Kind() {
	case tags.KindAbstract:
		return t.Name(), nil
	case tags.KindGoType:
		if t.PkgPath() == "" {
			return t.Name(), nil
		}
		return r.importName(t.PkgPath()) + "." + t.Name(), nil
	case tags.KindNested:
		if r.f.Registry == nil {
			return "", tlerrors.Validation("NESTED_UNKNOWN", "no registry to unwrap "+t.Key())
		}
		inner, ok := r.f.Registry.Unnest(t)
		if !ok {
			return "", tlerrors.Validation("NESTED_UNKNOWN", "unknown nested list "+t.Key())
		}
		return r.listType(inner)
	}
	return "", tlerrors.Validation("BAD_TAG", "cannot render "+t.Key())
}

// importName returns the local name for pkgPath, adding a suffix when the
// last path element is already taken.
func (r *renderer) importName(pkgPath string) string {
	if n, ok := r.imports[pkgPath]; ok {
		return n
	}
	base := importBase(pkgPath)
	name := base
	for i := 2; r.used[name] || r.names[name] != ""; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	r.used[name] = true
	r.imports[pkgPath] = name
	return name
}

func importBase(pkgPath string) string {
	base := path.Base(pkgPath)
	// gopkg.in/yaml.v3 and example.com/foo/v2 style paths.
	if strings.HasPrefix(base, "v") {
		if _, err := strconv.Atoi(base[1:]); err == nil && base != pkgPath {
			base = path.Base(path.Dir(pkgPath))
		}
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	var b strings.Builder
	for _, c := range base {
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' && b.Len() > 0 {
			b.WriteRune(c)
		}
	}
	name := b.String()
	if name == "" || !token.IsIdentifier(name) {
		name = "pkg"
	}
	return name
}

func (r *renderer) claim(name, what string) error {
	if prev, ok := r.names[name]; ok {
		return tlerrors.Validation("NAME_CLASH", fmt.Sprintf("generated name %s of %s clashes with %s", name, what, prev))
	}
	r.names[name] = what
	return nil
}

func writeDoc(w *bytes.Buffer, name, doc string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return
	}
	if !strings.HasPrefix(doc, name+" ") {
		doc = name + ": " + doc
	}
	for _, line := range strings.Split(doc, "\n") {
		fmt.Fprintf(w, "// %s\n", strings.TrimRight(line, " "))
	}
}

// Check reports whether the file at filename already holds src.
func Check(filename string, src []byte) (bool, error) {
	cur, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(cur, src), nil
}

// Write stores src at filename.
func Write(filename string, src []byte) error {
	return os.WriteFile(filename, src, 0o644)
}

// Diff returns a unified diff from the file at filename to src, or "" when they
// match. A missing file diffs against the empty file.
func Diff(filename string, src []byte) (string, error) {
	cur, err := os.ReadFile(filename)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	if bytes.Equal(cur, src) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(cur)),
		B:        difflib.SplitLines(string(src)),
		FromFile: filename,
		ToFile:   filename + " (regenerated)",
		Context:  3,
	})
}
