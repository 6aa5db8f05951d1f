// Package manifest loads and validates typelist manifests: the YAML files that
// declare tags, bind Go types, and name the list expressions to freeze into
// generated code.
package manifest

import (
	stderrors "errors"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	yamltoken "github.com/goccy/go-yaml/token"
	"golang.org/x/mod/module"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/position"
)

// SupportedVersions is the range of manifest schema versions this tool reads.
const SupportedVersions = ">= 1.0, < 2.0"

// DefaultOutput is used when a manifest names no output file.
const DefaultOutput = "typelist_gen.go"

// Manifest is one generation unit.
type Manifest struct {
	Version string             `yaml:"version"`
	Package string             `yaml:"package"`
	Output  string             `yaml:"output"`
	Sources []string           `yaml:"sources"`
	GOARCH  string             `yaml:"goarch"`
	Tags    map[string]TagDecl `yaml:"tags"`
	Types   map[string]string  `yaml:"types"`
	Maps    map[string]MapDecl `yaml:"maps"`
	Lists   []ListDecl         `yaml:"lists"`
	Asserts []AssertDecl       `yaml:"asserts"`

	// Path is the file the manifest was read from.
	Path string `yaml:"-"`
}

// TagDecl declares an abstract tag and the attributes comparators may read.
type TagDecl struct {
	Width int64  `yaml:"width"`
	Align int64  `yaml:"align"`
	Doc   string `yaml:"doc"`
}

// MapDecl declares a lookup mapper for transform. Each case maps a tag name
// to a list expression; markers without a case go through Default, a mapper
// expression (wrap when empty).
type MapDecl struct {
	Cases   map[string]string `yaml:"cases"`
	Default string            `yaml:"default"`

	CaseOrigins   map[string]position.Origin `yaml:"-"`
	DefaultOrigin position.Origin            `yaml:"-"`
}

// ListDecl names an expression whose value is frozen into generated code.
type ListDecl struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
	Doc  string `yaml:"doc"`

	Origin position.Origin `yaml:"-"`
}

// AssertDecl is a static assertion. Without Fails the expression must
// evaluate to true; with Fails it must be ill-formed with that category.
type AssertDecl struct {
	Expr  string `yaml:"expr"`
	Fails string `yaml:"fails"`

	Origin position.Origin `yaml:"-"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes and validates manifest data. path is used for positions and
// to resolve the output file.
func Parse(path string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, tlerrors.Validation("BAD_YAML", err.Error()))
	}
	m.Path = path

	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, tlerrors.Validation("BAD_YAML", err.Error()))
	}
	m.locate(file)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// locate records where each expression sits in the file.
func (m *Manifest) locate(file *ast.File) {
	origin := func(p string) position.Origin {
		o := position.Origin{Filename: m.Path, Line: 1, Column: 1}
		yp, err := yaml.PathString(p)
		if err != nil {
			return o
		}
		node, err := yp.FilterFile(file)
		if err != nil || node == nil {
			return o
		}
		tok := node.GetToken()
		if tok == nil || tok.Position == nil {
			return o
		}
		o.Line, o.Column = tok.Position.Line, tok.Position.Column
		if tok.Type == yamltoken.DoubleQuoteType || tok.Type == yamltoken.SingleQuoteType {
			o.Column++
		}
		return o
	}
	for i := range m.Lists {
		m.Lists[i].Origin = origin(fmt.Sprintf("$.lists[%d].expr", i))
	}
	for i := range m.Asserts {
		m.Asserts[i].Origin = origin(fmt.Sprintf("$.asserts[%d].expr", i))
	}
	for name, md := range m.Maps {
		md.CaseOrigins = make(map[string]position.Origin, len(md.Cases))
		for k := range md.Cases {
			md.CaseOrigins[k] = origin(fmt.Sprintf("$.maps.%s.cases.%s", name, k))
		}
		md.DefaultOrigin = origin(fmt.Sprintf("$.maps.%s.default", name))
		m.Maps[name] = md
	}
}

// Validate checks every entry and returns all problems joined.
func (m *Manifest) Validate() error {
	var errs []error
	bad := func(code, format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s: %w", m.Path, tlerrors.Validation(code, fmt.Sprintf(format, args...))))
	}

	if err := checkVersion(m.Version); err != nil {
		bad("BAD_VERSION", "%v", err)
	}
	if !token.IsIdentifier(m.Package) {
		bad("BAD_PACKAGE", "package %q is not a Go identifier", m.Package)
	}
	if m.Output != "" && filepath.Ext(m.Output) != ".go" {
		bad("BAD_OUTPUT", "output %q must be a .go file", m.Output)
	}

	names := make(map[string]string)
	claim := func(name, what string) {
		if prev, dup := names[name]; dup {
			bad("DUPLICATE_NAME", "%s %q clashes with %s of the same name", what, name, prev)
			return
		}
		names[name] = what
	}

	for _, name := range sortedKeys(m.Tags) {
		claim(name, "tag")
		if !token.IsIdentifier(name) {
			bad("BAD_TAG", "tag %q is not an identifier", name)
		} else if types.Universe.Lookup(name) != nil {
			bad("BAD_TAG", "tag %q shadows a predeclared Go identifier", name)
		}
		if d := m.Tags[name]; d.Width < 0 || d.Align < 0 {
			bad("BAD_TAG", "tag %q has a negative width or align", name)
		}
	}
	for _, name := range sortedKeys(m.Types) {
		claim(name, "type")
		if !token.IsIdentifier(name) {
			bad("BAD_TYPE", "type binding %q is not an identifier", name)
		}
		pkgPath, typeName := SplitTypeName(m.Types[name])
		if !token.IsIdentifier(typeName) {
			bad("BAD_TYPE", "type %q of %q does not end in a type name", m.Types[name], name)
		}
		if pkgPath != "" {
			if err := module.CheckImportPath(pkgPath); err != nil {
				bad("BAD_TYPE", "type %q of %q: %v", m.Types[name], name, err)
			}
		}
	}
	for _, name := range sortedKeys(m.Maps) {
		claim(name, "map")
		if !token.IsIdentifier(name) {
			bad("BAD_MAP", "map %q is not an identifier", name)
		}
		for k := range m.Maps[name].Cases {
			if _, ok := m.Tags[k]; !ok {
				if _, ok := m.Types[k]; !ok {
					bad("BAD_MAP", "map %q has a case for undeclared tag %q", name, k)
				}
			}
		}
	}
	for _, l := range m.Lists {
		claim(l.Name, "list")
		if !token.IsIdentifier(l.Name) || !token.IsExported(l.Name) {
			bad("BAD_LIST", "list name %q must be an exported Go identifier", l.Name)
		}
		if strings.TrimSpace(l.Expr) == "" {
			bad("BAD_LIST", "list %q has no expression", l.Name)
		}
	}
	for i, a := range m.Asserts {
		if strings.TrimSpace(a.Expr) == "" {
			bad("BAD_ASSERT", "assert #%d has no expression", i+1)
		}
		if a.Fails != "" {
			if _, ok := tlerrors.ParseCategory(a.Fails); !ok {
				bad("BAD_ASSERT", "assert #%d expects unknown failure %q", i+1, a.Fails)
			}
		}
	}

	return stderrors.Join(errs...)
}

// OutputPath resolves the generated file relative to the manifest.
func (m *Manifest) OutputPath() string {
	out := m.Output
	if out == "" {
		out = DefaultOutput
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(filepath.Dir(m.Path), out)
}

// Dir is the directory holding the manifest; source patterns are relative to it.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// SplitTypeName splits "example.com/geom.Point" into its import path and name.
// Predeclared types have an empty import path.
func SplitTypeName(s string) (pkgPath, name string) {
	i := strings.LastIndex(s, ".")
	if i < 0 || strings.LastIndex(s, "/") > i {
		return "", s
	}
	return s[:i], s[i+1:]
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("version is required")
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("version %q: %w", v, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(ver) {
		return fmt.Errorf("version %s is outside the supported range %s", ver, SupportedVersions)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
