// Package tags defines the markers held by type lists: abstract tags declared
// in a manifest, Go types resolved from source, and nested lists.
package tags

import (
	"fmt"
	"sort"
	"strings"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/typelist"
)

// Kind distinguishes how a tag was declared.
type Kind int

const (
	KindAbstract Kind = iota
	KindGoType
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindAbstract:
		return "abstract"
	case KindGoType:
		return "go"
	case KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Tag is a zero-size marker identified by its kind and canonical key. Width
// and Align are attributes for comparators only; they never take part in
// identity beyond being fixed per key.
type Tag struct {
	id      string
	key     string
	name    string
	pkgPath string
	width   int64
	align   int64
	kind    Kind
}

// List is a list of tags.
type List = typelist.List[Tag]

// Abstract declares a tag that exists only in the manifest.
func Abstract(name string, width, align int64) Tag {
	if align <= 0 {
		align = 1
	}
	return Tag{id: ident(KindAbstract, name), key: name, name: name, width: width, align: align, kind: KindAbstract}
}

// GoType declares a tag for a named Go type. pkgPath is empty for
// predeclared types.
func GoType(pkgPath, name string, width, align int64) Tag {
	key := name
	if pkgPath != "" {
		key = pkgPath + "." + name
	}
	return Tag{id: ident(KindGoType, key), key: key, name: name, pkgPath: pkgPath, width: width, align: align, kind: KindGoType}
}

// ident qualifies key with kind, so an abstract tag and a Go type that share
// a spelling stay distinct inside nested lists.
func ident(k Kind, key string) string {
	return k.String() + ":" + key
}

// Nested wraps a list as a single marker. Two nested tags are identical iff
// their lists are; Key is only the display form.
func Nested(l List) Tag {
	key := "[" + strings.Join(typelist.Map(l, Tag.Key).Slots(), " ") + "]"
	id := "[" + strings.Join(typelist.Map(l, func(t Tag) string { return t.id }).Slots(), " ") + "]"
	return Tag{id: id, key: key, name: key, width: 0, align: 1, kind: KindNested}
}

func (t Tag) Key() string     { return t.key }
func (t Tag) Name() string    { return t.name }
func (t Tag) PkgPath() string { return t.pkgPath }
func (t Tag) Width() int64    { return t.width }
func (t Tag) Align() int64    { return t.align }
func (t Tag) Kind() Kind      { return t.kind }

func (t Tag) String() string { return t.key }

// Registry maps manifest names to tags. It is filled once and then only read.
type Registry struct {
	byName map[string]Tag
	nested map[string]List
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tag), nested: make(map[string]List)}
}

// Declare binds name to tag.
func (r *Registry) Declare(name string, tag Tag) error {
	if r.frozen {
		return tlerrors.Validation("REGISTRY_FROZEN", fmt.Sprintf("cannot declare %q after evaluation started", name))
	}
	if _, dup := r.byName[name]; dup {
		return tlerrors.Validation("DUPLICATE_TAG", fmt.Sprintf("tag %q declared twice", name))
	}
	r.byName[name] = tag
	return nil
}

// Freeze rejects further declarations.
func (r *Registry) Freeze() { r.frozen = true }

// Lookup returns the tag bound to name.
func (r *Registry) Lookup(name string) (Tag, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns every declared name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Nest forms the nested tag for l and remembers l so it can be unwrapped.
func (r *Registry) Nest(l List) Tag {
	t := Nested(l)
	r.nested[t.id] = l
	return t
}

// Unnest returns the list wrapped by a nested tag.
func (r *Registry) Unnest(t Tag) (List, bool) {
	if t.kind != KindNested {
		return List{}, false
	}
	l, ok := r.nested[t.id]
	return l, ok
}
