package expr

import (
	"fmt"
	"sort"

	"github.com/orizon-lang/typelist/internal/diagnostic"
	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/position"
	"github.com/orizon-lang/typelist/internal/tags"
)

// Source is the text of one expression and where it sits in its manifest.
type Source struct {
	Text   string
	Origin position.Origin
}

// Env holds the tags and named values an expression may refer to.
type Env struct {
	reg    *tags.Registry
	values map[string]Value
	used   map[string]bool
}

// NewEnv creates an environment over a filled registry. The registry is
// frozen: evaluation never declares new names.
func NewEnv(reg *tags.Registry) *Env {
	reg.Freeze()
	return &Env{reg: reg, values: make(map[string]Value), used: make(map[string]bool)}
}

// Registry returns the tag registry of the environment.
func (e *Env) Registry() *tags.Registry { return e.reg }

// Define binds name to v for later expressions.
func (e *Env) Define(name string, v Value) error {
	if _, ok := e.values[name]; ok {
		return tlerrors.Validation("DUPLICATE_NAME", fmt.Sprintf("%q is defined twice", name))
	}
	if _, ok := e.reg.Lookup(name); ok {
		return tlerrors.Validation("DUPLICATE_NAME", fmt.Sprintf("%q is already a tag", name))
	}
	if _, ok := builtins[name]; ok {
		return tlerrors.Validation("RESERVED_NAME", fmt.Sprintf("%q is a built-in", name))
	}
	if _, ok := constants[name]; ok {
		return tlerrors.Validation("RESERVED_NAME", fmt.Sprintf("%q is a built-in", name))
	}
	e.values[name] = v
	return nil
}

// Lookup returns the value bound to name by Define.
func (e *Env) Lookup(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Used reports whether an evaluated expression has referred to the defined
// name.
func (e *Env) Used(name string) bool { return e.used[name] }

// Names returns every defined name in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for n := range e.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Eval parses and evaluates src. Any failure is returned as a
// *diagnostic.Diagnostic pinned to the offending operation.
func (e *Env) Eval(src Source) (Value, error) {
	n, err := Parse(src.Text)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			return Value{}, diagnostic.NewDiagnostic().
				Error().
				Category(tlerrors.CategoryValidation).
				Title("Syntax error").
				Message(se.Msg).
				Span(src.Origin.Span(se.Offset, se.End)).
				Source(src.Text).
				Cause(err).
				Build()
		}
		return Value{}, err
	}
	ev := &evaluator{env: e, src: src}
	return ev.eval(n)
}

// Compile evaluates src and requires a value of the given kind.
func (e *Env) Compile(src Source, want Kind) (Value, error) {
	v, err := e.Eval(src)
	if err != nil {
		return Value{}, err
	}
	if v.Kind != want {
		return Value{}, diagnostic.FromError(
			tlerrors.ShapeMismatch("expression", want.String(), v.Kind.String()),
			src.Origin.Span(0, len(src.Text)), src.Text)
	}
	return v, nil
}

type evaluator struct {
	env *Env
	src Source
}

func (ev *evaluator) span(n Node) position.Span {
	start, end := n.Range()
	return ev.src.Origin.Span(start, end)
}

// fail pins err to n unless it already carries a position.
func (ev *evaluator) fail(n Node, err error) error {
	if d, ok := err.(*diagnostic.Diagnostic); ok {
		return d
	}
	return diagnostic.FromError(err, ev.span(n), ev.src.Text)
}

func (ev *evaluator) eval(n Node) (Value, error) {
	switch n := n.(type) {
	case *IntLit:
		return IntValue(n.Value), nil
	case *Ident:
		return ev.ident(n)
	case *Unary:
		return ev.unary(n)
	case *Binary:
		return ev.binary(n)
	case *Call:
		return ev.call(n)
	}
	return Value{}, ev.fail(n, tlerrors.System("UNKNOWN_NODE", fmt.Sprintf("unknown node %T", n)))
}

func (ev *evaluator) ident(n *Ident) (Value, error) {
	if v, ok := ev.env.values[n.Name]; ok {
		ev.env.used[n.Name] = true
		return v, nil
	}
	if t, ok := ev.env.reg.Lookup(n.Name); ok {
		return TagValue(t), nil
	}
	if c, ok := constants[n.Name]; ok {
		return c(ev), nil
	}
	if _, ok := builtins[n.Name]; ok {
		return Value{}, ev.fail(n, tlerrors.Validation("MISSING_CALL", fmt.Sprintf("%s must be called with arguments", n.Name)))
	}
	return Value{}, ev.fail(n, tlerrors.Validation("UNDEFINED_NAME", fmt.Sprintf("undefined name %q", n.Name)))
}

func (ev *evaluator) operandList(n Node, op string) (tags.List, error) {
	v, err := ev.eval(n)
	if err != nil {
		return tags.List{}, err
	}
	if v.Kind != KindList {
		return tags.List{}, ev.fail(n, tlerrors.ShapeMismatch(op, "list", v.Kind.String()))
	}
	return v.List, nil
}

func (ev *evaluator) unary(n *Unary) (Value, error) {
	var op string
	switch {
	case n.Op == TokenStar:
		op = "front_slice"
	case n.Op == TokenBang:
		op = "back_slice"
	case n.Op == TokenTilde:
		op = "reverse"
	case n.Op == TokenDecrement && n.Postfix:
		op = "pop_back"
	default:
		op = "pop_front"
	}
	l, err := ev.operandList(n.X, op)
	if err != nil {
		return Value{}, err
	}
	var out tags.List
	switch op {
	case "front_slice":
		out, err = l.FrontSlice()
	case "back_slice":
		out, err = l.BackSlice()
	case "reverse":
		out = l.Reverse()
	case "pop_back":
		out, err = l.PopBack()
	default:
		out, err = l.PopFront()
	}
	if err != nil {
		return Value{}, ev.fail(n, err)
	}
	return ListValue(out), nil
}

func (ev *evaluator) binary(n *Binary) (Value, error) {
	if n.Op == TokenPlus {
		x, err := ev.operandList(n.X, "concat")
		if err != nil {
			return Value{}, err
		}
		y, err := ev.operandList(n.Y, "concat")
		if err != nil {
			return Value{}, err
		}
		out, err := x.Concat(y)
		if err != nil {
			return Value{}, ev.fail(n, err)
		}
		return ListValue(out), nil
	}
	x, err := ev.eval(n.X)
	if err != nil {
		return Value{}, err
	}
	y, err := ev.eval(n.Y)
	if err != nil {
		return Value{}, err
	}
	same := Same(x, y)
	if n.Op == TokenNotEqual {
		return BoolValue(!same), nil
	}
	return BoolValue(same), nil
}

func (ev *evaluator) call(n *Call) (Value, error) {
	b, ok := builtins[n.Func]
	if !ok {
		if v, defined := ev.env.values[n.Func]; defined {
			return Value{}, ev.fail(n, tlerrors.ShapeMismatch(n.Func, "function", v.Kind.String()))
		}
		return Value{}, ev.fail(n, tlerrors.Validation("UNKNOWN_FUNCTION", fmt.Sprintf("unknown function %q", n.Func)))
	}
	if len(n.Args) < b.min || (b.max >= 0 && len(n.Args) > b.max) {
		want := fmt.Sprintf("%d", b.min)
		if b.max != b.min {
			want = fmt.Sprintf("%d to %d", b.min, b.max)
			if b.max < 0 {
				want = fmt.Sprintf("at least %d", b.min)
			}
		}
		return Value{}, ev.fail(n, tlerrors.ArityMismatch(n.Func, fmt.Sprintf("takes %s arguments, got %d", want, len(n.Args))))
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.eval(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	v, err := b.fn(&callCtx{ev: ev, node: n, args: args})
	if err != nil {
		return Value{}, ev.fail(n, err)
	}
	return v, nil
}
