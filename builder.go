package symbind

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/btree"
)

// NamePreference chooses which alias NameOf reports when several names
// are bound to the same known object.
type NamePreference int

const (
	NamePreferShortest NamePreference = iota
	NamePreferLongest
)

// ParseNamePreference accepts "shortest" or "longest".
func ParseNamePreference(s string) (NamePreference, error) {
	switch strings.ToLower(s) {
	case "", "shortest":
		return NamePreferShortest, nil
	case "longest":
		return NamePreferLongest, nil
	}
	return 0, fmt.Errorf("symbind: unknown name preference %q", s)
}

// Template is one concrete implementation of a KnownFunction: an open
// expression over placeholder variables.
type Template struct {
	fn     KnownFunction
	params []*Variable
	body   Expr
	size   int
	seq    int
}

func (t *Template) Function() KnownFunction { return t.fn }
func (t *Template) Body() Expr              { return t.body }
func (t *Template) Result() Type            { return t.body.Type() }

func (t *Template) Params() []*Variable {
	return append([]*Variable(nil), t.params...)
}

func (t *Template) ParamTypes() []Type {
	ts := make([]Type, len(t.params))
	for i, p := range t.params {
		ts[i] = p.Type()
	}
	return ts
}

// composite reports whether the template is built from nested operations
// rather than a single node over its placeholders.
func (t *Template) composite() bool { return t.size > 1+len(t.params) }

type constantEntry struct {
	k    KnownConstant
	expr Expr
	seq  int
}

type nameEntry struct {
	key  string
	name string
	obj  Known
}

func lessNames(a, b nameEntry) bool { return a.key < b.key }

func nameKey(name string) string { return strings.ToLower(name) }

// ============================================================
// Builder
// ============================================================

// Builder accumulates bindings for a Scope. It must be confined to one
// goroutine until Freeze; after Freeze every mutation records a
// FrozenScopeError, reported by Err.
type Builder struct {
	frozen    bool
	err       error
	logger    *slog.Logger
	pref      NamePreference
	names     *btree.BTreeG[nameEntry]
	constants []constantEntry
	templates []*Template
	funcs     map[string]*Func
	fields    map[string]*Field
	seq       int
}

type BuilderOption func(*Builder)

// WithLogger sets the logger the scope reports registration and rebinding
// diagnostics to. The default discards everything.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithNamePreference(p NamePreference) BuilderOption {
	return func(b *Builder) { b.pref = p }
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		names:  btree.NewG[nameEntry](8, lessNames),
		funcs:  map[string]*Func{},
		fields: map[string]*Field{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Err returns the first error recorded by a mutation.
func (b *Builder) Err() error { return b.err }

func (b *Builder) record(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) mutable(op string) bool {
	if b.frozen {
		b.record(&FrozenScopeError{Op: op})
		return false
	}
	return b.err == nil
}

// Name binds name (case-insensitively) to k. Rebinding a name replaces the
// previous binding.
func (b *Builder) Name(name string, k Known) *Builder {
	if !b.mutable("name " + name) {
		return b
	}
	if name == "" || k == nil {
		b.record(fmt.Errorf("symbind: empty name binding"))
		return b
	}
	b.names.ReplaceOrInsert(nameEntry{key: nameKey(name), name: name, obj: k})
	return b
}

// Alias binds alias to whatever existing is already bound to.
func (b *Builder) Alias(alias, existing string) *Builder {
	if !b.mutable("alias " + alias) {
		return b
	}
	e, ok := b.names.Get(nameEntry{key: nameKey(existing)})
	if !ok {
		b.record(&UnknownBindingError{Name: existing})
		return b
	}
	return b.Name(alias, e.obj)
}

// Lookup resolves a name registered so far.
func (b *Builder) Lookup(name string) (Known, bool) {
	e, ok := b.names.Get(nameEntry{key: nameKey(name)})
	return e.obj, ok
}

// Constant registers e as a concrete representation of k. The type of e
// tags the representation.
func (b *Builder) Constant(k KnownConstant, e Expr) *Builder {
	if !b.mutable("constant " + k.Name()) {
		return b
	}
	if _, ok := e.(*Block); ok {
		b.record(&UnsupportedNodeKindError{Expr: e})
		return b
	}
	b.seq++
	b.constants = append(b.constants, constantEntry{k: k, expr: e, seq: b.seq})
	b.collect(e)
	return b
}

// Function registers body, an open expression over params, as an
// implementation of f. The parameter count must equal f's arity.
func (b *Builder) Function(f KnownFunction, body Expr, params ...*Variable) *Builder {
	if !b.mutable("function " + f.Name()) {
		return b
	}
	if !f.valid() || len(params) != f.Arity() {
		b.record(fmt.Errorf("%w: %s takes %d parameters, template has %d", ErrArityMismatch, f, f.Arity(), len(params)))
		return b
	}
	if _, ok := body.(*Variable); ok {
		b.record(fmt.Errorf("%w: %s body is a bare variable", ErrInvalidTemplate, f))
		return b
	}
	for i, p := range params {
		for _, q := range params[:i] {
			if p == q {
				b.record(fmt.Errorf("%w: %s repeats parameter %s", ErrInvalidTemplate, f, p.Name()))
				return b
			}
		}
	}
	if _, ok := body.(*Block); ok {
		b.record(&UnsupportedNodeKindError{Expr: body})
		return b
	}
	b.seq++
	b.templates = append(b.templates, &Template{
		fn:     f,
		params: append([]*Variable(nil), params...),
		body:   body,
		size:   Size(body),
		seq:    b.seq,
	})
	b.collect(body)
	return b
}

// Func makes fn resolvable by name (for decoding trees) without binding it
// to a known function.
func (b *Builder) Func(fn *Func) *Builder {
	if b.mutable("func " + fn.name) {
		b.funcs[fn.name] = fn
	}
	return b
}

// Field makes f resolvable by name without binding it to a known constant.
func (b *Builder) Field(f *Field) *Builder {
	if b.mutable("field " + f.name) {
		b.fields[f.name] = f
	}
	return b
}

func (b *Builder) collect(e Expr) {
	switch e := e.(type) {
	case *Unary:
		b.collect(e.operand)
	case *Binary:
		b.collect(e.left)
		b.collect(e.right)
	case *Call:
		b.funcs[e.fn.name] = e.fn
		for _, a := range e.args {
			b.collect(a)
		}
	case *Member:
		b.fields[e.field.name] = e.field
		if e.object != nil {
			b.collect(e.object)
		}
	case *Conditional:
		b.collect(e.test)
		b.collect(e.then)
		b.collect(e.els)
	}
}

// Freeze converts the accumulated bindings into an immutable Scope. The
// builder cannot be used afterwards.
func (b *Builder) Freeze() (*Scope, error) {
	if b.frozen {
		b.record(&FrozenScopeError{Op: "freeze"})
		return nil, b.err
	}
	if b.err != nil {
		return nil, b.err
	}
	b.frozen = true

	s := &Scope{
		logger:         b.logger,
		pref:           b.pref,
		names:          b.names,
		aliases:        map[Known][]string{},
		constants:      map[KnownConstant][]Expr{},
		constantShapes: map[shape][]constantEntry{},
		templates:      map[KnownFunction][]*Template{},
		shapes:         map[shape][]*Template{},
		funcs:          b.funcs,
		fields:         b.fields,
	}
	b.names.Ascend(func(e nameEntry) bool {
		s.aliases[e.obj] = append(s.aliases[e.obj], e.name)
		return true
	})
	for k, names := range s.aliases {
		s.aliases[k] = sortAliases(names, s.pref)
	}
	for _, c := range b.constants {
		s.constants[c.k] = append(s.constants[c.k], c.expr)
		sh := shapeOf(c.expr)
		s.constantShapes[sh] = append(s.constantShapes[sh], c)
	}
	for _, t := range b.templates {
		s.templates[t.fn] = append(s.templates[t.fn], t)
		sh := shapeOf(t.body)
		s.shapes[sh] = append(s.shapes[sh], t)
	}

	s.logger.Debug("scope frozen",
		"names", b.names.Len(),
		"templates", len(b.templates),
		"constants", len(b.constants),
		"funcs", len(b.funcs),
		"fields", len(b.fields))
	return s, nil
}
