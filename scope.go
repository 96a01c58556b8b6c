package symbind

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/btree"
)

// Scope is a frozen binding registry: names to known objects, known
// constants to concrete expressions and known functions to templates. A
// Scope has no mutating methods and is safe for concurrent use.
type Scope struct {
	logger         *slog.Logger
	pref           NamePreference
	names          *btree.BTreeG[nameEntry]
	aliases        map[Known][]string
	constants      map[KnownConstant][]Expr
	constantShapes map[shape][]constantEntry
	templates      map[KnownFunction][]*Template
	shapes         map[shape][]*Template
	funcs          map[string]*Func
	fields         map[string]*Field
}

// shape is the root signature of an expression. Only templates with the
// same root shape as a subject can match it, so recognition scans one
// bucket; buckets keep registration order.
type shape struct {
	kind  Kind
	op    int
	typ   Type
	fn    *Func
	field *Field
}

func shapeOf(e Expr) shape {
	switch e := e.(type) {
	case *Constant:
		return shape{kind: KindConstant, typ: e.typ}
	case *Unary:
		return shape{kind: KindUnary, op: int(e.op), typ: e.typ}
	case *Binary:
		return shape{kind: KindBinary, op: int(e.op)}
	case *Call:
		return shape{kind: KindCall, fn: e.fn}
	case *Member:
		return shape{kind: KindMember, field: e.field}
	}
	return shape{kind: e.Kind()}
}

func sortAliases(names []string, pref NamePreference) []string {
	sort.Slice(names, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(names[i]), utf8.RuneCountInString(names[j])
		if li != lj {
			if pref == NamePreferLongest {
				return li > lj
			}
			return li < lj
		}
		return names[i] < names[j]
	})
	return names
}

// ============================================================
// Name binding
// ============================================================

// BindName resolves a name case-insensitively.
func (s *Scope) BindName(name string) (Known, error) {
	e, ok := s.names.Get(nameEntry{key: nameKey(name)})
	if !ok {
		return nil, &UnknownBindingError{Name: name}
	}
	return e.obj, nil
}

// NameOf returns the canonical name of k: the shortest alias, or the
// longest when the scope prefers long names. Ties break alphabetically.
func (s *Scope) NameOf(k Known) (string, error) {
	names := s.aliases[k]
	if len(names) == 0 {
		return "", &UnknownBindingError{Known: k}
	}
	return names[0], nil
}

// Aliases returns every name bound to k in canonical order.
func (s *Scope) Aliases(k Known) []string {
	return slices.Clone(s.aliases[k])
}

// NamesWithPrefix lists bound names starting with prefix, case-folded, in
// order.
func (s *Scope) NamesWithPrefix(prefix string) []string {
	var out []string
	p := nameKey(prefix)
	s.names.AscendGreaterOrEqual(nameEntry{key: p}, func(e nameEntry) bool {
		if !strings.HasPrefix(e.key, p) {
			return false
		}
		out = append(out, e.name)
		return true
	})
	return out
}

// Functions lists the known functions that have at least one template.
func (s *Scope) Functions() []KnownFunction {
	fs := make([]KnownFunction, 0, len(s.templates))
	for f := range s.templates {
		fs = append(fs, f)
	}
	slices.Sort(fs)
	return fs
}

// Constants lists the known constants that have at least one representation.
func (s *Scope) Constants() []KnownConstant {
	ks := make([]KnownConstant, 0, len(s.constants))
	for k := range s.constants {
		ks = append(ks, k)
	}
	slices.Sort(ks)
	return ks
}

// Templates returns the templates of f in registration order.
func (s *Scope) Templates(f KnownFunction) []*Template {
	return slices.Clone(s.templates[f])
}

// Func resolves a concrete function by its qualified name.
func (s *Scope) Func(name string) (*Func, bool) {
	fn, ok := s.funcs[name]
	return fn, ok
}

// Field resolves a concrete field by its qualified name.
func (s *Scope) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// ============================================================
// Recognition
// ============================================================

// Recognize reports which known function e implements and the arguments it
// was applied to. When several templates match, the first registered wins.
func (s *Scope) Recognize(e Expr) (KnownFunction, []Expr, bool) {
	if e == nil {
		return 0, nil, false
	}
	for _, t := range s.shapes[shapeOf(e)] {
		r, err := Match(t.body, e, t.params)
		if err != nil {
			s.logger.Debug("recognize: template skipped", "function", t.fn.Name(), "error", err)
			continue
		}
		if r.Complete() {
			return t.fn, r.Bound, true
		}
	}
	return 0, nil, false
}

// RecognizeConstant reports which known constant e represents.
func (s *Scope) RecognizeConstant(e Expr) (KnownConstant, bool) {
	if e == nil {
		return 0, false
	}
	for _, c := range s.constantShapes[shapeOf(e)] {
		if Equal(c.expr, e) {
			return c.k, true
		}
	}
	return 0, false
}

// ============================================================
// Forward binding
// ============================================================

// BindConstant returns the representation of k in type t, widening a Real
// representation when no exact one is registered.
func (s *Scope) BindConstant(k KnownConstant, t Type) (Expr, error) {
	var widenable Expr
	for _, e := range s.constants[k] {
		if e.Type() == t {
			return e, nil
		}
		if widenable == nil && widens(e.Type(), t) {
			widenable = e
		}
	}
	if widenable != nil {
		return widen(widenable, t), nil
	}
	if len(s.constants[k]) == 0 {
		return nil, &UnknownBindingError{Known: k}
	}
	return nil, &NoMatchingOverloadError{Function: k}
}

// BindFunction instantiates the template of f that best accepts args.
// Candidates are ranked by the number of parameters whose type equals the
// argument type, then by template size (single-node templates first), then
// by registration order. Remaining parameters are satisfied by widening.
//
// Sqrt of a Real argument binds the Real template only when the argument is
// provably non-negative; otherwise the Complex template is used so negative
// inputs keep a correct value.
func (s *Scope) BindFunction(f KnownFunction, args ...Expr) (Expr, error) {
	t, err := s.resolve(f, args)
	if err != nil {
		return nil, err
	}
	vals := make([]Expr, len(args))
	for i, a := range args {
		vals[i] = widen(a, t.params[i].Type())
	}
	return substitute(t.body, t.params, vals), nil
}

func (s *Scope) resolve(f KnownFunction, args []Expr) (*Template, error) {
	cands := s.templates[f]
	if len(cands) == 0 {
		return nil, &UnknownBindingError{Known: f}
	}
	if f == FuncSqrt && len(args) == 1 && args[0].Type() == TypeReal && !s.NonNegative(args[0]) {
		if t := best(cands, args, func(t *Template) bool { return t.params[0].Type() == TypeComplex }); t != nil {
			return t, nil
		}
	}
	if t := best(cands, args, nil); t != nil {
		return t, nil
	}
	return nil, &NoMatchingOverloadError{Function: f, Args: slices.Clone(args)}
}

func best(cands []*Template, args []Expr, keep func(*Template) bool) *Template {
	var chosen *Template
	chosenScore := -1
	for _, t := range cands {
		if len(t.params) != len(args) || (keep != nil && !keep(t)) {
			continue
		}
		score, ok := accepts(t, args)
		if !ok {
			continue
		}
		if chosen == nil || score > chosenScore || (score == chosenScore && t.size < chosen.size) {
			chosen, chosenScore = t, score
		}
	}
	return chosen
}

// accepts counts directly assignable parameters; ok is false when some
// parameter is neither assignable nor reachable by widening.
func accepts(t *Template, args []Expr) (int, bool) {
	score := 0
	for i, p := range t.params {
		switch at := args[i].Type(); {
		case at == p.Type():
			score++
		case widens(at, p.Type()):
		default:
			return 0, false
		}
	}
	return score, true
}

// widen converts e to t. Literals are converted directly.
func widen(e Expr, t Type) Expr {
	if e.Type() == t {
		return e
	}
	if c, ok := e.(*Constant); ok && c.typ.numeric() && t.numeric() {
		return numericConstant(c.num, t)
	}
	return NewConvert(e, t)
}

// NonNegative reports whether e can be proven non-negative without
// evaluating it: non-negative literals and named constants, absolute
// values, square roots, exponentials, even powers and sums, products and
// quotients of non-negative terms.
func (s *Scope) NonNegative(e Expr) bool {
	if e.Type() != TypeReal {
		return false
	}
	switch e := e.(type) {
	case *Constant:
		return !e.IsIndeterminate() && e.RealValue() >= 0
	case *Conditional:
		nonNeg := func(x Expr) bool {
			if c, ok := x.(*Constant); ok && c.IsIndeterminate() {
				return true
			}
			return s.NonNegative(x)
		}
		return nonNeg(e.then) && nonNeg(e.els)
	}
	if k, ok := s.RecognizeConstant(e); ok {
		return k != ConstI
	}
	f, args, ok := s.Recognize(e)
	if !ok {
		return false
	}
	switch f {
	case FuncAbs, FuncSqrt, FuncExp, FuncCosh:
		return true
	case FuncAdd, FuncDivide:
		return s.NonNegative(args[0]) && s.NonNegative(args[1])
	case FuncMultiply:
		return Equal(args[0], args[1]) || (s.NonNegative(args[0]) && s.NonNegative(args[1]))
	case FuncPower:
		if c, ok := args[1].(*Constant); ok && c.typ == TypeReal {
			v := c.RealValue()
			if v == float64(int64(v)) && int64(v)%2 == 0 {
				return true
			}
		}
		return s.NonNegative(args[0])
	}
	return false
}
