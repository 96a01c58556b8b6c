package symbind

// MatchResult is the outcome of Match. Bound holds one entry per
// placeholder in the order given to Match; unbound placeholders are nil.
type MatchResult struct {
	Success bool
	Bound   []Expr
}

// Complete reports whether the match succeeded with every placeholder bound.
func (r MatchResult) Complete() bool {
	if !r.Success {
		return false
	}
	for _, b := range r.Bound {
		if b == nil {
			return false
		}
	}
	return true
}

// Match structurally matches subject against pattern. Variables of pattern
// listed in placeholders are wildcards: the first occurrence binds, later
// occurrences must be Equal to the first binding. Every other node must match
// in kind, operator and identity of the referenced function or field.
// Commutative operators are matched in order only.
//
// Matching a Block fails with an UnsupportedNodeKindError.
func Match(pattern, subject Expr, placeholders []*Variable) (MatchResult, error) {
	m := matcher{placeholders: placeholders, bound: make([]Expr, len(placeholders))}
	ok, err := m.match(pattern, subject)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{Success: ok, Bound: m.bound}, nil
}

type matcher struct {
	placeholders []*Variable
	bound        []Expr
}

func (m *matcher) placeholder(v *Variable) int {
	for i, p := range m.placeholders {
		if p == v {
			return i
		}
	}
	return -1
}

func (m *matcher) match(pattern, subject Expr) (bool, error) {
	if pattern == nil || subject == nil {
		return pattern == nil && subject == nil, nil
	}

	if v, ok := pattern.(*Variable); ok {
		if i := m.placeholder(v); i >= 0 {
			if m.bound[i] != nil {
				return Equal(m.bound[i], subject), nil
			}
			if subject.Type() != v.Type() {
				return false, nil
			}
			m.bound[i] = subject
			return true, nil
		}
	}

	if _, ok := pattern.(*Block); ok {
		return false, &UnsupportedNodeKindError{Expr: pattern}
	}
	if _, ok := subject.(*Block); ok {
		return false, &UnsupportedNodeKindError{Expr: subject}
	}
	if pattern.Kind() != subject.Kind() {
		return false, nil
	}

	switch p := pattern.(type) {
	case *Constant:
		return constantsEqual(p, subject.(*Constant)), nil
	case *Variable:
		return p == subject.(*Variable), nil
	case *Unary:
		s := subject.(*Unary)
		if p.op != s.op || p.typ != s.typ {
			return false, nil
		}
		return m.match(p.operand, s.operand)
	case *Binary:
		s := subject.(*Binary)
		if p.op != s.op {
			return false, nil
		}
		return m.all([]Expr{p.left, p.right}, []Expr{s.left, s.right})
	case *Call:
		s := subject.(*Call)
		if p.fn != s.fn || len(p.args) != len(s.args) {
			return false, nil
		}
		return m.all(p.args, s.args)
	case *Member:
		s := subject.(*Member)
		if p.field != s.field {
			return false, nil
		}
		return m.match(p.object, s.object)
	case *Conditional:
		s := subject.(*Conditional)
		return m.all([]Expr{p.test, p.then, p.els}, []Expr{s.test, s.then, s.els})
	}
	return false, &UnsupportedNodeKindError{Expr: pattern}
}

func (m *matcher) all(patterns, subjects []Expr) (bool, error) {
	for i := range patterns {
		ok, err := m.match(patterns[i], subjects[i])
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// substitute replaces each placeholder of body with the matching value.
func substitute(body Expr, placeholders []*Variable, values []Expr) Expr {
	switch e := body.(type) {
	case *Variable:
		for i, p := range placeholders {
			if p == e {
				return values[i]
			}
		}
		return e
	case *Unary:
		if e.op == OpConvert {
			return NewConvert(substitute(e.operand, placeholders, values), e.typ)
		}
		return NewUnary(e.op, substitute(e.operand, placeholders, values))
	case *Binary:
		return NewBinary(e.op, substitute(e.left, placeholders, values), substitute(e.right, placeholders, values))
	case *Call:
		args := make([]Expr, len(e.args))
		for i, a := range e.args {
			args[i] = substitute(a, placeholders, values)
		}
		return &Call{fn: e.fn, args: args}
	case *Member:
		if e.object == nil {
			return e
		}
		return NewMember(substitute(e.object, placeholders, values), e.field)
	case *Conditional:
		return NewConditional(
			substitute(e.test, placeholders, values),
			substitute(e.then, placeholders, values),
			substitute(e.els, placeholders, values))
	}
	return body
}
