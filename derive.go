package symbind

import (
	"fmt"
	"math"
)

// Derivative returns d e / d v. Known functions are differentiated with the
// usual structural rules and a fixed table of closed forms applied through
// the chain rule; the result is not simplified. Conditionals keep their test
// and differentiate both branches. Nodes without a rule fail with an
// UnimplementedDerivativeError; derivatives are never approximated.
func (s *Scope) Derivative(e Expr, v *Variable) (out Expr, err error) {
	defer recoverError(&err)
	d := &differ{s: s, v: v}
	return d.derive(e), nil
}

// Derivative is shorthand for s.Derivative(e, v).
func Derivative(s *Scope, e Expr, v *Variable) (Expr, error) { return s.Derivative(e, v) }

// DerivativeN differentiates e n times, simplifying after every step.
func (s *Scope) DerivativeN(e Expr, v *Variable, n int) (Expr, error) {
	if n < 0 {
		return nil, fmt.Errorf("symbind: negative derivative order %d", n)
	}
	out, err := s.Simplify(e)
	for i := 0; i < n && err == nil; i++ {
		if out, err = s.Derivative(out, v); err == nil {
			out, err = s.Simplify(out)
		}
	}
	return out, err
}

type differ struct {
	s *Scope
	v *Variable
}

func (d *differ) derive(e Expr) Expr {
	if _, ok := e.(*Block); ok {
		fail(&UnsupportedNodeKindError{Expr: e})
	}
	if e.Type() == TypeBoolean {
		fail(&UnimplementedDerivativeError{Expr: e})
	}
	if f, args, ok := d.s.Recognize(e); ok {
		return d.known(e, f, args)
	}
	switch e := e.(type) {
	case *Constant:
		if e.IsIndeterminate() {
			return e
		}
		return d.zero(e.typ)
	case *Variable:
		if e == d.v {
			return d.one(e.typ)
		}
		return d.zero(e.typ)
	case *Member:
		return d.zero(e.Type())
	case *Unary:
		if e.op == OpConvert {
			return widen(d.derive(e.operand), e.typ)
		}
	case *Conditional:
		return NewConditional(e.test, d.derive(e.then), d.derive(e.els))
	}
	fail(&UnimplementedDerivativeError{Expr: e})
	return nil
}

func (d *differ) known(e Expr, f KnownFunction, args []Expr) Expr {
	a := args[0]
	switch f {
	case FuncNegate:
		return d.neg(d.derive(a))
	case FuncAdd:
		return d.add(d.derive(a), d.derive(args[1]))
	case FuncSubtract:
		return d.sub(d.derive(a), d.derive(args[1]))
	case FuncMultiply:
		b := args[1]
		return d.add(d.mul(d.derive(a), b), d.mul(a, d.derive(b)))
	case FuncDivide:
		b := args[1]
		return d.div(
			d.sub(d.mul(d.derive(a), b), d.mul(a, d.derive(b))),
			d.pow(b, d.lit(2, b.Type())))
	case FuncPower:
		b := args[1]
		if !DependsOn(b, d.v) {
			return d.mul(d.mul(b, d.pow(a, d.sub(b, d.lit(1, b.Type())))), d.derive(a))
		}
		return d.mul(e, d.add(
			d.mul(d.derive(b), d.bind(FuncLn, a)),
			d.div(d.mul(d.derive(a), b), a)))
	}

	outer, ok := d.table(f, a)
	if !ok {
		fail(&UnimplementedDerivativeError{Expr: e, Function: f})
	}
	return d.mul(outer, d.derive(a))
}

// table returns f'(a) for the unary known functions.
func (d *differ) table(f KnownFunction, a Expr) (Expr, bool) {
	t := a.Type()
	one, two := d.lit(1, t), d.lit(2, t)
	square := func() Expr { return d.pow(a, two) }
	switch f {
	case FuncSin:
		return d.bind(FuncCos, a), true
	case FuncCos:
		return d.neg(d.bind(FuncSin, a)), true
	case FuncTan:
		return d.div(one, d.pow(d.bind(FuncCos, a), two)), true
	case FuncAsin:
		return d.div(one, d.bind(FuncSqrt, d.sub(one, square()))), true
	case FuncAcos:
		return d.neg(d.div(one, d.bind(FuncSqrt, d.sub(one, square())))), true
	case FuncAtan:
		return d.div(one, d.add(one, square())), true
	case FuncSinh:
		return d.bind(FuncCosh, a), true
	case FuncCosh:
		return d.bind(FuncSinh, a), true
	case FuncTanh:
		return d.div(one, d.pow(d.bind(FuncCosh, a), two)), true
	case FuncAsinh:
		return d.div(one, d.bind(FuncSqrt, d.add(square(), one))), true
	case FuncAcosh:
		return d.div(one, d.mul(d.bind(FuncSqrt, d.sub(a, one)), d.bind(FuncSqrt, d.add(a, one)))), true
	case FuncAtanh:
		return d.div(one, d.sub(one, square())), true
	case FuncSqrt:
		return d.div(one, d.mul(two, d.bind(FuncSqrt, a))), true
	case FuncExp:
		return d.bind(FuncExp, a), true
	case FuncLn:
		return d.div(one, a), true
	case FuncLog10:
		return d.div(one, d.mul(a, d.bind(FuncLn, d.lit(10, t)))), true
	case FuncAbs:
		return d.div(a, d.bind(FuncAbs, a)), true
	case FuncReciprocal:
		return d.neg(d.div(one, square())), true
	}
	return nil, false
}

func (d *differ) bind(f KnownFunction, args ...Expr) Expr {
	e, err := d.s.BindFunction(f, args...)
	if err != nil {
		d.s.logger.Debug("derivative: bind failed", "function", f.Name(), "error", err)
		fail(err)
	}
	return e
}

func (d *differ) lit(v float64, t Type) *Constant {
	if !t.numeric() {
		t = TypeReal
	}
	return numericConstant(complex(v, 0), t)
}

func (d *differ) zero(t Type) *Constant { return d.lit(0, t) }
func (d *differ) one(t Type) *Constant  { return d.lit(1, t) }

// The builders below skip the trivial identities so that results such as
// d sin(x) come out as cos(x) without a simplification pass.

func (d *differ) add(a, b Expr) Expr {
	switch {
	case isValue(a, 0):
		return b
	case isValue(b, 0):
		return a
	}
	return d.bind(FuncAdd, a, b)
}

func (d *differ) sub(a, b Expr) Expr {
	switch {
	case isValue(b, 0):
		return a
	case isValue(a, 0):
		return d.neg(b)
	}
	if ca, ok := a.(*Constant); ok && !ca.IsIndeterminate() {
		if cb, ok := b.(*Constant); ok && !cb.IsIndeterminate() && ca.typ == cb.typ {
			return numericConstant(arith(OpSubtract, ca.typ, ca.num, cb.num), ca.typ)
		}
	}
	return d.bind(FuncSubtract, a, b)
}

func (d *differ) mul(a, b Expr) Expr {
	switch {
	case isValue(a, 0), isValue(b, 0):
		return d.zero(resultType(a, b))
	case isValue(a, 1):
		return b
	case isValue(b, 1):
		return a
	}
	return d.bind(FuncMultiply, a, b)
}

func (d *differ) div(a, b Expr) Expr {
	switch {
	case isValue(a, 0):
		return d.zero(resultType(a, b))
	case isValue(b, 1):
		return a
	}
	return d.bind(FuncDivide, a, b)
}

func (d *differ) pow(a, b Expr) Expr {
	if isValue(b, 1) {
		return a
	}
	return d.bind(FuncPower, a, b)
}

func (d *differ) neg(a Expr) Expr {
	if c, ok := a.(*Constant); ok && c.typ.numeric() {
		if c.is(0) || math.IsNaN(real(c.num)) {
			return c
		}
		return numericConstant(-c.num, c.typ)
	}
	return d.bind(FuncNegate, a)
}
