package symbind

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Env supplies variable values to Evaluate.
type Env map[*Variable]*Constant

// Evaluate computes the value of e with the concrete implementations of its
// calls and fields. Every variable of e needs a value in env; numeric values
// are converted to the variable's representation.
func Evaluate(e Expr, env Env) (c *Constant, err error) {
	defer recoverError(&err)
	return evaluate(e, env), nil
}

func evaluate(e Expr, env Env) *Constant {
	switch e := e.(type) {
	case *Constant:
		return e
	case *Variable:
		c, ok := env[e]
		if !ok {
			fail(fmt.Errorf("%w: %s", ErrUnboundVariable, e.name))
		}
		if c.typ != e.typ && c.typ.numeric() && e.typ.numeric() {
			return numericConstant(c.num, e.typ)
		}
		return c
	case *Unary:
		return unaryValue(e.op, e.typ, evaluate(e.operand, env))
	case *Binary:
		return binaryValue(e.op, e.typ, evaluate(e.left, env), evaluate(e.right, env))
	case *Call:
		if e.fn.eval == nil {
			fail(fmt.Errorf("%w: %s", ErrNotEvaluable, e.fn.name))
		}
		args := make([]*Constant, len(e.args))
		for i, a := range e.args {
			args[i] = evaluate(a, env)
		}
		v, ok := e.fn.eval(args)
		if !ok {
			fail(fmt.Errorf("%w: %s", ErrNotEvaluable, e))
		}
		return v
	case *Member:
		if e.field.Static() {
			return e.field.value
		}
		return e.field.get(evaluate(e.object, env))
	case *Conditional:
		if evaluate(e.test, env).b {
			return evaluate(e.then, env)
		}
		return evaluate(e.els, env)
	}
	fail(&UnsupportedNodeKindError{Expr: e})
	return nil
}

func unaryValue(op UnaryOp, t Type, x *Constant) *Constant {
	switch op {
	case OpNegate:
		return numericConstant(-x.num, t)
	case OpNot:
		return Bool(!x.b)
	}
	return convertValue(x, t)
}

// convertValue changes the representation of x. Narrowing a complex value
// with a non-zero imaginary part is indeterminate.
func convertValue(x *Constant, t Type) *Constant {
	if x.typ == t || !x.typ.numeric() || !t.numeric() {
		return x
	}
	if t == TypeReal && imag(x.num) != 0 {
		return Indeterminate(TypeReal)
	}
	return numericConstant(x.num, t)
}

func binaryValue(op BinaryOp, t Type, a, b *Constant) *Constant {
	switch op {
	case OpAnd:
		return Bool(a.b && b.b)
	case OpOr:
		return Bool(a.b || b.b)
	case OpXor:
		return Bool(a.b != b.b)
	case OpEqual, OpNotEqual:
		eq := a.num == b.num
		if a.typ == TypeBoolean {
			eq = a.b == b.b
		}
		return Bool(eq == (op == OpEqual))
	case OpGreaterThan:
		return Bool(real(a.num) > real(b.num))
	case OpGreaterOrEqual:
		return Bool(real(a.num) >= real(b.num))
	case OpLessThan:
		return Bool(real(a.num) < real(b.num))
	case OpLessOrEqual:
		return Bool(real(a.num) <= real(b.num))
	}
	return numericConstant(arith(op, t, a.num, b.num), t)
}

// arith applies an arithmetic operator in representation t. Real operands
// are computed in float64 so results match plain Go arithmetic exactly.
func arith(op BinaryOp, t Type, x, y complex128) complex128 {
	if t == TypeComplex {
		switch op {
		case OpAdd:
			return x + y
		case OpSubtract:
			return x - y
		case OpMultiply:
			return x * y
		case OpDivide:
			return x / y
		case OpPower:
			return cmplx.Pow(x, y)
		}
		return cmplx.NaN()
	}
	p, q := real(x), real(y)
	var r float64
	switch op {
	case OpAdd:
		r = p + q
	case OpSubtract:
		r = p - q
	case OpMultiply:
		r = p * q
	case OpDivide:
		r = p / q
	case OpPower:
		r = math.Pow(p, q)
	default:
		r = math.NaN()
	}
	return complex(r, 0)
}

func finite(v complex128) bool {
	return !cmplx.IsNaN(v) && !cmplx.IsInf(v)
}
