package symbind_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
)

func TestDerivative_Rules(t *testing.T) {
	x := realVar("x")
	z := symbind.NewVariable("z", symbind.TypeComplex)

	assertExpr(t, symbind.NewCall(symbind.RealCos, x), mustDerive(t, bind(t, symbind.FuncSin, x), x))
	assertExpr(t, symbind.NewCall(symbind.ComplexCos, z), mustDerive(t, bind(t, symbind.FuncSin, z), z))
	assertExpr(t, num(0), mustDerive(t, realVar("y"), x))
	assertExpr(t, num(1), mustDerive(t, x, x))
	assertExpr(t, num(0), mustDerive(t, constant(t, symbind.ConstPi, symbind.TypeReal), x))
	assertExpr(t, symbind.Complex(1), mustDerive(t, symbind.NewConvert(x, symbind.TypeComplex), x))
}

func TestDerivativeN(t *testing.T) {
	x := realVar("x")
	two := num(2)

	cases := []struct {
		name string
		e    symbind.Expr
		n    int
		want string
	}{
		{"square", bind(t, symbind.FuncPower, x, two), 1, "2*x"},
		{"second of square", bind(t, symbind.FuncPower, x, two), 2, "2"},
		{"cubic 1", bind(t, symbind.FuncPower, x, num(3)), 1, "3*x^2"},
		{"cubic 2", bind(t, symbind.FuncPower, x, num(3)), 2, "6*x"},
		{"cubic 3", bind(t, symbind.FuncPower, x, num(3)), 3, "6"},
		{"cubic 4", bind(t, symbind.FuncPower, x, num(3)), 4, "0"},
		{"zeroth", bind(t, symbind.FuncAdd, x, x), 0, "2*x"},
		{"cos", bind(t, symbind.FuncCos, x), 1, "-sin(x)"},
		{"exp", bind(t, symbind.FuncExp, x), 1, "e^x"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := std.DerivativeN(c.e, x, c.n)
			require.NoError(t, err)
			assert.Equal(t, c.want, std.Format(out))
		})
	}
}

func TestDerivative_GuardKeepsTest(t *testing.T) {
	x := realVar("x")
	test := bind(t, symbind.FuncNotEqual, x, num(0))
	d := mustDerive(t, symbind.Guard(test, bind(t, symbind.FuncPower, x, num(2))), x)

	c, ok := d.(*symbind.Conditional)
	require.True(t, ok)
	assert.True(t, c.IsGuard())
	assertExpr(t, test, c.Test())
	assert.Equal(t, "2*x", std.Format(c.Then()))
}

func TestDerivative_Errors(t *testing.T) {
	x := realVar("x")
	custom := symbind.NewFunc("Custom.Twice", symbind.TypeReal, []symbind.Type{symbind.TypeReal}, nil)

	cases := []struct {
		name string
		e    symbind.Expr
		want error
	}{
		{"comparison", bind(t, symbind.FuncLessThan, x, num(2)), symbind.ErrUnimplementedDerivative},
		{"boolean variable", symbind.NewVariable("p", symbind.TypeBoolean), symbind.ErrUnimplementedDerivative},
		{"unregistered call", symbind.NewCall(custom, x), symbind.ErrUnimplementedDerivative},
		{"block", symbind.NewBlock(x), symbind.ErrUnsupportedNodeKind},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := std.Derivative(c.e, x)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
		})
	}

	_, err := std.DerivativeN(x, x, -1)
	assert.Error(t, err)
}

func mustDerive(t *testing.T, e symbind.Expr, v *symbind.Variable) symbind.Expr {
	t.Helper()
	out, err := std.Derivative(e, v)
	require.NoError(t, err)
	return out
}
