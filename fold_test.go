package symbind_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
)

func TestEvaluate(t *testing.T) {
	x := realVar("x")
	z := symbind.NewVariable("z", symbind.TypeComplex)
	env := symbind.Env{x: num(3), z: num(-4)}

	cases := []struct {
		name string
		e    symbind.Expr
		want *symbind.Constant
	}{
		{"polynomial", bind(t, symbind.FuncAdd, bind(t, symbind.FuncPower, x, num(2)), num(1)), num(10)},
		{"call", bind(t, symbind.FuncAbs, bind(t, symbind.FuncNegate, x)), num(3)},
		{"widened variable", bind(t, symbind.FuncSqrt, z), symbind.Complex(2i)},
		{"complex abs", bind(t, symbind.FuncAbs, symbind.Complex(3+4i)), num(5)},
		{"field", symbind.NewMember(symbind.Complex(3+4i), symbind.ComplexReal), num(3)},
		{"static field", constant(t, symbind.ConstPi, symbind.TypeReal), num(math.Pi)},
		{"comparison", bind(t, symbind.FuncGreaterThan, x, num(2)), symbind.Bool(true)},
		{"narrowing", symbind.NewConvert(symbind.Complex(1+1i), symbind.TypeReal), symbind.Indeterminate(symbind.TypeReal)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := symbind.Evaluate(c.e, env)
			require.NoError(t, err)
			assertExpr(t, c.want, got)
		})
	}
}

func TestEvaluate_Guard(t *testing.T) {
	x := realVar("x")
	g := simplify(t, bind(t, symbind.FuncDivide, x, x))

	got, err := symbind.Evaluate(g, symbind.Env{x: num(5)})
	require.NoError(t, err)
	assertExpr(t, num(1), got)

	got, err = symbind.Evaluate(g, symbind.Env{x: num(0)})
	require.NoError(t, err)
	assert.True(t, got.IsIndeterminate())
}

func TestEvaluate_Errors(t *testing.T) {
	x := realVar("x")

	_, err := symbind.Evaluate(bind(t, symbind.FuncSin, x), nil)
	assert.True(t, errors.Is(err, symbind.ErrUnboundVariable))

	opaque := symbind.NewFunc("Custom.Opaque", symbind.TypeReal, []symbind.Type{symbind.TypeReal}, nil)
	_, err = symbind.Evaluate(symbind.NewCall(opaque, num(1)), nil)
	assert.True(t, errors.Is(err, symbind.ErrNotEvaluable))

	_, err = symbind.Evaluate(symbind.NewBlock(num(1)), nil)
	assert.True(t, errors.Is(err, symbind.ErrUnsupportedNodeKind))
}
