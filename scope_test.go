package symbind_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
)

// ============================================================
// Builder
// ============================================================

func TestBuilder_FrozenRejectsMutation(t *testing.T) {
	b := symbind.NewBuilder().Name("plus", symbind.FuncAdd)
	s, err := b.Freeze()
	require.NoError(t, err)
	require.NotNil(t, s)

	b.Name("sum", symbind.FuncAdd)
	var frozen *symbind.FrozenScopeError
	require.True(t, errors.As(b.Err(), &frozen))
	assert.Equal(t, "name sum", frozen.Op)

	_, err = b.Freeze()
	assert.True(t, errors.Is(err, symbind.ErrFrozenScope))

	// The scope frozen earlier is unaffected.
	_, err = s.BindName("sum")
	assert.True(t, errors.Is(err, symbind.ErrUnknownBinding))
}

func TestBuilder_InvalidTemplates(t *testing.T) {
	x, y := realVar("x"), realVar("y")

	cases := []struct {
		name string
		b    *symbind.Builder
		want error
	}{
		{"arity", symbind.NewBuilder().Function(symbind.FuncSin, symbind.NewCall(symbind.RealSin, x), x, y), symbind.ErrArityMismatch},
		{"bare variable", symbind.NewBuilder().Function(symbind.FuncNegate, x, x), symbind.ErrInvalidTemplate},
		{"repeated parameter", symbind.NewBuilder().Function(symbind.FuncAdd, symbind.NewBinary(symbind.OpAdd, x, x), x, x), symbind.ErrInvalidTemplate},
		{"block body", symbind.NewBuilder().Function(symbind.FuncNegate, symbind.NewBlock(x), x), symbind.ErrUnsupportedNodeKind},
		{"block constant", symbind.NewBuilder().Constant(symbind.ConstPi, symbind.NewBlock(num(3))), symbind.ErrUnsupportedNodeKind},
		{"unknown alias", symbind.NewBuilder().Alias("plus", "add"), symbind.ErrUnknownBinding},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.True(t, errors.Is(c.b.Err(), c.want), "got %v", c.b.Err())
			_, err := c.b.Freeze()
			assert.Error(t, err)
		})
	}
}

// ============================================================
// Names
// ============================================================

func TestBindName(t *testing.T) {
	k, err := std.BindName("SiNe")
	require.NoError(t, err)
	assert.Equal(t, symbind.FuncSin, k)

	k, err = std.BindName("π")
	require.NoError(t, err)
	assert.Equal(t, symbind.ConstPi, k)

	_, err = std.BindName("frobnicate")
	var unknown *symbind.UnknownBindingError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "frobnicate", unknown.Name)
}

func TestNameOf(t *testing.T) {
	cases := []struct {
		k    symbind.Known
		want string
	}{
		{symbind.FuncSin, "sin"},
		{symbind.FuncLn, "ln"},
		{symbind.ConstPi, "π"},
		{symbind.FuncReciprocal, "recip"},
	}
	for _, c := range cases {
		got, err := std.NameOf(c.k)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	long, err := symbind.NewStandardBuilder(symbind.WithNamePreference(symbind.NamePreferLongest)).Freeze()
	require.NoError(t, err)
	got, err := long.NameOf(symbind.FuncSin)
	require.NoError(t, err)
	assert.Equal(t, "sine", got)

	empty, err := symbind.NewBuilder().Freeze()
	require.NoError(t, err)
	_, err = empty.NameOf(symbind.FuncSin)
	assert.True(t, errors.Is(err, symbind.ErrUnknownBinding))
}

func TestNamesWithPrefix(t *testing.T) {
	assert.Equal(t,
		[]string{"arccos", "arcosh", "arcsin", "arctan", "arsinh", "artanh"},
		std.NamesWithPrefix("AR"))
	assert.Empty(t, std.NamesWithPrefix("zz"))
	assert.Equal(t, []string{"ln", "log"}, std.Aliases(symbind.FuncLn))
}

func TestEnumerations(t *testing.T) {
	assert.Len(t, std.Constants(), len(symbind.KnownConstants()))
	assert.Len(t, std.Functions(), len(symbind.KnownFunctions()))

	sins := std.Templates(symbind.FuncSin)
	require.Len(t, sins, 2)
	assert.Equal(t, []symbind.Type{symbind.TypeReal}, sins[0].ParamTypes())
	assert.Equal(t, symbind.TypeComplex, sins[1].Result())
}

// ============================================================
// Forward binding
// ============================================================

func TestBindFunction_Overloads(t *testing.T) {
	x, y := realVar("x"), realVar("y")
	z := symbind.NewVariable("z", symbind.TypeComplex)

	e := bind(t, symbind.FuncAdd, x, y)
	assertExpr(t, symbind.NewBinary(symbind.OpAdd, x, y), e)
	assert.Equal(t, symbind.TypeReal, e.Type())

	e = bind(t, symbind.FuncAdd, x, z)
	assertExpr(t, symbind.NewBinary(symbind.OpAdd, symbind.NewConvert(x, symbind.TypeComplex), z), e)

	e = bind(t, symbind.FuncMultiply, num(2), z)
	assertExpr(t, symbind.NewBinary(symbind.OpMultiply, symbind.Complex(2), z), e)

	assertExpr(t, bind(t, symbind.FuncSin, x), bind(t, symbind.FuncSin, x))
}

func TestBindFunction_Sqrt(t *testing.T) {
	x := realVar("x")

	cases := []struct {
		name string
		arg  symbind.Expr
		want *symbind.Func
	}{
		{"positive literal", num(4), symbind.RealSqrt},
		{"negative literal", num(-4), symbind.ComplexSqrt},
		{"unknown sign", x, symbind.ComplexSqrt},
		{"absolute value", bind(t, symbind.FuncAbs, x), symbind.RealSqrt},
		{"even power", bind(t, symbind.FuncPower, x, num(2)), symbind.RealSqrt},
		{"named constant", constant(t, symbind.ConstPi, symbind.TypeReal), symbind.RealSqrt},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			call, ok := bind(t, symbind.FuncSqrt, c.arg).(*symbind.Call)
			require.True(t, ok)
			assert.Same(t, c.want, call.Func())
		})
	}
}

func TestBindFunction_Errors(t *testing.T) {
	z := symbind.NewVariable("z", symbind.TypeComplex)

	_, err := std.BindFunction(symbind.FuncLessThan, z, z)
	var overload *symbind.NoMatchingOverloadError
	require.True(t, errors.As(err, &overload))
	assert.Equal(t, symbind.FuncLessThan, overload.Function)
	assert.Len(t, overload.Args, 2)

	_, err = std.BindFunction(symbind.FuncAdd, symbind.Bool(true), num(1))
	assert.True(t, errors.Is(err, symbind.ErrNoMatchingOverload))

	empty, err := symbind.NewBuilder().Freeze()
	require.NoError(t, err)
	_, err = empty.BindFunction(symbind.FuncSin, num(1))
	assert.True(t, errors.Is(err, symbind.ErrUnknownBinding))
}

func TestBindFunction_TieBreak(t *testing.T) {
	x, y := realVar("x"), realVar("y")
	composite := symbind.NewBinary(symbind.OpSubtract, x, symbind.NewUnary(symbind.OpNegate, y))
	simple := symbind.NewBinary(symbind.OpAdd, x, y)

	s, err := symbind.NewBuilder().
		Function(symbind.FuncAdd, composite, x, y).
		Function(symbind.FuncAdd, simple, x, y).
		Freeze()
	require.NoError(t, err)

	a, b := realVar("a"), realVar("b")
	e, err := s.BindFunction(symbind.FuncAdd, a, b)
	require.NoError(t, err)
	assertExpr(t, symbind.NewBinary(symbind.OpAdd, a, b), e)

	// Both representations are still recognized.
	f, args, ok := s.Recognize(symbind.NewBinary(symbind.OpSubtract, a, symbind.NewUnary(symbind.OpNegate, b)))
	require.True(t, ok)
	assert.Equal(t, symbind.FuncAdd, f)
	assertExpr(t, a, args[0])
	assertExpr(t, b, args[1])
}

func TestBindConstant(t *testing.T) {
	pi := constant(t, symbind.ConstPi, symbind.TypeReal)
	assertExpr(t, symbind.NewMember(nil, symbind.RealPi), pi)

	c := constant(t, symbind.ConstPi, symbind.TypeComplex)
	assert.Equal(t, symbind.TypeComplex, c.Type())

	_, err := std.BindConstant(symbind.ConstI, symbind.TypeReal)
	assert.True(t, errors.Is(err, symbind.ErrNoMatchingOverload))
}

// ============================================================
// Recognition
// ============================================================

func TestRecognize(t *testing.T) {
	x := realVar("x")
	z := symbind.NewVariable("z", symbind.TypeComplex)
	custom := symbind.NewFunc("Custom.Twice", symbind.TypeReal, []symbind.Type{symbind.TypeReal}, nil)

	cases := []struct {
		name string
		e    symbind.Expr
		want symbind.KnownFunction
		ok   bool
	}{
		{"complex call", symbind.NewCall(symbind.ComplexSin, z), symbind.FuncSin, true},
		{"real operator", symbind.NewBinary(symbind.OpPower, x, num(2)), symbind.FuncPower, true},
		{"first registered wins", symbind.NewBinary(symbind.OpDivide, num(1), x), symbind.FuncDivide, true},
		{"boolean", symbind.NewUnary(symbind.OpNot, symbind.Bool(true)), symbind.FuncNot, true},
		{"unregistered func", symbind.NewCall(custom, x), 0, false},
		{"conversion", symbind.NewConvert(x, symbind.TypeComplex), 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, _, ok := std.Recognize(c.e)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, f)
		})
	}
}

func TestRecognizeConstant(t *testing.T) {
	cases := []struct {
		e    symbind.Expr
		want symbind.KnownConstant
		ok   bool
	}{
		{num(math.Pi), symbind.ConstPi, true},
		{symbind.NewMember(nil, symbind.RealE), symbind.ConstE, true},
		{symbind.Complex(1i), symbind.ConstI, true},
		{num(2 * math.Pi), symbind.ConstTau, true},
		{num(3), 0, false},
	}
	for _, c := range cases {
		k, ok := std.RecognizeConstant(c.e)
		assert.Equal(t, c.ok, ok, "%s", c.e)
		assert.Equal(t, c.want, k)
	}
}

func TestRecognizeRoundTrip(t *testing.T) {
	x := realVar("x")
	for _, f := range std.Functions() {
		var args []symbind.Expr
		switch {
		case f == symbind.FuncNot:
			args = []symbind.Expr{symbind.NewVariable("p", symbind.TypeBoolean)}
		case f == symbind.FuncAnd || f == symbind.FuncOr || f == symbind.FuncXor:
			p := symbind.NewVariable("p", symbind.TypeBoolean)
			args = []symbind.Expr{p, p}
		case f.Arity() == 2:
			args = []symbind.Expr{x, x}
		default:
			args = []symbind.Expr{x}
		}
		e, err := std.BindFunction(f, args...)
		require.NoError(t, err, f.Name())

		g, got, ok := std.Recognize(e)
		require.True(t, ok, f.Name())
		if f == symbind.FuncReciprocal {
			// The Real reciprocal template is also a division.
			assert.Equal(t, symbind.FuncDivide, g)
			continue
		}
		assert.Equal(t, f, g, f.Name())
		assert.Len(t, got, f.Arity())
	}
}

// ============================================================
// Concurrency
// ============================================================

func TestScope_ConcurrentUse(t *testing.T) {
	x := realVar("x")
	e := bind(t, symbind.FuncMultiply, bind(t, symbind.FuncSin, x), bind(t, symbind.FuncAdd, x, x))

	var wg sync.WaitGroup
	results := make([]symbind.Expr, 16)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := std.Simplify(e)
			if err == nil {
				results[i] = out
			}
		}()
	}
	wg.Wait()
	for _, r := range results {
		require.NotNil(t, r)
		assertExpr(t, results[0], r)
	}
}
