package symbind_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
)

var std = symbind.Standard()

func bind(t *testing.T, f symbind.KnownFunction, args ...symbind.Expr) symbind.Expr {
	t.Helper()
	e, err := std.BindFunction(f, args...)
	require.NoError(t, err)
	return e
}

func constant(t *testing.T, k symbind.KnownConstant, typ symbind.Type) symbind.Expr {
	t.Helper()
	e, err := std.BindConstant(k, typ)
	require.NoError(t, err)
	return e
}

func simplify(t *testing.T, e symbind.Expr) symbind.Expr {
	t.Helper()
	out, err := std.Simplify(e)
	require.NoError(t, err)
	return out
}

func num(v float64) *symbind.Constant { return symbind.Real(v) }

func realVar(name string) *symbind.Variable { return symbind.NewVariable(name, symbind.TypeReal) }

// assertExpr compares structurally and prints both trees on failure.
func assertExpr(t *testing.T, want, got symbind.Expr) {
	t.Helper()
	require.Truef(t, symbind.Equal(want, got), "want %s, got %s", want, got)
}
