package symbind_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
)

func TestMatch(t *testing.T) {
	p := realVar("p")
	q := realVar("q")
	x, y := realVar("x"), realVar("y")
	add := func(a, b symbind.Expr) symbind.Expr { return symbind.NewBinary(symbind.OpAdd, a, b) }

	cases := []struct {
		name    string
		pattern symbind.Expr
		subject symbind.Expr
		holes   []*symbind.Variable
		ok      bool
		bound   []symbind.Expr
	}{
		{"binds placeholders", add(p, q), add(x, num(2)), []*symbind.Variable{p, q}, true, []symbind.Expr{x, num(2)}},
		{"repeated placeholder", add(p, p), add(x, x), []*symbind.Variable{p}, true, []symbind.Expr{x}},
		{"repeated placeholder mismatch", add(p, p), add(x, y), []*symbind.Variable{p}, false, nil},
		{"operator mismatch", add(p, q), symbind.NewBinary(symbind.OpSubtract, x, y), []*symbind.Variable{p, q}, false, nil},
		{"no commutation", add(p, num(1)), add(num(1), x), []*symbind.Variable{p}, false, nil},
		{"type mismatch", p, symbind.NewVariable("z", symbind.TypeComplex), []*symbind.Variable{p}, false, nil},
		{"plain variable by identity", add(x, p), add(x, y), []*symbind.Variable{p}, true, []symbind.Expr{y}},
		{"plain variable other", add(x, p), add(y, y), []*symbind.Variable{p}, false, nil},
		{"call identity", symbind.NewCall(symbind.RealSin, p), symbind.NewCall(symbind.RealSin, x), []*symbind.Variable{p}, true, []symbind.Expr{x}},
		{"call other function", symbind.NewCall(symbind.RealSin, p), symbind.NewCall(symbind.RealCos, x), []*symbind.Variable{p}, false, nil},
		{"static member", symbind.NewMember(nil, symbind.RealPi), symbind.NewMember(nil, symbind.RealPi), nil, true, []symbind.Expr{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := symbind.Match(c.pattern, c.subject, c.holes)
			require.NoError(t, err)
			assert.Equal(t, c.ok, r.Success)
			if c.ok {
				require.Len(t, r.Bound, len(c.bound))
				for i := range c.bound {
					assertExpr(t, c.bound[i], r.Bound[i])
				}
			}
		})
	}
}

func TestMatch_UnusedPlaceholderIsIncomplete(t *testing.T) {
	p, q := realVar("p"), realVar("q")
	r, err := symbind.Match(p, num(3), []*symbind.Variable{p, q})
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.False(t, r.Complete())
	assert.Nil(t, r.Bound[1])
}

func TestMatch_Block(t *testing.T) {
	x := realVar("x")
	_, err := symbind.Match(x, symbind.NewBlock(num(1)), nil)
	assert.True(t, errors.Is(err, symbind.ErrUnsupportedNodeKind))

	_, err = symbind.Match(symbind.NewBlock(num(1)), symbind.NewBlock(num(1)), nil)
	var unsupported *symbind.UnsupportedNodeKindError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, symbind.KindBlock, unsupported.Expr.Kind())
}
