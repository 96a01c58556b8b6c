package symbind

import (
	"cmp"
	"math/cmplx"
)

var kindRank = [...]int{
	KindConstant:    0,
	KindVariable:    1,
	KindMember:      2,
	KindCall:        3,
	KindUnary:       4,
	KindBinary:      5,
	KindConditional: 6,
	KindBlock:       7,
}

// compareExpr is the structural order used to sort the operands of sums and
// products. Functions and fields compare by name, so distinct ones sharing a
// name tie; callers sort stably.
func compareExpr(a, b Expr) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		}
		return 1
	}
	if c := cmp.Compare(kindRank[a.Kind()], kindRank[b.Kind()]); c != 0 {
		return c
	}
	switch a := a.(type) {
	case *Constant:
		return compareConstants(a, b.(*Constant))
	case *Variable:
		o := b.(*Variable)
		if c := cmp.Compare(a.name, o.name); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, o.seq)
	case *Member:
		o := b.(*Member)
		if c := cmp.Compare(a.field.name, o.field.name); c != 0 {
			return c
		}
		return compareExpr(a.object, o.object)
	case *Call:
		o := b.(*Call)
		if c := cmp.Compare(a.fn.name, o.fn.name); c != 0 {
			return c
		}
		return compareLists(a.args, o.args)
	case *Unary:
		o := b.(*Unary)
		if c := cmp.Compare(a.op, o.op); c != 0 {
			return c
		}
		if c := cmp.Compare(a.typ, o.typ); c != 0 {
			return c
		}
		return compareExpr(a.operand, o.operand)
	case *Binary:
		o := b.(*Binary)
		if c := cmp.Compare(a.op, o.op); c != 0 {
			return c
		}
		return compareLists([]Expr{a.left, a.right}, []Expr{o.left, o.right})
	case *Conditional:
		o := b.(*Conditional)
		return compareLists([]Expr{a.test, a.then, a.els}, []Expr{o.test, o.then, o.els})
	case *Block:
		return compareLists(a.exprs, b.(*Block).exprs)
	}
	return 0
}

func compareLists(a, b []Expr) int {
	for i := 0; i < min(len(a), len(b)); i++ {
		if c := compareExpr(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareConstants(a, b *Constant) int {
	if c := cmp.Compare(a.typ, b.typ); c != 0 {
		return c
	}
	if a.typ == TypeBoolean {
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	}
	an, bn := cmplx.IsNaN(a.num), cmplx.IsNaN(b.num)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	if c := cmp.Compare(real(a.num), real(b.num)); c != 0 {
		return c
	}
	return cmp.Compare(imag(a.num), imag(b.num))
}
