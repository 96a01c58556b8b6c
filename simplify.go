package symbind

import (
	"fmt"
	"math"
	"slices"
)

// Simplify rewrites e into a reduced, canonical form in one bottom-up pass:
// operands first, then the rule of the node's known function. Constants,
// variables, members, conversions and conditionals the scope does not
// recognize are rebuilt structurally; any other unrecognized node fails with
// an UnsupportedNodeKindError.
//
// Canonical sums list like-term-combined terms by base with higher powers
// first and the constant last; canonical products put the numeric
// coefficient first and hoist a negative sign out of the product. Division
// by the literal zero is left in place.
func (s *Scope) Simplify(e Expr) (out Expr, err error) {
	defer recoverError(&err)
	z := &simplifier{s: s}
	return z.simplify(e), nil
}

// Simplify is shorthand for s.Simplify(e).
func Simplify(s *Scope, e Expr) (Expr, error) { return s.Simplify(e) }

type simplifier struct {
	s *Scope
}

func (z *simplifier) simplify(e Expr) Expr {
	if e == nil {
		fail(fmt.Errorf("%w: nil expression", ErrUnsupportedNodeKind))
	}
	if _, ok := e.(*Block); ok {
		fail(&UnsupportedNodeKindError{Expr: e})
	}
	if f, args, ok := z.s.Recognize(e); ok {
		for i, a := range args {
			args[i] = z.simplify(a)
		}
		return z.apply(f, args...)
	}
	switch e := e.(type) {
	case *Constant, *Variable:
		return e
	case *Member:
		if e.object == nil {
			return e
		}
		obj := z.simplify(e.object)
		if c, ok := obj.(*Constant); ok && e.field.get != nil {
			return e.field.get(c)
		}
		return NewMember(obj, e.field)
	case *Unary:
		if e.op == OpConvert {
			return z.convert(z.simplify(e.operand), e.typ)
		}
	case *Conditional:
		return z.conditional(z.simplify(e.test), z.simplify(e.then), z.simplify(e.els))
	}
	fail(&UnsupportedNodeKindError{Expr: e})
	return nil
}

// apply runs the rule of f on operands that are already simplified. Rules
// build new subexpressions through apply, so every node they return is in
// canonical form.
func (z *simplifier) apply(f KnownFunction, args ...Expr) Expr {
	switch f {
	case FuncAdd, FuncSubtract, FuncMultiply, FuncDivide, FuncPower, FuncNegate:
		if test, vals, ok := z.hoist(args); ok {
			return z.guard(test, z.apply(f, vals...))
		}
	}

	switch f {
	case FuncAdd:
		return z.sum(resultType(args...), signed{args[0], 1}, signed{args[1], 1})
	case FuncSubtract:
		return z.sum(resultType(args...), signed{args[0], 1}, signed{args[1], -1})
	case FuncMultiply:
		return z.product(args[0], args[1])
	case FuncDivide:
		return z.divide(args[0], args[1])
	case FuncPower:
		return z.power(args[0], args[1])
	case FuncNegate:
		return z.negate(args[0])
	case FuncNot:
		return z.not(args[0])
	case FuncAnd, FuncOr, FuncXor:
		return z.logic(f, args[0], args[1])
	case FuncEqual, FuncNotEqual, FuncGreaterThan, FuncGreaterOrEqual, FuncLessThan, FuncLessOrEqual:
		return z.compare(f, args[0], args[1])
	case FuncExp:
		return z.apply(FuncPower, z.constant(ConstE, args[0].Type()), args[0])
	case FuncReciprocal:
		return z.apply(FuncDivide, numericConstant(1, args[0].Type()), args[0])
	case FuncLn:
		if k, ok := z.s.RecognizeConstant(args[0]); ok && k == ConstE {
			return numericConstant(1, args[0].Type())
		}
		if isValue(args[0], 1) {
			return numericConstant(0, args[0].Type())
		}
	}
	return z.bind(f, args...)
}

func (z *simplifier) bind(f KnownFunction, args ...Expr) Expr {
	e, err := z.s.BindFunction(f, args...)
	if err != nil {
		z.s.logger.Debug("simplify: rebind failed", "function", f.Name(), "error", err)
		fail(err)
	}
	return e
}

func (z *simplifier) constant(k KnownConstant, t Type) Expr {
	e, err := z.s.BindConstant(k, t)
	if err != nil {
		fail(err)
	}
	return e
}

// recognized returns the operands of e when it implements f.
func (z *simplifier) recognized(e Expr, f KnownFunction) ([]Expr, bool) {
	g, args, ok := z.s.Recognize(e)
	if !ok || g != f {
		return nil, false
	}
	return args, true
}

func (z *simplifier) isSum(e Expr) bool {
	f, _, ok := z.s.Recognize(e)
	return ok && (f == FuncAdd || f == FuncSubtract)
}

// powerParts splits e into base and exponent; the exponent is nil when e is
// not a power.
func (z *simplifier) powerParts(e Expr) (Expr, Expr) {
	if args, ok := z.recognized(e, FuncPower); ok {
		return args[0], args[1]
	}
	return e, nil
}

// compareByBase orders factors and terms by base, higher exponents first.
func (z *simplifier) compareByBase(a, b Expr) int {
	ab, ax := z.powerParts(a)
	bb, bx := z.powerParts(b)
	if c := compareExpr(ab, bb); c != 0 {
		return c
	}
	return compareExpr(orOne(bx), orOne(ax))
}

// ============================================================
// Domain guards
// ============================================================

// hoist lifts the tests of guarded operands; vals holds the guarded values.
func (z *simplifier) hoist(args []Expr) (Expr, []Expr, bool) {
	var test Expr
	vals := slices.Clone(args)
	for i, a := range args {
		c, ok := a.(*Conditional)
		if !ok || !c.IsGuard() {
			continue
		}
		vals[i] = c.then
		if test == nil {
			test = c.test
		} else {
			test = z.apply(FuncAnd, test, c.test)
		}
	}
	return test, vals, test != nil
}

func (z *simplifier) guard(test, v Expr) Expr {
	if c, ok := test.(*Constant); ok && c.typ == TypeBoolean {
		if c.b {
			return v
		}
		return Indeterminate(v.Type())
	}
	if g, ok := v.(*Conditional); ok && g.IsGuard() {
		return z.guard(z.apply(FuncAnd, test, g.test), g.then)
	}
	return Guard(test, v)
}

func (z *simplifier) conditional(test, then, els Expr) Expr {
	if c, ok := test.(*Constant); ok && c.typ == TypeBoolean {
		if c.b {
			return then
		}
		return els
	}
	if c, ok := els.(*Constant); ok && c.IsIndeterminate() {
		return z.guard(test, then)
	}
	return NewConditional(test, then, els)
}

func (z *simplifier) convert(x Expr, t Type) Expr {
	if x.Type() == t {
		return x
	}
	if c, ok := x.(*Constant); ok {
		return convertValue(c, t)
	}
	return NewConvert(x, t)
}

// ============================================================
// Sums
// ============================================================

type signed struct {
	e    Expr
	sign complex128
}

type term struct {
	coef complex128
	rest Expr // nil for the constant term
}

func (z *simplifier) sum(t Type, parts ...signed) Expr {
	var terms []term
	for _, p := range parts {
		terms = z.terms(terms, p.e, p.sign, t)
	}

	var konst complex128
	var groups []term
	for _, tm := range terms {
		if tm.rest == nil {
			konst = arith(OpAdd, t, konst, tm.coef)
			continue
		}
		if i := slices.IndexFunc(groups, func(g term) bool { return Equal(g.rest, tm.rest) }); i >= 0 {
			groups[i].coef = arith(OpAdd, t, groups[i].coef, tm.coef)
			continue
		}
		groups = append(groups, tm)
	}
	groups = slices.DeleteFunc(groups, func(g term) bool { return g.coef == 0 })
	slices.SortStableFunc(groups, func(a, b term) int { return z.compareByBase(a.rest, b.rest) })
	if konst != 0 || len(groups) == 0 {
		groups = append(groups, term{coef: konst})
	}
	return z.join(groups, t)
}

// terms flattens nested sums, differences and negations into signed terms.
func (z *simplifier) terms(out []term, e Expr, sign complex128, t Type) []term {
	if f, args, ok := z.s.Recognize(e); ok {
		switch f {
		case FuncAdd:
			out = z.terms(out, args[0], sign, t)
			return z.terms(out, args[1], sign, t)
		case FuncSubtract:
			out = z.terms(out, args[0], sign, t)
			return z.terms(out, args[1], -sign, t)
		case FuncNegate:
			return z.terms(out, args[0], -sign, t)
		}
	}
	c, rest := z.split(e, t)
	return append(out, term{coef: arith(OpMultiply, t, sign, c), rest: rest})
}

// split separates the numeric coefficient of a term from its symbolic rest.
func (z *simplifier) split(e Expr, t Type) (complex128, Expr) {
	if c, ok := e.(*Constant); ok && c.typ.numeric() {
		return c.num, nil
	}
	f, args, ok := z.s.Recognize(e)
	if !ok {
		return 1, e
	}
	switch f {
	case FuncNegate:
		c, rest := z.split(args[0], t)
		return -c, rest
	case FuncMultiply:
		coef := complex128(1)
		var fs []Expr
		for _, x := range z.chainFactors(nil, e) {
			if c, ok := x.(*Constant); ok && c.typ.numeric() {
				coef = arith(OpMultiply, t, coef, c.num)
				continue
			}
			fs = append(fs, x)
		}
		if coef == 1 {
			return 1, e
		}
		if len(fs) == 0 {
			return coef, nil
		}
		return coef, z.chain(1, fs, t)
	case FuncDivide:
		c, rest := z.split(args[0], t)
		if c == 1 {
			return 1, e
		}
		if rest == nil {
			rest = numericConstant(1, args[0].Type())
		}
		return c, z.bind(FuncDivide, rest, args[1])
	}
	return 1, e
}

func (z *simplifier) chainFactors(out []Expr, e Expr) []Expr {
	if args, ok := z.recognized(e, FuncMultiply); ok {
		out = z.chainFactors(out, args[0])
		return z.chainFactors(out, args[1])
	}
	return append(out, e)
}

// join builds the left-associated sum of canonical terms, starting from the
// first term with a non-negative coefficient.
func (z *simplifier) join(groups []term, t Type) Expr {
	head := slices.IndexFunc(groups, func(g term) bool { return !negative(g.coef) })
	var acc Expr
	if head < 0 {
		g := groups[0]
		acc = z.negate(z.term(-g.coef, g.rest, t))
		groups = groups[1:]
	} else {
		g := groups[head]
		acc = z.term(g.coef, g.rest, t)
		groups = slices.Delete(slices.Clone(groups), head, head+1)
	}
	for _, g := range groups {
		if negative(g.coef) {
			acc = z.bind(FuncSubtract, acc, z.term(-g.coef, g.rest, t))
		} else {
			acc = z.bind(FuncAdd, acc, z.term(g.coef, g.rest, t))
		}
	}
	return acc
}

func (z *simplifier) term(c complex128, rest Expr, t Type) Expr {
	if rest == nil {
		return numericConstant(c, coefType(c, t))
	}
	if c == 1 {
		return rest
	}
	return z.product(numericConstant(c, coefType(c, rest.Type())), rest)
}

// ============================================================
// Products
// ============================================================

type factors struct {
	coef     complex128
	num, den []Expr
}

func (z *simplifier) product(a, b Expr) Expr {
	t := resultType(a, b)
	f := factors{coef: 1}
	z.collect(&f, a, false, t)
	z.collect(&f, b, false, t)
	if f.coef == 0 {
		return numericConstant(0, t)
	}
	num := z.multiplyOut(f.coef, f.num, t)
	if len(f.den) == 0 {
		return num
	}
	return z.apply(FuncDivide, num, z.multiplyOut(1, f.den, t))
}

// collect flattens products, quotients and negations into f. Constant
// denominators stay in f.den so that division by zero is preserved.
func (z *simplifier) collect(f *factors, e Expr, inverse bool, t Type) {
	if c, ok := e.(*Constant); ok && c.typ.numeric() && !inverse {
		f.coef = arith(OpMultiply, t, f.coef, c.num)
		return
	}
	if g, args, ok := z.s.Recognize(e); ok {
		switch g {
		case FuncMultiply:
			z.collect(f, args[0], inverse, t)
			z.collect(f, args[1], inverse, t)
			return
		case FuncDivide:
			z.collect(f, args[0], inverse, t)
			z.collect(f, args[1], !inverse, t)
			return
		case FuncNegate:
			f.coef = -f.coef
			z.collect(f, args[0], inverse, t)
			return
		}
	}
	if inverse {
		f.den = append(f.den, e)
	} else {
		f.num = append(f.num, e)
	}
}

// multiplyOut builds the canonical product of coef and list: sums are
// distributed first, then like bases are combined by adding exponents. A
// base whose exponents cancel to zero contributes a base != 0 guard.
func (z *simplifier) multiplyOut(coef complex128, list []Expr, t Type) Expr {
	var fs []Expr
	for _, e := range list {
		if c, ok := e.(*Constant); ok && c.typ.numeric() {
			coef = arith(OpMultiply, t, coef, c.num)
			continue
		}
		fs = append(fs, e)
	}
	if coef == 0 {
		return numericConstant(0, t)
	}

	if i := slices.IndexFunc(fs, z.isSum); i >= 0 && (len(fs) > 1 || coef != 1) {
		g, args, _ := z.s.Recognize(fs[i])
		rest := z.multiplyOut(coef, slices.Delete(slices.Clone(fs), i, i+1), t)
		return z.apply(g, z.apply(FuncMultiply, rest, args[0]), z.apply(FuncMultiply, rest, args[1]))
	}

	type power struct {
		base, exp, orig Expr
		combined        bool
	}
	var ps []power
	for _, e := range fs {
		b, x := z.powerParts(e)
		if i := slices.IndexFunc(ps, func(p power) bool { return Equal(p.base, b) }); i >= 0 {
			ps[i].exp = z.apply(FuncAdd, orOne(ps[i].exp), orOne(x))
			ps[i].combined = true
			continue
		}
		ps = append(ps, power{base: b, exp: x, orig: e})
	}
	out := make([]Expr, 0, len(ps))
	var test Expr
	for _, p := range ps {
		if !p.combined {
			out = append(out, p.orig)
			continue
		}
		if _, named := z.s.RecognizeConstant(p.base); isValue(p.exp, 0) && !named {
			nonZero := z.apply(FuncNotEqual, p.base, numericConstant(0, p.base.Type()))
			if test == nil {
				test = nonZero
			} else {
				test = z.apply(FuncAnd, test, nonZero)
			}
		}
		r := z.apply(FuncPower, p.base, p.exp)
		if c, ok := r.(*Constant); ok && c.typ.numeric() {
			coef = arith(OpMultiply, t, coef, c.num)
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, z.compareByBase)
	if test != nil {
		return z.guard(test, z.chain(coef, out, t))
	}
	return z.chain(coef, out, t)
}

// chain builds coef*f1*f2*... associated to the left. A negative
// coefficient is hoisted out as a negation of the whole product.
func (z *simplifier) chain(coef complex128, fs []Expr, t Type) Expr {
	if len(fs) == 0 {
		return numericConstant(coef, coefType(coef, t))
	}
	neg := negative(coef)
	if neg {
		coef = -coef
	}
	var acc Expr
	if coef != 1 {
		acc = numericConstant(coef, coefType(coef, t))
	}
	for _, f := range fs {
		if acc == nil {
			acc = f
			continue
		}
		acc = z.bind(FuncMultiply, acc, f)
	}
	if neg {
		acc = z.bind(FuncNegate, acc)
	}
	return acc
}

// ============================================================
// Quotients and powers
// ============================================================

func (z *simplifier) divide(a, b Expr) Expr {
	t := resultType(a, b)
	switch {
	case isValue(b, 0):
		return z.bind(FuncDivide, a, b)
	case isValue(b, 1):
		return widen(a, t)
	case isValue(a, 0):
		return numericConstant(0, t)
	}
	if ca, ok := a.(*Constant); ok && ca.typ.numeric() {
		if cb, ok := b.(*Constant); ok && cb.typ.numeric() {
			return numericConstant(arith(OpDivide, t, ca.num, cb.num), t)
		}
	}
	if x, ok := z.recognized(a, FuncNegate); ok {
		return z.apply(FuncNegate, z.apply(FuncDivide, x[0], b))
	}
	if x, ok := z.recognized(b, FuncNegate); ok {
		return z.apply(FuncNegate, z.apply(FuncDivide, a, x[0]))
	}
	if x, ok := z.recognized(a, FuncDivide); ok {
		return z.apply(FuncDivide, x[0], z.apply(FuncMultiply, x[1], b))
	}
	if x, ok := z.recognized(b, FuncDivide); ok && !isValue(x[1], 0) {
		test := z.apply(FuncNotEqual, x[1], numericConstant(0, x[1].Type()))
		return z.guard(test, z.apply(FuncDivide, z.apply(FuncMultiply, a, x[1]), x[0]))
	}
	if x, ok := z.recognized(b, FuncSqrt); ok {
		if k, ok := x[0].(*Constant); ok && k.typ == TypeReal && k.RealValue() > 0 {
			return z.apply(FuncDivide, z.apply(FuncMultiply, a, b), k)
		}
	}
	return z.cancel(a, b, t)
}

// cancel removes bases common to numerator and denominator by subtracting
// exponents. Every cancelled base contributes a base != 0 guard.
func (z *simplifier) cancel(a, b Expr, t Type) Expr {
	nf, df := factors{coef: 1}, factors{coef: 1}
	z.collect(&nf, a, false, t)
	z.collect(&df, b, false, t)
	num := append(slices.Clone(nf.num), df.den...)
	den := append(slices.Clone(df.num), nf.den...)

	changed := false
	var test Expr
	for i := 0; i < len(den); i++ {
		db, dx := z.powerParts(den[i])
		j := slices.IndexFunc(num, func(n Expr) bool {
			nb, _ := z.powerParts(n)
			return Equal(nb, db)
		})
		if j < 0 {
			continue
		}
		nb, nx := z.powerParts(num[j])
		exp := z.apply(FuncSubtract, orOne(nx), orOne(dx))
		nonZero := z.apply(FuncNotEqual, db, numericConstant(0, db.Type()))
		if test == nil {
			test = nonZero
		} else {
			test = z.apply(FuncAnd, test, nonZero)
		}
		changed = true

		num = slices.Delete(slices.Clone(num), j, j+1)
		den = slices.Delete(slices.Clone(den), i, i+1)
		i--
		c, ok := exp.(*Constant)
		switch {
		case ok && c.is(0):
		case ok && c.typ.numeric() && negative(c.num):
			den = append(den, z.apply(FuncPower, nb, numericConstant(-c.num, c.typ)))
		default:
			num = append(num, z.apply(FuncPower, nb, exp))
		}
	}

	nc, dc := nf.coef, df.coef
	if dc != 1 && dc != 0 {
		if q := arith(OpDivide, t, nc, dc); integral(q) {
			nc, dc = q, 1
			changed = true
		}
	}
	if !changed {
		return z.bind(FuncDivide, a, b)
	}

	r := z.multiplyOut(nc, num, t)
	if d := z.multiplyOut(dc, den, t); !isValue(d, 1) {
		r = z.apply(FuncDivide, r, d)
	}
	if test == nil {
		return widen(r, t)
	}
	return z.guard(test, widen(r, t))
}

func (z *simplifier) power(a, b Expr) Expr {
	t := resultType(a, b)
	switch {
	case isValue(a, 1):
		return numericConstant(1, t)
	case isValue(b, 1):
		return widen(a, t)
	case isValue(b, 0):
		return numericConstant(1, t)
	}
	cb, bConst := b.(*Constant)
	bConst = bConst && cb.typ.numeric()
	if isValue(a, 0) && bConst {
		return numericConstant(0, t)
	}
	if ca, ok := a.(*Constant); ok && ca.typ.numeric() && bConst {
		if v := arith(OpPower, t, ca.num, cb.num); finite(v) {
			return numericConstant(v, t)
		}
		return z.bind(FuncPower, a, b)
	}
	if x, ok := z.recognized(a, FuncPower); ok {
		return z.apply(FuncPower, x[0], z.apply(FuncMultiply, x[1], b))
	}
	if bConst && z.isSum(a) {
		if n := real(cb.num); imag(cb.num) == 0 && n == math.Trunc(n) && n >= 2 && n <= 10 {
			h := math.Floor(n / 2)
			return z.apply(FuncMultiply,
				z.apply(FuncPower, a, numericConstant(complex(h, 0), cb.typ)),
				z.apply(FuncPower, a, numericConstant(complex(n-h, 0), cb.typ)))
		}
	}
	return z.bind(FuncPower, a, b)
}

func (z *simplifier) negate(a Expr) Expr {
	if c, ok := a.(*Constant); ok && c.typ.numeric() {
		return numericConstant(-c.num, c.typ)
	}
	if x, ok := z.recognized(a, FuncNegate); ok {
		return x[0]
	}
	if z.isSum(a) {
		return z.sum(a.Type(), signed{a, -1})
	}
	return z.bind(FuncNegate, a)
}

// ============================================================
// Boolean and comparison rules
// ============================================================

func (z *simplifier) not(a Expr) Expr {
	if c, ok := a.(*Constant); ok && c.typ == TypeBoolean {
		return Bool(!c.b)
	}
	if x, ok := z.recognized(a, FuncNot); ok {
		return x[0]
	}
	return z.bind(FuncNot, a)
}

func (z *simplifier) logic(f KnownFunction, a, b Expr) Expr {
	ca, aConst := a.(*Constant)
	cb, bConst := b.(*Constant)
	if aConst && bConst {
		return binaryValue(binaryFunctions[f], TypeBoolean, ca, cb)
	}
	switch f {
	case FuncAnd:
		switch {
		case aConst:
			if !ca.b {
				return ca
			}
			return b
		case bConst:
			if !cb.b {
				return cb
			}
			return a
		case z.same(a, b), z.absorbs(a, b, FuncOr):
			return a
		case z.absorbs(b, a, FuncOr):
			return b
		}
	case FuncOr:
		switch {
		case aConst:
			if ca.b {
				return ca
			}
			return b
		case bConst:
			if cb.b {
				return cb
			}
			return a
		case z.same(a, b), z.absorbs(a, b, FuncAnd):
			return a
		case z.absorbs(b, a, FuncAnd):
			return b
		}
	case FuncXor:
		switch {
		case aConst:
			if ca.b {
				return z.apply(FuncNot, b)
			}
			return b
		case bConst:
			if cb.b {
				return z.apply(FuncNot, a)
			}
			return a
		case z.same(a, b):
			return Bool(false)
		}
	}
	return z.bind(f, a, b)
}

// same reports whether a and b are the same subtree, using the matcher with
// no placeholders.
func (z *simplifier) same(a, b Expr) bool {
	r, err := Match(a, b, nil)
	return err == nil && r.Success
}

// absorbs reports whether b is a g-combination with a as one operand, so
// a and (a or x) and a or (a and x) both reduce to a.
func (z *simplifier) absorbs(a, b Expr, g KnownFunction) bool {
	args, ok := z.recognized(b, g)
	return ok && (z.same(a, args[0]) || z.same(a, args[1]))
}

func (z *simplifier) compare(f KnownFunction, a, b Expr) Expr {
	if ca, ok := a.(*Constant); ok {
		if cb, ok := b.(*Constant); ok {
			return binaryValue(binaryFunctions[f], TypeBoolean, ca, cb)
		}
	}
	return z.bind(f, a, b)
}

// ============================================================
// Helpers
// ============================================================

func resultType(args ...Expr) Type {
	for _, a := range args {
		if a.Type() == TypeComplex {
			return TypeComplex
		}
	}
	return TypeReal
}

func coefType(c complex128, t Type) Type {
	if imag(c) != 0 {
		return TypeComplex
	}
	return t
}

func isValue(e Expr, v float64) bool {
	c, ok := e.(*Constant)
	return ok && c.is(v)
}

func orOne(e Expr) Expr {
	if e == nil {
		return Real(1)
	}
	return e
}

// negative reports whether a coefficient reads as negative: a negative real
// part, or a zero real part and a negative imaginary part.
func negative(c complex128) bool {
	return real(c) < 0 || (real(c) == 0 && imag(c) < 0)
}

func integral(c complex128) bool {
	r := real(c)
	return imag(c) == 0 && !math.IsInf(r, 0) && r == math.Trunc(r)
}
