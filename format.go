package symbind

import (
	"math"
	"math/cmplx"
	"strconv"
	"strings"
)

// ============================================================
// Constant formatting
// ============================================================

var namedReals = []struct {
	v    float64
	name string
}{
	{math.Pi, "π"},
	{2 * math.Pi, "τ"},
	{math.E, "e"},
	{math.Phi, "φ"},
}

// FormatReal formats v with the shortest representation that round-trips,
// or as π, τ, e or φ when v equals one of them exactly.
func FormatReal(v float64) string {
	for _, n := range namedReals {
		switch v {
		case n.v:
			return n.name
		case -n.v:
			return "-" + n.name
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatComplex omits a zero real part and a zero imaginary part, and
// writes a unit imaginary part as i or -i.
func FormatComplex(v complex128) string {
	if cmplx.IsNaN(v) {
		return "NaN"
	}
	re, im := real(v), imag(v)
	if im == 0 {
		return FormatReal(re)
	}
	if re == 0 {
		return imaginary(im)
	}
	if im < 0 {
		return FormatReal(re) + " - " + imaginary(-im)
	}
	return FormatReal(re) + " + " + imaginary(im)
}

func imaginary(im float64) string {
	switch im {
	case 1:
		return "i"
	case -1:
		return "-i"
	}
	return FormatReal(im) + "i"
}

// FormatConstant formats c according to its representation.
func FormatConstant(c *Constant) string {
	switch c.typ {
	case TypeBoolean:
		return strconv.FormatBool(c.b)
	case TypeComplex:
		return FormatComplex(c.num)
	}
	return FormatReal(real(c.num))
}

// ============================================================
// Rendering
// ============================================================

const (
	precCond = iota + 1
	precOr
	precXor
	precAnd
	precCompare
	precSum
	precProduct
	precUnary
	precPower
	precAtom
)

type glyph struct {
	text, latex string
	prec        int
}

var infix = map[KnownFunction]glyph{
	FuncOr:             {" or ", ` \lor `, precOr},
	FuncXor:            {" xor ", ` \oplus `, precXor},
	FuncAnd:            {" and ", ` \land `, precAnd},
	FuncEqual:          {" == ", ` = `, precCompare},
	FuncNotEqual:       {" != ", ` \neq `, precCompare},
	FuncGreaterThan:    {" > ", ` > `, precCompare},
	FuncGreaterOrEqual: {" >= ", ` \geq `, precCompare},
	FuncLessThan:       {" < ", ` < `, precCompare},
	FuncLessOrEqual:    {" <= ", ` \leq `, precCompare},
	FuncAdd:            {" + ", ` + `, precSum},
	FuncSubtract:       {" - ", ` - `, precSum},
	FuncMultiply:       {"*", ` \cdot `, precProduct},
	FuncDivide:         {"/", "", precProduct},
	FuncPower:          {"^", "^", precPower},
}

var latexFunctions = map[KnownFunction]string{
	FuncSin: `\sin`, FuncCos: `\cos`, FuncTan: `\tan`,
	FuncAsin: `\arcsin`, FuncAcos: `\arccos`, FuncAtan: `\arctan`,
	FuncSinh: `\sinh`, FuncCosh: `\cosh`, FuncTanh: `\tanh`,
	FuncAsinh: `\operatorname{arsinh}`, FuncAcosh: `\operatorname{arcosh}`, FuncAtanh: `\operatorname{artanh}`,
	FuncExp: `\exp`, FuncLn: `\ln`, FuncLog10: `\log_{10}`,
}

var latexConstants = map[KnownConstant]string{
	ConstPi: `\pi`, ConstTau: `\tau`, ConstE: `e`, ConstPhi: `\varphi`, ConstI: `i`,
}

var opFunctions = func() map[BinaryOp]KnownFunction {
	m := make(map[BinaryOp]KnownFunction, len(binaryFunctions))
	for f, op := range binaryFunctions {
		m[op] = f
	}
	return m
}()

// Format renders e as text. Operators and named constants are chosen by
// recognition, so any registered representation prints the same way.
func (s *Scope) Format(e Expr) string {
	out, _ := (&printer{s: s}).expr(e)
	return out
}

// LaTeX renders e as a LaTeX math fragment.
func (s *Scope) LaTeX(e Expr) string {
	out, _ := (&printer{s: s, latex: true}).expr(e)
	return out
}

type printer struct {
	s     *Scope
	latex bool
}

// expr returns the rendering of e and its binding precedence.
func (p *printer) expr(e Expr) (string, int) {
	if e == nil {
		return "", precAtom
	}
	if k, ok := p.s.RecognizeConstant(e); ok {
		if p.latex {
			return latexConstants[k], precAtom
		}
		return p.name(k), precAtom
	}
	if f, args, ok := p.s.Recognize(e); ok {
		return p.known(f, args)
	}
	switch e := e.(type) {
	case *Constant:
		return p.constant(e)
	case *Variable:
		return e.name, precAtom
	case *Unary:
		switch e.op {
		case OpNegate:
			return p.prefix("-", e.operand), precUnary
		case OpNot:
			return p.prefix(p.pick("not ", `\lnot `), e.operand), precUnary
		}
		return p.expr(e.operand)
	case *Binary:
		return p.known(opFunctions[e.op], []Expr{e.left, e.right})
	case *Call:
		return p.call(p.pick(e.fn.name, `\operatorname{`+e.fn.name+`}`), e.args), precAtom
	case *Member:
		name := e.field.name
		if e.object == nil {
			return p.pick(name, `\mathrm{`+name+`}`), precAtom
		}
		short := name[strings.LastIndexByte(name, '.')+1:]
		return p.call(p.pick(short, `\operatorname{`+short+`}`), []Expr{e.object}), precAtom
	case *Conditional:
		return p.conditional(e), precCond
	case *Block:
		parts := make([]string, len(e.exprs))
		for i, x := range e.exprs {
			parts[i], _ = p.expr(x)
		}
		return "{" + strings.Join(parts, "; ") + "}", precAtom
	}
	return e.String(), precAtom
}

func (p *printer) pick(text, latex string) string {
	if p.latex {
		return latex
	}
	return text
}

func (p *printer) name(k Known) string {
	if n, err := p.s.NameOf(k); err == nil {
		return n
	}
	return k.Name()
}

func (p *printer) constant(c *Constant) (string, int) {
	out := FormatConstant(c)
	if p.latex {
		out = strings.NewReplacer("π", `\pi`, "τ", `\tau`, "φ", `\varphi`, "NaN", `\mathrm{NaN}`).Replace(out)
	}
	switch {
	case strings.Contains(out, " "):
		return out, precSum
	case strings.HasPrefix(out, "-"):
		return out, precUnary
	}
	return out, precAtom
}

func (p *printer) known(f KnownFunction, args []Expr) (string, int) {
	if g, ok := infix[f]; ok {
		return p.infix(f, g, args[0], args[1]), g.prec
	}
	a := args[0]
	switch f {
	case FuncNegate:
		return p.prefix("-", a), precUnary
	case FuncNot:
		return p.prefix(p.pick("not ", `\lnot `), a), precUnary
	}
	if !p.latex {
		return p.call(p.name(f), args), precAtom
	}
	x, _ := p.expr(a)
	switch f {
	case FuncSqrt:
		return `\sqrt{` + x + `}`, precAtom
	case FuncAbs:
		return `\left|` + x + `\right|`, precAtom
	case FuncReciprocal:
		return `\frac{1}{` + x + `}`, precProduct
	}
	name, ok := latexFunctions[f]
	if !ok {
		name = `\operatorname{` + f.Name() + `}`
	}
	return p.call(name, args), precAtom
}

func (p *printer) infix(f KnownFunction, g glyph, l, r Expr) string {
	ls, lp := p.expr(l)
	rs, rp := p.expr(r)
	if p.latex && f == FuncDivide {
		return `\frac{` + ls + `}{` + rs + `}`
	}
	if f == FuncPower {
		if lp <= precPower {
			ls = p.paren(ls)
		}
		if p.latex {
			return `{` + ls + `}^{` + rs + `}`
		}
		if rp < precPower {
			rs = p.paren(rs)
		}
		return ls + g.text + rs
	}
	if lp < g.prec || (g.prec == precCompare && lp == g.prec) {
		ls = p.paren(ls)
	}
	if rp <= g.prec {
		rs = p.paren(rs)
	}
	return ls + p.pick(g.text, g.latex) + rs
}

func (p *printer) prefix(op string, x Expr) string {
	s, prec := p.expr(x)
	if prec <= precUnary {
		s = p.paren(s)
	}
	return op + s
}

func (p *printer) call(name string, args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i], _ = p.expr(a)
	}
	if p.latex {
		return name + `\left(` + strings.Join(parts, ", ") + `\right)`
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func (p *printer) paren(s string) string {
	if p.latex {
		return `\left(` + s + `\right)`
	}
	return "(" + s + ")"
}

func (p *printer) conditional(c *Conditional) string {
	test, _ := p.expr(c.test)
	then, _ := p.expr(c.then)
	if c.IsGuard() {
		return then + p.pick(" if ", ` \quad \text{if } `) + test
	}
	els, _ := p.expr(c.els)
	if p.latex {
		return `\begin{cases} ` + then + ` & ` + test + ` \\ ` + els + ` & \text{otherwise} \end{cases}`
	}
	return "if " + test + " then " + then + " else " + els
}
