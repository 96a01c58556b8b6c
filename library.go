package symbind

import (
	"math"
	"math/cmplx"
	"sync"
)

// ============================================================
// Concrete functions and fields
// ============================================================

func realFunc(name string, f func(float64) float64) *Func {
	return NewFunc(name, TypeReal, []Type{TypeReal}, func(a []*Constant) (*Constant, bool) {
		return Real(f(a[0].RealValue())), true
	})
}

func complexFunc(name string, f func(complex128) complex128) *Func {
	return NewFunc(name, TypeComplex, []Type{TypeComplex}, func(a []*Constant) (*Constant, bool) {
		return Complex(f(a[0].ComplexValue())), true
	})
}

var (
	RealSin   = realFunc("Real.Sin", math.Sin)
	RealCos   = realFunc("Real.Cos", math.Cos)
	RealTan   = realFunc("Real.Tan", math.Tan)
	RealAsin  = realFunc("Real.Asin", math.Asin)
	RealAcos  = realFunc("Real.Acos", math.Acos)
	RealAtan  = realFunc("Real.Atan", math.Atan)
	RealSinh  = realFunc("Real.Sinh", math.Sinh)
	RealCosh  = realFunc("Real.Cosh", math.Cosh)
	RealTanh  = realFunc("Real.Tanh", math.Tanh)
	RealAsinh = realFunc("Real.Asinh", math.Asinh)
	RealAcosh = realFunc("Real.Acosh", math.Acosh)
	RealAtanh = realFunc("Real.Atanh", math.Atanh)
	RealSqrt  = realFunc("Real.Sqrt", math.Sqrt)
	RealExp   = realFunc("Real.Exp", math.Exp)
	RealLog   = realFunc("Real.Log", math.Log)
	RealLog10 = realFunc("Real.Log10", math.Log10)
	RealAbs   = realFunc("Real.Abs", math.Abs)

	ComplexSin        = complexFunc("Complex.Sin", cmplx.Sin)
	ComplexCos        = complexFunc("Complex.Cos", cmplx.Cos)
	ComplexTan        = complexFunc("Complex.Tan", cmplx.Tan)
	ComplexAsin       = complexFunc("Complex.Asin", cmplx.Asin)
	ComplexAcos       = complexFunc("Complex.Acos", cmplx.Acos)
	ComplexAtan       = complexFunc("Complex.Atan", cmplx.Atan)
	ComplexSinh       = complexFunc("Complex.Sinh", cmplx.Sinh)
	ComplexCosh       = complexFunc("Complex.Cosh", cmplx.Cosh)
	ComplexTanh       = complexFunc("Complex.Tanh", cmplx.Tanh)
	ComplexAsinh      = complexFunc("Complex.Asinh", cmplx.Asinh)
	ComplexAcosh      = complexFunc("Complex.Acosh", cmplx.Acosh)
	ComplexAtanh      = complexFunc("Complex.Atanh", cmplx.Atanh)
	ComplexSqrt       = complexFunc("Complex.Sqrt", cmplx.Sqrt)
	ComplexExp        = complexFunc("Complex.Exp", cmplx.Exp)
	ComplexLog        = complexFunc("Complex.Log", cmplx.Log)
	ComplexLog10      = complexFunc("Complex.Log10", cmplx.Log10)
	ComplexReciprocal = complexFunc("Complex.Reciprocal", func(z complex128) complex128 { return 1 / z })

	ComplexAbs = NewFunc("Complex.Abs", TypeReal, []Type{TypeComplex}, func(a []*Constant) (*Constant, bool) {
		return Real(cmplx.Abs(a[0].ComplexValue())), true
	})
)

var (
	RealPi              = NewStaticField("Real.Pi", Real(math.Pi))
	RealTau             = NewStaticField("Real.Tau", Real(2*math.Pi))
	RealE               = NewStaticField("Real.E", Real(math.E))
	RealPhi             = NewStaticField("Real.Phi", Real(math.Phi))
	ComplexImaginaryOne = NewStaticField("Complex.ImaginaryOne", Complex(1i))
)

var ComplexReal = NewField("Complex.Real", TypeComplex, TypeReal, func(c *Constant) *Constant {
	return Real(real(c.ComplexValue()))
})

var ComplexImaginary = NewField("Complex.Imaginary", TypeComplex, TypeReal, func(c *Constant) *Constant {
	return Real(imag(c.ComplexValue()))
})

// ============================================================
// Registration tables
// ============================================================

var standardNames = []struct {
	name string
	obj  Known
}{
	{"add", FuncAdd}, {"plus", FuncAdd},
	{"subtract", FuncSubtract}, {"minus", FuncSubtract},
	{"multiply", FuncMultiply}, {"times", FuncMultiply},
	{"divide", FuncDivide}, {"over", FuncDivide},
	{"power", FuncPower}, {"pow", FuncPower},
	{"negate", FuncNegate}, {"neg", FuncNegate},
	{"not", FuncNot}, {"and", FuncAnd}, {"or", FuncOr}, {"xor", FuncXor},
	{"equal", FuncEqual}, {"eq", FuncEqual},
	{"notequal", FuncNotEqual}, {"ne", FuncNotEqual},
	{"greaterthan", FuncGreaterThan}, {"gt", FuncGreaterThan},
	{"greaterorequal", FuncGreaterOrEqual}, {"ge", FuncGreaterOrEqual},
	{"lessthan", FuncLessThan}, {"lt", FuncLessThan},
	{"lessorequal", FuncLessOrEqual}, {"le", FuncLessOrEqual},
	{"sin", FuncSin}, {"sine", FuncSin},
	{"cos", FuncCos}, {"cosine", FuncCos},
	{"tan", FuncTan}, {"tangent", FuncTan},
	{"asin", FuncAsin}, {"arcsin", FuncAsin},
	{"acos", FuncAcos}, {"arccos", FuncAcos},
	{"atan", FuncAtan}, {"arctan", FuncAtan},
	{"sinh", FuncSinh}, {"cosh", FuncCosh}, {"tanh", FuncTanh},
	{"asinh", FuncAsinh}, {"arsinh", FuncAsinh},
	{"acosh", FuncAcosh}, {"arcosh", FuncAcosh},
	{"atanh", FuncAtanh}, {"artanh", FuncAtanh},
	{"sqrt", FuncSqrt}, {"exp", FuncExp},
	{"ln", FuncLn}, {"log", FuncLn}, {"log10", FuncLog10},
	{"abs", FuncAbs},
	{"reciprocal", FuncReciprocal}, {"recip", FuncReciprocal},
	{"pi", ConstPi}, {"π", ConstPi},
	{"tau", ConstTau}, {"τ", ConstTau},
	{"e", ConstE},
	{"phi", ConstPhi}, {"φ", ConstPhi},
	{"i", ConstI},
}

var arithmetic = []KnownFunction{FuncAdd, FuncSubtract, FuncMultiply, FuncDivide, FuncPower}

var orderings = []KnownFunction{FuncEqual, FuncNotEqual, FuncGreaterThan, FuncGreaterOrEqual, FuncLessThan, FuncLessOrEqual}

var realUnary = []struct {
	f  KnownFunction
	fn *Func
}{
	{FuncSin, RealSin}, {FuncCos, RealCos}, {FuncTan, RealTan},
	{FuncAsin, RealAsin}, {FuncAcos, RealAcos}, {FuncAtan, RealAtan},
	{FuncSinh, RealSinh}, {FuncCosh, RealCosh}, {FuncTanh, RealTanh},
	{FuncAsinh, RealAsinh}, {FuncAcosh, RealAcosh}, {FuncAtanh, RealAtanh},
	{FuncSqrt, RealSqrt}, {FuncExp, RealExp}, {FuncLn, RealLog},
	{FuncLog10, RealLog10}, {FuncAbs, RealAbs},
}

var complexUnary = []struct {
	f  KnownFunction
	fn *Func
}{
	{FuncSin, ComplexSin}, {FuncCos, ComplexCos}, {FuncTan, ComplexTan},
	{FuncAsin, ComplexAsin}, {FuncAcos, ComplexAcos}, {FuncAtan, ComplexAtan},
	{FuncSinh, ComplexSinh}, {FuncCosh, ComplexCosh}, {FuncTanh, ComplexTanh},
	{FuncAsinh, ComplexAsinh}, {FuncAcosh, ComplexAcosh}, {FuncAtanh, ComplexAtanh},
	{FuncSqrt, ComplexSqrt}, {FuncExp, ComplexExp}, {FuncLn, ComplexLog},
	{FuncLog10, ComplexLog10}, {FuncAbs, ComplexAbs}, {FuncReciprocal, ComplexReciprocal},
}

// NewStandardBuilder returns a builder preloaded with the Real, Complex and
// Boolean representations. Callers may add bindings before freezing it.
func NewStandardBuilder(opts ...BuilderOption) *Builder {
	b := NewBuilder(opts...)
	for _, n := range standardNames {
		b.Name(n.name, n.obj)
	}

	b.Constant(ConstPi, NewMember(nil, RealPi)).Constant(ConstPi, Real(math.Pi))
	b.Constant(ConstTau, NewMember(nil, RealTau)).Constant(ConstTau, Real(2*math.Pi))
	b.Constant(ConstE, NewMember(nil, RealE)).Constant(ConstE, Real(math.E))
	b.Constant(ConstPhi, NewMember(nil, RealPhi)).Constant(ConstPhi, Real(math.Phi))
	b.Constant(ConstI, NewMember(nil, ComplexImaginaryOne)).Constant(ConstI, Complex(1i))

	registerNumeric(b, TypeReal)
	for _, u := range realUnary {
		x := NewVariable("x", TypeReal)
		b.Function(u.f, NewCall(u.fn, x), x)
	}
	x := NewVariable("x", TypeReal)
	b.Function(FuncReciprocal, NewBinary(OpDivide, Real(1), x), x)

	registerNumeric(b, TypeComplex)
	for _, u := range complexUnary {
		z := NewVariable("z", TypeComplex)
		b.Function(u.f, NewCall(u.fn, z), z)
	}

	p, q := NewVariable("p", TypeBoolean), NewVariable("q", TypeBoolean)
	b.Function(FuncNot, NewUnary(OpNot, p), p)
	for _, f := range []KnownFunction{FuncAnd, FuncOr, FuncXor, FuncEqual, FuncNotEqual} {
		b.Function(f, NewBinary(binaryFunctions[f], p, q), p, q)
	}

	return b.Field(ComplexReal).Field(ComplexImaginary)
}

func registerNumeric(b *Builder, t Type) {
	x, y := NewVariable("x", t), NewVariable("y", t)
	for _, f := range arithmetic {
		b.Function(f, NewBinary(binaryFunctions[f], x, y), x, y)
	}
	b.Function(FuncNegate, NewUnary(OpNegate, x), x)
	cmps := orderings
	if t == TypeComplex {
		cmps = orderings[:2]
	}
	for _, f := range cmps {
		b.Function(f, NewBinary(binaryFunctions[f], x, y), x, y)
	}
}

var standard struct {
	once  sync.Once
	scope *Scope
}

// Standard returns the shared, frozen standard scope.
func Standard() *Scope {
	standard.once.Do(func() {
		s, err := NewStandardBuilder().Freeze()
		if err != nil {
			panic("symbind: standard scope: " + err.Error())
		}
		standard.scope = s
	})
	return standard.scope
}
