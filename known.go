package symbind

import "fmt"

// Known is a representation-independent identity token: a KnownConstant or
// a KnownFunction. Tokens compare by identity, never by name.
type Known interface {
	Name() string
	known()
}

// ============================================================
// KnownConstant
// ============================================================

type KnownConstant int

const (
	ConstPi KnownConstant = iota + 1
	ConstTau
	ConstE
	ConstPhi
	ConstI
)

var knownConstantNames = [...]string{
	ConstPi:  "pi",
	ConstTau: "tau",
	ConstE:   "e",
	ConstPhi: "phi",
	ConstI:   "i",
}

// KnownConstants lists every constant token in declaration order.
func KnownConstants() []KnownConstant {
	ks := make([]KnownConstant, 0, len(knownConstantNames)-1)
	for k := ConstPi; int(k) < len(knownConstantNames); k++ {
		ks = append(ks, k)
	}
	return ks
}

func (k KnownConstant) Name() string {
	if k > 0 && int(k) < len(knownConstantNames) {
		return knownConstantNames[k]
	}
	return fmt.Sprintf("constant(%d)", int(k))
}

func (k KnownConstant) String() string { return k.Name() }
func (k KnownConstant) known()         {}

// ============================================================
// KnownFunction
// ============================================================

type KnownFunction int

const (
	FuncAdd KnownFunction = iota + 1
	FuncSubtract
	FuncMultiply
	FuncDivide
	FuncPower
	FuncNegate
	FuncNot
	FuncAnd
	FuncOr
	FuncXor
	FuncEqual
	FuncNotEqual
	FuncGreaterThan
	FuncGreaterOrEqual
	FuncLessThan
	FuncLessOrEqual
	FuncSin
	FuncCos
	FuncTan
	FuncAsin
	FuncAcos
	FuncAtan
	FuncSinh
	FuncCosh
	FuncTanh
	FuncAsinh
	FuncAcosh
	FuncAtanh
	FuncSqrt
	FuncExp
	FuncLn
	FuncLog10
	FuncAbs
	FuncReciprocal
)

type functionInfo struct {
	name  string
	arity int
}

var knownFunctions = [...]functionInfo{
	FuncAdd:            {"add", 2},
	FuncSubtract:       {"subtract", 2},
	FuncMultiply:       {"multiply", 2},
	FuncDivide:         {"divide", 2},
	FuncPower:          {"power", 2},
	FuncNegate:         {"negate", 1},
	FuncNot:            {"not", 1},
	FuncAnd:            {"and", 2},
	FuncOr:             {"or", 2},
	FuncXor:            {"xor", 2},
	FuncEqual:          {"equal", 2},
	FuncNotEqual:       {"notequal", 2},
	FuncGreaterThan:    {"greaterthan", 2},
	FuncGreaterOrEqual: {"greaterorequal", 2},
	FuncLessThan:       {"lessthan", 2},
	FuncLessOrEqual:    {"lessorequal", 2},
	FuncSin:            {"sin", 1},
	FuncCos:            {"cos", 1},
	FuncTan:            {"tan", 1},
	FuncAsin:           {"asin", 1},
	FuncAcos:           {"acos", 1},
	FuncAtan:           {"atan", 1},
	FuncSinh:           {"sinh", 1},
	FuncCosh:           {"cosh", 1},
	FuncTanh:           {"tanh", 1},
	FuncAsinh:          {"asinh", 1},
	FuncAcosh:          {"acosh", 1},
	FuncAtanh:          {"atanh", 1},
	FuncSqrt:           {"sqrt", 1},
	FuncExp:            {"exp", 1},
	FuncLn:             {"ln", 1},
	FuncLog10:          {"log10", 1},
	FuncAbs:            {"abs", 1},
	FuncReciprocal:     {"reciprocal", 1},
}

// KnownFunctions lists every function token in declaration order.
func KnownFunctions() []KnownFunction {
	fs := make([]KnownFunction, 0, len(knownFunctions)-1)
	for f := FuncAdd; int(f) < len(knownFunctions); f++ {
		fs = append(fs, f)
	}
	return fs
}

func (f KnownFunction) valid() bool { return f > 0 && int(f) < len(knownFunctions) }

func (f KnownFunction) Name() string {
	if f.valid() {
		return knownFunctions[f].name
	}
	return fmt.Sprintf("function(%d)", int(f))
}

// Arity is the parameter count every template of f must declare.
func (f KnownFunction) Arity() int {
	if f.valid() {
		return knownFunctions[f].arity
	}
	return 0
}

func (f KnownFunction) String() string { return f.Name() }
func (f KnownFunction) known()         {}

// binaryFunctions maps the arithmetic, logical and comparison tokens to the
// node operator their templates are built from.
var binaryFunctions = map[KnownFunction]BinaryOp{
	FuncAdd:            OpAdd,
	FuncSubtract:       OpSubtract,
	FuncMultiply:       OpMultiply,
	FuncDivide:         OpDivide,
	FuncPower:          OpPower,
	FuncAnd:            OpAnd,
	FuncOr:             OpOr,
	FuncXor:            OpXor,
	FuncEqual:          OpEqual,
	FuncNotEqual:       OpNotEqual,
	FuncGreaterThan:    OpGreaterThan,
	FuncGreaterOrEqual: OpGreaterOrEqual,
	FuncLessThan:       OpLessThan,
	FuncLessOrEqual:    OpLessOrEqual,
}
