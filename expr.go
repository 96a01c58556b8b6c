package symbind

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"strings"
	"sync/atomic"
)

// ============================================================
// Types
// ============================================================

// Type is the numeric representation an expression evaluates in.
type Type int

const (
	TypeInvalid Type = iota
	TypeReal
	TypeComplex
	TypeBoolean
)

func (t Type) String() string {
	switch t {
	case TypeReal:
		return "real"
	case TypeComplex:
		return "complex"
	case TypeBoolean:
		return "boolean"
	}
	return "invalid"
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(s) {
	case "real":
		return TypeReal, true
	case "complex":
		return TypeComplex, true
	case "boolean", "bool":
		return TypeBoolean, true
	}
	return TypeInvalid, false
}

func (t Type) numeric() bool { return t == TypeReal || t == TypeComplex }

// widens reports whether a value of type from may be converted implicitly to
// type to. Real to Complex is the only widening; narrowing is never implicit.
func widens(from, to Type) bool { return from == TypeReal && to == TypeComplex }

// Kind tags the concrete node type of an Expr.
type Kind int

const (
	KindConstant Kind = iota + 1
	KindVariable
	KindUnary
	KindBinary
	KindCall
	KindMember
	KindConditional
	KindBlock
)

var kindNames = [...]string{
	KindConstant:    "constant",
	KindVariable:    "variable",
	KindUnary:       "unary",
	KindBinary:      "binary",
	KindCall:        "call",
	KindMember:      "member",
	KindConditional: "conditional",
	KindBlock:       "block",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable expression tree node. The set of implementations is
// closed: *Constant, *Variable, *Unary, *Binary, *Call, *Member,
// *Conditional and *Block.
type Expr interface {
	Kind() Kind
	Type() Type
	String() string
	node()
}

// ============================================================
// Constant
// ============================================================

type Constant struct {
	typ Type
	num complex128
	b   bool
}

func Real(v float64) *Constant       { return &Constant{typ: TypeReal, num: complex(v, 0)} }
func Complex(v complex128) *Constant { return &Constant{typ: TypeComplex, num: v} }
func Bool(v bool) *Constant          { return &Constant{typ: TypeBoolean, b: v} }

func (c *Constant) Kind() Kind               { return KindConstant }
func (c *Constant) Type() Type               { return c.typ }
func (c *Constant) RealValue() float64       { return real(c.num) }
func (c *Constant) ComplexValue() complex128 { return c.num }
func (c *Constant) BoolValue() bool          { return c.b }
func (c *Constant) node()                    {}

// Indeterminate returns the NaN marker of type t. As the alternative of a
// Conditional it marks the consequent as valid only under the test.
func Indeterminate(t Type) *Constant {
	if t == TypeComplex {
		return Complex(cmplx.NaN())
	}
	return Real(math.NaN())
}

func (c *Constant) IsIndeterminate() bool {
	return c.typ.numeric() && cmplx.IsNaN(c.num)
}

// numericConstant returns a constant of value v in representation t.
func numericConstant(v complex128, t Type) *Constant {
	if t == TypeComplex {
		return Complex(v)
	}
	return Real(real(v))
}

func (c *Constant) is(v float64) bool {
	return c.typ.numeric() && c.num == complex(v, 0)
}

func (c *Constant) String() string { return FormatConstant(c) }

// ============================================================
// Variable
// ============================================================

var variableSeq atomic.Uint64

// Variable is a named parameter. Variables are compared by identity: two
// variables with the same name are distinct unless they are the same object.
type Variable struct {
	name string
	typ  Type
	seq  uint64
}

func NewVariable(name string, t Type) *Variable {
	return &Variable{name: name, typ: t, seq: variableSeq.Add(1)}
}

func (v *Variable) Kind() Kind     { return KindVariable }
func (v *Variable) Type() Type     { return v.typ }
func (v *Variable) Name() string   { return v.name }
func (v *Variable) String() string { return v.name }
func (v *Variable) node()          {}

// ============================================================
// Unary
// ============================================================

type UnaryOp int

const (
	OpNegate UnaryOp = iota + 1
	OpNot
	OpConvert
)

var unaryOpNames = [...]string{OpNegate: "negate", OpNot: "not", OpConvert: "convert"}

func (op UnaryOp) String() string {
	if op > 0 && int(op) < len(unaryOpNames) {
		return unaryOpNames[op]
	}
	return fmt.Sprintf("unary(%d)", int(op))
}

type Unary struct {
	op      UnaryOp
	operand Expr
	typ     Type
}

// NewUnary builds a Negate or Not node. Use NewConvert for conversions.
func NewUnary(op UnaryOp, x Expr) *Unary {
	t := x.Type()
	if op == OpNot {
		t = TypeBoolean
	}
	return &Unary{op: op, operand: x, typ: t}
}

// NewConvert converts x to the representation to.
func NewConvert(x Expr, to Type) *Unary {
	return &Unary{op: OpConvert, operand: x, typ: to}
}

func (u *Unary) Kind() Kind    { return KindUnary }
func (u *Unary) Type() Type    { return u.typ }
func (u *Unary) Op() UnaryOp   { return u.op }
func (u *Unary) Operand() Expr { return u.operand }
func (u *Unary) node()         {}

func (u *Unary) String() string {
	switch u.op {
	case OpNegate:
		return "-" + u.operand.String()
	case OpNot:
		return "!" + u.operand.String()
	}
	return "(" + u.typ.String() + ")" + u.operand.String()
}

// ============================================================
// Binary
// ============================================================

type BinaryOp int

const (
	OpAdd BinaryOp = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
	OpAnd
	OpOr
	OpXor
	OpEqual
	OpNotEqual
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
)

var binaryOps = [...]struct{ name, symbol string }{
	OpAdd:            {"add", "+"},
	OpSubtract:       {"subtract", "-"},
	OpMultiply:       {"multiply", "*"},
	OpDivide:         {"divide", "/"},
	OpPower:          {"power", "^"},
	OpAnd:            {"and", "&&"},
	OpOr:             {"or", "||"},
	OpXor:            {"xor", "^^"},
	OpEqual:          {"equal", "=="},
	OpNotEqual:       {"notequal", "!="},
	OpGreaterThan:    {"greaterthan", ">"},
	OpGreaterOrEqual: {"greaterorequal", ">="},
	OpLessThan:       {"lessthan", "<"},
	OpLessOrEqual:    {"lessorequal", "<="},
}

func (op BinaryOp) String() string {
	if op > 0 && int(op) < len(binaryOps) {
		return binaryOps[op].name
	}
	return fmt.Sprintf("binary(%d)", int(op))
}

func (op BinaryOp) Symbol() string {
	if op > 0 && int(op) < len(binaryOps) {
		return binaryOps[op].symbol
	}
	return "?"
}

func (op BinaryOp) comparison() bool { return op >= OpEqual && op <= OpLessOrEqual }

type Binary struct {
	op          BinaryOp
	left, right Expr
	typ         Type
}

// NewBinary builds a binary node. Comparisons are Boolean; arithmetic is
// Complex when either operand is Complex.
func NewBinary(op BinaryOp, left, right Expr) *Binary {
	t := left.Type()
	switch {
	case op.comparison():
		t = TypeBoolean
	case right.Type() == TypeComplex:
		t = TypeComplex
	}
	return &Binary{op: op, left: left, right: right, typ: t}
}

func (b *Binary) Kind() Kind   { return KindBinary }
func (b *Binary) Type() Type   { return b.typ }
func (b *Binary) Op() BinaryOp { return b.op }
func (b *Binary) Left() Expr   { return b.left }
func (b *Binary) Right() Expr  { return b.right }
func (b *Binary) node()        {}

func (b *Binary) String() string {
	return "(" + b.left.String() + " " + b.op.Symbol() + " " + b.right.String() + ")"
}

// ============================================================
// Func and Call
// ============================================================

// Func is a concrete, representation-specific function such as
// "Complex.Sin". Funcs are compared by identity.
type Func struct {
	name   string
	params []Type
	result Type
	eval   func(args []*Constant) (*Constant, bool)
}

// NewFunc declares a concrete function. eval may be nil when the function
// cannot be folded.
func NewFunc(name string, result Type, params []Type, eval func(args []*Constant) (*Constant, bool)) *Func {
	return &Func{name: name, params: slices.Clone(params), result: result, eval: eval}
}

func (f *Func) Name() string   { return f.name }
func (f *Func) Result() Type   { return f.result }
func (f *Func) Params() []Type { return slices.Clone(f.params) }
func (f *Func) String() string { return f.name }

type Call struct {
	fn   *Func
	args []Expr
}

func NewCall(fn *Func, args ...Expr) *Call {
	return &Call{fn: fn, args: slices.Clone(args)}
}

func (c *Call) Kind() Kind     { return KindCall }
func (c *Call) Type() Type     { return c.fn.result }
func (c *Call) Func() *Func    { return c.fn }
func (c *Call) NumArgs() int   { return len(c.args) }
func (c *Call) Arg(i int) Expr { return c.args[i] }
func (c *Call) Args() []Expr   { return slices.Clone(c.args) }
func (c *Call) node()          {}

func (c *Call) String() string {
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = a.String()
	}
	return c.fn.name + "(" + strings.Join(parts, ", ") + ")"
}

// ============================================================
// Field and Member
// ============================================================

// Field is a well-known property: either static (a named constant such as
// Real.Pi) or read from an object (the real part of a complex value).
type Field struct {
	name  string
	owner Type
	typ   Type
	value *Constant
	get   func(obj *Constant) *Constant
}

// NewStaticField declares a named constant value.
func NewStaticField(name string, value *Constant) *Field {
	return &Field{name: name, typ: value.Type(), value: value}
}

// NewField declares a property of values of type owner.
func NewField(name string, owner, typ Type, get func(obj *Constant) *Constant) *Field {
	return &Field{name: name, owner: owner, typ: typ, get: get}
}

func (f *Field) Name() string   { return f.name }
func (f *Field) Type() Type     { return f.typ }
func (f *Field) Static() bool   { return f.owner == TypeInvalid }
func (f *Field) String() string { return f.name }

type Member struct {
	object Expr
	field  *Field
}

// NewMember reads field from object; object is nil for static fields.
func NewMember(object Expr, field *Field) *Member {
	return &Member{object: object, field: field}
}

func (m *Member) Kind() Kind    { return KindMember }
func (m *Member) Type() Type    { return m.field.typ }
func (m *Member) Object() Expr  { return m.object }
func (m *Member) Field() *Field { return m.field }
func (m *Member) node()         {}

func (m *Member) String() string {
	if m.object == nil {
		return m.field.name
	}
	return m.object.String() + "." + m.field.name
}

// ============================================================
// Conditional
// ============================================================

type Conditional struct {
	test, then, els Expr
}

func NewConditional(test, then, els Expr) *Conditional {
	return &Conditional{test: test, then: then, els: els}
}

// Guard marks value as valid only when test holds.
func Guard(test, value Expr) *Conditional {
	return &Conditional{test: test, then: value, els: Indeterminate(value.Type())}
}

func (c *Conditional) Kind() Kind { return KindConditional }
func (c *Conditional) Type() Type { return c.then.Type() }
func (c *Conditional) Test() Expr { return c.test }
func (c *Conditional) Then() Expr { return c.then }
func (c *Conditional) Else() Expr { return c.els }
func (c *Conditional) node()      {}

// IsGuard reports whether the alternative is the Indeterminate marker.
func (c *Conditional) IsGuard() bool {
	k, ok := c.els.(*Constant)
	return ok && k.IsIndeterminate()
}

func (c *Conditional) String() string {
	return "(" + c.test.String() + " ? " + c.then.String() + " : " + c.els.String() + ")"
}

// ============================================================
// Block
// ============================================================

// Block is a sequence of expressions valued by the last one. It exists so
// that trees produced outside the arithmetic sublanguage can be represented;
// the matcher, simplifier and differentiator all reject it.
type Block struct {
	exprs []Expr
}

func NewBlock(exprs ...Expr) *Block { return &Block{exprs: slices.Clone(exprs)} }

func (b *Block) Kind() Kind    { return KindBlock }
func (b *Block) Exprs() []Expr { return slices.Clone(b.exprs) }
func (b *Block) node()         {}

func (b *Block) Type() Type {
	if len(b.exprs) == 0 {
		return TypeInvalid
	}
	return b.exprs[len(b.exprs)-1].Type()
}

func (b *Block) String() string {
	parts := make([]string, len(b.exprs))
	for i, e := range b.exprs {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

// ============================================================
// Structural equality
// ============================================================

// Equal reports whether a and b are structurally equal. Variables, functions
// and fields compare by identity; indeterminate constants equal each other.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case *Constant:
		return constantsEqual(a, b.(*Constant))
	case *Variable:
		return a == b.(*Variable)
	case *Unary:
		o := b.(*Unary)
		return a.op == o.op && a.typ == o.typ && Equal(a.operand, o.operand)
	case *Binary:
		o := b.(*Binary)
		return a.op == o.op && Equal(a.left, o.left) && Equal(a.right, o.right)
	case *Call:
		o := b.(*Call)
		return a.fn == o.fn && exprsEqual(a.args, o.args)
	case *Member:
		o := b.(*Member)
		return a.field == o.field && Equal(a.object, o.object)
	case *Conditional:
		o := b.(*Conditional)
		return Equal(a.test, o.test) && Equal(a.then, o.then) && Equal(a.els, o.els)
	case *Block:
		return exprsEqual(a.exprs, b.(*Block).exprs)
	}
	return false
}

func exprsEqual(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func constantsEqual(a, b *Constant) bool {
	if a.typ != b.typ {
		return false
	}
	if a.typ == TypeBoolean {
		return a.b == b.b
	}
	if a.IsIndeterminate() || b.IsIndeterminate() {
		return a.IsIndeterminate() && b.IsIndeterminate()
	}
	return a.num == b.num
}

// DependsOn reports whether v occurs anywhere in e.
func DependsOn(e Expr, v *Variable) bool {
	switch e := e.(type) {
	case *Variable:
		return e == v
	case *Unary:
		return DependsOn(e.operand, v)
	case *Binary:
		return DependsOn(e.left, v) || DependsOn(e.right, v)
	case *Call:
		for _, a := range e.args {
			if DependsOn(a, v) {
				return true
			}
		}
	case *Member:
		return e.object != nil && DependsOn(e.object, v)
	case *Conditional:
		return DependsOn(e.test, v) || DependsOn(e.then, v) || DependsOn(e.els, v)
	case *Block:
		for _, x := range e.exprs {
			if DependsOn(x, v) {
				return true
			}
		}
	}
	return false
}

// Size counts the nodes of e.
func Size(e Expr) int {
	switch e := e.(type) {
	case nil:
		return 0
	case *Unary:
		return 1 + Size(e.operand)
	case *Binary:
		return 1 + Size(e.left) + Size(e.right)
	case *Call:
		n := 1
		for _, a := range e.args {
			n += Size(a)
		}
		return n
	case *Member:
		return 1 + Size(e.object)
	case *Conditional:
		return 1 + Size(e.test) + Size(e.then) + Size(e.els)
	case *Block:
		n := 1
		for _, x := range e.exprs {
			n += Size(x)
		}
		return n
	}
	return 1
}
