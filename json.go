package symbind

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON encodes e as a JSON tree.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(ToMap(e))
	return string(b), err
}

// ToMap converts e to the generic map form of its JSON tree. Concrete
// functions and fields are referenced by name.
func ToMap(e Expr) map[string]interface{} {
	switch e := e.(type) {
	case *Constant:
		m := map[string]interface{}{"kind": "constant", "type": e.typ.String()}
		switch e.typ {
		case TypeBoolean:
			m["value"] = e.b
		case TypeComplex:
			m["value"] = strconv.FormatComplex(e.num, 'g', -1, 128)
		default:
			m["value"] = strconv.FormatFloat(real(e.num), 'g', -1, 64)
		}
		return m
	case *Variable:
		return map[string]interface{}{"kind": "variable", "name": e.name, "type": e.typ.String()}
	case *Unary:
		m := map[string]interface{}{"kind": "unary", "op": e.op.String(), "operand": ToMap(e.operand)}
		if e.op == OpConvert {
			m["type"] = e.typ.String()
		}
		return m
	case *Binary:
		return map[string]interface{}{"kind": "binary", "op": e.op.String(), "left": ToMap(e.left), "right": ToMap(e.right)}
	case *Call:
		return map[string]interface{}{"kind": "call", "func": e.fn.name, "args": toMaps(e.args)}
	case *Member:
		m := map[string]interface{}{"kind": "member", "field": e.field.name}
		if e.object != nil {
			m["object"] = ToMap(e.object)
		}
		return m
	case *Conditional:
		return map[string]interface{}{"kind": "conditional", "test": ToMap(e.test), "then": ToMap(e.then), "else": ToMap(e.els)}
	case *Block:
		return map[string]interface{}{"kind": "block", "exprs": toMaps(e.exprs)}
	}
	return nil
}

func toMaps(es []Expr) []interface{} {
	out := make([]interface{}, len(es))
	for i, e := range es {
		out[i] = ToMap(e)
	}
	return out
}

// Decoder reads JSON trees against a scope, which resolves concrete
// functions, fields and the names used by the "apply" and "known" kinds.
// Variables with the same name decode to the same *Variable for the
// lifetime of the Decoder.
type Decoder struct {
	scope *Scope
	vars  map[string]*Variable
}

func NewDecoder(s *Scope) *Decoder {
	return &Decoder{scope: s, vars: map[string]*Variable{}}
}

// Variable returns the decoder's variable called name, creating it with type
// t on first use.
func (d *Decoder) Variable(name string, t Type) (*Variable, error) {
	if v, ok := d.vars[name]; ok {
		if v.typ != t {
			return nil, fmt.Errorf("variable %q is %s, not %s", name, v.typ, t)
		}
		return v, nil
	}
	v := NewVariable(name, t)
	d.vars[name] = v
	return v, nil
}

// Lookup returns a variable decoded earlier.
func (d *Decoder) Lookup(name string) (*Variable, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// DecodeJSON parses and decodes one JSON tree.
func (d *Decoder) DecodeJSON(b []byte) (Expr, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return d.Decode(data)
}

// Decode builds an expression from the generic map form of a JSON tree.
func (d *Decoder) Decode(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	kind, ok := data["kind"].(string)
	if !ok || kind == "" {
		return nil, fmt.Errorf("field 'kind' must be a non-empty string")
	}

	sub := func(field string) (Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", kind, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", kind, field)
		}
		e, err := d.Decode(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", kind, field, err)
		}
		return e, nil
	}

	subList := func(field string) ([]Expr, error) {
		raw, ok := data[field].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", kind, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", kind, field, i)
			}
			e, err := d.Decode(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", kind, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", kind, field)
		}
		return s, nil
	}

	subType := func(def Type) (Type, error) {
		s, ok := data["type"].(string)
		if !ok {
			if def == TypeInvalid {
				return 0, fmt.Errorf("%s: missing 'type'", kind)
			}
			return def, nil
		}
		t, ok := ParseType(s)
		if !ok {
			return 0, fmt.Errorf("%s: unknown type %q", kind, s)
		}
		return t, nil
	}

	switch kind {
	case "constant":
		t, err := subType(TypeReal)
		if err != nil {
			return nil, err
		}
		c, err := decodeConstant(t, data["value"])
		if err != nil {
			return nil, err
		}
		return c, nil

	case "variable":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		t, err := subType(TypeReal)
		if err != nil {
			return nil, err
		}
		v, err := d.Variable(name, t)
		if err != nil {
			return nil, err
		}
		return v, nil

	case "unary":
		op, err := subString("op")
		if err != nil {
			return nil, err
		}
		x, err := sub("operand")
		if err != nil {
			return nil, err
		}
		switch op {
		case "negate":
			return NewUnary(OpNegate, x), nil
		case "not":
			return NewUnary(OpNot, x), nil
		case "convert":
			t, err := subType(TypeInvalid)
			if err != nil {
				return nil, err
			}
			return NewConvert(x, t), nil
		}
		return nil, fmt.Errorf("unary: unknown op %q", op)

	case "binary":
		name, err := subString("op")
		if err != nil {
			return nil, err
		}
		op, ok := parseBinaryOp(name)
		if !ok {
			return nil, fmt.Errorf("binary: unknown op %q", name)
		}
		l, err := sub("left")
		if err != nil {
			return nil, err
		}
		r, err := sub("right")
		if err != nil {
			return nil, err
		}
		return NewBinary(op, l, r), nil

	case "call":
		name, err := subString("func")
		if err != nil {
			return nil, err
		}
		fn, ok := d.scope.Func(name)
		if !ok {
			return nil, &UnknownBindingError{Name: name}
		}
		args, err := subList("args")
		if err != nil {
			return nil, err
		}
		if len(args) != len(fn.params) {
			return nil, fmt.Errorf("call: %s takes %d arguments, got %d", name, len(fn.params), len(args))
		}
		return NewCall(fn, args...), nil

	case "member":
		name, err := subString("field")
		if err != nil {
			return nil, err
		}
		f, ok := d.scope.Field(name)
		if !ok {
			return nil, &UnknownBindingError{Name: name}
		}
		if f.Static() {
			return NewMember(nil, f), nil
		}
		obj, err := sub("object")
		if err != nil {
			return nil, err
		}
		return NewMember(obj, f), nil

	case "conditional":
		test, err := sub("test")
		if err != nil {
			return nil, err
		}
		then, err := sub("then")
		if err != nil {
			return nil, err
		}
		els, err := sub("else")
		if err != nil {
			return nil, err
		}
		return NewConditional(test, then, els), nil

	case "block":
		exprs, err := subList("exprs")
		if err != nil {
			return nil, err
		}
		return NewBlock(exprs...), nil

	case "apply":
		name, err := subString("function")
		if err != nil {
			return nil, err
		}
		k, err := d.scope.BindName(name)
		if err != nil {
			return nil, err
		}
		f, ok := k.(KnownFunction)
		if !ok {
			return nil, fmt.Errorf("apply: %q names a constant", name)
		}
		args, err := subList("args")
		if err != nil {
			return nil, err
		}
		return d.scope.BindFunction(f, args...)

	case "known":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		t, err := subType(TypeReal)
		if err != nil {
			return nil, err
		}
		k, err := d.scope.BindName(name)
		if err != nil {
			return nil, err
		}
		c, ok := k.(KnownConstant)
		if !ok {
			return nil, fmt.Errorf("known: %q names a function", name)
		}
		return d.scope.BindConstant(c, t)
	}
	return nil, fmt.Errorf("unknown expression kind: %s", kind)
}

func decodeConstant(t Type, v interface{}) (*Constant, error) {
	switch t {
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("constant: boolean 'value' must be true or false")
		}
		return Bool(b), nil
	case TypeComplex:
		switch v := v.(type) {
		case float64:
			return Complex(complex(v, 0)), nil
		case string:
			z, err := strconv.ParseComplex(v, 128)
			if err != nil {
				return nil, fmt.Errorf("constant: invalid complex value %q", v)
			}
			return Complex(z), nil
		}
	case TypeReal:
		switch v := v.(type) {
		case float64:
			return Real(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("constant: invalid real value %q", v)
			}
			return Real(f), nil
		}
	}
	return nil, fmt.Errorf("constant: 'value' must be a number or string")
}

func parseBinaryOp(name string) (BinaryOp, bool) {
	for op := OpAdd; int(op) < len(binaryOps); op++ {
		if binaryOps[op].name == name {
			return op, true
		}
	}
	return 0, false
}
