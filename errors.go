package symbind

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Sentinel errors. Every typed error below unwraps to one of these so callers
// can use errors.Is without caring about the carried details.
var (
	// ErrUnknownBinding is returned when a name or known object has no
	// registered counterpart in a scope.
	ErrUnknownBinding = errors.New("unknown binding")

	// ErrNoMatchingOverload is returned when no template of a known function
	// accepts the argument types, even after widening.
	ErrNoMatchingOverload = errors.New("no matching overload")

	// ErrUnsupportedNodeKind is returned for tree shapes outside the
	// arithmetic, comparison, boolean and conditional sublanguage.
	ErrUnsupportedNodeKind = errors.New("unsupported node kind")

	// ErrUnimplementedDerivative is returned when no derivative rule exists
	// for a node or known function.
	ErrUnimplementedDerivative = errors.New("unimplemented derivative")

	// ErrFrozenScope is returned when a builder is used after Freeze.
	ErrFrozenScope = errors.New("scope is frozen")

	// ErrArityMismatch is returned when a template's parameter count differs
	// from its function's arity.
	ErrArityMismatch = errors.New("template arity mismatch")

	// ErrInvalidTemplate is returned for templates that cannot be matched,
	// such as a body that is a bare placeholder.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrUnboundVariable is returned by Evaluate for a variable without a value.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrNotEvaluable is returned by Evaluate for a call to a function that
	// has no numeric implementation.
	ErrNotEvaluable = errors.New("not evaluable")
)

// UnknownBindingError names the binding that was looked up.
type UnknownBindingError struct {
	Name  string
	Known Known
}

func (e *UnknownBindingError) Error() string {
	if e.Known != nil {
		return fmt.Sprintf("%s: %s", ErrUnknownBinding, e.Known.Name())
	}
	return fmt.Sprintf("%s: %q", ErrUnknownBinding, e.Name)
}

func (e *UnknownBindingError) Unwrap() error { return ErrUnknownBinding }

// NoMatchingOverloadError carries the function and the offending arguments.
type NoMatchingOverloadError struct {
	Function Known
	Args     []Expr
}

func (e *NoMatchingOverloadError) Error() string {
	types := make([]string, len(e.Args))
	for i, a := range e.Args {
		types[i] = a.Type().String()
	}
	return fmt.Sprintf("%s: %s(%s)", ErrNoMatchingOverload, e.Function.Name(), strings.Join(types, ", "))
}

func (e *NoMatchingOverloadError) Unwrap() error { return ErrNoMatchingOverload }

type UnsupportedNodeKindError struct {
	Expr Expr
}

func (e *UnsupportedNodeKindError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrUnsupportedNodeKind, e.Expr.Kind(), e.Expr)
}

func (e *UnsupportedNodeKindError) Unwrap() error { return ErrUnsupportedNodeKind }

type UnimplementedDerivativeError struct {
	Expr     Expr
	Function KnownFunction
}

func (e *UnimplementedDerivativeError) Error() string {
	if e.Function != 0 {
		return fmt.Sprintf("%s: %s in %s", ErrUnimplementedDerivative, e.Function, e.Expr)
	}
	return fmt.Sprintf("%s: %s", ErrUnimplementedDerivative, e.Expr)
}

func (e *UnimplementedDerivativeError) Unwrap() error { return ErrUnimplementedDerivative }

// FrozenScopeError names the mutation attempted after Freeze.
type FrozenScopeError struct {
	Op string
}

func (e *FrozenScopeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrFrozenScope, e.Op)
}

func (e *FrozenScopeError) Unwrap() error { return ErrFrozenScope }

// fail aborts a rewrite in progress; the exported entry point recovers the
// error with recoverError.
func fail(err error) {
	panic(err)
}

func recoverError(err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(runtime.Error); ok {
			panic(r)
		}
		e, ok := r.(error)
		if !ok {
			panic(r)
		}
		*err = e
	}
}
