// Package symbind is the binding and rewriting core of a symbolic math
// engine.
//
// Expressions are immutable trees over Real, Complex and Boolean values.
// A Scope, built once with a Builder and then frozen, ties the abstract
// known functions and constants (add, sin, pi, ...) to concrete expression
// templates, and works in both directions:
//   - BindFunction / BindConstant turn a known object into a concrete tree,
//     choosing the best overload and widening Real arguments to Complex.
//   - Recognize / RecognizeConstant identify which known object a concrete
//     tree computes, by structural matching against the templates.
//
// Simplify and Derivative are built on top of that: they think in terms of
// known functions and rebuild their results through the scope, so they work
// for any set of registered representations.
//
// The package also carries a JSON tree codec, text and LaTeX renderers, and
// an MCP-style tool dispatcher (HandleToolCall, MCPToolSpec).
package symbind
