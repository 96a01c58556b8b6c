package symbind

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ============================================================
// MCP / tool-call interface
// ============================================================

// ToolRequest is one call against the tool surface. Expressions in Params
// use the JSON tree form read by Decoder.
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Observer receives the outcome of every handled request. Tool names
// outside the tool surface are reported as "unknown".
type Observer func(tool string, failed bool, elapsed time.Duration)

// MaxDerivativeOrder bounds the n parameter of the derivative tool.
const MaxDerivativeOrder = 64

var toolNames = map[string]bool{
	"simplify": true, "derivative": true, "recognize": true, "bind": true,
	"names": true, "evaluate": true, "batch": true, "schema": true,
}

type ToolOption func(*ToolHandler)

func WithToolLogger(l *slog.Logger) ToolOption {
	return func(h *ToolHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithBatchLimit bounds the number of batch sub-requests run at once.
func WithBatchLimit(n int) ToolOption {
	return func(h *ToolHandler) {
		if n > 0 {
			h.batchLimit = n
		}
	}
}

func WithObserver(o Observer) ToolOption {
	return func(h *ToolHandler) { h.observe = o }
}

// ToolHandler dispatches tool requests against one frozen Scope. It is safe
// for concurrent use.
type ToolHandler struct {
	scope      *Scope
	logger     *slog.Logger
	batchLimit int
	observe    Observer
}

func NewToolHandler(s *Scope, opts ...ToolOption) *ToolHandler {
	h := &ToolHandler{scope: s, logger: s.logger, batchLimit: 8}
	for _, o := range opts {
		o(h)
	}
	return h
}

// HandleToolCall handles req against the standard scope.
func HandleToolCall(req ToolRequest) ToolResponse {
	return NewToolHandler(Standard()).Handle(context.Background(), req)
}

// Handle runs one request. Failures are reported in ToolResponse.Error.
func (h *ToolHandler) Handle(ctx context.Context, req ToolRequest) ToolResponse {
	start := time.Now()
	resp := h.dispatch(ctx, req)
	elapsed := time.Since(start)
	if resp.Error != "" {
		h.logger.Debug("tool call failed", "tool", req.Tool, "error", resp.Error, "elapsed", elapsed)
	} else {
		h.logger.Debug("tool call", "tool", req.Tool, "elapsed", elapsed)
	}
	if h.observe != nil {
		tool := req.Tool
		if !toolNames[tool] {
			tool = "unknown"
		}
		h.observe(tool, resp.Error != "", elapsed)
	}
	return resp
}

func (h *ToolHandler) dispatch(ctx context.Context, req ToolRequest) ToolResponse {
	if err := ctx.Err(); err != nil {
		return ToolResponse{Error: err.Error()}
	}
	s := h.scope
	dec := NewDecoder(s)

	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be an expression object", key)
		}
		return dec.Decode(m)
	}

	getString := func(key string) (string, error) {
		v, ok := req.Params[key].(string)
		if !ok || v == "" {
			return "", fmt.Errorf("param %s must be a non-empty string", key)
		}
		return v, nil
	}

	getExprs := func(key string) ([]Expr, error) {
		raw, ok := req.Params[key]
		if !ok {
			return nil, nil
		}
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be an array", key)
		}
		out := make([]Expr, len(list))
		for i, it := range list {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("param %s[%d] must be an expression object", key, i)
			}
			e, err := dec.Decode(m)
			if err != nil {
				return nil, fmt.Errorf("param %s[%d]: %w", key, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: ToMap(e), String: s.Format(e), LaTeX: s.LaTeX(e)}
	}

	switch req.Tool {
	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		out, err := s.Simplify(e)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(out)

	case "derivative":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		name, err := getString("var")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, ok := dec.Lookup(name)
		if !ok {
			v = NewVariable(name, TypeReal)
		}
		n := 1
		if f, ok := req.Params["n"].(float64); ok {
			if f > MaxDerivativeOrder {
				return ToolResponse{Error: fmt.Sprintf("param n must be at most %d", MaxDerivativeOrder)}
			}
			n = int(f)
		}
		out, err := s.DerivativeN(e, v, n)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(out)

	case "recognize":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if k, ok := s.RecognizeConstant(e); ok {
			return ToolResponse{
				Result: map[string]interface{}{"constant": k.Name()},
				String: s.Format(e),
				LaTeX:  s.LaTeX(e),
			}
		}
		f, args, ok := s.Recognize(e)
		if !ok {
			return ToolResponse{Result: map[string]interface{}{"recognized": false}, String: s.Format(e)}
		}
		return ToolResponse{
			Result: map[string]interface{}{"function": f.Name(), "args": toMaps(args)},
			String: s.Format(e),
			LaTeX:  s.LaTeX(e),
		}

	case "bind":
		name, err := getString("name")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		k, err := s.BindName(name)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		var out Expr
		switch k := k.(type) {
		case KnownConstant:
			t := TypeReal
			if tn, ok := req.Params["type"].(string); ok {
				if t, ok = ParseType(tn); !ok {
					return ToolResponse{Error: fmt.Sprintf("unknown type: %s", tn)}
				}
			}
			out, err = s.BindConstant(k, t)
		case KnownFunction:
			var args []Expr
			if args, err = getExprs("args"); err == nil {
				out, err = s.BindFunction(k, args...)
			}
		}
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(out)

	case "names":
		if name, ok := req.Params["of"].(string); ok {
			k, err := s.BindName(name)
			if err != nil {
				return ToolResponse{Error: err.Error()}
			}
			preferred, _ := s.NameOf(k)
			return ToolResponse{Result: s.Aliases(k), String: preferred}
		}
		prefix, _ := req.Params["prefix"].(string)
		return ToolResponse{Result: s.NamesWithPrefix(prefix)}

	case "evaluate":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		env := Env{}
		if raw, ok := req.Params["env"].(map[string]interface{}); ok {
			for name, val := range raw {
				v, ok := dec.Lookup(name)
				if !ok {
					continue
				}
				c, err := decodeConstant(v.typ, val)
				if err != nil {
					return ToolResponse{Error: fmt.Sprintf("env %s: %v", name, err)}
				}
				env[v] = c
			}
		}
		c, err := Evaluate(e, env)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(c)

	case "batch":
		return h.batch(ctx, req.Params["requests"])

	case "schema":
		return ToolResponse{Result: MCPToolSpec(), String: "MCP tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// batch runs independent sub-requests concurrently. A failing sub-request
// reports its own error; only cancellation fails the whole batch.
func (h *ToolHandler) batch(ctx context.Context, raw interface{}) ToolResponse {
	list, ok := raw.([]interface{})
	if !ok {
		return ToolResponse{Error: "param requests must be an array"}
	}
	reqs := make([]ToolRequest, len(list))
	for i, it := range list {
		m, ok := it.(map[string]interface{})
		if !ok {
			return ToolResponse{Error: fmt.Sprintf("requests[%d] must be an object", i)}
		}
		tool, _ := m["tool"].(string)
		if tool == "batch" {
			return ToolResponse{Error: fmt.Sprintf("requests[%d]: batch requests do not nest", i)}
		}
		params, _ := m["params"].(map[string]interface{})
		reqs[i] = ToolRequest{Tool: tool, Params: params}
	}

	out := make([]ToolResponse, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.batchLimit)
	for i, r := range reqs {
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = h.Handle(gctx, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ToolResponse{Error: err.Error()}
	}
	return ToolResponse{Result: out, String: fmt.Sprintf("%d results", len(out))}
}

// MCPToolSpec returns the JSON schema of the tool surface.
func MCPToolSpec() string {
	tools := []map[string]interface{}{
		ts("simplify", "Simplify an expression tree", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("derivative", "Derivative with respect to var; optional n for repeated derivatives", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string", "n": "integer"}),
		ts("recognize", "Identify the known function or constant an expression computes", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("bind", "Build the concrete expression for a named function or constant", []string{"name"}, map[string]string{"name": "string", "args": "array", "type": "string"}),
		ts("names", "List bound names with a prefix, or the aliases of one name", []string{}, map[string]string{"prefix": "string", "of": "string"}),
		ts("evaluate", "Evaluate an expression; env maps variable names to values", []string{"expr"}, map[string]string{"expr": "object", "env": "object"}),
		ts("batch", "Run independent requests concurrently", []string{"requests"}, map[string]string{"requests": "array"}),
		ts("schema", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
