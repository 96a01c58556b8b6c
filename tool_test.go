package symbind_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
)

type obj = map[string]interface{}

func variable(name string) obj { return obj{"kind": "variable", "name": name} }

func apply(fn string, args ...interface{}) obj {
	return obj{"kind": "apply", "function": fn, "args": args}
}

func lit(v float64) obj { return obj{"kind": "constant", "value": v} }

func TestTool_Operations(t *testing.T) {
	x := variable("x")
	cases := []struct {
		name   string
		req    symbind.ToolRequest
		string string
		err    string
	}{
		{"simplify", symbind.ToolRequest{Tool: "simplify", Params: obj{"expr": apply("add", x, x)}}, "2*x", ""},
		{"derivative", symbind.ToolRequest{Tool: "derivative", Params: obj{"expr": apply("sin", x), "var": "x"}}, "cos(x)", ""},
		{"derivative n", symbind.ToolRequest{Tool: "derivative", Params: obj{"expr": apply("pow", x, lit(3)), "var": "x", "n": float64(2)}}, "6*x", ""},
		{"derivative other var", symbind.ToolRequest{Tool: "derivative", Params: obj{"expr": apply("sin", x), "var": "y"}}, "0", ""},
		{"bind constant", symbind.ToolRequest{Tool: "bind", Params: obj{"name": "tau"}}, "τ", ""},
		{"bind function", symbind.ToolRequest{Tool: "bind", Params: obj{"name": "sqrt", "args": []interface{}{lit(4)}}}, "sqrt(4)", ""},
		{"evaluate", symbind.ToolRequest{Tool: "evaluate", Params: obj{"expr": apply("times", x, x), "env": obj{"x": float64(3), "w": float64(1)}}}, "9", ""},
		{"names of", symbind.ToolRequest{Tool: "names", Params: obj{"of": "LOG"}}, "ln", ""},
		{"missing expr", symbind.ToolRequest{Tool: "simplify", Params: obj{}}, "", "missing param: expr"},
		{"missing var", symbind.ToolRequest{Tool: "derivative", Params: obj{"expr": x}}, "", "param var must be a non-empty string"},
		{"bad type", symbind.ToolRequest{Tool: "bind", Params: obj{"name": "pi", "type": "octonion"}}, "", "unknown type: octonion"},
		{"unbound", symbind.ToolRequest{Tool: "evaluate", Params: obj{"expr": x}}, "", "unbound variable: x"},
		{"unknown name", symbind.ToolRequest{Tool: "bind", Params: obj{"name": "gamma"}}, "", "unknown binding"},
		{"unknown tool", symbind.ToolRequest{Tool: "integrate"}, "", "unknown tool: integrate"},
		{"derivative order cap", symbind.ToolRequest{Tool: "derivative", Params: obj{"expr": x, "var": "x", "n": float64(1e9)}}, "", "param n must be at most 64"},
		{"derivative negative order", symbind.ToolRequest{Tool: "derivative", Params: obj{"expr": x, "var": "x", "n": float64(-1)}}, "", "negative derivative order"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := symbind.HandleToolCall(c.req)
			if c.err != "" {
				assert.Contains(t, resp.Error, c.err)
				return
			}
			require.Empty(t, resp.Error)
			assert.Equal(t, c.string, resp.String)
		})
	}
}

func TestTool_Recognize(t *testing.T) {
	resp := symbind.HandleToolCall(symbind.ToolRequest{Tool: "recognize", Params: obj{"expr": apply("cosine", variable("x"))}})
	require.Empty(t, resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "cos", result["function"])

	resp = symbind.HandleToolCall(symbind.ToolRequest{Tool: "recognize", Params: obj{"expr": obj{"kind": "known", "name": "phi"}}})
	require.Empty(t, resp.Error)
	assert.Equal(t, map[string]interface{}{"constant": "phi"}, resp.Result)

	resp = symbind.HandleToolCall(symbind.ToolRequest{Tool: "recognize", Params: obj{"expr": variable("x")}})
	assert.Equal(t, map[string]interface{}{"recognized": false}, resp.Result)
}

func TestTool_Names(t *testing.T) {
	resp := symbind.HandleToolCall(symbind.ToolRequest{Tool: "names", Params: obj{"prefix": "tan"}})
	require.Empty(t, resp.Error)
	assert.Equal(t, []string{"tan", "tangent", "tanh"}, resp.Result)
}

func TestTool_Batch(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	h := symbind.NewToolHandler(std,
		symbind.WithBatchLimit(2),
		symbind.WithObserver(func(tool string, failed bool, _ time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			seen[tool]++
		}))

	resp := h.Handle(context.Background(), symbind.ToolRequest{Tool: "batch", Params: obj{"requests": []interface{}{
		obj{"tool": "simplify", "params": obj{"expr": apply("add", lit(1), lit(2))}},
		obj{"tool": "derivative", "params": obj{"expr": apply("exp", variable("t")), "var": "t"}},
		obj{"tool": "nope"},
	}}})
	require.Empty(t, resp.Error)
	assert.Equal(t, "3 results", resp.String)

	out, ok := resp.Result.([]symbind.ToolResponse)
	require.True(t, ok)
	require.Len(t, out, 3)
	assert.Equal(t, "3", out[0].String)
	assert.Equal(t, "e^t", out[1].String)
	assert.Contains(t, out[2].Error, "unknown tool")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"batch": 1, "simplify": 1, "derivative": 1, "unknown": 1}, seen)
}

func TestTool_BatchRejects(t *testing.T) {
	nested := symbind.HandleToolCall(symbind.ToolRequest{Tool: "batch", Params: obj{"requests": []interface{}{
		obj{"tool": "batch", "params": obj{}},
	}}})
	assert.Contains(t, nested.Error, "do not nest")

	missing := symbind.HandleToolCall(symbind.ToolRequest{Tool: "batch"})
	assert.Contains(t, missing.Error, "must be an array")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cancelled := symbind.NewToolHandler(std).Handle(ctx, symbind.ToolRequest{Tool: "simplify", Params: obj{"expr": lit(1)}})
	assert.Equal(t, context.Canceled.Error(), cancelled.Error)
}

func TestMCPToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name        string `json:"name"`
			InputSchema struct {
				Required []string `json:"required"`
			} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(symbind.MCPToolSpec()), &spec))

	names := make([]string, len(spec.Tools))
	for i, tool := range spec.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"simplify", "derivative", "recognize", "bind", "names", "evaluate", "batch", "schema"}, names)
	assert.Equal(t, []string{"expr", "var"}, spec.Tools[1].InputSchema.Required)

	resp := symbind.HandleToolCall(symbind.ToolRequest{Tool: "schema"})
	assert.Equal(t, symbind.MCPToolSpec(), resp.Result)
}
