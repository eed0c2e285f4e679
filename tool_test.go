package mathexpr_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

func call(tool string, params map[string]interface{}) mathexpr.ToolResponse {
	return mathexpr.HandleToolCall(mathexpr.ToolRequest{Tool: tool, Params: params})
}

// ============================================================
// MCP Tool tests
// ============================================================

func TestHandleToolCall_Parse(t *testing.T) {
	resp := call("parse", map[string]interface{}{"expr": "2x + 1"})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.String, "2 * x + 1")
	be.Equal(t, resp.LaTeX, `2\cdot x+1`)
	result, ok := resp.Result.(map[string]interface{})
	be.True(t, ok)
	be.Equal(t, result["type"], interface{}("operator"))
}

func TestHandleToolCall_Evaluate(t *testing.T) {
	resp := call("evaluate", map[string]interface{}{
		"expr":  "x^2 + y",
		"scope": map[string]interface{}{"x": 3.0, "y": 1.0},
	})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.Result, interface{}(10.0))
	be.Equal(t, resp.String, "10")
}

func TestHandleToolCall_EvaluateValues(t *testing.T) {
	resp := call("evaluate", map[string]interface{}{"expr": "[1, 2; 3, 4]"})
	be.Equal(t, resp.Error, "")
	m := resp.Result.(map[string]interface{})
	be.Equal(t, m["size"], interface{}([]int{2, 2}))
	be.Equal(t, len(m["data"].([]interface{})), 4)

	resp = call("evaluate", map[string]interface{}{"expr": "1 / 0"})
	be.Equal(t, resp.Result, interface{}("Infinity"))

	resp = call("evaluate", map[string]interface{}{"expr": "a = 2\na * 3"})
	be.Equal(t, resp.Result, interface{}([]interface{}{2.0, 6.0}))
}

func TestHandleToolCall_JSONInput(t *testing.T) {
	expr := mathexpr.ToJSONValue(mathexpr.MustParse("x * 2"))
	resp := call("evaluate", map[string]interface{}{
		"expr":  expr,
		"scope": map[string]interface{}{"x": 4.0},
	})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.Result, interface{}(8.0))
}

func TestHandleToolCall_Simplify(t *testing.T) {
	resp := call("simplify", map[string]interface{}{"expr": "x + 2 + 3"})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.String, "x + 5")

	resp = call("simplify", map[string]interface{}{
		"expr":  "x * y",
		"scope": map[string]interface{}{"y": 2.0},
	})
	be.Equal(t, resp.String, "2 * x")
}

func TestHandleToolCall_Derivative(t *testing.T) {
	resp := call("derivative", map[string]interface{}{"expr": "x^2 + x", "var": "x"})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.String, "2 * x + 1")

	resp = call("derivative", map[string]interface{}{"expr": "x^2"})
	be.Equal(t, resp.Error, "missing param: var")

	resp = call("derivative", map[string]interface{}{"expr": "gamma(x)", "var": "x"})
	be.True(t, strings.Contains(resp.Error, "not supported"))
}

func TestHandleToolCall_Rationalize(t *testing.T) {
	resp := call("rationalize", map[string]interface{}{"expr": "1/x + 1"})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.String, "(x + 1) / x")
	result := resp.Result.(map[string]interface{})
	be.Equal(t, result["numerator"], interface{}("x + 1"))
	be.Equal(t, result["denominator"], interface{}("x"))
	be.Equal(t, result["coefficients"], interface{}([]float64{1, 1}))
	be.Equal(t, result["variables"], interface{}([]string{"x"}))
}

func TestHandleToolCall_Polynomial(t *testing.T) {
	resp := call("polynomial", map[string]interface{}{"expr": "(x + 1)^2"})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.String, "x ^ 2 + 2 * x + 1")
	result := resp.Result.(map[string]interface{})
	be.Equal(t, result["coefficients"], interface{}([]float64{1, 2, 1}))

	resp = call("polynomial", map[string]interface{}{"expr": "x * y"})
	be.True(t, strings.Contains(resp.Error, "more than one variable"))
}

func TestHandleToolCall_LaTeX(t *testing.T) {
	resp := call("to_latex", map[string]interface{}{"expr": "x / 2"})
	be.Equal(t, resp.Error, "")
	be.Equal(t, resp.Result, interface{}(`\frac{x}{2}`))
}

func TestHandleToolCall_FreeSymbols(t *testing.T) {
	resp := call("free_symbols", map[string]interface{}{"expr": "z + y * x"})
	be.Equal(t, resp.Result, interface{}([]string{"x", "y", "z"}))
	be.Equal(t, resp.String, "x, y, z")
}

func TestHandleToolCall_ToJSON(t *testing.T) {
	resp := call("to_json", map[string]interface{}{"expr": "x + 1"})
	be.Equal(t, resp.Error, "")
	n, err := mathexpr.ParseJSON(resp.String)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "x + 1")
}

func TestHandleToolCall_Errors(t *testing.T) {
	tests := []struct {
		tool   string
		params map[string]interface{}
		want   string
	}{
		{"nope", nil, "unknown tool: nope"},
		{"parse", map[string]interface{}{}, "missing param: expr"},
		{"parse", map[string]interface{}{"expr": 3.0}, "param expr must be a string or expression object"},
		{"parse", map[string]interface{}{"expr": "2 +"}, "param expr"},
		{"evaluate", map[string]interface{}{"expr": "x", "scope": "x"}, "param scope must be an object"},
		{"evaluate", map[string]interface{}{"expr": "x", "scope": map[string]interface{}{"x": []interface{}{}}}, "scope x must be"},
		{"evaluate", map[string]interface{}{"expr": "x"}, "Undefined symbol x"},
		{"derivative", map[string]interface{}{"expr": "x", "var": 1.0}, "param var must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.want, func(t *testing.T) {
			resp := call(tt.tool, tt.params)
			be.True(t, strings.Contains(resp.Error, tt.want))
		})
	}
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
	err := json.Unmarshal([]byte(mathexpr.MCPToolSpec()), &spec)
	be.Err(t, err, nil)

	names := map[string]bool{}
	for _, tool := range spec.Tools {
		names[tool.Name] = true
		// Every advertised tool is served.
		resp := call(tool.Name, map[string]interface{}{"expr": "x", "var": "x"})
		be.True(t, !strings.HasPrefix(resp.Error, "unknown tool"))
	}
	for _, name := range []string{"parse", "evaluate", "simplify", "derivative", "rationalize", "polynomial", "to_latex"} {
		be.True(t, names[name])
	}

	resp := call("mcp_spec", nil)
	be.Equal(t, resp.Result, interface{}(mathexpr.MCPToolSpec()))
}
