package mathexpr

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================
// MCP Tool Interface
// ============================================================

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

// HandleToolCall runs one tool. Expressions are passed either as source
// text or as the JSON node form produced by ToJSON.
func HandleToolCall(req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", errors.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", errors.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getExpr := func(key string) (Node, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, errors.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			n, err := Parse(val, nil)
			return n, errors.Wrapf(err, "param %s", key)
		case map[string]interface{}:
			n, err := FromJSON(val)
			return n, errors.Wrapf(err, "param %s", key)
		}
		return nil, errors.Errorf("param %s must be a string or expression object", key)
	}
	getScope := func() (Scope, error) {
		scope := NewMapScope()
		v, ok := req.Params["scope"]
		if !ok {
			return scope, nil
		}
		raw, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.New("param scope must be an object")
		}
		for name, val := range raw {
			switch x := val.(type) {
			case float64, bool, string:
				scope[name] = x
			default:
				return nil, errors.Errorf("scope %s must be a number, boolean or string", name)
			}
		}
		return scope, nil
	}
	fail := func(err error) ToolResponse {
		return ToolResponse{Error: err.Error()}
	}
	respond := func(n Node) ToolResponse {
		return ToolResponse{Result: toJSON(n), LaTeX: LaTeX(n), String: n.String()}
	}

	switch req.Tool {
	case "parse":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(e)

	case "evaluate":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		scope, err := getScope()
		if err != nil {
			return fail(err)
		}
		expr, err := CompileIn(e, nil, scope)
		if err != nil {
			return fail(err)
		}
		v, err := expr.Evaluate(scope)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: resultValue(v), String: FormatValue(v)}

	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		scope, err := getScope()
		if err != nil {
			return fail(err)
		}
		s, err := Simplify(e, &SimplifyOptions{Scope: scope})
		if err != nil {
			return fail(err)
		}
		return respond(s)

	case "derivative":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var")
		if err != nil {
			return fail(err)
		}
		d, err := Derivative(e, v, nil)
		if err != nil {
			return fail(err)
		}
		return respond(d)

	case "rationalize":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		scope, err := getScope()
		if err != nil {
			return fail(err)
		}
		r, err := Rationalize(e, scope, nil)
		if err != nil {
			return fail(err)
		}
		resp := respond(r.Expression)
		result := map[string]interface{}{
			"expression": toJSON(r.Expression),
			"numerator":  r.Numerator.String(),
			"variables":  r.Variables,
		}
		if r.Denominator != nil {
			result["denominator"] = r.Denominator.String()
		}
		if r.Coefficients != nil {
			result["coefficients"] = r.Coefficients
		}
		resp.Result = result
		return resp

	case "polynomial":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		scope, err := getScope()
		if err != nil {
			return fail(err)
		}
		p, coefs, err := Polynomial(e, scope)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]interface{}{"expression": toJSON(p), "coefficients": coefs},
			LaTeX:  LaTeX(p),
			String: p.String(),
		}

	case "to_latex":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		l := LaTeX(e)
		return ToolResponse{Result: l, LaTeX: l, String: e.String()}

	case "free_symbols":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		syms := FreeSymbols(e)
		sort.Strings(syms)
		return ToolResponse{Result: syms, String: strings.Join(syms, ", ")}

	case "to_json":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		s, err := ToJSON(e)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: toJSON(e), String: s}

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec()}
	}
	return ToolResponse{Error: "unknown tool: " + req.Tool}
}

// resultValue converts an evaluation result into a JSON-friendly value.
func resultValue(v Value) interface{} {
	switch x := v.(type) {
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return FormatValue(x)
		}
		return x
	case bool, string, nil:
		return x
	case *Matrix:
		out := make([]interface{}, len(x.data))
		for i, e := range x.data {
			out[i] = resultValue(e)
		}
		return map[string]interface{}{"size": x.Size(), "data": out}
	case *ResultSet:
		out := make([]interface{}, len(x.Entries))
		for i, e := range x.Entries {
			out[i] = resultValue(e)
		}
		return out
	}
	return FormatValue(v)
}

// MCPToolSpec returns the JSON schema of the tools served by HandleToolCall.
func MCPToolSpec() string {
	expr := map[string]string{"expr": "string"}
	exprScope := map[string]string{"expr": "string", "scope": "object"}
	tools := []map[string]interface{}{
		ts("parse", "Parse an expression and return its node tree", []string{"expr"}, expr),
		ts("evaluate", "Evaluate an expression. Optional scope of variable values", []string{"expr"}, exprScope),
		ts("simplify", "Simplify an expression with the default rewrite rules", []string{"expr"}, exprScope),
		ts("derivative", "Derivative d/dvar, simplified", []string{"expr", "var"}, map[string]string{"expr": "string", "var": "string"}),
		ts("rationalize", "Rewrite a rational expression as one fraction of polynomials", []string{"expr"}, exprScope),
		ts("polynomial", "Expand a one-variable polynomial and return its coefficients", []string{"expr"}, exprScope),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, expr),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, expr),
		ts("to_json", "Return the JSON node tree", []string{"expr"}, expr),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
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
