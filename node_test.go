package mathexpr_test

import (
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

// ============================================================
// Printing
// ============================================================

func TestString_RoundTrip(t *testing.T) {
	srcs := []string{
		"2 + 6 / 3",
		"(a + b) * c",
		"a - (b - c)",
		"a / (b * c)",
		"2 ^ 3 ^ 4",
		"(2 ^ 3) ^ 4",
		"-(-2)",
		"f(x) = x ^ 2 + 1",
		"x > 0 ? 1 : -1",
		"[[1, 2], [3, 4]]",
		"a[2:end]",
		"5 cm to inch",
	}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			n := mathexpr.MustParse(src)
			again := mathexpr.MustParse(n.String())
			be.Equal(t, again.String(), n.String())
			be.True(t, mathexpr.Equal(n, again))
		})
	}
}

func TestString_NegativeConstant(t *testing.T) {
	n := mathexpr.NewOperator("-", "unaryMinus", mathexpr.NewNumber(-2))
	be.Equal(t, n.String(), "-(-2)")

	n = mathexpr.NewOperator("^", "pow", mathexpr.NewNumber(-2), mathexpr.NewNumber(2))
	be.Equal(t, n.String(), "(-2) ^ 2")
}

func TestLaTeX(t *testing.T) {
	tests := []struct{ src, want string }{
		{"sqrt(x^2 + 1) / (2 * pi)", `\frac{\sqrt{{x}^{2}+1}}{2\cdot \pi}`},
		{"(a + b) * c", `\left(a+b\right)\cdot c`},
		{"2 * x + 1", `2\cdot x+1`},
		{"log(x, 2)", `\log_{2}\left(x\right)`},
		{"sin(x)", `\sin\left(x\right)`},
		{"abs(x)", `\left|x\right|`},
		{"a[1]", `a_{\left[1\right]}`},
		{"5!", `5!`},
		{"-x", `-x`},
		{"x <= 1", `x\leq 1`},
		{"[1, 2; 3, 4]", `\begin{bmatrix}1&2\\3&4\end{bmatrix}`},
		{"5 cm", `5\,\mathrm{cm}`},
		{`"s"`, `\mathtt{"s"}`},
		{"foo(1)", `\mathrm{foo}\left(1\right)`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			be.Equal(t, mathexpr.LaTeX(mathexpr.MustParse(tt.src)), tt.want)
		})
	}
}

// ============================================================
// Structural helpers
// ============================================================

func TestClone_IsDeep(t *testing.T) {
	n := mathexpr.MustParse("x + 1")
	c := mathexpr.Clone(n)
	be.True(t, mathexpr.Equal(n, c))

	c.(*mathexpr.OperatorNode).Args[0] = mathexpr.NewSymbol("y")
	be.Equal(t, n.String(), "x + 1")
	be.Equal(t, c.String(), "y + 1")
}

func TestTransform(t *testing.T) {
	n := mathexpr.MustParse("x * (x + y)")
	out := mathexpr.Transform(n, func(c mathexpr.Node) mathexpr.Node {
		if s, ok := c.(*mathexpr.SymbolNode); ok && s.Name == "x" {
			return mathexpr.NewNumber(2)
		}
		return c
	})
	be.Equal(t, out.String(), "2 * (2 + y)")
	be.Equal(t, n.String(), "x * (x + y)")
}

func TestFilterAndTraverse(t *testing.T) {
	n := mathexpr.MustParse("f(x, 2) + 3 * y")
	consts := mathexpr.Filter(n, func(c mathexpr.Node) bool {
		_, ok := c.(*mathexpr.ConstantNode)
		return ok
	})
	be.Equal(t, len(consts), 2)

	var rootParent mathexpr.Node = mathexpr.NewSymbol("unset")
	count := 0
	mathexpr.Traverse(n, func(c, parent mathexpr.Node) {
		if count == 0 {
			rootParent = parent
		}
		count++
	})
	be.True(t, rootParent == nil)
	// +, f(...), f, x, 2, *, 3, y
	be.Equal(t, count, 8)
}

func TestStripParentheses(t *testing.T) {
	n := mathexpr.StripParentheses(mathexpr.MustParse("((a + b)) * (c)"))
	be.Equal(t, n.String(), "(a + b) * c")
	_, isParen := n.(*mathexpr.OperatorNode).Args[0].(*mathexpr.ParenthesisNode)
	be.Equal(t, isParen, false)
}

func TestFreeSymbols(t *testing.T) {
	n := mathexpr.MustParse("sin(x) + a * b[y] + x")
	be.Equal(t, mathexpr.FreeSymbols(n), []string{"a", "b", "x", "y"})
}

// ============================================================
// JSON
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	srcs := []string{
		"2 * x + 1",
		"f(x, y) = x ^ y",
		"a[1:2, end] = [1, 2; 3, 4]",
		"x > 0 ? \"pos\" : false",
		"a = 1; b = 2\na + b",
		"5 cm to inch",
		"(1 + 2)!",
		"1:2:9",
	}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			n := mathexpr.MustParse(src)
			s, err := mathexpr.ToJSON(n)
			be.Err(t, err, nil)
			back, err := mathexpr.ParseJSON(s)
			be.Err(t, err, nil)
			be.True(t, mathexpr.Equal(n, back))
		})
	}
}

func TestJSON_NonFiniteNumbers(t *testing.T) {
	for _, src := range []string{"Infinity", "NaN"} {
		v, err := mathexpr.Evaluate(src, nil)
		be.Err(t, err, nil)
		n := mathexpr.NewConstant(v)
		s, err := mathexpr.ToJSON(n)
		be.Err(t, err, nil)
		back, err := mathexpr.ParseJSON(s)
		be.Err(t, err, nil)
		be.True(t, mathexpr.Equal(n, back))
	}
}

func TestJSON_Shape(t *testing.T) {
	m := mathexpr.ToJSONValue(mathexpr.MustParse("x + 1"))
	be.Equal(t, m["type"], any("operator"))
	be.Equal(t, m["fn"], any("add"))
	args := m["args"].([]interface{})
	be.Equal(t, len(args), 2)
	be.Equal(t, args[1].(map[string]interface{})["value"], any(1.0))
}

func TestJSON_Errors(t *testing.T) {
	tests := []struct{ src, msg string }{
		{`{}`, "missing 'type'"},
		{`{"type": "symbol"}`, `symbol: missing "name"`},
		{`{"type": "operator", "op": "+", "fn": "add", "args": [1]}`, `"args"[0] must be an object`},
		{`{"type": "constant", "valueType": "number", "value": "many"}`, "invalid number value"},
		{`{"type": "bogus"}`, "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := mathexpr.ParseJSON(tt.src)
			be.Err(t, err, tt.msg)
		})
	}
}
