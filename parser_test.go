package mathexpr_test

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

// ============================================================
// Parse tests
// ============================================================

func TestParse_String(t *testing.T) {
	tests := []struct{ src, want string }{
		{"2 + 6 / 3", "2 + 6 / 3"},
		{"(2 + 6) / 3", "(2 + 6) / 3"},
		{"2^3^4", "2 ^ 3 ^ 4"},
		{"(2^3)^4", "(2 ^ 3) ^ 4"},
		{"2x", "2 * x"},
		{"2(x + 1)", "2 * (x + 1)"},
		{"-x^2", "-x ^ 2"},
		{"2^-3", "2 ^ (-3)"},
		{"a - b - c", "a - b - c"},
		{"5!", "5!"},
		{"A'", "A'"},
		{"f(x, y)", "f(x, y)"},
		{"f(x) = x^2", "f(x) = x ^ 2"},
		{"a = b = 2", "a = b = 2"},
		{"a[1, 2] = 3", "a[1, 2] = 3"},
		{"x > 0 ? 1 : -1", "x > 0 ? 1 : -1"},
		{"1:10", "1:10"},
		{"1:2:10", "1:2:10"},
		{"[1, 2; 3, 4]", "[[1, 2], [3, 4]]"},
		{"[1, 2, 3][2]", "[1, 2, 3][2]"},
		{"a[2:end]", "a[2:end]"},
		{"5 cm", "5 cm"},
		{"5 cm to inch", "5 cm to inch"},
		{"7 mod 3", "7 mod 3"},
		{`"a\"b"`, `"a\"b"`},
		{"x == y", "x == y"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := mathexpr.Parse(tt.src, nil)
			be.Err(t, err, nil)
			be.Equal(t, n.String(), tt.want)
		})
	}
}

func TestParse_Block(t *testing.T) {
	n, err := mathexpr.Parse("a = 3\nb = 4; a * b", nil)
	be.Err(t, err, nil)
	block, ok := n.(*mathexpr.BlockNode)
	be.True(t, ok)
	be.Equal(t, len(block.Blocks), 3)
	be.Equal(t, block.Blocks[0].Visible, true)
	be.Equal(t, block.Blocks[1].Visible, false)
	be.Equal(t, block.Blocks[2].Visible, true)
}

func TestParse_Empty(t *testing.T) {
	n, err := mathexpr.Parse("", nil)
	be.Err(t, err, nil)
	c, ok := n.(*mathexpr.ConstantNode)
	be.True(t, ok)
	be.Equal(t, c.Value, nil)
}

func TestParse_Structure(t *testing.T) {
	n := mathexpr.MustParse("2^3^4")
	o, ok := n.(*mathexpr.OperatorNode)
	be.True(t, ok)
	be.Equal(t, o.Fn, "pow")
	_, rightIsPow := o.Args[1].(*mathexpr.OperatorNode)
	be.True(t, rightIsPow)

	n = mathexpr.MustParse("f(x, y) = x + y")
	fa, ok := n.(*mathexpr.FunctionAssignmentNode)
	be.True(t, ok)
	be.Equal(t, fa.Name, "f")
	be.Equal(t, fa.Params, []string{"x", "y"})
	be.Equal(t, fa.ParamTypes, []string{"any", "any"})

	n = mathexpr.MustParse("a[:]")
	ix, ok := n.(*mathexpr.IndexNode)
	be.True(t, ok)
	r, ok := ix.Ranges[0].(*mathexpr.RangeNode)
	be.True(t, ok)
	be.Equal(t, r.Start.String(), "1")
	be.Equal(t, r.End.String(), "end")
}

func TestParse_ImplicitMultiplicationDisabled(t *testing.T) {
	_, err := mathexpr.Parse("2x", &mathexpr.ParseOptions{DisableImplicitMultiplication: true})
	be.Err(t, err, mathexpr.ErrSyntax)
}

func TestParse_AnsAssignment(t *testing.T) {
	opts := &mathexpr.ParseOptions{AnsAssignment: true}
	n, err := mathexpr.Parse("1 + 2", opts)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "ans = 1 + 2")

	n, err = mathexpr.Parse("x = 2", opts)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "x = 2")
}

func TestParse_CustomNode(t *testing.T) {
	opts := &mathexpr.ParseOptions{Nodes: map[string]mathexpr.CustomNodeFunc{
		"twice": func(args []mathexpr.Node) (mathexpr.Node, error) {
			if len(args) != 1 {
				return nil, errors.New("one argument expected")
			}
			return mathexpr.NewOperator("*", "multiply", mathexpr.NewNumber(2), args[0]), nil
		},
	}}
	n, err := mathexpr.Parse("twice(x + 1) + 1", opts)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "2 * (x + 1) + 1")

	_, err = mathexpr.Parse("twice(1, 2)", opts)
	be.Err(t, err, "one argument expected")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		src        string
		msg        string
		col        int
		incomplete bool
	}{
		{"2 +", "Unexpected end of expression", 4, true},
		{"(1 + 2", "Parenthesis ) expected", 7, true},
		{"f(1, 2", "Parenthesis ) expected", 7, true},
		{"[1, 2", "End of matrix ] expected", 6, true},
		{"1 + )", "Value expected", 5, false},
		{"2 3", "Unexpected part \"3\"", 3, false},
		{"1 )", "Unexpected operator )", 3, false},
		{"2 = 3", "Invalid left hand side of assignment", 3, false},
		{"a ? b", "False part of conditional expression expected", 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := mathexpr.Parse(tt.src, nil)
			be.Err(t, err, mathexpr.ErrSyntax)
			be.Err(t, err, tt.msg)
			var se *mathexpr.SyntaxError
			be.True(t, errors.As(err, &se))
			be.Equal(t, se.Column(), tt.col)
			be.Equal(t, mathexpr.IsIncomplete(err), tt.incomplete)
		})
	}
}

func TestParse_MatrixDimensionMismatch(t *testing.T) {
	_, err := mathexpr.Parse("[1, 2; 3]", nil)
	be.Err(t, err, mathexpr.ErrSyntax)
	be.Err(t, err, mathexpr.ErrDimensionMismatch)
	be.Err(t, err, "Column dimensions mismatch (1 != 2)")
}

func TestParseMany(t *testing.T) {
	ns, err := mathexpr.ParseMany([]string{"1 + 1", "x"}, nil)
	be.Err(t, err, nil)
	be.Equal(t, len(ns), 2)

	_, err = mathexpr.ParseMany([]string{"1", "1 +"}, nil)
	be.Err(t, err, mathexpr.ErrSyntax)
}
