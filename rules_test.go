package mathexpr_test

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

func TestParseRule(t *testing.T) {
	r, err := mathexpr.ParseRule("(n + c1) + c2", "n + c3", "c3 = c1 + c2")
	be.Err(t, err, nil)
	be.Equal(t, r.String(), "n + c1 + c2 -> n + c3 [c3 = c1 + c2]")

	r, err = mathexpr.ParseRule("n * -1", "-n", "")
	be.Err(t, err, nil)
	c, ok := r.Left.(*mathexpr.OperatorNode).Args[1].(*mathexpr.ConstantNode)
	be.True(t, ok)
	be.Equal(t, c.Value, mathexpr.Value(-1.0))
	be.True(t, r.Evaluate == nil)

	_, err = mathexpr.ParseRule("n +", "n", "")
	be.Err(t, err, mathexpr.ErrSyntax)
}

func TestLoadRules(t *testing.T) {
	src := `
rules:
  - l: n * 1
    r: n
  - l: c1 + c2
    r: c3
    evaluate: c3 = c1 + c2
`
	rules, err := mathexpr.LoadRules(strings.NewReader(src))
	be.Err(t, err, nil)
	be.Equal(t, len(rules), 2)
	be.Equal(t, rules[0].String(), "n * 1 -> n")
	be.Equal(t, rules[1].Evaluate.String(), "c3 = c1 + c2")

	got, err := mathexpr.Simplify(mathexpr.MustParse("(2 + 3) * 1"), &mathexpr.SimplifyOptions{Rules: rules})
	be.Err(t, err, nil)
	be.Equal(t, got.String(), "5")
}

func TestLoadRules_Errors(t *testing.T) {
	tests := []struct{ name, src, want string }{
		{"unknown field", "rules:\n  - l: n\n    r: n\n    when: always\n", "decode rule file"},
		{"missing right", "rules:\n  - l: n * 1\n", "rule 1: both l and r are required"},
		{"bad pattern", "rules:\n  - l: n *\n    r: n\n", "rule 1"},
		{"not a list", "rules: 3\n", "decode rule file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mathexpr.LoadRules(strings.NewReader(tt.src))
			be.Err(t, err, tt.want)
		})
	}
}

func TestDefaultRules_Copy(t *testing.T) {
	rules := mathexpr.DefaultRules()
	be.True(t, len(rules) > 0)
	rules[0] = mathexpr.Rule{}
	be.True(t, mathexpr.DefaultRules()[0].Left != nil)
}
