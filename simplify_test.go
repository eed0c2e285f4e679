package mathexpr_test

import (
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

func simplify(t *testing.T, src string) string {
	t.Helper()
	n, err := mathexpr.Simplify(mathexpr.MustParse(src), nil)
	be.Err(t, err, nil)
	return n.String()
}

func TestSimplify(t *testing.T) {
	tests := []struct{ src, want string }{
		{"x + 0", "x"},
		{"0 + x", "x"},
		{"x * 1", "x"},
		{"x * 0", "0"},
		{"x ^ 1", "x"},
		{"x ^ 0", "1"},
		{"0 / x", "0"},
		{"-(-x)", "x"},
		{"2 + 3 * 4", "14"},
		{"6 / 3", "2"},
		{"1 / 3", "1 / 3"},
		{"2 ^ 10", "1024"},
		{"x + 2 + 3", "x + 5"},
		{"2 + x", "x + 2"},
		{"x * 2 * 3", "6 * x"},
		{"x - x", "0"},
		{"x + x", "2 * x"},
		{"x * x", "x ^ 2"},
		{"2 * x + 3 * x", "5 * x"},
		{"(x + 1)", "x + 1"},
		{"x / x", "1"},
		{"-x + x", "0"},
		{"3 * x ^ 2 * x", "3 * x ^ 3"},
		{"2 * x ^ 2 * x ^ 3", "2 * x ^ 5"},
		{"x / 2 / 3", "x / 6"},
		{"(x - 1) + (x + 1)", "2 * x"},
		{"(x + 3) + (y - 1)", "x + y + 2"},
		{"(x - 1) + (y - 2)", "x + y - 3"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			be.Equal(t, simplify(t, tt.src), tt.want)
		})
	}
}

func TestSimplify_Idempotent(t *testing.T) {
	for _, src := range []string{"x + 2 + 3", "2 * x + 3 * x", "x * 2 * 3", "x ^ 2 + x / y"} {
		t.Run(src, func(t *testing.T) {
			once := mathexpr.MustParse(simplify(t, src))
			twice, err := mathexpr.Simplify(once, nil)
			be.Err(t, err, nil)
			be.Equal(t, twice.String(), once.String())
		})
	}
}

func TestSimplify_KeepsInput(t *testing.T) {
	n := mathexpr.MustParse("(x + 0) * 1")
	_, err := mathexpr.Simplify(n, nil)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "(x + 0) * 1")
}

func TestSimplify_Scope(t *testing.T) {
	got, err := mathexpr.Simplify(mathexpr.MustParse("x + y"), &mathexpr.SimplifyOptions{
		Scope: mathexpr.MapScope{"x": 2.0, "f": "text"},
	})
	be.Err(t, err, nil)
	be.Equal(t, got.String(), "y + 2")
}

func TestSimplify_NoConvergence(t *testing.T) {
	swap, err := mathexpr.ParseRule("n1 + n2", "n2 + n1", "")
	be.Err(t, err, nil)
	_, err = mathexpr.Simplify(mathexpr.MustParse("x + y"), &mathexpr.SimplifyOptions{
		Rules:     []mathexpr.Rule{swap},
		MaxPasses: 10,
	})
	be.Err(t, err, mathexpr.ErrNoConvergence)
	be.Err(t, err, "after 10 passes")
}

func TestSimplify_CustomNamespace(t *testing.T) {
	ns := mathexpr.DefaultNamespace().Clone()
	ns.Register("half", func(args ...mathexpr.Value) (mathexpr.Value, error) {
		return args[0].(float64) / 2, nil
	})
	rule, err := mathexpr.ParseRule("c1 / 2", "c2", "c2 = half(c1)")
	be.Err(t, err, nil)
	got, err := mathexpr.Simplify(mathexpr.MustParse("3 / 2"), &mathexpr.SimplifyOptions{
		Rules:     []mathexpr.Rule{rule},
		Namespace: ns,
	})
	be.Err(t, err, nil)
	be.Equal(t, got.String(), "1.5")
}
