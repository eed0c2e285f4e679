package mathexpr_test

import (
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

func rationalize(t *testing.T, src string, scope mathexpr.Scope) *mathexpr.Rationalized {
	t.Helper()
	r, err := mathexpr.Rationalize(mathexpr.MustParse(src), scope, nil)
	be.Err(t, err, nil)
	return r
}

// ============================================================
// Rationalize tests
// ============================================================

func TestRationalize_TwoVariables(t *testing.T) {
	src := "2x/y - y/(x+1)"
	r := rationalize(t, src, nil)
	be.Equal(t, r.Expression.String(), "(2 * x ^ 2 - y ^ 2 + 2 * x) / (x * y + y)")
	be.Equal(t, r.Numerator.String(), "2 * x ^ 2 - y ^ 2 + 2 * x")
	be.Equal(t, r.Denominator.String(), "x * y + y")
	be.Equal(t, r.Variables, []string{"x", "y"})
	be.True(t, r.Coefficients == nil)

	scope := mathexpr.MapScope{"x": 2.0, "y": 3.0}
	want := eval(t, src, scope).(float64)
	got := eval(t, r.Expression.String(), scope).(float64)
	approx(t, got, want)
	approx(t, got, 1.0/3)
}

func TestRationalize_OneVariable(t *testing.T) {
	r := rationalize(t, "1/x + 1", nil)
	be.Equal(t, r.Expression.String(), "(x + 1) / x")
	be.Equal(t, r.Coefficients, []float64{1, 1})
	be.Equal(t, r.Variables, []string{"x"})
}

func TestRationalize_NoDenominator(t *testing.T) {
	r := rationalize(t, "(x + 1)^2", nil)
	be.Equal(t, r.Expression.String(), "x ^ 2 + 2 * x + 1")
	be.True(t, r.Denominator == nil)
	be.Equal(t, r.Coefficients, []float64{1, 2, 1})
}

func TestRationalize_Scope(t *testing.T) {
	r := rationalize(t, "x / y", mathexpr.MapScope{"y": 2.0})
	be.Equal(t, r.Expression.String(), "x / 2")
	be.Equal(t, r.Variables, []string{"x"})
}

// Rationalized expressions agree with the input wherever both are defined.
func TestRationalize_Numeric(t *testing.T) {
	srcs := []string{
		"1/x + 1/y",
		"(x + 1) / (x - 1) - x",
		"x / (1 / x + 1)",
		"(a + b)^2 / a",
		"1 / (x * (y + 1)) * 3",
		"-(x / y)",
	}
	scope := mathexpr.MapScope{"x": 2.5, "y": -1.5, "a": 3.0, "b": 0.5}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			r := rationalize(t, src, nil)
			want := eval(t, src, scope).(float64)
			got := eval(t, r.Expression.String(), scope).(float64)
			approx(t, got, want)
		})
	}
}

func TestRationalize_Errors(t *testing.T) {
	for _, src := range []string{"sin(x) / x", "x ^ y", "x ^ 0.5 + 1", "x > 1", "2 ^ x"} {
		t.Run(src, func(t *testing.T) {
			_, err := mathexpr.Rationalize(mathexpr.MustParse(src), nil, nil)
			be.Err(t, err, mathexpr.ErrPolynomialStructure)
		})
	}
}

func TestNumeratorDenominator(t *testing.T) {
	n, err := mathexpr.Numerator(mathexpr.MustParse("1/x + 1"), nil)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "x + 1")

	d, err := mathexpr.Denominator(mathexpr.MustParse("1/x + 1"), nil)
	be.Err(t, err, nil)
	be.Equal(t, d.String(), "x")

	d, err = mathexpr.Denominator(mathexpr.MustParse("x + 1"), nil)
	be.Err(t, err, nil)
	be.Equal(t, d.String(), "1")
}

// ============================================================
// Polynomial tests
// ============================================================

func TestPolynomial(t *testing.T) {
	tests := []struct {
		src   string
		want  string
		coefs []float64
	}{
		{"2x^2", "2 * x ^ 2", []float64{0, 0, 2}},
		{"(x + 1)^2", "x ^ 2 + 2 * x + 1", []float64{1, 2, 1}},
		{"(x - 1) * (x + 1)", "x ^ 2 - 1", []float64{-1, 0, 1}},
		{"3 - x", "-x + 3", []float64{3, -1}},
		{"2 + 3", "5", []float64{5}},
		{"x - x", "0", []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, coefs, err := mathexpr.Polynomial(mathexpr.MustParse(tt.src), nil)
			be.Err(t, err, nil)
			be.Equal(t, n.String(), tt.want)
			be.Equal(t, coefs, tt.coefs)
		})
	}
}

func TestPolynomial_Scope(t *testing.T) {
	n, coefs, err := mathexpr.Polynomial(mathexpr.MustParse("x^2 + y"), mathexpr.MapScope{"y": 4.0})
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "x ^ 2 + 4")
	be.Equal(t, coefs, []float64{4, 0, 1})
}

func TestPolynomial_Errors(t *testing.T) {
	tests := []struct{ src, msg string }{
		{"x^2.5", "non-integer exponent"},
		{"x * y", "more than one variable"},
		{"x / 2", "Operator / is not allowed"},
		{"sin(x)", "unsolved function call"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, _, err := mathexpr.Polynomial(mathexpr.MustParse(tt.src), nil)
			be.Err(t, err, mathexpr.ErrPolynomialStructure)
			be.Err(t, err, tt.msg)
		})
	}
}
