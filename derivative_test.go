package mathexpr_test

import (
	"math"
	"testing"

	"github.com/nalgeon/be"

	mathexpr "github.com/njchilds90/gomathexpr"
)

func derive(t *testing.T, src, variable string, opts *mathexpr.DerivativeOptions) mathexpr.Node {
	t.Helper()
	d, err := mathexpr.Derivative(mathexpr.MustParse(src), variable, opts)
	be.Err(t, err, nil)
	return d
}

func TestDerivative(t *testing.T) {
	tests := []struct{ src, want string }{
		{"5", "0"},
		{"y", "0"},
		{"x", "1"},
		{"3 * x", "3"},
		{"x^2 + x", "2 * x + 1"},
		{"sin(x)", "cos(x)"},
		{"exp(x)", "exp(x)"},
		{"sin(2 * x)", "2 * cos(2 * x)"},
		{"gamma(y) * x", "gamma(y)"},
		{"(x + 1) * (x - 1)", "2 * x"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			be.Equal(t, derive(t, tt.src, "x", nil).String(), tt.want)
		})
	}
}

// The derivative agrees with a central difference at a sample point.
func TestDerivative_Numeric(t *testing.T) {
	srcs := []string{
		"x^3 * sin(x)",
		"log(x^2 + 1)",
		"x^x",
		"1 / x",
		"(x + 1) / (x - 3)",
		"sqrt(x) * cos(x)",
		"tan(x) + atan(x)",
		"log(x, 2)",
		"log(3, x)",
		"2^x",
		"-x^2",
		"abs(x) * sinh(x)",
		"asin(x / 2) + acos(x / 3)",
	}
	const x0, h = 1.3, 1e-6
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			f, err := mathexpr.Compile(mathexpr.MustParse(src), nil)
			be.Err(t, err, nil)
			at := func(x float64) float64 {
				v, err := f.Evaluate(mathexpr.MapScope{"x": x})
				be.Err(t, err, nil)
				return v.(float64)
			}
			want := (at(x0+h) - at(x0-h)) / (2 * h)

			d, err := mathexpr.Compile(derive(t, src, "x", nil), nil)
			be.Err(t, err, nil)
			v, err := d.Evaluate(mathexpr.MapScope{"x": x0})
			be.Err(t, err, nil)
			if got := v.(float64); math.Abs(got-want) > 1e-5*math.Max(1, math.Abs(want)) {
				t.Errorf("d/dx %s at %v = %v, want %v", src, x0, got, want)
			}
		})
	}
}

func TestDerivative_DisableSimplify(t *testing.T) {
	d := derive(t, "x^2", "x", &mathexpr.DerivativeOptions{DisableSimplify: true})
	be.True(t, d.String() != "2 * x")
	v, err := mathexpr.Evaluate(d.String(), mathexpr.MapScope{"x": 3.0})
	be.Err(t, err, nil)
	be.Equal(t, v, mathexpr.Value(6.0))
}

func TestDerivative_KeepsInput(t *testing.T) {
	n := mathexpr.MustParse("x^2 + sin(x)")
	_, err := mathexpr.Derivative(n, "x", nil)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), "x ^ 2 + sin(x)")
}

func TestDerivative_Unsupported(t *testing.T) {
	_, err := mathexpr.Derivative(mathexpr.MustParse("gamma(x)"), "x", nil)
	be.Err(t, err, mathexpr.ErrDifferentiationUnsupported)
	be.Err(t, err, "gamma")

	_, err = mathexpr.Derivative(mathexpr.MustParse("x > 1"), "x", nil)
	be.Err(t, err, mathexpr.ErrDifferentiationUnsupported)
}

func TestDerivative_FunctionAssignment(t *testing.T) {
	be.Equal(t, derive(t, "f(x) = x^2", "x", nil).String(), "2 * x")
}
