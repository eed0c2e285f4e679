package mathexpr

import (
	"github.com/pkg/errors"
)

// RationalizeOptions configures Rationalize.
type RationalizeOptions struct {
	// MaxPasses bounds the alternating division rewrites and every
	// simplification run inside them. Defaults to 100.
	MaxPasses int
}

// normalize normalizes the RationalizeOptions.
func (o *RationalizeOptions) normalize() RationalizeOptions {
	var out RationalizeOptions
	if o != nil {
		out = *o
	}
	if out.MaxPasses <= 0 {
		out.MaxPasses = 100
	}
	return out
}

// Rationalized is the result of Rationalize.
type Rationalized struct {
	// Expression is Numerator / Denominator, or Numerator alone.
	Expression  Node
	Numerator   Node
	Denominator Node // nil when the expression has no denominator
	// Coefficients of the numerator, lowest exponent first. Set only when
	// the expression has exactly one variable.
	Coefficients []float64
	Variables    []string
}

// Division is pushed outward by two alternating rule sets.
var (
	distributeDivisionRules = mustRules([]RuleSpec{
		{L: "n1 / n2 + n3 / n4", R: "(n1 * n4 + n3 * n2) / (n2 * n4)"},
		{L: "n1 / n2 - n3 / n4", R: "(n1 * n4 - n3 * n2) / (n2 * n4)"},
		{L: "n1 / n2 + n3", R: "(n1 + n3 * n2) / n2"},
		{L: "n1 / n2 - n3", R: "(n1 - n3 * n2) / n2"},
		{L: "n1 + n2 / n3", R: "(n1 * n3 + n2) / n3"},
		{L: "n1 - n2 / n3", R: "(n1 * n3 - n2) / n3"},
		{L: "n1 / n2 * n3", R: "(n1 * n3) / n2"},
		{L: "n1 * (n2 / n3)", R: "(n1 * n2) / n3"},
		{L: "-(n1 / n2)", R: "(-n1) / n2"},
		{L: "+n", R: "n"},
	})
	nestedDivisionRules = mustRules([]RuleSpec{
		{L: "n1 / (n2 / n3)", R: "(n1 * n3) / n2"},
		{L: "(n1 / n2) / n3", R: "n1 / (n2 * n3)"},
	})
)

// Rationalize rewrites a rational expression into a single fraction of two
// expanded polynomials. Variables holding numbers in scope are substituted
// first. Function calls, non-integer or non-constant exponents and
// operators other than + - * / ^ are rejected with a PolynomialError.
func Rationalize(expr Node, scope Scope, opts *RationalizeOptions) (*Rationalized, error) {
	o := opts.normalize()
	n, vars, err := preparePolynomial(expr, scope, true, o.MaxPasses)
	if err != nil {
		return nil, err
	}

	n = expandPowers(n)
	prev := n.String()
	for pass := 0; ; pass++ {
		if pass == o.MaxPasses {
			return nil, errors.Wrapf(ErrNoConvergence, "rationalize after %d passes: %s", o.MaxPasses, prev)
		}
		if n, err = Simplify(n, &SimplifyOptions{Rules: distributeDivisionRules, MaxPasses: o.MaxPasses}); err != nil {
			return nil, err
		}
		if n, err = Simplify(n, &SimplifyOptions{Rules: nestedDivisionRules, MaxPasses: o.MaxPasses}); err != nil {
			return nil, err
		}
		cur := n.String()
		if cur == prev {
			break
		}
		prev = cur
	}

	num, den := n, Node(nil)
	if q, ok := n.(*OperatorNode); ok && q.Fn == "divide" && len(q.Args) == 2 {
		num, den = q.Args[0], q.Args[1]
	}

	res := &Rationalized{Variables: vars}
	pn, err := expandPolynomial(num)
	if err != nil {
		return nil, err
	}
	res.Numerator = pn.toNode()
	if den != nil {
		pd, err := expandPolynomial(den)
		if err != nil {
			return nil, err
		}
		if !isOne(pd) {
			res.Denominator = pd.toNode()
		}
	}

	if len(vars) == 1 {
		if res.Numerator, res.Coefficients, err = canonicalize(res.Numerator, vars[0]); err != nil {
			return nil, err
		}
		if res.Denominator != nil {
			if res.Denominator, _, err = canonicalize(res.Denominator, vars[0]); err != nil {
				return nil, err
			}
		}
	}

	res.Expression = res.Numerator
	if res.Denominator != nil {
		res.Expression = divide(res.Numerator, res.Denominator)
	}
	return res, nil
}

// Numerator returns the numerator of the rationalized expression.
func Numerator(expr Node, scope Scope) (Node, error) {
	r, err := Rationalize(expr, scope, nil)
	if err != nil {
		return nil, err
	}
	return r.Numerator, nil
}

// Denominator returns the denominator of the rationalized expression, or
// the constant 1 when there is none.
func Denominator(expr Node, scope Scope) (Node, error) {
	r, err := Rationalize(expr, scope, nil)
	if err != nil {
		return nil, err
	}
	if r.Denominator == nil {
		return NewNumber(1), nil
	}
	return r.Denominator, nil
}

// Polynomial expands a division-free expression in at most one variable
// and returns it in descending order together with its coefficients,
// lowest exponent first. polynomial("2x^2") has coefficients [0, 0, 2].
func Polynomial(expr Node, scope Scope) (Node, []float64, error) {
	n, vars, err := preparePolynomial(expr, scope, false, 0)
	if err != nil {
		return nil, nil, err
	}
	if len(vars) > 1 {
		return nil, nil, polyErrorf("Polynomial of more than one variable: %v", vars)
	}
	p, err := expandPolynomial(n)
	if err != nil {
		return nil, nil, err
	}
	if len(vars) == 0 {
		c := 0.0
		if t, ok := p[""]; ok {
			c = t.coef
		}
		return NewNumber(c), []float64{c}, nil
	}
	return canonicalize(p.toNode(), vars[0])
}

// preparePolynomial substitutes scope, folds constants and validates.
func preparePolynomial(expr Node, scope Scope, extended bool, maxPasses int) (Node, []string, error) {
	n, err := Simplify(expr, &SimplifyOptions{Scope: scope, MaxPasses: maxPasses})
	if err != nil {
		return nil, nil, err
	}
	vars, err := validatePolynomial(n, extended)
	if err != nil {
		return nil, nil, err
	}
	return n, vars, nil
}

func canonicalize(n Node, variable string) (Node, []float64, error) {
	coefs, err := polynomialCoefficients(n, variable)
	if err != nil {
		return nil, nil, err
	}
	return coefficientsToNode(coefs, variable), coefs, nil
}

func isOne(p poly) bool {
	terms := p.sortedTerms()
	return len(terms) == 1 && terms[0].degree() == 0 && terms[0].coef == 1
}
