package mathexpr

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Polynomial validation
// ============================================================

// validatePolynomial checks that n only uses constants, symbols, + - * and
// powers with positive integer constant exponents, plus division when
// extended is set. It returns the sorted variable names.
func validatePolynomial(n Node, extended bool) ([]string, error) {
	vars := map[string]struct{}{}
	var walk func(n Node) error
	walk = func(n Node) error {
		switch v := n.(type) {
		case *ConstantNode:
			if _, ok := v.Value.(float64); !ok {
				return polyErrorf("Unsupported constant %s in polynomial", v)
			}
			return nil
		case *SymbolNode:
			vars[v.Name] = struct{}{}
			return nil
		case *ParenthesisNode:
			return walk(v.Content)
		case *FunctionNode:
			return polyErrorf("There is an unsolved function call %s", v)
		case *OperatorNode:
			switch v.Fn {
			case "add", "subtract", "multiply", "unaryMinus", "unaryPlus":
			case "divide":
				if !extended {
					return polyErrorf("Operator / is not allowed in a polynomial")
				}
			case "pow":
				c, ok := v.Args[1].(*ConstantNode)
				f, isNum := float64(0), false
				if ok {
					f, isNum = c.Value.(float64)
				}
				if !isNum || f < 1 || !isInteger(f) {
					return polyErrorf("There is a non-integer exponent in %s", v)
				}
				return walk(v.Args[0])
			default:
				return polyErrorf("Operator %s invalid in polynomial expression", v.Op)
			}
			for _, a := range v.Args {
				if err := walk(a); err != nil {
					return err
				}
			}
			return nil
		}
		return polyErrorf("Unsupported node %s in polynomial", n)
	}
	if err := walk(n); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vars))
	for name := range vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// expandPowers rewrites b^k with a non-symbol base and integer k >= 2 into
// the left-leaning product b * b * ... * b of k copies.
func expandPowers(n Node) Node {
	return Transform(n, func(c Node) Node {
		o, ok := c.(*OperatorNode)
		if !ok || o.Fn != "pow" || len(o.Args) != 2 {
			return c
		}
		if _, isSym := o.Args[0].(*SymbolNode); isSym {
			return c
		}
		k, ok := o.Args[1].(*ConstantNode)
		if !ok {
			return c
		}
		f, ok := k.Value.(float64)
		if !ok || f < 2 || !isInteger(f) {
			return c
		}
		base := expandPowers(o.Args[0])
		var out Node = Clone(base)
		for i := 1; i < int(f); i++ {
			out = multiply(out, Clone(base))
		}
		return out
	})
}

// ============================================================
// Multivariate expansion
// ============================================================

// polyTerm is coef * prod(var^power).
type polyTerm struct {
	coef   float64
	powers map[string]int
}

func (t polyTerm) degree() int {
	d := 0
	for _, p := range t.powers {
		d += p
	}
	return d
}

func monomialKey(powers map[string]int) string {
	names := make([]string, 0, len(powers))
	for name := range powers {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "^" + strconv.Itoa(powers[name])
	}
	return strings.Join(parts, "*")
}

// poly is a sum of terms keyed by monomial.
type poly map[string]polyTerm

func polyConst(c float64) poly {
	return poly{"": {coef: c, powers: map[string]int{}}}
}

func polyVar(name string) poly {
	powers := map[string]int{name: 1}
	return poly{monomialKey(powers): {coef: 1, powers: powers}}
}

func (p poly) add(q poly, sign float64) poly {
	out := poly{}
	for k, t := range p {
		out[k] = t
	}
	for k, t := range q {
		cur, ok := out[k]
		if !ok {
			cur = polyTerm{powers: t.powers}
		}
		cur.coef += sign * t.coef
		out[k] = cur
	}
	return out
}

func (p poly) mul(q poly) poly {
	out := poly{}
	for _, a := range p {
		for _, b := range q {
			powers := map[string]int{}
			for name, e := range a.powers {
				powers[name] += e
			}
			for name, e := range b.powers {
				powers[name] += e
			}
			k := monomialKey(powers)
			cur, ok := out[k]
			if !ok {
				cur = polyTerm{powers: powers}
			}
			cur.coef += a.coef * b.coef
			out[k] = cur
		}
	}
	return out
}

// expandPolynomial multiplies out a division-free tree.
func expandPolynomial(n Node) (poly, error) {
	switch v := n.(type) {
	case *ConstantNode:
		f, ok := v.Value.(float64)
		if !ok {
			return nil, polyErrorf("Unsupported constant %s in polynomial", v)
		}
		return polyConst(f), nil
	case *SymbolNode:
		return polyVar(v.Name), nil
	case *ParenthesisNode:
		return expandPolynomial(v.Content)
	case *OperatorNode:
		args := make([]poly, 0, len(v.Args))
		if v.Fn != "pow" {
			for _, a := range v.Args {
				p, err := expandPolynomial(a)
				if err != nil {
					return nil, err
				}
				args = append(args, p)
			}
		}
		switch {
		case v.Fn == "add" && len(args) == 2:
			return args[0].add(args[1], 1), nil
		case v.Fn == "subtract" && len(args) == 2:
			return args[0].add(args[1], -1), nil
		case v.Fn == "multiply" && len(args) == 2:
			return args[0].mul(args[1]), nil
		case v.Fn == "unaryMinus" && len(args) == 1:
			return polyConst(0).add(args[0], -1), nil
		case v.Fn == "unaryPlus" && len(args) == 1:
			return args[0], nil
		case v.Fn == "pow" && len(v.Args) == 2:
			base, err := expandPolynomial(v.Args[0])
			if err != nil {
				return nil, err
			}
			k, ok := v.Args[1].(*ConstantNode)
			f, isNum := float64(0), false
			if ok {
				f, isNum = k.Value.(float64)
			}
			if !isNum || f < 0 || !isInteger(f) {
				return nil, polyErrorf("There is a non-integer exponent in %s", v)
			}
			out := polyConst(1)
			for i := 0; i < int(f); i++ {
				out = out.mul(base)
			}
			return out, nil
		}
		return nil, polyErrorf("Operator %s invalid in polynomial expression", v.Op)
	}
	return nil, polyErrorf("Unsupported node %s in polynomial", n)
}

// sortedTerms returns the non-zero terms by descending degree, then by
// monomial.
func (p poly) sortedTerms() []polyTerm {
	keys := make([]string, 0, len(p))
	for k, t := range p {
		if t.coef != 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := p[keys[i]].degree(), p[keys[j]].degree()
		if di != dj {
			return di > dj
		}
		return keys[i] < keys[j]
	})
	out := make([]polyTerm, len(keys))
	for i, k := range keys {
		out[i] = p[k]
	}
	return out
}

// toNode emits the polynomial as a sum of terms, highest degree first.
func (p poly) toNode() Node {
	terms := p.sortedTerms()
	if len(terms) == 0 {
		return NewNumber(0)
	}
	var out Node
	for i, t := range terms {
		names := make([]string, 0, len(t.powers))
		for name, e := range t.powers {
			if e > 0 {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		var mono Node
		for _, name := range names {
			var f Node = NewSymbol(name)
			if e := t.powers[name]; e > 1 {
				f = power(f, NewNumber(float64(e)))
			}
			if mono == nil {
				mono = f
			} else {
				mono = multiply(mono, f)
			}
		}
		out = appendTerm(out, i == 0, t.coef, mono)
	}
	return out
}

// appendTerm adds coef*mono to sum. mono is nil for a constant term.
func appendTerm(sum Node, first bool, coef float64, mono Node) Node {
	if first {
		switch {
		case mono == nil:
			return NewNumber(coef)
		case coef == 1:
			return mono
		case coef == -1:
			return unaryMinus(mono)
		}
		return multiply(NewNumber(coef), mono)
	}
	abs := math.Abs(coef)
	var term Node
	switch {
	case mono == nil:
		term = NewNumber(abs)
	case abs == 1:
		term = mono
	default:
		term = multiply(NewNumber(abs), mono)
	}
	if coef < 0 {
		return subtract(sum, term)
	}
	return add(sum, term)
}

// ============================================================
// Canonical single-variable form
// ============================================================

// polynomialCoefficients reads the dense coefficients, lowest exponent
// first, of a sum of terms c, x, x^k, c*x and c*x^k in variable, each
// optionally negated. Any other shape is rejected.
func polynomialCoefficients(n Node, variable string) ([]float64, error) {
	coefs := map[int]float64{}
	maxExp := 0

	// term returns the coefficient and exponent of a single term.
	var term func(n Node) (float64, int, error)
	term = func(n Node) (float64, int, error) {
		switch v := n.(type) {
		case *ConstantNode:
			if f, ok := v.Value.(float64); ok {
				return f, 0, nil
			}
		case *SymbolNode:
			if v.Name == variable {
				return 1, 1, nil
			}
		case *OperatorNode:
			switch {
			case v.Fn == "unaryMinus" && len(v.Args) == 1:
				c, e, err := term(v.Args[0])
				return -c, e, err
			case v.Fn == "pow" && len(v.Args) == 2:
				s, okS := v.Args[0].(*SymbolNode)
				k, okK := v.Args[1].(*ConstantNode)
				if okS && okK && s.Name == variable {
					if f, ok := k.Value.(float64); ok && f >= 0 && isInteger(f) {
						return 1, int(f), nil
					}
				}
			case v.Fn == "multiply" && len(v.Args) == 2:
				k, ok := v.Args[0].(*ConstantNode)
				if !ok {
					break
				}
				c, isNum := k.Value.(float64)
				if !isNum {
					break
				}
				if _, isConst := v.Args[1].(*ConstantNode); isConst {
					break
				}
				one, e, err := term(v.Args[1])
				if err != nil || one != 1 {
					break
				}
				return c, e, nil
			}
		}
		return 0, 0, polyErrorf("Invalid polynomial term %s", n)
	}

	var sum func(n Node, sign float64) error
	sum = func(n Node, sign float64) error {
		if o, ok := n.(*OperatorNode); ok {
			switch {
			case o.Fn == "add" && len(o.Args) == 2:
				if err := sum(o.Args[0], sign); err != nil {
					return err
				}
				return sum(o.Args[1], sign)
			case o.Fn == "subtract" && len(o.Args) == 2:
				if err := sum(o.Args[0], sign); err != nil {
					return err
				}
				return sum(o.Args[1], -sign)
			case o.Fn == "unaryMinus" && len(o.Args) == 1 && isSum(o.Args[0]):
				return sum(o.Args[0], -sign)
			}
		}
		c, e, err := term(n)
		if err != nil {
			return err
		}
		coefs[e] += sign * c
		if e > maxExp {
			maxExp = e
		}
		return nil
	}

	if err := sum(StripParentheses(n), 1); err != nil {
		return nil, err
	}
	out := make([]float64, maxExp+1)
	for e, c := range coefs {
		out[e] = c
	}
	return out, nil
}

func isSum(n Node) bool {
	o, ok := n.(*OperatorNode)
	return ok && len(o.Args) == 2 && (o.Fn == "add" || o.Fn == "subtract")
}

// coefficientsToNode emits c[k]*x^k terms by descending exponent.
func coefficientsToNode(coefs []float64, variable string) Node {
	var out Node
	first := true
	for e := len(coefs) - 1; e >= 0; e-- {
		c := coefs[e]
		if c == 0 {
			continue
		}
		var mono Node
		switch {
		case e == 1:
			mono = NewSymbol(variable)
		case e > 1:
			mono = power(NewSymbol(variable), NewNumber(float64(e)))
		}
		out = appendTerm(out, first, c, mono)
		first = false
	}
	if out == nil {
		return NewNumber(0)
	}
	return out
}
