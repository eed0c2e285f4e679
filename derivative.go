package mathexpr

import (
	"fmt"
)

// DerivativeOptions configures Derivative.
type DerivativeOptions struct {
	// DisableSimplify returns the raw derivative tree.
	DisableSimplify bool
	// Simplify configures the simplification of the result.
	Simplify *SimplifyOptions
}

// normalize normalizes the DerivativeOptions.
func (o *DerivativeOptions) normalize() DerivativeOptions {
	if o == nil {
		return DerivativeOptions{}
	}
	return *o
}

// Derivatives of unary functions in terms of their argument u. The chain
// rule multiplies them by the derivative of u.
var derivativeTemplates = map[string]string{
	"sqrt":  "1 / (2 * sqrt(u))",
	"exp":   "exp(u)",
	"log":   "1 / u",
	"log10": "1 / (u * log(10))",
	"abs":   "abs(u) / u",
	"sin":   "cos(u)",
	"cos":   "-sin(u)",
	"tan":   "sec(u) ^ 2",
	"sec":   "sec(u) * tan(u)",
	"csc":   "-csc(u) * cot(u)",
	"cot":   "-csc(u) ^ 2",
	"asin":  "1 / sqrt(1 - u ^ 2)",
	"acos":  "-1 / sqrt(1 - u ^ 2)",
	"atan":  "1 / (u ^ 2 + 1)",
	"asec":  "1 / (abs(u) * sqrt(u ^ 2 - 1))",
	"acsc":  "-1 / (abs(u) * sqrt(u ^ 2 - 1))",
	"acot":  "-1 / (u ^ 2 + 1)",
	"sinh":  "cosh(u)",
	"cosh":  "sinh(u)",
	"tanh":  "sech(u) ^ 2",
	"sech":  "-sech(u) * tanh(u)",
	"csch":  "-csch(u) * coth(u)",
	"coth":  "-csch(u) ^ 2",
	"asinh": "1 / sqrt(u ^ 2 + 1)",
	"acosh": "1 / sqrt(u ^ 2 - 1)",
	"atanh": "1 / (1 - u ^ 2)",
	"asech": "-1 / (u * sqrt(1 - u ^ 2))",
	"acsch": "-1 / (abs(u) * sqrt(u ^ 2 + 1))",
	"acoth": "1 / (1 - u ^ 2)",
}

var derivativeTable = func() map[string]Node {
	out := make(map[string]Node, len(derivativeTemplates))
	for name, src := range derivativeTemplates {
		out[name] = StripParentheses(MustParse(src))
	}
	return out
}()

// Derivative differentiates expr with respect to variable and simplifies
// the result unless disabled.
func Derivative(expr Node, variable string, opts *DerivativeOptions) (Node, error) {
	o := opts.normalize()
	d := &differentiator{variable: variable, constant: map[Node]bool{}}
	d.tag(expr)
	res, err := d.diff(expr)
	if err != nil {
		return nil, err
	}
	if o.DisableSimplify {
		return res, nil
	}
	return Simplify(res, o.Simplify)
}

type differentiator struct {
	variable string
	constant map[Node]bool // by node identity
}

// tag records for every subtree whether it is free of the variable.
func (d *differentiator) tag(n Node) bool {
	c := true
	switch v := n.(type) {
	case *ConstantNode:
	case *SymbolNode:
		c = v.Name != d.variable
	case *FunctionNode:
		for _, a := range v.Args {
			if !d.tag(a) {
				c = false
			}
		}
	case *FunctionAssignmentNode:
		c = d.tag(v.Body)
	default:
		for _, ch := range Children(n) {
			if !d.tag(ch) {
				c = false
			}
		}
	}
	d.constant[n] = c
	return c
}

func (d *differentiator) diff(n Node) (Node, error) {
	if d.constant[n] {
		return NewNumber(0), nil
	}
	switch v := n.(type) {
	case *ConstantNode:
		return NewNumber(0), nil
	case *SymbolNode:
		return NewNumber(1), nil
	case *ParenthesisNode:
		c, err := d.diff(v.Content)
		if err != nil {
			return nil, err
		}
		return NewParenthesis(c), nil
	case *FunctionAssignmentNode:
		return d.diff(v.Body)
	case *FunctionNode:
		return d.function(v)
	case *OperatorNode:
		return d.operator(v)
	}
	return nil, &DifferentiationError{Name: fmt.Sprintf("%T", n), Kind: "node"}
}

func (d *differentiator) function(f *FunctionNode) (Node, error) {
	name := f.Name()
	tmpl, known := derivativeTable[name]
	if !known {
		return nil, &DifferentiationError{Name: f.Callee.String(), Kind: "function"}
	}

	if name == "log" && len(f.Args) == 2 {
		u, base := f.Args[0], f.Args[1]
		if !d.constant[base] {
			// log(u, b) = log(u) / log(b)
			q := divide(NewFunction("log", Clone(u)), NewFunction("log", Clone(base)))
			d.tag(q)
			return d.diff(q)
		}
		du, err := d.diff(u)
		if err != nil {
			return nil, err
		}
		return multiply(divide(NewNumber(1), multiply(Clone(u), NewFunction("log", Clone(base)))), du), nil
	}
	if len(f.Args) != 1 {
		return Clone(f), nil
	}

	du, err := d.diff(f.Args[0])
	if err != nil {
		return nil, err
	}
	outer := Substitute(tmpl, Bindings{"u": f.Args[0]})
	return multiply(outer, du), nil
}

func (d *differentiator) operator(o *OperatorNode) (Node, error) {
	args := make([]Node, len(o.Args))
	for i, a := range o.Args {
		da, err := d.diff(a)
		if err != nil {
			return nil, err
		}
		args[i] = da
	}

	switch {
	case o.Fn == "unaryPlus" && len(args) == 1:
		return args[0], nil

	case o.Fn == "unaryMinus" && len(args) == 1:
		return unaryMinus(args[0]), nil

	case (o.Fn == "add" || o.Fn == "subtract") && len(args) == 2:
		return NewOperator(o.Op, o.Fn, args[0], args[1]), nil

	case o.Fn == "multiply" && len(args) == 2:
		a, b := o.Args[0], o.Args[1]
		switch {
		case d.constant[a]:
			return multiply(Clone(a), args[1]), nil
		case d.constant[b]:
			return multiply(args[0], Clone(b)), nil
		}
		return add(multiply(args[0], Clone(b)), multiply(Clone(a), args[1])), nil

	case o.Fn == "divide" && len(args) == 2:
		a, b := o.Args[0], o.Args[1]
		switch {
		case d.constant[b]:
			return divide(args[0], Clone(b)), nil
		case d.constant[a]:
			// c / f = -c f' / f^2
			return unaryMinus(divide(multiply(Clone(a), args[1]), power(Clone(b), NewNumber(2)))), nil
		}
		return divide(
			subtract(multiply(args[0], Clone(b)), multiply(Clone(a), args[1])),
			power(Clone(b), NewNumber(2)),
		), nil

	case o.Fn == "pow" && len(args) == 2:
		a, b := o.Args[0], o.Args[1]
		if d.constant[b] {
			if c, ok := b.(*ConstantNode); ok {
				switch c.Value {
				case 0.0:
					return NewNumber(0), nil
				case 1.0:
					return args[0], nil
				}
			}
			return multiply(Clone(b), multiply(args[0], power(Clone(a), subtract(Clone(b), NewNumber(1))))), nil
		}
		// f^g (f' g / f + g' log(f))
		return multiply(
			power(Clone(a), Clone(b)),
			add(
				multiply(args[0], divide(Clone(b), Clone(a))),
				multiply(args[1], NewFunction("log", Clone(a))),
			),
		), nil
	}
	return nil, &DifferentiationError{Name: o.Op, Kind: "operator"}
}
