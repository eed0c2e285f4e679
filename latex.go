package mathexpr

import (
	"strings"
)

var latexOperators = map[string]string{
	"+": "+", "-": "-", "*": `\cdot`, ".*": `.\cdot`, "./": "./",
	"%": `\mod`, "mod": `\mod`, "==": "=", "!=": `\neq`,
	"<": "<", ">": ">", "<=": `\leq`, ">=": `\geq`,
	"to": `\rightarrow`, "in": `\rightarrow`, ".^": `.^`,
}

var latexFunctions = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`, "cot": `\cot`,
	"sec": `\sec`, "csc": `\csc`, "asin": `\arcsin`, "acos": `\arccos`,
	"atan": `\arctan`, "sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
	"coth": `\coth`, "exp": `\exp`, "log": `\ln`, "log10": `\log_{10}`,
	"gamma": `\Gamma`, "min": `\min`, "max": `\max`,
}

var latexSymbols = map[string]string{
	"pi": `\pi`, "e": "e", "Infinity": `\infty`, "alpha": `\alpha`,
	"beta": `\beta`, "gamma": `\gamma`, "theta": `\theta`, "phi": `\phi`,
	"lambda": `\lambda`, "mu": `\mu`, "sigma": `\sigma`, "tau": `\tau`,
	"omega": `\omega`, "end": `\mathrm{end}`,
}

func latexParen(s string, paren bool) string {
	if paren {
		return `\left(` + s + `\right)`
	}
	return s
}

func latexAll(ns []Node, sep string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = LaTeX(n)
	}
	return strings.Join(parts, sep)
}

// LaTeX renders n as LaTeX source.
func LaTeX(n Node) string {
	switch v := n.(type) {
	case *ConstantNode:
		switch c := v.Value.(type) {
		case string:
			return `\mathtt{"` + c + `"}`
		case float64:
			return FormatValue(c)
		}
		return v.String()

	case *SymbolNode:
		if s, ok := latexSymbols[v.Name]; ok {
			return s
		}
		return v.Name

	case *OperatorNode:
		return latexOperator(v)

	case *FunctionNode:
		return latexFunction(v)

	case *FunctionAssignmentNode:
		return `\mathrm{` + v.Name + `}\left(` + strings.Join(v.Params, ",") + `\right):=` + LaTeX(v.Body)

	case *ArrayNode:
		if len(v.Items) > 0 {
			if _, nested := v.Items[0].(*ArrayNode); nested {
				rows := make([]string, len(v.Items))
				for i, r := range v.Items {
					if row, ok := r.(*ArrayNode); ok {
						rows[i] = latexAll(row.Items, "&")
					} else {
						rows[i] = LaTeX(r)
					}
				}
				return `\begin{bmatrix}` + strings.Join(rows, `\\`) + `\end{bmatrix}`
			}
		}
		return `\begin{bmatrix}` + latexAll(v.Items, `\\`) + `\end{bmatrix}`

	case *RangeNode:
		parts := []Node{v.Start}
		if v.Step != nil {
			parts = append(parts, v.Step)
		}
		return latexAll(append(parts, v.End), ":")

	case *IndexNode:
		return LaTeX(v.Object) + `_{\left[` + latexAll(v.Ranges, ",") + `\right]}`

	case *AssignmentNode:
		target := LaTeX(v.Object)
		if v.Index != nil {
			target += `_{\left[` + latexAll(v.Index, ",") + `\right]}`
		}
		return target + ":=" + LaTeX(v.Value)

	case *ConditionalNode:
		return `\begin{cases} {` + LaTeX(v.True) + `}, &\quad{\text{if }\;` + LaTeX(v.Cond) +
			`}\\{` + LaTeX(v.False) + `}, &\quad{\text{otherwise}}\end{cases}`

	case *BlockNode:
		parts := make([]string, len(v.Blocks))
		for i, b := range v.Blocks {
			parts[i] = LaTeX(b.Node)
			if !b.Visible {
				parts[i] += ";"
			}
		}
		return strings.Join(parts, `\;\;\\`)

	case *ParenthesisNode:
		return `\left(` + LaTeX(v.Content) + `\right)`

	case *UnitNode:
		if v.Value == nil {
			return `\mathrm{` + v.Unit + `}`
		}
		return LaTeX(v.Value) + `\,\mathrm{` + v.Unit + `}`
	}
	return ""
}

func latexOperator(o *OperatorNode) string {
	p := operatorPrecedence(o)
	if len(o.Args) == 1 {
		a := o.Args[0]
		switch o.Fn {
		case "factorial":
			return latexParen(LaTeX(a), precedence(a) < precPostfix) + "!"
		case "transpose":
			return latexParen(LaTeX(a), precedence(a) < precPostfix) + `^\top`
		}
		return o.Op + latexParen(LaTeX(a), precedence(a) <= precUnary)
	}
	if len(o.Args) != 2 || p == precPrimary {
		return `\mathrm{` + o.Fn + `}\left(` + latexAll(o.Args, ",") + `\right)`
	}

	l, r := o.Args[0], o.Args[1]
	switch o.Op {
	case "/":
		// Fractions make their own grouping.
		return `\frac{` + LaTeX(StripParentheses(l)) + `}{` + LaTeX(StripParentheses(r)) + `}`
	case "^":
		return `{` + latexParen(LaTeX(l), precedence(l) <= p) + `}^{` + LaTeX(StripParentheses(r)) + `}`
	}
	op := latexOperators[o.Op]
	if strings.HasPrefix(op, `\`) {
		op += " "
	}
	lp, rp := precedence(l), precedence(r)
	return latexParen(LaTeX(l), lp < p) + op + latexParen(LaTeX(r), rp <= p)
}

func latexFunction(f *FunctionNode) string {
	name := f.Name()
	args := f.Args
	switch {
	case name == "sqrt" && len(args) == 1:
		return `\sqrt{` + LaTeX(args[0]) + `}`
	case name == "abs" && len(args) == 1:
		return `\left|` + LaTeX(args[0]) + `\right|`
	case name == "log" && len(args) == 2:
		return `\log_{` + LaTeX(args[1]) + `}\left(` + LaTeX(args[0]) + `\right)`
	case name == "":
		return latexParen(LaTeX(f.Callee), true) + `\left(` + latexAll(args, ",") + `\right)`
	}
	if fn, ok := latexFunctions[name]; ok {
		return fn + `\left(` + latexAll(args, ",") + `\right)`
	}
	return `\mathrm{` + name + `}\left(` + latexAll(args, ",") + `\right)`
}
