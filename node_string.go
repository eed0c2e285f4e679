package mathexpr

import (
	"strings"
)

// Operator precedence, lowest first. Parsing and printing share this table.
const (
	precBlock = iota
	precAssign
	precConditional
	precRange
	precCompare
	precConvert
	precAdd
	precMultiply
	precUnary
	precPow
	precPostfix
	precPrimary
)

var binaryPrecedence = map[string]int{
	"==": precCompare, "!=": precCompare, "<": precCompare,
	">": precCompare, "<=": precCompare, ">=": precCompare,
	"to": precConvert, "in": precConvert,
	"+": precAdd, "-": precAdd,
	"*": precMultiply, "/": precMultiply, ".*": precMultiply,
	"./": precMultiply, "%": precMultiply, "mod": precMultiply,
	"^": precPow, ".^": precPow,
}

func operatorPrecedence(o *OperatorNode) int {
	switch len(o.Args) {
	case 1:
		switch o.Fn {
		case "factorial", "transpose":
			return precPostfix
		}
		return precUnary
	case 2:
		if p, ok := binaryPrecedence[o.Op]; ok {
			return p
		}
	}
	return precPrimary
}

func precedence(n Node) int {
	switch v := n.(type) {
	case *ConstantNode:
		if f, ok := v.Value.(float64); ok && f < 0 {
			return precUnary
		}
		return precPrimary
	case *OperatorNode:
		return operatorPrecedence(v)
	case *RangeNode:
		return precRange
	case *ConditionalNode:
		return precConditional
	case *AssignmentNode, *FunctionAssignmentNode:
		return precAssign
	case *BlockNode:
		return precBlock
	case *UnitNode:
		return precMultiply
	}
	return precPrimary
}

func wrap(s string, paren bool) string {
	if paren {
		return "(" + s + ")"
	}
	return s
}

func joinNodes(ns []Node, sep string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

func (c *ConstantNode) String() string {
	switch v := c.Value.(type) {
	case string:
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	case nil:
		return "undefined"
	}
	return FormatValue(c.Value)
}

func (s *SymbolNode) String() string { return s.Name }

func (o *OperatorNode) String() string {
	p := operatorPrecedence(o)
	switch {
	case len(o.Args) == 1 && p == precPostfix:
		a := o.Args[0]
		return wrap(a.String(), precedence(a) < precPostfix) + o.Op
	case len(o.Args) == 1:
		a := o.Args[0]
		return o.Op + wrap(a.String(), precedence(a) <= precUnary)
	case len(o.Args) == 2 && p != precPrimary:
		l, r := o.Args[0], o.Args[1]
		lp, rp := precedence(l), precedence(r)
		rightAssoc := p == precPow
		lParen := lp < p || (rightAssoc && lp == p)
		rParen := rp < p || (!rightAssoc && rp == p)
		return wrap(l.String(), lParen) + " " + o.Op + " " + wrap(r.String(), rParen)
	}
	return o.Fn + "(" + joinNodes(o.Args, ", ") + ")"
}

func (f *FunctionNode) String() string {
	return wrap(f.Callee.String(), precedence(f.Callee) < precPrimary) + "(" + joinNodes(f.Args, ", ") + ")"
}

func (f *FunctionAssignmentNode) String() string {
	return f.Name + "(" + strings.Join(f.Params, ", ") + ") = " +
		wrap(f.Body.String(), precedence(f.Body) < precAssign)
}

func (a *ArrayNode) String() string { return "[" + joinNodes(a.Items, ", ") + "]" }

func (r *RangeNode) String() string {
	parts := []Node{r.Start}
	if r.Step != nil {
		parts = append(parts, r.Step)
	}
	parts = append(parts, r.End)
	out := make([]string, len(parts))
	for i, n := range parts {
		out[i] = wrap(n.String(), precedence(n) <= precRange)
	}
	return strings.Join(out, ":")
}

func (ix *IndexNode) String() string {
	return wrap(ix.Object.String(), precedence(ix.Object) < precPrimary) + "[" + joinNodes(ix.Ranges, ", ") + "]"
}

func (a *AssignmentNode) String() string {
	target := a.Object.String()
	if a.Index != nil {
		target += "[" + joinNodes(a.Index, ", ") + "]"
	}
	return target + " = " + wrap(a.Value.String(), precedence(a.Value) < precAssign)
}

func (c *ConditionalNode) String() string {
	return wrap(c.Cond.String(), precedence(c.Cond) <= precConditional) + " ? " +
		wrap(c.True.String(), precedence(c.True) < precConditional) + " : " +
		wrap(c.False.String(), precedence(c.False) < precConditional)
}

func (b *BlockNode) String() string {
	parts := make([]string, len(b.Blocks))
	for i, e := range b.Blocks {
		parts[i] = e.Node.String()
		if !e.Visible {
			parts[i] += ";"
		}
	}
	return strings.Join(parts, "\n")
}

func (p *ParenthesisNode) String() string { return "(" + p.Content.String() + ")" }

func (u *UnitNode) String() string {
	if u.Value == nil {
		return u.Unit
	}
	return wrap(u.Value.String(), precedence(u.Value) < precUnary) + " " + u.Unit
}
