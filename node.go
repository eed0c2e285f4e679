package mathexpr

import (
	"sort"
)

// ============================================================
// Node: expression tree
// ============================================================

// Node is an expression tree node. The set of variants is closed;
// every behaviour over nodes is an exhaustive type switch.
type Node interface {
	String() string
	node()
}

// ConstantNode is a literal number, string, boolean or nil.
type ConstantNode struct{ Value Value }

// SymbolNode references a variable or a namespace entry.
type SymbolNode struct{ Name string }

// OperatorNode applies an operator. Op is the printed symbol ("+"),
// Fn the namespace function implementing it ("add").
type OperatorNode struct {
	Op   string
	Fn   string
	Args []Node
}

// FunctionNode calls Callee with Args.
type FunctionNode struct {
	Callee Node
	Args   []Node
}

// FunctionAssignmentNode defines a function: name(params) = body.
type FunctionAssignmentNode struct {
	Name       string
	Params     []string
	ParamTypes []string
	Body       Node
}

// ArrayNode is a matrix literal. Rows of a 2-D literal are nested ArrayNodes.
type ArrayNode struct{ Items []Node }

// RangeNode is start:end or start:step:end. Step may be nil.
type RangeNode struct {
	Start Node
	Step  Node
	End   Node
}

// IndexNode reads Object at Ranges, 1-based.
type IndexNode struct {
	Object Node
	Ranges []Node
}

// AssignmentNode stores Value into Object, or into Object[Index...] when Index is non-nil.
type AssignmentNode struct {
	Object Node
	Index  []Node
	Value  Node
}

// ConditionalNode is cond ? then : else.
type ConditionalNode struct {
	Cond  Node
	True  Node
	False Node
}

// BlockEntry is a statement of a block. Invisible entries end with ';'.
type BlockEntry struct {
	Node    Node
	Visible bool
}

// BlockNode is a sequence of statements.
type BlockNode struct{ Blocks []BlockEntry }

// ParenthesisNode records explicit parentheses.
type ParenthesisNode struct{ Content Node }

// UnitNode attaches a unit to a value, e.g. 5 cm. Value is nil for a bare unit.
type UnitNode struct {
	Value Node
	Unit  string
}

func (*ConstantNode) node()           {}
func (*SymbolNode) node()             {}
func (*OperatorNode) node()           {}
func (*FunctionNode) node()           {}
func (*FunctionAssignmentNode) node() {}
func (*ArrayNode) node()              {}
func (*RangeNode) node()              {}
func (*IndexNode) node()              {}
func (*AssignmentNode) node()         {}
func (*ConditionalNode) node()        {}
func (*BlockNode) node()              {}
func (*ParenthesisNode) node()        {}
func (*UnitNode) node()               {}

// Constructors.

func NewConstant(v Value) *ConstantNode      { return &ConstantNode{Value: v} }
func NewNumber(f float64) *ConstantNode      { return &ConstantNode{Value: f} }
func NewSymbol(name string) *SymbolNode      { return &SymbolNode{Name: name} }
func NewParenthesis(n Node) *ParenthesisNode { return &ParenthesisNode{Content: n} }

func NewOperator(op, fn string, args ...Node) *OperatorNode {
	return &OperatorNode{Op: op, Fn: fn, Args: args}
}

// NewFunction builds a call of a named function.
func NewFunction(name string, args ...Node) *FunctionNode {
	return &FunctionNode{Callee: NewSymbol(name), Args: args}
}

// Name returns the callee name for calls of a plain symbol, "" otherwise.
func (f *FunctionNode) Name() string {
	if s, ok := f.Callee.(*SymbolNode); ok {
		return s.Name
	}
	return ""
}

// IsUnary reports whether the operator has a single operand.
func (o *OperatorNode) IsUnary() bool { return len(o.Args) == 1 }

// IsBinary reports whether the operator has two operands.
func (o *OperatorNode) IsBinary() bool { return len(o.Args) == 2 }

func add(a, b Node) Node      { return NewOperator("+", "add", a, b) }
func subtract(a, b Node) Node { return NewOperator("-", "subtract", a, b) }
func multiply(a, b Node) Node { return NewOperator("*", "multiply", a, b) }
func divide(a, b Node) Node   { return NewOperator("/", "divide", a, b) }
func power(a, b Node) Node    { return NewOperator("^", "pow", a, b) }
func unaryMinus(a Node) Node  { return NewOperator("-", "unaryMinus", a) }

// ============================================================
// Structural helpers
// ============================================================

// Children returns the direct children of n in evaluation order.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *ConstantNode, *SymbolNode:
		return nil
	case *OperatorNode:
		return append([]Node(nil), v.Args...)
	case *FunctionNode:
		return append([]Node{v.Callee}, v.Args...)
	case *FunctionAssignmentNode:
		return []Node{v.Body}
	case *ArrayNode:
		return append([]Node(nil), v.Items...)
	case *RangeNode:
		if v.Step != nil {
			return []Node{v.Start, v.Step, v.End}
		}
		return []Node{v.Start, v.End}
	case *IndexNode:
		return append([]Node{v.Object}, v.Ranges...)
	case *AssignmentNode:
		out := []Node{v.Object}
		out = append(out, v.Index...)
		return append(out, v.Value)
	case *ConditionalNode:
		return []Node{v.Cond, v.True, v.False}
	case *BlockNode:
		out := make([]Node, len(v.Blocks))
		for i, b := range v.Blocks {
			out[i] = b.Node
		}
		return out
	case *ParenthesisNode:
		return []Node{v.Content}
	case *UnitNode:
		if v.Value != nil {
			return []Node{v.Value}
		}
		return nil
	}
	return nil
}

// MapChildren returns a shallow copy of n whose children are replaced by fn(child).
// n itself is never modified.
func MapChildren(n Node, fn func(Node) Node) Node {
	mapAll := func(ns []Node) []Node {
		if ns == nil {
			return nil
		}
		out := make([]Node, len(ns))
		for i, c := range ns {
			out[i] = fn(c)
		}
		return out
	}
	switch v := n.(type) {
	case *ConstantNode:
		return &ConstantNode{Value: v.Value}
	case *SymbolNode:
		return &SymbolNode{Name: v.Name}
	case *OperatorNode:
		return &OperatorNode{Op: v.Op, Fn: v.Fn, Args: mapAll(v.Args)}
	case *FunctionNode:
		return &FunctionNode{Callee: fn(v.Callee), Args: mapAll(v.Args)}
	case *FunctionAssignmentNode:
		return &FunctionAssignmentNode{
			Name:       v.Name,
			Params:     append([]string(nil), v.Params...),
			ParamTypes: append([]string(nil), v.ParamTypes...),
			Body:       fn(v.Body),
		}
	case *ArrayNode:
		return &ArrayNode{Items: mapAll(v.Items)}
	case *RangeNode:
		r := &RangeNode{Start: fn(v.Start), End: fn(v.End)}
		if v.Step != nil {
			r.Step = fn(v.Step)
		}
		return r
	case *IndexNode:
		return &IndexNode{Object: fn(v.Object), Ranges: mapAll(v.Ranges)}
	case *AssignmentNode:
		return &AssignmentNode{Object: fn(v.Object), Index: mapAll(v.Index), Value: fn(v.Value)}
	case *ConditionalNode:
		return &ConditionalNode{Cond: fn(v.Cond), True: fn(v.True), False: fn(v.False)}
	case *BlockNode:
		blocks := make([]BlockEntry, len(v.Blocks))
		for i, b := range v.Blocks {
			blocks[i] = BlockEntry{Node: fn(b.Node), Visible: b.Visible}
		}
		return &BlockNode{Blocks: blocks}
	case *ParenthesisNode:
		return &ParenthesisNode{Content: fn(v.Content)}
	case *UnitNode:
		u := &UnitNode{Unit: v.Unit}
		if v.Value != nil {
			u.Value = fn(v.Value)
		}
		return u
	}
	panic("mathexpr: unknown node type")
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	if n == nil {
		return nil
	}
	return MapChildren(n, Clone)
}

// Transform rebuilds the tree top-down. fn is called on every node; when it
// returns a different node, that replacement is used as is and its children
// are not visited. The input tree is not modified.
func Transform(n Node, fn func(Node) Node) Node {
	if r := fn(n); r != n {
		return r
	}
	return MapChildren(n, func(c Node) Node { return Transform(c, fn) })
}

// Traverse calls fn on every node in pre-order with its parent (nil for the root).
func Traverse(n Node, fn func(n, parent Node)) {
	var walk func(n, parent Node)
	walk = func(n, parent Node) {
		fn(n, parent)
		for _, c := range Children(n) {
			walk(c, n)
		}
	}
	walk(n, nil)
}

// Filter returns every node for which pred holds, in pre-order.
func Filter(n Node, pred func(Node) bool) []Node {
	var out []Node
	Traverse(n, func(c, _ Node) {
		if pred(c) {
			out = append(out, c)
		}
	})
	return out
}

// Equal reports deep structural equality.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *ConstantNode:
		y, ok := b.(*ConstantNode)
		return ok && valuesEqual(x.Value, y.Value)
	case *SymbolNode:
		y, ok := b.(*SymbolNode)
		return ok && x.Name == y.Name
	case *OperatorNode:
		y, ok := b.(*OperatorNode)
		return ok && x.Op == y.Op && x.Fn == y.Fn && equalAll(x.Args, y.Args)
	case *FunctionNode:
		y, ok := b.(*FunctionNode)
		return ok && Equal(x.Callee, y.Callee) && equalAll(x.Args, y.Args)
	case *FunctionAssignmentNode:
		y, ok := b.(*FunctionAssignmentNode)
		return ok && x.Name == y.Name && equalStrings(x.Params, y.Params) && Equal(x.Body, y.Body)
	case *ArrayNode:
		y, ok := b.(*ArrayNode)
		return ok && equalAll(x.Items, y.Items)
	case *RangeNode:
		y, ok := b.(*RangeNode)
		if !ok || (x.Step == nil) != (y.Step == nil) {
			return false
		}
		return Equal(x.Start, y.Start) && Equal(x.End, y.End) && (x.Step == nil || Equal(x.Step, y.Step))
	case *IndexNode:
		y, ok := b.(*IndexNode)
		return ok && Equal(x.Object, y.Object) && equalAll(x.Ranges, y.Ranges)
	case *AssignmentNode:
		y, ok := b.(*AssignmentNode)
		return ok && (x.Index == nil) == (y.Index == nil) &&
			Equal(x.Object, y.Object) && equalAll(x.Index, y.Index) && Equal(x.Value, y.Value)
	case *ConditionalNode:
		y, ok := b.(*ConditionalNode)
		return ok && Equal(x.Cond, y.Cond) && Equal(x.True, y.True) && Equal(x.False, y.False)
	case *BlockNode:
		y, ok := b.(*BlockNode)
		if !ok || len(x.Blocks) != len(y.Blocks) {
			return false
		}
		for i := range x.Blocks {
			if x.Blocks[i].Visible != y.Blocks[i].Visible || !Equal(x.Blocks[i].Node, y.Blocks[i].Node) {
				return false
			}
		}
		return true
	case *ParenthesisNode:
		y, ok := b.(*ParenthesisNode)
		return ok && Equal(x.Content, y.Content)
	case *UnitNode:
		y, ok := b.(*UnitNode)
		if !ok || x.Unit != y.Unit || (x.Value == nil) != (y.Value == nil) {
			return false
		}
		return x.Value == nil || Equal(x.Value, y.Value)
	}
	return false
}

func equalAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// StripParentheses removes every ParenthesisNode.
func StripParentheses(n Node) Node {
	return Transform(n, func(c Node) Node {
		if p, ok := c.(*ParenthesisNode); ok {
			return StripParentheses(p.Content)
		}
		return c
	})
}

// ============================================================
// Free Symbols
// ============================================================

// FreeSymbols returns the sorted names of symbols referenced by n, excluding
// function callees.
func FreeSymbols(n Node) []string {
	seen := map[string]struct{}{}
	collectSymbols(n, seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(n Node, out map[string]struct{}) {
	switch v := n.(type) {
	case *SymbolNode:
		out[v.Name] = struct{}{}
	case *FunctionNode:
		if _, ok := v.Callee.(*SymbolNode); !ok {
			collectSymbols(v.Callee, out)
		}
		for _, a := range v.Args {
			collectSymbols(a, out)
		}
	case *UnitNode:
		if v.Value != nil {
			collectSymbols(v.Value, out)
		}
	default:
		for _, c := range Children(n) {
			collectSymbols(c, out)
		}
	}
}
