package mathexpr

import (
	"fmt"
	"strconv"
)

// CustomNodeFunc builds a node from the parsed arguments of a custom
// construct name(arg1, arg2, ...).
type CustomNodeFunc func(args []Node) (Node, error)

// ParseOptions controls parsing behavior.
type ParseOptions struct {
	// Nodes registers custom leaf syntax keyed by a leading symbol name.
	Nodes map[string]CustomNodeFunc
	// DisableImplicitMultiplication rejects juxtaposition such as "2x" or "2(x+1)".
	DisableImplicitMultiplication bool
	// AnsAssignment wraps every top-level statement that is not an assignment
	// into "ans = statement".
	AnsAssignment bool
}

// normalize normalizes the ParseOptions.
func (o *ParseOptions) normalize() ParseOptions {
	if o == nil {
		return ParseOptions{}
	}

	return *o
}

var (
	compareFns = map[string]string{
		"==": "equal", "!=": "unequal", "<": "smaller",
		">": "larger", "<=": "smallerEq", ">=": "largerEq",
	}
	conversionFns = map[string]string{"to": "to", "in": "to"}
	addFns        = map[string]string{"+": "add", "-": "subtract"}
	multiplyFns   = map[string]string{
		"*": "multiply", ".*": "emultiply", "/": "divide",
		"./": "edivide", "%": "mod", "mod": "mod",
	}
	powFns = map[string]string{"^": "pow", ".^": "epow"}
)

// parser is the state of a single Parse call.
type parser struct {
	lex       *lexer
	opts      ParseOptions
	condLevel int // nesting level of the innermost open "?"; -1 when none
}

// Parse parses src into an expression tree.
func Parse(src string, opts *ParseOptions) (Node, error) {
	p := &parser{lex: newLexer(src), opts: opts.normalize(), condLevel: -1}
	if err := p.lex.next(); err != nil {
		return nil, err
	}
	n, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	// Garbage after a complete expression.
	if p.tok().Kind != tokEnd {
		if p.tok().Kind == tokDelimiter {
			return nil, p.errorf("Unexpected operator %s", p.tok().Text)
		}
		return nil, p.errorf("Unexpected part %q", p.tok().Text)
	}
	return n, nil
}

// MustParse is like Parse but panics on error. It is meant for expressions
// known at compile time.
func MustParse(src string) Node {
	n, err := Parse(src, nil)
	if err != nil {
		panic(fmt.Sprintf("mathexpr: MustParse(%q): %v", src, err))
	}
	return n
}

// ParseMany parses each source independently.
func ParseMany(srcs []string, opts *ParseOptions) ([]Node, error) {
	out := make([]Node, len(srcs))
	for i, s := range srcs {
		n, err := Parse(s, opts)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (p *parser) tok() token { return p.lex.tok }

func (p *parser) is(text string) bool {
	t := p.lex.tok
	return t.Kind == tokDelimiter && t.Text == text
}

func (p *parser) next() error { return p.lex.next() }

// nextSkipNewline advances past the current token and any newline tokens.
func (p *parser) nextSkipNewline() error {
	if err := p.next(); err != nil {
		return err
	}
	for p.is("\n") {
		if err := p.next(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) open() error {
	p.lex.nesting++
	return p.nextSkipNewline()
}

func (p *parser) close() error {
	p.lex.nesting--
	return p.next()
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Pos:        p.tok().Pos,
		Msg:        fmt.Sprintf(format, args...),
		Incomplete: p.tok().Kind == tokEnd,
	}
}

// parseBlock parses statements separated by newlines or semicolons.
func (p *parser) parseBlock() (Node, error) {
	var (
		node   Node
		blocks []BlockEntry
		err    error
	)
	if !p.atStatementEnd() {
		if node, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}
	for p.is("\n") || p.is(";") {
		if len(blocks) == 0 && node != nil {
			blocks = append(blocks, BlockEntry{Node: node, Visible: !p.is(";")})
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		if !p.atStatementEnd() {
			if node, err = p.parseStatement(); err != nil {
				return nil, err
			}
			blocks = append(blocks, BlockEntry{Node: node, Visible: !p.is(";")})
		}
	}
	if len(blocks) > 0 {
		return &BlockNode{Blocks: blocks}, nil
	}
	if node == nil {
		return &ConstantNode{}, nil
	}
	return node, nil
}

func (p *parser) atStatementEnd() bool {
	return p.tok().Kind == tokEnd || p.is("\n") || p.is(";")
}

// parseStatement wraps a statement into "ans = ..." when requested.
func (p *parser) parseStatement() (Node, error) {
	n, err := p.parseAssignment()
	if err != nil || !p.opts.AnsAssignment {
		return n, err
	}
	switch n.(type) {
	case *AssignmentNode, *FunctionAssignmentNode:
		return n, nil
	}
	return &AssignmentNode{Object: NewSymbol("ans"), Value: n}, nil
}

// parseAssignment parses assignments and function definitions.
func (p *parser) parseAssignment() (Node, error) {
	node, err := p.parseConditional()
	if err != nil || !p.is("=") {
		return node, err
	}

	switch target := node.(type) {
	case *SymbolNode:
		value, err := p.parseAssignmentValue()
		if err != nil {
			return nil, err
		}
		return &AssignmentNode{Object: target, Value: value}, nil

	case *IndexNode:
		if !isAssignable(target.Object) {
			break
		}
		value, err := p.parseAssignmentValue()
		if err != nil {
			return nil, err
		}
		return &AssignmentNode{Object: target.Object, Index: target.Ranges, Value: value}, nil

	case *FunctionNode:
		name := target.Name()
		if name == "" {
			break
		}
		params := make([]string, 0, len(target.Args))
		for _, a := range target.Args {
			s, ok := a.(*SymbolNode)
			if !ok {
				return nil, p.errorf("Invalid left hand side of assignment")
			}
			params = append(params, s.Name)
		}
		body, err := p.parseAssignmentValue()
		if err != nil {
			return nil, err
		}
		types := make([]string, len(params))
		for i := range types {
			types[i] = "any"
		}
		return &FunctionAssignmentNode{Name: name, Params: params, ParamTypes: types, Body: body}, nil
	}
	return nil, p.errorf("Invalid left hand side of assignment")
}

func (p *parser) parseAssignmentValue() (Node, error) {
	if err := p.nextSkipNewline(); err != nil {
		return nil, err
	}
	return p.parseAssignment()
}

// isAssignable reports whether n is a symbol or an index chain rooted at a symbol.
func isAssignable(n Node) bool {
	switch v := n.(type) {
	case *SymbolNode:
		return true
	case *IndexNode:
		return isAssignable(v.Object)
	}
	return false
}

// parseConditional parses cond ? a : b.
func (p *parser) parseConditional() (Node, error) {
	node, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	for p.is("?") {
		prev := p.condLevel
		p.condLevel = p.lex.nesting
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
		ifTrue, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if !p.is(":") {
			return nil, p.errorf("False part of conditional expression expected")
		}
		p.condLevel = -1
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
		ifFalse, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		node = &ConditionalNode{Cond: node, True: ifTrue, False: ifFalse}
		p.condLevel = prev
	}
	return node, nil
}

// parseRange parses start:end and start:step:end. A missing start means 1;
// a missing end before a closing delimiter means the symbol "end".
func (p *parser) parseRange() (Node, error) {
	var (
		node Node
		err  error
	)
	if p.is(":") {
		node = NewNumber(1)
	} else if node, err = p.parseCompare(); err != nil {
		return nil, err
	}

	if !p.is(":") || p.condLevel == p.lex.nesting {
		return node, nil
	}
	params := []Node{node}
	for p.is(":") && len(params) < 3 {
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
		if p.is(")") || p.is("]") || p.is(",") || p.tok().Kind == tokEnd {
			params = append(params, NewSymbol("end"))
			continue
		}
		operand, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		params = append(params, operand)
	}
	if len(params) == 3 {
		return &RangeNode{Start: params[0], Step: params[1], End: params[2]}, nil
	}
	return &RangeNode{Start: params[0], End: params[1]}, nil
}

// parseBinary parses a left-associative chain of the operators in fns.
func (p *parser) parseBinary(fns map[string]string, operand func() (Node, error)) (Node, error) {
	node, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		t := p.tok()
		fn, ok := fns[t.Text]
		if t.Kind != tokDelimiter || !ok {
			return node, nil
		}
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
		rhs, err := operand()
		if err != nil {
			return nil, err
		}
		node = NewOperator(t.Text, fn, node, rhs)
	}
}

func (p *parser) parseCompare() (Node, error) {
	return p.parseBinary(compareFns, p.parseConversion)
}

// parseConversion parses unit conversions "a to b" and "a in b".
func (p *parser) parseConversion() (Node, error) {
	node, err := p.parseAddSubtract()
	if err != nil {
		return nil, err
	}
	for p.is("to") || p.is("in") {
		op := p.tok().Text
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
		target, err := p.parseAddSubtract()
		if err != nil {
			return nil, err
		}
		if s, ok := target.(*SymbolNode); ok && IsUnitName(s.Name) {
			target = &UnitNode{Unit: s.Name}
		}
		node = NewOperator(op, conversionFns[op], node, target)
	}
	return node, nil
}

func (p *parser) parseAddSubtract() (Node, error) {
	return p.parseBinary(addFns, p.parseMultiplyDivide)
}

func (p *parser) parseMultiplyDivide() (Node, error) {
	return p.parseBinary(multiplyFns, p.parseImplicitMultiplication)
}

// parseImplicitMultiplication parses juxtaposed operands such as 2x and 2(x+1).
func (p *parser) parseImplicitMultiplication() (Node, error) {
	node, err := p.parseUnit()
	if err != nil {
		return nil, err
	}
	if p.opts.DisableImplicitMultiplication {
		return node, nil
	}
	for p.startsImplicitOperand(node) {
		rhs, err := p.parseUnit()
		if err != nil {
			return nil, err
		}
		node = multiply(node, rhs)
	}
	return node, nil
}

func (p *parser) startsImplicitOperand(left Node) bool {
	t := p.tok()
	switch {
	case t.Kind == tokSymbol:
		return true
	case t.Kind == tokNumber:
		_, isConst := left.(*ConstantNode)
		return !isConst
	case p.is("("):
		return true
	}
	return false
}

// parseUnit parses a value followed by a unit name, e.g. 5 cm.
func (p *parser) parseUnit() (Node, error) {
	node, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if t := p.tok(); t.Kind == tokSymbol && IsUnitName(t.Text) {
		if err := p.next(); err != nil {
			return nil, err
		}
		node = &UnitNode{Value: node, Unit: t.Text}
	}
	return node, nil
}

// parseUnary parses prefix minus and plus.
func (p *parser) parseUnary() (Node, error) {
	if p.is("-") || p.is("+") {
		op := p.tok().Text
		fn := "unaryMinus"
		if op == "+" {
			fn = "unaryPlus"
		}
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewOperator(op, fn, operand), nil
	}
	return p.parsePow()
}

// parsePow parses right-associative exponentiation. Operands are collected
// on a stack and folded from the right, so a^b^c is a^(b^c).
func (p *parser) parsePow() (Node, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	operands := []Node{first}
	var ops []string
	for p.is("^") || p.is(".^") {
		ops = append(ops, p.tok().Text)
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
		if p.is("-") || p.is("+") {
			// 2^-3: the signed exponent swallows the rest of the chain.
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			operands = append(operands, operand)
			break
		}
		operand, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}

	node := operands[len(operands)-1]
	for i := len(ops) - 1; i >= 0; i-- {
		node = NewOperator(ops[i], powFns[ops[i]], operands[i], node)
	}
	return node, nil
}

// parsePostfix parses factorial and transpose.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parseCustomNodes()
	if err != nil {
		return nil, err
	}
	for p.is("!") || p.is("'") {
		op := p.tok().Text
		fn := "factorial"
		if op == "'" {
			fn = "transpose"
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		node = NewOperator(op, fn, node)
	}
	return node, nil
}

// parseCustomNodes hands name(args...) to a registered handler.
func (p *parser) parseCustomNodes() (Node, error) {
	t := p.tok()
	handler, ok := p.opts.Nodes[t.Text]
	if t.Kind != tokSymbol || !ok {
		return p.parseSymbol()
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	var args []Node
	if p.is("(") {
		var err error
		if args, err = p.parseArgs(")"); err != nil {
			return nil, err
		}
	}
	n, err := handler(args)
	if err != nil {
		return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("Custom node %s: %v", t.Text, err), Err: err}
	}
	return n, nil
}

// parseSymbol parses a symbol with trailing calls and indexes.
func (p *parser) parseSymbol() (Node, error) {
	t := p.tok()
	if t.Kind != tokSymbol {
		return p.parseString()
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.parseAccessors(NewSymbol(t.Text), true)
}

// parseAccessors binds trailing (...) calls and [...] indexes to node.
func (p *parser) parseAccessors(node Node, callable bool) (Node, error) {
	for {
		switch {
		case p.is("(") && callable:
			args, err := p.parseArgs(")")
			if err != nil {
				return nil, err
			}
			node = &FunctionNode{Callee: node, Args: args}
		case p.is("["):
			ranges, err := p.parseArgs("]")
			if err != nil {
				return nil, err
			}
			if len(ranges) == 0 {
				return nil, p.errorf("Index expected")
			}
			node = &IndexNode{Object: node, Ranges: ranges}
			callable = true
		default:
			return node, nil
		}
	}
}

// parseArgs parses a comma separated list up to the closing delimiter.
// The current token is the opening delimiter.
func (p *parser) parseArgs(closing string) ([]Node, error) {
	if err := p.open(); err != nil {
		return nil, err
	}
	var args []Node
	if !p.is(closing) {
		for {
			a, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.is(",") {
				break
			}
			if err := p.nextSkipNewline(); err != nil {
				return nil, err
			}
		}
	}
	if !p.is(closing) {
		return nil, p.errorf("Parenthesis %s expected", closing)
	}
	if err := p.close(); err != nil {
		return nil, err
	}
	if args == nil {
		args = []Node{}
	}
	return args, nil
}

func (p *parser) parseString() (Node, error) {
	t := p.tok()
	if t.Kind != tokString {
		return p.parseMatrix()
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.parseAccessors(NewConstant(t.Text), false)
}

// parseMatrix parses [a, b; c, d] and [[a, b], [c, d]].
func (p *parser) parseMatrix() (Node, error) {
	if !p.is("[") {
		return p.parseNumber()
	}
	if err := p.open(); err != nil {
		return nil, err
	}

	var node Node
	if p.is("]") {
		node = &ArrayNode{Items: []Node{}}
	} else {
		first, err := p.parseRow()
		if err != nil {
			return nil, err
		}
		if p.is(";") {
			rows := []*ArrayNode{first}
			for p.is(";") {
				if err := p.nextSkipNewline(); err != nil {
					return nil, err
				}
				row, err := p.parseRow()
				if err != nil {
					return nil, err
				}
				if len(row.Items) != len(first.Items) {
					return nil, &SyntaxError{
						Pos: p.tok().Pos,
						Msg: fmt.Sprintf("Column dimensions mismatch (%d != %d)", len(row.Items), len(first.Items)),
						Err: &DimensionError{Got: len(row.Items), Want: len(first.Items)},
					}
				}
				rows = append(rows, row)
			}
			items := make([]Node, len(rows))
			for i, r := range rows {
				items[i] = r
			}
			node = &ArrayNode{Items: items}
		} else {
			node = first
		}
	}
	if !p.is("]") {
		return nil, p.errorf("End of matrix ] expected")
	}
	if err := p.close(); err != nil {
		return nil, err
	}
	return p.parseAccessors(node, false)
}

// parseRow parses comma separated matrix entries.
func (p *parser) parseRow() (*ArrayNode, error) {
	var items []Node
	for {
		n, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		if !p.is(",") {
			break
		}
		if err := p.nextSkipNewline(); err != nil {
			return nil, err
		}
	}
	row := &ArrayNode{Items: items}
	if err := checkRows(row); err != nil {
		return nil, &SyntaxError{Pos: p.tok().Pos, Msg: err.Error(), Err: err}
	}
	return row, nil
}

// checkRows verifies that nested row literals like [[1, 2], [3, 4]] agree in length.
func checkRows(a *ArrayNode) error {
	cols := -1
	for _, it := range a.Items {
		row, ok := it.(*ArrayNode)
		if !ok {
			return nil
		}
		if cols >= 0 && len(row.Items) != cols {
			return &DimensionError{Got: len(row.Items), Want: cols}
		}
		cols = len(row.Items)
	}
	return nil
}

func (p *parser) parseNumber() (Node, error) {
	t := p.tok()
	if t.Kind != tokNumber {
		return p.parseParentheses()
	}
	f, err := strconv.ParseFloat(t.Text, 64)
	if err != nil {
		return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("Invalid number %q", t.Text), Err: err}
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return NewNumber(f), nil
}

func (p *parser) parseParentheses() (Node, error) {
	if !p.is("(") {
		return p.parseEnd()
	}
	if err := p.open(); err != nil {
		return nil, err
	}
	content, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if !p.is(")") {
		return nil, p.errorf("Parenthesis ) expected")
	}
	if err := p.close(); err != nil {
		return nil, err
	}
	return p.parseAccessors(NewParenthesis(content), false)
}

func (p *parser) parseEnd() (Node, error) {
	if p.tok().Kind == tokEnd {
		return nil, p.errorf("Unexpected end of expression")
	}
	return nil, p.errorf("Value expected")
}
