package mathexpr

import (
	"strings"
)

// evalFunc evaluates a compiled node against a scope.
type evalFunc func(scope Scope) (Value, error)

// Expression is a compiled expression tree. It holds no evaluation state
// and may be evaluated concurrently against distinct scopes.
type Expression struct {
	node Node
	eval evalFunc
}

// Compile resolves the operator functions of n against ns and returns an
// evaluable Expression. A nil ns means DefaultNamespace().
//
// Every operator and every named call must resolve to a function of ns or
// to a name that n itself defines, otherwise Compile fails with an
// *UnknownFunctionError. Use CompileIn for functions that live in a scope.
func Compile(n Node, ns *Namespace) (*Expression, error) {
	return CompileIn(n, ns, nil)
}

// CompileIn is Compile that also accepts calls to names already defined in
// scope, such as user functions from an earlier statement. The call is
// resolved again at evaluation time.
func CompileIn(n Node, ns *Namespace, scope Scope) (*Expression, error) {
	if ns == nil {
		ns = DefaultNamespace()
	}
	c := &compiler{ns: ns, scope: scope, defined: definedNames(n)}
	ev, err := c.compile(n)
	if err != nil {
		return nil, err
	}
	return &Expression{node: n, eval: ev}, nil
}

// definedNames collects the names n binds: assignment targets, function
// definitions and their parameters.
func definedNames(n Node) map[string]bool {
	out := map[string]bool{}
	Traverse(n, func(c, _ Node) {
		switch v := c.(type) {
		case *AssignmentNode:
			if s, ok := StripParentheses(v.Object).(*SymbolNode); ok {
				out[s.Name] = true
			}
		case *FunctionAssignmentNode:
			out[v.Name] = true
			for _, p := range v.Params {
				out[p] = true
			}
		}
	})
	return out
}

// Node returns the compiled tree.
func (e *Expression) Node() Node { return e.node }

func (e *Expression) String() string { return e.node.String() }

// Evaluate runs the expression. A nil scope is replaced by an empty one.
// Assignments write into scope.
func (e *Expression) Evaluate(scope Scope) (Value, error) {
	if scope == nil {
		scope = NewMapScope()
	}
	v, err := e.eval(scope)
	if err != nil {
		return nil, oneBased(err)
	}
	return v, nil
}

// Evaluate parses, compiles with the default namespace and evaluates src.
func Evaluate(src string, scope Scope) (Value, error) {
	n, err := Parse(src, nil)
	if err != nil {
		return nil, err
	}
	expr, err := CompileIn(n, nil, scope)
	if err != nil {
		return nil, err
	}
	return expr.Evaluate(scope)
}

type compiler struct {
	ns      *Namespace
	scope   Scope
	defined map[string]bool
}

// callable reports whether a call to name can resolve outside ns.
func (c *compiler) callable(name string) bool {
	return c.defined[name] || (c.scope != nil && c.scope.Has(name))
}

func (c *compiler) require(name string) (Func, error) {
	fn, ok := c.ns.Func(name)
	if !ok {
		return nil, &UnknownFunctionError{Name: name}
	}
	return fn, nil
}

func (c *compiler) compileAll(ns []Node) ([]evalFunc, error) {
	out := make([]evalFunc, len(ns))
	for i, n := range ns {
		ev, err := c.compile(n)
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

func evalAll(evs []evalFunc, scope Scope) ([]Value, error) {
	out := make([]Value, len(evs))
	for i, ev := range evs {
		v, err := ev(scope)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *compiler) compile(n Node) (evalFunc, error) {
	switch v := n.(type) {
	case *ConstantNode:
		value := v.Value
		return func(Scope) (Value, error) { return value, nil }, nil

	case *SymbolNode:
		return c.compileSymbol(v.Name), nil

	case *OperatorNode:
		fn, err := c.require(v.Fn)
		if err != nil {
			return nil, err
		}
		args, err := c.compileAll(v.Args)
		if err != nil {
			return nil, err
		}
		return func(scope Scope) (Value, error) {
			argv, err := evalAll(args, scope)
			if err != nil {
				return nil, err
			}
			return fn(argv...)
		}, nil

	case *FunctionNode:
		return c.compileCall(v)

	case *FunctionAssignmentNode:
		return c.compileFunctionAssignment(v)

	case *ArrayNode:
		matrix, err := c.require("matrix")
		if err != nil {
			return nil, err
		}
		items, err := c.compileAll(v.Items)
		if err != nil {
			return nil, err
		}
		return func(scope Scope) (Value, error) {
			vals, err := evalAll(items, scope)
			if err != nil {
				return nil, err
			}
			return matrix(vals...)
		}, nil

	case *RangeNode:
		rangeFn, err := c.require("range")
		if err != nil {
			return nil, err
		}
		parts := []Node{v.Start, v.End}
		if v.Step != nil {
			parts = append(parts, v.Step)
		}
		args, err := c.compileAll(parts)
		if err != nil {
			return nil, err
		}
		return func(scope Scope) (Value, error) {
			argv, err := evalAll(args, scope)
			if err != nil {
				return nil, err
			}
			return rangeFn(argv...)
		}, nil

	case *IndexNode:
		subset, err := c.require("subset")
		if err != nil {
			return nil, err
		}
		object, err := c.compile(v.Object)
		if err != nil {
			return nil, err
		}
		index, err := c.compileIndex(v.Ranges)
		if err != nil {
			return nil, err
		}
		return func(scope Scope) (Value, error) {
			obj, err := object(scope)
			if err != nil {
				return nil, err
			}
			ix, err := index(scope, obj)
			if err != nil {
				return nil, err
			}
			r, err := subset(obj, ix)
			if err != nil {
				return nil, oneBased(err)
			}
			return r, nil
		}, nil

	case *AssignmentNode:
		return c.compileAssignment(v)

	case *ConditionalNode:
		evs, err := c.compileAll([]Node{v.Cond, v.True, v.False})
		if err != nil {
			return nil, err
		}
		cond, ifTrue, ifFalse := evs[0], evs[1], evs[2]
		return func(scope Scope) (Value, error) {
			cv, err := cond(scope)
			if err != nil {
				return nil, err
			}
			ok, err := truthy(cv)
			if err != nil {
				return nil, err
			}
			if ok {
				return ifTrue(scope)
			}
			return ifFalse(scope)
		}, nil

	case *BlockNode:
		type entry struct {
			eval    evalFunc
			visible bool
		}
		entries := make([]entry, len(v.Blocks))
		for i, b := range v.Blocks {
			ev, err := c.compile(b.Node)
			if err != nil {
				return nil, err
			}
			entries[i] = entry{ev, b.Visible}
		}
		return func(scope Scope) (Value, error) {
			rs := &ResultSet{Entries: []Value{}}
			for _, e := range entries {
				r, err := e.eval(scope)
				if err != nil {
					return nil, err
				}
				if e.visible {
					rs.Entries = append(rs.Entries, r)
				}
			}
			return rs, nil
		}, nil

	case *ParenthesisNode:
		return c.compile(v.Content)

	case *UnitNode:
		unit, err := c.require("unit")
		if err != nil {
			return nil, err
		}
		name := v.Unit
		if v.Value == nil {
			return func(Scope) (Value, error) { return unit(name) }, nil
		}
		value, err := c.compile(v.Value)
		if err != nil {
			return nil, err
		}
		return func(scope Scope) (Value, error) {
			x, err := value(scope)
			if err != nil {
				return nil, err
			}
			return unit(x, name)
		}, nil
	}
	return nil, &TypeError{Fn: "compile", Types: []string{"unknown node"}}
}

// compileSymbol looks name up in the scope, then among the namespace
// constants, then among the namespace functions.
func (c *compiler) compileSymbol(name string) evalFunc {
	constant, isConst := c.ns.Constant(name)
	fn, isFn := c.ns.Func(name)
	return func(scope Scope) (Value, error) {
		if v, ok := scope.Get(name); ok {
			return v, nil
		}
		switch {
		case isConst:
			return constant, nil
		case isFn:
			return fn, nil
		}
		return nil, &UndefinedSymbolError{Name: name}
	}
}

func (c *compiler) compileCall(f *FunctionNode) (evalFunc, error) {
	args, err := c.compileAll(f.Args)
	if err != nil {
		return nil, err
	}

	if name := f.Name(); name != "" {
		fn, inNamespace := c.ns.Func(name)
		if !inNamespace && !c.callable(name) {
			return nil, &UnknownFunctionError{Name: name}
		}
		return func(scope Scope) (Value, error) {
			callee, inScope := scope.Get(name)
			if !inScope && !inNamespace {
				return nil, &UnknownFunctionError{Name: name}
			}
			argv, err := evalAll(args, scope)
			if err != nil {
				return nil, err
			}
			if inScope {
				return callValue(name, callee, argv)
			}
			return fn(argv...)
		}, nil
	}

	callee, err := c.compile(f.Callee)
	if err != nil {
		return nil, err
	}
	name := f.Callee.String()
	return func(scope Scope) (Value, error) {
		fv, err := callee(scope)
		if err != nil {
			return nil, err
		}
		argv, err := evalAll(args, scope)
		if err != nil {
			return nil, err
		}
		return callValue(name, fv, argv)
	}, nil
}

func callValue(name string, fv Value, args []Value) (Value, error) {
	switch fn := fv.(type) {
	case *Function:
		return fn.Call(args...)
	case Func:
		return fn(args...)
	case func(...Value) (Value, error):
		return fn(args...)
	}
	return nil, &TypeError{Fn: name, Types: []string{TypeOf(fv) + " is not a function"}}
}

// compileFunctionAssignment defines a function in the evaluating scope. The
// body runs in a child of the defining scope, so it sees variables and
// functions defined later in that scope, including itself.
func (c *compiler) compileFunctionAssignment(f *FunctionAssignmentNode) (evalFunc, error) {
	body, err := c.compile(f.Body)
	if err != nil {
		return nil, err
	}
	name, params := f.Name, append([]string(nil), f.Params...)
	syntax := name + "(" + strings.Join(params, ", ") + ")"
	return func(scope Scope) (Value, error) {
		fn := &Function{
			Name:   name,
			Params: params,
			Syntax: syntax,
			call: func(args []Value) (Value, error) {
				local := NewChildScope(scope)
				for i, p := range params {
					local.Set(p, args[i])
				}
				return body(local)
			},
		}
		scope.Set(name, fn)
		return fn, nil
	}, nil
}

type indexFunc func(scope Scope, object Value) (*Index, error)

// compileIndex converts index expressions to a 0-based Index. A range that
// mentions "end" is evaluated with end bound to the size of its dimension.
func (c *compiler) compileIndex(ranges []Node) (indexFunc, error) {
	evs, err := c.compileAll(ranges)
	if err != nil {
		return nil, err
	}
	usesEnd := make([]bool, len(ranges))
	for i, r := range ranges {
		usesEnd[i] = len(Filter(r, func(n Node) bool {
			s, ok := n.(*SymbolNode)
			return ok && s.Name == "end"
		})) > 0
	}

	return func(scope Scope, object Value) (*Index, error) {
		size := sizeOf(object)
		ix := &Index{Dims: make([]IndexDim, len(evs))}
		for i, ev := range evs {
			s := scope
			if usesEnd[i] {
				end := 0
				if i < len(size) {
					end = size[i]
				}
				child := NewChildScope(scope)
				child.Set("end", float64(end))
				s = child
			}
			v, err := ev(s)
			if err != nil {
				return nil, err
			}
			dim, err := indexDim(v)
			if err != nil {
				return nil, err
			}
			ix.Dims[i] = dim
		}
		return ix, nil
	}, nil
}

// indexDim converts a 1-based index value into 0-based positions.
func indexDim(v Value) (IndexDim, error) {
	if n, ok := toInt(v); ok {
		if _, isBool := v.(bool); !isBool {
			return IndexDim{Positions: []int{n - 1}, Scalar: true}, nil
		}
	}
	m, ok := v.(*Matrix)
	if !ok || m.Dims() != 1 {
		return IndexDim{}, newTypeError("index", v)
	}
	dim := IndexDim{Positions: make([]int, len(m.data))}
	for i, x := range m.data {
		n, ok := toInt(x)
		if !ok {
			return IndexDim{}, newTypeError("index", x)
		}
		dim.Positions[i] = n - 1
	}
	return dim, nil
}

type storeFunc func(scope Scope, v Value) error

func (c *compiler) compileAssignment(a *AssignmentNode) (evalFunc, error) {
	value, err := c.compile(a.Value)
	if err != nil {
		return nil, err
	}

	if a.Index == nil {
		sym, ok := a.Object.(*SymbolNode)
		if !ok {
			return nil, &SyntaxError{Pos: -1, Msg: "Invalid left hand side of assignment"}
		}
		name := sym.Name
		return func(scope Scope) (Value, error) {
			v, err := value(scope)
			if err != nil {
				return nil, err
			}
			scope.Set(name, v)
			return v, nil
		}, nil
	}

	store, err := c.compileStore(&IndexNode{Object: a.Object, Ranges: a.Index})
	if err != nil {
		return nil, err
	}
	return func(scope Scope) (Value, error) {
		v, err := value(scope)
		if err != nil {
			return nil, err
		}
		if err := store(scope, v); err != nil {
			return nil, err
		}
		return v, nil
	}, nil
}

// compileStore returns a function writing a value into target. Writing into
// an index replaces the indexed object and stores it back into its own
// target, so a[1][2] = x updates a.
func (c *compiler) compileStore(target Node) (storeFunc, error) {
	switch t := target.(type) {
	case *SymbolNode:
		name := t.Name
		return func(scope Scope, v Value) error {
			scope.Update(name, v)
			return nil
		}, nil

	case *IndexNode:
		subset, err := c.require("subset")
		if err != nil {
			return nil, err
		}
		object, err := c.compile(t.Object)
		if err != nil {
			return nil, err
		}
		index, err := c.compileIndex(t.Ranges)
		if err != nil {
			return nil, err
		}
		parent, err := c.compileStore(t.Object)
		if err != nil {
			return nil, err
		}
		return func(scope Scope, v Value) error {
			obj, err := object(scope)
			if err != nil {
				return err
			}
			ix, err := index(scope, obj)
			if err != nil {
				return err
			}
			updated, err := subset(obj, ix, v)
			if err != nil {
				return oneBased(err)
			}
			return parent(scope, updated)
		}, nil
	}
	return nil, &SyntaxError{Pos: -1, Msg: "Invalid left hand side of assignment"}
}
