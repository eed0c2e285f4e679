package mathexpr

import (
	"github.com/pkg/errors"
)

// SimplifyOptions configures Simplify.
type SimplifyOptions struct {
	// Rules replaces DefaultRules().
	Rules []Rule
	// Namespace evaluates the evaluate steps of rules. Defaults to DefaultNamespace().
	Namespace *Namespace
	// Scope substitutes numeric variables before rewriting.
	Scope Scope
	// MaxPasses bounds the number of rewrite passes. Defaults to 100.
	MaxPasses int
}

// normalize normalizes the SimplifyOptions.
func (o *SimplifyOptions) normalize() SimplifyOptions {
	var out SimplifyOptions
	if o != nil {
		out = *o
	}
	if out.Rules == nil {
		out.Rules = defaultRules
	}
	if out.Namespace == nil {
		out.Namespace = DefaultNamespace()
	}
	if out.MaxPasses <= 0 {
		out.MaxPasses = 100
	}
	return out
}

// Simplify rewrites n with the rules until its printed form stops changing.
// Parentheses are removed first. Each pass rewrites children before their
// parent and tries every rule in order on each node, continuing with the
// rewritten node. The input is not modified.
func Simplify(n Node, opts *SimplifyOptions) (Node, error) {
	o := opts.normalize()
	s := &simplifier{
		rules: o.Rules,
		ns:    simplifyNamespace(o.Namespace),
		evals: map[int]*Expression{},
	}

	n = StripParentheses(n)
	if o.Scope != nil {
		n = substituteScope(n, o.Scope)
	}
	prev := n.String()
	for pass := 0; pass < o.MaxPasses; pass++ {
		next, err := s.pass(n)
		if err != nil {
			return nil, err
		}
		cur := next.String()
		if cur == prev {
			return next, nil
		}
		n, prev = next, cur
	}
	return nil, errors.Wrapf(ErrNoConvergence, "after %d passes: %s", o.MaxPasses, prev)
}

// substituteScope replaces symbols holding numbers in scope by constants.
func substituteScope(n Node, scope Scope) Node {
	return Transform(n, func(c Node) Node {
		s, ok := c.(*SymbolNode)
		if !ok {
			return c
		}
		v, ok := scope.Get(s.Name)
		if !ok {
			return c
		}
		switch v.(type) {
		case float64, int, bool:
			f, _ := toNumber(v)
			return NewNumber(f)
		}
		return c
	})
}

type simplifier struct {
	rules []Rule
	ns    *Namespace
	evals map[int]*Expression
}

func (s *simplifier) pass(n Node) (Node, error) {
	var err error
	n = MapChildren(n, func(c Node) Node {
		if err != nil {
			return c
		}
		r, e := s.pass(c)
		if e != nil {
			err = e
			return c
		}
		return r
	})
	if err != nil {
		return nil, err
	}

	for i, rule := range s.rules {
		r, ok, err := s.apply(i, rule, n)
		if err != nil {
			return nil, err
		}
		if ok {
			n = r
		}
	}
	return n, nil
}

// apply rewrites n with rule when it matches.
func (s *simplifier) apply(i int, rule Rule, n Node) (Node, bool, error) {
	b, ok := Match(rule.Left, n)
	if !ok {
		return nil, false, nil
	}
	if rule.Evaluate != nil {
		ok, err := s.evaluate(i, rule, b)
		if err != nil || !ok {
			return nil, false, err
		}
	}
	return Substitute(rule.Right, b), true, nil
}

// evaluate runs the rule's evaluate step with the bound constants and adds
// the variables it assigns to b. errSkipRule rejects the match.
func (s *simplifier) evaluate(i int, rule Rule, b Bindings) (bool, error) {
	expr, ok := s.evals[i]
	if !ok {
		var err error
		if expr, err = Compile(rule.Evaluate, s.ns); err != nil {
			return false, errors.Wrapf(err, "rule %s", rule)
		}
		s.evals[i] = expr
	}

	scope := NewMapScope()
	for name, n := range b {
		if c, ok := n.(*ConstantNode); ok {
			scope[name] = c.Value
		}
	}
	if _, err := expr.Evaluate(scope); err != nil {
		if errors.Is(err, errSkipRule) {
			return false, nil
		}
		return false, errors.Wrapf(err, "rule %s", rule)
	}
	for name, v := range scope {
		if _, bound := b[name]; !bound {
			b[name] = NewConstant(v)
		}
	}
	return true, nil
}

// Substitute replaces the placeholders of template bound in b by copies of
// their bindings.
func Substitute(template Node, b Bindings) Node {
	return Transform(template, func(c Node) Node {
		s, ok := c.(*SymbolNode)
		if !ok {
			return c
		}
		if bound, ok := b[s.Name]; ok {
			return Clone(bound)
		}
		return c
	})
}
