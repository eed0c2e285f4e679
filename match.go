package mathexpr

// Bindings maps placeholder names to the subtrees they matched.
type Bindings map[string]Node

func (b Bindings) clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// placeholderKind returns 'c', 'v' or 'n' when name is a pattern placeholder,
// or 0 for an ordinary symbol. A placeholder is one of those letters
// followed by nothing but digits: c, c1, v2, n10.
func placeholderKind(name string) byte {
	if name == "" {
		return 0
	}
	switch name[0] {
	case 'c', 'v', 'n':
	default:
		return 0
	}
	for i := 1; i < len(name); i++ {
		if !isDigit(name[i]) {
			return 0
		}
	}
	return name[0]
}

// Match reports whether candidate has the shape of pattern. Placeholders
// c* match only constants, v* only non-constants, n* anything; a
// placeholder used twice must match equal subtrees. Parentheses in either
// tree are significant, so callers usually strip them first.
func Match(pattern, candidate Node) (Bindings, bool) {
	b := Bindings{}
	if !match(pattern, candidate, b) {
		return nil, false
	}
	return b, true
}

func match(p, n Node, b Bindings) bool {
	switch pv := p.(type) {
	case *SymbolNode:
		kind := placeholderKind(pv.Name)
		if kind == 0 {
			s, ok := n.(*SymbolNode)
			return ok && s.Name == pv.Name
		}
		_, isConst := n.(*ConstantNode)
		if (kind == 'c' && !isConst) || (kind == 'v' && isConst) {
			return false
		}
		if prev, ok := b[pv.Name]; ok {
			return Equal(prev, n)
		}
		b[pv.Name] = n
		return true

	case *ConstantNode:
		c, ok := n.(*ConstantNode)
		return ok && valuesEqual(pv.Value, c.Value)

	case *OperatorNode:
		o, ok := n.(*OperatorNode)
		if !ok || o.Op != pv.Op || o.Fn != pv.Fn || len(o.Args) != len(pv.Args) {
			return false
		}
		for i := range pv.Args {
			if !match(pv.Args[i], o.Args[i], b) {
				return false
			}
		}
		return true

	case *FunctionNode:
		f, ok := n.(*FunctionNode)
		if !ok || f.Name() != pv.Name() || pv.Name() == "" || len(f.Args) != len(pv.Args) {
			return false
		}
		for i := range pv.Args {
			if !match(pv.Args[i], f.Args[i], b) {
				return false
			}
		}
		return true

	case *ParenthesisNode:
		q, ok := n.(*ParenthesisNode)
		return ok && match(pv.Content, q.Content, b)
	}
	return Equal(p, n)
}

// MatchAll returns every binding set under which candidate matches
// pattern, trying both argument orders of binary add and multiply.
func MatchAll(pattern, candidate Node) []Bindings {
	return matchAll(pattern, candidate, Bindings{})
}

func matchAll(p, n Node, b Bindings) []Bindings {
	switch pv := p.(type) {
	case *OperatorNode:
		o, ok := n.(*OperatorNode)
		if !ok || o.Op != pv.Op || o.Fn != pv.Fn || len(o.Args) != len(pv.Args) {
			return nil
		}
		out := matchArgs(pv.Args, o.Args, b)
		if len(o.Args) == 2 && (o.Fn == "add" || o.Fn == "multiply") {
			swapped := []Node{o.Args[1], o.Args[0]}
			out = append(out, matchArgs(pv.Args, swapped, b)...)
		}
		return dedupe(out)

	case *FunctionNode:
		f, ok := n.(*FunctionNode)
		if !ok || f.Name() != pv.Name() || pv.Name() == "" || len(f.Args) != len(pv.Args) {
			return nil
		}
		return matchArgs(pv.Args, f.Args, b)

	case *ParenthesisNode:
		q, ok := n.(*ParenthesisNode)
		if !ok {
			return nil
		}
		return matchAll(pv.Content, q.Content, b)
	}

	nb := b.clone()
	if !match(p, n, nb) {
		return nil
	}
	return []Bindings{nb}
}

// matchArgs matches argument lists pairwise, threading every partial binding.
func matchArgs(ps, ns []Node, b Bindings) []Bindings {
	current := []Bindings{b}
	for i := range ps {
		var next []Bindings
		for _, cb := range current {
			next = append(next, matchAll(ps[i], ns[i], cb)...)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

func dedupe(bs []Bindings) []Bindings {
	var out []Bindings
outer:
	for _, b := range bs {
		for _, seen := range out {
			if sameBindings(b, seen) {
				continue outer
			}
		}
		out = append(out, b)
	}
	return out
}

func sameBindings(a, b Bindings) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !Equal(v, w) {
			return false
		}
	}
	return true
}
