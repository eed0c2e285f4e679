package mathexpr

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Rule rewrites nodes matching Left into Right. Evaluate, when set, runs
// after a match with the bound constants in scope; the variables it
// assigns become extra bindings for Right, e.g. Evaluate "c3 = c1 + c2".
type Rule struct {
	Left     Node
	Right    Node
	Evaluate Node
}

func (r Rule) String() string {
	s := r.Left.String() + " -> " + r.Right.String()
	if r.Evaluate != nil {
		s += " [" + r.Evaluate.String() + "]"
	}
	return s
}

// RuleSpec is the textual form of a rule, as found in rule files.
type RuleSpec struct {
	L        string `yaml:"l"`
	R        string `yaml:"r"`
	Evaluate string `yaml:"evaluate,omitempty"`
}

// ParseRule parses a rule. Parentheses are dropped from the patterns and a
// negated number literal becomes a negative constant.
func ParseRule(l, r, evaluate string) (Rule, error) {
	left, err := parsePattern(l)
	if err != nil {
		return Rule{}, errors.Wrapf(err, "rule %q", l)
	}
	right, err := parsePattern(r)
	if err != nil {
		return Rule{}, errors.Wrapf(err, "rule %q", r)
	}
	rule := Rule{Left: left, Right: right}
	if evaluate != "" {
		if rule.Evaluate, err = Parse(evaluate, nil); err != nil {
			return Rule{}, errors.Wrapf(err, "rule evaluate %q", evaluate)
		}
	}
	return rule, nil
}

func parsePattern(src string) (Node, error) {
	n, err := Parse(src, nil)
	if err != nil {
		return nil, err
	}
	return foldNegativeLiterals(StripParentheses(n)), nil
}

// foldNegativeLiterals turns unaryMinus(number) into a negative constant.
func foldNegativeLiterals(n Node) Node {
	return Transform(n, func(c Node) Node {
		o, ok := c.(*OperatorNode)
		if !ok || o.Fn != "unaryMinus" || len(o.Args) != 1 {
			return c
		}
		if k, ok := o.Args[0].(*ConstantNode); ok {
			if f, ok := k.Value.(float64); ok {
				return NewNumber(-f)
			}
		}
		return NewOperator(o.Op, o.Fn, foldNegativeLiterals(o.Args[0]))
	})
}

func mustRules(specs []RuleSpec) []Rule {
	rules, err := rulesFromSpecs(specs)
	if err != nil {
		panic(err)
	}
	return rules
}

func rulesFromSpecs(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, len(specs))
	for i, s := range specs {
		r, err := ParseRule(s.L, s.R, s.Evaluate)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d", i+1)
		}
		rules[i] = r
	}
	return rules, nil
}

type ruleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// LoadRules reads a YAML rule file:
//
//	rules:
//	  - l: n * 1
//	    r: n
//	  - l: c1 + c2
//	    r: c3
//	    evaluate: c3 = c1 + c2
func LoadRules(r io.Reader) ([]Rule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode rule file")
	}
	for i, s := range f.Rules {
		if s.L == "" || s.R == "" {
			return nil, errors.Errorf("rule %d: both l and r are required", i+1)
		}
	}
	return rulesFromSpecs(f.Rules)
}

// DefaultRules returns the standard simplification rules, in the order
// they are tried.
func DefaultRules() []Rule {
	return append([]Rule(nil), defaultRules...)
}

var defaultRules = mustRules(defaultRuleSpecs)

var defaultRuleSpecs = []RuleSpec{
	// Identities.
	{L: "n + 0", R: "n"},
	{L: "0 + n", R: "n"},
	{L: "n - 0", R: "n"},
	{L: "0 - n", R: "-n"},
	{L: "n * 1", R: "n"},
	{L: "1 * n", R: "n"},
	{L: "n * 0", R: "0"},
	{L: "0 * n", R: "0"},
	{L: "n / 1", R: "n"},
	{L: "0 / v", R: "0"},
	{L: "n ^ 0", R: "1"},
	{L: "n ^ 1", R: "n"},
	{L: "1 ^ n", R: "1"},
	{L: "-(-n)", R: "n"},
	{L: "+n", R: "n"},
	{L: "n - -n1", R: "n + n1"},
	{L: "n + -n1", R: "n - n1"},

	// Constant folding.
	{L: "c1 + c2", R: "c3", Evaluate: "c3 = c1 + c2"},
	{L: "c1 - c2", R: "c3", Evaluate: "c3 = c1 - c2"},
	{L: "c1 * c2", R: "c3", Evaluate: "c3 = c1 * c2"},
	{L: "c1 / c2", R: "c3", Evaluate: "c3 = exactDivide(c1, c2)"},
	{L: "c1 ^ c2", R: "c3", Evaluate: "c3 = exactPow(c1, c2)"},
	{L: "-c1", R: "c2", Evaluate: "c2 = -c1"},
	{L: "(n + c1) + c2", R: "n + c3", Evaluate: "c3 = c1 + c2"},
	{L: "(n - c1) + c2", R: "n + c3", Evaluate: "c3 = c2 - c1"},
	{L: "(n + c1) - c2", R: "n + c3", Evaluate: "c3 = c1 - c2"},
	{L: "(n - c1) - c2", R: "n - c3", Evaluate: "c3 = c1 + c2"},
	{L: "(n1 + c1) + (n2 + c2)", R: "(n1 + n2) + c3", Evaluate: "c3 = c1 + c2"},
	{L: "(n1 + c1) + (n2 - c2)", R: "(n1 + n2) + c3", Evaluate: "c3 = c1 - c2"},
	{L: "(n1 - c1) + (n2 + c2)", R: "(n1 + n2) + c3", Evaluate: "c3 = c2 - c1"},
	{L: "(n1 - c1) + (n2 - c2)", R: "(n1 + n2) - c3", Evaluate: "c3 = c1 + c2"},
	{L: "(n / c1) / c2", R: "n / c3", Evaluate: "c3 = c1 * c2"},
	{L: "c1 * (c2 * n)", R: "c3 * n", Evaluate: "c3 = c1 * c2"},
	{L: "(c1 * n) * c2", R: "c3 * n", Evaluate: "c3 = c1 * c2"},
	{L: "-(c1 * n)", R: "c2 * n", Evaluate: "c2 = -c1"},
	{L: "n + c1", R: "n - c2", Evaluate: "c2 = flipNegative(c1)"},
	{L: "n - c1", R: "n + c2", Evaluate: "c2 = flipNegative(c1)"},

	// Constants first in products, last in sums.
	{L: "v * c", R: "c * v"},
	{L: "c + v", R: "v + c"},

	// Collecting like terms.
	{L: "n * n", R: "n ^ 2"},
	{L: "n ^ n1 * n", R: "n ^ (n1 + 1)"},
	{L: "n * n ^ n1", R: "n ^ (n1 + 1)"},
	{L: "n ^ n1 * n ^ n2", R: "n ^ (n1 + n2)"},
	{L: "(c1 * n) * n", R: "c1 * n ^ 2"},
	{L: "(c1 * n ^ n1) * n", R: "c1 * n ^ (n1 + 1)"},
	{L: "(c1 * n ^ n1) * n ^ n2", R: "c1 * n ^ (n1 + n2)"},
	{L: "n + n", R: "2 * n"},
	{L: "c1 * n + n", R: "(c1 + 1) * n"},
	{L: "n + c1 * n", R: "(c1 + 1) * n"},
	{L: "c1 * n + c2 * n", R: "(c1 + c2) * n"},
	{L: "n - n", R: "0"},
	{L: "-n + n", R: "0"},
	{L: "c1 * n - c2 * n", R: "(c1 - c2) * n"},
	{L: "(n ^ n1) ^ n2", R: "n ^ (n1 * n2)"},
	{L: "v / v", R: "1"},
	{L: "-1 * n", R: "-n"},
}

// errSkipRule makes a rule's evaluate step reject the match.
var errSkipRule = errors.New("rule does not apply")

// simplifyNamespace extends ns with the helpers used by rule evaluate steps.
func simplifyNamespace(ns *Namespace) *Namespace {
	out := ns.Clone()
	out.Register("exactDivide", func(args ...Value) (Value, error) {
		a, b, err := twoNumbers("exactDivide", args)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, errSkipRule
		}
		q := a / b
		if !isInteger(q) && isInteger(a) && isInteger(b) {
			return nil, errSkipRule
		}
		return q, nil
	})
	out.Register("exactPow", func(args ...Value) (Value, error) {
		a, b, err := twoNumbers("exactPow", args)
		if err != nil {
			return nil, err
		}
		p := math.Pow(a, b)
		if b < 0 || !isInteger(b) || math.IsInf(p, 0) || math.IsNaN(p) {
			return nil, errSkipRule
		}
		return p, nil
	})
	out.Register("flipNegative", func(args ...Value) (Value, error) {
		if err := checkArgs("flipNegative", args, 1, 1); err != nil {
			return nil, err
		}
		f, ok := args[0].(float64)
		if !ok || !(f < 0) {
			return nil, errSkipRule
		}
		return -f, nil
	})
	return out
}

func twoNumbers(fn string, args []Value) (float64, float64, error) {
	if err := checkArgs(fn, args, 2, 2); err != nil {
		return 0, 0, err
	}
	a, okA := args[0].(float64)
	b, okB := args[1].(float64)
	if !okA || !okB {
		return 0, 0, errSkipRule
	}
	return a, b, nil
}

func isInteger(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}
