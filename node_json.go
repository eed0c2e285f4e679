package mathexpr

import (
	"encoding/json"
	"fmt"
	"math"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON encodes n as a JSON object tree: {"type": "operator", "op": "+", ...}.
func ToJSON(n Node) (string, error) {
	b, err := json.Marshal(toJSON(n))
	return string(b), err
}

// ToJSONValue returns the JSON object tree of n as nested maps.
func ToJSONValue(n Node) map[string]interface{} { return toJSON(n) }

func toJSONAll(ns []Node) []interface{} {
	out := make([]interface{}, len(ns))
	for i, n := range ns {
		out[i] = toJSON(n)
	}
	return out
}

func toJSON(n Node) map[string]interface{} {
	switch v := n.(type) {
	case *ConstantNode:
		m := map[string]interface{}{"type": "constant", "valueType": TypeOf(v.Value)}
		switch x := v.Value.(type) {
		case float64:
			if math.IsInf(x, 0) || math.IsNaN(x) {
				m["value"] = formatNumber(x)
			} else {
				m["value"] = x
			}
		case string, bool, nil:
			m["value"] = x
		default:
			m["value"] = FormatValue(x)
		}
		return m
	case *SymbolNode:
		return map[string]interface{}{"type": "symbol", "name": v.Name}
	case *OperatorNode:
		return map[string]interface{}{"type": "operator", "op": v.Op, "fn": v.Fn, "args": toJSONAll(v.Args)}
	case *FunctionNode:
		return map[string]interface{}{"type": "function", "callee": toJSON(v.Callee), "args": toJSONAll(v.Args)}
	case *FunctionAssignmentNode:
		params := make([]interface{}, len(v.Params))
		for i, p := range v.Params {
			params[i] = p
		}
		return map[string]interface{}{"type": "functionAssignment", "name": v.Name, "params": params, "body": toJSON(v.Body)}
	case *ArrayNode:
		return map[string]interface{}{"type": "array", "items": toJSONAll(v.Items)}
	case *RangeNode:
		m := map[string]interface{}{"type": "range", "start": toJSON(v.Start), "end": toJSON(v.End)}
		if v.Step != nil {
			m["step"] = toJSON(v.Step)
		}
		return m
	case *IndexNode:
		return map[string]interface{}{"type": "index", "object": toJSON(v.Object), "ranges": toJSONAll(v.Ranges)}
	case *AssignmentNode:
		m := map[string]interface{}{"type": "assignment", "object": toJSON(v.Object), "value": toJSON(v.Value)}
		if v.Index != nil {
			m["index"] = toJSONAll(v.Index)
		}
		return m
	case *ConditionalNode:
		return map[string]interface{}{
			"type":      "conditional",
			"condition": toJSON(v.Cond),
			"trueExpr":  toJSON(v.True),
			"falseExpr": toJSON(v.False),
		}
	case *BlockNode:
		blocks := make([]interface{}, len(v.Blocks))
		for i, b := range v.Blocks {
			blocks[i] = map[string]interface{}{"node": toJSON(b.Node), "visible": b.Visible}
		}
		return map[string]interface{}{"type": "block", "blocks": blocks}
	case *ParenthesisNode:
		return map[string]interface{}{"type": "parenthesis", "content": toJSON(v.Content)}
	case *UnitNode:
		m := map[string]interface{}{"type": "unit", "unit": v.Unit}
		if v.Value != nil {
			m["value"] = toJSON(v.Value)
		}
		return m
	}
	return nil
}

// ParseJSON decodes a tree produced by ToJSON.
func ParseJSON(s string) (Node, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// FromJSON decodes a JSON object tree into a Node.
func FromJSON(data map[string]interface{}) (Node, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subNode := func(field string) (Node, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		n, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return n, nil
	}

	optNode := func(field string) (Node, error) {
		if _, ok := data[field]; !ok {
			return nil, nil
		}
		return subNode(field)
	}

	subNodes := func(field string) ([]Node, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Node, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			n, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = n
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "constant":
		value := data["value"]
		if vt, _ := data["valueType"].(string); vt == "number" {
			if s, ok := value.(string); ok {
				switch s {
				case "Infinity":
					value = math.Inf(1)
				case "-Infinity":
					value = math.Inf(-1)
				case "NaN":
					value = math.NaN()
				default:
					return nil, fmt.Errorf("invalid number value: %s", s)
				}
			}
		}
		switch value.(type) {
		case float64, string, bool, nil:
			return &ConstantNode{Value: value}, nil
		}
		return nil, fmt.Errorf("constant: unsupported value %v", value)

	case "symbol":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return NewSymbol(name), nil

	case "operator":
		op, err := subString("op")
		if err != nil {
			return nil, err
		}
		fn, err := subString("fn")
		if err != nil {
			return nil, err
		}
		args, err := subNodes("args")
		if err != nil {
			return nil, err
		}
		return &OperatorNode{Op: op, Fn: fn, Args: args}, nil

	case "function":
		callee, err := subNode("callee")
		if err != nil {
			return nil, err
		}
		args, err := subNodes("args")
		if err != nil {
			return nil, err
		}
		return &FunctionNode{Callee: callee, Args: args}, nil

	case "functionAssignment":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		raw, ok := data["params"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("functionAssignment: \"params\" must be an array")
		}
		params := make([]string, len(raw))
		types := make([]string, len(raw))
		for i, p := range raw {
			s, ok := p.(string)
			if !ok {
				return nil, fmt.Errorf("functionAssignment: \"params\"[%d] must be a string", i)
			}
			params[i], types[i] = s, "any"
		}
		body, err := subNode("body")
		if err != nil {
			return nil, err
		}
		return &FunctionAssignmentNode{Name: name, Params: params, ParamTypes: types, Body: body}, nil

	case "array":
		items, err := subNodes("items")
		if err != nil {
			return nil, err
		}
		return &ArrayNode{Items: items}, nil

	case "range":
		start, err := subNode("start")
		if err != nil {
			return nil, err
		}
		end, err := subNode("end")
		if err != nil {
			return nil, err
		}
		step, err := optNode("step")
		if err != nil {
			return nil, err
		}
		return &RangeNode{Start: start, Step: step, End: end}, nil

	case "index":
		object, err := subNode("object")
		if err != nil {
			return nil, err
		}
		ranges, err := subNodes("ranges")
		if err != nil {
			return nil, err
		}
		return &IndexNode{Object: object, Ranges: ranges}, nil

	case "assignment":
		object, err := subNode("object")
		if err != nil {
			return nil, err
		}
		value, err := subNode("value")
		if err != nil {
			return nil, err
		}
		a := &AssignmentNode{Object: object, Value: value}
		if _, ok := data["index"]; ok {
			if a.Index, err = subNodes("index"); err != nil {
				return nil, err
			}
		}
		return a, nil

	case "conditional":
		cond, err := subNode("condition")
		if err != nil {
			return nil, err
		}
		t, err := subNode("trueExpr")
		if err != nil {
			return nil, err
		}
		f, err := subNode("falseExpr")
		if err != nil {
			return nil, err
		}
		return &ConditionalNode{Cond: cond, True: t, False: f}, nil

	case "block":
		raw, ok := data["blocks"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("block: \"blocks\" must be an array")
		}
		blocks := make([]BlockEntry, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("block: \"blocks\"[%d] must be an object", i)
			}
			nm, ok := m["node"].(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("block: \"blocks\"[%d].node must be an object", i)
			}
			n, err := FromJSON(nm)
			if err != nil {
				return nil, fmt.Errorf("block: blocks[%d]: %w", i, err)
			}
			visible, _ := m["visible"].(bool)
			blocks[i] = BlockEntry{Node: n, Visible: visible}
		}
		return &BlockNode{Blocks: blocks}, nil

	case "parenthesis":
		content, err := subNode("content")
		if err != nil {
			return nil, err
		}
		return NewParenthesis(content), nil

	case "unit":
		unit, err := subString("unit")
		if err != nil {
			return nil, err
		}
		value, err := optNode("value")
		if err != nil {
			return nil, err
		}
		return &UnitNode{Value: value, Unit: unit}, nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}
