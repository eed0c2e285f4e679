package mathexpr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Value is a runtime value: float64, bool, string, nil, *Matrix, *Unit,
// *Function, Func or *ResultSet. Namespaces may introduce other types.
type Value = any

// Func is a namespace function.
type Func func(args ...Value) (Value, error)

// ResultSet holds the visible values of a block, in order.
type ResultSet struct {
	Entries []Value
}

func (r *ResultSet) String() string {
	parts := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		parts[i] = FormatValue(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Last returns the last visible value, or nil for an empty set.
func (r *ResultSet) Last() Value {
	if len(r.Entries) == 0 {
		return nil
	}
	return r.Entries[len(r.Entries)-1]
}

// Function is a user defined function created by an expression like f(x) = x^2.
// Calling it with fewer arguments than parameters returns a new Function
// with the given arguments bound.
type Function struct {
	Name   string
	Params []string
	Syntax string
	call   func(args []Value) (Value, error)
}

// Call invokes f.
func (f *Function) Call(args ...Value) (Value, error) {
	switch {
	case len(args) > len(f.Params):
		return nil, &ArgumentsError{Fn: f.Name, Count: len(args), Min: len(f.Params), Max: len(f.Params)}
	case len(args) < len(f.Params) && len(args) > 0:
		bound := append([]Value(nil), args...)
		rest := f.Params[len(args):]
		return &Function{
			Name:   f.Name,
			Params: rest,
			Syntax: f.Name + "(" + strings.Join(rest, ", ") + ")",
			call: func(more []Value) (Value, error) {
				return f.call(append(append([]Value(nil), bound...), more...))
			},
		}, nil
	case len(args) < len(f.Params):
		return nil, &ArgumentsError{Fn: f.Name, Count: 0, Min: len(f.Params), Max: len(f.Params)}
	}
	return f.call(args)
}

func (f *Function) String() string { return f.Syntax }

// TypeOf names the type of v the way error messages print it.
func TypeOf(v Value) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case float64, int:
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	case complex128:
		return "Complex"
	case *Matrix:
		return "Matrix"
	case *Unit:
		return "Unit"
	case *Function, Func:
		return "function"
	case *ResultSet:
		return "ResultSet"
	case *Index:
		return "Index"
	}
	return reflect.TypeOf(v).String()
}

// FormatValue renders v for display.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case float64:
		return formatNumber(x)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case complex128:
		return formatNumber(real(x)) + " + " + formatNumber(imag(x)) + "i"
	case interface{ String() string }:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// toNumber converts numeric-like values to float64. Booleans count as 0 and 1.
func toNumber(v Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// toInt converts an integral number to int.
func toInt(v Value) (int, bool) {
	f, ok := toNumber(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// valuesEqual compares two runtime values. NaN equals NaN so that
// structurally identical constants compare equal.
func valuesEqual(a, b Value) bool {
	if fa, ok := toNumber(a); ok {
		if _, isBool := a.(bool); isBool {
			bb, ok := b.(bool)
			return ok && a.(bool) == bb
		}
		fb, ok := b.(float64)
		if !ok {
			if i, isInt := b.(int); isInt {
				fb, ok = float64(i), true
			}
		}
		return ok && (fa == fb || (math.IsNaN(fa) && math.IsNaN(fb)))
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *Matrix:
		y, ok := b.(*Matrix)
		if !ok || !sameSize(x.size, y.size) {
			return false
		}
		for i := range x.data {
			if !valuesEqual(x.data[i], y.data[i]) {
				return false
			}
		}
		return true
	case *Unit:
		y, ok := b.(*Unit)
		return ok && x.Name == y.Name && x.Value == y.Value
	}
	return reflect.DeepEqual(a, b)
}

// truthy converts a condition value to bool.
func truthy(v Value) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case float64:
		return x != 0 && !math.IsNaN(x), nil
	case int:
		return x != 0, nil
	case string:
		return x != "", nil
	case *Unit:
		return x.Value != 0 && !math.IsNaN(x.Value), nil
	case complex128:
		return x != 0, nil
	}
	return false, &ConditionTypeError{Type: TypeOf(v)}
}

// sizeOf returns the dimensions of v; scalars have none.
func sizeOf(v Value) []int {
	switch x := v.(type) {
	case *Matrix:
		return x.Size()
	case string:
		return []int{len(x)}
	}
	return nil
}
