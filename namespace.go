package mathexpr

import (
	"fmt"
	"math"
	"sort"
)

// Namespace holds the functions and constants an expression can reach.
// Operators are looked up by their function name ("add", "unaryMinus").
type Namespace struct {
	funcs  map[string]Func
	consts map[string]Value
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{funcs: map[string]Func{}, consts: map[string]Value{}}
}

// Register adds or replaces a function.
func (ns *Namespace) Register(name string, fn Func) { ns.funcs[name] = fn }

// SetConstant adds or replaces a constant.
func (ns *Namespace) SetConstant(name string, v Value) { ns.consts[name] = v }

// Func looks up a function.
func (ns *Namespace) Func(name string) (Func, bool) {
	fn, ok := ns.funcs[name]
	return fn, ok
}

// Constant looks up a constant.
func (ns *Namespace) Constant(name string) (Value, bool) {
	v, ok := ns.consts[name]
	return v, ok
}

// Names returns the sorted function names.
func (ns *Namespace) Names() []string {
	out := make([]string, 0, len(ns.funcs))
	for name := range ns.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy that can be extended without affecting ns.
func (ns *Namespace) Clone() *Namespace {
	out := NewNamespace()
	for k, v := range ns.funcs {
		out.funcs[k] = v
	}
	for k, v := range ns.consts {
		out.consts[k] = v
	}
	return out
}

// DefaultNamespace returns a namespace with the arithmetic, comparison,
// matrix and elementary functions over float64, bool, string, *Matrix and *Unit.
func DefaultNamespace() *Namespace {
	ns := NewNamespace()

	ns.SetConstant("pi", math.Pi)
	ns.SetConstant("e", math.E)
	ns.SetConstant("E", math.E)
	ns.SetConstant("true", true)
	ns.SetConstant("false", false)
	ns.SetConstant("Infinity", math.Inf(1))
	ns.SetConstant("NaN", math.NaN())

	ns.Register("add", addValues)
	ns.Register("subtract", subtractValues)
	ns.Register("multiply", multiplyValues)
	ns.Register("divide", divideValues)
	ns.Register("emultiply", elementwise("emultiply", func(a, b float64) float64 { return a * b }))
	ns.Register("edivide", elementwise("edivide", func(a, b float64) float64 { return a / b }))
	ns.Register("pow", elementwise("pow", math.Pow))
	ns.Register("epow", elementwise("epow", math.Pow))
	ns.Register("mod", elementwise("mod", floorMod))
	ns.Register("unaryMinus", unaryMinusValue)
	ns.Register("unaryPlus", unaryPlusValue)

	ns.Register("equal", compareWith("equal", func(c int) bool { return c == 0 }))
	ns.Register("unequal", compareWith("unequal", func(c int) bool { return c != 0 }))
	ns.Register("smaller", compareWith("smaller", func(c int) bool { return c < 0 }))
	ns.Register("smallerEq", compareWith("smallerEq", func(c int) bool { return c <= 0 }))
	ns.Register("larger", compareWith("larger", func(c int) bool { return c > 0 }))
	ns.Register("largerEq", compareWith("largerEq", func(c int) bool { return c >= 0 }))

	ns.Register("factorial", mapNumber("factorial", func(x float64) float64 { return math.Gamma(x + 1) }))
	ns.Register("transpose", transposeValue)
	ns.Register("to", toUnit)
	ns.Register("unit", makeUnit)
	ns.Register("size", sizeValue)
	ns.Register("subset", subsetValue)
	ns.Register("range", rangeValue)
	ns.Register("matrix", matrixValue)
	ns.Register("det", matrixFunc("det", func(m *Matrix) (Value, error) { return m.Det() }))
	ns.Register("inv", matrixFunc("inv", func(m *Matrix) (Value, error) { return m.Inverse() }))
	ns.Register("trace", matrixFunc("trace", func(m *Matrix) (Value, error) { return m.Trace() }))
	ns.Register("identity", identityValue)

	for name, fn := range map[string]func(float64) float64{
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"sec": func(x float64) float64 { return 1 / math.Cos(x) },
		"csc": func(x float64) float64 { return 1 / math.Sin(x) },
		"cot": func(x float64) float64 { return 1 / math.Tan(x) },
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"asec": func(x float64) float64 { return math.Acos(1 / x) },
		"acsc": func(x float64) float64 { return math.Asin(1 / x) },
		"acot": func(x float64) float64 { return math.Atan(1 / x) },
		"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
		"sech": func(x float64) float64 { return 1 / math.Cosh(x) },
		"csch": func(x float64) float64 { return 1 / math.Sinh(x) },
		"coth": func(x float64) float64 { return 1 / math.Tanh(x) },
		"asinh": math.Asinh, "acosh": math.Acosh, "atanh": math.Atanh,
		"asech": func(x float64) float64 { return math.Acosh(1 / x) },
		"acsch": func(x float64) float64 { return math.Asinh(1 / x) },
		"acoth": func(x float64) float64 { return math.Atanh(1 / x) },
		"sqrt": math.Sqrt, "exp": math.Exp, "log10": math.Log10,
		"abs": math.Abs, "floor": math.Floor, "ceil": math.Ceil,
		"round": math.Round, "gamma": math.Gamma,
		"sign": func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return x
		},
	} {
		ns.Register(name, mapNumber(name, fn))
	}
	ns.Register("log", logValue)
	ns.Register("min", reduceNumbers("min", math.Min))
	ns.Register("max", reduceNumbers("max", math.Max))

	return ns
}

func checkArgs(fn string, args []Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return &ArgumentsError{Fn: fn, Count: len(args), Min: min, Max: max}
	}
	return nil
}

func floorMod(a, b float64) float64 {
	if b == 0 {
		return a
	}
	return a - b*math.Floor(a/b)
}

// mapNumber lifts a scalar function over numbers and matrices.
func mapNumber(name string, op func(float64) float64) Func {
	var fn Func
	fn = func(args ...Value) (Value, error) {
		if err := checkArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		switch x := args[0].(type) {
		case *Matrix:
			return x.Map(func(v Value) (Value, error) { return fn(v) })
		}
		f, ok := toNumber(args[0])
		if !ok {
			return nil, newTypeError(name, args...)
		}
		return op(f), nil
	}
	return fn
}

// elementwise lifts a binary scalar operation over numbers and matrices.
// Matrix operands must have equal size; a scalar operand is broadcast.
func elementwise(name string, op func(a, b float64) float64) Func {
	var fn Func
	fn = func(args ...Value) (Value, error) {
		if err := checkArgs(name, args, 2, 2); err != nil {
			return nil, err
		}
		a, b := args[0], args[1]
		ma, aIsM := a.(*Matrix)
		mb, bIsM := b.(*Matrix)
		switch {
		case aIsM && bIsM:
			if !sameSize(ma.size, mb.size) {
				return nil, &DimensionError{Got: len(mb.data), Want: len(ma.data)}
			}
			out := &Matrix{size: ma.Size(), data: make([]Value, len(ma.data))}
			for i := range ma.data {
				v, err := fn(ma.data[i], mb.data[i])
				if err != nil {
					return nil, err
				}
				out.data[i] = v
			}
			return out, nil
		case aIsM:
			return ma.Map(func(v Value) (Value, error) { return fn(v, b) })
		case bIsM:
			return mb.Map(func(v Value) (Value, error) { return fn(a, v) })
		}
		fa, okA := toNumber(a)
		fb, okB := toNumber(b)
		if !okA || !okB {
			return nil, newTypeError(name, a, b)
		}
		return op(fa, fb), nil
	}
	return fn
}

var (
	plainAdd      = elementwise("add", func(a, b float64) float64 { return a + b })
	plainSubtract = elementwise("subtract", func(a, b float64) float64 { return a - b })
	plainDivide   = elementwise("divide", func(a, b float64) float64 { return a / b })
	plainMultiply = elementwise("multiply", func(a, b float64) float64 { return a * b })
)

func addValues(args ...Value) (Value, error) {
	if u, o, ok := unitPair(args); ok {
		if !u.sameDimension(o) {
			return nil, newTypeError("add", u, o)
		}
		conv, _ := o.To(u.Name)
		return &Unit{Value: u.Value + conv.Value, Name: u.Name}, nil
	}
	return plainAdd(args...)
}

func subtractValues(args ...Value) (Value, error) {
	if u, o, ok := unitPair(args); ok {
		if !u.sameDimension(o) {
			return nil, newTypeError("subtract", u, o)
		}
		conv, _ := o.To(u.Name)
		return &Unit{Value: u.Value - conv.Value, Name: u.Name}, nil
	}
	return plainSubtract(args...)
}

func unitPair(args []Value) (*Unit, *Unit, bool) {
	if len(args) != 2 {
		return nil, nil, false
	}
	a, okA := args[0].(*Unit)
	b, okB := args[1].(*Unit)
	return a, b, okA && okB
}

// multiplyValues scales units, broadcasts scalars and multiplies matrices.
func multiplyValues(args ...Value) (Value, error) {
	if err := checkArgs("multiply", args, 2, 2); err != nil {
		return nil, err
	}
	a, b := args[0], args[1]
	if u, ok := a.(*Unit); ok {
		if f, ok := toNumber(b); ok {
			return &Unit{Value: u.Value * f, Name: u.Name}, nil
		}
	}
	if u, ok := b.(*Unit); ok {
		if f, ok := toNumber(a); ok {
			return &Unit{Value: u.Value * f, Name: u.Name}, nil
		}
	}
	ma, aIsM := a.(*Matrix)
	mb, bIsM := b.(*Matrix)
	if aIsM && bIsM {
		return matMul(ma, mb)
	}
	return plainMultiply(a, b)
}

// matMul multiplies two matrices. Two vectors give their dot product.
func matMul(a, b *Matrix) (Value, error) {
	if a.Dims() == 1 && b.Dims() == 1 {
		if a.size[0] != b.size[0] {
			return nil, &DimensionError{Got: b.size[0], Want: a.size[0]}
		}
		var sum Value = 0.0
		for i := range a.data {
			p, err := multiplyValues(a.data[i], b.data[i])
			if err != nil {
				return nil, err
			}
			if sum, err = addValues(sum, p); err != nil {
				return nil, err
			}
		}
		return sum, nil
	}

	rows, inner := a.Rows(), a.Cols()
	bRows, cols := b.size[0], b.Cols()
	if b.Dims() == 1 {
		bRows, cols = b.size[0], 1
	}
	if inner != bRows {
		return nil, &DimensionError{Got: bRows, Want: inner}
	}
	out := &Matrix{data: make([]Value, 0, rows*cols)}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sum Value = 0.0
			for k := 0; k < inner; k++ {
				p, err := multiplyValues(a.data[i*inner+k], b.data[k*cols+j])
				if err != nil {
					return nil, err
				}
				if sum, err = addValues(sum, p); err != nil {
					return nil, err
				}
			}
			out.data = append(out.data, sum)
		}
	}
	switch {
	case b.Dims() == 1:
		out.size = []int{rows}
	case a.Dims() == 1:
		out.size = []int{cols}
	default:
		out.size = []int{rows, cols}
	}
	return out, nil
}

func divideValues(args ...Value) (Value, error) {
	if err := checkArgs("divide", args, 2, 2); err != nil {
		return nil, err
	}
	if u, ok := args[0].(*Unit); ok {
		if f, ok := toNumber(args[1]); ok {
			return &Unit{Value: u.Value / f, Name: u.Name}, nil
		}
	}
	if _, ok := args[1].(*Matrix); ok {
		return nil, newTypeError("divide", args...)
	}
	return plainDivide(args...)
}

func unaryMinusValue(args ...Value) (Value, error) {
	if err := checkArgs("unaryMinus", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case *Unit:
		return &Unit{Value: -x.Value, Name: x.Name}, nil
	case *Matrix:
		return x.Map(func(v Value) (Value, error) { return unaryMinusValue(v) })
	}
	f, ok := toNumber(args[0])
	if !ok {
		return nil, newTypeError("unaryMinus", args...)
	}
	return -f, nil
}

func unaryPlusValue(args ...Value) (Value, error) {
	if err := checkArgs("unaryPlus", args, 1, 1); err != nil {
		return nil, err
	}
	switch args[0].(type) {
	case *Unit, *Matrix:
		return args[0], nil
	}
	f, ok := toNumber(args[0])
	if !ok {
		return nil, newTypeError("unaryPlus", args...)
	}
	return f, nil
}

// compareWith builds a comparison over numbers, strings and units.
// equal and unequal accept any pair of values.
func compareWith(name string, test func(int) bool) Func {
	return func(args ...Value) (Value, error) {
		if err := checkArgs(name, args, 2, 2); err != nil {
			return nil, err
		}
		c, err := compareValues(name, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return test(c), nil
	}
}

func compareValues(name string, a, b Value) (int, error) {
	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			case fa == fb:
				return 0, nil
			}
			return 1, nil // NaN compares unequal
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			switch {
			case sa < sb:
				return -1, nil
			case sa > sb:
				return 1, nil
			}
			return 0, nil
		}
	}
	if ua, ub, ok := unitPair([]Value{a, b}); ok && ua.sameDimension(ub) {
		return compareValues(name, ua.base(), ub.base())
	}
	if name == "equal" || name == "unequal" {
		if valuesEqual(a, b) {
			return 0, nil
		}
		return 1, nil
	}
	return 0, newTypeError(name, a, b)
}

func transposeValue(args ...Value) (Value, error) {
	if err := checkArgs("transpose", args, 1, 1); err != nil {
		return nil, err
	}
	if m, ok := args[0].(*Matrix); ok {
		return m.Transpose(), nil
	}
	return args[0], nil
}

// toUnit converts a unit into the unit of its second argument.
func toUnit(args ...Value) (Value, error) {
	if err := checkArgs("to", args, 2, 2); err != nil {
		return nil, err
	}
	u, ok := args[0].(*Unit)
	target, okT := args[1].(*Unit)
	if !ok || !okT {
		return nil, newTypeError("to", args...)
	}
	return u.To(target.Name)
}

// makeUnit implements unit(value, name) and unit(name).
func makeUnit(args ...Value) (Value, error) {
	if err := checkArgs("unit", args, 1, 2); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		name, ok := args[0].(string)
		if !ok {
			return nil, newTypeError("unit", args...)
		}
		return NewUnit(1, name)
	}
	name, okN := args[1].(string)
	if !okN {
		return nil, newTypeError("unit", args...)
	}
	f, ok := toNumber(args[0])
	if !ok {
		if m, isM := args[0].(*Matrix); isM {
			return m.Map(func(v Value) (Value, error) { return makeUnit(v, name) })
		}
		return nil, newTypeError("unit", args...)
	}
	return NewUnit(f, name)
}

func sizeValue(args ...Value) (Value, error) {
	if err := checkArgs("size", args, 1, 1); err != nil {
		return nil, err
	}
	size := sizeOf(args[0])
	out := make([]Value, len(size))
	for i, s := range size {
		out[i] = float64(s)
	}
	return MatrixFromSlice(out), nil
}

// subsetValue implements subset(value, index) and subset(value, index, replacement).
// Index positions and errors are 0-based.
func subsetValue(args ...Value) (Value, error) {
	if err := checkArgs("subset", args, 2, 3); err != nil {
		return nil, err
	}
	ix, ok := args[1].(*Index)
	if !ok {
		return nil, newTypeError("subset", args...)
	}
	switch x := args[0].(type) {
	case *Matrix:
		if len(args) == 3 {
			return x.SetSubset(ix, args[2])
		}
		return x.Subset(ix)
	case string:
		if len(args) == 3 {
			return setStringSubset(x, ix, args[2])
		}
		return stringSubset(x, ix)
	}
	return nil, newTypeError("subset", args...)
}

func stringSubset(s string, ix *Index) (Value, error) {
	if len(ix.Dims) != 1 {
		return nil, &DimensionError{Got: len(ix.Dims), Want: 1}
	}
	out := make([]byte, 0, len(ix.Dims[0].Positions))
	for _, p := range ix.Dims[0].Positions {
		if p < 0 || p >= len(s) {
			return nil, &IndexError{Index: p, Min: 0, Max: len(s) - 1}
		}
		out = append(out, s[p])
	}
	return string(out), nil
}

func setStringSubset(s string, ix *Index, v Value) (Value, error) {
	repl, ok := v.(string)
	if len(ix.Dims) != 1 || !ok {
		return nil, newTypeError("subset", s, ix, v)
	}
	pos := ix.Dims[0].Positions
	if len(repl) != len(pos) {
		return nil, &DimensionError{Got: len(repl), Want: len(pos)}
	}
	b := []byte(s)
	for i, p := range pos {
		if p < 0 {
			return nil, &IndexError{Index: p, Min: 0, Max: len(s) - 1}
		}
		for p >= len(b) {
			b = append(b, ' ')
		}
		b[p] = repl[i]
	}
	return string(b), nil
}

const (
	rangeEpsilon = 1e-10
	maxRangeLen  = 1 << 24
)

// rangeValue implements range(start, end) and range(start, end, step),
// both ends inclusive.
func rangeValue(args ...Value) (Value, error) {
	if err := checkArgs("range", args, 2, 3); err != nil {
		return nil, err
	}
	nums := make([]float64, len(args))
	for i, a := range args {
		f, ok := toNumber(a)
		if !ok {
			return nil, newTypeError("range", args...)
		}
		nums[i] = f
	}
	start, end, step := nums[0], nums[1], 1.0
	if len(nums) == 3 {
		step = nums[2]
	}
	for _, f := range []float64{start, end, step} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: range bounds must be finite", ErrType)
		}
	}
	if step == 0 {
		return nil, fmt.Errorf("%w: range step must be non-zero", ErrType)
	}
	// The tolerance keeps the end point of fractional steps such as 0:0.1:0.3.
	count := math.Floor((end-start)/step+rangeEpsilon) + 1
	if count <= 0 {
		return MatrixFromSlice(nil), nil
	}
	if count > maxRangeLen {
		return nil, fmt.Errorf("%w: range of %g elements exceeds %d", ErrDimensionMismatch, count, maxRangeLen)
	}
	out := make([]Value, int(count))
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return MatrixFromSlice(out), nil
}

// matrixValue builds a matrix from evaluated literal items. Items that are
// 1-D matrices of equal length become the rows of a 2-D matrix.
func matrixValue(items ...Value) (Value, error) {
	if len(items) == 0 {
		return NewMatrix(0), nil
	}
	first, nested := items[0].(*Matrix)
	if !nested {
		for _, it := range items {
			if _, ok := it.(*Matrix); ok {
				return nil, &DimensionError{Got: 1, Want: 0}
			}
		}
		return MatrixFromSlice(items), nil
	}
	if first.Dims() != 1 {
		return nil, newTypeError("matrix", items...)
	}
	rows := make([][]Value, len(items))
	for i, it := range items {
		m, ok := it.(*Matrix)
		if !ok || m.Dims() != 1 {
			return nil, &DimensionError{Got: 0, Want: first.size[0]}
		}
		rows[i] = m.data
	}
	return MatrixFromRows(rows)
}

func logValue(args ...Value) (Value, error) {
	if err := checkArgs("log", args, 1, 2); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return mapNumber("log", math.Log)(args[0])
	}
	return elementwise("log", func(x, b float64) float64 { return math.Log(x) / math.Log(b) })(args...)
}

// reduceNumbers folds numbers, or the elements of a single matrix argument.
func reduceNumbers(name string, op func(a, b float64) float64) Func {
	return func(args ...Value) (Value, error) {
		if len(args) == 1 {
			if m, ok := args[0].(*Matrix); ok {
				args = m.data
			}
		}
		if err := checkArgs(name, args, 1, -1); err != nil {
			return nil, err
		}
		acc, ok := toNumber(args[0])
		if !ok {
			return nil, newTypeError(name, args...)
		}
		for _, a := range args[1:] {
			f, ok := toNumber(a)
			if !ok {
				return nil, newTypeError(name, args...)
			}
			acc = op(acc, f)
		}
		return acc, nil
	}
}

// matrixFunc wraps a function of a single matrix argument.
func matrixFunc(name string, fn func(m *Matrix) (Value, error)) Func {
	return func(args ...Value) (Value, error) {
		if err := checkArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		m, ok := args[0].(*Matrix)
		if !ok {
			return nil, newTypeError(name, args...)
		}
		return fn(m)
	}
}

func identityValue(args ...Value) (Value, error) {
	if err := checkArgs("identity", args, 1, 1); err != nil {
		return nil, err
	}
	n, ok := toInt(args[0])
	if !ok || n < 0 {
		return nil, newTypeError("identity", args...)
	}
	return Identity(n), nil
}
