package mathexpr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax indicates a parse failure.
	ErrSyntax = errors.New("syntax error")

	// ErrUndefinedSymbol indicates a symbol that is neither in scope nor in the namespace.
	ErrUndefinedSymbol = errors.New("undefined symbol")

	// ErrUnknownFunction indicates an operator or function missing from the namespace.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrType indicates operands of an unsupported type.
	ErrType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates operands or literals with incompatible sizes.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexOutOfRange indicates an index outside the bounds of a collection.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrArgumentsCount indicates a call with the wrong number of arguments.
	ErrArgumentsCount = errors.New("wrong number of arguments")

	// ErrUnsupportedConditionType indicates a condition value with no truth value.
	ErrUnsupportedConditionType = errors.New("unsupported condition type")

	// ErrDifferentiationUnsupported indicates an operator or function without a derivative rule.
	ErrDifferentiationUnsupported = errors.New("differentiation unsupported")

	// ErrPolynomialStructure indicates an expression that is not a valid polynomial.
	ErrPolynomialStructure = errors.New("invalid polynomial structure")

	// ErrSingularMatrix indicates an attempt to invert a matrix with zero determinant.
	ErrSingularMatrix = errors.New("matrix is singular")

	// ErrNoConvergence indicates a rewrite that did not reach a fixed point within the pass limit.
	ErrNoConvergence = errors.New("simplification did not converge")
)

// SyntaxError is a positional parse error.
type SyntaxError struct {
	Pos        int    // 0-based byte offset, -1 when unknown
	Msg        string // human readable message
	Incomplete bool   // the input ended before the expression was complete
	Err        error  // optional more specific cause
}

func (e *SyntaxError) Error() string {
	if e.Pos < 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (char %d)", e.Msg, e.Column())
}

// Column returns the 1-based column of the error.
func (e *SyntaxError) Column() int { return e.Pos + 1 }

func (e *SyntaxError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSyntax, e.Err}
	}
	return []error{ErrSyntax}
}

// IsIncomplete reports whether err is a syntax error caused by premature end of input.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.Incomplete
}

// UndefinedSymbolError reports a symbol that could not be resolved.
type UndefinedSymbolError struct{ Name string }

func (e *UndefinedSymbolError) Error() string { return "Undefined symbol " + e.Name }
func (e *UndefinedSymbolError) Unwrap() error { return ErrUndefinedSymbol }

// UnknownFunctionError reports an operator or function name absent from the namespace.
type UnknownFunctionError struct{ Name string }

func (e *UnknownFunctionError) Error() string { return "Unknown function " + e.Name }
func (e *UnknownFunctionError) Unwrap() error { return ErrUnknownFunction }

// TypeError reports a function applied to operands of unsupported types.
type TypeError struct {
	Fn    string
	Types []string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("Unexpected type of argument in function %s (%s)", e.Fn, strings.Join(e.Types, ", "))
}
func (e *TypeError) Unwrap() error { return ErrType }

func newTypeError(fn string, args ...Value) *TypeError {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = TypeOf(a)
	}
	return &TypeError{Fn: fn, Types: types}
}

// DimensionError reports mismatching sizes.
type DimensionError struct {
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("Dimension mismatch (%d != %d)", e.Got, e.Want)
}
func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// IndexError reports an index outside [Min, Max].
// Internally indices are 0-based; errors crossing the evaluation boundary
// are converted once to 1-based and marked with OneBased.
type IndexError struct {
	Index    int
	Min      int
	Max      int
	OneBased bool
}

func (e *IndexError) Error() string {
	if e.Index < e.Min {
		return fmt.Sprintf("Index out of range (%d < %d)", e.Index, e.Min)
	}
	return fmt.Sprintf("Index out of range (%d > %d)", e.Index, e.Max)
}
func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// oneBased converts a 0-based IndexError found in err to its 1-based form.
// Errors already converted are returned unchanged.
func oneBased(err error) error {
	var ie *IndexError
	if !errors.As(err, &ie) || ie.OneBased {
		return err
	}
	return &IndexError{Index: ie.Index + 1, Min: ie.Min + 1, Max: ie.Max + 1, OneBased: true}
}

// ArgumentsError reports a call with an unexpected number of arguments.
type ArgumentsError struct {
	Fn    string
	Count int
	Min   int
	Max   int // -1 for variadic
}

func (e *ArgumentsError) Error() string {
	switch {
	case e.Max < 0:
		return fmt.Sprintf("Wrong number of arguments in function %s (%d provided, %d or more expected)", e.Fn, e.Count, e.Min)
	case e.Min == e.Max:
		return fmt.Sprintf("Wrong number of arguments in function %s (%d provided, %d expected)", e.Fn, e.Count, e.Min)
	default:
		return fmt.Sprintf("Wrong number of arguments in function %s (%d provided, %d-%d expected)", e.Fn, e.Count, e.Min, e.Max)
	}
}
func (e *ArgumentsError) Unwrap() error { return ErrArgumentsCount }

// ConditionTypeError reports a condition whose value has no truth value.
type ConditionTypeError struct{ Type string }

func (e *ConditionTypeError) Error() string {
	return "Unsupported type of condition \"" + e.Type + "\""
}
func (e *ConditionTypeError) Unwrap() error { return ErrUnsupportedConditionType }

// DifferentiationError reports an operator or function the differentiator has no rule for.
type DifferentiationError struct {
	Name string
	Kind string // "function", "operator" or a node type
}

func (e *DifferentiationError) Error() string {
	return fmt.Sprintf("%s %s is not supported by derivative", e.Kind, e.Name)
}
func (e *DifferentiationError) Unwrap() error { return ErrDifferentiationUnsupported }

// PolynomialError reports an expression rejected by the polynomial validator.
type PolynomialError struct{ Msg string }

func (e *PolynomialError) Error() string { return e.Msg }
func (e *PolynomialError) Unwrap() error { return ErrPolynomialStructure }

func polyErrorf(format string, args ...any) error {
	return &PolynomialError{Msg: fmt.Sprintf(format, args...)}
}
