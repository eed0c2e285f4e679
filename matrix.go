package mathexpr

import (
	"strings"
)

// ============================================================
// Matrix: dense 1-D or 2-D value matrix
// ============================================================

// Matrix is a dense row-major matrix of values. A 1-D matrix has a single
// dimension; a 2-D matrix has rows and columns. Methods never modify the
// receiver.
type Matrix struct {
	size []int
	data []Value
}

// NewMatrix returns a zero-filled matrix with the given dimensions.
func NewMatrix(size ...int) *Matrix {
	n := 1
	for _, s := range size {
		n *= s
	}
	data := make([]Value, n)
	for i := range data {
		data[i] = 0.0
	}
	return &Matrix{size: append([]int(nil), size...), data: data}
}

// MatrixFromSlice builds a 1-D matrix holding vs.
func MatrixFromSlice(vs []Value) *Matrix {
	return &Matrix{size: []int{len(vs)}, data: append([]Value(nil), vs...)}
}

// MatrixFromRows builds a 2-D matrix. All rows must have the same length.
func MatrixFromRows(rows [][]Value) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{size: []int{0}}, nil
	}
	cols := len(rows[0])
	m := &Matrix{size: []int{len(rows), cols}, data: make([]Value, 0, len(rows)*cols)}
	for _, r := range rows {
		if len(r) != cols {
			return nil, &DimensionError{Got: len(r), Want: cols}
		}
		m.data = append(m.data, r...)
	}
	return m, nil
}

// Size returns a copy of the dimensions.
func (m *Matrix) Size() []int { return append([]int(nil), m.size...) }

// Dims returns the number of dimensions.
func (m *Matrix) Dims() int { return len(m.size) }

// Rows returns the number of rows; a 1-D matrix is a single row.
func (m *Matrix) Rows() int {
	if len(m.size) == 1 {
		return 1
	}
	return m.size[0]
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.size[len(m.size)-1] }

// Values returns a copy of the elements in row-major order.
func (m *Matrix) Values() []Value { return append([]Value(nil), m.data...) }

func (m *Matrix) offset(idx []int) (int, error) {
	if len(idx) != len(m.size) {
		return 0, &DimensionError{Got: len(idx), Want: len(m.size)}
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= m.size[d] {
			return 0, &IndexError{Index: i, Min: 0, Max: m.size[d] - 1}
		}
		off = off*m.size[d] + i
	}
	return off, nil
}

// Get returns the element at the 0-based position idx.
func (m *Matrix) Get(idx ...int) (Value, error) {
	off, err := m.offset(idx)
	if err != nil {
		return nil, err
	}
	return m.data[off], nil
}

// Map applies fn to every element.
func (m *Matrix) Map(fn func(Value) (Value, error)) (*Matrix, error) {
	out := &Matrix{size: m.Size(), data: make([]Value, len(m.data))}
	for i, v := range m.data {
		r, err := fn(v)
		if err != nil {
			return nil, err
		}
		out.data[i] = r
	}
	return out, nil
}

// Subset reads the elements selected by ix. Selecting a single element
// returns the element itself, otherwise a matrix with one dimension per
// index dimension.
func (m *Matrix) Subset(ix *Index) (Value, error) {
	if len(ix.Dims) != len(m.size) {
		return nil, &DimensionError{Got: len(ix.Dims), Want: len(m.size)}
	}
	for d, dim := range ix.Dims {
		for _, p := range dim.Positions {
			if p < 0 || p >= m.size[d] {
				return nil, &IndexError{Index: p, Min: 0, Max: m.size[d] - 1}
			}
		}
	}
	if ix.IsScalar() {
		return m.Get(ix.Scalar()...)
	}

	out := &Matrix{size: ix.Size()}
	var walk func(d int, pos []int) error
	walk = func(d int, pos []int) error {
		if d == len(ix.Dims) {
			v, err := m.Get(pos...)
			if err != nil {
				return err
			}
			out.data = append(out.data, v)
			return nil
		}
		for _, p := range ix.Dims[d].Positions {
			if err := walk(d+1, append(pos, p)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// SetSubset returns a copy of m with the elements selected by ix replaced
// by v. A scalar v is written to every selected position; a matrix v must
// have the size of the selection. The copy grows, padded with zeros, when
// ix reaches past the end.
func (m *Matrix) SetSubset(ix *Index, v Value) (*Matrix, error) {
	dims := len(m.size)
	if len(m.data) == 0 && dims == 1 && len(ix.Dims) == 2 {
		dims = 2
	}
	if len(ix.Dims) != dims {
		return nil, &DimensionError{Got: len(ix.Dims), Want: dims}
	}

	size := make([]int, dims)
	copy(size, m.size)
	for d, dim := range ix.Dims {
		for _, p := range dim.Positions {
			if p < 0 {
				return nil, &IndexError{Index: p, Min: 0, Max: size[d] - 1}
			}
			if p >= size[d] {
				size[d] = p + 1
			}
		}
	}
	out := m.resize(size)

	var src *Matrix
	if vm, ok := v.(*Matrix); ok && !ix.IsScalar() {
		want := ix.Size()
		if len(vm.data) != product(want) {
			return nil, &DimensionError{Got: len(vm.data), Want: product(want)}
		}
		src = vm
	}

	k := 0
	var walk func(d int, pos []int) error
	walk = func(d int, pos []int) error {
		if d == len(ix.Dims) {
			off, err := out.offset(pos)
			if err != nil {
				return err
			}
			if src != nil {
				out.data[off] = src.data[k]
				k++
			} else {
				out.data[off] = v
			}
			return nil
		}
		for _, p := range ix.Dims[d].Positions {
			if err := walk(d+1, append(pos, p)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// resize copies m into a matrix of the given size, padding with zeros.
func (m *Matrix) resize(size []int) *Matrix {
	out := NewMatrix(size...)
	if len(m.data) == 0 {
		return out
	}
	if len(m.size) != len(size) {
		return out
	}
	pos := make([]int, len(m.size))
	for i, v := range m.data {
		rem := i
		for d := len(m.size) - 1; d >= 0; d-- {
			pos[d] = rem % m.size[d]
			rem /= m.size[d]
		}
		off, _ := out.offset(pos)
		out.data[off] = v
	}
	return out
}

// Transpose swaps rows and columns. A 1-D matrix is returned unchanged.
func (m *Matrix) Transpose() *Matrix {
	if len(m.size) != 2 {
		return &Matrix{size: m.Size(), data: m.Values()}
	}
	rows, cols := m.size[0], m.size[1]
	out := &Matrix{size: []int{cols, rows}, data: make([]Value, len(m.data))}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = m.data[i*cols+j]
		}
	}
	return out
}

func (m *Matrix) String() string {
	var sb strings.Builder
	if len(m.size) == 2 {
		sb.WriteString("[")
		for i := 0; i < m.size[0]; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("[")
			for j := 0; j < m.size[1]; j++ {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(FormatValue(m.data[i*m.size[1]+j]))
			}
			sb.WriteString("]")
		}
		sb.WriteString("]")
		return sb.String()
	}
	sb.WriteString("[")
	for i, v := range m.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(FormatValue(v))
	}
	sb.WriteString("]")
	return sb.String()
}

// ============================================================
// Linear algebra over numbers
// ============================================================

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1.0
	}
	return m
}

// numbers returns the rows of a square numeric matrix.
func (m *Matrix) numbers(fn string) ([][]float64, error) {
	if len(m.size) != 2 {
		return nil, &DimensionError{Got: len(m.size), Want: 2}
	}
	if m.size[0] != m.size[1] {
		return nil, &DimensionError{Got: m.size[1], Want: m.size[0]}
	}
	n := m.size[0]
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			f, ok := toNumber(m.data[i*n+j])
			if !ok {
				return nil, newTypeError(fn, m.data[i*n+j])
			}
			rows[i][j] = f
		}
	}
	return rows, nil
}

// Det returns the determinant of a square numeric matrix.
func (m *Matrix) Det() (float64, error) {
	rows, err := m.numbers("det")
	if err != nil {
		return 0, err
	}
	return det(rows), nil
}

// det expands along the first row.
func det(a [][]float64) float64 {
	switch n := len(a); n {
	case 0:
		return 1
	case 1:
		return a[0][0]
	case 2:
		return a[0][0]*a[1][1] - a[0][1]*a[1][0]
	}
	sum := 0.0
	for j := range a {
		sign := 1.0
		if j%2 == 1 {
			sign = -1
		}
		sum += sign * a[0][j] * det(minor(a, 0, j))
	}
	return sum
}

func minor(a [][]float64, skipRow, skipCol int) [][]float64 {
	out := make([][]float64, 0, len(a)-1)
	for i, row := range a {
		if i == skipRow {
			continue
		}
		r := make([]float64, 0, len(row)-1)
		for j, v := range row {
			if j != skipCol {
				r = append(r, v)
			}
		}
		out = append(out, r)
	}
	return out
}

// Inverse returns the inverse of a square numeric matrix as its adjugate
// divided by the determinant.
func (m *Matrix) Inverse() (*Matrix, error) {
	rows, err := m.numbers("inv")
	if err != nil {
		return nil, err
	}
	d := det(rows)
	if d == 0 {
		return nil, ErrSingularMatrix
	}
	n := len(rows)
	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sign := 1.0
			if (i+j)%2 == 1 {
				sign = -1
			}
			// adjugate is the transposed cofactor matrix
			out.data[j*n+i] = sign * det(minor(rows, i, j)) / d
		}
	}
	return out, nil
}

// Trace returns the sum of the diagonal of a square numeric matrix.
func (m *Matrix) Trace() (float64, error) {
	rows, err := m.numbers("trace")
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range rows {
		sum += rows[i][i]
	}
	return sum, nil
}

// ============================================================
// Index
// ============================================================

// IndexDim selects 0-based positions along one dimension. Scalar marks a
// dimension indexed by a single number rather than a range or list.
type IndexDim struct {
	Positions []int
	Scalar    bool
}

// Index selects a subset of a matrix or string.
type Index struct {
	Dims []IndexDim
}

// IsScalar reports whether every dimension selects a single number.
func (ix *Index) IsScalar() bool {
	for _, d := range ix.Dims {
		if !d.Scalar {
			return false
		}
	}
	return true
}

// Scalar returns the single position of every dimension.
func (ix *Index) Scalar() []int {
	out := make([]int, len(ix.Dims))
	for i, d := range ix.Dims {
		out[i] = d.Positions[0]
	}
	return out
}

// Size returns the number of positions per dimension.
func (ix *Index) Size() []int {
	out := make([]int, len(ix.Dims))
	for i, d := range ix.Dims {
		out[i] = len(d.Positions)
	}
	return out
}

func (ix *Index) String() string {
	parts := make([]string, len(ix.Dims))
	for i, d := range ix.Dims {
		ps := make([]string, len(d.Positions))
		for j, p := range d.Positions {
			ps[j] = formatNumber(float64(p))
		}
		parts[i] = "[" + strings.Join(ps, ", ") + "]"
	}
	return "Index(" + strings.Join(parts, ", ") + ")"
}

func product(xs []int) int {
	n := 1
	for _, x := range xs {
		n *= x
	}
	return n
}

func sameSize(a, b []int) bool {
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
