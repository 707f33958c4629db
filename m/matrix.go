package m

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Matrix is an immutable dense 2-D matrix of float64 values. Every operation
// returns a new Matrix and leaves its operands untouched.
type Matrix struct {
	d *mat.Dense
}

// Zeros returns a rows x cols matrix of zeros.
func Zeros(rows, cols int) (Matrix, error) {
	if rows < 1 || cols < 1 {
		return Matrix{}, errors.Wrapf(ErrShape, "%dx%d", rows, cols)
	}
	return Matrix{d: mat.NewDense(rows, cols, nil)}, nil
}

// Random returns a rows x cols matrix with elements drawn uniformly from [-1, 1).
func Random(rows, cols int) (Matrix, error) {
	return RandomFrom(rows, cols, nil)
}

// RandomFrom is Random with an explicit source. A nil src uses the global one.
func RandomFrom(rows, cols int, src rand.Source) (Matrix, error) {
	if rows < 1 || cols < 1 {
		return Matrix{}, errors.Wrapf(ErrShape, "%dx%d", rows, cols)
	}
	return Matrix{d: mat.NewDense(rows, cols, randomArray(rows*cols, src))}, nil
}

func randomArray(size int, src rand.Source) []float64 {
	dist := distuv.Uniform{
		Min: -1,
		Max: 1,
		Src: src,
	}

	data := make([]float64, size)
	for i := 0; i < size; i++ {
		data[i] = dist.Rand()
	}
	return data
}

// From wraps row-major data. The shape is taken from the outer length and the
// first row; empty or jagged input is rejected. The data is copied.
func From(data [][]float64) (Matrix, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return Matrix{}, errors.Wrap(ErrShape, "empty data")
	}
	rows, cols := len(data), len(data[0])
	flat := make([]float64, 0, rows*cols)
	for i, row := range data {
		if len(row) != cols {
			return Matrix{}, errors.Wrapf(ErrShape, "row %d has %d columns, want %d", i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return Matrix{d: mat.NewDense(rows, cols, flat)}, nil
}

// Column builds a len(v) x 1 matrix.
func Column(v []float64) (Matrix, error) {
	if len(v) == 0 {
		return Matrix{}, errors.Wrap(ErrShape, "empty column")
	}
	return Matrix{d: mat.NewDense(len(v), 1, append([]float64(nil), v...))}, nil
}

func (m Matrix) Rows() int {
	if m.d == nil {
		return 0
	}
	r, _ := m.d.Dims()
	return r
}

func (m Matrix) Cols() int {
	if m.d == nil {
		return 0
	}
	_, c := m.d.Dims()
	return c
}

func (m Matrix) Dims() (int, int) {
	return m.Rows(), m.Cols()
}

// At panics with mat.ErrRowAccess or mat.ErrColAccess for indices outside
// the matrix. The zero Matrix has no rows.
func (m Matrix) At(i, j int) float64 {
	if m.d == nil {
		panic(mat.ErrRowAccess)
	}
	return m.d.At(i, j)
}

// Data returns a row-major copy of the elements.
func (m Matrix) Data() [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		copy(out[i], m.d.RawRowView(i))
	}
	return out
}

// Flat returns the elements in row-major order. For a column matrix this is
// the vector it holds.
func (m Matrix) Flat() []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.d.RawRowView(i)...)
	}
	return out
}

func (m Matrix) Equal(n Matrix) bool {
	if m.d == nil || n.d == nil {
		return m.d == n.d
	}
	return mat.Equal(m.d, n.d)
}

func (m Matrix) EqualApprox(n Matrix, tol float64) bool {
	if m.d == nil || n.d == nil {
		return m.d == n.d
	}
	return mat.EqualApprox(m.d, n.d, tol)
}

func (m Matrix) String() string {
	if m.d == nil {
		return "[]"
	}
	return fmt.Sprintf("%v", mat.Formatted(m.d))
}

// Multiply returns the matrix product m·n.
func (m Matrix) Multiply(n Matrix) (Matrix, error) {
	if m.d == nil || n.d == nil || m.Cols() != n.Rows() {
		return Matrix{}, mismatch("multiply", m, n)
	}
	return Matrix{d: dot(m.d, n.d)}, nil
}

func (m Matrix) Add(n Matrix) (Matrix, error) {
	if !sameShape(m, n) {
		return Matrix{}, mismatch("add", m, n)
	}
	return Matrix{d: add(m.d, n.d)}, nil
}

func (m Matrix) Subtract(n Matrix) (Matrix, error) {
	if !sameShape(m, n) {
		return Matrix{}, mismatch("subtract", m, n)
	}
	return Matrix{d: subtract(m.d, n.d)}, nil
}

// DotMultiply returns the Hadamard (element-wise) product.
func (m Matrix) DotMultiply(n Matrix) (Matrix, error) {
	if !sameShape(m, n) {
		return Matrix{}, mismatch("dot multiply", m, n)
	}
	return Matrix{d: multiply(m.d, n.d)}, nil
}

func (m Matrix) Map(fn func(float64) float64) Matrix {
	if m.d == nil {
		return Matrix{}
	}
	return Matrix{d: apply(func(_, _ int, v float64) float64 { return fn(v) }, m.d)}
}

func (m Matrix) Scale(s float64) Matrix {
	if m.d == nil {
		return Matrix{}
	}
	return Matrix{d: scale(s, m.d)}
}

func (m Matrix) Transpose() Matrix {
	if m.d == nil {
		return Matrix{}
	}
	return Matrix{d: mat.DenseCopyOf(m.d.T())}
}

func sameShape(m, n Matrix) bool {
	if m.d == nil || n.d == nil {
		return false
	}
	mr, mc := m.Dims()
	nr, nc := n.Dims()
	return mr == nr && mc == nc
}

func mismatch(op string, m, n Matrix) error {
	return errors.Wrapf(ErrDimensionMismatch, "%s %dx%d with %dx%d", op, m.Rows(), m.Cols(), n.Rows(), n.Cols())
}

func dot(m, n mat.Matrix) *mat.Dense {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

func apply(fn func(i, j int, v float64) float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Apply(fn, m)
	return o
}

func scale(s float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func multiply(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.MulElem(m, n)
	return o
}

func add(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Add(m, n)
	return o
}

func subtract(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Sub(m, n)
	return o
}
