package numeric

import (
	"fmt"
	"math/cmplx"
)

// ComplexMatrix is a row-major dense matrix of complex128, used for
// the per-unit Y-bus and the positive/negative/zero sequence admittance
// matrices of the short-circuit solver.
type ComplexMatrix struct {
	rows, cols int
	data       []complex128
}

// NewComplexMatrix allocates a zero-filled rows x cols matrix.
func NewComplexMatrix(rows, cols int) (*ComplexMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadShape, rows, cols)
	}
	return &ComplexMatrix{rows: rows, cols: cols, data: make([]complex128, rows*cols)}, nil
}

func (m *ComplexMatrix) Rows() int { return m.rows }
func (m *ComplexMatrix) Cols() int { return m.cols }

func (m *ComplexMatrix) At(r, c int) complex128 {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfRange, r, c, m.rows, m.cols))
	}
	return m.data[r*m.cols+c]
}

func (m *ComplexMatrix) Set(r, c int, v complex128) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfRange, r, c, m.rows, m.cols))
	}
	m.data[r*m.cols+c] = v
}

func (m *ComplexMatrix) Add(r, c int, v complex128) {
	m.data[r*m.cols+c] += v
}

func (m *ComplexMatrix) Clone() *ComplexMatrix {
	out := &ComplexMatrix{rows: m.rows, cols: m.cols, data: make([]complex128, len(m.data))}
	copy(out.data, m.data)
	return out
}

// IsSymmetric reports whether m equals its transpose within eps.
// A Y-bus free of off-nominal taps must pass this.
func (m *ComplexMatrix) IsSymmetric(eps float64) bool {
	if m.rows != m.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i + 1; j < m.cols; j++ {
			if cmplx.Abs(m.At(i, j)-m.At(j, i)) > eps {
				return false
			}
		}
	}
	return true
}

// SolveComplex solves A*x = b via Gaussian elimination with partial
// pivoting (by magnitude) over complex128, mirroring SolveReal.
func SolveComplex(a *ComplexMatrix, b []complex128) ([]complex128, error) {
	if a.rows != a.cols {
		return nil, fmt.Errorf("%w: %dx%d", ErrNonSquare, a.rows, a.cols)
	}
	n := a.rows
	if len(b) != n {
		return nil, fmt.Errorf("%w: rhs length %d vs %d", ErrDimensionMismatch, len(b), n)
	}

	aug := a.Clone()
	x := make([]complex128, n)
	copy(x, b)

	const tiny = 1e-13
	for k := 0; k < n; k++ {
		pivotRow := k
		best := cmplx.Abs(aug.At(k, k))
		for i := k + 1; i < n; i++ {
			if v := cmplx.Abs(aug.At(i, k)); v > best {
				best = v
				pivotRow = i
			}
		}
		if best < tiny {
			return nil, fmt.Errorf("%w: pivot row %d", ErrSingular, k)
		}
		if pivotRow != k {
			for j := 0; j < n; j++ {
				aug.data[k*n+j], aug.data[pivotRow*n+j] = aug.data[pivotRow*n+j], aug.data[k*n+j]
			}
			x[k], x[pivotRow] = x[pivotRow], x[k]
		}

		pivot := aug.At(k, k)
		for i := k + 1; i < n; i++ {
			factor := aug.At(i, k) / pivot
			if factor == 0 {
				continue
			}
			for j := k; j < n; j++ {
				aug.Add(i, j, -factor*aug.At(k, j))
			}
			x[i] -= factor * x[k]
		}
	}

	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for j := i + 1; j < n; j++ {
			sum -= aug.At(i, j) * x[j]
		}
		x[i] = sum / aug.At(i, i)
	}
	return x, nil
}

// InvertColumn solves A*z = e_col (the col'th standard basis vector)
// and returns z. The IEC 60909 solver only ever needs the driving-point
// impedance at a single fault bus, so it calls this once per sequence
// network rather than materializing the full inverse.
func InvertColumn(a *ComplexMatrix, col int) ([]complex128, error) {
	if col < 0 || col >= a.cols {
		return nil, fmt.Errorf("%w: column %d", ErrOutOfRange, col)
	}
	e := make([]complex128, a.rows)
	e[col] = 1
	return SolveComplex(a, e)
}
