package numeric

import "fmt"

// RealMatrix is a row-major dense matrix of float64, used for the
// Newton-Raphson and Fast-Decoupled Jacobian/B-prime/B-double-prime
// blocks.
type RealMatrix struct {
	rows, cols int
	data       []float64
}

// NewRealMatrix allocates a zero-filled rows x cols matrix.
func NewRealMatrix(rows, cols int) (*RealMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadShape, rows, cols)
	}
	return &RealMatrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

func (m *RealMatrix) Rows() int { return m.rows }
func (m *RealMatrix) Cols() int { return m.cols }

func (m *RealMatrix) At(r, c int) float64 {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfRange, r, c, m.rows, m.cols))
	}
	return m.data[r*m.cols+c]
}

func (m *RealMatrix) Set(r, c int, v float64) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfRange, r, c, m.rows, m.cols))
	}
	m.data[r*m.cols+c] = v
}

func (m *RealMatrix) Add(r, c int, v float64) {
	m.data[r*m.cols+c] += v
}

// Clone returns an independent copy of m.
func (m *RealMatrix) Clone() *RealMatrix {
	out := &RealMatrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}

// SolveReal solves A*x = b via Gaussian elimination with partial
// pivoting and returns x. A is consumed through an internal working
// copy; the caller's matrix is left untouched. Returns ErrSingular
// (wrapping the offending pivot row) when no usable pivot remains
// within tolerance, which callers surface as a solver's
// cause=singular_jacobian.
func SolveReal(a *RealMatrix, b []float64) ([]float64, error) {
	if a.rows != a.cols {
		return nil, fmt.Errorf("%w: %dx%d", ErrNonSquare, a.rows, a.cols)
	}
	n := a.rows
	if len(b) != n {
		return nil, fmt.Errorf("%w: rhs length %d vs %d", ErrDimensionMismatch, len(b), n)
	}

	aug := a.Clone()
	x := make([]float64, n)
	copy(x, b)

	const tiny = 1e-13
	for k := 0; k < n; k++ {
		// Partial pivot: find the largest-magnitude entry in column k at or below row k.
		pivotRow := k
		best := abs(aug.At(k, k))
		for i := k + 1; i < n; i++ {
			if v := abs(aug.At(i, k)); v > best {
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

	// Back substitution.
	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for j := i + 1; j < n; j++ {
			sum -= aug.At(i, j) * x[j]
		}
		x[i] = sum / aug.At(i, i)
	}
	return x, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
