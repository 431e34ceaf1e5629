package numeric_test

import (
	"testing"

	"github.com/radekizk-sketch/mvgrid-core/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveReal_IdentitySystem(t *testing.T) {
	a, err := numeric.NewRealMatrix(2, 2)
	require.NoError(t, err)
	a.Set(0, 0, 1)
	a.Set(1, 1, 1)
	x, err := numeric.SolveReal(a, []float64{3, 4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 4}, x, 1e-12)
}

func TestSolveReal_GeneralSystem(t *testing.T) {
	// [2 1; 1 3] x = [3 5] has solution x = [0.8, 1.4]
	a, err := numeric.NewRealMatrix(2, 2)
	require.NoError(t, err)
	a.Set(0, 0, 2)
	a.Set(0, 1, 1)
	a.Set(1, 0, 1)
	a.Set(1, 1, 3)
	x, err := numeric.SolveReal(a, []float64{3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, x[0], 1e-9)
	assert.InDelta(t, 1.4, x[1], 1e-9)
}

func TestSolveReal_SingularMatrixRejected(t *testing.T) {
	a, err := numeric.NewRealMatrix(2, 2)
	require.NoError(t, err)
	a.Set(0, 0, 1)
	a.Set(0, 1, 2)
	a.Set(1, 0, 2)
	a.Set(1, 1, 4) // row2 = 2*row1
	_, err = numeric.SolveReal(a, []float64{1, 2})
	require.ErrorIs(t, err, numeric.ErrSingular)
}

func TestSolveReal_NonSquareRejected(t *testing.T) {
	a, err := numeric.NewRealMatrix(2, 3)
	require.NoError(t, err)
	_, err = numeric.SolveReal(a, []float64{1, 2})
	require.ErrorIs(t, err, numeric.ErrNonSquare)
}

func TestRealMatrix_CloneIsIndependent(t *testing.T) {
	a, err := numeric.NewRealMatrix(1, 1)
	require.NoError(t, err)
	a.Set(0, 0, 5)
	clone := a.Clone()
	clone.Set(0, 0, 99)
	assert.Equal(t, 5.0, a.At(0, 0))
}

func TestComplexMatrix_IsSymmetric(t *testing.T) {
	m, err := numeric.NewComplexMatrix(2, 2)
	require.NoError(t, err)
	m.Set(0, 0, complex(1, 0))
	m.Set(0, 1, complex(0, -1))
	m.Set(1, 0, complex(0, -1))
	m.Set(1, 1, complex(2, 0))
	assert.True(t, m.IsSymmetric(1e-9))

	m.Set(1, 0, complex(0, -2))
	assert.False(t, m.IsSymmetric(1e-9))
}

func TestSolveComplex_DiagonalSystem(t *testing.T) {
	m, err := numeric.NewComplexMatrix(2, 2)
	require.NoError(t, err)
	m.Set(0, 0, complex(0, 2))
	m.Set(1, 1, complex(0, 4))
	x, err := numeric.SolveComplex(m, []complex128{complex(0, 2), complex(0, 8)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, real(x[0]), 1e-9)
	assert.InDelta(t, 0.0, imag(x[0]), 1e-9)
	assert.InDelta(t, 2.0, real(x[1]), 1e-9)
}

func TestInvertColumn_MatchesDirectSolve(t *testing.T) {
	m, err := numeric.NewComplexMatrix(2, 2)
	require.NoError(t, err)
	m.Set(0, 0, complex(2, 0))
	m.Set(0, 1, complex(0, 0))
	m.Set(1, 0, complex(0, 0))
	m.Set(1, 1, complex(0, 4))

	z, err := numeric.InvertColumn(m, 1)
	require.NoError(t, err)
	expected, err := numeric.SolveComplex(m, []complex128{0, 1})
	require.NoError(t, err)
	assert.Equal(t, expected, z)
}

func TestInvertColumn_OutOfRangeRejected(t *testing.T) {
	m, err := numeric.NewComplexMatrix(2, 2)
	require.NoError(t, err)
	_, err = numeric.InvertColumn(m, 5)
	require.ErrorIs(t, err, numeric.ErrOutOfRange)
}
