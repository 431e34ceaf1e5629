package numeric

import "errors"

var (
	// ErrBadShape is returned when a requested matrix shape is non-positive.
	ErrBadShape = errors.New("numeric: invalid shape")
	// ErrDimensionMismatch is returned when operand shapes are incompatible.
	ErrDimensionMismatch = errors.New("numeric: dimension mismatch")
	// ErrNonSquare is returned when a square matrix was required.
	ErrNonSquare = errors.New("numeric: matrix is not square")
	// ErrSingular is returned when elimination finds no pivot whose
	// magnitude reaches the fixed 1e-13 threshold.
	ErrSingular = errors.New("numeric: singular matrix")
	// ErrOutOfRange is returned by InvertColumn for an out-of-bounds
	// column; At/Set panic with it wrapped for an out-of-bounds index.
	ErrOutOfRange = errors.New("numeric: index out of range")
)
