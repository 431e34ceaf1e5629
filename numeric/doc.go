// Package numeric provides the small set of dense linear-algebra
// primitives the power-flow and short-circuit solvers need: a real
// dense matrix with Gaussian-elimination solve (the Newton-Raphson
// Jacobian), and a complex dense matrix with the same solve plus
// column-by-column inversion (the Y-bus and IEC 60909 sequence
// matrices).
//
// Both element types share the same shape: row-major storage,
// elimination with partial pivoting for numerical stability on
// ill-conditioned networks, and back substitution; the complex matrix
// adds column-by-column inversion for driving-point impedances.
package numeric
