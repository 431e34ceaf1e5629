// Package powerflow implements the Newton-Raphson and Fast-Decoupled
// XB/BX power-flow solvers sharing one Input/Solution contract: preflight validation,
// slack-island restriction, per-unit Y-bus assembly via the ybus
// package, PV→PQ bus-type switching on reactive-power-limit violation,
// and a minimal-or-full iteration trace keyed by node id in lexical
// order throughout.
//
// The dense linear-algebra core (Jacobian / B' / B'' solves) reuses
// numeric.SolveReal's partial-pivoting Gaussian elimination.
package powerflow
