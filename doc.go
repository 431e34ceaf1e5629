// Package mvgridcore is the deterministic network analysis engine for
// a medium-voltage (MV) electrical network design tool: an immutable,
// hashable snapshot graph, a readiness/validation rule engine, a
// per-unit admittance-matrix builder, Newton-Raphson and Fast-Decoupled
// power-flow solvers, and an IEC 60909 short-circuit solver, all with
// full white-box traceability and bitwise-deterministic output.
//
// The engine is organized leaves-first:
//
//	entity/       primitive value objects (Node, Branch, Switch, ...)
//	topology/     the NetworkGraph container and its invariants
//	snapshot/     immutable snapshots, canonical JSON, SHA-256 hashing
//	action/       typed action envelopes, copy-on-write apply, batches
//	readiness/    the validation rule engine and analysis availability
//	numeric/      dense real/complex matrices and linear solves
//	ybus/         the per-unit admittance matrix builder
//	powerflow/    Newton-Raphson and Fast-Decoupled solvers
//	shortcircuit/ the IEC 60909 symmetrical-component fault solver
//	fixtures/     synthetic network builders for tests
//	config/       YAML-loaded solver default profiles
//	obslog/       structured logging helpers
//	metrics/      optional Prometheus instrumentation
//
// This package holds no code of its own; it exists to document the
// module as a whole. See each subpackage's own doc comment for its API.
package mvgridcore
