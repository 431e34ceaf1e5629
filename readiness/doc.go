// Package readiness implements the severity-ranked network validator:
// a deterministic rule engine that walks a *topology.Graph and
// produces a ValidationReport plus an analysis-availability matrix
// (short_circuit_3ph, short_circuit_1ph, load_flow).
//
// Issues carry a BLOCKER/IMPORTANT/INFO severity; the report is sorted
// by (severity rank, code, first element ref) and deduplicated, so two
// runs over the same graph are byte-identical. Availability of each
// analysis is derived from the surviving issues: any BLOCKER disables
// everything, missing zero-sequence data disables the ground-fault
// calculations, and power flow needs at least one load or generator.
package readiness
