// Package ybus builds the per-unit nodal admittance matrix for an
// island of a *topology.Graph: series and shunt admittance
// for lines/cables/transformers, the off-nominal tap-ratio model, the
// per-unit conversion, shunt overlays, and an audit trace recording
// every applied tap and shunt.
//
// Every tap and shunt adjustment is recorded in the returned audit
// trace: an overlay is never applied silently.
package ybus
