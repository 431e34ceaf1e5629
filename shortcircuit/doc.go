// Package shortcircuit implements IEC 60909-style initial symmetrical
// short-circuit current calculations for three-phase,
// single-phase-to-ground, phase-to-phase, and phase-to-phase-to-ground
// faults, built on the same per-unit admittance assembly the ybus
// package uses for power flow: a virtual-ground Thevenin source
// impedance is inserted at the slack bus of each sequence network, and
// the fault-bus driving-point impedance is obtained via
// numeric.InvertColumn rather than a full matrix inverse.
package shortcircuit
