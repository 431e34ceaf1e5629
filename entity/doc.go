// Package entity defines the primitive, validated value objects of a
// medium-voltage network model: buses (Node), two-terminal impedance
// elements (Branch: line, cable, transformer), zero-impedance topology
// elements (Switch), inverter-based fault sources (InverterSource), and
// the Load/Generator power injections attached to a bus.
//
// Every type here is a pure value object: construction never mutates
// shared state, and Validate reports every invariant violation without
// panicking. Higher layers (topology, snapshot, action) own identity,
// referential integrity, and lifecycle; this package owns correctness
// of a single entity in isolation.
package entity
