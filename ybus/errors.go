package ybus

import "errors"

var (
	// ErrEmptyIsland is returned when the requested island has no nodes.
	ErrEmptyIsland = errors.New("ybus: island has no nodes")
	// ErrUnknownIslandNode is returned when an island id is not present
	// in the graph.
	ErrUnknownIslandNode = errors.New("ybus: island node not in graph")
	// ErrTapOnNonTransformer is returned when the tap overlay map names
	// a branch that is not a transformer.
	ErrTapOnNonTransformer = errors.New("ybus: tap overlay refers to a non-transformer branch")
	// ErrShuntUnknownNode is returned when a shunt spec names a node
	// outside the island.
	ErrShuntUnknownNode = errors.New("ybus: shunt refers to a node outside the island")
)
