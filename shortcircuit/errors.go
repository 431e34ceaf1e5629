package shortcircuit

import "errors"

var (
	ErrUnknownFaultType    = errors.New("shortcircuit: unknown fault_type")
	ErrFaultNodeNotFound   = errors.New("shortcircuit: fault node not in graph")
	ErrFaultBranchNotFound = errors.New("shortcircuit: fault branch not in graph")
	ErrEmptyIsland         = errors.New("shortcircuit: fault island has no nodes")
)

// Sentinel cause strings for Result.Cause.
const (
	CauseOK                       = ""
	CauseSequenceDataMissing      = "sequence_data_missing"
	CauseFaultIslandWithoutSource = "fault_island_without_source"
)
