package shortcircuit

import "github.com/radekizk-sketch/mvgrid-core/topology"

// FaultType selects the symmetrical-component combination rule applied
// at the fault bus.
type FaultType string

const (
	ThreePhase        FaultType = "3F"
	SinglePhaseGround FaultType = "1F-G"
	TwoPhase          FaultType = "2F"
	TwoPhaseGround    FaultType = "2F-G"
)

// DefaultVoltageFactor is IEC 60909's "c" factor for maximum
// short-circuit current calculations in medium-voltage networks,
// applied whenever Input.CFactor is left at zero.
const DefaultVoltageFactor = 1.1

// Input is everything Solve needs for one fault calculation.
type Input struct {
	Graph   *topology.Graph
	BaseMVA float64

	// FaultNodeID names the fault bus directly. Alternatively
	// FaultBranchID plus PositionPercent places the fault along a
	// branch, resolved to the nearest endpoint: the from side when
	// PositionPercent <= 50, the to side otherwise. FaultNodeID wins
	// when both are set.
	FaultNodeID     string
	FaultBranchID   string
	PositionPercent float64

	FaultType FaultType

	// CFactor is the IEC 60909 voltage factor c; zero selects
	// DefaultVoltageFactor.
	CFactor float64

	Taps map[string]float64

	// IncludeBranchContributions requests the per-branch fault-current
	// split (Result.BranchContributionsKA), computed from the
	// positive-sequence post-fault voltage profile.
	IncludeBranchContributions bool

	// TkS and TbS are the fault duration and breaker opening time;
	// neither currently perturbs the computation since no
	// rotating-machine sub-transient decay is modeled (entity.Generator
	// carries no sub-transient reactance), but both are accepted so
	// callers can record them against the result without a breaking
	// signature change once decay modeling is added.
	TkS float64
	TbS float64

	// InverterSources contributing to the fault current are read
	// directly from Graph via GetInverterSourcesAtNode for every bus in
	// the fault island; no separate list is needed here.
}

// Result is the outcome of one fault calculation.
type Result struct {
	FaultType   FaultType
	FaultNodeID string
	Cause       string

	// MissingElements names the branches lacking zero-sequence data
	// when Cause is sequence_data_missing.
	MissingElements []string

	CFactor float64

	IkPrimeKA  float64 // initial symmetrical short-circuit current
	IkPeakKA   float64 // peak (asymmetrical) short-circuit current
	IbKA       float64 // breaking current
	IkSteadyKA float64 // steady-state current
	Kappa      float64

	ZPositiveOhm complex128
	ZNegativeOhm complex128
	ZZeroOhm     complex128

	InverterContributionKA float64

	// BranchContributionsKA is populated only when
	// Input.IncludeBranchContributions is set: sending-end current
	// magnitude per in-service island branch during the fault, keyed by
	// branch id.
	BranchContributionsKA map[string]float64
}
