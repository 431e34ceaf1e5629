package powerflow

import (
	"github.com/radekizk-sketch/mvgrid-core/metrics"
	"github.com/radekizk-sketch/mvgrid-core/obslog"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

// TraceLevel selects how much per-iteration detail Solve* records.
type TraceLevel string

const (
	TraceMinimal TraceLevel = "minimal"
	TraceFull    TraceLevel = "full"
)

// SlackSpec fixes the reference bus's voltage magnitude and angle.
type SlackSpec struct {
	NodeID   string
	UPU      float64
	AngleRad float64
}

// PQSpec is a load specification: P and Q are consumed (sink), so the
// solver injects them as negative power.
type PQSpec struct {
	NodeID string
	PMW    float64
	QMvar  float64
}

// PVSpec is a generation specification: P is injected as specified, V
// is held at UPU until Q leaves [QMinMvar, QMaxMvar], at which point
// the bus is converted to PQ with Q frozen at the violated limit.
type PVSpec struct {
	NodeID    string
	PMW       float64
	UPU       float64
	QMinMvar  float64
	QMaxMvar  float64
}

// BusLimit is an informational voltage/reactive-power band. Preflight
// checks that its bounds are ordered; the solution is not checked
// against it, and it does not drive PV->PQ switching (PVSpec's own
// limits do that).
type BusLimit struct {
	NodeID   string
	QMinMvar float64
	QMaxMvar float64
	UMin     float64
	UMax     float64
}

// BranchLimit names a thermal loading limit. Preflight checks that the
// branch exists; the post-solve branch flows are not checked against it.
type BranchLimit struct {
	BranchID          string
	MaxLoadingPercent float64
}

// Options configures one solver run.
type Options struct {
	MaxIter   int
	Tolerance float64
	Damping   float64
	FlatStart bool

	TraceLevel TraceLevel
}

// FastDecoupledOptions extends Options with the XB/BX-specific knobs.
type FastDecoupledOptions struct {
	Options

	Method               string // "XB" or "BX"
	AngleDamping         float64
	VoltageDamping       float64
	RebuildMatricesEvery int // 0 disables periodic refactoring; a PV->PQ conversion still rebuilds
}

// Input is the common input contract for both solvers.
type Input struct {
	Graph   *topology.Graph
	BaseMVA float64
	Slack   SlackSpec
	PQ      []PQSpec
	PV      []PVSpec

	Shunts []ShuntSpec
	Taps   map[string]float64

	BusLimits    []BusLimit
	BranchLimits []BranchLimit

	Options Options

	// Log and Metrics are purely observational: a zero-value
	// Log (obslog.Nop()) and a nil Metrics skip instrumentation
	// entirely and never change a solve's numerical result or trace.
	Log     obslog.Logger
	Metrics metrics.Sink
}

// ShuntSpec mirrors ybus.ShuntSpec; redeclared here so Input does not
// force every caller to import the ybus package directly.
type ShuntSpec struct {
	NodeID string
	GPU    float64
	BPU    float64
}

// PVSwitchEvent records one PV->PQ conversion.
type PVSwitchEvent struct {
	Iter       int
	NodeID     string
	QCalcMvar  float64
	LimitMvar  float64
	Direction  string // "above_max" or "below_min"
}

// JacobianBlocks is the full-trace serialization of the 4-block
// Newton-Raphson Jacobian.
type JacobianBlocks struct {
	DPDTheta [][]float64
	DPDV     [][]float64
	DQDTheta [][]float64
	DQDV     [][]float64
}

// StateEntry is one node's voltage state.
type StateEntry struct {
	VPU      float64
	ThetaRad float64
}

// DeltaStateEntry is one node's Newton step.
type DeltaStateEntry struct {
	DTheta float64
	DV     float64
}

// TraceEntry is one solver iteration's record. Both trace levels
// populate the scalar fields of the first two blocks (Newton-Raphson
// leaves AppliedMethod and the two dampings zero; fast-decoupled leaves
// StepNorm and DampingUsed zero); full trace additionally populates the
// per-bus maps, and for Newton-Raphson the Jacobian. The converging
// iteration's entry takes no step, so its StepNorm, Jacobian,
// DeltaState and StateNext stay unset.
type TraceEntry struct {
	Iter                     int
	MaxMismatchPU            float64
	MismatchNorm             float64
	StepNorm                 float64
	DampingUsed              float64
	PVToPQSwitchesThisIter   int
	Cause                    string

	SolverMethod   string
	AppliedMethod  string // "XB" or "BX", fast-decoupled only
	AngleDamping   float64
	VoltageDamping float64

	DeltaPPU       map[string]float64
	DeltaQPU       map[string]float64
	Jacobian       *JacobianBlocks
	DeltaState     map[string]DeltaStateEntry
	StateNext      map[string]StateEntry
}

// BranchFlow is the post-solve power flow at each end of a branch,
// plus the sending-end current magnitude in per-unit.
type BranchFlow struct {
	SFromMW    float64
	SFromMvar  float64
	SToMW      float64
	SToMvar    float64
	CurrentPU  float64
}

// YbusTrace mirrors the audit block the admittance-matrix builder
// attaches to its output, so a Solution carries the provenance of the
// matrix it was solved against without the caller re-running ybus.
type YbusTrace struct {
	Source string
	N      int
	Note   string
}

// Solution is the common solver output.
type Solution struct {
	Converged     bool
	Iterations    int
	MaxMismatchPU float64
	Cause         string

	SlackIsland []string
	NotSolved   []string

	VPU      map[string]float64
	ThetaRad map[string]float64

	// InitState is the starting point the iteration ran from (flat or
	// warm), keyed by node id.
	InitState map[string]StateEntry

	// SlackPPU/SlackQPU is the power balance absorbed by the slack bus
	// in per-unit, computed from the final state.
	SlackPPU float64
	SlackQPU float64

	YbusTrace YbusTrace

	PVSwitchEvents []PVSwitchEvent
	Trace          []TraceEntry

	BranchFlowsSkipped bool
	BranchFlows        map[string]BranchFlow
	LossesTotalMW      float64
	LossesTotalMvar    float64

	SolverMethod string
}
