package powerflow_test

import (
	"testing"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/powerflow"
	"github.com/radekizk-sketch/mvgrid-core/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

// buildTwoBusLineGraph is the canonical two-bus feeder: slack A at 1.0∠0,
// base 10 MVA, line R=0.4 Ω/km X=0.8 Ω/km B=3 µS/km L=1km I_rated=300A,
// PQ bus B.
func buildTwoBusLineGraph(t *testing.T, pMW, qMvar float64) *topology.Graph {
	t.Helper()
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(pMW), ReactivePowerMvar: f(qMvar), InService: true}))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line,
		ROhmPerKm:    0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))
	return g
}

func baseInput(g *topology.Graph) powerflow.Input {
	return powerflow.Input{
		Graph:   g,
		BaseMVA: 10,
		Slack:   powerflow.SlackSpec{NodeID: "A", UPU: 1.0, AngleRad: 0},
		PQ:      []powerflow.PQSpec{{NodeID: "B", PMW: 2, QMvar: 1}},
		Options: powerflow.Options{Tolerance: 1e-6},
	}
}

// Two-bus load drop: the loaded bus must sag below the slack.
func TestSolveNewton_TwoBusLoadDrop(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	sol, err := powerflow.SolveNewton(baseInput(g))
	require.NoError(t, err)
	require.True(t, sol.Converged)
	assert.Less(t, sol.VPU["B"], sol.VPU["A"])
}

func TestSolveFastDecoupled_TwoBusLoadDropAgreesWithNewton(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	newton, err := powerflow.SolveNewton(baseInput(g))
	require.NoError(t, err)
	require.True(t, newton.Converged)

	fd, err := powerflow.SolveFastDecoupled(baseInput(g), powerflow.FastDecoupledOptions{
		Options: powerflow.Options{Tolerance: 1e-6, MaxIter: 50},
		Method:  "BX",
	})
	require.NoError(t, err)
	require.True(t, fd.Converged)

	assert.InDelta(t, newton.VPU["B"], fd.VPU["B"], 1e-3)
	assert.InDelta(t, newton.ThetaRad["B"], fd.ThetaRad["B"], 1e-3)
}

// No-load case on the two-bus feeder without line charging: the
// profile stays flat at 1 pu. (With the helper's 3 µS/km charging the
// no-load voltage at B rises by about 1.2e-6 pu.)
func TestSolveNewton_NoLoadFlatProfile(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(0), ReactivePowerMvar: f(0), InService: true}))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line,
		ROhmPerKm:    0.4, XOhmPerKm: 0.8, LengthKm: 1, RatedCurrentA: 300,
	}, false))
	in := baseInput(g)
	in.PQ = []powerflow.PQSpec{{NodeID: "B", PMW: 0, QMvar: 0}}

	newton, err := powerflow.SolveNewton(in)
	require.NoError(t, err)
	require.True(t, newton.Converged)
	assert.InDelta(t, 1.0, newton.VPU["A"], 1e-6)
	assert.InDelta(t, 1.0, newton.VPU["B"], 1e-6)
	assert.GreaterOrEqual(t, newton.Iterations, 1)

	fd, err := powerflow.SolveFastDecoupled(in, powerflow.FastDecoupledOptions{
		Options: powerflow.Options{Tolerance: 1e-6, MaxIter: 50},
		Method:  "XB",
	})
	require.NoError(t, err)
	require.True(t, fd.Converged)
	assert.InDelta(t, 1.0, fd.VPU["A"], 1e-6)
	assert.InDelta(t, 1.0, fd.VPU["B"], 1e-6)
}

// Three-bus radial A(slack) - B - C: voltage falls monotonically
// along the feeder.
func TestSolveNewton_ThreeBusRadialVoltageOrdering(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(1), ReactivePowerMvar: f(0.5), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "C", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(0.8), ReactivePowerMvar: f(0.3), InService: true}))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L2", FromNodeID: "B", ToNodeID: "C", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))

	in := powerflow.Input{
		Graph:   g,
		BaseMVA: 10,
		Slack:   powerflow.SlackSpec{NodeID: "A", UPU: 1.0, AngleRad: 0},
		PQ: []powerflow.PQSpec{
			{NodeID: "B", PMW: 1, QMvar: 0.5},
			{NodeID: "C", PMW: 0.8, QMvar: 0.3},
		},
		Options: powerflow.Options{Tolerance: 1e-6},
	}

	newton, err := powerflow.SolveNewton(in)
	require.NoError(t, err)
	require.True(t, newton.Converged)
	assert.Greater(t, newton.VPU["A"], newton.VPU["B"])
	assert.Greater(t, newton.VPU["B"], newton.VPU["C"])

	fd, err := powerflow.SolveFastDecoupled(in, powerflow.FastDecoupledOptions{
		Options: powerflow.Options{Tolerance: 1e-6, MaxIter: 50},
		Method:  "BX",
	})
	require.NoError(t, err)
	require.True(t, fd.Converged)
	assert.Greater(t, fd.VPU["A"], fd.VPU["B"])
	assert.Greater(t, fd.VPU["B"], fd.VPU["C"])
}

// A PV bus whose setpoint demands more reactive power than its limit
// allows must convert to PQ.
func TestSolveNewton_PVQLimitSwitch(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PV, VoltageLevelKV: 20, ActivePowerMW: f(0.5), VoltageMagnitudePU: f(1.05), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "C", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(2.5), ReactivePowerMvar: f(1.2), InService: true}))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L2", FromNodeID: "B", ToNodeID: "C", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))

	in := powerflow.Input{
		Graph:   g,
		BaseMVA: 10,
		Slack:   powerflow.SlackSpec{NodeID: "A", UPU: 1.0, AngleRad: 0},
		PV:      []powerflow.PVSpec{{NodeID: "B", PMW: 0.5, UPU: 1.05, QMinMvar: -0.1, QMaxMvar: 0.1}},
		PQ:      []powerflow.PQSpec{{NodeID: "C", PMW: 2.5, QMvar: 1.2}},
		Options: powerflow.Options{Tolerance: 1e-6, MaxIter: 50},
	}

	sol, err := powerflow.SolveNewton(in)
	require.NoError(t, err)
	require.True(t, sol.Converged)
	require.NotEmpty(t, sol.PVSwitchEvents)
	assert.Equal(t, "B", sol.PVSwitchEvents[0].NodeID)
}

// Two solves on identical input must produce identical traces.
func TestSolveNewton_TraceIsByteIdenticalAcrossRuns(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	in := baseInput(g)
	in.Options.TraceLevel = powerflow.TraceFull

	first, err := powerflow.SolveNewton(in)
	require.NoError(t, err)
	second, err := powerflow.SolveNewton(in)
	require.NoError(t, err)

	require.Equal(t, len(first.Trace), len(second.Trace))
	for i := range first.Trace {
		assert.Equal(t, first.Trace[i], second.Trace[i])
	}
}

// Determinism invariant: permuting PQ/PV list order does not change the result.
func TestSolveNewton_PermutingPQOrderDoesNotChangeResult(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(1), ReactivePowerMvar: f(0.5), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "C", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(0.8), ReactivePowerMvar: f(0.3), InService: true}))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L2", FromNodeID: "A", ToNodeID: "C", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))

	order1 := powerflow.Input{
		Graph: g, BaseMVA: 10,
		Slack: powerflow.SlackSpec{NodeID: "A", UPU: 1, AngleRad: 0},
		PQ: []powerflow.PQSpec{
			{NodeID: "B", PMW: 1, QMvar: 0.5},
			{NodeID: "C", PMW: 0.8, QMvar: 0.3},
		},
		Options: powerflow.Options{Tolerance: 1e-6},
	}
	order2 := order1
	order2.PQ = []powerflow.PQSpec{
		{NodeID: "C", PMW: 0.8, QMvar: 0.3},
		{NodeID: "B", PMW: 1, QMvar: 0.5},
	}

	sol1, err := powerflow.SolveNewton(order1)
	require.NoError(t, err)
	sol2, err := powerflow.SolveNewton(order2)
	require.NoError(t, err)

	assert.Equal(t, sol1.Converged, sol2.Converged)
	assert.Equal(t, sol1.Iterations, sol2.Iterations)
	assert.InDelta(t, sol1.MaxMismatchPU, sol2.MaxMismatchPU, 1e-12)
	for id, v := range sol1.VPU {
		assert.InDelta(t, v, sol2.VPU[id], 1e-12)
	}
}

// Newton consistency: max_mismatch_pu < tolerance iff converged.
func TestSolveNewton_ConvergedIffBelowTolerance(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	in := baseInput(g)
	sol, err := powerflow.SolveNewton(in)
	require.NoError(t, err)
	assert.Equal(t, sol.MaxMismatchPU < in.Options.Tolerance, sol.Converged)
}

func TestPreflight_RejectsSlackAlsoPQ(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	in := baseInput(g)
	in.PQ = append(in.PQ, powerflow.PQSpec{NodeID: "A", PMW: 0, QMvar: 0})
	errs := powerflow.Preflight(in)
	require.NotEmpty(t, errs)
}

func TestPreflight_RejectsNonPositiveBaseMVA(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	in := baseInput(g)
	in.BaseMVA = 0
	errs := powerflow.Preflight(in)
	require.NotEmpty(t, errs)
}

func threeBusInput(t *testing.T) powerflow.Input {
	t.Helper()
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(1), ReactivePowerMvar: f(0.5), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "C", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(0.8), ReactivePowerMvar: f(0.3), InService: true}))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L2", FromNodeID: "B", ToNodeID: "C", InService: true},
		BranchKind:   entity.Line, ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))
	return powerflow.Input{
		Graph:   g,
		BaseMVA: 10,
		Slack:   powerflow.SlackSpec{NodeID: "A", UPU: 1.0, AngleRad: 0},
		PQ: []powerflow.PQSpec{
			{NodeID: "B", PMW: 1, QMvar: 0.5},
			{NodeID: "C", PMW: 0.8, QMvar: 0.3},
		},
		Options: powerflow.Options{Tolerance: 1e-6},
	}
}

func TestSolveFastDecoupled_XBAndBXAgreeWithNewton(t *testing.T) {
	in := threeBusInput(t)
	newton, err := powerflow.SolveNewton(in)
	require.NoError(t, err)
	require.True(t, newton.Converged)

	for _, method := range []string{"XB", "BX"} {
		fd, err := powerflow.SolveFastDecoupled(in, powerflow.FastDecoupledOptions{
			Options: powerflow.Options{Tolerance: 1e-6, MaxIter: 50},
			Method:  method,
		})
		require.NoError(t, err, method)
		require.True(t, fd.Converged, method)
		assert.Equal(t, "fast-decoupled", fd.SolverMethod)
		assert.Equal(t, method, fd.Trace[0].AppliedMethod)
		for _, id := range []string{"B", "C"} {
			assert.InDelta(t, newton.VPU[id], fd.VPU[id], 1e-3, "%s voltage at %s", method, id)
			assert.InDelta(t, newton.ThetaRad[id], fd.ThetaRad[id], 1e-3, "%s angle at %s", method, id)
		}
	}
}

func TestSolveNewton_SolutionCarriesAuditFields(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	sol, err := powerflow.SolveNewton(baseInput(g))
	require.NoError(t, err)
	require.True(t, sol.Converged)

	assert.Equal(t, "newton-raphson", sol.SolverMethod)
	assert.Greater(t, sol.SlackPPU, 0.0, "slack must supply the load plus losses")
	assert.Equal(t, "mvgrid-core/ybus", sol.YbusTrace.Source)
	assert.Equal(t, 2, sol.YbusTrace.N)
	assert.Empty(t, sol.YbusTrace.Note)

	require.Contains(t, sol.InitState, "B")
	assert.InDelta(t, 1.0, sol.InitState["B"].VPU, 1e-12, "flat-equivalent start at an unset PQ bus")

	require.Contains(t, sol.BranchFlows, "L1")
	assert.Greater(t, sol.BranchFlows["L1"].CurrentPU, 0.0)
	assert.Greater(t, sol.BranchFlows["L1"].SFromMW, 0.0)
	assert.Less(t, sol.BranchFlows["L1"].SToMW, 0.0)
}

func TestSolveNewton_WarmStartMatchesFlatStartSolution(t *testing.T) {
	// Stamp a deliberately poor stored state on B; a warm start must
	// begin from it (visible in InitState) and still converge to the
	// same operating point a flat start finds.
	g := buildTwoBusLineGraph(t, 2, 1)
	gWarm := g.Clone()
	require.NoError(t, gWarm.RemoveBranch("L1"))
	require.NoError(t, gWarm.RemoveNode("B"))
	require.NoError(t, gWarm.AddNode(entity.Node{
		ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20,
		ActivePowerMW: f(2), ReactivePowerMvar: f(1),
		VoltageMagnitudePU: f(0.97), VoltageAngleRad: f(-0.01),
		InService: true,
	}))
	require.NoError(t, gWarm.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line,
		ROhmPerKm:    0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}, false))

	flatIn := baseInput(g)
	flatIn.Options.FlatStart = true
	flat, err := powerflow.SolveNewton(flatIn)
	require.NoError(t, err)
	require.True(t, flat.Converged)

	warmIn := baseInput(gWarm)
	warm, err := powerflow.SolveNewton(warmIn)
	require.NoError(t, err)
	require.True(t, warm.Converged)

	assert.InDelta(t, 0.97, warm.InitState["B"].VPU, 1e-12)
	assert.InDelta(t, -0.01, warm.InitState["B"].ThetaRad, 1e-12)
	assert.InDelta(t, flat.VPU["B"], warm.VPU["B"], 1e-6)
	assert.InDelta(t, flat.ThetaRad["B"], warm.ThetaRad["B"], 1e-6)
}

func TestPreflightWarnings_SlackVoltageOutOfBand(t *testing.T) {
	g := buildTwoBusLineGraph(t, 2, 1)
	in := baseInput(g)
	assert.Empty(t, powerflow.PreflightWarnings(in))

	in.Slack.UPU = 1.3
	warnings := powerflow.PreflightWarnings(in)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "slack.u_pu")
}
