package topology_test

import (
	"testing"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func slackNode(id string) entity.Node {
	return entity.Node{ID: id, NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0), InService: true}
}

func pqNode(id string) entity.Node {
	return entity.Node{ID: id, NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(1), ReactivePowerMvar: f(0.5), InService: true}
}

func line(id, from, to string) *entity.LineBranch {
	return &entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: id, FromNodeID: from, ToNodeID: to, InService: true},
		BranchKind:   entity.Line,
		ROhmPerKm:    0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}
}

func TestAddNode_DuplicateRejected(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.ErrorIs(t, g.AddNode(slackNode("A")), topology.ErrDuplicateID)
}

func TestAddNode_SecondSlackRejected(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.ErrorIs(t, g.AddNode(slackNode("B")), topology.ErrMultipleSlack)
}

func TestAddBranch_UnknownEndpointRejected(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.ErrorIs(t, g.AddBranch(line("L1", "A", "B"), false), topology.ErrUnknownEndpoint)
}

func TestAddBranch_ParallelRejectedByDefault(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.NoError(t, g.AddNode(pqNode("B")))
	require.NoError(t, g.AddBranch(line("L1", "A", "B"), false))
	require.ErrorIs(t, g.AddBranch(line("L2", "A", "B"), false), topology.ErrParallelEdge)
}

func TestAddBranch_PermissiveSwitchExempt(t *testing.T) {
	g := topology.NewGraph(topology.WithParallelEdgePolicy(topology.PermissiveSwitchExempt))
	require.NoError(t, g.AddNode(slackNode("A")))
	require.NoError(t, g.AddNode(pqNode("B")))
	require.NoError(t, g.AddBranch(line("L1", "A", "B"), false))
	sw := entity.Switch{
		ID: "S1", FromNodeID: "A", ToNodeID: "B", SwitchType: entity.Breaker, State: entity.Closed,
		InService: true, RatedCurrentA: 300, RatedVoltageKV: 20,
	}
	assert.NoError(t, g.AddSwitch(sw))

	// A second impedance branch is still rejected: only switch-vs-branch
	// pairings are exempt, not branch-vs-branch.
	require.ErrorIs(t, g.AddBranch(line("L2", "A", "B"), false), topology.ErrParallelEdge)
}

func TestAddBranch_EnforceConnectedRollsBackOnDisconnect(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.NoError(t, g.AddNode(pqNode("B")))
	require.NoError(t, g.AddBranch(line("L1", "A", "B"), true))

	// C is isolated: adding a branch between A and C connects
	// everything, so this succeeds...
	require.NoError(t, g.AddNode(pqNode("C")))
	require.NoError(t, g.AddBranch(line("L2", "A", "C"), true))
	assert.True(t, g.IsConnected(true))

	// ...but with an isolated node D present, a branch that does not
	// reach D leaves the graph disconnected and must be rolled back.
	require.NoError(t, g.AddNode(pqNode("D")))
	err := g.AddBranch(line("L3", "B", "C"), true)
	require.ErrorIs(t, err, topology.ErrWouldDisconnect)
	_, getErr := g.GetBranch("L3")
	assert.Error(t, getErr, "rolled-back branch must not be retrievable")
}

func TestRemoveNode_FailsWhileReferenced(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.NoError(t, g.AddNode(pqNode("B")))
	require.NoError(t, g.AddBranch(line("L1", "A", "B"), false))
	require.ErrorIs(t, g.RemoveNode("A"), topology.ErrNodeInUse)
}

func TestFindIslands_DeterministicOrder(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.NoError(t, g.AddNode(pqNode("B")))
	require.NoError(t, g.AddNode(pqNode("C")))
	require.NoError(t, g.AddNode(pqNode("D")))
	require.NoError(t, g.AddBranch(line("L1", "A", "B"), false))
	require.NoError(t, g.AddBranch(line("L2", "C", "D"), false))

	islands := g.FindIslands(true)
	require.Len(t, islands, 2)
	// Both islands have size 2; secondary lexical order applies.
	assert.Equal(t, []string{"A", "B"}, islands[0])
	assert.Equal(t, []string{"C", "D"}, islands[1])
}

func TestClone_IsIndependentOfParent(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.NoError(t, g.AddNode(pqNode("B")))
	require.NoError(t, g.AddBranch(line("L1", "A", "B"), false))

	clone := g.Clone()
	require.NoError(t, clone.SetBranchInService("L1", false))

	orig, err := g.GetBranch("L1")
	require.NoError(t, err)
	assert.True(t, orig.Common().InService, "mutating the clone must not affect the parent")

	cl, err := clone.GetBranch("L1")
	require.NoError(t, err)
	assert.False(t, cl.Common().InService)
}

func TestHasCycle(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("A")))
	require.NoError(t, g.AddNode(pqNode("B")))
	require.NoError(t, g.AddNode(pqNode("C")))
	require.NoError(t, g.AddBranch(line("L1", "A", "B"), false))
	require.NoError(t, g.AddBranch(line("L2", "B", "C"), false))
	assert.False(t, g.HasCycle())

	require.NoError(t, g.AddBranch(line("L3", "C", "A"), false))
	assert.True(t, g.HasCycle())
}

func TestRemoveLoadAndGenerator(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(slackNode("a")))
	require.NoError(t, g.AddNode(pqNode("b")))
	require.NoError(t, g.AddLoad(entity.Load{ID: "LD1", NodeID: "a", InService: true}))
	require.NoError(t, g.AddGenerator(entity.Generator{ID: "G1", NodeID: "b", InService: true}))

	require.NoError(t, g.RemoveLoad("LD1"))
	assert.ErrorIs(t, g.RemoveLoad("LD1"), topology.ErrLoadNotFound)
	require.NoError(t, g.RemoveGenerator("G1"))
	assert.ErrorIs(t, g.RemoveGenerator("G1"), topology.ErrGeneratorNotFound)
}
