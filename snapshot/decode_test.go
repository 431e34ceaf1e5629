package snapshot_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/snapshot"
	"github.com/radekizk-sketch/mvgrid-core/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullGraph exercises every serialized entity kind: three nodes in a
// ring of lines plus an open tie switch, a transformer, an inverter
// source, a load, a generator, and a PCC marker.
func fullGraph(t *testing.T) *topology.Graph {
	t.Helper()
	g := topology.NewGraph()
	skMVA, rx := 250.0, 0.1
	require.NoError(t, g.AddNode(entity.Node{
		ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20,
		VoltageMagnitudePU: f(1), VoltageAngleRad: f(0),
		ShortCircuitPowerMVA: &skMVA, ShortCircuitRXRatio: &rx, InService: true,
	}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20, ActivePowerMW: f(1), ReactivePowerMvar: f(0.5), InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "C", NodeType: entity.PQ, VoltageLevelKV: 0.4, ActivePowerMW: f(0.2), ReactivePowerMvar: f(0.1), InService: true}))

	typeRef := "NA2XS2Y-150"
	require.NoError(t, g.AddBranch(&entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line, TypeRef: &typeRef,
		ROhmPerKm: 0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1.5, RatedCurrentA: 300,
		ZeroSequence: &entity.ZeroSequenceParams{R0OhmPerKm: 1.2, X0OhmPerKm: 2.4, B0UsPerKm: 1},
	}, false))
	require.NoError(t, g.AddBranch(&entity.TransformerBranch{
		BranchCommon:  entity.BranchCommon{ID: "T1", FromNodeID: "B", ToNodeID: "C", InService: true},
		RatedPowerMVA: 0.63, VoltageHVkV: 20, VoltageLVkV: 0.4,
		UkPercent: 6, PkKW: 6.5, VectorGroup: "Dyn5", TapPosition: 2, TapStepPercent: 2.5,
	}, false))
	require.NoError(t, g.AddSwitch(entity.Switch{
		ID: "S1", FromNodeID: "A", ToNodeID: "C",
		SwitchType: entity.Disconnector, State: entity.Open, InService: true,
		RatedCurrentA: 400, RatedVoltageKV: 20,
	}))
	require.NoError(t, g.AddInverterSource(entity.InverterSource{
		ID: "INV1", NodeID: "B", RatedCurrentA: 100, KSC: 1.2,
		ContributesNegativeSequence: true, InService: false,
	}))
	require.NoError(t, g.AddLoad(entity.Load{ID: "LD1", NodeID: "B", ActivePowerMW: 1, ReactivePowerMvar: 0.5, InService: true}))
	require.NoError(t, g.AddGenerator(entity.Generator{ID: "G1", NodeID: "C", ActivePowerMW: 0.1, InService: true}))
	require.NoError(t, g.SetPCC("A"))
	return g
}

func fullSnapshot(t *testing.T) snapshot.Snapshot {
	t.Helper()
	return snapshot.Snapshot{
		Meta: snapshot.Meta{
			SnapshotID:     "snap-1",
			SchemaVersion:  "1.0",
			NetworkModelID: "net-1",
			CreatedAt:      time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		},
		Graph: fullGraph(t),
	}
}

// hash(s) == hash(from_json(to_json(s))): parsing a canonical
// document back must not perturb the digest.
func TestFromJSON_RoundTripPreservesHash(t *testing.T) {
	s := fullSnapshot(t)

	data, err := snapshot.CanonicalJSON(s)
	require.NoError(t, err)
	h1, err := snapshot.SnapshotHash(s)
	require.NoError(t, err)

	rebuilt, err := snapshot.FromJSON(data)
	require.NoError(t, err)
	h2, err := snapshot.SnapshotHash(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	data2, err := snapshot.CanonicalJSON(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(data2), "re-serialization must be byte-identical")

	pcc, ok := rebuilt.Graph.PCC()
	require.True(t, ok)
	assert.Equal(t, "A", pcc)
	assert.Len(t, rebuilt.Graph.AllInverterSources(), 1, "out-of-service inverter must survive the round trip")
}

// Permuting the serialized lists before re-parsing must not change
// the digest.
func TestFromJSON_PermutedBranchListSameHash(t *testing.T) {
	s := fullSnapshot(t)
	data, err := snapshot.CanonicalJSON(s)
	require.NoError(t, err)
	h1, err := snapshot.SnapshotHash(s)
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(data, &tree))
	graph := tree["graph"].(map[string]any)
	branches := graph["branches"].([]any)
	for i, j := 0, len(branches)-1; i < j; i, j = i+1, j-1 {
		branches[i], branches[j] = branches[j], branches[i]
	}
	nodes := graph["nodes"].([]any)
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	permuted, err := json.Marshal(tree)
	require.NoError(t, err)

	rebuilt, err := snapshot.FromJSON(permuted)
	require.NoError(t, err)
	h2, err := snapshot.SnapshotHash(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestFromJSON_MalformedDocumentRejected(t *testing.T) {
	_, err := snapshot.FromJSON([]byte(`{not json`))
	assert.ErrorIs(t, err, snapshot.ErrMalformedDocument)

	// A document whose graph violates an invariant (branch endpoint
	// missing) must be rejected too, not silently repaired.
	_, err = snapshot.FromJSON([]byte(`{
		"meta": {"snapshot_id": "x"},
		"graph": {
			"nodes": [{"id": "A", "node_type": "SLACK", "voltage_level_kv": 20, "voltage_magnitude_pu": 1, "voltage_angle_rad": 0, "in_service": true}],
			"branches": [{"id": "L1", "branch_type": "LINE", "from_node_id": "A", "to_node_id": "GONE", "in_service": true, "r_ohm_per_km": 0.4, "x_ohm_per_km": 0.8, "length_km": 1, "rated_current_a": 300}],
			"switches": [], "inverter_sources": [], "loads": [], "generators": []
		}
	}`))
	assert.ErrorIs(t, err, snapshot.ErrMalformedDocument)
}
