package readiness_test

import (
	"strings"
	"testing"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/fixtures"
	"github.com/radekizk-sketch/mvgrid-core/readiness"
	"github.com/radekizk-sketch/mvgrid-core/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func hasCode(issues []readiness.Issue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestValidateNetwork_EmptyTopology(t *testing.T) {
	g := topology.NewGraph()
	report := readiness.ValidateNetwork(g)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "empty_topology", report.Issues[0].Code)
	assert.Equal(t, readiness.Blocker, report.Issues[0].Severity)
	assert.True(t, report.HasBlockers())
	assert.False(t, report.Availability["load_flow"].Available)
}

func TestValidateNetwork_NoSource(t *testing.T) {
	g := topology.NewGraph()
	require.NoError(t, g.AddNode(entity.Node{
		ID: "A", NodeType: entity.PQ, VoltageLevelKV: 20,
		ActivePowerMW: f(1), ReactivePowerMvar: f(0), InService: true,
	}))
	report := readiness.ValidateNetwork(g)
	assert.True(t, hasCode(report.Issues, "no_source"))
}

func TestValidateNetwork_SlackMissingShortCircuitParams(t *testing.T) {
	g, err := fixtures.Build(nil, fixtures.Radial(2))
	require.NoError(t, err)

	report := readiness.ValidateNetwork(g)
	assert.True(t, hasCode(report.Issues, "source_missing_short_circuit_params"))
	assert.False(t, report.Availability["short_circuit_3ph"].Available)
	// load flow doesn't need short-circuit source params, but the
	// blocker still disables every analysis.
	assert.False(t, report.Availability["load_flow"].Available)
}

func TestValidateNetwork_DisconnectedIslandIsBlocker(t *testing.T) {
	g, err := fixtures.Build(nil, fixtures.Radial(2))
	require.NoError(t, err)
	require.NoError(t, g.AddNode(entity.Node{
		ID: "orphan", NodeType: entity.PQ, VoltageLevelKV: 20,
		ActivePowerMW: f(1), ReactivePowerMvar: f(0), InService: true,
	}))

	report := readiness.ValidateNetwork(g)
	var found *readiness.Issue
	for i := range report.Issues {
		if report.Issues[i].Code == "disconnected_island" {
			found = &report.Issues[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []string{"orphan"}, found.ElementRefs)
}

func TestValidateNetwork_TransformerMissingVectorGroup(t *testing.T) {
	g := topology.NewGraph()
	u, a := 1.0, 0.0
	require.NoError(t, g.AddNode(entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: &u, VoltageAngleRad: &a, InService: true}))
	require.NoError(t, g.AddNode(entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 0.4, ActivePowerMW: f(1), ReactivePowerMvar: f(0), InService: true}))

	// A transformer with UkPercent<=0 fails entity.Validate, so AddBranch
	// and BuildGraph both reject it and transformer_missing_uk cannot be
	// reached through a graph; that path is covered at the entity layer
	// (see branch_test.go). Here a validly constructed transformer without
	// a vector group must surface transformer_missing_vector_group and not
	// transformer_missing_uk.
	tb := &entity.TransformerBranch{
		BranchCommon:  entity.BranchCommon{ID: "T1", FromNodeID: "A", ToNodeID: "B", InService: true},
		RatedPowerMVA: 1, VoltageHVkV: 20, VoltageLVkV: 0.4, UkPercent: 6, PkKW: 10,
	}
	require.NoError(t, g.AddBranch(tb, false))

	report := readiness.ValidateNetwork(g)
	assert.True(t, hasCode(report.Issues, "transformer_missing_vector_group"))
	assert.False(t, hasCode(report.Issues, "transformer_missing_uk"))
}

func TestValidateNetwork_NoLoadsOrGenerators(t *testing.T) {
	g := topology.NewGraph()
	u, a := 1.0, 0.0
	sc := 100.0
	require.NoError(t, g.AddNode(entity.Node{
		ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20,
		VoltageMagnitudePU: &u, VoltageAngleRad: &a, ShortCircuitPowerMVA: &sc, InService: true,
	}))

	report := readiness.ValidateNetwork(g)
	assert.True(t, hasCode(report.Issues, "no_loads_or_generators"))
	assert.False(t, report.Availability["load_flow"].Available)
	assert.True(t, report.Availability["short_circuit_3ph"].Available)
}

func TestValidateNetwork_OpenSwitchIsInfoOnly(t *testing.T) {
	g := topology.NewGraph(topology.WithParallelEdgePolicy(topology.PermissiveSwitchExempt))
	u, a := 1.0, 0.0
	sc := 100.0
	require.NoError(t, g.AddNode(entity.Node{
		ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20,
		VoltageMagnitudePU: &u, VoltageAngleRad: &a, ShortCircuitPowerMVA: &sc, InService: true,
	}))
	require.NoError(t, g.AddNode(entity.Node{
		ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20,
		ActivePowerMW: f(1), ReactivePowerMvar: f(0), InService: true,
	}))
	require.NoError(t, g.AddSwitch(entity.Switch{
		ID: "S1", FromNodeID: "A", ToNodeID: "B", SwitchType: entity.Breaker,
		State: entity.Open, InService: true, RatedCurrentA: 300, RatedVoltageKV: 20,
	}))

	report := readiness.ValidateNetwork(g)
	var sev readiness.Severity
	for _, i := range report.Issues {
		if i.Code == "open_switch_isolates_network" {
			sev = i.Severity
		}
	}
	assert.Equal(t, readiness.Info, sev)
}

func TestValidateNetwork_IssuesSortedBySeverityThenCode(t *testing.T) {
	g := topology.NewGraph()
	report := readiness.ValidateNetwork(g) // empty_topology only; add a denser case below

	// Build a graph producing a mix of severities to check ordering.
	g2, err := fixtures.Build(nil, fixtures.Radial(2))
	require.NoError(t, err)
	report2 := readiness.ValidateNetwork(g2)
	require.NotEmpty(t, report2.Issues)
	for i := 1; i < len(report2.Issues); i++ {
		prevRank := severityRankFor(report2.Issues[i-1].Severity)
		curRank := severityRankFor(report2.Issues[i].Severity)
		assert.LessOrEqual(t, prevRank, curRank, "issues must be non-decreasing in severity rank")
		if prevRank == curRank {
			assert.LessOrEqual(t, report2.Issues[i-1].Code, report2.Issues[i].Code, "issues of equal severity must be ordered by code")
		}
	}
	_ = report
}

func severityRankFor(s readiness.Severity) int {
	switch s {
	case readiness.Blocker:
		return 0
	case readiness.Important:
		return 1
	default:
		return 2
	}
}

func TestValidationReport_IsValidMirrorsBlockers(t *testing.T) {
	g := topology.NewGraph()
	report := readiness.ValidateNetwork(g)
	assert.False(t, report.IsValid())
	assert.True(t, report.HasBlockers())
}

func TestValidateNetwork_IssuesAreDeduplicated(t *testing.T) {
	g := topology.NewGraph()
	report := readiness.ValidateNetwork(g)
	seen := map[string]bool{}
	for _, issue := range report.Issues {
		key := issue.Code + "|" + string(issue.Severity) + "|" + strings.Join(issue.ElementRefs, ",")
		assert.False(t, seen[key], "duplicate issue %s", key)
		seen[key] = true
	}
}
