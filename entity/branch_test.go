package entity_test

import (
	"testing"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLine() *entity.LineBranch {
	return &entity.LineBranch{
		BranchCommon: entity.BranchCommon{ID: "L1", FromNodeID: "A", ToNodeID: "B", InService: true},
		BranchKind:   entity.Line,
		ROhmPerKm:    0.4, XOhmPerKm: 0.8, BUsPerKm: 3, LengthKm: 1, RatedCurrentA: 300,
	}
}

func TestLineBranch_SelfLoopRejected(t *testing.T) {
	l := validLine()
	l.ToNodeID = l.FromNodeID
	require.ErrorIs(t, l.Validate(), entity.ErrSelfLoop)
}

func TestLineBranch_ZeroImpedanceRejected(t *testing.T) {
	l := validLine()
	l.ROhmPerKm, l.XOhmPerKm = 0, 0
	require.ErrorIs(t, l.Validate(), entity.ErrZeroImpedance)
}

func TestLineBranch_ImpedanceOverrideBypassesPerKm(t *testing.T) {
	l := validLine()
	l.ROhmPerKm, l.XOhmPerKm = 0, 0
	l.ImpedanceOverride = &entity.ImpedanceOverride{RTotalOhm: 1.2, XTotalOhm: 0}
	assert.NoError(t, l.Validate())
	assert.Equal(t, complex(1.2, 0), l.TotalImpedanceOhm())
}

func TestLineBranch_TotalImpedanceScalesWithLength(t *testing.T) {
	l := validLine()
	l.LengthKm = 2
	assert.Equal(t, complex(0.8, 1.6), l.TotalImpedanceOhm())
	assert.InDelta(t, 6.0, l.TotalChargingMicrosiemens(), 1e-9)
}

func TestLineBranch_CloneIsDeep(t *testing.T) {
	l := validLine()
	l.ImpedanceOverride = &entity.ImpedanceOverride{RTotalOhm: 1}
	clone := l.Clone().(*entity.LineBranch)
	clone.ImpedanceOverride.RTotalOhm = 99
	assert.Equal(t, 1.0, l.ImpedanceOverride.RTotalOhm)
}

func TestTransformerBranch_NegativeDiscriminantRejected(t *testing.T) {
	tb := &entity.TransformerBranch{
		BranchCommon:  entity.BranchCommon{ID: "T1", FromNodeID: "A", ToNodeID: "B"},
		RatedPowerMVA: 1, VoltageHVkV: 20, VoltageLVkV: 0.4,
		UkPercent: 1, PkKW: 50, // (1/100)^2 - (50/1000/1)^2 = 0.0001 - 0.0025 < 0
	}
	require.ErrorIs(t, tb.Validate(), entity.ErrNegativeDiscriminant)
}

func TestTransformerBranch_ValidDiscriminant(t *testing.T) {
	tb := &entity.TransformerBranch{
		BranchCommon:  entity.BranchCommon{ID: "T2", FromNodeID: "A", ToNodeID: "B"},
		RatedPowerMVA: 1, VoltageHVkV: 20, VoltageLVkV: 0.4,
		UkPercent: 6, PkKW: 10,
	}
	assert.NoError(t, tb.Validate())
}

func TestTransformerBranch_IdenticalHVLVStillValidatesEndpointsSeparately(t *testing.T) {
	// Identical HV/LV ratings on a transformer is a readiness-layer
	// concern, not an entity-level one: Validate only enforces from != to.
	tb := &entity.TransformerBranch{
		BranchCommon:  entity.BranchCommon{ID: "T3", FromNodeID: "A", ToNodeID: "B"},
		RatedPowerMVA: 1, VoltageHVkV: 20, VoltageLVkV: 20,
		UkPercent: 6, PkKW: 10,
	}
	assert.NoError(t, tb.Validate())
}
