package entity_test

import (
	"errors"
	"testing"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestNodeValidate_SlackRequiresMagnitudeAndAngle(t *testing.T) {
	n := entity.Node{ID: "A", NodeType: entity.Slack, VoltageLevelKV: 20}
	require.ErrorIs(t, n.Validate(), entity.ErrMissingField)

	n.VoltageMagnitudePU = f(1.0)
	require.ErrorIs(t, n.Validate(), entity.ErrMissingField)

	n.VoltageAngleRad = f(0)
	assert.NoError(t, n.Validate())
}

func TestNodeValidate_PQRequiresPAndQ(t *testing.T) {
	n := entity.Node{ID: "B", NodeType: entity.PQ, VoltageLevelKV: 20}
	require.ErrorIs(t, n.Validate(), entity.ErrMissingField)

	n.ActivePowerMW = f(1)
	require.ErrorIs(t, n.Validate(), entity.ErrMissingField)

	n.ReactivePowerMvar = f(0.5)
	assert.NoError(t, n.Validate())
}

func TestNodeValidate_PVRequiresPAndMagnitude(t *testing.T) {
	n := entity.Node{ID: "C", NodeType: entity.PV, VoltageLevelKV: 20, ActivePowerMW: f(1)}
	require.ErrorIs(t, n.Validate(), entity.ErrMissingField)

	n.VoltageMagnitudePU = f(1.02)
	assert.NoError(t, n.Validate())
}

func TestNodeValidate_VoltageLevelMustBePositive(t *testing.T) {
	n := entity.Node{ID: "D", NodeType: entity.PQ, VoltageLevelKV: 0, ActivePowerMW: f(0), ReactivePowerMvar: f(0)}
	require.ErrorIs(t, n.Validate(), entity.ErrInvalidValue)
}

func TestNodeValidate_AngleOutOfRange(t *testing.T) {
	n := entity.Node{
		ID: "E", NodeType: entity.Slack, VoltageLevelKV: 20,
		VoltageMagnitudePU: f(1), VoltageAngleRad: f(4),
	}
	require.ErrorIs(t, n.Validate(), entity.ErrInvalidValue)
}

func TestNodeValidate_UnknownNodeType(t *testing.T) {
	n := entity.Node{ID: "F", NodeType: "BOGUS", VoltageLevelKV: 20}
	require.ErrorIs(t, n.Validate(), entity.ErrUnknownEnumValue)
}

func TestParseNodeType(t *testing.T) {
	nt, err := entity.ParseNodeType("PQ")
	require.NoError(t, err)
	assert.Equal(t, entity.PQ, nt)

	_, err = entity.ParseNodeType("bogus")
	require.True(t, errors.Is(err, entity.ErrUnknownEnumValue))
}

func TestNodeToCanonical_OmitsNilAsNull(t *testing.T) {
	n := entity.Node{ID: "G", NodeType: entity.Slack, VoltageLevelKV: 20, VoltageMagnitudePU: f(1), VoltageAngleRad: f(0)}
	m := n.ToCanonical()
	assert.Equal(t, "G", m["id"])
	assert.Nil(t, m["active_power_mw"])
	assert.Equal(t, 1.0, m["voltage_magnitude_pu"])
}
