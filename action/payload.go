package action

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/entity"
)

// CreateNodePayload is the decoded payload of a create_node action.
// Field requirements beyond the validator tags (which fields are
// mandatory) depend on NodeType and are checked by RequireFieldsForType.
type CreateNodePayload struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	NodeType string `mapstructure:"node_type" validate:"required,oneof=SLACK PQ PV"`

	VoltageLevelKV float64 `mapstructure:"voltage_level_kv" validate:"gt=0"`

	VoltageMagnitudePU *float64 `mapstructure:"voltage_magnitude_pu" validate:"omitempty,gt=0"`
	VoltageAngleRad    *float64 `mapstructure:"voltage_angle_rad"`
	ActivePowerMW      *float64 `mapstructure:"active_power_mw"`
	ReactivePowerMvar  *float64 `mapstructure:"reactive_power_mvar"`
}

// RequireFieldsForType enforces the additional payload keys each
// node_type demands beyond the common set.
func (p CreateNodePayload) RequireFieldsForType() error {
	switch entity.NodeType(p.NodeType) {
	case entity.Slack:
		if p.VoltageMagnitudePU == nil || p.VoltageAngleRad == nil {
			return fmt.Errorf("%w: SLACK requires voltage_magnitude_pu and voltage_angle_rad", ErrMissingPayloadKey)
		}
	case entity.PQ:
		if p.ActivePowerMW == nil || p.ReactivePowerMvar == nil {
			return fmt.Errorf("%w: PQ requires active_power_mw and reactive_power_mvar", ErrMissingPayloadKey)
		}
	case entity.PV:
		if p.ActivePowerMW == nil || p.VoltageMagnitudePU == nil {
			return fmt.Errorf("%w: PV requires active_power_mw and voltage_magnitude_pu", ErrMissingPayloadKey)
		}
	}
	return nil
}

// ToNode builds the entity.Node this payload describes. id overrides
// the payload's own id when the caller wants the envelope's action id
// to drive identity instead.
func (p CreateNodePayload) ToNode(id string) entity.Node {
	return entity.Node{
		ID:                 id,
		Name:               p.Name,
		NodeType:           entity.NodeType(p.NodeType),
		VoltageLevelKV:     p.VoltageLevelKV,
		VoltageMagnitudePU: p.VoltageMagnitudePU,
		VoltageAngleRad:    p.VoltageAngleRad,
		ActivePowerMW:      p.ActivePowerMW,
		ReactivePowerMvar:  p.ReactivePowerMvar,
		InService:          true,
	}
}

// CreateBranchPayload is the decoded payload of a create_branch
// action. It carries the union of line/cable and transformer fields;
// ToBranch selects the active subset by BranchType.
type CreateBranchPayload struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	BranchType string `mapstructure:"branch_type" validate:"required,oneof=LINE CABLE TRANSFORMER"`
	FromNodeID string `mapstructure:"from_node_id" validate:"required"`
	ToNodeID   string `mapstructure:"to_node_id" validate:"required"`
	InService  bool   `mapstructure:"in_service"`

	ROhmPerKm     float64 `mapstructure:"r_ohm_per_km"`
	XOhmPerKm     float64 `mapstructure:"x_ohm_per_km"`
	BUsPerKm      float64 `mapstructure:"b_us_per_km"`
	LengthKm      float64 `mapstructure:"length_km"`
	RatedCurrentA float64 `mapstructure:"rated_current_a"`

	RatedPowerMVA  float64 `mapstructure:"rated_power_mva"`
	VoltageHVkV    float64 `mapstructure:"voltage_hv_kv"`
	VoltageLVkV    float64 `mapstructure:"voltage_lv_kv"`
	UkPercent      float64 `mapstructure:"uk_percent"`
	PkKW           float64 `mapstructure:"pk_kw"`
	I0Percent      float64 `mapstructure:"i0_percent"`
	P0KW           float64 `mapstructure:"p0_kw"`
	VectorGroup    string  `mapstructure:"vector_group"`
	TapPosition    int     `mapstructure:"tap_position"`
	TapStepPercent float64 `mapstructure:"tap_step_percent"`
}

// ToBranch builds the entity.Branch variant this payload describes,
// using id as the branch's identity.
func (p CreateBranchPayload) ToBranch(id string) (entity.Branch, error) {
	common := entity.BranchCommon{
		ID:         id,
		Name:       p.Name,
		FromNodeID: p.FromNodeID,
		ToNodeID:   p.ToNodeID,
		InService:  p.InService,
	}
	switch entity.BranchKind(p.BranchType) {
	case entity.Line, entity.Cable:
		return &entity.LineBranch{
			BranchCommon:  common,
			BranchKind:    entity.BranchKind(p.BranchType),
			ROhmPerKm:     p.ROhmPerKm,
			XOhmPerKm:     p.XOhmPerKm,
			BUsPerKm:      p.BUsPerKm,
			LengthKm:      p.LengthKm,
			RatedCurrentA: p.RatedCurrentA,
		}, nil
	case entity.Transformer:
		return &entity.TransformerBranch{
			BranchCommon:   common,
			RatedPowerMVA:  p.RatedPowerMVA,
			VoltageHVkV:    p.VoltageHVkV,
			VoltageLVkV:    p.VoltageLVkV,
			UkPercent:      p.UkPercent,
			PkKW:           p.PkKW,
			I0Percent:      p.I0Percent,
			P0KW:           p.P0KW,
			VectorGroup:    p.VectorGroup,
			TapPosition:    p.TapPosition,
			TapStepPercent: p.TapStepPercent,
		}, nil
	default:
		return nil, fmt.Errorf("%w: branch_type %q", ErrInvalidValue, p.BranchType)
	}
}

// SetInServicePayload is the decoded payload of a set_in_service action.
type SetInServicePayload struct {
	EntityType string `mapstructure:"entity_type" validate:"required,oneof=branch switch"`
	EntityID   string `mapstructure:"entity_id" validate:"required"`
	InService  bool   `mapstructure:"in_service"`
}

// SetPCCPayload is the decoded payload of a set_pcc action.
type SetPCCPayload struct {
	NodeID string `mapstructure:"node_id" validate:"required"`
}
