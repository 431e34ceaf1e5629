package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

// The doc structs below mirror the canonical dict shapes ToDict and
// the entity ToCanonical methods emit. Decoding is weakly typed so a
// value that canonicalization collapsed to an integer
// still binds to a float64 field on the way back in.

type metaDoc struct {
	SnapshotID       string `mapstructure:"snapshot_id"`
	ParentSnapshotID string `mapstructure:"parent_snapshot_id"`
	CreatedAt        string `mapstructure:"created_at"`
	SchemaVersion    string `mapstructure:"schema_version"`
	NetworkModelID   string `mapstructure:"network_model_id"`
}

type nodeDoc struct {
	ID                   string   `mapstructure:"id"`
	Name                 string   `mapstructure:"name"`
	NodeType             string   `mapstructure:"node_type"`
	VoltageLevelKV       float64  `mapstructure:"voltage_level_kv"`
	VoltageMagnitudePU   *float64 `mapstructure:"voltage_magnitude_pu"`
	VoltageAngleRad      *float64 `mapstructure:"voltage_angle_rad"`
	ActivePowerMW        *float64 `mapstructure:"active_power_mw"`
	ReactivePowerMvar    *float64 `mapstructure:"reactive_power_mvar"`
	ShortCircuitPowerMVA *float64 `mapstructure:"short_circuit_power_mva"`
	ShortCircuitRXRatio  *float64 `mapstructure:"short_circuit_rx_ratio"`
	InService            bool     `mapstructure:"in_service"`
}

type impedanceOverrideDoc struct {
	RTotalOhm float64 `mapstructure:"r_total_ohm"`
	XTotalOhm float64 `mapstructure:"x_total_ohm"`
	BTotalUs  float64 `mapstructure:"b_total_us"`
}

type zeroSequenceDoc struct {
	R0OhmPerKm float64 `mapstructure:"r0_ohm_per_km"`
	X0OhmPerKm float64 `mapstructure:"x0_ohm_per_km"`
	B0UsPerKm  float64 `mapstructure:"b0_us_per_km"`
}

type branchDoc struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	BranchType string `mapstructure:"branch_type"`
	FromNodeID string `mapstructure:"from_node_id"`
	ToNodeID   string `mapstructure:"to_node_id"`
	InService  bool   `mapstructure:"in_service"`

	ROhmPerKm     float64               `mapstructure:"r_ohm_per_km"`
	XOhmPerKm     float64               `mapstructure:"x_ohm_per_km"`
	BUsPerKm      float64               `mapstructure:"b_us_per_km"`
	LengthKm      float64               `mapstructure:"length_km"`
	RatedCurrentA float64               `mapstructure:"rated_current_a"`
	TypeRef       *string               `mapstructure:"type_ref"`
	Override      *impedanceOverrideDoc `mapstructure:"impedance_override"`
	ZeroSequence  *zeroSequenceDoc      `mapstructure:"zero_sequence"`

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

type switchDoc struct {
	ID             string  `mapstructure:"id"`
	Name           string  `mapstructure:"name"`
	FromNodeID     string  `mapstructure:"from_node_id"`
	ToNodeID       string  `mapstructure:"to_node_id"`
	SwitchType     string  `mapstructure:"switch_type"`
	State          string  `mapstructure:"state"`
	InService      bool    `mapstructure:"in_service"`
	RatedCurrentA  float64 `mapstructure:"rated_current_a"`
	RatedVoltageKV float64 `mapstructure:"rated_voltage_kv"`
}

type inverterDoc struct {
	ID                          string  `mapstructure:"id"`
	NodeID                      string  `mapstructure:"node_id"`
	RatedCurrentA               float64 `mapstructure:"rated_current_a"`
	KSC                         float64 `mapstructure:"k_sc"`
	ContributesNegativeSequence bool    `mapstructure:"contributes_negative_sequence"`
	ContributesZeroSequence     bool    `mapstructure:"contributes_zero_sequence"`
	InService                   bool    `mapstructure:"in_service"`
}

type injectionDoc struct {
	ID                string  `mapstructure:"id"`
	NodeID            string  `mapstructure:"node_id"`
	Name              string  `mapstructure:"name"`
	ActivePowerMW     float64 `mapstructure:"active_power_mw"`
	ReactivePowerMvar float64 `mapstructure:"reactive_power_mvar"`
	InService         bool    `mapstructure:"in_service"`
}

type graphDoc struct {
	Nodes           []map[string]any `mapstructure:"nodes"`
	Branches        []map[string]any `mapstructure:"branches"`
	Switches        []map[string]any `mapstructure:"switches"`
	InverterSources []map[string]any `mapstructure:"inverter_sources"`
	Loads           []map[string]any `mapstructure:"loads"`
	Generators      []map[string]any `mapstructure:"generators"`
	PCCNodeID       *string          `mapstructure:"pcc_node_id"`
}

type snapshotDoc struct {
	Meta  metaDoc  `mapstructure:"meta"`
	Graph graphDoc `mapstructure:"graph"`
}

func decodeDoc(raw any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("snapshot: building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return nil
}

// FromJSON parses a canonical (or canonicalizable) snapshot JSON
// document back into a live Snapshot whose graph re-enforces every
// structural invariant on the way in. Round-tripping through
// CanonicalJSON and FromJSON preserves the snapshot hash.
func FromJSON(data []byte) (Snapshot, error) {
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return FromDict(tree)
}

// FromDict rebuilds a Snapshot from its dictionary form (the shape
// ToDict emits).
func FromDict(tree map[string]any) (Snapshot, error) {
	var doc snapshotDoc
	if err := decodeDoc(tree, &doc); err != nil {
		return Snapshot{}, err
	}

	g := topology.NewGraph()

	for _, raw := range doc.Graph.Nodes {
		var d nodeDoc
		if err := decodeDoc(raw, &d); err != nil {
			return Snapshot{}, err
		}
		n := entity.Node{
			ID:                   d.ID,
			Name:                 d.Name,
			NodeType:             entity.NodeType(d.NodeType),
			VoltageLevelKV:       d.VoltageLevelKV,
			VoltageMagnitudePU:   d.VoltageMagnitudePU,
			VoltageAngleRad:      d.VoltageAngleRad,
			ActivePowerMW:        d.ActivePowerMW,
			ReactivePowerMvar:    d.ReactivePowerMvar,
			ShortCircuitPowerMVA: d.ShortCircuitPowerMVA,
			ShortCircuitRXRatio:  d.ShortCircuitRXRatio,
			InService:            d.InService,
		}
		if err := g.AddNode(n); err != nil {
			return Snapshot{}, fmt.Errorf("%w: node %q: %v", ErrMalformedDocument, d.ID, err)
		}
	}

	for _, raw := range doc.Graph.Branches {
		var d branchDoc
		if err := decodeDoc(raw, &d); err != nil {
			return Snapshot{}, err
		}
		b, err := d.toBranch()
		if err != nil {
			return Snapshot{}, err
		}
		if err := g.AddBranch(b, false); err != nil {
			return Snapshot{}, fmt.Errorf("%w: branch %q: %v", ErrMalformedDocument, d.ID, err)
		}
	}

	for _, raw := range doc.Graph.Switches {
		var d switchDoc
		if err := decodeDoc(raw, &d); err != nil {
			return Snapshot{}, err
		}
		s := entity.Switch{
			ID:             d.ID,
			Name:           d.Name,
			FromNodeID:     d.FromNodeID,
			ToNodeID:       d.ToNodeID,
			SwitchType:     entity.SwitchType(d.SwitchType),
			State:          entity.SwitchState(d.State),
			InService:      d.InService,
			RatedCurrentA:  d.RatedCurrentA,
			RatedVoltageKV: d.RatedVoltageKV,
		}
		if err := g.AddSwitch(s); err != nil {
			return Snapshot{}, fmt.Errorf("%w: switch %q: %v", ErrMalformedDocument, d.ID, err)
		}
	}

	for _, raw := range doc.Graph.InverterSources {
		var d inverterDoc
		if err := decodeDoc(raw, &d); err != nil {
			return Snapshot{}, err
		}
		s := entity.InverterSource{
			ID:                          d.ID,
			NodeID:                      d.NodeID,
			RatedCurrentA:               d.RatedCurrentA,
			KSC:                         d.KSC,
			ContributesNegativeSequence: d.ContributesNegativeSequence,
			ContributesZeroSequence:     d.ContributesZeroSequence,
			InService:                   d.InService,
		}
		if err := g.AddInverterSource(s); err != nil {
			return Snapshot{}, fmt.Errorf("%w: inverter source %q: %v", ErrMalformedDocument, d.ID, err)
		}
	}

	for _, raw := range doc.Graph.Loads {
		var d injectionDoc
		if err := decodeDoc(raw, &d); err != nil {
			return Snapshot{}, err
		}
		l := entity.Load{
			ID: d.ID, NodeID: d.NodeID, Name: d.Name,
			ActivePowerMW: d.ActivePowerMW, ReactivePowerMvar: d.ReactivePowerMvar,
			InService: d.InService,
		}
		if err := g.AddLoad(l); err != nil {
			return Snapshot{}, fmt.Errorf("%w: load %q: %v", ErrMalformedDocument, d.ID, err)
		}
	}

	for _, raw := range doc.Graph.Generators {
		var d injectionDoc
		if err := decodeDoc(raw, &d); err != nil {
			return Snapshot{}, err
		}
		gen := entity.Generator{
			ID: d.ID, NodeID: d.NodeID, Name: d.Name,
			ActivePowerMW: d.ActivePowerMW, ReactivePowerMvar: d.ReactivePowerMvar,
			InService: d.InService,
		}
		if err := g.AddGenerator(gen); err != nil {
			return Snapshot{}, fmt.Errorf("%w: generator %q: %v", ErrMalformedDocument, d.ID, err)
		}
	}

	if doc.Graph.PCCNodeID != nil && *doc.Graph.PCCNodeID != "" {
		if err := g.SetPCC(*doc.Graph.PCCNodeID); err != nil {
			return Snapshot{}, fmt.Errorf("%w: pcc %q: %v", ErrMalformedDocument, *doc.Graph.PCCNodeID, err)
		}
	}

	meta := Meta{
		SnapshotID:       doc.Meta.SnapshotID,
		ParentSnapshotID: doc.Meta.ParentSnapshotID,
		SchemaVersion:    doc.Meta.SchemaVersion,
		NetworkModelID:   doc.Meta.NetworkModelID,
	}
	if doc.Meta.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, doc.Meta.CreatedAt)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: created_at %q: %v", ErrMalformedDocument, doc.Meta.CreatedAt, err)
		}
		meta.CreatedAt = ts
	}

	return Snapshot{Meta: meta, Graph: g}, nil
}

func (d branchDoc) toBranch() (entity.Branch, error) {
	common := entity.BranchCommon{
		ID:         d.ID,
		Name:       d.Name,
		FromNodeID: d.FromNodeID,
		ToNodeID:   d.ToNodeID,
		InService:  d.InService,
	}
	switch entity.BranchKind(d.BranchType) {
	case entity.Line, entity.Cable:
		b := &entity.LineBranch{
			BranchCommon:  common,
			BranchKind:    entity.BranchKind(d.BranchType),
			ROhmPerKm:     d.ROhmPerKm,
			XOhmPerKm:     d.XOhmPerKm,
			BUsPerKm:      d.BUsPerKm,
			LengthKm:      d.LengthKm,
			RatedCurrentA: d.RatedCurrentA,
			TypeRef:       d.TypeRef,
		}
		if d.Override != nil {
			b.ImpedanceOverride = &entity.ImpedanceOverride{
				RTotalOhm: d.Override.RTotalOhm,
				XTotalOhm: d.Override.XTotalOhm,
				BTotalUs:  d.Override.BTotalUs,
			}
		}
		if d.ZeroSequence != nil {
			b.ZeroSequence = &entity.ZeroSequenceParams{
				R0OhmPerKm: d.ZeroSequence.R0OhmPerKm,
				X0OhmPerKm: d.ZeroSequence.X0OhmPerKm,
				B0UsPerKm:  d.ZeroSequence.B0UsPerKm,
			}
		}
		return b, nil
	case entity.Transformer:
		return &entity.TransformerBranch{
			BranchCommon:   common,
			RatedPowerMVA:  d.RatedPowerMVA,
			VoltageHVkV:    d.VoltageHVkV,
			VoltageLVkV:    d.VoltageLVkV,
			UkPercent:      d.UkPercent,
			PkKW:           d.PkKW,
			I0Percent:      d.I0Percent,
			P0KW:           d.P0KW,
			VectorGroup:    d.VectorGroup,
			TapPosition:    d.TapPosition,
			TapStepPercent: d.TapStepPercent,
		}, nil
	default:
		return nil, fmt.Errorf("%w: branch_type %q on branch %q", ErrMalformedDocument, d.BranchType, d.ID)
	}
}
