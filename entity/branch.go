package entity

import "fmt"

// BranchKind discriminates the Branch sum type.
type BranchKind string

const (
	Line        BranchKind = "LINE"
	Cable       BranchKind = "CABLE"
	Transformer BranchKind = "TRANSFORMER"
)

// Branch is the common interface over the Line/Cable/Transformer sum
// type. Shared behavior (id/endpoints,
// canonical encoding) lives here; variant-specific electrical formulas
// live on the concrete LineBranch/TransformerBranch methods.
type Branch interface {
	Common() BranchCommon
	Kind() BranchKind
	Validate() error
	ToCanonical() map[string]any
	Clone() Branch
}

// BranchCommon holds the fields shared by every Branch variant.
type BranchCommon struct {
	ID         string
	Name       string
	FromNodeID string
	ToNodeID   string
	InService  bool
}

func (c BranchCommon) validateEndpoints() error {
	if c.ID == "" {
		return fmt.Errorf("%w: branch id", ErrMissingField)
	}
	if c.FromNodeID == "" || c.ToNodeID == "" {
		return fmt.Errorf("%w: branch %q endpoints", ErrMissingField, c.ID)
	}
	if c.FromNodeID == c.ToNodeID {
		return fmt.Errorf("%w: branch %q", ErrSelfLoop, c.ID)
	}
	return nil
}

// ImpedanceOverride lets a line/cable branch bypass catalog per-km
// parameters with directly supplied totals.
type ImpedanceOverride struct {
	RTotalOhm float64
	XTotalOhm float64
	BTotalUs  float64
}

// ZeroSequenceParams carries the optional zero-sequence impedance data
// a line/cable needs to participate in 1F-G / 2F-G short-circuit
// computations. Absence is a valid, common case; the
// readiness validator raises an IMPORTANT issue, not a BLOCKER, when
// it is missing.
type ZeroSequenceParams struct {
	R0OhmPerKm float64
	X0OhmPerKm float64
	B0UsPerKm  float64
}

// LineBranch models an overhead line or an underground cable: both
// share the same per-km RLC + rated-current shape.
type LineBranch struct {
	BranchCommon
	BranchKind BranchKind // Line or Cable

	ROhmPerKm     float64
	XOhmPerKm     float64
	BUsPerKm      float64
	LengthKm      float64
	RatedCurrentA float64

	TypeRef           *string
	ImpedanceOverride *ImpedanceOverride
	ZeroSequence      *ZeroSequenceParams
}

func (b *LineBranch) Common() BranchCommon { return b.BranchCommon }
func (b *LineBranch) Kind() BranchKind      { return b.BranchKind }

// Validate checks the common fields plus the line/cable-specific
// non-negativity and non-zero-impedance invariants.
func (b *LineBranch) Validate() error {
	if err := b.validateEndpoints(); err != nil {
		return err
	}
	if b.BranchKind != Line && b.BranchKind != Cable {
		return fmt.Errorf("%w: branch_type %q on branch %q", ErrUnknownEnumValue, b.BranchKind, b.ID)
	}
	if b.ROhmPerKm < 0 || b.XOhmPerKm < 0 || b.BUsPerKm < 0 {
		return fmt.Errorf("%w: negative rlc parameter on branch %q", ErrInvalidValue, b.ID)
	}
	if b.LengthKm <= 0 {
		return fmt.Errorf("%w: length_km must be > 0 on branch %q", ErrInvalidValue, b.ID)
	}
	if b.RatedCurrentA <= 0 {
		return fmt.Errorf("%w: rated_current_a must be > 0 on branch %q", ErrInvalidValue, b.ID)
	}
	if b.ImpedanceOverride != nil {
		if b.ImpedanceOverride.RTotalOhm == 0 && b.ImpedanceOverride.XTotalOhm == 0 {
			return fmt.Errorf("%w: branch %q", ErrZeroImpedance, b.ID)
		}
	} else if b.ROhmPerKm == 0 && b.XOhmPerKm == 0 {
		return fmt.Errorf("%w: branch %q", ErrZeroImpedance, b.ID)
	}
	return nil
}

// TotalImpedanceOhm returns the branch's total series impedance in
// ohms, honoring ImpedanceOverride when present.
func (b *LineBranch) TotalImpedanceOhm() complex128 {
	if b.ImpedanceOverride != nil {
		return complex(b.ImpedanceOverride.RTotalOhm, b.ImpedanceOverride.XTotalOhm)
	}
	return complex(b.ROhmPerKm*b.LengthKm, b.XOhmPerKm*b.LengthKm)
}

// TotalChargingMicrosiemens returns the full-length shunt susceptance
// in microsiemens, honoring ImpedanceOverride when present.
func (b *LineBranch) TotalChargingMicrosiemens() float64 {
	if b.ImpedanceOverride != nil {
		return b.ImpedanceOverride.BTotalUs
	}
	return b.BUsPerKm * b.LengthKm
}

// Clone returns a deep copy of b, including its optional override and
// zero-sequence parameter blocks, so a cloned graph never shares
// mutable pointer state with its parent.
func (b *LineBranch) Clone() Branch {
	clone := *b
	if b.TypeRef != nil {
		v := *b.TypeRef
		clone.TypeRef = &v
	}
	if b.ImpedanceOverride != nil {
		v := *b.ImpedanceOverride
		clone.ImpedanceOverride = &v
	}
	if b.ZeroSequence != nil {
		v := *b.ZeroSequence
		clone.ZeroSequence = &v
	}
	return &clone
}

func (b *LineBranch) ToCanonical() map[string]any {
	m := map[string]any{
		"id":              b.ID,
		"name":            b.Name,
		"branch_type":     string(b.BranchKind),
		"from_node_id":    b.FromNodeID,
		"to_node_id":      b.ToNodeID,
		"in_service":      b.InService,
		"r_ohm_per_km":    b.ROhmPerKm,
		"x_ohm_per_km":    b.XOhmPerKm,
		"b_us_per_km":     b.BUsPerKm,
		"length_km":       b.LengthKm,
		"rated_current_a": b.RatedCurrentA,
		"type_ref":        optString(b.TypeRef),
	}
	if b.ImpedanceOverride != nil {
		m["impedance_override"] = map[string]any{
			"r_total_ohm": b.ImpedanceOverride.RTotalOhm,
			"x_total_ohm": b.ImpedanceOverride.XTotalOhm,
			"b_total_us":  b.ImpedanceOverride.BTotalUs,
		}
	} else {
		m["impedance_override"] = nil
	}
	if b.ZeroSequence != nil {
		m["zero_sequence"] = map[string]any{
			"r0_ohm_per_km": b.ZeroSequence.R0OhmPerKm,
			"x0_ohm_per_km": b.ZeroSequence.X0OhmPerKm,
			"b0_us_per_km":  b.ZeroSequence.B0UsPerKm,
		}
	} else {
		m["zero_sequence"] = nil
	}
	return m
}

// TransformerBranch models a two-winding MV/LV or HV/MV transformer.
type TransformerBranch struct {
	BranchCommon

	RatedPowerMVA  float64
	VoltageHVkV    float64
	VoltageLVkV    float64
	UkPercent      float64
	PkKW           float64
	I0Percent      float64
	P0KW           float64
	VectorGroup    string
	TapPosition    int
	TapStepPercent float64
}

func (b *TransformerBranch) Common() BranchCommon { return b.BranchCommon }
func (b *TransformerBranch) Kind() BranchKind      { return Transformer }

// Validate enforces the transformer field invariants and the
// short-circuit-reactance discriminant
// (uk/100)^2 - (pk/1000/Sn)^2 >= 0.
func (b *TransformerBranch) Validate() error {
	if err := b.validateEndpoints(); err != nil {
		return err
	}
	if b.RatedPowerMVA <= 0 {
		return fmt.Errorf("%w: rated_power_mva must be > 0 on transformer %q", ErrInvalidValue, b.ID)
	}
	if b.VoltageHVkV <= 0 || b.VoltageLVkV <= 0 {
		return fmt.Errorf("%w: hv/lv voltage must be > 0 on transformer %q", ErrInvalidValue, b.ID)
	}
	if b.UkPercent <= 0 {
		return fmt.Errorf("%w: uk_percent must be > 0 on transformer %q", ErrInvalidValue, b.ID)
	}
	if b.PkKW < 0 || b.I0Percent < 0 || b.P0KW < 0 {
		return fmt.Errorf("%w: negative loss parameter on transformer %q", ErrInvalidValue, b.ID)
	}
	if b.discriminant() < 0 {
		return fmt.Errorf("%w: transformer %q", ErrNegativeDiscriminant, b.ID)
	}
	return nil
}

func (b *TransformerBranch) discriminant() float64 {
	ukTerm := b.UkPercent / 100
	pkTerm := b.PkKW / 1000 / b.RatedPowerMVA
	return ukTerm*ukTerm - pkTerm*pkTerm
}

// Clone returns a deep copy of b (all fields are scalar, so this is a
// plain struct copy behind a fresh pointer).
func (b *TransformerBranch) Clone() Branch {
	clone := *b
	return &clone
}

func (b *TransformerBranch) ToCanonical() map[string]any {
	return map[string]any{
		"id":               b.ID,
		"name":             b.Name,
		"branch_type":      string(Transformer),
		"from_node_id":     b.FromNodeID,
		"to_node_id":       b.ToNodeID,
		"in_service":       b.InService,
		"rated_power_mva":  b.RatedPowerMVA,
		"voltage_hv_kv":    b.VoltageHVkV,
		"voltage_lv_kv":    b.VoltageLVkV,
		"uk_percent":       b.UkPercent,
		"pk_kw":            b.PkKW,
		"i0_percent":       b.I0Percent,
		"p0_kw":            b.P0KW,
		"vector_group":     b.VectorGroup,
		"tap_position":     b.TapPosition,
		"tap_step_percent": b.TapStepPercent,
	}
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
