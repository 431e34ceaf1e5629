package entity

import "fmt"

// InverterSource is an inverter-interfaced generation unit (PV/BESS/wind
// converter) modeled, for short-circuit purposes, purely by its rated
// current and a short-circuit multiplier: I_k" = KSC * RatedCurrentA.
type InverterSource struct {
	ID     string
	NodeID string

	RatedCurrentA float64
	KSC           float64

	ContributesNegativeSequence bool
	ContributesZeroSequence     bool
	InService                   bool
}

// ShortCircuitCurrentA returns the inverter's fault current
// contribution I_k" = KSC * RatedCurrentA.
func (s InverterSource) ShortCircuitCurrentA() float64 {
	return s.KSC * s.RatedCurrentA
}

func (s InverterSource) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: inverter source id", ErrMissingField)
	}
	if s.NodeID == "" {
		return fmt.Errorf("%w: inverter source %q node_id", ErrMissingField, s.ID)
	}
	if s.RatedCurrentA <= 0 {
		return fmt.Errorf("%w: rated_current_a must be > 0 on inverter source %q", ErrInvalidValue, s.ID)
	}
	if s.KSC <= 0 {
		return fmt.Errorf("%w: k_sc must be > 0 on inverter source %q", ErrInvalidValue, s.ID)
	}
	return nil
}

func (s InverterSource) ToCanonical() map[string]any {
	return map[string]any{
		"id":                             s.ID,
		"node_id":                        s.NodeID,
		"rated_current_a":                s.RatedCurrentA,
		"k_sc":                           s.KSC,
		"contributes_negative_sequence":  s.ContributesNegativeSequence,
		"contributes_zero_sequence":      s.ContributesZeroSequence,
		"in_service":                     s.InService,
	}
}
