package entity

import "fmt"

// SwitchType classifies a zero-impedance topology element.
type SwitchType string

const (
	Breaker      SwitchType = "BREAKER"
	Disconnector SwitchType = "DISCONNECTOR"
	LoadSwitch   SwitchType = "LOAD_SWITCH"
	Fuse         SwitchType = "FUSE"
)

// SwitchState is the operating state of a Switch.
type SwitchState string

const (
	Open   SwitchState = "OPEN"
	Closed SwitchState = "CLOSED"
)

// Switch is a zero-impedance topology element: it contributes no
// electrical impedance, only a closed/open connection between two
// nodes.
type Switch struct {
	ID         string
	Name       string
	FromNodeID string
	ToNodeID   string

	SwitchType SwitchType
	State      SwitchState
	InService  bool

	RatedCurrentA  float64
	RatedVoltageKV float64
}

// IsActive reports whether the switch currently forms a topological
// connection: in service and closed.
func (s Switch) IsActive() bool {
	return s.InService && s.State == Closed
}

func (s Switch) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: switch id", ErrMissingField)
	}
	if s.FromNodeID == "" || s.ToNodeID == "" {
		return fmt.Errorf("%w: switch %q endpoints", ErrMissingField, s.ID)
	}
	if s.FromNodeID == s.ToNodeID {
		return fmt.Errorf("%w: switch %q", ErrSelfLoop, s.ID)
	}
	switch s.SwitchType {
	case Breaker, Disconnector, LoadSwitch, Fuse:
	default:
		return fmt.Errorf("%w: switch_type %q on switch %q", ErrUnknownEnumValue, s.SwitchType, s.ID)
	}
	switch s.State {
	case Open, Closed:
	default:
		return fmt.Errorf("%w: state %q on switch %q", ErrUnknownEnumValue, s.State, s.ID)
	}
	if s.RatedCurrentA <= 0 {
		return fmt.Errorf("%w: rated_current_a must be > 0 on switch %q", ErrInvalidValue, s.ID)
	}
	if s.RatedVoltageKV <= 0 {
		return fmt.Errorf("%w: rated_voltage_kv must be > 0 on switch %q", ErrInvalidValue, s.ID)
	}
	return nil
}

func (s Switch) ToCanonical() map[string]any {
	return map[string]any{
		"id":               s.ID,
		"name":             s.Name,
		"from_node_id":     s.FromNodeID,
		"to_node_id":       s.ToNodeID,
		"switch_type":      string(s.SwitchType),
		"state":            string(s.State),
		"in_service":       s.InService,
		"rated_current_a":  s.RatedCurrentA,
		"rated_voltage_kv": s.RatedVoltageKV,
	}
}
