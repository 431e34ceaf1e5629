package entity

import (
	"fmt"
	"math"
)

// NodeType classifies a bus for power-flow purposes.
type NodeType string

const (
	// Slack is the reference bus: fixed voltage magnitude and angle.
	Slack NodeType = "SLACK"
	// PQ is a bus with specified active and reactive power injection.
	PQ NodeType = "PQ"
	// PV is a bus with specified active power and voltage magnitude.
	PV NodeType = "PV"
)

// ParseNodeType validates s against the known NodeType members.
func ParseNodeType(s string) (NodeType, error) {
	switch NodeType(s) {
	case Slack, PQ, PV:
		return NodeType(s), nil
	default:
		return "", fmt.Errorf("%w: node_type %q", ErrUnknownEnumValue, s)
	}
}

// Node is a bus in the network graph.
//
// Required fields differ by NodeType (see Validate): SLACK needs
// VoltageMagnitudePU and VoltageAngleRad; PQ needs ActivePowerMW and
// ReactivePowerMvar; PV needs ActivePowerMW and VoltageMagnitudePU.
type Node struct {
	ID       string
	Name     string
	NodeType NodeType

	VoltageLevelKV float64

	VoltageMagnitudePU *float64
	VoltageAngleRad    *float64
	ActivePowerMW      *float64
	ReactivePowerMvar  *float64

	// ShortCircuitPowerMVA and ShortCircuitRXRatio describe the
	// Thevenin source behind a SLACK node for IEC 60909 purposes
	// (Z_src = U^2/Sk'', X = Z/sqrt(1+r^2), R = X*r).
	// Both are nil until supplied; their absence is a readiness
	// BLOCKER, not a construction-time failure, since a node may be
	// built before its short-circuit data is known.
	ShortCircuitPowerMVA *float64
	ShortCircuitRXRatio  *float64

	InService bool
}

// Validate reports every invariant violation for n, wrapping one of the
// sentinel errors in this package. A nil return means n is well-formed.
func (n Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("%w: node id", ErrMissingField)
	}
	switch n.NodeType {
	case Slack, PQ, PV:
	default:
		return fmt.Errorf("%w: node_type %q on node %q", ErrUnknownEnumValue, n.NodeType, n.ID)
	}
	if n.VoltageLevelKV <= 0 {
		return fmt.Errorf("%w: voltage_level_kv must be > 0 on node %q", ErrInvalidValue, n.ID)
	}
	if n.VoltageMagnitudePU != nil && *n.VoltageMagnitudePU <= 0 {
		return fmt.Errorf("%w: voltage_magnitude_pu must be > 0 on node %q", ErrInvalidValue, n.ID)
	}
	if n.VoltageAngleRad != nil && (*n.VoltageAngleRad < -math.Pi || *n.VoltageAngleRad > math.Pi) {
		return fmt.Errorf("%w: voltage_angle_rad out of [-pi, pi] on node %q", ErrInvalidValue, n.ID)
	}
	if n.ShortCircuitPowerMVA != nil && *n.ShortCircuitPowerMVA <= 0 {
		return fmt.Errorf("%w: short_circuit_power_mva must be > 0 on node %q", ErrInvalidValue, n.ID)
	}
	if n.ShortCircuitRXRatio != nil && *n.ShortCircuitRXRatio < 0 {
		return fmt.Errorf("%w: short_circuit_rx_ratio must be >= 0 on node %q", ErrInvalidValue, n.ID)
	}

	switch n.NodeType {
	case Slack:
		if n.VoltageMagnitudePU == nil {
			return fmt.Errorf("%w: SLACK node %q requires voltage_magnitude_pu", ErrMissingField, n.ID)
		}
		if n.VoltageAngleRad == nil {
			return fmt.Errorf("%w: SLACK node %q requires voltage_angle_rad", ErrMissingField, n.ID)
		}
	case PQ:
		if n.ActivePowerMW == nil {
			return fmt.Errorf("%w: PQ node %q requires active_power_mw", ErrMissingField, n.ID)
		}
		if n.ReactivePowerMvar == nil {
			return fmt.Errorf("%w: PQ node %q requires reactive_power_mvar", ErrMissingField, n.ID)
		}
	case PV:
		if n.ActivePowerMW == nil {
			return fmt.Errorf("%w: PV node %q requires active_power_mw", ErrMissingField, n.ID)
		}
		if n.VoltageMagnitudePU == nil {
			return fmt.Errorf("%w: PV node %q requires voltage_magnitude_pu", ErrMissingField, n.ID)
		}
	}
	return nil
}

// ToCanonical renders n as a plain map suitable for canonical JSON
// encoding (snapshot.Canonicalize sorts keys and normalizes floats).
func (n Node) ToCanonical() map[string]any {
	return map[string]any{
		"id":                      n.ID,
		"name":                    n.Name,
		"node_type":               string(n.NodeType),
		"voltage_level_kv":        n.VoltageLevelKV,
		"voltage_magnitude_pu":    optFloat(n.VoltageMagnitudePU),
		"voltage_angle_rad":       optFloat(n.VoltageAngleRad),
		"active_power_mw":         optFloat(n.ActivePowerMW),
		"reactive_power_mvar":     optFloat(n.ReactivePowerMvar),
		"short_circuit_power_mva": optFloat(n.ShortCircuitPowerMVA),
		"short_circuit_rx_ratio":  optFloat(n.ShortCircuitRXRatio),
		"in_service":              n.InService,
	}
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
