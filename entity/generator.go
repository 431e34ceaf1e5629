package entity

import "fmt"

// Generator is a rotating-machine power source attached to a node,
// distinct from the inverter-based InverterSource.
type Generator struct {
	ID     string
	NodeID string
	Name   string

	ActivePowerMW     float64
	ReactivePowerMvar float64
	InService         bool
}

func (g Generator) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: generator id", ErrMissingField)
	}
	if g.NodeID == "" {
		return fmt.Errorf("%w: generator %q node_id", ErrMissingField, g.ID)
	}
	return nil
}

func (g Generator) ToCanonical() map[string]any {
	return map[string]any{
		"id":                  g.ID,
		"node_id":             g.NodeID,
		"name":                g.Name,
		"active_power_mw":     g.ActivePowerMW,
		"reactive_power_mvar": g.ReactivePowerMvar,
		"in_service":          g.InService,
	}
}
