package entity

import "fmt"

// Load is a power-sink injection attached to a node. It exists
// alongside a PQ node's own ActivePowerMW/ReactivePowerMvar fields so
// the readiness validator can answer "does this network have any
// loads or generators" independent of how a bus classifies itself for
// power flow.
type Load struct {
	ID     string
	NodeID string
	Name   string

	ActivePowerMW     float64
	ReactivePowerMvar float64
	InService         bool
}

func (l Load) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: load id", ErrMissingField)
	}
	if l.NodeID == "" {
		return fmt.Errorf("%w: load %q node_id", ErrMissingField, l.ID)
	}
	return nil
}

func (l Load) ToCanonical() map[string]any {
	return map[string]any{
		"id":                  l.ID,
		"node_id":             l.NodeID,
		"name":                l.Name,
		"active_power_mw":     l.ActivePowerMW,
		"reactive_power_mvar": l.ReactivePowerMvar,
		"in_service":          l.InService,
	}
}
