package fixtures

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

const minRingNodes = 3

// Ring returns a Constructor building the same n-bus feeder as Radial
// plus a normally-open tie switch closing the loop back to the slack,
// matching how MV rings are actually operated radially.
func Ring(n int) Constructor {
	radial := Radial(n)
	return func(g *topology.Graph, cfg config) error {
		if n < minRingNodes {
			return fmt.Errorf("%s: n=%d: %w", "Ring", n, ErrTooFewNodes)
		}
		if err := radial(g, cfg); err != nil {
			return err
		}

		tie := entity.Switch{
			ID:             fmt.Sprintf("%sTIE", cfg.idPrefix),
			FromNodeID:     nodeID(cfg, n-1),
			ToNodeID:       nodeID(cfg, 0),
			SwitchType:     entity.Disconnector,
			State:          entity.Open,
			InService:      true,
			RatedCurrentA:  cfg.ratedCurrentA,
			RatedVoltageKV: cfg.voltageLevelKV,
		}
		return g.AddSwitch(tie)
	}
}
