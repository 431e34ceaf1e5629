package fixtures

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

const minRadialNodes = 2

// Radial returns a Constructor building an n-bus radial feeder: a
// SLACK source at index 0 followed by n-1 PQ buses chained by line
// branches, each carrying a uniform load.
func Radial(n int) Constructor {
	return func(g *topology.Graph, cfg config) error {
		if n < minRadialNodes {
			return fmt.Errorf("%s: n=%d: %w", "Radial", n, ErrTooFewNodes)
		}

		uPU := cfg.slackUPU
		angle := 0.0
		if err := g.AddNode(entity.Node{
			ID:                 nodeID(cfg, 0),
			NodeType:           entity.Slack,
			VoltageLevelKV:     cfg.voltageLevelKV,
			VoltageMagnitudePU: &uPU,
			VoltageAngleRad:    &angle,
			InService:          true,
		}); err != nil {
			return err
		}

		for i := 1; i < n; i++ {
			p, q := cfg.loadPMW, cfg.loadQMvar
			if err := g.AddNode(entity.Node{
				ID:                nodeID(cfg, i),
				NodeType:          entity.PQ,
				VoltageLevelKV:    cfg.voltageLevelKV,
				ActivePowerMW:     &p,
				ReactivePowerMvar: &q,
				InService:         true,
			}); err != nil {
				return err
			}

			branch := &entity.LineBranch{
				BranchCommon: entity.BranchCommon{
					ID:         branchID(cfg, i),
					FromNodeID: nodeID(cfg, i-1),
					ToNodeID:   nodeID(cfg, i),
					InService:  true,
				},
				BranchKind:    entity.Line,
				ROhmPerKm:     cfg.rOhmPerKm,
				XOhmPerKm:     cfg.xOhmPerKm,
				BUsPerKm:      cfg.bUsPerKm,
				LengthKm:      cfg.lengthKm,
				RatedCurrentA: cfg.ratedCurrentA,
			}
			if err := g.AddBranch(branch, false); err != nil {
				return err
			}
		}
		return nil
	}
}
