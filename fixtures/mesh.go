package fixtures

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

const minMeshNodes = 3

// Mesh returns a Constructor building a fully meshed n-bus network
// (every pair of buses directly connected) with a slack source at
// index 0: a stress fixture for Y-bus assembly and short-circuit
// driving-point impedance solves, where the admittance matrix is
// dense rather than sparse.
func Mesh(n int) Constructor {
	return func(g *topology.Graph, cfg config) error {
		if n < minMeshNodes {
			return fmt.Errorf("%s: n=%d: %w", "Mesh", n, ErrTooFewNodes)
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
		}

		count := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				branch := &entity.LineBranch{
					BranchCommon: entity.BranchCommon{
						ID:         fmt.Sprintf("%sM%d", cfg.idPrefix, count),
						FromNodeID: nodeID(cfg, i),
						ToNodeID:   nodeID(cfg, j),
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
				count++
			}
		}
		return nil
	}
}
