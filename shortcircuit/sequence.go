package shortcircuit

import (
	"fmt"
	"math"
	"sort"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/numeric"
	"github.com/radekizk-sketch/mvgrid-core/topology"
	"github.com/radekizk-sketch/mvgrid-core/ybus"
)

// islandForNode returns the in-service-connected island containing
// nodeID, and the sorted slack node ids found within it (a network may
// carry more than one source).
func islandForNode(g *topology.Graph, nodeID string) ([]string, []string, error) {
	islands := g.FindIslands(true)
	for _, isl := range islands {
		for _, id := range isl {
			if id != nodeID {
				continue
			}
			var slacks []string
			for _, memberID := range isl {
				n, err := g.GetNode(memberID)
				if err == nil && n.NodeType == entity.Slack {
					slacks = append(slacks, memberID)
				}
			}
			sort.Strings(slacks)
			sorted := append([]string(nil), isl...)
			sort.Strings(sorted)
			return sorted, slacks, nil
		}
	}
	return nil, nil, ErrFaultNodeNotFound
}

// sourceImpedanceOhm computes the Thevenin source impedance behind a
// SLACK node: Z_src = U^2/Sk'', X = Z/sqrt(1+r^2),
// R = X*r.
func sourceImpedanceOhm(n entity.Node) (complex128, bool) {
	if n.ShortCircuitPowerMVA == nil || *n.ShortCircuitPowerMVA <= 0 {
		return 0, false
	}
	u := n.VoltageLevelKV
	sk := *n.ShortCircuitPowerMVA
	z := u * u / sk
	r := 0.0
	if n.ShortCircuitRXRatio != nil {
		r = *n.ShortCircuitRXRatio
	}
	x := z / math.Sqrt(1+r*r)
	return complex(x*r, x), true
}

// positiveNegativeYbus builds the positive- and negative-sequence
// per-unit admittance matrix for the island, which this solver treats
// as identical: passive network elements (lines, cables, transformers)
// present the same impedance to positive- and negative-sequence
// currents, and no per-element negative-sequence override exists in
// this model.
func positiveNegativeYbus(g *topology.Graph, island []string, baseMVA, slackUKV float64, taps map[string]float64) (*ybus.Result, error) {
	return ybus.Build(g, island, baseMVA, slackUKV, nil, taps)
}

// zeroSequenceYbus builds the zero-sequence admittance matrix from
// each branch's optional ZeroSequenceParams. A line/cable missing
// ZeroSequence data is left unstamped (open in the zero-sequence
// network) and reported via missing; transformers use their
// positive-sequence impedance as a zero-sequence approximation absent
// vector-group-specific modeling (documented limitation).
func zeroSequenceYbus(g *topology.Graph, island []string, baseMVA, slackUKV float64, taps map[string]float64) (*numeric.ComplexMatrix, map[string]int, []string, error) {
	sorted := append([]string(nil), island...)
	sort.Strings(sorted)

	indexMap := make(map[string]int, len(sorted))
	inIsland := make(map[string]bool, len(sorted))
	for i, id := range sorted {
		indexMap[id] = i
		inIsland[id] = true
	}

	n := len(sorted)
	y, err := numeric.NewComplexMatrix(n, n)
	if err != nil {
		return nil, nil, nil, err
	}

	var missing []string
	for _, b := range g.Branches() {
		c := b.Common()
		if !c.InService || !inIsland[c.FromNodeID] || !inIsland[c.ToNodeID] {
			continue
		}
		fi, ti := indexMap[c.FromNodeID], indexMap[c.ToNodeID]

		switch v := b.(type) {
		case *entity.LineBranch:
			if v.ZeroSequence == nil {
				missing = append(missing, c.ID)
				continue
			}
			z0 := complex(v.ZeroSequence.R0OhmPerKm*v.LengthKm, v.ZeroSequence.X0OhmPerKm*v.LengthKm)
			ys := 1 / z0
			b0Total := v.ZeroSequence.B0UsPerKm * v.LengthKm * 1e-6
			ysh := complex(0, b0Total/2)
			stampZeroSeq(y, fi, ti, ys, ysh, ysh)

		case *entity.TransformerBranch:
			sn := v.RatedPowerMVA
			r := v.PkKW / 1000 / sn
			uk := v.UkPercent / 100
			x := math.Sqrt(math.Max(0, uk*uk-r*r))
			zPU := complex(r, x)
			scale := v.VoltageLVkV * v.VoltageLVkV / sn
			ys := 1 / (zPU * complex(scale, 0))
			stampZeroSeq(y, fi, ti, ys, 0, 0)
		}
	}

	if slackUKV > 0 {
		zBase := slackUKV * slackUKV / baseMVA
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				y.Set(r, c, y.At(r, c)*complex(zBase, 0))
			}
		}
	}

	sort.Strings(missing)
	return y, indexMap, missing, nil
}

func stampZeroSeq(y *numeric.ComplexMatrix, fi, ti int, ys, yshFrom, yshTo complex128) {
	y.Add(fi, fi, ys+yshFrom)
	y.Add(fi, ti, -ys)
	y.Add(ti, fi, -ys)
	y.Add(ti, ti, ys+yshTo)
}

// insertSources adds 1/Z_src as a shunt admittance at every slack
// bus's diagonal entry, connecting it to the virtual ground reference.
func insertSources(y *numeric.ComplexMatrix, indexMap map[string]int, g *topology.Graph, slackIDs []string, baseMVA float64) error {
	for _, id := range slackIDs {
		idx, ok := indexMap[id]
		if !ok {
			continue
		}
		n, err := g.GetNode(id)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrFaultNodeNotFound, id)
		}
		zOhm, ok := sourceImpedanceOhm(n)
		if !ok {
			continue
		}
		zBase := n.VoltageLevelKV * n.VoltageLevelKV / baseMVA
		zPU := zOhm / complex(zBase, 0)
		y.Add(idx, idx, 1/zPU)
	}
	return nil
}
