package ybus

import (
	"fmt"
	"math"
	"sort"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/numeric"
	"github.com/radekizk-sketch/mvgrid-core/obslog"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

// ShuntSpec is a per-unit shunt admittance to overlay on a node's
// diagonal.
type ShuntSpec struct {
	NodeID string
	GPU    float64
	BPU    float64
}

// TapRecord documents one applied transformer tap ratio, naming
// whether it came from the transformer's own tap_position ("core") or
// from the caller-supplied overlay map ("overlay").
type TapRecord struct {
	BranchID string
	Tap      float64
	Source   string
}

// ShuntRecord documents one applied shunt overlay.
type ShuntRecord struct {
	NodeID string
	GPU    float64
	BPU    float64
}

// Trace is the audit record Build attaches to its result.
type Trace struct {
	Source       string
	N            int
	NodeIndexMap map[string]int
	Note         string
}

// Result is everything Build returns.
type Result struct {
	Y             *numeric.ComplexMatrix
	IndexMap      map[string]int
	Trace         Trace
	AppliedTaps   []TapRecord
	AppliedShunts []ShuntRecord
}

// Build assembles the per-unit Y-bus for the island islandNodeIDs
// within g, in five steps: lexical index
// assignment, series/shunt admittance per branch, the off-nominal tap
// model, per-unit conversion (or an ohm-domain fallback when the slack
// voltage is unknown), and shunt overlays.
func Build(g *topology.Graph, islandNodeIDs []string, baseMVA, slackUKV float64, shunts []ShuntSpec, taps map[string]float64) (*Result, error) {
	return BuildWithLog(g, islandNodeIDs, baseMVA, slackUKV, shunts, taps, obslog.Nop())
}

// BuildWithLog is Build with an attached observational logger: every
// applied tap and shunt overlay is emitted as a structured debug
// event. The returned Result is identical regardless of the logger.
func BuildWithLog(g *topology.Graph, islandNodeIDs []string, baseMVA, slackUKV float64, shunts []ShuntSpec, taps map[string]float64, log obslog.Logger) (*Result, error) {
	if len(islandNodeIDs) == 0 {
		return nil, ErrEmptyIsland
	}

	for branchID := range taps {
		b, err := g.GetBranch(branchID)
		if err != nil {
			continue // overlay may cover branches outside this island
		}
		if _, ok := b.(*entity.TransformerBranch); !ok {
			return nil, fmt.Errorf("%w: %q", ErrTapOnNonTransformer, branchID)
		}
	}

	ids := make([]string, len(islandNodeIDs))
	copy(ids, islandNodeIDs)
	sort.Strings(ids)

	indexMap := make(map[string]int, len(ids))
	inIsland := make(map[string]bool, len(ids))
	for i, id := range ids {
		if _, err := g.GetNode(id); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownIslandNode, id)
		}
		indexMap[id] = i
		inIsland[id] = true
	}

	n := len(ids)
	y, err := numeric.NewComplexMatrix(n, n)
	if err != nil {
		return nil, err
	}

	var appliedTaps []TapRecord
	for _, b := range g.Branches() {
		c := b.Common()
		if !c.InService || !inIsland[c.FromNodeID] || !inIsland[c.ToNodeID] {
			continue
		}
		fi, ti := indexMap[c.FromNodeID], indexMap[c.ToNodeID]

		switch v := b.(type) {
		case *entity.LineBranch:
			ys := 1 / v.TotalImpedanceOhm()
			bTotal := v.TotalChargingMicrosiemens() * 1e-6
			ysh := complex(0, bTotal/2)
			stampBranch(y, fi, ti, ys, ysh, ysh, 1)

		case *entity.TransformerBranch:
			zk := transformerImpedanceOhm(v)
			ys := 1 / zk
			tap, source := resolveTap(v, taps)
			appliedTaps = append(appliedTaps, TapRecord{BranchID: c.ID, Tap: tap, Source: source})
			stampBranch(y, fi, ti, ys, 0, 0, tap)
		}
	}

	trace := Trace{Source: "mvgrid-core/ybus", N: n, NodeIndexMap: indexMap}

	if slackUKV > 0 {
		zBase := slackUKV * slackUKV / baseMVA
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				y.Set(r, c, y.At(r, c)*complex(zBase, 0))
			}
		}
	} else {
		trace.Note = "slack voltage unknown (<=0); matrix kept in ohm domain"
	}

	var appliedShunts []ShuntRecord
	for _, s := range shunts {
		idx, ok := indexMap[s.NodeID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrShuntUnknownNode, s.NodeID)
		}
		y.Add(idx, idx, complex(s.GPU, s.BPU))
		appliedShunts = append(appliedShunts, ShuntRecord{NodeID: s.NodeID, GPU: s.GPU, BPU: s.BPU})
	}

	for _, t := range appliedTaps {
		log.Event("debug", "ybus_tap_applied").
			Str("branch_id", t.BranchID).Float64("tap", t.Tap).Str("source", t.Source).Send()
	}
	for _, s := range appliedShunts {
		log.Event("debug", "ybus_shunt_applied").
			Str("node_id", s.NodeID).Float64("g_pu", s.GPU).Float64("b_pu", s.BPU).Send()
	}

	return &Result{
		Y:             y,
		IndexMap:      indexMap,
		Trace:         trace,
		AppliedTaps:   appliedTaps,
		AppliedShunts: appliedShunts,
	}, nil
}

// stampBranch applies the standard pi-model plus off-nominal-ratio
// stamp: diagonal ys/t^2 + shunt on the from side,
// off-diagonal -ys/t symmetric, diagonal ys + shunt on the to side.
func stampBranch(y *numeric.ComplexMatrix, fi, ti int, ys, yshFrom, yshTo complex128, tap float64) {
	t := complex(tap, 0)
	y.Add(fi, fi, ys/(t*t)+yshFrom)
	y.Add(fi, ti, -ys/t)
	y.Add(ti, fi, -ys/t)
	y.Add(ti, ti, ys+yshTo)
}

// transformerImpedanceOhm computes the transformer's short-circuit
// impedance referred to the LV side.
func transformerImpedanceOhm(t *entity.TransformerBranch) complex128 {
	sn := t.RatedPowerMVA
	r := t.PkKW / 1000 / sn
	uk := t.UkPercent / 100
	x := math.Sqrt(math.Max(0, uk*uk-r*r))
	zPU := complex(r, x)
	scale := t.VoltageLVkV * t.VoltageLVkV / sn
	return zPU * complex(scale, 0)
}

// resolveTap picks the effective tap ratio for a transformer branch
//: the transformer's own tap_position/tap_step
// unless it is at the neutral position (0), in which case the overlay
// map may supply a ratio instead.
func resolveTap(t *entity.TransformerBranch, overlay map[string]float64) (float64, string) {
	if t.TapPosition == 0 {
		if v, ok := overlay[t.ID]; ok {
			return v, "overlay"
		}
	}
	return 1 + float64(t.TapPosition)*t.TapStepPercent/100, "core"
}
