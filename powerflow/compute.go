package powerflow

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/radekizk-sketch/mvgrid-core/topology"
	"github.com/radekizk-sketch/mvgrid-core/ybus"
)

// busType classifies a bus for the current iteration. PV buses may be
// reclassified to busPQ mid-solve; slack never changes.
type busType int

const (
	busSlack busType = iota
	busPQ
	busPV
)

// network is the assembled, index-ordered view both solvers iterate
// over: lexically sorted bus ids, their current classification, the
// per-unit Y-bus, and the specified injections.
type network struct {
	order   []string
	types   []busType
	y       *ybus.Result
	pSpecPU []float64
	qSpecPU []float64
	qMinPU  []float64 // only meaningful for busPV entries
	qMaxPU  []float64
}

// islandForSlack returns the in-service-connected island containing
// the slack node; everything outside it is reported as not solved.
func islandForSlack(g *topology.Graph, slackID string) ([]string, error) {
	islands := g.FindIslands(true)
	for _, isl := range islands {
		for _, id := range isl {
			if id == slackID {
				return isl, nil
			}
		}
	}
	return nil, fmt.Errorf("powerflow: slack node %q has no island", slackID)
}

// buildNetwork assembles the shared solver state: bus ordering and
// classification, the per-unit Y-bus via ybus.Build, and per-unit
// power specifications.
func buildNetwork(in Input) (*network, []string, error) {
	island, err := islandForSlack(in.Graph, in.Slack.NodeID)
	if err != nil {
		return nil, nil, err
	}

	sorted := make([]string, len(island))
	copy(sorted, island)
	sort.Strings(sorted)

	inIsland := make(map[string]bool, len(sorted))
	for _, id := range sorted {
		inIsland[id] = true
	}

	var notSolved []string
	for _, n := range in.Graph.Nodes() {
		if !inIsland[n.ID] {
			notSolved = append(notSolved, n.ID)
		}
	}
	sort.Strings(notSolved)

	shunts := make([]ybus.ShuntSpec, 0, len(in.Shunts))
	for _, s := range in.Shunts {
		shunts = append(shunts, ybus.ShuntSpec{NodeID: s.NodeID, GPU: s.GPU, BPU: s.BPU})
	}

	yResult, err := ybus.Build(in.Graph, sorted, in.BaseMVA, slackBaseKV(in), shunts, in.Taps)
	if err != nil {
		return nil, nil, err
	}

	pqByID := make(map[string]PQSpec, len(in.PQ))
	for _, pq := range in.PQ {
		pqByID[pq.NodeID] = pq
	}
	pvByID := make(map[string]PVSpec, len(in.PV))
	for _, pv := range in.PV {
		pvByID[pv.NodeID] = pv
	}

	n := len(sorted)
	net := &network{
		order:   sorted,
		types:   make([]busType, n),
		y:       yResult,
		pSpecPU: make([]float64, n),
		qSpecPU: make([]float64, n),
		qMinPU:  make([]float64, n),
		qMaxPU:  make([]float64, n),
	}

	for i, id := range sorted {
		switch {
		case id == in.Slack.NodeID:
			net.types[i] = busSlack
		case inMapPQ(pqByID, id):
			pq := pqByID[id]
			net.types[i] = busPQ
			net.pSpecPU[i] = -pq.PMW / in.BaseMVA
			net.qSpecPU[i] = -pq.QMvar / in.BaseMVA
		case inMapPV(pvByID, id):
			pv := pvByID[id]
			net.types[i] = busPV
			net.pSpecPU[i] = pv.PMW / in.BaseMVA
			net.qMinPU[i] = pv.QMinMvar / in.BaseMVA
			net.qMaxPU[i] = pv.QMaxMvar / in.BaseMVA
		default:
			net.types[i] = busPQ
		}
	}
	return net, notSolved, nil
}

func inMapPQ(m map[string]PQSpec, id string) bool { _, ok := m[id]; return ok }
func inMapPV(m map[string]PVSpec, id string) bool { _, ok := m[id]; return ok }

// slackBaseKV resolves the slack bus's nominal voltage for per-unit
// conversion; falls back to 0 (ohm-domain Y-bus) if the node is
// missing its voltage level, which Preflight already guards against.
func slackBaseKV(in Input) float64 {
	node, err := in.Graph.GetNode(in.Slack.NodeID)
	if err != nil {
		return 0
	}
	return node.VoltageLevelKV
}

// initialState returns the starting V/theta vectors: flat (1 angle 0)
// when Options.FlatStart is set, otherwise warm-started from whatever
// voltage state the graph's nodes carry (falling back to flat values
// for nodes without one). Slack and PV magnitudes are always stamped
// from their specs regardless of the start mode.
func initialState(net *network, in Input) (v, theta []float64) {
	n := len(net.order)
	v = make([]float64, n)
	theta = make([]float64, n)
	for i, t := range net.types {
		switch t {
		case busSlack:
			v[i] = in.Slack.UPU
			theta[i] = in.Slack.AngleRad
		case busPV:
			v[i] = in.PV[pvIndex(in, net.order[i])].UPU
			if !in.Options.FlatStart {
				theta[i] = nodeAngleOrZero(in, net.order[i])
			}
		default:
			v[i] = 1.0
			if !in.Options.FlatStart {
				if node, err := in.Graph.GetNode(net.order[i]); err == nil {
					if node.VoltageMagnitudePU != nil && *node.VoltageMagnitudePU > 0 {
						v[i] = *node.VoltageMagnitudePU
					}
					if node.VoltageAngleRad != nil {
						theta[i] = *node.VoltageAngleRad
					}
				}
			}
		}
	}
	return v, theta
}

func nodeAngleOrZero(in Input, id string) float64 {
	node, err := in.Graph.GetNode(id)
	if err != nil || node.VoltageAngleRad == nil {
		return 0
	}
	return *node.VoltageAngleRad
}

func pvIndex(in Input, id string) int {
	for i, pv := range in.PV {
		if pv.NodeID == id {
			return i
		}
	}
	return 0
}

// injections computes complex power S_i = V_i * conj(sum_k Y_ik V_k)
// for every bus given the current polar state.
func injections(net *network, v, theta []float64) (p, q []float64) {
	n := len(net.order)
	p = make([]float64, n)
	q = make([]float64, n)
	vc := make([]complex128, n)
	for i := range vc {
		vc[i] = cmplx.Rect(v[i], theta[i])
	}
	for i := 0; i < n; i++ {
		var acc complex128
		for k := 0; k < n; k++ {
			acc += net.y.Y.At(i, k) * vc[k]
		}
		s := vc[i] * cmplx.Conj(acc)
		p[i] = real(s)
		q[i] = imag(s)
	}
	return p, q
}

// mismatch computes dP/dQ for non-slack (dP) and PQ-only (dQ) buses,
// plus the infinity-norm magnitude used for the convergence test.
type mismatchResult struct {
	dP        map[string]float64
	dQ        map[string]float64
	maxAbs    float64
	euclidean float64
}

func computeMismatch(net *network, pCalc, qCalc []float64) mismatchResult {
	res := mismatchResult{dP: map[string]float64{}, dQ: map[string]float64{}}
	var sumSq float64
	for i, t := range net.types {
		id := net.order[i]
		if t == busSlack {
			continue
		}
		dp := net.pSpecPU[i] - pCalc[i]
		res.dP[id] = dp
		if math.Abs(dp) > res.maxAbs {
			res.maxAbs = math.Abs(dp)
		}
		sumSq += dp * dp

		if t == busPQ {
			dq := net.qSpecPU[i] - qCalc[i]
			res.dQ[id] = dq
			if math.Abs(dq) > res.maxAbs {
				res.maxAbs = math.Abs(dq)
			}
			sumSq += dq * dq
		}
	}
	res.euclidean = math.Sqrt(sumSq)
	return res
}

// applyPVSwitch enforces PV reactive-power limits: a PV bus whose
// calculated Q leaves [qMin, qMax] is frozen to PQ at the violated
// limit for the remainder of the solve. Returns the switch events
// recorded this iteration.
func applyPVSwitch(net *network, qCalc []float64, iter int) []PVSwitchEvent {
	var events []PVSwitchEvent
	for i, t := range net.types {
		if t != busPV {
			continue
		}
		id := net.order[i]
		switch {
		case qCalc[i] > net.qMaxPU[i]:
			net.types[i] = busPQ
			net.qSpecPU[i] = net.qMaxPU[i]
			events = append(events, PVSwitchEvent{Iter: iter, NodeID: id, QCalcMvar: qCalc[i], LimitMvar: net.qMaxPU[i], Direction: "above_max"})
		case qCalc[i] < net.qMinPU[i]:
			net.types[i] = busPQ
			net.qSpecPU[i] = net.qMinPU[i]
			events = append(events, PVSwitchEvent{Iter: iter, NodeID: id, QCalcMvar: qCalc[i], LimitMvar: net.qMinPU[i], Direction: "below_min"})
		}
	}
	return events
}
