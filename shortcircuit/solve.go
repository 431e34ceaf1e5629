package shortcircuit

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/numeric"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

// Solve computes the initial symmetrical short-circuit current at the
// resolved fault bus for in.FaultType in four steps: assemble the positive/negative/zero sequence Y-bus
// matrices, insert the virtual-ground source impedance, solve for the
// fault bus's driving-point impedance via numeric.InvertColumn, and
// combine the sequence impedances per the standard fault-type formula.
func Solve(in Input) (Result, error) {
	switch in.FaultType {
	case ThreePhase, SinglePhaseGround, TwoPhase, TwoPhaseGround:
	default:
		return Result{}, ErrUnknownFaultType
	}

	faultNodeID, err := resolveFaultNode(in)
	if err != nil {
		return Result{}, err
	}

	c := in.CFactor
	if c <= 0 {
		c = DefaultVoltageFactor
	}

	result := Result{FaultType: in.FaultType, FaultNodeID: faultNodeID, CFactor: c}

	island, slackIDs, err := islandForNode(in.Graph, faultNodeID)
	if err != nil {
		return Result{}, err
	}
	if len(island) == 0 {
		return Result{}, ErrEmptyIsland
	}
	if len(slackIDs) == 0 {
		result.Cause = CauseFaultIslandWithoutSource
		return result, nil
	}

	slackUKV, err := islandSlackVoltage(in.Graph, slackIDs[0])
	if err != nil {
		return Result{}, err
	}
	zBase := slackUKV * slackUKV / in.BaseMVA

	posResult, err := positiveNegativeYbus(in.Graph, island, in.BaseMVA, slackUKV, in.Taps)
	if err != nil {
		return Result{}, err
	}
	if err := insertSources(posResult.Y, posResult.IndexMap, in.Graph, slackIDs, in.BaseMVA); err != nil {
		return Result{}, err
	}

	faultIdx, ok := posResult.IndexMap[faultNodeID]
	if !ok {
		return Result{}, ErrFaultNodeNotFound
	}

	z1Col, err := numeric.InvertColumn(posResult.Y, faultIdx)
	if err != nil {
		return Result{}, err
	}
	// The Y-bus is per-unit on (slackUKV, baseMVA); the IEC formulas
	// below want the driving-point impedance in ohms.
	z1 := z1Col[faultIdx] * complex(zBase, 0)
	z2 := z1 // negative-sequence network mirrors positive-sequence (see sequence.go doc)

	result.ZPositiveOhm = z1
	result.ZNegativeOhm = z2

	needsZero := in.FaultType == SinglePhaseGround || in.FaultType == TwoPhaseGround
	var z0 complex128
	if needsZero {
		zeroY, zeroIdx, missing, err := zeroSequenceYbus(in.Graph, island, in.BaseMVA, slackUKV, in.Taps)
		if err != nil {
			return Result{}, err
		}
		if len(missing) > 0 {
			result.Cause = CauseSequenceDataMissing
			result.MissingElements = missing
			return result, nil
		}
		if err := insertSources(zeroY, zeroIdx, in.Graph, slackIDs, in.BaseMVA); err != nil {
			return Result{}, err
		}
		zFaultIdx, ok := zeroIdx[faultNodeID]
		if !ok {
			return Result{}, ErrFaultNodeNotFound
		}
		z0Col, err := numeric.InvertColumn(zeroY, zFaultIdx)
		if err != nil {
			return Result{}, err
		}
		z0 = z0Col[zFaultIdx] * complex(zBase, 0)
		result.ZZeroOhm = z0
	}

	un := slackUKV // kV, line-to-line nominal at the fault bus voltage level
	ikPrimeKA := faultCurrentKA(in.FaultType, c, un, z1, z2, z0)
	result.IkPrimeKA = ikPrimeKA

	rOverX := real(z1) / imag(z1)
	kappa := 1.02 + 0.98*math.Exp(-3*rOverX)
	result.Kappa = kappa
	result.IkPeakKA = kappa * math.Sqrt2 * ikPrimeKA

	result.InverterContributionKA = inverterContribution(in.Graph, island, in.FaultType) / 1000

	if in.IncludeBranchContributions {
		result.BranchContributionsKA = branchContributions(in, island, z1Col, faultIdx, posResult.IndexMap, c, zBase, un)
	}

	// Far-from-generator case (IEC 60909 §4.3.4): with no synchronous
	// machine sub-transient data modeled anywhere in entity.Generator,
	// the breaking current and steady-state current both equal the
	// initial symmetrical current. TkS/TbS are accepted on Input for a
	// future near-generator decay model but do not perturb this result.
	result.IbKA = ikPrimeKA
	result.IkSteadyKA = ikPrimeKA

	return result, nil
}

// resolveFaultNode maps a branch-positioned fault to its nearest
// endpoint.
func resolveFaultNode(in Input) (string, error) {
	if in.FaultNodeID != "" {
		return in.FaultNodeID, nil
	}
	if in.FaultBranchID == "" {
		return "", ErrFaultNodeNotFound
	}
	b, err := in.Graph.GetBranch(in.FaultBranchID)
	if err != nil {
		return "", ErrFaultBranchNotFound
	}
	c := b.Common()
	if in.PositionPercent <= 50 {
		return c.FromNodeID, nil
	}
	return c.ToNodeID, nil
}

// faultCurrentKA combines the sequence impedances via the standard
// IEC 60909 formulas for each fault type, with impedances in ohms and
// unKV the line-to-line nominal voltage in kV, yielding kA.
func faultCurrentKA(ft FaultType, c, unKV float64, z1, z2, z0 complex128) float64 {
	eph := c * unKV / math.Sqrt(3) // phase driving voltage, kV
	switch ft {
	case ThreePhase:
		return eph / cmplx.Abs(z1)
	case TwoPhase:
		return c * unKV / cmplx.Abs(z1+z2)
	case SinglePhaseGround:
		return 3 * eph / cmplx.Abs(z1+z2+z0)
	case TwoPhaseGround:
		// Positive-sequence fault current magnitude with Z2 || Z0 shunting
		// the fault path, then scaled by sqrt(3) to approximate the total
		// two-phase-to-ground current magnitude.
		zPar := (z2 * z0) / (z2 + z0)
		ia1 := complex(eph, 0) / (z1 + zPar)
		return math.Sqrt(3) * cmplx.Abs(ia1)
	default:
		return 0
	}
}

func islandSlackVoltage(g *topology.Graph, slackID string) (float64, error) {
	n, err := g.GetNode(slackID)
	if err != nil {
		return 0, err
	}
	return n.VoltageLevelKV, nil
}

// branchContributions splits the positive-sequence fault current over
// the island's branches using the post-fault voltage profile
// v_i = c * (1 - Z_i,f / Z_f,f) and each branch's own series
// admittance, reporting the sending-end current magnitude in kA.
func branchContributions(in Input, island []string, z1Col []complex128, faultIdx int, indexMap map[string]int, c, zBase, unKV float64) map[string]float64 {
	zkk := z1Col[faultIdx]
	if zkk == 0 {
		return nil
	}
	v := make(map[string]complex128, len(indexMap))
	for id, i := range indexMap {
		v[id] = complex(c, 0) * (1 - z1Col[i]/zkk)
	}

	inIsland := make(map[string]bool, len(island))
	for _, id := range island {
		inIsland[id] = true
	}

	iBaseKA := in.BaseMVA / (math.Sqrt(3) * unKV)

	out := make(map[string]float64)
	for _, b := range in.Graph.Branches() {
		cm := b.Common()
		if !cm.InService || !inIsland[cm.FromNodeID] || !inIsland[cm.ToNodeID] {
			continue
		}
		var ys complex128
		tap := 1.0
		switch t := b.(type) {
		case *entity.LineBranch:
			ys = 1 / t.TotalImpedanceOhm()
		case *entity.TransformerBranch:
			ys = 1 / transformerSeriesImpedanceOhm(t)
			tap = 1 + float64(t.TapPosition)*t.TapStepPercent/100
			if t.TapPosition == 0 {
				if ov, ok := in.Taps[cm.ID]; ok {
					tap = ov
				}
			}
		default:
			continue
		}
		ysPU := ys * complex(zBase, 0)
		tc := complex(tap, 0)
		iFrom := (ysPU/(tc*tc))*v[cm.FromNodeID] - (ysPU/tc)*v[cm.ToNodeID]
		out[cm.ID] = cmplx.Abs(iFrom) * iBaseKA
	}
	return out
}

func transformerSeriesImpedanceOhm(t *entity.TransformerBranch) complex128 {
	sn := t.RatedPowerMVA
	r := t.PkKW / 1000 / sn
	uk := t.UkPercent / 100
	x := math.Sqrt(math.Max(0, uk*uk-r*r))
	zPU := complex(r, x)
	scale := t.VoltageLVkV * t.VoltageLVkV / sn
	return zPU * complex(scale, 0)
}

// inverterContribution sums I_k" = KSC*RatedCurrentA for every
// in-service inverter source attached to a node in the fault island;
// contributions are additive to the network fault current rather than
// folded into the sequence admittance.
func inverterContribution(g *topology.Graph, island []string, ft FaultType) float64 {
	ids := append([]string(nil), island...)
	sort.Strings(ids)

	var total float64
	for _, id := range ids {
		srcs, err := g.GetInverterSourcesAtNode(id)
		if err != nil {
			continue
		}
		for _, src := range srcs {
			if !src.InService {
				continue
			}
			switch ft {
			case ThreePhase:
				total += src.ShortCircuitCurrentA()
			case TwoPhase, TwoPhaseGround:
				if src.ContributesNegativeSequence {
					total += src.ShortCircuitCurrentA()
				}
			case SinglePhaseGround:
				if src.ContributesZeroSequence {
					total += src.ShortCircuitCurrentA()
				}
			}
		}
	}
	return total
}
