package powerflow

import (
	"math"
	"math/cmplx"

	"github.com/radekizk-sketch/mvgrid-core/entity"
)

// computeBranchFlows recomputes each in-service island branch's
// two-ended complex power flow from the converged state, using the
// same pi-model plus off-nominal-ratio admittance the Y-bus assembly
// used.
func computeBranchFlows(in Input, net *network, v, theta []float64) (map[string]BranchFlow, float64, float64) {
	vc := make(map[string]complex128, len(net.order))
	for i, id := range net.order {
		vc[id] = cmplx.Rect(v[i], theta[i])
	}

	flows := make(map[string]BranchFlow)
	var lossesMW, lossesMvar float64

	zBase := zBaseFor(in)

	for _, b := range in.Graph.Branches() {
		c := b.Common()
		vFrom, okFrom := vc[c.FromNodeID]
		vTo, okTo := vc[c.ToNodeID]
		if !c.InService || !okFrom || !okTo {
			continue
		}

		var ys complex128
		var yshFrom, yshTo complex128
		tap := 1.0

		switch t := b.(type) {
		case *entity.LineBranch:
			ys = 1 / t.TotalImpedanceOhm()
			bTotal := t.TotalChargingMicrosiemens() * 1e-6
			yshFrom = complex(0, bTotal/2)
			yshTo = yshFrom
		case *entity.TransformerBranch:
			ys = 1 / transformerImpedanceOhmPF(t)
			tap = resolveTapPF(t, in.Taps)
		default:
			continue
		}

		if zBase > 0 {
			ys *= complex(zBase, 0)
			yshFrom *= complex(zBase, 0)
			yshTo *= complex(zBase, 0)
		}

		// Off-nominal-ratio pi-stamp (mirrors ybus.stampBranch): I_from =
		// (ys/t^2 + ysh)*V_from - (ys/t)*V_to, I_to = -(ys/t)*V_from +
		// (ys+ysh)*V_to.
		tapC := complex(tap, 0)
		iFrom := (ys/(tapC*tapC)+yshFrom)*vFrom - (ys/tapC)*vTo
		iTo := -(ys/tapC)*vFrom + (ys+yshTo)*vTo

		sFrom := vFrom * cmplx.Conj(iFrom)
		sTo := vTo * cmplx.Conj(iTo)

		flows[c.ID] = BranchFlow{
			SFromMW:   real(sFrom) * in.BaseMVA,
			SFromMvar: imag(sFrom) * in.BaseMVA,
			SToMW:     real(sTo) * in.BaseMVA,
			SToMvar:   imag(sTo) * in.BaseMVA,
			CurrentPU: cmplx.Abs(iFrom),
		}

		lossesMW += (real(sFrom) + real(sTo)) * in.BaseMVA
		lossesMvar += (imag(sFrom) + imag(sTo)) * in.BaseMVA
	}

	return flows, lossesMW, lossesMvar
}

func zBaseFor(in Input) float64 {
	node, err := in.Graph.GetNode(in.Slack.NodeID)
	if err != nil || node.VoltageLevelKV <= 0 {
		return 0
	}
	return node.VoltageLevelKV * node.VoltageLevelKV / in.BaseMVA
}

func transformerImpedanceOhmPF(t *entity.TransformerBranch) complex128 {
	sn := t.RatedPowerMVA
	r := t.PkKW / 1000 / sn
	uk := t.UkPercent / 100
	x := math.Sqrt(math.Max(0, uk*uk-r*r))
	zPU := complex(r, x)
	scale := t.VoltageLVkV * t.VoltageLVkV / sn
	return zPU * complex(scale, 0)
}

func resolveTapPF(t *entity.TransformerBranch, overlay map[string]float64) float64 {
	if t.TapPosition == 0 {
		if v, ok := overlay[t.ID]; ok {
			return v
		}
	}
	return 1 + float64(t.TapPosition)*t.TapStepPercent/100
}
