package powerflow

import (
	"errors"

	"github.com/radekizk-sketch/mvgrid-core/numeric"
)

func resolveFastDecoupledOptions(o FastDecoupledOptions) FastDecoupledOptions {
	o.Options = resolveOptions(o.Options)
	if o.Method != "XB" && o.Method != "BX" {
		o.Method = "BX"
	}
	if o.AngleDamping <= 0 {
		o.AngleDamping = o.Damping
	}
	if o.VoltageDamping <= 0 {
		o.VoltageDamping = o.Damping
	}
	return o
}

// SolveFastDecoupled runs the XB/BX fast-decoupled power-flow
// algorithm: B' and B'' are built once from the Y-bus
// imaginary part (X-only for XB, B-only for BX) and reused across
// iterations, optionally refactored every RebuildMatricesEvery
// iterations, with independently damped angle and voltage updates.
func SolveFastDecoupled(in Input, opts FastDecoupledOptions) (Solution, error) {
	if errs := Preflight(in); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return Solution{}, errors.Join(joined...)
	}

	opts = resolveFastDecoupledOptions(opts)
	in.Options = opts.Options

	net, notSolved, err := buildNetwork(in)
	if err != nil {
		return Solution{}, err
	}

	v, theta := initialState(net, in)

	sol := Solution{
		SlackIsland:  append([]string(nil), net.order...),
		NotSolved:    notSolved,
		SolverMethod: "fast-decoupled",
		InitState:    stateSnapshot(net, v, theta),
	}

	idx := buildJacobianIndex(net)
	bPrime, bDoublePrime := buildDecoupledMatrices(net, idx, opts.Method)

	for iter := 1; iter <= opts.MaxIter; iter++ {
		pCalc, qCalc := injections(net, v, theta)
		switchEvents := applyPVSwitch(net, qCalc, iter)
		sol.PVSwitchEvents = append(sol.PVSwitchEvents, switchEvents...)
		for _, ev := range switchEvents {
			in.Log.Event("debug", "pv_to_pq_switch").
				Str("node_id", ev.NodeID).Int("iter", ev.Iter).Str("direction", ev.Direction).Send()
			if in.Metrics != nil {
				in.Metrics.IncPVToPQSwitch()
			}
		}

		if len(switchEvents) > 0 {
			// A converted bus enters the B'' index set; the factored
			// matrices must track the new dimensions or its voltage
			// would never be corrected.
			pCalc, qCalc = injections(net, v, theta)
			idx = buildJacobianIndex(net)
			bPrime, bDoublePrime = buildDecoupledMatrices(net, idx, opts.Method)
		}

		mm := computeMismatch(net, pCalc, qCalc)

		entry := TraceEntry{
			Iter:                   iter,
			MaxMismatchPU:          mm.maxAbs,
			MismatchNorm:           mm.euclidean,
			PVToPQSwitchesThisIter: len(switchEvents),
			SolverMethod:           sol.SolverMethod,
			AppliedMethod:          opts.Method,
			AngleDamping:           opts.AngleDamping,
			VoltageDamping:         opts.VoltageDamping,
		}
		if opts.TraceLevel == TraceFull {
			entry.DeltaPPU = mm.dP
			entry.DeltaQPU = mm.dQ
		}

		if mm.maxAbs <= opts.Tolerance {
			entry.Cause = "converged"
			sol.Trace = append(sol.Trace, entry)
			sol.Converged = true
			sol.Iterations = iter
			sol.MaxMismatchPU = mm.maxAbs
			sol.Cause = "converged"
			break
		}

		if opts.RebuildMatricesEvery > 0 && iter%opts.RebuildMatricesEvery == 0 {
			idx = buildJacobianIndex(net)
			bPrime, bDoublePrime = buildDecoupledMatrices(net, idx, opts.Method)
		}

		dPoverV := make([]float64, len(idx.thetaIDs))
		for r, i := range idx.thetaIDs {
			dPoverV[r] = mm.dP[net.order[i]] / v[i]
		}
		dQoverV := make([]float64, len(idx.vIDs))
		for r, i := range idx.vIDs {
			dQoverV[r] = mm.dQ[net.order[i]] / v[i]
		}

		dTheta, err := numeric.SolveReal(bPrime, dPoverV)
		if err != nil {
			entry.Cause = "singular_jacobian"
			sol.Trace = append(sol.Trace, entry)
			sol.Converged = false
			sol.Iterations = iter
			sol.MaxMismatchPU = mm.maxAbs
			sol.Cause = "singular_jacobian"
			return finalizeSolution(sol, net, v, theta, in), nil
		}
		var dV []float64
		if len(idx.vIDs) > 0 { // a pure slack+PV island has no voltage block
			dV, err = numeric.SolveReal(bDoublePrime, dQoverV)
			if err != nil {
				entry.Cause = "singular_jacobian"
				sol.Trace = append(sol.Trace, entry)
				sol.Converged = false
				sol.Iterations = iter
				sol.MaxMismatchPU = mm.maxAbs
				sol.Cause = "singular_jacobian"
				return finalizeSolution(sol, net, v, theta, in), nil
			}
		}

		deltaState := map[string]DeltaStateEntry{}
		for r, i := range idx.thetaIDs {
			d := opts.AngleDamping * dTheta[r]
			theta[i] += d
			deltaState[net.order[i]] = DeltaStateEntry{DTheta: d}
		}
		for r, i := range idx.vIDs {
			d := opts.VoltageDamping * dV[r]
			v[i] += d
			e := deltaState[net.order[i]]
			e.DV = d
			deltaState[net.order[i]] = e
		}

		if opts.TraceLevel == TraceFull {
			entry.DeltaState = deltaState
			entry.StateNext = stateSnapshot(net, v, theta)
		}
		entry.Cause = "iterating"
		sol.Trace = append(sol.Trace, entry)

		if iter == opts.MaxIter {
			sol.Converged = false
			sol.Iterations = iter
			sol.MaxMismatchPU = mm.maxAbs
			sol.Cause = "max_iterations_exceeded"
		}
	}

	return finalizeSolution(sol, net, v, theta, in), nil
}

// buildDecoupledMatrices assembles B' (theta-block, all non-slack
// buses) and B'' (V-block, PQ buses only), following the standard
// XB/BX split: XB neglects series resistance in B' and
// uses the full Y-bus susceptance in B''; BX does the opposite.
func buildDecoupledMatrices(net *network, idx jacobianIndex, method string) (*numeric.RealMatrix, *numeric.RealMatrix) {
	neglectRInBPrime := method == "XB"
	bp := susceptanceMatrix(net, idx.thetaIDs, neglectRInBPrime)
	bpp := susceptanceMatrix(net, idx.vIDs, !neglectRInBPrime)
	return bp, bpp
}

// susceptanceMatrix builds -Im(Y) restricted to busIdx. With neglectR,
// every off-diagonal element is replaced by the susceptance the branch
// would have at zero series resistance (-1/X, recovered element-wise
// as |y|^2/Im(y)), and the diagonal is rebuilt as the negated sum of
// those off-diagonal terms over ALL buses (dropping shunt terms, as is
// conventional for the resistance-free block).
func susceptanceMatrix(net *network, busIdx []int, neglectR bool) *numeric.RealMatrix {
	n := len(busIdx)
	m, _ := numeric.NewRealMatrix(n, n)
	total := len(net.order)

	for r, i := range busIdx {
		for c, k := range busIdx {
			if i == k {
				continue
			}
			m.Set(r, c, -offDiagSusceptance(net, i, k, neglectR))
		}
		if neglectR {
			var sum float64
			for k := 0; k < total; k++ {
				if k != i {
					sum += offDiagSusceptance(net, i, k, true)
				}
			}
			m.Set(r, r, sum)
		} else {
			_, b := gb(net, i, i)
			m.Set(r, r, -b)
		}
	}
	return m
}

// offDiagSusceptance returns Im(Y_ik) for the coupled pair, or its
// zero-resistance equivalent |Y_ik|^2/Im(Y_ik) when neglectR is set.
// Uncoupled pairs (Y_ik == 0) contribute nothing either way.
func offDiagSusceptance(net *network, i, k int, neglectR bool) float64 {
	g, b := gb(net, i, k)
	if b == 0 {
		return 0
	}
	if neglectR {
		return (g*g + b*b) / b
	}
	return b
}
