package powerflow

import (
	"errors"
	"math"
	"sort"

	"github.com/radekizk-sketch/mvgrid-core/numeric"
)

const (
	defaultMaxIter   = 20
	defaultTolerance = 1e-6
	defaultDamping   = 1.0
)

func resolveOptions(o Options) Options {
	if o.MaxIter <= 0 {
		o.MaxIter = defaultMaxIter
	}
	if o.Tolerance <= 0 {
		o.Tolerance = defaultTolerance
	}
	if o.Damping <= 0 {
		o.Damping = defaultDamping
	}
	if o.TraceLevel == "" {
		o.TraceLevel = TraceMinimal
	}
	return o
}

// SolveNewton runs the full-Newton-Raphson power-flow algorithm:
// preflight, slack-island restriction, Y-bus assembly, and an
// iterate/mismatch/Jacobian/solve/damped-update loop with PV->PQ
// switching on reactive-power-limit violation.
func SolveNewton(in Input) (Solution, error) {
	if errs := Preflight(in); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return Solution{}, errors.Join(joined...)
	}

	in.Options = resolveOptions(in.Options)

	net, notSolved, err := buildNetwork(in)
	if err != nil {
		return Solution{}, err
	}

	v, theta := initialState(net, in)

	sol := Solution{
		SlackIsland:  append([]string(nil), net.order...),
		NotSolved:    notSolved,
		SolverMethod: "newton-raphson",
		InitState:    stateSnapshot(net, v, theta),
	}

	for iter := 1; iter <= in.Options.MaxIter; iter++ {
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
			pCalc, qCalc = injections(net, v, theta)
		}

		mm := computeMismatch(net, pCalc, qCalc)

		entry := TraceEntry{
			Iter:                   iter,
			MaxMismatchPU:          mm.maxAbs,
			MismatchNorm:           mm.euclidean,
			DampingUsed:            in.Options.Damping,
			PVToPQSwitchesThisIter: len(switchEvents),
			SolverMethod:           "newton-raphson",
		}
		if in.Options.TraceLevel == TraceFull {
			entry.DeltaPPU = mm.dP
			entry.DeltaQPU = mm.dQ
		}

		if mm.maxAbs < in.Options.Tolerance {
			entry.Cause = "converged"
			sol.Trace = append(sol.Trace, entry)
			sol.Converged = true
			sol.Iterations = iter
			sol.MaxMismatchPU = mm.maxAbs
			sol.Cause = "converged"
			break
		}

		idx := buildJacobianIndex(net)
		j, err := buildJacobian(net, idx, v, theta, pCalc, qCalc)
		if err != nil {
			return Solution{}, err
		}

		rhs := make([]float64, len(idx.thetaIDs)+len(idx.vIDs))
		for r, i := range idx.thetaIDs {
			rhs[r] = mm.dP[net.order[i]]
		}
		for r, i := range idx.vIDs {
			rhs[len(idx.thetaIDs)+r] = mm.dQ[net.order[i]]
		}

		dx, solveErr := numeric.SolveReal(j, rhs)
		if solveErr != nil {
			entry.Cause = "singular_jacobian"
			sol.Trace = append(sol.Trace, entry)
			sol.Converged = false
			sol.Iterations = iter
			sol.MaxMismatchPU = mm.maxAbs
			sol.Cause = "singular_jacobian"
			return finalizeSolution(sol, net, v, theta, in), nil
		}

		deltaState := map[string]DeltaStateEntry{}
		var stepNorm float64
		for r, i := range idx.thetaIDs {
			d := in.Options.Damping * dx[r]
			theta[i] += d
			stepNorm += d * d
			deltaState[net.order[i]] = DeltaStateEntry{DTheta: d}
		}
		for r, i := range idx.vIDs {
			d := in.Options.Damping * dx[len(idx.thetaIDs)+r]
			v[i] += d
			stepNorm += d * d
			e := deltaState[net.order[i]]
			e.DV = d
			deltaState[net.order[i]] = e
		}
		entry.StepNorm = math.Sqrt(stepNorm)

		if in.Options.TraceLevel == TraceFull {
			entry.Jacobian = toJacobianBlocks(j, idx)
			entry.DeltaState = deltaState
			entry.StateNext = stateSnapshot(net, v, theta)
		}
		entry.Cause = "iterating"
		sol.Trace = append(sol.Trace, entry)

		if iter == in.Options.MaxIter {
			sol.Converged = false
			sol.Iterations = iter
			sol.MaxMismatchPU = mm.maxAbs
			sol.Cause = "max_iterations_exceeded"
		}
	}

	return finalizeSolution(sol, net, v, theta, in), nil
}

func stateSnapshot(net *network, v, theta []float64) map[string]StateEntry {
	out := make(map[string]StateEntry, len(net.order))
	for i, id := range net.order {
		out[id] = StateEntry{VPU: v[i], ThetaRad: theta[i]}
	}
	return out
}

func finalizeSolution(sol Solution, net *network, v, theta []float64, in Input) Solution {
	sol.VPU = make(map[string]float64, len(net.order))
	sol.ThetaRad = make(map[string]float64, len(net.order))
	for i, id := range net.order {
		sol.VPU[id] = v[i]
		sol.ThetaRad[id] = theta[i]
	}
	sort.Strings(sol.SlackIsland)

	sol.YbusTrace = YbusTrace{
		Source: net.y.Trace.Source,
		N:      net.y.Trace.N,
		Note:   net.y.Trace.Note,
	}

	pCalc, qCalc := injections(net, v, theta)
	for i, t := range net.types {
		if t == busSlack {
			sol.SlackPPU = pCalc[i]
			sol.SlackQPU = qCalc[i]
		}
	}

	if in.Metrics != nil {
		in.Metrics.ObserveIterations(sol.SolverMethod, sol.Iterations)
	}

	if !sol.Converged {
		if in.Metrics != nil {
			in.Metrics.IncConvergenceFailure(sol.SolverMethod, sol.Cause)
		}
		in.Log.Event("warn", "powerflow_did_not_converge").
			Str("method", sol.SolverMethod).Str("cause", sol.Cause).Int("iterations", sol.Iterations).Send()
		sol.BranchFlowsSkipped = true
		return sol
	}

	flows, lossesMW, lossesMvar := computeBranchFlows(in, net, v, theta)
	sol.BranchFlows = flows
	sol.LossesTotalMW = lossesMW
	sol.LossesTotalMvar = lossesMvar
	return sol
}
