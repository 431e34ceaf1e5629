package powerflow

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/entity"
)

// Preflight runs the enumerated input checks before a solver touches
// the network, returning every violation found (not
// just the first) so a caller can report them all at once.
func Preflight(in Input) []PreflightError {
	var errs []PreflightError

	if in.BaseMVA <= 0 {
		errs = append(errs, PreflightError{Cause: ErrBaseMVA})
	}

	if _, err := in.Graph.GetNode(in.Slack.NodeID); err != nil {
		errs = append(errs, PreflightError{Cause: ErrSlackNotInGraph, ID: in.Slack.NodeID})
	}

	seen := make(map[string]string) // id -> which list first claimed it
	claim := func(id, list string) {
		if prior, ok := seen[id]; ok {
			errs = append(errs, PreflightError{Cause: ErrDuplicateID, ID: fmt.Sprintf("%s (%s, %s)", id, prior, list)})
			return
		}
		seen[id] = list
	}

	pqIDs := make(map[string]bool, len(in.PQ))
	for _, pq := range in.PQ {
		claim(pq.NodeID, "pq")
		pqIDs[pq.NodeID] = true
		if pq.NodeID == in.Slack.NodeID {
			errs = append(errs, PreflightError{Cause: ErrSlackAlsoPQOrPV, ID: pq.NodeID})
		}
	}

	pvIDs := make(map[string]bool, len(in.PV))
	for _, pv := range in.PV {
		claim(pv.NodeID, "pv")
		pvIDs[pv.NodeID] = true
		if pv.NodeID == in.Slack.NodeID {
			errs = append(errs, PreflightError{Cause: ErrSlackAlsoPQOrPV, ID: pv.NodeID})
		}
		if pv.QMinMvar > pv.QMaxMvar {
			errs = append(errs, PreflightError{Cause: ErrQLimitsInverted, ID: pv.NodeID})
		}
		if pqIDs[pv.NodeID] {
			errs = append(errs, PreflightError{Cause: ErrBusBothPQAndPV, ID: pv.NodeID})
		}
	}

	for _, s := range in.Shunts {
		claim(s.NodeID+"#shunt", "shunts")
	}
	for branchID := range in.Taps {
		claim(branchID+"#tap", "taps")
		b, err := in.Graph.GetBranch(branchID)
		if err != nil {
			errs = append(errs, PreflightError{Cause: ErrTapNotTransformer, ID: branchID})
			continue
		}
		if _, ok := b.(*entity.TransformerBranch); !ok {
			errs = append(errs, PreflightError{Cause: ErrTapNotTransformer, ID: branchID})
		}
	}
	for _, lim := range in.BusLimits {
		claim(lim.NodeID+"#buslimit", "bus_limits")
		if lim.QMinMvar > lim.QMaxMvar {
			errs = append(errs, PreflightError{Cause: ErrQLimitsInverted, ID: lim.NodeID})
		}
		if lim.UMin >= lim.UMax {
			errs = append(errs, PreflightError{Cause: ErrULimitsInverted, ID: lim.NodeID})
		}
	}
	for _, lim := range in.BranchLimits {
		claim(lim.BranchID+"#branchlimit", "branch_limits")
		if _, err := in.Graph.GetBranch(lim.BranchID); err != nil {
			errs = append(errs, PreflightError{Cause: ErrUnknownBranchLimit, ID: lim.BranchID})
		}
	}

	return errs
}

// PreflightWarnings returns non-fatal preflight observations, such as
// a slack setpoint far outside the usual [0.8, 1.2] pu band.
func PreflightWarnings(in Input) []string {
	var warnings []string
	if in.Slack.UPU < 0.8 || in.Slack.UPU > 1.2 {
		warnings = append(warnings, fmt.Sprintf("slack.u_pu = %.6f outside [0.8, 1.2]", in.Slack.UPU))
	}
	return warnings
}
