package readiness

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/entity"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

func fixAction(s string) *string { return &s }

// checkBlockers collects the fatal findings: no source, empty
// topology, disconnected islands, missing nominal voltage, zero
// impedance, transformer uk%/hv-lv, source without short-circuit
// parameters, and missing catalog reference where untraceable.
func checkBlockers(g *topology.Graph) []Issue {
	var issues []Issue
	nodes := g.Nodes()
	branches := g.Branches()
	inverters := g.InverterSources()

	if len(nodes) == 0 {
		issues = append(issues, Issue{
			Code: "empty_topology", Severity: Blocker,
			Message: "network has no nodes",
		})
		return issues // nothing else is checkable
	}

	slack, err := g.SlackNode()
	if err != nil {
		issues = append(issues, Issue{
			Code: "no_source", Severity: Blocker,
			Message: "network has no SLACK node",
		})
	} else if slack.ShortCircuitPowerMVA == nil && slack.ShortCircuitRXRatio == nil {
		issues = append(issues, Issue{
			Code: "source_missing_short_circuit_params", Severity: Blocker,
			Message:     fmt.Sprintf("slack node %q has no short-circuit source parameters", slack.ID),
			ElementRefs: []string{slack.ID},
			FixAction:   fixAction("set_short_circuit_params"),
		})
	}

	if len(nodes) > 1 {
		islands := g.FindIslands(true)
		if len(islands) > 1 && err == nil {
			for _, island := range islands {
				if !containsString(island, slack.ID) {
					issues = append(issues, Issue{
						Code: "disconnected_island", Severity: Blocker,
						Message:     fmt.Sprintf("island of %d node(s) is not connected to the slack node", len(island)),
						ElementRefs: island,
						FixAction:   fixAction("create_branch"),
					})
				}
			}
		}
	}

	for _, n := range nodes {
		if n.VoltageLevelKV <= 0 {
			issues = append(issues, Issue{
				Code: "node_missing_nominal_voltage", Severity: Blocker,
				Message:     fmt.Sprintf("node %q has no nominal voltage", n.ID),
				ElementRefs: []string{n.ID},
				FixAction:   fixAction("create_node"),
			})
		}
	}

	for _, b := range branches {
		c := b.Common()
		switch v := b.(type) {
		case *entity.LineBranch:
			if v.ROhmPerKm == 0 && v.XOhmPerKm == 0 && v.ImpedanceOverride == nil {
				issues = append(issues, Issue{
					Code: "branch_zero_impedance", Severity: Blocker,
					Message:     fmt.Sprintf("branch %q has zero impedance", c.ID),
					ElementRefs: []string{c.ID},
					FixAction:   fixAction("create_branch"),
				})
			}
			if v.TypeRef == nil && v.ImpedanceOverride == nil {
				issues = append(issues, Issue{
					Code: "missing_catalog_reference", Severity: Blocker,
					Message:     fmt.Sprintf("branch %q has no catalog reference and no explicit override", c.ID),
					ElementRefs: []string{c.ID},
				})
			}
		case *entity.TransformerBranch:
			if v.UkPercent <= 0 {
				issues = append(issues, Issue{
					Code: "transformer_missing_uk", Severity: Blocker,
					Message:     fmt.Sprintf("transformer %q has no short-circuit voltage (uk%%)", c.ID),
					ElementRefs: []string{c.ID},
					FixAction:   fixAction("create_branch"),
				})
			}
			if c.FromNodeID == c.ToNodeID {
				issues = append(issues, Issue{
					Code: "transformer_identical_hv_lv", Severity: Blocker,
					Message:     fmt.Sprintf("transformer %q has identical HV/LV bus", c.ID),
					ElementRefs: []string{c.ID},
				})
			}
		}
	}

	for _, inv := range inverters {
		if inv.KSC <= 0 || inv.RatedCurrentA <= 0 {
			issues = append(issues, Issue{
				Code: "source_missing_short_circuit_params", Severity: Blocker,
				Message:     fmt.Sprintf("inverter source %q has no short-circuit parameters", inv.ID),
				ElementRefs: []string{inv.ID},
			})
		}
	}

	return issues
}

// checkImportant collects the degraded-but-usable findings: missing
// zero-sequence data, no loads/generators, missing vector group.
func checkImportant(g *topology.Graph) []Issue {
	var issues []Issue
	branches := g.Branches()

	for _, b := range branches {
		if v, ok := b.(*entity.LineBranch); ok && v.ZeroSequence == nil {
			issues = append(issues, Issue{
				Code: "line_missing_zero_sequence", Severity: Important,
				Message:     fmt.Sprintf("branch %q has no zero-sequence data; 1-phase/2-phase-to-ground short circuit unavailable", v.ID),
				ElementRefs: []string{v.ID},
				FixAction:   fixAction("create_branch"),
			})
		}
		if v, ok := b.(*entity.TransformerBranch); ok && v.VectorGroup == "" {
			issues = append(issues, Issue{
				Code: "transformer_missing_vector_group", Severity: Important,
				Message:     fmt.Sprintf("transformer %q has no vector group", v.ID),
				ElementRefs: []string{v.ID},
			})
		}
	}

	if slack, err := g.SlackNode(); err == nil && slack.ShortCircuitRXRatio == nil {
		issues = append(issues, Issue{
			Code: "source_missing_zero_sequence", Severity: Important,
			Message:     fmt.Sprintf("slack node %q has no zero-sequence source data", slack.ID),
			ElementRefs: []string{slack.ID},
		})
	}

	if len(g.Loads()) == 0 && len(g.Generators()) == 0 {
		issues = append(issues, Issue{
			Code: "no_loads_or_generators", Severity: Important,
			Message:   "network has no loads or generators; power flow would be empty",
			FixAction: fixAction("create_node"),
		})
	}

	return issues
}

// checkInfo collects the advisory findings: open switches and
// branches whose parameters bypass the catalog.
func checkInfo(g *topology.Graph) []Issue {
	var issues []Issue
	for _, s := range g.Switches() {
		if s.InService && s.State == entity.Open {
			issues = append(issues, Issue{
				Code: "open_switch_isolates_network", Severity: Info,
				Message:     fmt.Sprintf("switch %q is open and may isolate part of the network", s.ID),
				ElementRefs: []string{s.ID},
			})
		}
	}
	for _, b := range g.Branches() {
		if v, ok := b.(*entity.LineBranch); ok && v.TypeRef == nil && v.ImpedanceOverride != nil {
			issues = append(issues, Issue{
				Code: "catalog_bypassed", Severity: Info,
				Message:     fmt.Sprintf("branch %q parameters bypass the catalog via an explicit override", v.ID),
				ElementRefs: []string{v.ID},
			})
		}
	}
	return issues
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
