package readiness

import "github.com/radekizk-sketch/mvgrid-core/topology"

// ValidateNetwork runs the full rule set against g and returns a
// deterministically sorted ValidationReport with an analysis
// availability matrix.
func ValidateNetwork(g *topology.Graph) ValidationReport {
	var issues []Issue
	issues = append(issues, checkBlockers(g)...)
	if g.NodeCount() > 0 { // an empty topology reports only empty_topology
		issues = append(issues, checkImportant(g)...)
		issues = append(issues, checkInfo(g)...)
	}
	sortIssues(issues)
	issues = dedupeIssues(issues)

	return ValidationReport{
		Issues:       issues,
		Availability: computeAvailability(issues, g),
	}
}

func computeAvailability(issues []Issue, g *topology.Graph) map[string]Availability {
	var blockerReqs, zeroSeqReqs, loadFlowReqs []string
	hasBlockers := false
	hasZeroSeqWarning := false

	for _, i := range issues {
		if i.Severity == Blocker {
			hasBlockers = true
			blockerReqs = append(blockerReqs, i.Code)
		}
		if i.Code == "line_missing_zero_sequence" || i.Code == "source_missing_zero_sequence" {
			hasZeroSeqWarning = true
			zeroSeqReqs = append(zeroSeqReqs, i.Code)
		}
	}

	hasLoadsOrGen := len(g.Loads()) > 0 || len(g.Generators()) > 0
	if !hasLoadsOrGen {
		loadFlowReqs = append(loadFlowReqs, "at least one load or generator")
	}

	availability3ph := Availability{Available: !hasBlockers}
	if hasBlockers {
		availability3ph.MissingRequirements = blockerReqs
	}

	availability1ph := Availability{Available: !hasBlockers && !hasZeroSeqWarning}
	if hasBlockers {
		availability1ph.MissingRequirements = blockerReqs
	} else if hasZeroSeqWarning {
		availability1ph.MissingRequirements = zeroSeqReqs
	}

	loadFlow := Availability{Available: !hasBlockers && hasLoadsOrGen}
	if hasBlockers {
		loadFlow.MissingRequirements = blockerReqs
	} else if !hasLoadsOrGen {
		loadFlow.MissingRequirements = loadFlowReqs
	}

	return map[string]Availability{
		"short_circuit_3ph": availability3ph,
		"short_circuit_1ph": availability1ph,
		"load_flow":         loadFlow,
	}
}
