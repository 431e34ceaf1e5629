package readiness

// Severity classifies how strongly an Issue affects analysis
// availability.
type Severity string

const (
	Blocker   Severity = "BLOCKER"
	Important Severity = "IMPORTANT"
	Info      Severity = "INFO"
)

var severityRank = map[Severity]int{
	Blocker:   0,
	Important: 1,
	Info:      2,
}

// Issue is one rule-engine finding.
type Issue struct {
	Code        string
	Severity    Severity
	Message     string
	ElementRefs []string

	// FixAction names a suggested corrective action for a subset of
	// codes, e.g. "create_branch" (an action package action_type) or
	// "set_short_circuit_params", so a UI can offer a one-click repair
	// next to the finding.
	FixAction *string
}

func (i Issue) firstRef() string {
	if len(i.ElementRefs) == 0 {
		return ""
	}
	return i.ElementRefs[0]
}
