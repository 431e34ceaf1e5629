package readiness

import "sort"

// Availability is the per-analysis entry of the availability matrix.
type Availability struct {
	Available           bool
	MissingRequirements []string
}

// ValidationReport is the output of ValidateNetwork: every issue found,
// deterministically sorted, plus the analyses the current model
// supports.
type ValidationReport struct {
	Issues       []Issue
	Availability map[string]Availability
}

// HasBlockers reports whether r contains any BLOCKER-severity issue.
func (r ValidationReport) HasBlockers() bool {
	for _, i := range r.Issues {
		if i.Severity == Blocker {
			return true
		}
	}
	return false
}

// IsValid reports whether the model passed validation: no BLOCKER
// issues.
func (r ValidationReport) IsValid() bool {
	return !r.HasBlockers()
}

// dedupeIssues drops exact repeats (same code, severity, and element
// refs) from an already-sorted slice, keeping the first occurrence.
// The report never carries the same finding twice.
func dedupeIssues(issues []Issue) []Issue {
	if len(issues) == 0 {
		return issues
	}
	out := issues[:1]
	for _, i := range issues[1:] {
		last := out[len(out)-1]
		if i.Code == last.Code && i.Severity == last.Severity && sameRefs(i.ElementRefs, last.ElementRefs) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func sameRefs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortIssues applies the deterministic report order:
// (severity_rank, code, first element_ref) ascending.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] < severityRank[b.Severity]
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.firstRef() < b.firstRef()
	})
}
