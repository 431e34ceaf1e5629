package action

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/snapshot"
)

// BatchResult is the outcome of ApplyBatch.
type BatchResult struct {
	// Accepted is true only if every envelope in the batch was accepted
	// and applied. On a partial failure the batch is rolled back as a
	// whole: Snapshot is the zero value and Results holds one
	// ActionResult per envelope up to and including the first rejection.
	Accepted bool
	Snapshot snapshot.Snapshot
	Results  []ActionResult
}

// ApplyBatch applies envs against parent in order, all-or-nothing:
// each envelope is validated against the snapshot the previous one
// produced, but the whole chain is discarded the moment any envelope
// is rejected, so parent is left exactly as it was and no partial
// batch is ever observable.
func ApplyBatch(envs []Envelope, parent snapshot.Snapshot) (BatchResult, error) {
	results := make([]ActionResult, 0, len(envs))
	current := parent

	for i, env := range envs {
		child, result, err := ApplyAction(env, current)
		results = append(results, result)
		if err != nil {
			return BatchResult{Accepted: false, Results: results}, fmt.Errorf("action: batch rejected at index %d: %w", i, err)
		}
		current = child
	}

	return BatchResult{Accepted: true, Snapshot: current, Results: results}, nil
}
