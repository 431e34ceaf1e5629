// Package snapshot wraps a topology.Graph with lineage metadata into
// an immutable, hashable Snapshot, and provides the canonical JSON
// encoding and SHA-256 digest of a network snapshot: sorted map keys, id-
// sorted lists, 6-decimal float normalization, and a fixed complex
// encoding, so two snapshots with identical observable state always
// hash identically regardless of internal ordering.
//
// Canonicalization leans on encoding/json's own guarantee that
// map[string]any keys are emitted in sorted order (the same property
// samgonzalez27-script-weaver's internal/graph/hash.go relies on); this
// package only has to normalize floats/complex values and sort
// identity-bearing lists before handing the tree to json.Marshal.
package snapshot
