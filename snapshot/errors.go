package snapshot

import "errors"

var (
	// ErrEncodeNonFinite is surfaced when canonical JSON encoding hits a
	// NaN or +/-Inf float. These are preserved as-is through
	// canonicalization rather than silently coerced, so the
	// failure to marshal is itself the corruption signal.
	ErrEncodeNonFinite = errors.New("snapshot: cannot encode non-finite float")

	// ErrMalformedDocument is wrapped by FromJSON/FromDict for any
	// document that cannot be rebuilt into a valid snapshot: broken
	// JSON, wrongly-typed fields, or entities the graph invariants
	// reject on re-insertion.
	ErrMalformedDocument = errors.New("snapshot: malformed snapshot document")
)
