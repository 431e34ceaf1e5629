package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// normalizeFloat rounds f to 6 decimal places and collapses values
// that land on an integer within IEEE's safe integer range to an
// int64. Non-finite values are returned unchanged: json.Marshal
// will then fail on them, which is the intended corruption signal
// rather than a silently-sanitized output.
func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	rounded := math.Round(f*1e6) / 1e6
	const safeIntLimit = 1 << 53
	if rounded == math.Trunc(rounded) && math.Abs(rounded) < safeIntLimit {
		return int64(rounded)
	}
	return rounded
}

// canonicalize recursively normalizes v for deterministic encoding:
// floats are normalized, complex128 becomes {"re":...,"im":...}, and
// any []any whose elements are all map[string]any carrying an "id" (or
// "node_id"/"branch_id") string field is sorted by that field.
func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = canonicalize(inner)
		}
		return out
	case []any:
		items := make([]any, len(val))
		for i, inner := range val {
			items[i] = canonicalize(inner)
		}
		sortByIdentity(items)
		return items
	case complex128:
		return map[string]any{
			"re": normalizeFloat(real(val)),
			"im": normalizeFloat(imag(val)),
		}
	case float64:
		return normalizeFloat(val)
	case float32:
		return normalizeFloat(float64(val))
	default:
		return v
	}
}

var identityKeys = []string{"id", "node_id", "branch_id"}

func identityOf(m map[string]any) (string, bool) {
	for _, key := range identityKeys {
		if raw, ok := m[key]; ok {
			if s, ok := raw.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// sortByIdentity sorts items in place by their identity field's string
// form, when every element is a map carrying one. Lists without a
// uniform identity field (e.g. nr_trace[] iteration entries) are left
// in their given order.
func sortByIdentity(items []any) {
	ids := make([]string, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return
		}
		id, ok := identityOf(m)
		if !ok {
			return
		}
		ids[i] = id
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, _ := identityOf(items[i].(map[string]any))
		b, _ := identityOf(items[j].(map[string]any))
		return a < b
	})
}

// CanonicalJSON produces the deterministic, compact JSON encoding of
// snapshot: sorted keys (encoding/json sorts
// map[string]any keys natively), id-sorted lists, normalized floats,
// complex numbers as {"re","im"}, UTF-8, no whitespace.
func CanonicalJSON(s Snapshot) ([]byte, error) {
	return CanonicalJSONFromDict(s.ToDict())
}

// CanonicalJSONFromDict canonicalizes and encodes an already-built
// dict, for callers that assembled a tree themselves (e.g. solver
// result dictionaries reusing the same normalization rules).
func CanonicalJSONFromDict(data map[string]any) ([]byte, error) {
	canonical := canonicalize(data)
	out, err := json.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeNonFinite, err)
	}
	return out, nil
}
