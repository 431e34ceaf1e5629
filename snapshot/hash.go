package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
)

// SnapshotHash returns the lowercase hex SHA-256 digest of s's
// canonical JSON encoding.
func SnapshotHash(s Snapshot) (string, error) {
	data, err := CanonicalJSON(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyHash reports whether s's canonical hash equals expected. Any
// encoding error is treated as a verification failure (false), never
// propagated; callers get a plain boolean either way.
func VerifyHash(s Snapshot, expected string) bool {
	got, err := SnapshotHash(s)
	if err != nil {
		return false
	}
	return got == expected
}
