package autofill

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Fingerprint returns the SHA-256 hex digest of the raw field bag. Map keys
// are serialized in sorted order, so insertion order does not matter. A nil
// and an empty bag share a fingerprint.
func Fingerprint(fields map[string]string) string {
	if fields == nil {
		fields = map[string]string{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		// map[string]string always marshals.
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}
