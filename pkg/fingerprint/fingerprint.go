// Package fingerprint derives a stable, content-addressed identity from a
// certificate's identifiable field values. The digest is the deduplication
// key for issued records: two certificates with the same identifiable data
// always produce the same fingerprint, regardless of field ordering.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrNoData indicates that no identifiable field values were supplied.
var ErrNoData = errors.New("identifiable field data required for fingerprint generation")

// Generate computes a sha256 hex digest over the given field values.
// Keys are sorted lexicographically and the map is re-serialized in that
// order before hashing, so insertion order never affects the result.
func Generate(data map[string]string) (string, error) {
	if len(data) == 0 {
		return "", ErrNoData
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	// Canonical form: {"k1":"v1","k2":"v2"} with keys in sorted order.
	var buf []byte
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", fmt.Errorf("encode key %q: %w", k, err)
		}
		vb, err := json.Marshal(data[k])
		if err != nil {
			return "", fmt.Errorf("encode value for %q: %w", k, err)
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}
