package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// stableHash builds a deterministic hex digest over an ordered list of
// key/value pairs. Callers pass fields in a fixed order so the digest only
// changes when a persisted field actually changes, never due to map
// iteration order.
func stableHash(fields ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}

// sortedStrings returns a sorted copy, leaving the input untouched.
func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func intField(i int) string {
	return fmt.Sprintf("%d", i)
}
