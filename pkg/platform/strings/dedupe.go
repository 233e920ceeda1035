// Package strings holds small string-set helpers shared across packages.
package strings

import "strings"

// DedupeAndTrimLower collapses a slice onto its distinct non-empty values,
// comparing case-insensitively and ignoring surrounding whitespace. First
// occurrence wins and order is preserved. Used to fold notification
// recipient lists where the same mailbox can appear under several open
// assignments.
//
//	DedupeAndTrimLower([]string{" Wes.Officer@forestry.example ", "wes.officer@forestry.example", ""})
//	// -> []string{"wes.officer@forestry.example"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
