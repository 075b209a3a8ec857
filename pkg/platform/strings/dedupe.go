// Package strings provides small slice helpers shared across modules.
package strings

import "strings"

// NormalizeList trims whitespace, lowercases, and deduplicates, preserving
// first-seen order. Empty entries are dropped. Delegation target lists go
// through this so service names compare case-insensitively.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
