package sanitizer

import "strings"

// NormalizeIDs trims ids and drops blanks and repeats. The caller's order is
// kept because it is the order tables were selected in, and allocation
// treats the last id as the candidate being added.
func NormalizeIDs(ids []string) []string {
	return uniqueOrdered(ids, strings.TrimSpace)
}

func uniqueOrdered(items []string, normalize Strategy) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		v := normalize(item)
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
