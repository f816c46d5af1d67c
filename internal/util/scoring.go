package util

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// ScoreCompletions returns up to n candidates matching input (n <= 0 means
// all). Prefix matches come first in candidate order, so "1.2" offers 1.2.x
// before fuzzy hits such as 1.12.0; the rest follow by fuzzy score.
func ScoreCompletions(input string, candidates []string, n int) []string {
	var out []string
	seen := make(map[string]bool, len(candidates))
	add := func(s string) bool {
		if seen[s] {
			return true
		}
		seen[s] = true
		out = append(out, s)
		return n <= 0 || len(out) < n
	}

	for _, c := range candidates {
		if strings.HasPrefix(c, input) || strings.HasPrefix(strings.TrimPrefix(c, "v"), input) {
			if !add(c) {
				return out
			}
		}
	}
	if input == "" {
		return out
	}
	for _, m := range fuzzy.Find(input, candidates) {
		if !add(m.Str) {
			return out
		}
	}
	return out
}
