package util

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// NormalizeName lower-cases and trims a name for comparison.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity returns the Ratcliff/Obershelp ratio 2*M/T of two names after
// normalisation, where M counts matched characters and T is the combined length.
// Two empty names are identical.
func Similarity(a, b string) float64 {
	a, b = NormalizeName(a), NormalizeName(b)
	if a == "" && b == "" {
		return 1
	}
	if a == b {
		return 1
	}

	// No junk heuristics: names are short and every character counts.
	m := difflib.NewMatcherWithJunk(splitChars(a), splitChars(b), false, nil)

	return m.Ratio()
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}

	return out
}
