// Package similarity provides the string distance and overlap measures used
// by the FAQ scorer.
package similarity

import "unicode/utf8"

// Levenshtein returns the minimum number of single-character insertions,
// deletions or substitutions needed to turn a into b.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two rolling rows of the edit matrix.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// WithinDistance reports whether 0 < Levenshtein(a, b) <= threshold. Identical
// strings are not a fuzzy hit.
func WithinDistance(a, b string, threshold int) bool {
	if a == b {
		return false
	}
	// The length gap is a lower bound on the distance.
	if diff := utf8.RuneCountInString(a) - utf8.RuneCountInString(b); diff > threshold || -diff > threshold {
		return false
	}
	d := Levenshtein(a, b)
	return d > 0 && d <= threshold
}
