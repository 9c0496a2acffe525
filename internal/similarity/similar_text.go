package similarity

// SimilarText returns the number of matching bytes between a and b computed
// by recursive longest-common-substring decomposition. The recursion mirrors
// PHP's similar_text exactly, including the condition under which the left
// remainders are compared, so that percentages agree to the last digit.
func SimilarText(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	pos1, pos2, length, count := longestCommon(a, b)
	if length == 0 {
		return 0
	}
	sum := length
	if pos1 > 0 && pos2 > 0 && count > 1 {
		sum += SimilarText(a[:pos1], b[:pos2])
	}
	if pos1+length < len(a) && pos2+length < len(b) {
		sum += SimilarText(a[pos1+length:], b[pos2+length:])
	}
	return sum
}

// SimilarPercent returns SimilarText as a percentage of the combined length.
func SimilarPercent(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return float64(SimilarText(a, b)*2) * 100 / float64(total)
}

// longestCommon finds the first longest common substring scanning a, then b.
// count is the number of times the running maximum improved.
func longestCommon(a, b string) (pos1, pos2, length, count int) {
	for p := 0; p < len(a); p++ {
		for q := 0; q < len(b); q++ {
			l := 0
			for p+l < len(a) && q+l < len(b) && a[p+l] == b[q+l] {
				l++
			}
			if l > length {
				length = l
				count++
				pos1, pos2 = p, q
			}
		}
	}
	return pos1, pos2, length, count
}
