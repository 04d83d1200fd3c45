// Package similarity implements the normalized edit-distance comparator used
// wherever two free-text fields must be compared under OCR noise.
package similarity

import "github.com/agnivade/levenshtein"

// Score returns 1 - editDistance(a,b)/max(len(a),len(b)) in [0,1].
// Two empty strings are identical by definition. Comparison is
// case-sensitive; callers normalize case before comparing.
func Score(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
