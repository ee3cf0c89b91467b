package dedup

import "strings"

// Similarity scores two titles in [0,1] as 1 - (Levenshtein distance /
// max(len(a), len(b))), case-insensitive. Two empty titles score 1.0: they
// are treated as identical rather than dividing by zero.
func Similarity(a, b string) float64 {
	s1 := strings.ToLower(a)
	s2 := strings.ToLower(b)

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 1
	}

	return 1 - float64(levenshtein(s1, s2))/float64(maxLen)
}

// levenshtein computes edit distance with unit-cost insertions, deletions
// and substitutions over two row buffers of the DP matrix.
func levenshtein(s1, s2 string) int {
	prev := make([]int, len(s1)+1)
	curr := make([]int, len(s1)+1)

	for i := 0; i <= len(s1); i++ {
		prev[i] = i
	}

	for j := 1; j <= len(s2); j++ {
		curr[0] = j
		for i := 1; i <= len(s1); i++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[i] = min(curr[i-1]+1, min(prev[i]+1, prev[i-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(s1)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
