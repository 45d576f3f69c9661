package reconcile

// Ratio computes a Ratcliff/Obershelp similarity between two strings:
// twice the number of matching characters over the total length, where
// matches are found by locating the longest common substring and recursing
// on the pieces to its left and right. The result is in [0,1], symmetric,
// and 1.0 for identical inputs. Callers normalize both sides (lower-case,
// punctuation stripped) before scoring.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2 * float64(matchingBlocks(ra, rb)) / float64(total)
}

// matchingBlocks counts the characters covered by recursively chosen
// longest common substrings.
func matchingBlocks(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingBlocks(a[:ai], b[:bi]) +
		matchingBlocks(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common substring of a and b, returning
// its start in each and its length. Ties resolve to the earliest match in
// a, then in b.
func longestMatch(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1]
	// for the previous row of the DP table.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
