package match

// Ratio returns a similarity measure for two strings in [0, 1]: twice the
// number of characters in matching blocks divided by the total length of both
// strings. Matching blocks are found by repeatedly locating the longest
// common substring and recursing on the pieces to its left and right, so
// transposed words still score high. Identical strings score 1, fully
// disjoint strings score 0.
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ar, br)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type region struct{ alo, ahi, blo, bhi int }
	queue := []region{{0, len(a), 0, len(b)}}
	matched := 0

	for len(queue) > 0 {
		reg := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, size := longestMatch(a, b2j, reg.alo, reg.ahi, reg.blo, reg.bhi)
		if size == 0 {
			continue
		}
		matched += size
		queue = append(queue,
			region{reg.alo, i, reg.blo, j},
			region{i + size, reg.ahi, j + size, reg.bhi})
	}
	return matched
}

// longestMatch finds the longest block where a[alo:ahi] and b[blo:bhi] agree,
// preferring the earliest such block on ties.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	lengths := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newLengths := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := lengths[j-1] + 1
			newLengths[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		lengths = newLengths
	}
	return besti, bestj, bestsize
}
