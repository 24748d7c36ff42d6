// Package contentstats computes statistics over raw byte content,
// independent of any structural parsing.
package contentstats

import "math"

// Entropy computes the Shannon entropy (base 2) of the byte-value histogram
// over the entire content. Empty content has entropy 0 by definition; a
// uniform byte distribution reaches the maximum of 8.0.
func Entropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	var entropy float64
	total := float64(len(data))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
