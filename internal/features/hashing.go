package features

import (
	"hash/fnv"
	"strings"
)

// hashBlock applies the signed hashing trick to a whitespace-tokenized text
// attribute: each token lands in bucket FNV-1a(token) mod buckets with sign
// taken from the top hash bit. Collisions are expected and tolerated; the
// output width never depends on the input vocabulary, which bounds the
// feature space against vocabulary-inflation inputs.
func hashBlock(text string, buckets int) []float64 {
	out := make([]float64, buckets)
	for _, tok := range strings.Fields(text) {
		h := hashToken(tok)
		idx := int(h % uint32(buckets))
		if h&(1<<31) != 0 {
			out[idx]--
		} else {
			out[idx]++
		}
	}
	return out
}

func hashToken(tok string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tok))
	return h.Sum32()
}
