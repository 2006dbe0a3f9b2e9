package compression

import "math"

// DefaultTargetWeissman is the target score used when none is configured.
const DefaultTargetWeissman = 5.0

// EstimateScore computes the Weissman score of a compression. It is a display
// heuristic with no bearing on correctness, and it is deterministic: identical
// arguments always produce identical scores.
//
// A zero compressed size scores target+1. Otherwise the score is
// (log2(original/compressed + 1) + len(algorithm)%4 + target) / 2.
func EstimateScore(algorithm string, originalSize, compressedSize int, target float64) float64 {
	if compressedSize == 0 {
		return target + 1
	}

	ratio := float64(originalSize) / float64(compressedSize)
	normalized := math.Log2(ratio + 1)
	algoWeight := float64(len(algorithm) % 4)

	return (normalized + algoWeight + target) / 2
}
