package utils

import "math"

// NormalizeL2 scales the vector in place to unit L2 norm so that inner
// products over normalized vectors equal cosine similarity. A zero vector is
// left unchanged. Accumulation runs in float64 to limit rounding drift on
// long vectors.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range x {
		x[i] *= inv
	}
}
