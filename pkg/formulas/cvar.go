package formulas

import (
	"math"
	"sort"
)

// TailCount returns the number of observations in the worst alpha-fraction
// of a sample of size n: ceil(alpha * n). A zero result means the sample is
// too small for the tail to contain a single observation.
func TailCount(n int, alpha float64) int {
	if n <= 0 {
		return 0
	}
	count := int(math.Ceil(float64(n) * alpha))
	if count > n {
		count = n
	}
	return count
}

// ExpectedShortfall returns the mean of the worst tailCount returns.
// The input slice is not modified.
func ExpectedShortfall(returns []float64, tailCount int) float64 {
	if len(returns) == 0 || tailCount <= 0 {
		return 0
	}
	if tailCount > len(returns) {
		tailCount = len(returns)
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	sum := 0.0
	for _, r := range sorted[:tailCount] {
		sum += r
	}
	return sum / float64(tailCount)
}
