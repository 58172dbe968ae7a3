// Package formulas provides the scalar statistics shared by the analytics
// modules. All dispersion statistics use the sample (N-1) convention so that
// covariance-based decomposition and downstream variances agree.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// SimpleReturns converts prices to period-over-period simple returns.
// Returns[i] = Price[i+1]/Price[i] - 1. The first price has no prior value,
// so the result has one fewer element than the input.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = prices[i]/prices[i-1] - 1
		}
	}
	return returns
}

// DownsideDeviation computes the root-mean-square of negative excess returns
// against a target. Non-negative excess returns contribute zero but still
// count toward the denominator: the mean square is taken over all periods.
func DownsideDeviation(returns []float64, target float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sumSq := 0.0
	for _, r := range returns {
		if excess := r - target; excess < 0 {
			sumSq += excess * excess
		}
	}
	return math.Sqrt(sumSq / float64(len(returns)))
}
