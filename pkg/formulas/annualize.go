package formulas

import "math"

// AnnualizedVolatility scales a per-period standard deviation to annual
// terms: sigma_annual = sigma_period * sqrt(periodsPerYear).
func AnnualizedVolatility(periodStdDev, periodsPerYear float64) float64 {
	return periodStdDev * math.Sqrt(periodsPerYear)
}

// PeriodicRiskFreeRate converts an annual risk-free rate to a per-period
// rate by the geometric root: (1+rf)^(1/periodsPerYear) - 1.
func PeriodicRiskFreeRate(annualRate, periodsPerYear float64) float64 {
	if periodsPerYear <= 0 {
		return 0
	}
	return math.Pow(1+annualRate, 1/periodsPerYear) - 1
}

// AnnualizeRatio scales a per-period risk-adjusted ratio (Sharpe, Sortino)
// to annual terms. The ratio, not its inputs, is scaled by sqrt(periods).
func AnnualizeRatio(ratio, periodsPerYear float64) float64 {
	return ratio * math.Sqrt(periodsPerYear)
}

// CompoundGrowth returns the cumulative growth factor of a return series:
// (1+r1)*(1+r2)*...*(1+rN).
func CompoundGrowth(returns []float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return growth
}
