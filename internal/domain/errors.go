package domain

import "fmt"

// MissingDataError indicates a requested ticker returned no price rows in
// the analysis range.
type MissingDataError struct {
	Ticker string
}

func (e MissingDataError) Error() string {
	return fmt.Sprintf("no price data for ticker %s in requested range", e.Ticker)
}

// InsufficientHistoryError indicates too few periods were available to
// compute a requested statistic or return series.
type InsufficientHistoryError struct {
	What string // what could not be computed (e.g. "returns for SPY", "CVaR tail")
	Need int
	Got  int
}

func (e InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s: need at least %d periods, got %d", e.What, e.Need, e.Got)
}

// DegenerateVolatilityError indicates a variance or deviation used as a
// divisor is zero. The statistic is undefined, never infinity.
type DegenerateVolatilityError struct {
	Quantity string // the zero divisor (e.g. "portfolio volatility", "benchmark variance")
}

func (e DegenerateVolatilityError) Error() string {
	return fmt.Sprintf("degenerate volatility: %s is zero", e.Quantity)
}

// MissingBenchmarkError indicates beta was requested without a benchmark
// return series.
type MissingBenchmarkError struct{}

func (e MissingBenchmarkError) Error() string {
	return "beta requires a benchmark return series"
}

// InvalidConfigurationError indicates an invalid analysis configuration
// (zero weight sum, alpha outside (0,1), inverted date range, unknown
// rebalancing frequency, duplicate ticker).
type InvalidConfigurationError struct {
	Reason string
}

func (e InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}
