package returns

import "github.com/KeithMadison/investment-portfolio/internal/domain"

// Table holds periodic simple returns at the portfolio's rebalancing
// cadence: one row per period-end date, one column per asset, plus the
// weighted portfolio return. Rows are strictly increasing by date. Derived
// deterministically from prices and weights - recomputed, never mutated.
type Table struct {
	Dates        []string             `json:"dates"` // period-end dates
	Tickers      []string             `json:"tickers"`
	AssetReturns map[string][]float64 `json:"asset_returns"`
	Portfolio    []float64            `json:"portfolio_returns"`
	Frequency    domain.Frequency     `json:"frequency"`
}

// NumPeriods returns the number of return periods.
func (t *Table) NumPeriods() int {
	return len(t.Dates)
}

// EqualWeightedBenchmark returns the per-period mean across the asset
// return columns. It serves as the default market proxy for beta when the
// caller supplies no benchmark series.
func (t *Table) EqualWeightedBenchmark() []float64 {
	n := t.NumPeriods()
	if n == 0 || len(t.Tickers) == 0 {
		return []float64{}
	}

	benchmark := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for _, ticker := range t.Tickers {
			sum += t.AssetReturns[ticker][i]
		}
		benchmark[i] = sum / float64(len(t.Tickers))
	}
	return benchmark
}
