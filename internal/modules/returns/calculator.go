// Package returns converts aligned price histories into periodic simple
// returns under systematic rebalancing: target weights are reapplied at
// every period boundary rather than drifting with prices.
package returns

import (
	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
	"github.com/KeithMadison/investment-portfolio/pkg/formulas"
)

// Calculator computes return tables from price tables.
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a new return calculator.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{
		log: log.With().Str("component", "returns").Logger(),
	}
}

// Compute resamples the price table to the portfolio's rebalancing
// boundaries and produces per-asset and weighted portfolio returns. The
// first resampled price has no prior value, so the table has one fewer row
// than the resampled price series.
func (c *Calculator) Compute(prices *marketdata.PriceTable, portfolio *domain.Portfolio) (*Table, error) {
	weights, err := portfolio.NormalizedWeights()
	if err != nil {
		return nil, err
	}

	tickers := portfolio.Tickers()
	for _, ticker := range tickers {
		column, ok := prices.Column(ticker)
		if !ok || len(column) == 0 {
			return nil, domain.MissingDataError{Ticker: ticker}
		}
	}

	indices, err := resampleIndices(prices.Dates, portfolio.Frequency)
	if err != nil {
		return nil, err
	}
	if len(indices) < 2 {
		return nil, domain.InsufficientHistoryError{
			What: "resampled prices",
			Need: 2,
			Got:  len(indices),
		}
	}

	numPeriods := len(indices) - 1
	dates := make([]string, numPeriods)
	for i, idx := range indices[1:] {
		dates[i] = prices.Dates[idx]
	}

	assetReturns := make(map[string][]float64, len(tickers))
	for _, ticker := range tickers {
		column, _ := prices.Column(ticker)
		resampled := make([]float64, len(indices))
		for i, idx := range indices {
			resampled[i] = column[idx]
		}
		assetReturns[ticker] = formulas.SimpleReturns(resampled)
	}

	// Weighted sum with normalized target weights, identical every period:
	// the portfolio rebalances back to target at each boundary.
	portfolioReturns := make([]float64, numPeriods)
	for t := 0; t < numPeriods; t++ {
		weighted := 0.0
		for i, ticker := range tickers {
			weighted += weights[i] * assetReturns[ticker][t]
		}
		portfolioReturns[t] = weighted
	}

	c.log.Debug().
		Int("num_periods", numPeriods).
		Int("num_assets", len(tickers)).
		Str("frequency", string(portfolio.Frequency)).
		Msg("Computed returns table")

	return &Table{
		Dates:        dates,
		Tickers:      tickers,
		AssetReturns: assetReturns,
		Portfolio:    portfolioReturns,
		Frequency:    portfolio.Frequency,
	}, nil
}
