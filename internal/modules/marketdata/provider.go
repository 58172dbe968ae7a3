// Package marketdata defines the price-series provider boundary and the
// aligned price table consumed by the analytics modules. Providers return
// raw dated price sequences; alignment and range policy live here so every
// downstream computation sees one consistent view.
package marketdata

import (
	"context"
	"sort"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
)

// PricePoint is a single adjusted-close observation.
type PricePoint struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	AdjClose float64 `json:"adj_close"`
}

// Provider supplies adjusted closing prices at trading-day granularity.
// Implementations are synchronous: they return a complete result covering
// [startDate, endDate] or fail outright - no partial results, no streaming.
type Provider interface {
	GetAdjustedCloses(ctx context.Context, tickers []string, startDate, endDate string) (map[string][]PricePoint, error)
}

// PriceTable holds date-aligned adjusted close columns, one per asset.
// Dates are strictly ascending and shared by every column.
type PriceTable struct {
	Dates  []string
	Prices map[string][]float64
}

// NumRows returns the number of aligned trading dates.
func (t *PriceTable) NumRows() int {
	return len(t.Dates)
}

// Column returns the price column for a ticker.
func (t *PriceTable) Column(ticker string) ([]float64, bool) {
	col, ok := t.Prices[ticker]
	return col, ok
}

// BuildPriceTable aligns per-ticker price series into a single table using
// the intersection of available dates across all required tickers. The
// intersection policy guarantees that every per-asset value in a given row
// is drawn from the same trading date. A ticker with zero rows fails with
// MissingDataError before any alignment happens.
func BuildPriceTable(series map[string][]PricePoint, tickers []string) (*PriceTable, error) {
	byTickerDate := make(map[string]map[string]float64, len(tickers))
	for _, ticker := range tickers {
		points := series[ticker]
		if len(points) == 0 {
			return nil, domain.MissingDataError{Ticker: ticker}
		}
		dated := make(map[string]float64, len(points))
		for _, p := range points {
			dated[p.Date] = p.AdjClose
		}
		byTickerDate[ticker] = dated
	}

	// Intersect dates across all required tickers.
	var dates []string
	for date := range byTickerDate[tickers[0]] {
		shared := true
		for _, ticker := range tickers[1:] {
			if _, ok := byTickerDate[ticker][date]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	prices := make(map[string][]float64, len(tickers))
	for _, ticker := range tickers {
		column := make([]float64, len(dates))
		for i, date := range dates {
			column[i] = byTickerDate[ticker][date]
		}
		prices[ticker] = column
	}

	return &PriceTable{Dates: dates, Prices: prices}, nil
}

// FetchPriceTable retrieves prices for the tickers and aligns them.
func FetchPriceTable(ctx context.Context, provider Provider, tickers []string, startDate, endDate string) (*PriceTable, error) {
	series, err := provider.GetAdjustedCloses(ctx, tickers, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return BuildPriceTable(series, tickers)
}
