// Package domain holds the core analysis entities: portfolios, asset
// weights, rebalancing frequencies and the typed error kinds shared by all
// modules. The package is pure - no infrastructure dependencies.
package domain

import (
	"fmt"
	"math"
	"time"
)

// DateFormat is the canonical date layout used throughout the system.
const DateFormat = "2006-01-02"

// AssetWeight pairs a ticker with its (possibly unnormalized) target weight.
// Weights may be negative (short positions) and need not sum to one; every
// computation that treats them as proportions normalizes first.
type AssetWeight struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// Portfolio is an ordered set of weighted assets analyzed over a date window
// at a rebalancing cadence. Immutable after construction.
type Portfolio struct {
	Assets    []AssetWeight `json:"assets"`
	StartDate string        `json:"start_date"` // YYYY-MM-DD
	EndDate   string        `json:"end_date"`   // YYYY-MM-DD
	Frequency Frequency     `json:"rebalancing_frequency"`
}

// NewPortfolio validates and constructs a Portfolio. It fails with
// InvalidConfigurationError on duplicate tickers, a zero weight sum, an
// inverted date range or an unknown frequency.
func NewPortfolio(assets []AssetWeight, startDate, endDate string, frequency Frequency) (*Portfolio, error) {
	p := &Portfolio{
		Assets:    append([]AssetWeight(nil), assets...),
		StartDate: startDate,
		EndDate:   endDate,
		Frequency: frequency,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the portfolio's construction invariants.
func (p *Portfolio) Validate() error {
	if len(p.Assets) == 0 {
		return InvalidConfigurationError{Reason: "portfolio has no assets"}
	}

	seen := make(map[string]bool, len(p.Assets))
	sum := 0.0
	for _, a := range p.Assets {
		if a.Ticker == "" {
			return InvalidConfigurationError{Reason: "asset with empty ticker"}
		}
		if seen[a.Ticker] {
			return InvalidConfigurationError{Reason: "duplicate ticker in portfolio: " + a.Ticker}
		}
		seen[a.Ticker] = true
		sum += a.Weight
	}
	if math.Abs(sum) < 1e-12 {
		return InvalidConfigurationError{Reason: "portfolio weights sum to zero"}
	}

	start, err := time.Parse(DateFormat, p.StartDate)
	if err != nil {
		return InvalidConfigurationError{Reason: fmt.Sprintf("invalid start date %q", p.StartDate)}
	}
	end, err := time.Parse(DateFormat, p.EndDate)
	if err != nil {
		return InvalidConfigurationError{Reason: fmt.Sprintf("invalid end date %q", p.EndDate)}
	}
	if end.Before(start) {
		return InvalidConfigurationError{Reason: "end date before start date"}
	}

	if _, err := p.Frequency.PeriodsPerYear(); err != nil {
		return err
	}

	return nil
}

// Tickers returns the portfolio's tickers in asset order.
func (p *Portfolio) Tickers() []string {
	tickers := make([]string, len(p.Assets))
	for i, a := range p.Assets {
		tickers[i] = a.Ticker
	}
	return tickers
}

// NormalizedWeights returns a fresh slice of weights scaled so they sum to
// one. The caller-provided weights are never mutated.
func (p *Portfolio) NormalizedWeights() ([]float64, error) {
	sum := 0.0
	for _, a := range p.Assets {
		sum += a.Weight
	}
	if math.Abs(sum) < 1e-12 {
		return nil, InvalidConfigurationError{Reason: "portfolio weights sum to zero"}
	}

	weights := make([]float64, len(p.Assets))
	for i, a := range p.Assets {
		weights[i] = a.Weight / sum
	}
	return weights, nil
}
