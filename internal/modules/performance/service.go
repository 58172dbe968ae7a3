// Package performance computes the return-side time series for a portfolio:
// periodic returns, compounded cumulative value and the P&L decompositions.
package performance

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
)

// Metrics holds the return-side outputs for one portfolio. The value of the
// period before the first return equals InitialInvestment; every series has
// one entry per return period.
type Metrics struct {
	Dates             []string  `json:"dates"`
	InitialInvestment float64   `json:"initial_investment"`
	PeriodicReturns   []float64 `json:"periodic_returns"`
	CumulativeValue   []float64 `json:"cumulative_value"`
	CumulativePnL     []float64 `json:"cumulative_pnl"`
	PeriodicPnL       []float64 `json:"periodic_pnl"`
}

// FinalValue returns the last cumulative value, or the initial investment
// when the series is empty.
func (m *Metrics) FinalValue() float64 {
	if len(m.CumulativeValue) == 0 {
		return m.InitialInvestment
	}
	return m.CumulativeValue[len(m.CumulativeValue)-1]
}

// Service computes return metrics.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new performance service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "performance").Logger(),
	}
}

// Compute derives the cumulative value by compounding the weighted periodic
// returns from the initial investment, plus the cumulative and periodic
// P&L. An empty returns table yields empty series, not an error.
func (s *Service) Compute(table *returns.Table, initialInvestment float64) (*Metrics, error) {
	if initialInvestment <= 0 {
		return nil, domain.InvalidConfigurationError{
			Reason: fmt.Sprintf("initial investment must be positive, got %v", initialInvestment),
		}
	}

	n := table.NumPeriods()
	metrics := &Metrics{
		Dates:             append([]string(nil), table.Dates...),
		InitialInvestment: initialInvestment,
		PeriodicReturns:   append([]float64(nil), table.Portfolio...),
		CumulativeValue:   make([]float64, n),
		CumulativePnL:     make([]float64, n),
		PeriodicPnL:       make([]float64, n),
	}

	value := initialInvestment
	for t := 0; t < n; t++ {
		previous := value
		value *= 1 + table.Portfolio[t]
		metrics.CumulativeValue[t] = value
		metrics.CumulativePnL[t] = value - initialInvestment
		metrics.PeriodicPnL[t] = value - previous
	}

	s.log.Debug().
		Int("num_periods", n).
		Float64("final_value", metrics.FinalValue()).
		Msg("Computed return metrics")

	return metrics, nil
}
