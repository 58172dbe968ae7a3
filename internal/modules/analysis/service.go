// Package analysis orchestrates the full metrics pipeline for a portfolio:
// price retrieval, return calculation, performance and risk metrics, and
// the volatility decomposition. Results are memoized in the calculations
// cache keyed by the full analysis input.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/calculations"
	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
	"github.com/KeithMadison/investment-portfolio/internal/modules/performance"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
	"github.com/KeithMadison/investment-portfolio/internal/modules/risk"
)

// Defaults are the configured fallbacks applied when a request leaves an
// analysis parameter unset.
type Defaults struct {
	RiskFreeRate      float64
	CVaRAlpha         float64
	InitialInvestment float64
}

// Service runs portfolio analyses.
type Service struct {
	provider    marketdata.Provider
	calculator  *returns.Calculator
	performance *performance.Service
	risk        *risk.Service
	cache       *calculations.Cache // nil disables memoization
	defaults    Defaults
	cacheTTL    time.Duration
	log         zerolog.Logger
}

// NewService creates a new analysis service. cache may be nil, in which
// case every analysis runs the full pipeline.
func NewService(
	provider marketdata.Provider,
	calculator *returns.Calculator,
	performanceService *performance.Service,
	riskService *risk.Service,
	cache *calculations.Cache,
	defaults Defaults,
	log zerolog.Logger,
) *Service {
	return &Service{
		provider:    provider,
		calculator:  calculator,
		performance: performanceService,
		risk:        riskService,
		cache:       cache,
		defaults:    defaults,
		cacheTTL:    time.Hour,
		log:         log.With().Str("service", "analysis").Logger(),
	}
}

func (s *Service) rate(opts Options) float64 {
	if opts.RiskFreeRate != nil {
		return *opts.RiskFreeRate
	}
	return s.defaults.RiskFreeRate
}

func (s *Service) alpha(opts Options) float64 {
	if opts.CVaRAlpha != nil {
		return *opts.CVaRAlpha
	}
	return s.defaults.CVaRAlpha
}

func (s *Service) investment(opts Options) float64 {
	if opts.InitialInvestment != nil {
		return *opts.InitialInvestment
	}
	return s.defaults.InitialInvestment
}

// Analyze runs the full pipeline for one portfolio. A cached result is
// returned when an identical analysis ran within the cache TTL.
func (s *Service) Analyze(ctx context.Context, portfolio *domain.Portfolio, opts Options) (*Result, error) {
	riskFreeRate := s.rate(opts)
	cvarAlpha := s.alpha(opts)
	initialInvestment := s.investment(opts)

	key := calculations.Key(cacheKeyParts(portfolio, riskFreeRate, cvarAlpha, initialInvestment, opts.Benchmark)...)
	if s.cache != nil {
		var cached Result
		found, err := s.cache.Get(key, &cached)
		if err != nil {
			s.log.Warn().Err(err).Msg("Cache lookup failed, recomputing")
		} else if found {
			s.log.Debug().Str("id", cached.ID).Msg("Analysis served from cache")
			return &cached, nil
		}
	}

	result, err := s.analyze(ctx, portfolio, riskFreeRate, cvarAlpha, initialInvestment, opts.Benchmark)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(key, result, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache analysis result")
		}
	}
	return result, nil
}

func (s *Service) analyze(ctx context.Context, portfolio *domain.Portfolio, riskFreeRate, cvarAlpha, initialInvestment float64, benchmark []float64) (*Result, error) {
	prices, err := marketdata.FetchPriceTable(ctx, s.provider, portfolio.Tickers(), portfolio.StartDate, portfolio.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	table, err := s.calculator.Compute(prices, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to compute returns: %w", err)
	}

	metrics, err := s.performance.Compute(table, initialInvestment)
	if err != nil {
		return nil, fmt.Errorf("failed to compute performance metrics: %w", err)
	}

	if benchmark == nil {
		benchmark = table.EqualWeightedBenchmark()
	}

	summary, err := s.risk.Compute(table, benchmark, riskFreeRate, cvarAlpha)
	if err != nil {
		return nil, fmt.Errorf("failed to compute risk metrics: %w", err)
	}

	decomposition, err := s.risk.DecomposeVolatility(table, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to decompose volatility: %w", err)
	}

	result := &Result{
		ID:            uuid.NewString(),
		GeneratedAt:   time.Now().UTC(),
		Assets:        append([]domain.AssetWeight(nil), portfolio.Assets...),
		StartDate:     portfolio.StartDate,
		EndDate:       portfolio.EndDate,
		Frequency:     portfolio.Frequency,
		Returns:       table,
		Performance:   metrics,
		Risk:          summary,
		Decomposition: decomposition,
	}

	s.log.Info().
		Str("id", result.ID).
		Int("num_assets", len(portfolio.Assets)).
		Int("num_periods", table.NumPeriods()).
		Str("frequency", string(portfolio.Frequency)).
		Msg("Completed portfolio analysis")

	return result, nil
}
