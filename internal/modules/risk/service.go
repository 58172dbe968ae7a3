// Package risk computes the scalar risk statistics for a portfolio's
// weighted return series and the covariance-based volatility
// decomposition. Every statistic is an independent pure computation:
// callers may request any subset without computing the others.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
	"github.com/KeithMadison/investment-portfolio/pkg/formulas"
)

// Service computes risk metrics.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new risk service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "risk").Logger(),
	}
}

// AnnualizedStdDev returns the sample standard deviation of periodic
// portfolio returns scaled by the square root of the frequency's fixed
// periods-per-year constant.
func (s *Service) AnnualizedStdDev(table *returns.Table) (float64, error) {
	if table.NumPeriods() < 2 {
		return 0, domain.InsufficientHistoryError{
			What: "portfolio volatility",
			Need: 2,
			Got:  table.NumPeriods(),
		}
	}

	periodsPerYear, err := table.Frequency.PeriodsPerYear()
	if err != nil {
		return 0, err
	}

	return formulas.AnnualizedVolatility(formulas.StdDev(table.Portfolio), periodsPerYear), nil
}

// Beta returns the sensitivity of portfolio returns to the benchmark:
// Cov(portfolio, benchmark) / Var(benchmark). It fails with
// MissingBenchmarkError when no benchmark is supplied and with
// DegenerateVolatilityError when the benchmark variance is zero.
func (s *Service) Beta(table *returns.Table, benchmark []float64) (float64, error) {
	if len(benchmark) == 0 {
		return 0, domain.MissingBenchmarkError{}
	}
	if len(benchmark) != table.NumPeriods() {
		return 0, domain.InvalidConfigurationError{
			Reason: fmt.Sprintf("benchmark has %d periods, portfolio has %d", len(benchmark), table.NumPeriods()),
		}
	}
	if table.NumPeriods() < 2 {
		return 0, domain.InsufficientHistoryError{
			What: "beta",
			Need: 2,
			Got:  table.NumPeriods(),
		}
	}

	benchmarkVariance := formulas.Variance(benchmark)
	if benchmarkVariance == 0 {
		return 0, domain.DegenerateVolatilityError{Quantity: "benchmark variance"}
	}

	return formulas.Covariance(table.Portfolio, benchmark) / benchmarkVariance, nil
}

// SharpeRatio returns the annualized Sharpe ratio. The annual risk-free
// rate is converted to per-period terms by the geometric root, and the
// ratio (not its inputs) is scaled by sqrt(periods per year).
func (s *Service) SharpeRatio(table *returns.Table, riskFreeRate float64) (float64, error) {
	if table.NumPeriods() < 2 {
		return 0, domain.InsufficientHistoryError{
			What: "Sharpe ratio",
			Need: 2,
			Got:  table.NumPeriods(),
		}
	}

	periodsPerYear, err := table.Frequency.PeriodsPerYear()
	if err != nil {
		return 0, err
	}

	stdDev := formulas.StdDev(table.Portfolio)
	if stdDev == 0 {
		return 0, domain.DegenerateVolatilityError{Quantity: "portfolio volatility"}
	}

	rfPerPeriod := formulas.PeriodicRiskFreeRate(riskFreeRate, periodsPerYear)
	ratio := (formulas.Mean(table.Portfolio) - rfPerPeriod) / stdDev
	return formulas.AnnualizeRatio(ratio, periodsPerYear), nil
}

// CVaR returns the expected loss in the worst alpha-fraction of periods:
// the mean of the worst ceil(alpha*n) returns, reported as a
// negative-or-zero loss magnitude.
func (s *Service) CVaR(table *returns.Table, alpha float64) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, domain.InvalidConfigurationError{
			Reason: fmt.Sprintf("CVaR significance level must be in (0,1), got %v", alpha),
		}
	}

	n := table.NumPeriods()
	tailCount := formulas.TailCount(n, alpha)
	if tailCount == 0 {
		return 0, domain.InsufficientHistoryError{
			What: "CVaR tail",
			Need: 1,
			Got:  n,
		}
	}

	return math.Min(formulas.ExpectedShortfall(table.Portfolio, tailCount), 0), nil
}

// SortinoRatio returns the annualized Sortino ratio: excess return over
// the downside deviation, where the downside deviation is the
// root-mean-square of negative excess returns over all periods. When no
// period has a negative excess return the ratio is undefined (not
// infinity) and fails with DegenerateVolatilityError.
func (s *Service) SortinoRatio(table *returns.Table, riskFreeRate float64) (float64, error) {
	if table.NumPeriods() < 1 {
		return 0, domain.InsufficientHistoryError{
			What: "Sortino ratio",
			Need: 1,
			Got:  0,
		}
	}

	periodsPerYear, err := table.Frequency.PeriodsPerYear()
	if err != nil {
		return 0, err
	}

	rfPerPeriod := formulas.PeriodicRiskFreeRate(riskFreeRate, periodsPerYear)
	downside := formulas.DownsideDeviation(table.Portfolio, rfPerPeriod)
	if downside == 0 {
		return 0, domain.DegenerateVolatilityError{Quantity: "downside deviation"}
	}

	ratio := (formulas.Mean(table.Portfolio) - rfPerPeriod) / downside
	return formulas.AnnualizeRatio(ratio, periodsPerYear), nil
}

// Compute produces the full risk summary. benchmark may be nil only if the
// caller accepts a beta failure; analyses that want the default market
// proxy pass table.EqualWeightedBenchmark().
func (s *Service) Compute(table *returns.Table, benchmark []float64, riskFreeRate, alpha float64) (*Summary, error) {
	stdDev, err := s.AnnualizedStdDev(table)
	if err != nil {
		return nil, fmt.Errorf("failed to compute annualized std deviation: %w", err)
	}

	beta, err := s.Beta(table, benchmark)
	if err != nil {
		return nil, fmt.Errorf("failed to compute beta: %w", err)
	}

	sharpe, err := s.SharpeRatio(table, riskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute Sharpe ratio: %w", err)
	}

	cvar, err := s.CVaR(table, alpha)
	if err != nil {
		return nil, fmt.Errorf("failed to compute CVaR: %w", err)
	}

	sortino, err := s.SortinoRatio(table, riskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute Sortino ratio: %w", err)
	}

	s.log.Debug().
		Float64("annualized_std_dev", stdDev).
		Float64("beta", beta).
		Float64("sharpe", sharpe).
		Float64("cvar", cvar).
		Float64("sortino", sortino).
		Msg("Computed risk summary")

	return &Summary{
		AnnualizedStdDev: stdDev,
		Beta:             beta,
		SharpeRatio:      sharpe,
		CVaR:             cvar,
		SortinoRatio:     sortino,
		RiskFreeRate:     riskFreeRate,
		Alpha:            alpha,
	}, nil
}
