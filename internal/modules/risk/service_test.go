package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
	"github.com/KeithMadison/investment-portfolio/pkg/formulas"
)

func monthlyTable(portfolio []float64) *returns.Table {
	base := []string{
		"2023-01-31", "2023-02-28", "2023-03-31", "2023-04-28",
		"2023-05-31", "2023-06-30", "2023-07-31", "2023-08-31",
		"2023-09-29", "2023-10-31", "2023-11-30", "2023-12-29",
		"2024-01-31", "2024-02-29", "2024-03-28", "2024-04-30",
		"2024-05-31", "2024-06-28", "2024-07-31", "2024-08-30",
	}
	dates := make([]string, len(portfolio))
	copy(dates, base)

	assetReturns := make([]float64, len(portfolio))
	copy(assetReturns, portfolio)

	return &returns.Table{
		Dates:        dates,
		Tickers:      []string{"AAA"},
		AssetReturns: map[string][]float64{"AAA": assetReturns},
		Portfolio:    portfolio,
		Frequency:    domain.FrequencyMonthly,
	}
}

func TestAnnualizedStdDev(t *testing.T) {
	service := NewService(zerolog.Nop())

	periodReturns := []float64{0.02, -0.01, 0.03, 0.01, -0.02}

	got, err := service.AnnualizedStdDev(monthlyTable(periodReturns))
	require.NoError(t, err)

	want := formulas.StdDev(periodReturns) * math.Sqrt(12)
	assert.InDelta(t, want, got, 1e-12)

	_, err = service.AnnualizedStdDev(monthlyTable([]float64{0.01}))
	var insufficient domain.InsufficientHistoryError
	assert.True(t, errors.As(err, &insufficient))
}

func TestBeta(t *testing.T) {
	service := NewService(zerolog.Nop())

	t.Run("portfolio identical to benchmark has beta of exactly one", func(t *testing.T) {
		series := []float64{0.02, -0.01, 0.03, 0.01, -0.02, 0.015}

		beta, err := service.Beta(monthlyTable(series), series)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, beta, 1e-12)
	})

	t.Run("single asset portfolio against its own benchmark", func(t *testing.T) {
		// One asset at full weight: the equal-weighted benchmark is the
		// portfolio itself, so beta must be exactly one.
		table := monthlyTable([]float64{0.02, -0.01, 0.03, 0.01, -0.02})

		beta, err := service.Beta(table, table.EqualWeightedBenchmark())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, beta, 1e-12)
	})

	t.Run("leveraged portfolio doubles beta", func(t *testing.T) {
		benchmark := []float64{0.02, -0.01, 0.03, 0.01, -0.02}
		portfolio := make([]float64, len(benchmark))
		for i, r := range benchmark {
			portfolio[i] = 2 * r
		}

		beta, err := service.Beta(monthlyTable(portfolio), benchmark)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, beta, 1e-12)
	})

	t.Run("nil benchmark", func(t *testing.T) {
		_, err := service.Beta(monthlyTable([]float64{0.01, 0.02, 0.03}), nil)
		require.Error(t, err)

		var missing domain.MissingBenchmarkError
		assert.True(t, errors.As(err, &missing))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := service.Beta(monthlyTable([]float64{0.01, 0.02, 0.03}), []float64{0.01, 0.02})
		require.Error(t, err)

		var invalid domain.InvalidConfigurationError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("zero variance benchmark", func(t *testing.T) {
		_, err := service.Beta(
			monthlyTable([]float64{0.01, 0.02, 0.03}),
			[]float64{0.01, 0.01, 0.01},
		)
		require.Error(t, err)

		var degenerate domain.DegenerateVolatilityError
		assert.True(t, errors.As(err, &degenerate))
	})
}

func TestSharpeRatio(t *testing.T) {
	service := NewService(zerolog.Nop())

	t.Run("zero risk free rate", func(t *testing.T) {
		periodReturns := []float64{0.02, -0.01, 0.03, 0.01, -0.02, 0.015}

		got, err := service.SharpeRatio(monthlyTable(periodReturns), 0.0)
		require.NoError(t, err)

		want := formulas.Mean(periodReturns) / formulas.StdDev(periodReturns) * math.Sqrt(12)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("positive risk free rate lowers the ratio", func(t *testing.T) {
		periodReturns := []float64{0.02, -0.01, 0.03, 0.01, -0.02, 0.015}

		base, err := service.SharpeRatio(monthlyTable(periodReturns), 0.0)
		require.NoError(t, err)
		adjusted, err := service.SharpeRatio(monthlyTable(periodReturns), 0.04)
		require.NoError(t, err)

		assert.Less(t, adjusted, base)
	})

	t.Run("constant returns are degenerate", func(t *testing.T) {
		_, err := service.SharpeRatio(monthlyTable([]float64{0.01, 0.01, 0.01}), 0.0)
		require.Error(t, err)

		var degenerate domain.DegenerateVolatilityError
		assert.True(t, errors.As(err, &degenerate))
	})
}

func TestCVaR(t *testing.T) {
	service := NewService(zerolog.Nop())

	t.Run("five percent tail of twenty periods is the single worst period", func(t *testing.T) {
		periodReturns := make([]float64, 20)
		for i := range periodReturns {
			periodReturns[i] = 0.01
		}
		periodReturns[7] = -0.08

		got, err := service.CVaR(monthlyTable(periodReturns), 0.05)
		require.NoError(t, err)
		assert.InDelta(t, -0.08, got, 1e-12)
	})

	t.Run("all positive tail clamps to zero", func(t *testing.T) {
		got, err := service.CVaR(monthlyTable([]float64{0.01, 0.02, 0.03, 0.04}), 0.5)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("alpha out of range", func(t *testing.T) {
		for _, alpha := range []float64{0.0, 1.0, -0.1, 1.5} {
			_, err := service.CVaR(monthlyTable([]float64{0.01, -0.02, 0.03}), alpha)
			require.Error(t, err)

			var invalid domain.InvalidConfigurationError
			assert.True(t, errors.As(err, &invalid), "alpha %v", alpha)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		_, err := service.CVaR(monthlyTable(nil), 0.05)
		require.Error(t, err)

		var insufficient domain.InsufficientHistoryError
		assert.True(t, errors.As(err, &insufficient))
	})
}

func TestSortinoRatio(t *testing.T) {
	service := NewService(zerolog.Nop())

	t.Run("mixed returns", func(t *testing.T) {
		periodReturns := []float64{0.02, -0.01, 0.03, -0.02, 0.01}

		got, err := service.SortinoRatio(monthlyTable(periodReturns), 0.0)
		require.NoError(t, err)

		downside := formulas.DownsideDeviation(periodReturns, 0.0)
		want := formulas.Mean(periodReturns) / downside * math.Sqrt(12)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("no downside periods is degenerate", func(t *testing.T) {
		_, err := service.SortinoRatio(monthlyTable([]float64{0.01, 0.02, 0.03}), 0.0)
		require.Error(t, err)

		var degenerate domain.DegenerateVolatilityError
		assert.True(t, errors.As(err, &degenerate))
	})
}

func TestComputeSummary(t *testing.T) {
	service := NewService(zerolog.Nop())

	table := monthlyTable([]float64{0.02, -0.01, 0.03, -0.02, 0.01, 0.015})
	benchmark := []float64{0.015, -0.005, 0.02, -0.015, 0.005, 0.01}

	summary, err := service.Compute(table, benchmark, 0.02, 0.5)
	require.NoError(t, err)

	assert.Greater(t, summary.AnnualizedStdDev, 0.0)
	assert.Greater(t, summary.Beta, 0.0)
	assert.LessOrEqual(t, summary.CVaR, 0.0)
	assert.Equal(t, 0.02, summary.RiskFreeRate)
	assert.Equal(t, 0.5, summary.Alpha)

	_, err = service.Compute(table, nil, 0.02, 0.05)
	require.Error(t, err)
	var missing domain.MissingBenchmarkError
	assert.True(t, errors.As(err, &missing))
}
