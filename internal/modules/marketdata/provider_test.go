package marketdata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
)

func TestBuildPriceTable(t *testing.T) {
	t.Run("aligns on intersection of dates", func(t *testing.T) {
		series := map[string][]PricePoint{
			"SPY": {
				{Date: "2023-01-02", AdjClose: 100},
				{Date: "2023-01-03", AdjClose: 101},
				{Date: "2023-01-04", AdjClose: 102},
			},
			"AGG": {
				// 2023-01-03 missing (e.g. bond market holiday)
				{Date: "2023-01-02", AdjClose: 50},
				{Date: "2023-01-04", AdjClose: 51},
			},
		}

		table, err := BuildPriceTable(series, []string{"SPY", "AGG"})
		require.NoError(t, err)

		assert.Equal(t, []string{"2023-01-02", "2023-01-04"}, table.Dates)
		assert.Equal(t, []float64{100, 102}, table.Prices["SPY"])
		assert.Equal(t, []float64{50, 51}, table.Prices["AGG"])
	})

	t.Run("dates are sorted ascending regardless of input order", func(t *testing.T) {
		series := map[string][]PricePoint{
			"SPY": {
				{Date: "2023-01-04", AdjClose: 102},
				{Date: "2023-01-02", AdjClose: 100},
				{Date: "2023-01-03", AdjClose: 101},
			},
		}

		table, err := BuildPriceTable(series, []string{"SPY"})
		require.NoError(t, err)
		assert.Equal(t, []string{"2023-01-02", "2023-01-03", "2023-01-04"}, table.Dates)
		assert.Equal(t, []float64{100, 101, 102}, table.Prices["SPY"])
	})

	t.Run("ticker with no rows fails with MissingDataError", func(t *testing.T) {
		series := map[string][]PricePoint{
			"SPY": {{Date: "2023-01-02", AdjClose: 100}},
			"AGG": {},
		}

		_, err := BuildPriceTable(series, []string{"SPY", "AGG"})
		require.Error(t, err)

		var missing domain.MissingDataError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "AGG", missing.Ticker)
	})

	t.Run("ticker absent from series fails with MissingDataError", func(t *testing.T) {
		series := map[string][]PricePoint{
			"SPY": {{Date: "2023-01-02", AdjClose: 100}},
		}

		_, err := BuildPriceTable(series, []string{"SPY", "TIP"})
		var missing domain.MissingDataError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "TIP", missing.Ticker)
	})

	t.Run("empty intersection yields empty table not error", func(t *testing.T) {
		// Disjoint dates: the table is empty and downstream components
		// surface InsufficientHistoryError when they need rows.
		series := map[string][]PricePoint{
			"SPY": {{Date: "2023-01-02", AdjClose: 100}},
			"AGG": {{Date: "2023-01-03", AdjClose: 50}},
		}

		table, err := BuildPriceTable(series, []string{"SPY", "AGG"})
		require.NoError(t, err)
		assert.Equal(t, 0, table.NumRows())
	})
}
