package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPortfolio(t *testing.T) {
	tests := []struct {
		name    string
		assets  []AssetWeight
		start   string
		end     string
		freq    Frequency
		wantErr string
	}{
		{
			name:   "valid two-asset portfolio",
			assets: []AssetWeight{{Ticker: "SPY", Weight: 0.6}, {Ticker: "AGG", Weight: 0.4}},
			start:  "2021-01-01",
			end:    "2023-12-31",
			freq:   FrequencyMonthly,
		},
		{
			name:   "unnormalized weights are accepted",
			assets: []AssetWeight{{Ticker: "SPY", Weight: 50}, {Ticker: "AGG", Weight: 50}},
			start:  "2021-01-01",
			end:    "2023-12-31",
			freq:   FrequencyMonthly,
		},
		{
			name:    "no assets",
			assets:  nil,
			start:   "2021-01-01",
			end:     "2023-12-31",
			freq:    FrequencyMonthly,
			wantErr: "no assets",
		},
		{
			name:    "duplicate ticker",
			assets:  []AssetWeight{{Ticker: "SPY", Weight: 0.5}, {Ticker: "SPY", Weight: 0.5}},
			start:   "2021-01-01",
			end:     "2023-12-31",
			freq:    FrequencyMonthly,
			wantErr: "duplicate ticker",
		},
		{
			name:    "weights sum to zero",
			assets:  []AssetWeight{{Ticker: "SPY", Weight: 1.0}, {Ticker: "AGG", Weight: -1.0}},
			start:   "2021-01-01",
			end:     "2023-12-31",
			freq:    FrequencyMonthly,
			wantErr: "sum to zero",
		},
		{
			name:    "end before start",
			assets:  []AssetWeight{{Ticker: "SPY", Weight: 1.0}},
			start:   "2023-12-31",
			end:     "2021-01-01",
			freq:    FrequencyMonthly,
			wantErr: "end date before start date",
		},
		{
			name:    "unknown frequency",
			assets:  []AssetWeight{{Ticker: "SPY", Weight: 1.0}},
			start:   "2021-01-01",
			end:     "2023-12-31",
			freq:    Frequency("fortnightly"),
			wantErr: "unrecognized rebalancing frequency",
		},
		{
			name:    "malformed date",
			assets:  []AssetWeight{{Ticker: "SPY", Weight: 1.0}},
			start:   "01/01/2021",
			end:     "2023-12-31",
			freq:    FrequencyMonthly,
			wantErr: "invalid start date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPortfolio(tt.assets, tt.start, tt.end, tt.freq)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var cfgErr InvalidConfigurationError
				assert.True(t, errors.As(err, &cfgErr), "expected InvalidConfigurationError, got %T", err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
		})
	}
}

func TestNormalizedWeights(t *testing.T) {
	t.Run("scale invariance", func(t *testing.T) {
		small, err := NewPortfolio(
			[]AssetWeight{{Ticker: "SPY", Weight: 1}, {Ticker: "AGG", Weight: 1}},
			"2021-01-01", "2023-12-31", FrequencyMonthly)
		require.NoError(t, err)

		large, err := NewPortfolio(
			[]AssetWeight{{Ticker: "SPY", Weight: 50}, {Ticker: "AGG", Weight: 50}},
			"2021-01-01", "2023-12-31", FrequencyMonthly)
		require.NoError(t, err)

		ws, err := small.NormalizedWeights()
		require.NoError(t, err)
		wl, err := large.NormalizedWeights()
		require.NoError(t, err)

		assert.InDeltaSlice(t, ws, wl, 1e-12)
	})

	t.Run("sums to one", func(t *testing.T) {
		p, err := NewPortfolio(
			[]AssetWeight{{Ticker: "SPY", Weight: 0.6}, {Ticker: "AGG", Weight: 0.3}, {Ticker: "TIP", Weight: 0.1}},
			"2021-01-01", "2023-12-31", FrequencyMonthly)
		require.NoError(t, err)

		weights, err := p.NormalizedWeights()
		require.NoError(t, err)

		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	})

	t.Run("does not mutate assets", func(t *testing.T) {
		assets := []AssetWeight{{Ticker: "SPY", Weight: 60}, {Ticker: "AGG", Weight: 40}}
		p, err := NewPortfolio(assets, "2021-01-01", "2023-12-31", FrequencyMonthly)
		require.NoError(t, err)

		_, err = p.NormalizedWeights()
		require.NoError(t, err)

		assert.Equal(t, 60.0, assets[0].Weight)
		assert.Equal(t, 40.0, assets[1].Weight)
		assert.Equal(t, 60.0, p.Assets[0].Weight)
	})

	t.Run("short positions normalize against net exposure", func(t *testing.T) {
		p, err := NewPortfolio(
			[]AssetWeight{{Ticker: "SPY", Weight: 1.5}, {Ticker: "AGG", Weight: -0.5}},
			"2021-01-01", "2023-12-31", FrequencyMonthly)
		require.NoError(t, err)

		weights, err := p.NormalizedWeights()
		require.NoError(t, err)
		assert.InDelta(t, 1.5, weights[0], 1e-12)
		assert.InDelta(t, -0.5, weights[1], 1e-12)
	})
}

func TestTickers(t *testing.T) {
	p, err := NewPortfolio(
		[]AssetWeight{{Ticker: "SPY", Weight: 0.6}, {Ticker: "AGG", Weight: 0.4}},
		"2021-01-01", "2023-12-31", FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "AGG"}, p.Tickers())
}
